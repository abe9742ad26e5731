package bioinfo

import (
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"

	"readBioinfo/pkg/report"
)

// Versions is the parsed software-version manifest: tool name ->
// parameter -> version string.
type Versions map[string]map[string]string

// LoadVersions parses the version manifest. The manifest is mandatory
// input, so a parse failure is returned as-is for the caller to treat
// as fatal. Unquoted version numbers come out of YAML as floats, so
// every value is rendered back to a string.
func LoadVersions(path string) (Versions, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var raw map[string]map[string]any
	if err = yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse version manifest %s: %w", path, err)
	}
	v := make(Versions, len(raw))
	for tool, params := range raw {
		v[tool] = make(map[string]string, len(params))
		for param, value := range params {
			v[tool][param] = fmt.Sprint(value)
		}
	}
	return v, nil
}

// versionValue resolves one mapping entry against the manifest. A
// scalar entry names a tool whose values are flattened, in parameter
// order, to a value sequence. A group entry {tool: parameter} picks a
// single version string.
func versionValue(v Versions, entry FieldMap, onMissing func(column string)) any {
	if !entry.IsGroup() {
		params, ok := v[entry.Column]
		if !ok {
			onMissing(entry.Column)
			return NotProvided
		}
		keys := make([]string, 0, len(params))
		for k := range params {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		values := make([]string, 0, len(keys))
		for _, k := range keys {
			values = append(values, params[k])
		}
		return values
	}

	// Group entries carry exactly one {tool: parameter} pair;
	// PipelineConfig.Validate rejects anything else at load time.
	for tool, param := range entry.Group {
		params, ok := v[tool]
		if !ok {
			onMissing(tool)
			return NotProvided
		}
		value, ok := params[param]
		if !ok {
			onMissing(tool + "." + param)
			return NotProvided
		}
		return value
	}
	return NotProvided
}

// JoinVersions applies the version mapping spec to every record. The
// manifest is per-run, not per-sample, so each field resolves once and
// every record receives the same value.
func JoinVersions(records []*Record, v Versions, spec *MappingSpec, sourceLabel string, rep *report.Report) *JoinErrors {
	errs := NewJoinErrors()

	values := make(map[string]any, spec.Len())
	missing := make(map[string]string)
	for _, target := range spec.Targets() {
		entry, _ := spec.Entry(target)
		values[target] = versionValue(v, entry, func(column string) {
			missing[target] = column
		})
	}

	for _, r := range records {
		for _, target := range spec.Targets() {
			r.Set(target, values[target])
		}
		for target, column := range missing {
			errs.addField(r.SampleID(), target, column)
		}
	}

	reportJoin(errs, sourceLabel, rep, len(records))
	return errs
}
