// Package longtable parses the per-variant-call table produced by the
// variant-calling pipeline into a per-sample variant artifact. Its
// output is written as an independent JSON file: one sample maps to
// many variants, so flattening it into the one-record-per-sample
// metadata stream would break that stream's shape.
package longtable

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/liserjrqlxue/goUtil/osUtil"
	"github.com/liserjrqlxue/goUtil/simpleUtil"
	"github.com/samber/lo"

	"readBioinfo/pkg/bioinfo"
	"readBioinfo/pkg/report"
)

// FileNameRegexp recognizes a variant long table file, optionally
// carrying an 8-digit analysis date.
var FileNameRegexp = regexp.MustCompile(`^variants_long_table(_\d{8})?\.csv$`)

const (
	sampleColumn  = "SAMPLE"
	geneColumn    = "GENE"
	geneFusionSep = "&"
)

// SampleVariants wraps one sample's variant calls with the analysis
// date shared by every variant in the same source file.
type SampleVariants struct {
	SampleName   string           `json:"sample_name"`
	AnalysisDate string           `json:"analysis_date"`
	Variants     []map[string]any `json:"variants"`
}

// Find locates the long table file in the input folder. No match is
// not an error here; the caller decides whether the file is mandatory.
// More than one match is ambiguous and fatal.
func Find(inputDir, pattern string) (string, error) {
	matches, err := filepath.Glob(filepath.Join(inputDir, pattern))
	if err != nil {
		return "", err
	}
	switch len(matches) {
	case 0:
		return "", nil
	case 1:
		return matches[0], nil
	default:
		return "", &bioinfo.AmbiguousArtifactError{Pattern: pattern, Count: len(matches)}
	}
}

// AnalysisDate extracts the analysis date embedded in the file name. A
// base name that does not match the recognized pattern at all makes the
// file unidentifiable as a long table, which is fatal; a missing date
// group only degrades to the sentinel.
func AnalysisDate(path string, rep *report.Report, method string) (string, error) {
	base := filepath.Base(path)
	if !FileNameRegexp.MatchString(base) {
		return "", &bioinfo.UnrecognizedArtifactError{Path: path, Want: FileNameRegexp.String()}
	}
	date, ok := bioinfo.FileDate(base)
	if !ok {
		rep.Updatef(method, report.Warning, "no analysis date found in long table %s", base)
		return bioinfo.NotProvided, nil
	}
	return date, nil
}

// Parse reads the long table and groups its rows by sample, building
// each variant from the configured mapping spec. The header must carry
// every referenced column. A fused-gene annotation such as
// "ORF7b&ORF8" expands to one variant per gene, identical otherwise.
func Parse(path string, spec *bioinfo.MappingSpec, rep *report.Report, method string) ([]SampleVariants, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	lines := strings.Split(strings.ReplaceAll(strings.TrimPrefix(string(data), "\uFEFF"), "\r\n", "\n"), "\n")
	header := strings.Split(strings.TrimSpace(lines[0]), ",")

	index := make(map[string]int, len(header))
	for i, column := range header {
		index[column] = i
	}
	mandatory := append(spec.SourceColumns(), sampleColumn, geneColumn)
	missing := lo.Filter(lo.Uniq(mandatory), func(column string, _ int) bool {
		_, ok := index[column]
		return !ok
	})
	if len(missing) > 0 {
		return nil, &bioinfo.SchemaMismatchError{Path: path, Missing: missing}
	}

	// Targets fed by the gene column get rewritten per fusion token.
	geneTargets := lo.Filter(spec.Targets(), func(target string, _ int) bool {
		entry, _ := spec.Entry(target)
		return !entry.IsGroup() && entry.Column == geneColumn
	})

	date, err := AnalysisDate(path, rep, method)
	if err != nil {
		return nil, err
	}

	cell := func(fields []string, column string) string {
		if idx := index[column]; idx < len(fields) {
			return strings.TrimSpace(fields[idx])
		}
		return ""
	}

	var order []string
	grouped := make(map[string][]map[string]any)
	for _, line := range lines[1:] {
		if strings.TrimSpace(line) == "" {
			continue
		}
		fields := strings.Split(line, ",")
		sample := cell(fields, sampleColumn)
		if sample == "" {
			rep.Updatef(method, report.Warning, "skipping row without sample: %s", line)
			continue
		}
		if _, ok := grouped[sample]; !ok {
			order = append(order, sample)
		}

		variant := make(map[string]any, spec.Len())
		for _, target := range spec.Targets() {
			entry, _ := spec.Entry(target)
			if entry.IsGroup() {
				group := make(map[string]string, len(entry.Group))
				for sub, column := range entry.Group {
					group[sub] = cell(fields, column)
				}
				variant[target] = group
				continue
			}
			variant[target] = cell(fields, entry.Column)
		}

		for _, gene := range strings.Split(cell(fields, geneColumn), geneFusionSep) {
			expanded := lo.Assign(map[string]any{}, variant)
			for _, target := range geneTargets {
				expanded[target] = gene
			}
			grouped[sample] = append(grouped[sample], expanded)
		}
	}

	result := make([]SampleVariants, 0, len(order))
	for _, sample := range order {
		result = append(result, SampleVariants{
			SampleName:   sample,
			AnalysisDate: date,
			Variants:     grouped[sample],
		})
	}
	rep.Updatef(method, report.Valid, "successfully parsed %d samples from %s", len(order), filepath.Base(path))
	return result, nil
}

// Save writes the variant artifact into outputDir and returns its path.
func Save(list []SampleVariants, outputDir string) (string, error) {
	data, err := json.MarshalIndent(list, "", "    ")
	if err != nil {
		return "", err
	}
	name := fmt.Sprintf("long_table_%s.json", time.Now().Format("2006_01_02_15_04_05"))
	path := filepath.Join(outputDir, name)
	out := osUtil.Create(path)
	defer simpleUtil.DeferClose(out)
	if _, err = out.Write(data); err != nil {
		return "", err
	}
	return path, nil
}
