package bioinfo

import (
	"sort"

	"github.com/samber/lo"

	"readBioinfo/pkg/report"
)

// JoinErrors captures everything that went wrong during one join
// without interrupting it: samples absent from the source table and,
// per present sample, the mapped columns its row did not carry.
type JoinErrors struct {
	MissingSamples []string
	// MissingFields maps sample id -> target field -> source column.
	MissingFields map[string]map[string]string
}

func NewJoinErrors() *JoinErrors {
	return &JoinErrors{MissingFields: make(map[string]map[string]string)}
}

func (e *JoinErrors) Empty() bool {
	return len(e.MissingSamples) == 0 && len(e.MissingFields) == 0
}

func (e *JoinErrors) addField(sample, field, column string) {
	if _, ok := e.MissingFields[sample]; !ok {
		e.MissingFields[sample] = make(map[string]string)
	}
	e.MissingFields[sample][field] = column
}

// fieldValue resolves one mapping entry against a source row. Group
// entries build a structured sub-record; any column the row does not
// carry yields the sentinel for that single piece.
func fieldValue(row map[string]string, entry FieldMap, onMissing func(column string)) any {
	if !entry.IsGroup() {
		raw, ok := row[entry.Column]
		if !ok {
			onMissing(entry.Column)
			return NotProvided
		}
		if raw == "" {
			return NotProvided
		}
		return raw
	}

	group := make(map[string]string, len(entry.Group))
	subs := lo.Keys(entry.Group)
	sort.Strings(subs)
	for _, sub := range subs {
		column := entry.Group[sub]
		raw, ok := row[column]
		if !ok {
			onMissing(column)
			group[sub] = NotProvided
			continue
		}
		if raw == "" {
			raw = NotProvided
		}
		group[sub] = raw
	}
	return group
}

// Join merges one source table into the record set under the given
// mapping spec. Every record leaves with every target field set: to
// sourced data when the table carries it, to the sentinel otherwise.
// Nothing here ever raises for a missing key; all failure is collected
// into the returned JoinErrors and summarized on the report.
func Join(records []*Record, table SourceTable, spec *MappingSpec, sourceLabel string, rep *report.Report) *JoinErrors {
	errs := NewJoinErrors()

	for _, r := range records {
		id := NormalizeSampleID(r.SampleID())
		row, ok := table[id]
		if !ok {
			for _, target := range spec.Targets() {
				r.Set(target, NotProvided)
			}
			errs.MissingSamples = append(errs.MissingSamples, r.SampleID())
			continue
		}
		for _, target := range spec.Targets() {
			entry, _ := spec.Entry(target)
			r.Set(target, fieldValue(row, entry, func(column string) {
				errs.addField(r.SampleID(), target, column)
			}))
		}
	}

	reportJoin(errs, sourceLabel, rep, len(records))
	return errs
}

func reportJoin(errs *JoinErrors, sourceLabel string, rep *report.Report, total int) {
	if len(errs.MissingSamples) > 0 {
		rep.Updatef(sourceLabel, report.Warning,
			"%d samples missing in %s: %v", len(errs.MissingSamples), sourceLabel, errs.MissingSamples)
	}
	if len(errs.MissingFields) > 0 {
		samples := lo.Keys(errs.MissingFields)
		sort.Strings(samples)
		for _, sample := range samples {
			fields := errs.MissingFields[sample]
			targets := lo.Keys(fields)
			sort.Strings(targets)
			for _, target := range targets {
				rep.Updatef(sourceLabel, report.Error,
					"sample %s: field %s has no source column %s", sample, target, fields[target])
			}
		}
	}
	if handled := total - len(errs.MissingSamples); handled > 0 && errs.Empty() {
		rep.Updatef(sourceLabel, report.Valid,
			"successfully handled data in %d samples", handled)
	}
}
