package bioinfo

import (
	"strconv"
	"strings"

	"readBioinfo/pkg/report"
)

// parseNumber reads a numeric cell, tolerating thousands separators and
// float rendering of integer counts.
func parseNumber(raw string) (float64, bool) {
	n, err := strconv.ParseFloat(strings.ReplaceAll(raw, ",", ""), 64)
	return n, err == nil
}

// JoinVariantMetrics merges the variant-metrics summary into the
// records, then derives the total sequenced base pairs from the input
// read count, doubled for the paired mate.
func JoinVariantMetrics(records []*Record, table SourceTable, spec *MappingSpec, sourceLabel string, rep *report.Report) *JoinErrors {
	errs := Join(records, table, spec, sourceLabel, rep)

	for _, r := range records {
		reads := r.GetString(FieldInputReads)
		if reads == "" || reads == NotProvided {
			r.Set(FieldBasePairs, NotProvided)
			continue
		}
		n, ok := parseNumber(reads)
		if !ok {
			rep.Updatef(sourceLabel, report.Warning,
				"sample %s: input read count %q is not numeric", r.SampleID(), reads)
			r.Set(FieldBasePairs, NotProvided)
			continue
		}
		r.Set(FieldBasePairs, int64(n)*2)
	}
	return errs
}
