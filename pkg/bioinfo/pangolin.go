package bioinfo

import (
	"path/filepath"
	"strings"

	"readBioinfo/pkg/report"
)

// LoadPangolin builds the lineage-call source table. Lineage files come
// one per sample per timestamp, so candidates are grouped by sample and
// only the most recent file is loaded. The first data row carries the
// sample's lineage result; the analysis date is taken from the file
// name. Per-file failures are absorbed as warnings and leave the sample
// out of the table, which the join then fills with sentinels.
func LoadPangolin(inputDir string, sc SourceConfig, rep *report.Report, method string) (SourceTable, error) {
	matches, err := filepath.Glob(filepath.Join(inputDir, sc.FileName))
	if err != nil {
		return nil, err
	}

	table := make(SourceTable)
	if len(matches) == 0 {
		rep.Updatef(method, report.Warning, "no files matching %s found in %s", sc.FileName, inputDir)
		return table, nil
	}

	for _, path := range MostRecentPerSample(matches, rep, method) {
		t, err := LoadTable(path, sc.Separator(), sc.KeyPos)
		if err != nil {
			rep.Updatef(method, report.Warning,
				"error occurred while processing file %s: %v", filepath.Base(path), err)
			continue
		}
		if len(t) == 0 {
			rep.Updatef(method, report.Warning, "file %s has no data rows", filepath.Base(path))
			continue
		}

		// The row key may carry a tool suffix after the sample name;
		// only the first token identifies the sample.
		key := t.Samples()[0]
		if strings.TrimSpace(key) == "" {
			rep.Updatef(method, report.Warning, "file %s has an empty sample key", filepath.Base(path))
			continue
		}
		row := t[key]
		// An undated file leaves the column out; JoinPangolin then
		// substitutes the record's own analysis date.
		if date, ok := FileDate(path); ok {
			row[FieldLineageAnalysisDate] = date
		} else {
			rep.Updatef(method, report.Warning,
				"no analysis date found in lineage file %s", filepath.Base(path))
		}
		table[NormalizeSampleID(strings.Fields(key)[0])] = row
	}
	return table, nil
}

// JoinPangolin merges the lineage table into the record set. A row
// whose source file carried no date borrows the record's own analysis
// date, so the lineage date never regresses to the sentinel while the
// run date is known.
func JoinPangolin(records []*Record, table SourceTable, spec *MappingSpec, sourceLabel string, rep *report.Report) *JoinErrors {
	for _, r := range records {
		row, ok := table[NormalizeSampleID(r.SampleID())]
		if !ok {
			continue
		}
		if _, ok = row[FieldLineageAnalysisDate]; ok {
			continue
		}
		if date := r.GetString(FieldAnalysisDate); date != "" {
			row[FieldLineageAnalysisDate] = date
		}
	}
	return Join(records, table, spec, sourceLabel, rep)
}
