package bioinfo

import (
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"time"

	"readBioinfo/pkg/report"
)

// SourceTable maps a canonical sample identifier to its row of source
// columns.
type SourceTable map[string]map[string]string

// Samples returns the table keys sorted for stable reporting.
func (t SourceTable) Samples() []string {
	keys := make([]string, 0, len(t))
	for k := range t {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// splitLines tolerates \r\n endings and strips a leading BOM, both seen
// in pipeline outputs that crossed a Windows machine.
func splitLines(data []byte) []string {
	text := strings.TrimPrefix(string(data), "\uFEFF")
	text = strings.ReplaceAll(text, "\r\n", "\n")
	return strings.Split(text, "\n")
}

// LoadTable reads one delimited source file into a SourceTable. The
// first line is the header; the column at keyPos keys each row and its
// value is canonicalized. A header with fewer than two columns cannot
// form a table and fails with MalformedTableError. Rows shorter than
// the header leave the trailing columns empty.
func LoadTable(path, sep string, keyPos int) (SourceTable, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	lines := splitLines(data)
	header := strings.Split(strings.TrimSpace(lines[0]), sep)
	if len(header) < 2 {
		return nil, &MalformedTableError{Path: path, Columns: len(header)}
	}
	if keyPos < 0 || keyPos >= len(header) {
		keyPos = 0
	}

	table := make(SourceTable)
	for _, line := range lines[1:] {
		line = strings.TrimRight(line, "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}
		fields := strings.Split(line, sep)
		if keyPos >= len(fields) {
			slog.Warn("skip row without key column", "path", path, "row", line)
			continue
		}
		row := make(map[string]string)
		for idx, column := range header {
			if idx == keyPos {
				continue
			}
			if idx < len(fields) {
				row[column] = strings.TrimSpace(fields[idx])
			} else {
				row[column] = ""
			}
		}
		table[NormalizeSampleID(strings.TrimSpace(fields[keyPos]))] = row
	}
	return table, nil
}

var fileDateRegexp = regexp.MustCompile(`\d{8}`)

// FileDate extracts the 8-digit date token embedded in a file name and
// reports whether it parses as a calendar date.
func FileDate(path string) (string, bool) {
	token := fileDateRegexp.FindString(filepath.Base(path))
	if token == "" {
		return "", false
	}
	if _, err := time.Parse("20060102", token); err != nil {
		return token, false
	}
	return token, true
}

// sampleOfFile derives the sample a candidate file belongs to: the
// basename up to the first dot, canonicalized.
func sampleOfFile(path string) string {
	base := filepath.Base(path)
	if i := strings.Index(base, "."); i >= 0 {
		base = base[:i]
	}
	return NormalizeSampleID(base)
}

// MostRecentPerSample groups candidate files by sample and keeps, per
// sample, the one with the highest embedded date. Undated or
// unparseable candidates and exact date ties are resolved by
// lexicographic path order, each with a warning; selection is always
// deterministic.
func MostRecentPerSample(paths []string, rep *report.Report, method string) map[string]string {
	bySample := make(map[string][]string)
	for _, p := range paths {
		sample := sampleOfFile(p)
		bySample[sample] = append(bySample[sample], p)
	}

	selected := make(map[string]string, len(bySample))
	for sample, candidates := range bySample {
		sort.Strings(candidates)
		var (
			bestPath string
			bestDate string
			tie      bool
		)
		for _, p := range candidates {
			date, ok := FileDate(p)
			if !ok {
				rep.Updatef(method, report.Warning,
					"no valid date in file name %s for sample %s", filepath.Base(p), sample)
				date = ""
			}
			switch {
			case bestPath == "" || date > bestDate:
				bestPath, bestDate, tie = p, date, false
			case date == bestDate:
				tie = true
			}
		}
		if tie || (len(candidates) > 1 && bestDate == "") {
			rep.Updatef(method, report.Warning,
				"ambiguous candidates for sample %s, keeping %s by path order", sample, filepath.Base(bestPath))
		}
		selected[sample] = bestPath
	}
	return selected
}
