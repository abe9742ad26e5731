package bioinfo

import "strings"

// NormalizeSampleID canonicalizes a sample identifier for cross-source
// joins. Lab metadata uses hyphenated identifiers while the pipeline
// tools rename them with underscores, so "12345-A" and "12345_A" refer
// to the same sample.
func NormalizeSampleID(raw string) string {
	return strings.ReplaceAll(raw, "-", "_")
}
