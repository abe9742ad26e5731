package bioinfo

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"readBioinfo/pkg/report"
)

const pangolinHeader = "taxon,lineage,scorpio_call,version,pangolin_version,scorpio_version\n"

func pangolinConfig() SourceConfig {
	var spec MappingSpec
	spec.Add("lineage_name", FieldMap{Column: "lineage"})
	spec.Add("lineage_analysis_software_version", FieldMap{Column: "pangolin_version"})
	spec.Add(FieldLineageAnalysisDate, FieldMap{Column: FieldLineageAnalysisDate})
	return SourceConfig{FileName: "*.pangolin*.csv", Content: spec}
}

func TestLoadPangolinSelectsMostRecent(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "sampleX.pangolin.20230101.csv",
		pangolinHeader+"sampleX consensus,B.1.1.7,Alpha,PUSHER-v1.2,3.1.20,0.3.16\n")
	writeFile(t, dir, "sampleX.pangolin.20230115.csv",
		pangolinHeader+"sampleX consensus,B.1.617.2,Delta,PUSHER-v1.2,3.1.20,0.3.16\n")

	rep := report.NewWithWriter(&bytes.Buffer{})
	table, err := LoadPangolin(dir, pangolinConfig(), rep, "pangolin")
	require.NoError(t, err)

	row, ok := table["sampleX"]
	require.True(t, ok)
	assert.Equal(t, "B.1.617.2", row["lineage"])
	assert.Equal(t, "20230115", row[FieldLineageAnalysisDate])
}

func TestLoadPangolinJoin(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "sample_1.pangolin.20230110.csv",
		pangolinHeader+"sample_1 consensus,BA.2,Omicron,PUSHER-v1.9,4.0.6,0.3.17\n")

	rep := report.NewWithWriter(&bytes.Buffer{})
	cfg := pangolinConfig()
	table, err := LoadPangolin(dir, cfg, rep, "pangolin")
	require.NoError(t, err)

	records := testRecords("sample-1", "sample-2")
	Join(records, table, &cfg.Content, "pangolin", rep)

	assert.Equal(t, "BA.2", records[0].GetString("lineage_name"))
	assert.Equal(t, "20230110", records[0].GetString(FieldLineageAnalysisDate))
	// No lineage file for sample-2: sentinel fields plus a warning.
	assert.Equal(t, NotProvided, records[1].GetString("lineage_name"))
	assert.NotZero(t, rep.Count("pangolin", report.Warning))
}

func TestJoinPangolinUndatedFileFallsBackToRecordDate(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "sampleZ.pangolin.csv",
		pangolinHeader+"sampleZ consensus,XBB.1.5,Omicron,PUSHER-v1.9,4.2,0.3.17\n")

	rep := report.NewWithWriter(&bytes.Buffer{})
	cfg := pangolinConfig()
	table, err := LoadPangolin(dir, cfg, rep, "pangolin")
	require.NoError(t, err)
	// The missing file date is warned about at load time and the column
	// left unset, so the join can substitute per record.
	assert.NotContains(t, table["sampleZ"], FieldLineageAnalysisDate)
	assert.NotZero(t, rep.Count("pangolin", report.Warning))

	records := testRecords("sampleZ")
	records[0].Set(FieldAnalysisDate, "20230201")
	JoinPangolin(records, table, &cfg.Content, "pangolin", rep)

	assert.Equal(t, "XBB.1.5", records[0].GetString("lineage_name"))
	assert.Equal(t, "20230201", records[0].GetString(FieldLineageAnalysisDate))
}

func TestLoadPangolinNoFiles(t *testing.T) {
	rep := report.NewWithWriter(&bytes.Buffer{})
	table, err := LoadPangolin(t.TempDir(), pangolinConfig(), rep, "pangolin")
	require.NoError(t, err)
	assert.Empty(t, table)
	assert.Equal(t, 1, rep.Count("pangolin", report.Warning))
}
