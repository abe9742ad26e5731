package bioinfo

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"readBioinfo/pkg/report"
)

func consensusSpec() *MappingSpec {
	var spec MappingSpec
	spec.Add("consensus_sequence_name", FieldMap{Column: "sequence_name"})
	spec.Add(FieldGenomeLength, FieldMap{Column: "genome_length"})
	spec.Add("consensus_sequence_filename", FieldMap{Column: "sequence_filename"})
	spec.Add("consensus_sequence_md5", FieldMap{Column: "sequence_md5"})
	return &spec
}

func TestReadFasta(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "12345_A.consensus.fa",
		">12345_A assembled with bcftools\nACGT\nACGTAC\n")

	fasta, err := ReadFasta(path)
	require.NoError(t, err)
	assert.Equal(t, "12345_A assembled with bcftools", fasta.Description)
	assert.Equal(t, "ACGTACGTAC", fasta.Sequence)

	bad := writeFile(t, dir, "not.fa", "ACGT\n")
	_, err = ReadFasta(bad)
	assert.Error(t, err)
}

func TestHandleConsensusMatchesHyphenatedSample(t *testing.T) {
	dir := t.TempDir()
	seq := strings.Repeat("ACGT", 100)
	path := writeFile(t, dir, "12345_A.consensus.fa", ">12345_A\n"+seq+"\n")

	rep := report.NewWithWriter(&bytes.Buffer{})
	table := HandleConsensus([]string{path}, rep, "consensus")

	// Lab identifier 12345-A joins against the tool output 12345_A.
	records := testRecords("12345-A")
	records[0].Set(FieldReadLength, "150")
	errs := Join(records, table, consensusSpec(), "consensus", rep)
	assert.True(t, errs.Empty())
	assert.Equal(t, "400", records[0].GetString(FieldGenomeLength))
	// sequence_filename carries the sample key, not the full file name.
	assert.Equal(t, "12345_A", records[0].GetString("consensus_sequence_filename"))
	assert.Len(t, records[0].GetString("consensus_sequence_md5"), 32)
}

func TestHandleConsensusMissingFile(t *testing.T) {
	rep := report.NewWithWriter(&bytes.Buffer{})
	table := HandleConsensus([]string{"/nonexistent/a.consensus.fa"}, rep, "consensus")
	assert.Empty(t, table)
	assert.Equal(t, 1, rep.Count("consensus", report.Warning))
}

func TestComputeBasePairs(t *testing.T) {
	rep := report.NewWithWriter(&bytes.Buffer{})

	paired := testRecords("sample-1")[0]
	paired.Set(FieldReadLength, "150")
	paired.Set(FieldLibraryLayout, "Paired")
	paired.Set(FieldGenomeLength, "30000")

	single := testRecords("sample-2")[0]
	single.Set(FieldReadLength, "150")
	single.Set(FieldLibraryLayout, "Single")
	single.Set(FieldGenomeLength, "30000")

	ComputeBasePairs([]*Record{paired, single}, rep, "consensus")

	bp, _ := paired.Get(FieldBasePairs)
	assert.Equal(t, int64(9000000), bp)
	bp, _ = single.Get(FieldBasePairs)
	assert.Equal(t, int64(4500000), bp)
}

func TestComputeBasePairsNonNumericReadLength(t *testing.T) {
	rep := report.NewWithWriter(&bytes.Buffer{})
	r := testRecords("sample-1")[0]
	r.Set(FieldReadLength, "76nt")
	r.Set(FieldGenomeLength, "30000")

	ComputeBasePairs([]*Record{r}, rep, "consensus")
	assert.Equal(t, NotProvided, r.GetString(FieldBasePairs))
	assert.Equal(t, 1, rep.Count("consensus", report.Warning))
}

func TestComputeBasePairsNoConsensus(t *testing.T) {
	rep := report.NewWithWriter(&bytes.Buffer{})
	r := testRecords("sample-1")[0]
	r.Set(FieldReadLength, "150")
	r.Set(FieldGenomeLength, NotProvided)

	ComputeBasePairs([]*Record{r}, rep, "consensus")
	assert.Equal(t, NotProvided, r.GetString(FieldBasePairs))
	assert.Zero(t, rep.Count("consensus", report.Warning))
}
