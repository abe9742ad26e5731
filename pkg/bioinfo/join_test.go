package bioinfo

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"readBioinfo/pkg/report"
)

func statsSpec() *MappingSpec {
	var spec MappingSpec
	spec.Add("read_length", FieldMap{Column: "read_length"})
	spec.Add("depth_of_coverage_value", FieldMap{Column: "medDPcoveragevirus"})
	return &spec
}

func testRecords(ids ...string) []*Record {
	var records []*Record
	for _, id := range ids {
		r := NewRecord()
		r.Set(SampleIDField, id)
		records = append(records, r)
	}
	return records
}

func TestJoinCopiesValues(t *testing.T) {
	records := testRecords("sample-1")
	table := SourceTable{
		"sample_1": {"read_length": "150", "medDPcoveragevirus": "523.5"},
	}
	rep := report.NewWithWriter(&bytes.Buffer{})

	errs := Join(records, table, statsSpec(), "mapping-stats", rep)
	assert.True(t, errs.Empty())
	assert.Equal(t, "150", records[0].GetString("read_length"))
	assert.Equal(t, "523.5", records[0].GetString("depth_of_coverage_value"))
	assert.Equal(t, 1, rep.Count("mapping-stats", report.Valid))
}

func TestJoinMissingSample(t *testing.T) {
	records := testRecords("sample-1", "sample-2")
	table := SourceTable{
		"sample_1": {"read_length": "150", "medDPcoveragevirus": "523.5"},
	}
	rep := report.NewWithWriter(&bytes.Buffer{})

	errs := Join(records, table, statsSpec(), "mapping-stats", rep)
	assert.Equal(t, []string{"sample-2"}, errs.MissingSamples)

	// The absent sample still carries every target field.
	for _, target := range statsSpec().Targets() {
		assert.Equal(t, NotProvided, records[1].GetString(target))
	}
	warnings := rep.Entries("mapping-stats", report.Warning)
	require.Len(t, warnings, 1)
	assert.Contains(t, warnings[0].Message, "1 samples missing in mapping-stats")
}

func TestJoinMissingColumn(t *testing.T) {
	records := testRecords("sample-1")
	table := SourceTable{
		"sample_1": {"read_length": "150"},
	}
	rep := report.NewWithWriter(&bytes.Buffer{})

	errs := Join(records, table, statsSpec(), "mapping-stats", rep)
	assert.Empty(t, errs.MissingSamples)
	assert.Equal(t,
		map[string]map[string]string{
			"sample-1": {"depth_of_coverage_value": "medDPcoveragevirus"},
		},
		errs.MissingFields)

	// The other fields of the sample are still populated.
	assert.Equal(t, "150", records[0].GetString("read_length"))
	assert.Equal(t, NotProvided, records[0].GetString("depth_of_coverage_value"))
	assert.Equal(t, 1, rep.Count("mapping-stats", report.Error))
}

func TestJoinEmptyValueBecomesSentinel(t *testing.T) {
	records := testRecords("sample-1")
	table := SourceTable{
		"sample_1": {"read_length": "", "medDPcoveragevirus": "523.5"},
	}
	rep := report.NewWithWriter(&bytes.Buffer{})

	errs := Join(records, table, statsSpec(), "mapping-stats", rep)
	assert.True(t, errs.Empty())
	assert.Equal(t, NotProvided, records[0].GetString("read_length"))
}

func TestJoinGroupMapping(t *testing.T) {
	var spec MappingSpec
	spec.Add("Variant", FieldMap{Group: map[string]string{"ref": "REF", "alt": "ALT", "af": "AF"}})

	records := testRecords("sample-1")
	table := SourceTable{
		"sample_1": {"REF": "A", "ALT": "T"},
	}
	rep := report.NewWithWriter(&bytes.Buffer{})

	errs := Join(records, table, &spec, "variants", rep)
	v, ok := records[0].Get("Variant")
	require.True(t, ok)
	assert.Equal(t, map[string]string{"ref": "A", "alt": "T", "af": NotProvided}, v)
	assert.Equal(t, map[string]string{"Variant": "AF"}, errs.MissingFields["sample-1"])
}

func TestJoinIdempotent(t *testing.T) {
	table := SourceTable{
		"sample_1": {"read_length": "150", "medDPcoveragevirus": "523.5"},
	}

	once := testRecords("sample-1", "sample-2")
	twice := testRecords("sample-1", "sample-2")
	rep := report.NewWithWriter(&bytes.Buffer{})

	Join(once, table, statsSpec(), "mapping-stats", rep)
	Join(twice, table, statsSpec(), "mapping-stats", rep)
	Join(twice, table, statsSpec(), "mapping-stats", rep)

	for i := range once {
		assert.Equal(t, once[i].Fields(), twice[i].Fields())
		for _, f := range once[i].Fields() {
			a, _ := once[i].Get(f)
			b, _ := twice[i].Get(f)
			assert.Equal(t, a, b)
		}
	}
}

func TestJoinSchemaCompleteness(t *testing.T) {
	// Whatever the table contents, every record ends up with every
	// declared target field.
	records := testRecords("sample-1", "sample-2", "sample-3")
	table := SourceTable{
		"sample_1": {"read_length": "150", "medDPcoveragevirus": "523.5"},
		"sample_2": {"read_length": "150"},
	}
	rep := report.NewWithWriter(&bytes.Buffer{})
	Join(records, table, statsSpec(), "mapping-stats", rep)

	for _, r := range records {
		for _, target := range statsSpec().Targets() {
			assert.True(t, r.Has(target), "record %s lacks %s", r.SampleID(), target)
		}
	}
}
