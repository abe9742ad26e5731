package bioinfo

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"

	"github.com/liserjrqlxue/goUtil/osUtil"
	"github.com/liserjrqlxue/goUtil/simpleUtil"
)

// NotProvided is the sentinel stored whenever a value is intentionally
// absent, so that every record keeps the full field set.
const NotProvided = "Not Provided [GENEPIO:0001668]"

// SampleIDField holds the submitting sample identifier in every record.
const SampleIDField = "sequencing_sample_id"

// Record is one sample's metadata: a field->value mapping that keeps
// field insertion order so the serialized record set has a stable shape.
type Record struct {
	fields []string
	values map[string]any
}

func NewRecord() *Record {
	return &Record{values: make(map[string]any)}
}

// Set stores value under field, appending the field on first use.
// The sample identifier is immutable: once present it is never
// overwritten.
func (r *Record) Set(field string, value any) {
	if field == SampleIDField {
		if _, ok := r.values[field]; ok {
			return
		}
	}
	if _, ok := r.values[field]; !ok {
		r.fields = append(r.fields, field)
	}
	r.values[field] = value
}

func (r *Record) Get(field string) (any, bool) {
	v, ok := r.values[field]
	return v, ok
}

// GetString returns the field rendered as a string, or "" when absent.
func (r *Record) GetString(field string) string {
	v, ok := r.values[field]
	if !ok {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}

func (r *Record) Has(field string) bool {
	_, ok := r.values[field]
	return ok
}

// Fields returns the field names in insertion order.
func (r *Record) Fields() []string {
	return append([]string(nil), r.fields...)
}

func (r *Record) Len() int {
	return len(r.fields)
}

func (r *Record) SampleID() string {
	return r.GetString(SampleIDField)
}

func (r *Record) Clone() *Record {
	c := NewRecord()
	for _, f := range r.fields {
		c.Set(f, r.values[f])
	}
	return c
}

func (r *Record) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, f := range r.fields {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(f)
		if err != nil {
			return nil, err
		}
		val, err := json.Marshal(r.values[f])
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func (r *Record) UnmarshalJSON(data []byte) error {
	r.fields = nil
	r.values = make(map[string]any)

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if tok != json.Delim('{') {
		return fmt.Errorf("record must be a JSON object, got %v", tok)
	}
	for dec.More() {
		tok, err = dec.Token()
		if err != nil {
			return err
		}
		field := tok.(string)
		var value any
		if err = dec.Decode(&value); err != nil {
			return err
		}
		r.Set(field, value)
	}
	_, err = dec.Token()
	return err
}

// LoadRecords reads the prior-stage record set: an ordered JSON array of
// flat objects, one per sample.
func LoadRecords(path string) ([]*Record, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var records []*Record
	if err = json.Unmarshal(data, &records); err != nil {
		return nil, &InvalidRecordSetError{Path: path, Err: err}
	}
	for _, r := range records {
		if !r.Has(SampleIDField) {
			return nil, &InvalidRecordSetError{
				Path: path,
				Err:  fmt.Errorf("record without %s field", SampleIDField),
			}
		}
	}
	return records, nil
}

// SaveRecords writes the merged record set as an indented JSON array.
func SaveRecords(records []*Record, path string) error {
	data, err := json.MarshalIndent(records, "", "    ")
	if err != nil {
		return err
	}
	out := osUtil.Create(path)
	defer simpleUtil.DeferClose(out)
	_, err = out.Write(data)
	return err
}
