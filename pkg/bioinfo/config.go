package bioinfo

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// FieldMap is one entry of a MappingSpec: either a single source column
// reference, or a named group of column references used to build a
// structured sub-record. Exactly one of the two is set; anything else in
// the configuration document is rejected at load time.
type FieldMap struct {
	Column string
	Group  map[string]string
}

func (f FieldMap) IsGroup() bool {
	return f.Group != nil
}

// Columns returns every source column the entry references.
func (f FieldMap) Columns() []string {
	if !f.IsGroup() {
		return []string{f.Column}
	}
	var cols []string
	for _, c := range f.Group {
		cols = append(cols, c)
	}
	return cols
}

func (f *FieldMap) UnmarshalJSON(data []byte) error {
	var column string
	if err := json.Unmarshal(data, &column); err == nil {
		if column == "" {
			return fmt.Errorf("mapping entry has an empty column name")
		}
		f.Column = column
		return nil
	}
	var group map[string]string
	if err := json.Unmarshal(data, &group); err == nil {
		if len(group) == 0 {
			return fmt.Errorf("mapping entry has an empty column group")
		}
		f.Group = group
		return nil
	}
	return fmt.Errorf("mapping entry must be a column name or a group of column names: %s", data)
}

func (f *FieldMap) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		if node.Value == "" {
			return fmt.Errorf("line %d: mapping entry has an empty column name", node.Line)
		}
		f.Column = node.Value
		return nil
	case yaml.MappingNode:
		var group map[string]string
		if err := node.Decode(&group); err != nil {
			return err
		}
		if len(group) == 0 {
			return fmt.Errorf("line %d: mapping entry has an empty column group", node.Line)
		}
		f.Group = group
		return nil
	default:
		return fmt.Errorf("line %d: mapping entry must be a column name or a group of column names", node.Line)
	}
}

// MappingSpec declares, in order, which target fields are populated
// from which source columns for one source category.
type MappingSpec struct {
	targets []string
	entries map[string]FieldMap
}

// Add appends one target->entry pair, replacing a previous entry for
// the same target without disturbing its position.
func (m *MappingSpec) Add(target string, entry FieldMap) {
	if m.entries == nil {
		m.entries = make(map[string]FieldMap)
	}
	if _, ok := m.entries[target]; !ok {
		m.targets = append(m.targets, target)
	}
	m.entries[target] = entry
}

// Targets returns the target field names in declaration order.
func (m *MappingSpec) Targets() []string {
	return append([]string(nil), m.targets...)
}

func (m *MappingSpec) Entry(target string) (FieldMap, bool) {
	e, ok := m.entries[target]
	return e, ok
}

func (m *MappingSpec) Len() int {
	return len(m.targets)
}

// SourceColumns returns every source column referenced by any entry, in
// declaration order.
func (m *MappingSpec) SourceColumns() []string {
	var cols []string
	for _, t := range m.targets {
		cols = append(cols, m.entries[t].Columns()...)
	}
	return cols
}

func (m *MappingSpec) UnmarshalJSON(data []byte) error {
	m.targets = nil
	m.entries = nil

	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if tok != json.Delim('{') {
		return fmt.Errorf("mapping spec must be a JSON object, got %v", tok)
	}
	for dec.More() {
		tok, err = dec.Token()
		if err != nil {
			return err
		}
		target := tok.(string)
		var entry FieldMap
		if err = dec.Decode(&entry); err != nil {
			return fmt.Errorf("target field %s: %w", target, err)
		}
		m.Add(target, entry)
	}
	_, err = dec.Token()
	return err
}

func (m *MappingSpec) UnmarshalYAML(node *yaml.Node) error {
	m.targets = nil
	m.entries = nil

	if node.Kind != yaml.MappingNode {
		return fmt.Errorf("line %d: mapping spec must be a mapping", node.Line)
	}
	for i := 0; i < len(node.Content); i += 2 {
		target := node.Content[i].Value
		var entry FieldMap
		if err := node.Content[i+1].Decode(&entry); err != nil {
			return fmt.Errorf("target field %s: %w", target, err)
		}
		m.Add(target, entry)
	}
	return nil
}

// SourceConfig describes one enrichment source: the file it is loaded
// from and the mapping applied to it.
type SourceConfig struct {
	// FileName is a glob pattern relative to the input folder.
	FileName string `json:"fn" yaml:"fn"`
	// Sep is the column separator; empty means derive from FileName.
	Sep string `json:"sep,omitempty" yaml:"sep,omitempty"`
	// KeyPos is the position of the sample key column.
	KeyPos  int         `json:"key_pos,omitempty" yaml:"key_pos,omitempty"`
	Content MappingSpec `json:"content" yaml:"content"`
}

// Separator resolves the column separator: tab for .tab/.tsv files,
// comma otherwise.
func (s SourceConfig) Separator() string {
	if s.Sep != "" {
		return s.Sep
	}
	ext := filepath.Ext(strings.TrimSuffix(s.FileName, "*"))
	if ext == ".tab" || ext == ".tsv" {
		return "\t"
	}
	return ","
}

// PipelineConfig is the mapping configuration for one analysis
// pipeline.
type PipelineConfig struct {
	RequiredFiles         []string          `json:"required_files" yaml:"required_files"`
	FixedValues           map[string]string `json:"fixed_values" yaml:"fixed_values"`
	FeedEmptyFields       []string          `json:"feed_empty_fields" yaml:"feed_empty_fields"`
	MappingStats          SourceConfig      `json:"mapping_stats" yaml:"mapping_stats"`
	MappingVersion        SourceConfig      `json:"mapping_version" yaml:"mapping_version"`
	MappingVariantMetrics SourceConfig      `json:"mapping_variant_metrics" yaml:"mapping_variant_metrics"`
	MappingPangolin       SourceConfig      `json:"mapping_pangolin" yaml:"mapping_pangolin"`
	MappingConsensus      SourceConfig      `json:"mapping_consensus" yaml:"mapping_consensus"`
	LongTable             SourceConfig      `json:"variants_long_table" yaml:"variants_long_table"`
}

// CheckRequiredFiles verifies every file declared mandatory exists in
// the input folder, before any stage runs.
func (p PipelineConfig) CheckRequiredFiles(pipeline, inputDir string) error {
	for _, pattern := range p.RequiredFiles {
		matches, err := filepath.Glob(filepath.Join(inputDir, pattern))
		if err != nil {
			return err
		}
		if len(matches) == 0 {
			return &RequiredFileError{Pipeline: pipeline, Pattern: pattern, InputDir: inputDir}
		}
	}
	return nil
}

// Validate rejects configuration shapes that would otherwise drop data
// mid-run: a version mapping group must name exactly one
// {tool: parameter} pair, since a second pair has no defined
// resolution.
func (p PipelineConfig) Validate(pipeline string) error {
	for _, target := range p.MappingVersion.Content.Targets() {
		entry, _ := p.MappingVersion.Content.Entry(target)
		if entry.IsGroup() && len(entry.Group) > 1 {
			return fmt.Errorf("pipeline %s: version mapping for %s names %d tool pairs, want exactly one",
				pipeline, target, len(entry.Group))
		}
	}
	return nil
}

// Config is the mapping configuration registry, keyed by pipeline name.
// It is loaded once per run and read-only afterwards.
type Config map[string]PipelineConfig

func (c Config) Pipeline(name string) (PipelineConfig, error) {
	p, ok := c[name]
	if !ok {
		return PipelineConfig{}, &UnknownPipelineError{Name: name}
	}
	return p, nil
}

// LoadConfig reads the mapping configuration document, JSON or YAML by
// file extension.
func LoadConfig(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var cfg Config
	switch filepath.Ext(path) {
	case ".yml", ".yaml":
		err = yaml.Unmarshal(data, &cfg)
	default:
		err = json.Unmarshal(data, &cfg)
	}
	if err != nil {
		return nil, fmt.Errorf("load mapping configuration %s: %w", path, err)
	}
	for name, p := range cfg {
		if err = p.Validate(name); err != nil {
			return nil, fmt.Errorf("load mapping configuration %s: %w", path, err)
		}
	}
	return cfg, nil
}
