package bioinfo

import (
	"fmt"
	"strings"
)

// MalformedTableError marks a delimited file whose header cannot form a
// key->columns table.
type MalformedTableError struct {
	Path    string
	Columns int
}

func (e *MalformedTableError) Error() string {
	return fmt.Sprintf("malformed table %s: header has %d column(s), at least 2 required", e.Path, e.Columns)
}

// SchemaMismatchError marks a table whose header omits mandatory columns.
type SchemaMismatchError struct {
	Path    string
	Missing []string
}

func (e *SchemaMismatchError) Error() string {
	return fmt.Sprintf("incorrect format in %s: missing mandatory column(s) [%s]", e.Path, strings.Join(e.Missing, ", "))
}

// UnrecognizedArtifactError marks a file whose name does not identify it
// as the expected pipeline artifact.
type UnrecognizedArtifactError struct {
	Path string
	Want string
}

func (e *UnrecognizedArtifactError) Error() string {
	return fmt.Sprintf("unrecognized artifact %s: expected file name matching %s", e.Path, e.Want)
}

// RequiredFileError marks a file declared mandatory by configuration that
// is absent from the input folder.
type RequiredFileError struct {
	Pipeline string
	Pattern  string
	InputDir string
}

func (e *RequiredFileError) Error() string {
	return fmt.Sprintf("required file %s for pipeline %s not found in %s", e.Pattern, e.Pipeline, e.InputDir)
}

// InvalidRecordSetError marks a base record-set file that is not valid
// structured data.
type InvalidRecordSetError struct {
	Path string
	Err  error
}

func (e *InvalidRecordSetError) Error() string {
	return fmt.Sprintf("record set %s is not valid: %v", e.Path, e.Err)
}

func (e *InvalidRecordSetError) Unwrap() error {
	return e.Err
}

// UnknownPipelineError marks a pipeline name absent from the mapping
// configuration document.
type UnknownPipelineError struct {
	Name string
}

func (e *UnknownPipelineError) Error() string {
	return fmt.Sprintf("pipeline %s not found in mapping configuration", e.Name)
}

// AmbiguousArtifactError marks an input folder holding more candidate
// files than one stage can consume.
type AmbiguousArtifactError struct {
	Pattern string
	Count   int
}

func (e *AmbiguousArtifactError) Error() string {
	return fmt.Sprintf("found %d files matching %s, unable to process more than one", e.Count, e.Pattern)
}
