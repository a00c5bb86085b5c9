package tabular

import (
	"fmt"
	"strings"
)

// SourceErrorKind classifies why a tabular source could not be read.
type SourceErrorKind string

const (
	SourceNotFound  SourceErrorKind = "not found"
	SourceEmpty     SourceErrorKind = "empty"
	SourceMalformed SourceErrorKind = "malformed"
)

// DataSourceError means the file is missing, unreadable, or has no data
// rows. Fatal to the loader that needed it.
type DataSourceError struct {
	Path string
	Kind SourceErrorKind
	Err  error
}

func (e *DataSourceError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("data source %s (%s): %v", e.Path, e.Kind, e.Err)
	}
	return fmt.Sprintf("data source %s (%s)", e.Path, e.Kind)
}

func (e *DataSourceError) Unwrap() error { return e.Err }

// SchemaError means one or more required columns are absent after trying
// every known alias for each logical field.
type SchemaError struct {
	Path    string
	Missing []string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("%s: missing columns: %s", e.Path, strings.Join(e.Missing, ", "))
}

// NoApplicableRowsError means the file parsed but the row filter removed
// every row.
type NoApplicableRowsError struct {
	Path string
}

func (e *NoApplicableRowsError) Error() string {
	return fmt.Sprintf("%s: no applicable rows after filtering", e.Path)
}

// NoMatchError means rows survived but zero products matched any group.
// Raised by loaders, not by the normalizer: it signals a near-certain
// misconfiguration rather than sparse data.
type NoMatchError struct {
	Path string
}

func (e *NoMatchError) Error() string {
	return fmt.Sprintf("%s: no rows applied to any product", e.Path)
}
