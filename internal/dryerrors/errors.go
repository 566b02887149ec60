// Package dryerrors defines the typed error hierarchy the core uses to
// signal failures by what they mean to a caller, not by incidental type
// name: config problems, missing paths, per-file parse failures, a store
// touched before init, embedding provider failures, and report lookups.
package dryerrors

import "fmt"

// ConfigInvalidError reports an unparseable or schema-violating config file.
type ConfigInvalidError struct {
	Path       string
	Field      string
	Underlying error
}

func (e *ConfigInvalidError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("config %s: invalid field %q: %v", e.Path, e.Field, e.Underlying)
	}
	return fmt.Sprintf("config %s: %v", e.Path, e.Underlying)
}

func (e *ConfigInvalidError) Unwrap() error { return e.Underlying }

// PathNotFoundError reports that a requested scan target does not exist.
type PathNotFoundError struct {
	Path       string
	Underlying error
}

func (e *PathNotFoundError) Error() string {
	return fmt.Sprintf("path not found: %s: %v", e.Path, e.Underlying)
}

func (e *PathNotFoundError) Unwrap() error { return e.Underlying }

// UnsupportedFileError reports an explicit scan target of unsupported type.
type UnsupportedFileError struct {
	Path string
	Ext  string
}

func (e *UnsupportedFileError) Error() string {
	return fmt.Sprintf("unsupported file type %q for %s", e.Ext, e.Path)
}

// ParseFailureError reports an extractor failure on one file. Callers
// should log and skip the file rather than abort the update; the caller
// must not update that file's FileRecord so the next run retries it.
type ParseFailureError struct {
	FilePath   string
	Underlying error
}

func (e *ParseFailureError) Error() string {
	return fmt.Sprintf("parse failure in %s: %v", e.FilePath, e.Underlying)
}

func (e *ParseFailureError) Unwrap() error { return e.Underlying }

// StoreUninitializedError reports a store operation attempted before init.
type StoreUninitializedError struct {
	Operation string
}

func (e *StoreUninitializedError) Error() string {
	return fmt.Sprintf("store operation %q attempted before init", e.Operation)
}

// EmbeddingUnavailableError reports that the embedding provider itself
// failed (network error, non-2xx response, malformed payload). This
// propagates and aborts the current update, unlike an oversize skip.
type EmbeddingUnavailableError struct {
	Source     string
	Underlying error
}

func (e *EmbeddingUnavailableError) Error() string {
	return fmt.Sprintf("embedding provider %q unavailable: %v", e.Source, e.Underlying)
}

func (e *EmbeddingUnavailableError) Unwrap() error { return e.Underlying }

// ReportMissingError reports that no report artifact exists yet.
type ReportMissingError struct {
	Dir string
}

func (e *ReportMissingError) Error() string {
	return fmt.Sprintf("no report artifact found in %s", e.Dir)
}

// ShortIDUnknownError reports that a shortId does not match any group in
// the latest report.
type ShortIDUnknownError struct {
	ShortID string
}

func (e *ShortIDUnknownError) Error() string {
	return fmt.Sprintf("unknown shortId %q in latest report", e.ShortID)
}
