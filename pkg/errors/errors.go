// Package errors provides coded errors matching the pipeline's failure
// taxonomy: record-level geometric failures, chunk-level I/O failures, and
// run-level configuration failures.
package errors

import (
	"fmt"
	"strings"
)

// Code identifies a failure class for programmatic handling.
type Code string

const (
	// Record-level geometric failures (1xx) — recovered per record.
	CodeEmptyGeometry   Code = "E101"
	CodeMeshDegenerate  Code = "E102"
	CodeRepairFailed    Code = "E103"
	CodeSurfaceAnalysis Code = "E104"
	CodeRecordPanic     Code = "E105"

	// Chunk-level I/O failures (2xx) — recovered per chunk.
	CodeChunkWrite  Code = "E201"
	CodeMergeFailed Code = "E202"

	// Run-level configuration failures (3xx) — fatal before dispatch.
	CodeInputNotFound Code = "E301"
	CodeLayerNotFound Code = "E302"
	CodeBadConfig     Code = "E303"

	CodeUnknown Code = "E999"
)

// PipelineError is a coded error with optional key/value context.
type PipelineError struct {
	Code    Code
	Message string
	Cause   error
	Context map[string]interface{}
}

// Error implements the error interface.
func (e *PipelineError) Error() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "[%s] %s", e.Code, e.Message)
	if len(e.Context) > 0 {
		sb.WriteString(" (")
		first := true
		for k, v := range e.Context {
			if !first {
				sb.WriteString(", ")
			}
			fmt.Fprintf(&sb, "%s=%v", k, v)
			first = false
		}
		sb.WriteString(")")
	}
	if e.Cause != nil {
		sb.WriteString(": ")
		sb.WriteString(e.Cause.Error())
	}
	return sb.String()
}

// Unwrap returns the underlying cause.
func (e *PipelineError) Unwrap() error { return e.Cause }

// Is matches errors by code.
func (e *PipelineError) Is(target error) bool {
	if t, ok := target.(*PipelineError); ok {
		return e.Code == t.Code
	}
	return false
}

// WithContext attaches a key/value pair to the error.
func (e *PipelineError) WithContext(key string, value interface{}) *PipelineError {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value
	return e
}

// New creates a new coded error.
func New(code Code, message string) *PipelineError {
	return &PipelineError{Code: code, Message: message}
}

// Wrap attaches a code and message to an existing error. Returns nil when
// err is nil.
func Wrap(err error, code Code, message string) *PipelineError {
	if err == nil {
		return nil
	}
	return &PipelineError{Code: code, Message: message, Cause: err}
}

// Wrapf wraps with a formatted message.
func Wrapf(err error, code Code, format string, args ...interface{}) *PipelineError {
	return Wrap(err, code, fmt.Sprintf(format, args...))
}

// --- Convenience constructors ---

// InputNotFound marks a dataset path that could not be opened.
func InputNotFound(path string) *PipelineError {
	return New(CodeInputNotFound, "could not open dataset").WithContext("path", path)
}

// LayerNotFound marks a layer name absent from the dataset.
func LayerNotFound(layer string, available []string) *PipelineError {
	return New(CodeLayerNotFound, "layer not found").
		WithContext("layer", layer).
		WithContext("available", available)
}

// ChunkWrite marks a chunk whose output file could not be written.
func ChunkWrite(seq int, err error) *PipelineError {
	return Wrap(err, CodeChunkWrite, "failed to write chunk output").WithContext("chunk", seq)
}

// BadConfig marks an invalid run configuration.
func BadConfig(detail string) *PipelineError {
	return New(CodeBadConfig, detail)
}
