package domain

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors for the pipeline error taxonomy. Per-batch errors are
// caught at the sweeper/loader boundary; ErrStoreUnavailable aborts the
// whole cycle.
var (
	// ErrUnknownSchema marks a batch whose columns match no record kind.
	ErrUnknownSchema = errors.New("unknown batch schema")
	// ErrAmbiguousSchema marks a batch whose columns match more than one
	// record kind. This is a configuration error and always fails loudly.
	ErrAmbiguousSchema = errors.New("ambiguous batch schema")
	// ErrStoreUnavailable marks the warehouse store as unreachable. Fatal
	// for the whole cycle.
	ErrStoreUnavailable = errors.New("warehouse store unavailable")
	// ErrCycleInProgress is returned when a cycle is requested while one
	// is already running. Overlapping cycles are refused, never queued.
	ErrCycleInProgress = errors.New("cycle already in progress")
)

// MalformedTimestampError identifies the exact field and row that failed
// temporal parsing. A single bad row rejects its batch rather than being
// coerced to a sentinel value.
type MalformedTimestampError struct {
	Column string
	Row    int
	Value  string
}

func (e *MalformedTimestampError) Error() string {
	return fmt.Sprintf("malformed timestamp in column %q row %d: %q", e.Column, e.Row, e.Value)
}

// SchemaMismatchError marks a cleaned batch whose columns no longer match
// the warehouse table schema for its kind, either because expected
// columns are missing or because unexpected ones appeared.
type SchemaMismatchError struct {
	Kind    RecordKind
	Missing []string
	Extra   []string
}

func (e *SchemaMismatchError) Error() string {
	parts := make([]string, 0, 2)
	if len(e.Missing) > 0 {
		parts = append(parts, fmt.Sprintf("missing columns [%s]", strings.Join(e.Missing, ", ")))
	}
	if len(e.Extra) > 0 {
		parts = append(parts, fmt.Sprintf("unexpected columns [%s]", strings.Join(e.Extra, ", ")))
	}
	return fmt.Sprintf("schema mismatch for kind %s: %s", e.Kind, strings.Join(parts, ", "))
}

// BatchFailure records one per-batch failure with enough detail for
// manual remediation.
type BatchFailure struct {
	Batch  string `json:"batch"`
	Stage  string `json:"stage"`
	Reason string `json:"reason"`
}
