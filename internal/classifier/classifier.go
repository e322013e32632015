// Package classifier assigns inbound batches to a record kind by
// inspecting their column signature. Classification is a pure function
// of the schema: no I/O, no side effects.
package classifier

import (
	"fmt"
	"strings"

	"github.com/BahreHailemariam/Real-Time-Supply-Chain-Analytics-Pipeline/internal/domain"
)

// Classify returns the record kind whose identifying column is present in
// header. It returns domain.ErrUnknownSchema when no kind matches and
// domain.ErrAmbiguousSchema when more than one does — a batch matching
// two kinds is a configuration error, never a silent pick.
func Classify(header []string) (domain.RecordKind, error) {
	columns := make(map[string]bool, len(header))
	for _, col := range header {
		columns[strings.TrimSpace(col)] = true
	}

	matches := make([]domain.RecordKind, 0, 1)
	for _, kind := range domain.AllKinds() {
		if columns[kind.IdentifyingColumn()] {
			matches = append(matches, kind)
		}
	}

	switch len(matches) {
	case 0:
		return "", fmt.Errorf("no identifying column in header [%s]: %w",
			strings.Join(header, ", "), domain.ErrUnknownSchema)
	case 1:
		return matches[0], nil
	default:
		return "", fmt.Errorf("header matches kinds %v: %w", matches, domain.ErrAmbiguousSchema)
	}
}
