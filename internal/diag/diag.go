// Package diag defines the diagnostic kinds and error stream shared by
// every pass. Errors are values, never exceptions: each pass appends to a
// session-owned Stream and returns an error count. Grounded on the
// teacher's internal/model/errors.go shape (sentinel errors for
// programmatic checks, a machine-readable Code per kind).
package diag

import (
	"errors"
	"fmt"

	"github.com/oxhq/stapc/internal/token"
)

// Sentinel errors for programmatic checking by callers that only care
// about the category, not the rendered message.
var (
	ErrLex            = errors.New("lexical error")
	ErrParse          = errors.New("parse error")
	ErrResolve        = errors.New("resolve error")
	ErrMatch          = errors.New("probe-point match error")
	ErrTypeMismatch   = errors.New("type mismatch")
	ErrUnresolvedType = errors.New("unresolved type")
	ErrBuilder        = errors.New("derived-probe builder error")
)

// Code is a machine-readable diagnostic kind, one per spec.md §7 category.
type Code string

const (
	CodeLexError       Code = "LexError"
	CodeParseError     Code = "ParseError"
	CodeResolveError   Code = "ResolveError"
	CodeMatchError     Code = "MatchError"
	CodeTypeMismatch   Code = "TypeMismatch"
	CodeUnresolvedType Code = "UnresolvedType"
	CodeBuilderError   Code = "BuilderError"
)

func (c Code) sentinel() error {
	switch c {
	case CodeLexError:
		return ErrLex
	case CodeParseError:
		return ErrParse
	case CodeResolveError:
		return ErrResolve
	case CodeMatchError:
		return ErrMatch
	case CodeTypeMismatch:
		return ErrTypeMismatch
	case CodeUnresolvedType:
		return ErrUnresolvedType
	case CodeBuilderError:
		return ErrBuilder
	default:
		return errors.New(string(c))
	}
}

// Diagnostic is one reported error or warning, with a stable source
// location for user-facing output: "<file>:<line>:<col>: message".
type Diagnostic struct {
	Code     Code
	Location token.Location
	Message  string
	// Suppressed is set by listing mode for MatchErrors, per spec.md §7:
	// a user listing "everything available" should not see errors about
	// patterns that simply don't exist.
	Suppressed bool
}

func (d Diagnostic) String() string {
	return fmt.Sprintf("%s: %s", d.Location, d.Message)
}

func (d Diagnostic) Error() string {
	return fmt.Sprintf("%v: %s", d.Code.sentinel(), d.Message)
}

// Stream accumulates diagnostics for one session, partitioned by pass so a
// caller can ask "how many errors did pass N contribute".
type Stream struct {
	entries []Diagnostic
}

// Add appends a diagnostic.
func (s *Stream) Add(code Code, loc token.Location, format string, args ...any) {
	s.entries = append(s.entries, Diagnostic{
		Code:     code,
		Location: loc,
		Message:  fmt.Sprintf(format, args...),
	})
}

// AddSuppressed appends a diagnostic already marked suppressed (used by
// listing mode for MatchErrors).
func (s *Stream) AddSuppressed(code Code, loc token.Location, format string, args ...any) {
	s.entries = append(s.entries, Diagnostic{
		Code:       code,
		Location:   loc,
		Message:    fmt.Sprintf(format, args...),
		Suppressed: true,
	})
}

// All returns every diagnostic recorded so far, in order.
func (s *Stream) All() []Diagnostic {
	return s.entries
}

// Visible returns diagnostics excluding those suppressed for listing mode.
func (s *Stream) Visible() []Diagnostic {
	var out []Diagnostic
	for _, e := range s.entries {
		if !e.Suppressed {
			out = append(out, e)
		}
	}
	return out
}

// ErrorCount counts non-suppressed diagnostics of any kind. This is the
// "error count" each pass returns per spec.md §7.
func (s *Stream) ErrorCount() int {
	return len(s.Visible())
}

// CountSince returns the number of diagnostics appended after mark (an
// index obtained from Mark), letting the driver report per-pass counts.
func (s *Stream) CountSince(mark int) int {
	n := 0
	for _, e := range s.entries[mark:] {
		if !e.Suppressed {
			n++
		}
	}
	return n
}

// Mark returns the current entry count, to be paired with CountSince.
func (s *Stream) Mark() int {
	return len(s.entries)
}
