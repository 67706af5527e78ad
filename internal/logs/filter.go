package logs

import (
	"fmt"
	"strings"

	"github.com/charliek/logview/internal/constants"
	"github.com/charliek/logview/internal/domain"
)

// Matcher is a compiled viewer filter. The zero value matches everything.
type Matcher struct {
	terms []string
}

// Compile turns a raw filter string into a Matcher. An empty or
// whitespace-only filter matches every record; otherwise every
// whitespace-separated term must be a substring of at least one token.
func Compile(filter string) Matcher {
	fields := strings.Fields(Normalize(filter))
	if len(fields) == 0 {
		return Matcher{}
	}

	seen := make(map[string]struct{}, len(fields))
	terms := make([]string, 0, len(fields))
	for _, f := range fields {
		if _, ok := seen[f]; ok {
			continue
		}
		seen[f] = struct{}{}
		terms = append(terms, f)
	}
	return Matcher{terms: terms}
}

// ValidateFilter checks a filter before it is compiled
func ValidateFilter(filter string) error {
	if len(filter) > constants.MaxFilterLength {
		return fmt.Errorf("%w: filter exceeds maximum length of %d characters", domain.ErrInvalidFilter, constants.MaxFilterLength)
	}
	return nil
}

// MatchesAll returns true if the matcher accepts every record
func (m Matcher) MatchesAll() bool {
	return len(m.terms) == 0
}

// Terms returns the normalized search terms
func (m Matcher) Terms() []string {
	return m.terms
}

// Match returns true if every term is contained in some token
func (m Matcher) Match(tokens []string) bool {
	for _, term := range m.terms {
		if !containsTerm(tokens, term) {
			return false
		}
	}
	return true
}

// Matches returns true if the record's index satisfies the matcher
func (m Matcher) Matches(rec domain.Record) bool {
	return m.Match(rec.Index)
}

func containsTerm(tokens []string, term string) bool {
	for _, tok := range tokens {
		if strings.Contains(tok, term) {
			return true
		}
	}
	return false
}

// FilterRecords returns the records accepted by the matcher, in order
func FilterRecords(records []domain.Record, m Matcher) []domain.Record {
	if m.MatchesAll() {
		return records
	}

	result := make([]domain.Record, 0, len(records))
	for _, rec := range records {
		if m.Matches(rec) {
			result = append(result, rec)
		}
	}
	return result
}
