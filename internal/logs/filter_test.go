package logs

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/charliek/logview/internal/constants"
	"github.com/charliek/logview/internal/domain"
)

func TestCompile_Empty(t *testing.T) {
	for _, f := range []string{"", " ", "\t\n "} {
		m := Compile(f)
		assert.True(t, m.MatchesAll())
		assert.True(t, m.Match(nil))
		assert.True(t, m.Match([]string{"anything"}))
	}
}

func TestMatcher_Substring(t *testing.T) {
	m := Compile("err")

	assert.True(t, m.Match([]string{"error"}))
	assert.True(t, m.Match([]string{"info", "an error occurred"}))
	assert.False(t, m.Match([]string{"warning"}))
	assert.False(t, m.Match(nil))
}

func TestMatcher_Conjunction(t *testing.T) {
	ix := Indexer{}
	tokens := ix.Tokens(map[string]any{"msg": "Héllo Wörld"})

	assert.True(t, Compile("hello world").Match(tokens))
	assert.True(t, Compile("HÉLLO").Match(tokens))
	assert.False(t, Compile("hello xyz").Match(tokens))
}

func TestMatcher_TermsSpanTokens(t *testing.T) {
	tokens := []string{"error", "payment-service", "timeout"}

	assert.True(t, Compile("error payment").Match(tokens))
	assert.True(t, Compile("  timeout   error ").Match(tokens))
	assert.False(t, Compile("error login").Match(tokens))
}

func TestCompile_DeduplicatesTerms(t *testing.T) {
	m := Compile("err Err ERR warn")
	assert.Equal(t, []string{"err", "warn"}, m.Terms())
}

func TestValidateFilter(t *testing.T) {
	require.NoError(t, ValidateFilter("error"))

	err := ValidateFilter(strings.Repeat("a", constants.MaxFilterLength+1))
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrInvalidFilter)
}

func TestFilterRecords(t *testing.T) {
	ix := Indexer{}
	records := []domain.Record{
		{Seq: 1, Index: ix.Tokens(msg("request 1"))},
		{Seq: 2, Index: ix.Tokens(msg("ERROR: failed"))},
		{Seq: 3, Index: ix.Tokens(msg("error: timeout"))},
		{Seq: 4, Index: ix.Tokens(msg("processing"))},
	}

	t.Run("empty filter returns all", func(t *testing.T) {
		assert.Len(t, FilterRecords(records, Compile("")), 4)
	})

	t.Run("filter keeps order and seq", func(t *testing.T) {
		result := FilterRecords(records, Compile("error"))
		require.Len(t, result, 2)
		assert.Equal(t, 2, result[0].Seq)
		assert.Equal(t, 3, result[1].Seq)
	})

	t.Run("no matches", func(t *testing.T) {
		assert.Empty(t, FilterRecords(records, Compile("nothing")))
	})
}
