package weakorder

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	errs "github.com/matzehuels/demazure/pkg/errors"
	"github.com/matzehuels/demazure/pkg/perm"
)

func enumerate(t *testing.T, n int) *Entry {
	t.Helper()
	e, err := Enumerate(context.Background(), n, Options{})
	require.NoError(t, err)
	require.True(t, e.Sealed())
	return e
}

func TestEnumerateCounts(t *testing.T) {
	tests := []struct {
		n         int
		words     int
		rankSizes []int
	}{
		{1, 1, []int{1}},
		{2, 2, []int{1, 1}},
		{3, 7, []int{1, 2, 2, 1}},
		{4, 66, []int{1, 3, 5, 6, 5, 3, 1}},
		{5, 3061, []int{1, 4, 9, 15, 20, 22, 20, 15, 9, 4, 1}},
	}

	for _, tt := range tests {
		e := enumerate(t, tt.n)
		assert.Equal(t, perm.Factorial(tt.n), e.Size(), "n=%d", tt.n)
		assert.Equal(t, tt.words, e.WordCount(), "n=%d", tt.n)
		assert.Equal(t, tt.rankSizes, e.RankSizes(), "n=%d", tt.n)
		assert.Equal(t, perm.MaxLength(tt.n), e.MaxLength(), "n=%d", tt.n)
	}
}

func TestEnumerateIsTotal(t *testing.T) {
	for n := 1; n <= 5; n++ {
		e := enumerate(t, n)
		for _, p := range perm.Generate(n, -1) {
			l, ok := e.Length(p)
			require.True(t, ok, "missing %v", p)
			assert.Equal(t, p.Length(), l)
			words, ok := e.ReducedWords(p)
			require.True(t, ok)
			assert.NotEmpty(t, words)
		}
	}
}

func TestReducedWordsAreReduced(t *testing.T) {
	for n := 1; n <= 5; n++ {
		e := enumerate(t, n)
		e.Each(func(p perm.Perm, length int, words []perm.Word) bool {
			for _, w := range words {
				assert.Equal(t, length, w.ExprLen(), "%v of %v", w, p)
				q, err := w.Product(n)
				require.NoError(t, err)
				assert.True(t, p.Equal(q), "%v multiplies to %v, not %v", w, q, p)
			}
			return true
		})
	}
}

func TestShortestWordMatchesInversions(t *testing.T) {
	maxN := 6
	if testing.Short() {
		maxN = 5
	}
	for n := 1; n <= maxN; n++ {
		e := enumerate(t, n)
		e.Each(func(p perm.Perm, _ int, words []perm.Word) bool {
			shortest := words[0].ExprLen()
			for _, w := range words {
				shortest = min(shortest, w.ExprLen())
			}
			assert.Equal(t, p.Length(), shortest, "%v", p)
			return true
		})
	}
}

func TestReducedWordsOfS3(t *testing.T) {
	e := enumerate(t, 3)

	words, ok := e.ReducedWords(perm.Longest(3))
	require.True(t, ok)
	assert.Equal(t, []perm.Word{{1, 2, 1}, {2, 1, 2}}, words)

	words, ok = e.ReducedWords(perm.Identity(3))
	require.True(t, ok)
	require.Len(t, words, 1)
	assert.Empty(t, words[0])

	words, _ = e.ReducedWords(perm.MustNew(2, 3, 1))
	assert.Equal(t, []perm.Word{{1, 2}}, words)
}

func TestElementsOrder(t *testing.T) {
	e := enumerate(t, 3)
	got := make([]string, 0, 6)
	for _, p := range e.Elements() {
		got = append(got, p.Key())
	}
	assert.Equal(t, []string{"1,2,3", "1,3,2", "2,1,3", "2,3,1", "3,1,2", "3,2,1"}, got)
}

func TestEnumerateLimits(t *testing.T) {
	ctx := context.Background()

	_, err := Enumerate(ctx, 5, Options{Limits: Limits{MaxWords: 100}})
	require.Error(t, err)
	assert.True(t, errs.Is(err, errs.ErrCodeResourceExhausted))

	_, err = Enumerate(ctx, 6, Options{Limits: Limits{MaxN: 5}})
	require.Error(t, err)
	assert.True(t, errs.Is(err, errs.ErrCodeResourceExhausted))

	_, err = Enumerate(ctx, 0, Options{})
	assert.True(t, errs.Is(err, errs.ErrCodeInvalidInput))
}

func TestEnumerateCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Enumerate(ctx, 4, Options{})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestSealRejectsIncompleteEntry(t *testing.T) {
	e := NewEntry(2)
	require.NoError(t, e.SetLength(perm.Identity(2), 0))
	require.NoError(t, e.AddWord(perm.Identity(2), perm.Word{}))

	err := e.Seal()
	require.Error(t, err)
	assert.False(t, e.Sealed())

	require.NoError(t, e.SetLength(perm.MustNew(2, 1), 1))
	err = e.Seal()
	require.Error(t, err, "s_1 has a length but no word")

	require.NoError(t, e.AddWord(perm.MustNew(2, 1), perm.Word{1}))
	require.NoError(t, e.Seal())

	err = e.AddWord(perm.MustNew(2, 1), perm.Word{1, 1, 1})
	assert.Error(t, err, "sealed entries are read-only")
}

func TestSealRejectsWrongWordLength(t *testing.T) {
	e := NewEntry(2)
	require.NoError(t, e.SetLength(perm.Identity(2), 0))
	require.NoError(t, e.AddWord(perm.Identity(2), perm.Word{}))
	require.NoError(t, e.SetLength(perm.MustNew(2, 1), 1))
	require.NoError(t, e.AddWord(perm.MustNew(2, 1), perm.Word{1, 1, 1}))

	assert.Error(t, e.Seal())
}

func TestEntryRejectsWrongSize(t *testing.T) {
	e := NewEntry(3)
	err := e.SetLength(perm.Identity(2), 0)
	assert.True(t, errs.Is(err, errs.ErrCodeUnknownElement))
}

func TestToDOT(t *testing.T) {
	dot, err := ToDOT(enumerate(t, 3))
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(dot, "digraph S3 {"))
	assert.Contains(t, dot, `p1_2_3 [label="1,2,3"]`)
	assert.Contains(t, dot, `p1_2_3 -> p2_1_3 [label="s_1"]`)
	assert.Contains(t, dot, `p2_3_1 -> p3_2_1 [label="s_1"]`)
	assert.Equal(t, 6, strings.Count(dot, " -> "), "S_3 has n!(n-1)/2 = 6 covering edges")
}

func TestToDOTTooLarge(t *testing.T) {
	e := NewEntry(7)
	e.sealed = true
	for _, p := range perm.Generate(7, 721) {
		e.nodes[p.Key()] = &node{p: p}
	}
	_, err := ToDOT(e)
	assert.True(t, errs.Is(err, errs.ErrCodeUnsupported))
}

func TestRenderSVG(t *testing.T) {
	if testing.Short() {
		t.Skip("graphviz rendering is slow")
	}
	svg, err := RenderSVG(context.Background(), enumerate(t, 3))
	require.NoError(t, err)
	assert.Contains(t, string(svg), "<svg")
}
