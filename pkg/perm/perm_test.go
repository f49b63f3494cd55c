package perm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	errs "github.com/matzehuels/demazure/pkg/errors"
)

func TestIdentityAndLongest(t *testing.T) {
	assert.Equal(t, Perm{1, 2, 3, 4}, Identity(4))
	assert.Equal(t, Perm{4, 3, 2, 1}, Longest(4))
	assert.True(t, Identity(4).IsIdentity())
	assert.False(t, Longest(4).IsIdentity())
	assert.Equal(t, 0, Identity(5).Length())
	assert.Equal(t, MaxLength(5), Longest(5).Length())
}

func TestParse(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    Perm
		wantErr bool
	}{
		{"commas", "3,1,2", Perm{3, 1, 2}, false},
		{"spaces", "3 1 2", Perm{3, 1, 2}, false},
		{"brackets", "[3 1 2]", Perm{3, 1, 2}, false},
		{"padded", "  2, 1 ", Perm{2, 1}, false},
		{"singleton", "1", Perm{1}, false},

		{"empty", "", nil, true},
		{"repeated value", "1,1,2", nil, true},
		{"out of range", "1,2,4", nil, true},
		{"zero", "0,1", nil, true},
		{"not a number", "1,x,3", nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Parse(tt.input)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errs.Is(err, errs.ErrCodeInvalidPermutation), "code = %s", errs.GetCode(err))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestKeyRoundTrip(t *testing.T) {
	for _, p := range Generate(4, -1) {
		q, err := Parse(p.Key())
		require.NoError(t, err)
		assert.True(t, p.Equal(q), "round trip of %v", p)
	}
}

func TestLength(t *testing.T) {
	tests := []struct {
		p    Perm
		want int
	}{
		{Perm{1}, 0},
		{Perm{1, 2, 3}, 0},
		{Perm{2, 1, 3}, 1},
		{Perm{2, 3, 1}, 2},
		{Perm{3, 1, 2}, 2},
		{Perm{3, 2, 1}, 3},
		{Perm{2, 4, 1, 3}, 3},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.p.Length(), "l(%v)", tt.p)
		assert.Equal(t, tt.want, Length(tt.p), "Length(%v)", tt.p)
	}
}

func TestMul(t *testing.T) {
	p := Perm{3, 1, 2}

	q, err := p.Mul(1)
	require.NoError(t, err)
	assert.Equal(t, Perm{1, 3, 2}, q)
	assert.Equal(t, Perm{3, 1, 2}, p, "receiver must not change")

	q, err = p.Mul(0)
	require.NoError(t, err)
	assert.Equal(t, p, q)

	for _, bad := range []int{-1, 3, 7} {
		_, err := p.Mul(bad)
		require.Error(t, err)
		assert.True(t, errs.Is(err, errs.ErrCodeInvalidGenerator))
	}
}

func TestAscentMatchesLength(t *testing.T) {
	for n := 1; n <= 5; n++ {
		for _, p := range Generate(n, -1) {
			for i := 1; i < n; i++ {
				q, err := p.Mul(i)
				require.NoError(t, err)
				assert.Equal(t, q.Length() > p.Length(), p.IsAscent(i), "p=%v i=%d", p, i)
				assert.Equal(t, 1, abs(q.Length()-p.Length()))
			}
			assert.False(t, p.IsAscent(0))
		}
	}
}

func TestDescents(t *testing.T) {
	assert.Empty(t, Identity(4).Descents())
	assert.Equal(t, []int{1, 2, 3}, Longest(4).Descents())
	assert.Equal(t, []int{2}, Perm{1, 3, 2, 4}.Descents())
}

func TestDemazureStep(t *testing.T) {
	id := Identity(3)

	s1, err := id.DemazureStep(1)
	require.NoError(t, err)
	assert.Equal(t, Perm{2, 1, 3}, s1)

	again, err := s1.DemazureStep(1)
	require.NoError(t, err)
	assert.Equal(t, s1, again, "a non-increasing step keeps the element")

	same, err := s1.DemazureStep(0)
	require.NoError(t, err)
	assert.Equal(t, s1, same)

	_, err = s1.DemazureStep(3)
	assert.True(t, errs.Is(err, errs.ErrCodeInvalidGenerator))
}

func TestInverse(t *testing.T) {
	for _, p := range Generate(4, -1) {
		inv := p.Inverse()
		for i, v := range p {
			assert.Equal(t, i+1, inv[v-1])
		}
		assert.True(t, inv.Inverse().Equal(p))
		assert.Equal(t, p.Length(), inv.Length())
	}
}

func TestBruhatLE(t *testing.T) {
	s1 := Perm{2, 1, 3}
	s2 := Perm{1, 3, 2}
	s1s2 := Perm{2, 3, 1}

	assert.True(t, s1.BruhatLE(s1s2))
	assert.True(t, s2.BruhatLE(s1s2))
	assert.False(t, s1.BruhatLE(s2))
	assert.False(t, s2.BruhatLE(s1))
	assert.False(t, s1s2.BruhatLE(s1))
	assert.False(t, s1.BruhatLE(Perm{2, 1}), "different sizes are incomparable")

	for _, p := range Generate(4, -1) {
		assert.True(t, Identity(4).BruhatLE(p))
		assert.True(t, p.BruhatLE(Longest(4)))
		assert.True(t, p.BruhatLE(p))
		for i := 1; i < 4; i++ {
			q, _ := p.DemazureStep(i)
			assert.True(t, p.BruhatLE(q), "Demazure steps never go down: %v * s_%d", p, i)
		}
	}
}

func TestCompare(t *testing.T) {
	assert.Equal(t, -1, Perm{1, 2}.Compare(Perm{1, 2, 3}))
	assert.Equal(t, 1, Perm{2, 1}.Compare(Perm{1, 2}))
	assert.Equal(t, 0, Perm{2, 1}.Compare(Perm{2, 1}))
}

func TestGenerate(t *testing.T) {
	for n := 1; n <= 6; n++ {
		perms := Generate(n, -1)
		require.Len(t, perms, Factorial(n))
		seen := make(map[string]bool, len(perms))
		for _, p := range perms {
			require.NoError(t, p.Validate())
			assert.False(t, seen[p.Key()], "duplicate %v", p)
			seen[p.Key()] = true
		}
	}

	assert.Len(t, Generate(10, 5), 5)
	assert.Nil(t, Generate(0, -1))
}

func TestFactorial(t *testing.T) {
	assert.Equal(t, 1, Factorial(0))
	assert.Equal(t, 1, Factorial(1))
	assert.Equal(t, 6, Factorial(3))
	assert.Equal(t, 5040, Factorial(7))
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
