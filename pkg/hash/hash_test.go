package hash

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestHashPassword_VerifiesOriginal(t *testing.T) {
	t.Parallel()

	h, err := HashPassword("Sup3rSecret")
	require.NoError(t, err)
	assert.NotEqual(t, "Sup3rSecret", h)
	assert.True(t, CheckPassword(h, "Sup3rSecret"))
	assert.False(t, CheckPassword(h, "sup3rsecret"))
}

func TestHashPassword_Salted(t *testing.T) {
	t.Parallel()

	first, err := HashPassword("Sup3rSecret")
	require.NoError(t, err)
	second, err := HashPassword("Sup3rSecret")
	require.NoError(t, err)

	assert.NotEqual(t, first, second)
	assert.True(t, CheckPassword(first, "Sup3rSecret"))
	assert.True(t, CheckPassword(second, "Sup3rSecret"))
}

func TestCheckPassword_GarbageHash(t *testing.T) {
	t.Parallel()

	assert.False(t, CheckPassword("not-a-bcrypt-hash", "whatever"))
	assert.False(t, CheckPassword("", ""))
}

func TestHasher_LongPassword(t *testing.T) {
	t.Parallel()

	long := "Aa1" + strings.Repeat("x", 97)
	h, err := HashPassword(long)
	require.NoError(t, err)
	assert.True(t, CheckPassword(h, long))
	assert.False(t, CheckPassword(h, "Aa1"+strings.Repeat("y", 97)))

	// bytes past the bcrypt input limit do not take part in the comparison
	assert.True(t, CheckPassword(h, long[:MaxPasswordBytes]+"zzz"))
}

func TestHasher_Cost(t *testing.T) {
	t.Parallel()

	cheap := Hasher{Cost: bcrypt.MinCost}
	h, err := cheap.Hash("Sup3rSecret")
	require.NoError(t, err)
	assert.True(t, cheap.Check(h, "Sup3rSecret"))
	assert.False(t, cheap.NeedsRehash(h))
	assert.True(t, Hasher{}.NeedsRehash(h))
	assert.True(t, Hasher{}.NeedsRehash("garbage"))
}

func TestHasher_DummyMatchesCost(t *testing.T) {
	t.Parallel()

	for _, h := range []Hasher{{Cost: bcrypt.MinCost}, {Cost: bcrypt.MinCost + 1}} {
		d := h.Dummy()
		cost, err := bcrypt.Cost([]byte(d))
		require.NoError(t, err)
		assert.Equal(t, h.Cost, cost)
		assert.Equal(t, d, h.Dummy(), "cached per cost")
		assert.False(t, h.Check(d, "Sup3rSecret"))
	}
}
