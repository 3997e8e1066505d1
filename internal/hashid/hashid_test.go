package hashid

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FACorreiaa/go-cemetery-registry/config"
)

var testCfg = config.HashID{
	Salt:     "test-salt",
	Length:   15,
	Alphabet: "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ1234567890",
}

func TestObfuscator_Deterministic(t *testing.T) {
	a, err := New(testCfg)
	require.NoError(t, err)
	b, err := New(testCfg)
	require.NoError(t, err)

	value := int64(1718000000123)
	assert.Equal(t, a.Encode(value), a.Encode(value))
	assert.Equal(t, a.Encode(value), b.Encode(value), "same configuration must give same token")
}

func TestObfuscator_DistinctOverSequentialMillis(t *testing.T) {
	o, err := New(testCfg)
	require.NoError(t, err)

	start := int64(1718000000000)
	seen := make(map[string]int64, 10000)
	for i := int64(0); i < 10000; i++ {
		token := o.Encode(start + i)
		if prev, ok := seen[token]; ok {
			t.Fatalf("token %q produced by %d and %d", token, prev, start+i)
		}
		seen[token] = start + i
		assert.GreaterOrEqual(t, len(token), testCfg.Length)
	}
}

func TestObfuscator_SaltChangesToken(t *testing.T) {
	a, err := New(testCfg)
	require.NoError(t, err)
	other := testCfg
	other.Salt = "another-salt"
	b, err := New(other)
	require.NoError(t, err)

	assert.NotEqual(t, a.Encode(42), b.Encode(42))
}

func TestObfuscator_RoundTrip(t *testing.T) {
	o, err := New(testCfg)
	require.NoError(t, err)

	token := o.Encode(1718000000999)
	got, err := o.Decode(token)
	require.NoError(t, err)
	assert.Equal(t, int64(1718000000999), got)

	_, err = o.Decode("!!not-a-token!!")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestNew_RejectsShortAlphabet(t *testing.T) {
	bad := testCfg
	bad.Alphabet = "abc"
	_, err := New(bad)
	assert.Error(t, err)
}

func TestObfuscator_NegativePanics(t *testing.T) {
	o, err := New(testCfg)
	require.NoError(t, err)
	assert.Panics(t, func() { o.Encode(-1) })
}
