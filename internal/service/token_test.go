package service

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateSecret(t *testing.T) {
	alnum := regexp.MustCompile(`^[A-Za-z0-9]{40}$`)
	seen := make(map[string]bool)
	for i := 0; i < 50; i++ {
		s, err := generateSecret()
		require.NoError(t, err)
		assert.Regexp(t, alnum, s)
		assert.False(t, seen[s], "secrets must not repeat")
		seen[s] = true
	}
}

func TestHashSecret(t *testing.T) {
	h := hashSecret("abc")
	assert.Len(t, h, 64)
	assert.Equal(t, "ba7816bf8f01cfea414140de5dae2223b00361a396177a9cb410ff61f20015ad", h)
	assert.True(t, hashesEqual(h, hashSecret("abc")))
	assert.False(t, hashesEqual(h, hashSecret("abd")))
}

func TestParsePlainText(t *testing.T) {
	tests := []struct {
		name   string
		prefix string
		raw    string
		want   parsedToken
		ok     bool
	}{
		{name: "id and secret", raw: "12|secret", want: parsedToken{ID: 12, HasID: true, Secret: "secret"}, ok: true},
		{name: "prefix stripped", prefix: "acc_", raw: "acc_7|s3cr3t", want: parsedToken{ID: 7, HasID: true, Secret: "s3cr3t"}, ok: true},
		{name: "bare secret", raw: "justasecret", want: parsedToken{Secret: "justasecret"}, ok: true},
		{name: "secret containing separator", raw: "3|a|b", want: parsedToken{ID: 3, HasID: true, Secret: "a|b"}, ok: true},
		{name: "empty", raw: "   ", ok: false},
		{name: "non numeric id", raw: "x|secret", ok: false},
		{name: "zero id", raw: "0|secret", ok: false},
		{name: "missing secret", raw: "5|", ok: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := parsePlainText(tt.prefix, tt.raw)
			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.Equal(t, tt.want, got)
			}
		})
	}
}

func TestFormatPlainTextRoundTrip(t *testing.T) {
	raw := formatPlainText("acc_", 42, "abc")
	assert.Equal(t, "acc_42|abc", raw)

	got, ok := parsePlainText("acc_", raw)
	require.True(t, ok)
	assert.Equal(t, parsedToken{ID: 42, HasID: true, Secret: "abc"}, got)
}
