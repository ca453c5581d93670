package recommend

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Drake feat. Future", "drake"},
		{"Drake feat Future", "drake"},
		{"Drake FT. Future", "drake"},
		{"Calvin Harris featuring Rihanna", "calvin harris"},
		{"Simon & Garfunkel", "simon"},
		{"Tyler, The Creator", "tyler"},
		{"  Radiohead  ", "radiohead"},
		{"Defeat Machine", "defeat machine"},
		{"Crosby, Stills & Nash", "crosby, stills"},
		{"A feat. B & C", "a"},
		{"& Friends", "& friends"},
		{"", ""},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, Normalize(tt.in))
		})
	}
}

func TestSimilarity(t *testing.T) {
	assert.Equal(t, 1.0, Similarity("abc", "abc"))
	assert.Equal(t, 0.0, Similarity("abc", ""))
	assert.Equal(t, 0.0, Similarity("", "abc"))
	assert.Equal(t, 1.0, Similarity("", ""))
	assert.InDelta(t, 4.0/7.0, Similarity("kitten", "sitting"), 1e-9)
	assert.InDelta(t, 0.8, Similarity("bjork", "björk"), 1e-9)
}

func TestSimilarityBounds(t *testing.T) {
	pairs := [][2]string{
		{"the national", "national"},
		{"a", "zzzzzzzz"},
		{"sigur rós", "sigur ros"},
	}
	for _, p := range pairs {
		s := Similarity(p[0], p[1])
		assert.GreaterOrEqual(t, s, 0.0)
		assert.LessOrEqual(t, s, 1.0)
		assert.Equal(t, s, Similarity(p[1], p[0]))
	}
}
