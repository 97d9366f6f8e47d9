package format

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
)

func TestLinePadsShortText(t *testing.T) {
	got := Line("10.0.0.7", Width)
	assert.Equal(t, "10.0.0.7        ", got)
	assert.Len(t, got, Width)
	assert.True(t, strings.HasPrefix(got, "10.0.0.7"))
}

func TestLineTruncatesLongText(t *testing.T) {
	got := Line("CANNOT DETERMINE IP", Width)
	assert.Equal(t, "CANNOT DETERMINE", got)
}

func TestLineExactWidthUnchanged(t *testing.T) {
	assert.Equal(t, "0123456789abcdef", Line("0123456789abcdef", Width))
}

func TestLineCountsRunes(t *testing.T) {
	got := Line("température élevée!", Width)
	assert.Equal(t, Width, utf8.RuneCountInString(got))
	assert.Equal(t, "température élev", got)

	assert.Equal(t, "é  ", Line("é", 3))
}

func TestLineEmptyAndZeroWidth(t *testing.T) {
	assert.Equal(t, strings.Repeat(" ", Width), Line("", Width))
	assert.Equal(t, "", Line("anything", 0))
	assert.Equal(t, "", Line("anything", -1))
}

func TestBar(t *testing.T) {
	cases := []struct {
		level int
		want  string
	}{
		{0, "CPU:           "},
		{3, "CPU: ###       "},
		{10, "CPU: ##########"},
		{-4, "CPU:           "},
		{42, "CPU: ##########"},
	}
	for _, tc := range cases {
		got := Bar(tc.level)
		assert.Equal(t, tc.want, got, "level %d", tc.level)
		assert.Len(t, got, len(barLabel)+MaxLevel)
	}
}
