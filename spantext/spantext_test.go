package spantext

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func requirePartition(t *testing.T, text *Text) {
	t.Helper()
	runs := text.Runs()
	if len(text.Source()) == 0 {
		require.Empty(t, runs)
		return
	}
	require.NotEmpty(t, runs)
	assert.Equal(t, 0, runs[0].Start)
	assert.Equal(t, len(text.Source()), runs[len(runs)-1].End)
	for i, r := range runs {
		assert.Less(t, r.Start, r.End, "run %d is empty", i)
		if i > 0 {
			assert.Equal(t, runs[i-1].End, r.Start, "gap before run %d", i)
			assert.NotEqual(t, runs[i-1].Style, r.Style, "runs %d and %d should merge", i-1, i)
		}
	}
}

func TestColorSplitsRuns(t *testing.T) {
	text := New("var x = 1")
	text.Color(0, 3, "keyword")
	text.Color(8, 9, "number")
	requirePartition(t, text)
	assert.Equal(t, []Run{
		{Start: 0, End: 3, Style: Style{Class: "keyword"}},
		{Start: 3, End: 8},
		{Start: 8, End: 9, Style: Style{Class: "number"}},
	}, text.Runs())
}

func TestOverlappingUpdates(t *testing.T) {
	text := New("abcdefghij")
	text.Color(2, 6, "a")
	text.Color(4, 8, "b")
	text.Error(3, 5)
	text.Color(0, 10, "c")
	requirePartition(t, text)
	assert.Equal(t, []Run{
		{Start: 0, End: 3, Style: Style{Class: "c"}},
		{Start: 3, End: 5, Style: Style{Class: "c", Error: true}},
		{Start: 5, End: 10, Style: Style{Class: "c"}},
	}, text.Runs())
}

func TestAdjacentEqualStylesMerge(t *testing.T) {
	text := New("aaaa")
	text.Color(0, 2, "x")
	text.Color(2, 4, "x")
	requirePartition(t, text)
	assert.Len(t, text.Runs(), 1)
}

func TestOutOfRangeIsClamped(t *testing.T) {
	text := New("abc")
	text.Color(-5, 2, "x")
	text.Color(2, 99, "y")
	text.Color(2, 2, "z")
	text.Error(3, 1)
	requirePartition(t, text)
	assert.Equal(t, "<span class=\"x\">ab</span><span class=\"y\">c</span>", text.String())
}

func TestStringEscapes(t *testing.T) {
	text := New(`if (a < b) { "&" }`)
	text.Color(0, 2, "keyword")
	text.Error(13, 16)
	assert.Equal(t,
		`<span class="keyword">if</span> (a &lt; b) { <span class="error">&#34;&amp;&#34;</span> }`,
		text.String())
}

func TestEmptyText(t *testing.T) {
	text := New("")
	text.Color(0, 1, "x")
	requirePartition(t, text)
	assert.Equal(t, "", text.String())
}
