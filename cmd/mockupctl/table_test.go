package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRenderTablePlainWhenPiped(t *testing.T) {
	var buf bytes.Buffer
	assert.False(t, isTerminal(&buf))

	out := renderTable(&buf, []string{"Template", "Time"}, [][]string{{"tee-black", "12ms"}, {"poster-a3"}}, 1)
	assert.Contains(t, out, "tee-black")
	assert.Contains(t, out, "poster-a3")
	assert.Contains(t, out, "+-")
	assert.NotContains(t, out, "╭")
	assert.Equal(t, 6, strings.Count(out, "\n")+1)
}

func TestRenderTableWithoutHeaders(t *testing.T) {
	assert.Empty(t, renderTable(&bytes.Buffer{}, nil, [][]string{{"x"}}))
}
