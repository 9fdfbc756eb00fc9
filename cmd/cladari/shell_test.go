package main

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestShell(in string) (*shell, *bytes.Buffer, *[]string) {
	var asked []string
	out := &bytes.Buffer{}
	s := &shell{
		answer: func(ctx context.Context, message string) string {
			asked = append(asked, message)
			return "You have 70 plants in your collection."
		},
		in:     strings.NewReader(in),
		out:    out,
		label:  "Cladari",
		banner: []string{"🌿 Cladari AI - Interactive Mode"},
	}
	return s, out, &asked
}

func TestShell_SingleQueryFromArgs(t *testing.T) {
	s, out, asked := newTestShell("")

	require.NoError(t, s.run(context.Background(), []string{"How", "many", "plants", "do", "I", "have?"}))
	assert.Equal(t, []string{"How many plants do I have?"}, *asked)
	assert.Equal(t, "\n🌿 Cladari: You have 70 plants in your collection.\n\n", out.String())
}

func TestShell_InteractiveUntilExit(t *testing.T) {
	s, out, asked := newTestShell("hello\n\n  water?  \nEXIT\nnever asked\n")

	require.NoError(t, s.run(context.Background(), nil))
	assert.Equal(t, []string{"hello", "water?"}, *asked)
	assert.True(t, strings.HasPrefix(out.String(), "🌿 Cladari AI - Interactive Mode\nType 'exit' to quit\n\nYou: "))
	assert.Equal(t, 2, strings.Count(out.String(), "🌿 Cladari: "))
}

func TestShell_EndOfInput(t *testing.T) {
	s, _, asked := newTestShell("one question")

	require.NoError(t, s.run(context.Background(), nil))
	assert.Equal(t, []string{"one question"}, *asked)
}
