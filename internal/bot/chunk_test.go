package bot

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplitMessageShortTextIsSingleChunk(t *testing.T) {
	chunks := splitMessage("hola", messageLimit)
	assert.Equal(t, []string{"hola"}, chunks)
}

func TestSplitMessageEmptyText(t *testing.T) {
	chunks := splitMessage("", messageLimit)
	assert.Equal(t, []string{""}, chunks)
}

func TestSplitMessageChunkCountAndReassembly(t *testing.T) {
	tests := []struct {
		name   string
		length int
		chunks int
	}{
		{name: "exactly one chunk", length: messageLimit, chunks: 1},
		{name: "one over the limit", length: messageLimit + 1, chunks: 2},
		{name: "several chunks", length: 3*messageLimit + 100, chunks: 4},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			text := strings.Repeat("a", tt.length)
			chunks := splitMessage(text, messageLimit)

			require.Len(t, chunks, tt.chunks)
			for _, chunk := range chunks {
				assert.LessOrEqual(t, len([]rune(chunk)), messageLimit)
			}
			assert.Equal(t, text, strings.Join(chunks, ""))
		})
	}
}

func TestSplitMessagePreservesMultibyteRunes(t *testing.T) {
	text := strings.Repeat("ñ", messageLimit+10)
	chunks := splitMessage(text, messageLimit)

	require.Len(t, chunks, 2)
	assert.Equal(t, text, strings.Join(chunks, ""))
	// no chunk may split a rune in half
	for _, chunk := range chunks {
		assert.NotContains(t, chunk, "�")
	}
}
