package pipeline

import (
	"testing"

	"github.com/poiesic/answerit/core"
	"github.com/stretchr/testify/assert"
)

func TestContextText(t *testing.T) {
	plain := &core.ChunkResult{Text: "raw passage"}
	assert.Equal(t, "raw passage", contextText(plain))

	enriched := &core.ChunkResult{Text: "raw passage", EnrichedText: "[Main]: raw passage"}
	assert.Equal(t, "[Main]: raw passage", contextText(enriched))
}

func TestBuildPrompt(t *testing.T) {
	context := []*core.ChunkResult{
		{Text: "RDB takes snapshots."},
		{Text: "AOF logs writes.", EnrichedText: "[Main]: AOF logs writes.\n\n[Next]: Both can be combined."},
	}

	prompt := buildPrompt("How is data persisted?", context)

	expected := "Answer the question based on the context. Be brief and accurate.\n\n" +
		"Context:\n" +
		"Source 1:\nRDB takes snapshots.\n\n" +
		"Source 2:\n[Main]: AOF logs writes.\n\n[Next]: Both can be combined.\n\n" +
		"Question: How is data persisted?\n\n" +
		"Answer:"
	assert.Equal(t, expected, prompt)
}

func TestBuildPrompt_NoContext(t *testing.T) {
	prompt := buildPrompt("Anything stored?", nil)

	assert.Contains(t, prompt, "Context:\n\n\nQuestion: Anything stored?")
}
