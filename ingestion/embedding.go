package ingestion

import (
	"context"
	"fmt"

	"github.com/poiesic/answerit/core"
)

// embedChunks generates embeddings for the given chunks and persists the
// updated vectors. Vectors are normalized before storage so similarity
// scores stay comparable across documents.
func (p *Pipeline) embedChunks(ctx context.Context, chunks []*core.Chunk) error {
	if len(chunks) == 0 {
		return nil
	}

	texts := make([]string, len(chunks))
	for i, chunk := range chunks {
		texts[i] = chunk.Text
	}

	p.logger.Debug("generating embeddings for chunks", "chunks", len(texts))
	embeddings, err := p.embedder.EmbedTexts(ctx, texts)
	if err != nil {
		p.logger.Error("error generating embeddings", "err", err)
		return err
	}

	if len(embeddings) != len(chunks) {
		return fmt.Errorf("embedding result mismatch. expected %d, received %d", len(chunks), len(embeddings))
	}

	for i := range embeddings {
		chunks[i].Vector = core.NormalizeVector(embeddings[i])
	}

	if _, err := p.chunkRepository.UpdateChunks(ctx, chunks...); err != nil {
		return err
	}

	return nil
}
