package retrieval

import (
	"github.com/poiesic/answerit/core"
)

// RetrievalMonitor provides hooks to observe the retrieval process.
// Implement this interface to track intermediate steps and results during retrieval.
type RetrievalMonitor interface {
	Start(question string)
	AfterVectorSearch(matches []*core.SimilarChunk)
	EnrichedHit(result *core.ChunkResult)
	DroppedHit(chunkId core.ID, err error)
	Finish(results []*core.ChunkResult)
}

// noopMonitor is a no-op implementation of RetrievalMonitor
type noopMonitor struct{}

var _ RetrievalMonitor = (*noopMonitor)(nil)

func (n *noopMonitor) Start(_ string)                           {}
func (n *noopMonitor) AfterVectorSearch(_ []*core.SimilarChunk) {}
func (n *noopMonitor) EnrichedHit(_ *core.ChunkResult)          {}
func (n *noopMonitor) DroppedHit(_ core.ID, _ error)            {}
func (n *noopMonitor) Finish(_ []*core.ChunkResult)             {}
