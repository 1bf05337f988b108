package pipeline

import (
	"context"
	"fmt"

	"github.com/poiesic/answerit/core"
)

// State identifies a stage of the answer pipeline.
type State string

const (
	// StateRoute classifies the question and picks a retrieval route.
	StateRoute State = "route"
	// StateVector runs plain vector retrieval.
	StateVector State = "vector"
	// StateHybrid runs vector retrieval with neighbor enrichment.
	StateHybrid State = "hybrid"
	// StateGenerate produces the answer from the accumulated context.
	StateGenerate State = "generate"
	// StateDone is the terminal state.
	StateDone State = "done"
)

// queryState carries one question through the pipeline states.
type queryState struct {
	question   string
	topK       int
	searchType core.SearchType
	context    []*core.ChunkResult
	answer     string
	steps      []string
}

// result snapshots the accumulated state as a query result. Source text is
// the same text the generator saw, so stored sources survive later chunk
// deletion.
func (qs *queryState) result() *core.QueryResult {
	sources := make([]core.Source, 0, len(qs.context))
	for _, hit := range qs.context {
		sources = append(sources, core.Source{
			Text:     contextText(hit),
			Score:    hit.Score,
			DocTitle: hit.DocTitle,
		})
	}

	return &core.QueryResult{
		Question:   qs.question,
		Answer:     qs.answer,
		Sources:    sources,
		SearchType: qs.searchType,
		Steps:      qs.steps,
	}
}

// stateHandler advances the query state and names the next state.
type stateHandler func(ctx context.Context, qs *queryState) (State, error)

// run drives the state machine from StateRoute to StateDone.
func (e *Engine) run(ctx context.Context, qs *queryState) error {
	state := StateRoute
	for state != StateDone {
		handler, ok := e.handlers[state]
		if !ok {
			return fmt.Errorf("no handler for state %q", state)
		}

		next, err := handler(ctx, qs)
		if err != nil {
			return err
		}
		state = next
	}
	return nil
}

func (e *Engine) handleRoute(_ context.Context, qs *queryState) (State, error) {
	qs.searchType = e.classifier.Classify(qs.question)
	if qs.searchType == core.SearchTypeVector {
		qs.steps = append(qs.steps, "route: vector search")
		return StateVector, nil
	}
	qs.steps = append(qs.steps, "route: hybrid search")
	return StateHybrid, nil
}

func (e *Engine) handleVector(ctx context.Context, qs *queryState) (State, error) {
	results, err := e.retriever.VectorSearch(ctx, qs.question, qs.topK)
	if err != nil {
		return StateDone, fmt.Errorf("%w: %w", ErrRetrievalFailed, err)
	}

	qs.context = append(qs.context, results...)
	qs.steps = append(qs.steps, fmt.Sprintf("vector search: %d results", len(results)))
	return StateGenerate, nil
}

func (e *Engine) handleHybrid(ctx context.Context, qs *queryState) (State, error) {
	results, err := e.retriever.HybridSearch(ctx, qs.question, qs.topK)
	if err != nil {
		return StateDone, fmt.Errorf("%w: %w", ErrRetrievalFailed, err)
	}

	qs.context = append(qs.context, results...)
	qs.steps = append(qs.steps, fmt.Sprintf("hybrid search: %d results", len(results)))
	return StateGenerate, nil
}

func (e *Engine) handleGenerate(ctx context.Context, qs *queryState) (State, error) {
	answer, err := e.generator.Generate(ctx, buildPrompt(qs.question, qs.context))
	if err != nil {
		return StateDone, fmt.Errorf("%w: %w", ErrGenerationFailed, err)
	}

	qs.answer = answer
	qs.steps = append(qs.steps, "answer generated")
	return StateDone, nil
}
