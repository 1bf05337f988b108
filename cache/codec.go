package cache

import (
	"encoding/json"
	"fmt"

	"github.com/poiesic/answerit/core"
)

// answerPayload is the persisted answer+metadata record. Field names are
// part of the stored format; changing them orphans existing cache entries.
type answerPayload struct {
	Answer     string          `json:"answer"`
	Sources    []core.Source   `json:"sources"`
	SearchType core.SearchType `json:"search_type"`
	Steps      []string        `json:"processing_steps"`
	Timestamp  float64         `json:"timestamp"`
}

// encodeAnswerPayload serializes the answer portion of a query result
// together with its insertion timestamp.
func encodeAnswerPayload(result *core.QueryResult, timestamp float64) ([]byte, error) {
	data, err := json.Marshal(answerPayload{
		Answer:     result.Answer,
		Sources:    result.Sources,
		SearchType: result.SearchType,
		Steps:      result.Steps,
		Timestamp:  timestamp,
	})
	if err != nil {
		return nil, fmt.Errorf("encode answer payload: %w", err)
	}
	return data, nil
}

// decodeAnswerPayload deserializes a stored answer record.
func decodeAnswerPayload(data []byte) (*answerPayload, error) {
	var payload answerPayload
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, fmt.Errorf("decode answer payload: %w", err)
	}
	return &payload, nil
}
