package graph

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
)

// ErrEmptyPayload is returned when the input holds no JSON document.
var ErrEmptyPayload = errors.New("graph: empty payload")

// envelope covers the response shapes the execution API wraps graphs in:
//
//	{"data": {...graph...}}
//	{"data": {"executionGraph": {...graph...}}}
//	{"data": {"orchestrationGraph": {...graph...}}}
type envelope struct {
	Data json.RawMessage `json:"data"`
}

type executionEnvelope struct {
	ExecutionGraph     json.RawMessage `json:"executionGraph"`
	OrchestrationGraph json.RawMessage `json:"orchestrationGraph"`
}

// Decode parses a graph document, unwrapping API envelopes when present.
func Decode(data []byte) (*OrchestrationGraph, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil, ErrEmptyPayload
	}
	body := unwrap(data)
	var g OrchestrationGraph
	if err := json.Unmarshal(body, &g); err != nil {
		return nil, fmt.Errorf("decode orchestration graph: %w", err)
	}
	return &g, nil
}

// DecodeReader reads r fully and decodes it with Decode.
func DecodeReader(r io.Reader) (*OrchestrationGraph, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read orchestration graph: %w", err)
	}
	return Decode(data)
}

func unwrap(data []byte) []byte {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil || len(env.Data) == 0 || bytes.Equal(env.Data, []byte("null")) {
		return data
	}
	var inner executionEnvelope
	if err := json.Unmarshal(env.Data, &inner); err == nil {
		switch {
		case len(inner.OrchestrationGraph) > 0:
			return inner.OrchestrationGraph
		case len(inner.ExecutionGraph) > 0:
			return inner.ExecutionGraph
		}
	}
	return env.Data
}
