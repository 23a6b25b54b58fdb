package nlsql

import (
	"bufio"
	"bytes"
	"context"
	_ "embed"
	"encoding/json"
	"fmt"

	"nlquery-engine/internal/ai"
)

//go:embed intent_examples.jsonl
var intentExamplesRaw []byte

// IntentModel is a nearest-neighbour classifier over a small labeled corpus:
// the query embedding is compared against every example embedding and the
// best label wins when its similarity clears the confidence threshold.
// Below the threshold callers fall back to RuleIntent.
type IntentModel struct {
	embedder  ai.Embedder
	labels    []Intent
	vectors   [][]float32
	threshold float64
}

// NewIntentModel embeds the built-in example corpus up front.
func NewIntentModel(ctx context.Context, embedder ai.Embedder, threshold float64) (*IntentModel, error) {
	if threshold <= 0 {
		threshold = 0.55
	}

	var texts []string
	var labels []Intent
	scanner := bufio.NewScanner(bytes.NewReader(intentExamplesRaw))
	for scanner.Scan() {
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}
		var example struct {
			Text  string `json:"text"`
			Label string `json:"label"`
		}
		if err := json.Unmarshal(line, &example); err != nil {
			return nil, fmt.Errorf("parse intent example failed: %w", err)
		}
		texts = append(texts, example.Text)
		labels = append(labels, Intent(example.Label))
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read intent examples failed: %w", err)
	}

	vectors, err := embedder.EmbedBatch(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("embed intent examples failed: %w", err)
	}
	if len(vectors) != len(labels) {
		return nil, fmt.Errorf("intent corpus embedding mismatch: %d vectors for %d labels", len(vectors), len(labels))
	}

	return &IntentModel{
		embedder:  embedder,
		labels:    labels,
		vectors:   vectors,
		threshold: threshold,
	}, nil
}

// Predict returns the nearest label and its similarity. ok is false when the
// similarity is below the confidence threshold.
func (m *IntentModel) Predict(ctx context.Context, query string) (Intent, float64, bool, error) {
	vec, err := m.embedder.Embed(ctx, query)
	if err != nil {
		return "", 0, false, fmt.Errorf("embed intent query failed: %w", err)
	}

	best := -1
	bestScore := float64(-1)
	for i, v := range m.vectors {
		if score := float64(ai.Cosine(vec, v)); score > bestScore {
			best, bestScore = i, score
		}
	}
	if best < 0 {
		return "", 0, false, nil
	}
	return m.labels[best], bestScore, bestScore >= m.threshold, nil
}
