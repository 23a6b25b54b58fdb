package ai

import (
	"context"
	"hash/fnv"
	"strings"
	"unicode"
)

// LocalEmbedder is a deterministic feature-hashing embedder: lowercase word
// tokens are hashed into a fixed-dimension vector with a hash-derived sign,
// then l2-normalized. It needs no model files or network access, so it serves
// as the default backend and keeps tests hermetic. Similarity degrades to
// token overlap, which is enough for keyword-heavy employee queries.
type LocalEmbedder struct {
	dim int
}

const defaultLocalDim = 256

func NewLocalEmbedder(dim int) *LocalEmbedder {
	if dim <= 0 {
		dim = defaultLocalDim
	}
	return &LocalEmbedder{dim: dim}
}

func (e *LocalEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	return e.encode(text), nil
}

func (e *LocalEmbedder) EmbedBatch(_ context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, t := range texts {
		out[i] = e.encode(t)
	}
	return out, nil
}

func (e *LocalEmbedder) encode(text string) []float32 {
	vec := make([]float32, e.dim)
	for _, tok := range tokenize(text) {
		h := fnv.New32a()
		_, _ = h.Write([]byte(tok))
		sum := h.Sum32()
		idx := int(sum % uint32(e.dim))
		sign := float32(1)
		if sum&0x80000000 != 0 {
			sign = -1
		}
		vec[idx] += sign
	}
	return Normalize(vec)
}

func tokenize(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}
