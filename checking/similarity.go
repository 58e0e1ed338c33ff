package checking

import (
	"errors"
	"fmt"
	"math"
)

var (
	ErrDimensionMismatch = errors.New("embedding vectors have different dimensions")
	ErrHashSetMismatch   = errors.New("image hashes were not produced by the same algorithm set")
)

// EmbeddingSimilarity is the cosine similarity of two embedding vectors,
// in [-1, 1]. A zero-norm input yields 0 rather than dividing by zero.
func EmbeddingSimilarity(a, b []float64) (float64, error) {
	if len(a) != len(b) {
		return 0, fmt.Errorf("%w: %d vs %d", ErrDimensionMismatch, len(a), len(b))
	}

	var dot, normA, normB float64
	for i := range a {
		dot += a[i] * b[i]
		normA += a[i] * a[i]
		normB += b[i] * b[i]
	}
	if normA == 0 || normB == 0 {
		return 0, nil
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB)), nil
}

// HashDistances compares two perceptual hash sets slot by slot and returns
// the fixed-length feature vector consumed by the same-image classifier:
// one normalized Hamming distance per hash algorithm.
func HashDistances(a, b *ImageHashes) ([]float64, error) {
	if a == nil || b == nil {
		return nil, fmt.Errorf("%w: missing hash set", ErrHashSetMismatch)
	}

	pairs := [][2]string{
		{a.AverageHash, b.AverageHash},
		{a.PerceptualHash, b.PerceptualHash},
		{a.DifferenceHash, b.DifferenceHash},
		{a.ColorHash, b.ColorHash},
	}

	distances := make([]float64, 0, len(pairs))
	for _, pair := range pairs {
		distance, err := normalizedHammingDistance(pair[0], pair[1])
		if err != nil {
			return nil, err
		}
		distances = append(distances, distance)
	}
	return distances, nil
}

func normalizedHammingDistance(a, b string) (float64, error) {
	if len(a) != len(b) || len(a) == 0 {
		return 0, fmt.Errorf("%w: fingerprints %q and %q", ErrHashSetMismatch, a, b)
	}

	bitsA, err := hexBits(a)
	if err != nil {
		return 0, err
	}
	bitsB, err := hexBits(b)
	if err != nil {
		return 0, err
	}

	differing := 0
	for i := range bitsA {
		diff := bitsA[i] ^ bitsB[i]
		for diff != 0 {
			differing += int(diff & 1)
			diff >>= 1
		}
	}
	return float64(differing) / float64(len(bitsA)*4), nil
}

func hexBits(s string) ([]byte, error) {
	nibbles := make([]byte, len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c >= '0' && c <= '9':
			nibbles[i] = c - '0'
		case c >= 'a' && c <= 'f':
			nibbles[i] = c - 'a' + 10
		case c >= 'A' && c <= 'F':
			nibbles[i] = c - 'A' + 10
		default:
			return nil, fmt.Errorf("%w: non-hex fingerprint %q", ErrHashSetMismatch, s)
		}
	}
	return nibbles, nil
}
