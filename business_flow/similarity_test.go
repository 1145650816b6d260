package businessflow

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCosineSimilarity(t *testing.T) {
	tests := []struct {
		name        string
		a           []float64
		b           []float64
		expected    float64
		expectedErr error
	}{
		{
			name:     "identical vectors",
			a:        []float64{1, 2, 3},
			b:        []float64{1, 2, 3},
			expected: 1,
		},
		{
			name:     "orthogonal vectors",
			a:        []float64{1, 0},
			b:        []float64{0, 1},
			expected: 0,
		},
		{
			name:     "opposite vectors",
			a:        []float64{1, 2, 3},
			b:        []float64{-1, -2, -3},
			expected: -1,
		},
		{
			name:     "scaled vectors keep similarity",
			a:        []float64{1, 1},
			b:        []float64{10, 10},
			expected: 1,
		},
		{
			name:        "dimension mismatch",
			a:           []float64{1, 2},
			b:           []float64{1, 2, 3},
			expectedErr: ErrDimensionMismatch,
		},
		{
			name:        "zero vector",
			a:           []float64{0, 0, 0},
			b:           []float64{1, 2, 3},
			expectedErr: ErrZeroVector,
		},
		{
			name:        "empty vector",
			a:           nil,
			b:           []float64{1, 2, 3},
			expectedErr: ErrEmptyVector,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sim, err := CosineSimilarity(tt.a, tt.b)
			if tt.expectedErr != nil {
				require.ErrorIs(t, err, tt.expectedErr)
				return
			}
			require.NoError(t, err)
			assert.InDelta(t, tt.expected, sim, 1e-9)
		})
	}
}

func TestSimilarityScore(t *testing.T) {
	assert.InDelta(t, 100.0, SimilarityScore(1), 1e-9)
	assert.InDelta(t, 50.0, SimilarityScore(0), 1e-9)
	assert.InDelta(t, 0.0, SimilarityScore(-1), 1e-9)

	// Out-of-range cosines clamp instead of escaping the score bounds
	assert.Equal(t, 100.0, SimilarityScore(1.5))
	assert.Equal(t, 0.0, SimilarityScore(-1.5))
}

func TestAxisScore(t *testing.T) {
	t.Run("missing embedding falls back to neutral", func(t *testing.T) {
		score, neutral, err := AxisScore(nil, []float64{1, 2}, 50)
		require.NoError(t, err)
		assert.True(t, neutral)
		assert.Equal(t, 50.0, score)
	})

	t.Run("zero vector falls back to neutral", func(t *testing.T) {
		score, neutral, err := AxisScore([]float64{0, 0}, []float64{1, 2}, 50)
		require.NoError(t, err)
		assert.True(t, neutral)
		assert.Equal(t, 50.0, score)
	})

	t.Run("dimension mismatch fails the pair", func(t *testing.T) {
		_, _, err := AxisScore([]float64{1}, []float64{1, 2}, 50)
		require.ErrorIs(t, err, ErrDimensionMismatch)
	})

	t.Run("identical embeddings score 100", func(t *testing.T) {
		score, neutral, err := AxisScore([]float64{1, 2, 3}, []float64{1, 2, 3}, 50)
		require.NoError(t, err)
		assert.False(t, neutral)
		assert.InDelta(t, 100.0, score, 1e-9)
	})
}

func TestVectorIndexTopK(t *testing.T) {
	ids := []uint{1, 2, 3, 4}
	vectors := [][]float64{
		{1, 0},  // orthogonal to query
		{0, 1},  // identical direction
		{0, 2},  // identical direction, higher ID
		{0, -1}, // opposite
	}

	index := NewVectorIndex(ids, vectors)
	require.Equal(t, 4, index.Len())

	hits, err := index.TopK([]float64{0, 1}, 3)
	require.NoError(t, err)
	require.Len(t, hits, 3)

	// Similarity descending, podcast ID breaking the tie between 2 and 3
	assert.Equal(t, uint(2), hits[0].PodcastID)
	assert.Equal(t, uint(3), hits[1].PodcastID)
	assert.Equal(t, uint(1), hits[2].PodcastID)
	assert.InDelta(t, 1.0, hits[0].Similarity, 1e-9)
	assert.InDelta(t, 1.0, hits[1].Similarity, 1e-9)
	assert.InDelta(t, 0.0, hits[2].Similarity, 1e-9)
}

func TestVectorIndexSkipsDegenerateEntries(t *testing.T) {
	ids := []uint{1, 2, 3, 4}
	vectors := [][]float64{
		{1, 2},
		nil,       // empty
		{0, 0},    // zero magnitude
		{1, 2, 3}, // wrong dimensionality
	}

	index := NewVectorIndex(ids, vectors)
	assert.Equal(t, 1, index.Len())

	hits, err := index.TopK([]float64{1, 2}, 10)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, uint(1), hits[0].PodcastID)
}

func TestVectorIndexQueryValidation(t *testing.T) {
	index := NewVectorIndex([]uint{1}, [][]float64{{1, 2}})

	_, err := index.TopK(nil, 5)
	assert.ErrorIs(t, err, ErrEmptyVector)

	_, err = index.TopK([]float64{1, 2, 3}, 5)
	assert.ErrorIs(t, err, ErrDimensionMismatch)

	_, err = index.TopK([]float64{0, 0}, 5)
	assert.ErrorIs(t, err, ErrZeroVector)
}
