package businessflow

import (
	"math"
	"sort"

	"github.com/podmatch/podmatch/utils"
)

// CosineSimilarity returns the cosine of the angle between two embeddings,
// in [-1, 1]. Both vectors must be non-empty, of equal length and of
// non-zero magnitude.
func CosineSimilarity(a, b []float64) (float64, error) {
	if len(a) == 0 || len(b) == 0 {
		return 0, ErrEmptyVector
	}
	if len(a) != len(b) {
		return 0, ErrDimensionMismatch
	}

	var dot, normA, normB float64
	for i := range a {
		dot += a[i] * b[i]
		normA += a[i] * a[i]
		normB += b[i] * b[i]
	}

	if normA == 0 || normB == 0 {
		return 0, ErrZeroVector
	}

	sim := dot / (math.Sqrt(normA) * math.Sqrt(normB))

	// Guard against float drift pushing the cosine out of range
	if sim > 1 {
		sim = 1
	} else if sim < -1 {
		sim = -1
	}

	return sim, nil
}

// SimilarityScore normalizes a cosine similarity to [0,100].
// Identical vectors score 100, orthogonal 50, opposite 0.
func SimilarityScore(similarity float64) float64 {
	return utils.ClampScore((similarity + 1) / 2 * 100)
}

// AxisScore computes the [0,100] similarity score for one embedding pair.
// Missing or degenerate input falls back to the neutral score; neutral
// reports whether the fallback was taken so confidence can account for it.
func AxisScore(a, b []float64, neutralScore float64) (score float64, neutral bool, err error) {
	if len(a) == 0 || len(b) == 0 {
		return neutralScore, true, nil
	}

	sim, err := CosineSimilarity(a, b)
	if err != nil {
		if IsZeroVector(err) {
			return neutralScore, true, nil
		}
		// Dimension mismatch means a malformed embedding, not sparse data.
		// The pair fails rather than scoring neutral.
		return 0, false, err
	}

	return SimilarityScore(sim), false, nil
}

// CandidateHit is one result of a top-K index query
type CandidateHit struct {
	PodcastID  uint
	Similarity float64
}

type indexEntry struct {
	podcastID uint
	vector    []float64
	norm      float64
}

// VectorIndex is an in-memory index over podcast embeddings used for
// candidate retrieval. It is immutable after construction and safe for
// concurrent queries.
type VectorIndex struct {
	entries []indexEntry
	dim     int
}

// NewVectorIndex builds an index from (podcastID, embedding) pairs.
// Entries with empty or zero-magnitude vectors are skipped; entries whose
// dimensionality disagrees with the first accepted entry are skipped too,
// since they could never produce a valid similarity.
func NewVectorIndex(ids []uint, vectors [][]float64) *VectorIndex {
	idx := &VectorIndex{}

	for i, id := range ids {
		if i >= len(vectors) {
			break
		}
		v := vectors[i]
		if len(v) == 0 {
			continue
		}
		if idx.dim == 0 {
			idx.dim = len(v)
		}
		if len(v) != idx.dim {
			continue
		}

		var norm float64
		for _, x := range v {
			norm += x * x
		}
		if norm == 0 {
			continue
		}

		idx.entries = append(idx.entries, indexEntry{
			podcastID: id,
			vector:    v,
			norm:      math.Sqrt(norm),
		})
	}

	return idx
}

// Len returns the number of indexed embeddings
func (idx *VectorIndex) Len() int {
	return len(idx.entries)
}

// TopK returns the k indexed podcasts most similar to the query embedding,
// ordered by similarity descending with podcast ID breaking ties. The query
// must match the index dimensionality and have non-zero magnitude.
func (idx *VectorIndex) TopK(query []float64, k int) ([]CandidateHit, error) {
	if len(query) == 0 {
		return nil, ErrEmptyVector
	}
	if idx.dim != 0 && len(query) != idx.dim {
		return nil, ErrDimensionMismatch
	}

	var queryNorm float64
	for _, x := range query {
		queryNorm += x * x
	}
	if queryNorm == 0 {
		return nil, ErrZeroVector
	}
	queryNorm = math.Sqrt(queryNorm)

	hits := make([]CandidateHit, 0, len(idx.entries))
	for _, e := range idx.entries {
		var dot float64
		for i, x := range e.vector {
			dot += x * query[i]
		}
		hits = append(hits, CandidateHit{
			PodcastID:  e.podcastID,
			Similarity: dot / (e.norm * queryNorm),
		})
	}

	sort.Slice(hits, func(i, j int) bool {
		if hits[i].Similarity != hits[j].Similarity {
			return hits[i].Similarity > hits[j].Similarity
		}
		return hits[i].PodcastID < hits[j].PodcastID
	})

	if k > 0 && len(hits) > k {
		hits = hits[:k]
	}

	return hits, nil
}
