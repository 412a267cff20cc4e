package repository

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/user/moovie/internal/vector"
)

func TestSparseFromEntries(t *testing.T) {
	v := SparseFromEntries([]vector.Entry{{Term: 2, Weight: 0.25}, {Term: 0, Weight: 0.5}}, 4)

	assert.Equal(t, int32(4), v.Dimensions())
	assert.Equal(t, []int32{0, 2}, v.Indices())
	assert.Equal(t, []float32{0.5, 0.25}, v.Values())
	// 文本格式的下标从 1 开始
	assert.Equal(t, "{1:0.5,3:0.25}/4", v.String())

	empty := SparseFromEntries(nil, 4)
	assert.Empty(t, empty.Indices())
	assert.Equal(t, "{}/4", empty.String())
}

func TestSnapshotRowsSkipsEmptyDocuments(t *testing.T) {
	idx := vector.Fit([]string{"dune desert spice", "", "arrival alien desert"})
	vocab, vectors := snapshotRows([]string{"tt1", "tt2", "tt3"}, idx)

	require.Len(t, vocab, idx.VocabularySize())
	for i, term := range vocab {
		assert.Equal(t, int32(i), term.Dim)
		got, ok := idx.Term(term.Term)
		require.True(t, ok)
		assert.Equal(t, i, got)
		assert.Greater(t, term.IDF, 0.0)
	}

	require.Len(t, vectors, 2)
	assert.Equal(t, "tt1", vectors[0].MovieID)
	assert.Equal(t, "tt3", vectors[1].MovieID)

	// 行向量已 L2 归一化
	var norm float64
	for _, w := range vectors[0].Embedding.Values() {
		norm += float64(w) * float64(w)
	}
	assert.InDelta(t, 1.0, math.Sqrt(norm), 1e-6)
	assert.Equal(t, int32(idx.VocabularySize()), vectors[1].Embedding.Dimensions())
}

func TestReplaceSnapshotRejectsMismatchedIDs(t *testing.T) {
	idx := vector.Fit([]string{"dune", "arrival"})
	r := &VectorRepository{}
	err := r.ReplaceSnapshot([]string{"tt1"}, idx)
	assert.Error(t, err)
}
