package vector

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFitAlignsRowsWithDocuments(t *testing.T) {
	docs := []string{"dune dune dune scifi scifi desert", "arrival arrival arrival scifi scifi alien", ""}
	idx := Fit(docs)

	require.Equal(t, 3, idx.Len())
	assert.Equal(t, 5, idx.VocabularySize())
	assert.Nil(t, idx.Row(2))
	assert.Nil(t, idx.Row(3))
	assert.Nil(t, idx.Row(-1))

	for i := 0; i < 2; i++ {
		var norm float64
		for _, e := range idx.Row(i) {
			norm += e.Weight * e.Weight
		}
		assert.InDelta(t, 1.0, norm, 1e-9, "row %d must be unit length", i)
	}
}

func TestSimilarityRanksMatchingDocumentFirst(t *testing.T) {
	idx := Fit([]string{
		"dune dune dune scifi scifi desert planet",
		"arrival arrival arrival scifi scifi alien language",
		"amelie amelie amelie romance romance paris",
	})

	sims := idx.Similarity("desert")
	require.Len(t, sims, 3)
	assert.Greater(t, sims[0], 0.0)
	assert.Equal(t, 0.0, sims[1])
	assert.Equal(t, 0.0, sims[2])

	sims = idx.Similarity("scifi")
	assert.Greater(t, sims[0], 0.0)
	assert.InDelta(t, sims[0], sims[1], 1e-12)
	assert.Equal(t, 0.0, sims[2])
}

func TestSimilarityOfIdenticalDocumentIsOne(t *testing.T) {
	docs := []string{"heist dream heist", "space travel"}
	idx := Fit(docs)
	sims := idx.Similarity(docs[0])
	assert.InDelta(t, 1.0, sims[0], 1e-9)
	assert.InDelta(t, 0.0, sims[1], 1e-12)
}

func TestUnknownTermsYieldZeroSimilarity(t *testing.T) {
	idx := Fit([]string{"dune desert", "arrival alien"})
	for _, s := range idx.Similarity("zzz unknown words") {
		assert.Equal(t, 0.0, s)
	}
	assert.Empty(t, idx.Transform("zzz"))
}

func TestFitDegenerateCorpus(t *testing.T) {
	idx := Fit([]string{"", "   ", "a b c"})
	assert.Equal(t, 0, idx.VocabularySize())
	sims := idx.Similarity("anything at all")
	require.Len(t, sims, 3)
	for _, s := range sims {
		assert.Equal(t, 0.0, s)
	}

	empty := Fit(nil)
	assert.Equal(t, 0, empty.Len())
	assert.Empty(t, empty.Similarity("dune"))
}

func TestSmoothedIDF(t *testing.T) {
	idx := Fit([]string{"common rare", "common"})
	common, ok := idx.Term("common")
	require.True(t, ok)
	rare, ok := idx.Term("rare")
	require.True(t, ok)

	assert.InDelta(t, 1.0, idx.idf[common], 1e-12)
	assert.InDelta(t, math.Log(3.0/2.0)+1, idx.idf[rare], 1e-12)
}

func TestTokenizeDropsSingleCharacters(t *testing.T) {
	assert.Equal(t, []string{"ab", "cde"}, Tokenize("a ab  cde x"))
}

func TestTermsFollowDimensions(t *testing.T) {
	idx := Fit([]string{"dune desert", "arrival desert"})

	terms := idx.Terms()
	require.Len(t, terms, idx.VocabularySize())
	for i, tok := range terms {
		dim, ok := idx.Term(tok)
		require.True(t, ok)
		assert.Equal(t, i, dim)
	}

	desert, _ := idx.Term("desert")
	dune, _ := idx.Term("dune")
	assert.InDelta(t, 1.0, idx.IDF(desert), 1e-12)
	assert.InDelta(t, math.Log(3.0/2.0)+1, idx.IDF(dune), 1e-12)
	assert.Equal(t, 0.0, idx.IDF(-1))
	assert.Equal(t, 0.0, idx.IDF(len(terms)))
}
