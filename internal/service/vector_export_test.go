package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/user/moovie/internal/model"
	"github.com/user/moovie/internal/search"
	"github.com/user/moovie/internal/vector"
)

type recordingVectorStore struct {
	ids []string
	idx *vector.Index
	err error
}

func (s *recordingVectorStore) ReplaceSnapshot(ids []string, idx *vector.Index) error {
	s.ids = ids
	s.idx = idx
	return s.err
}

func TestExportVectorsWritesCurrentSnapshot(t *testing.T) {
	engine := search.NewEngine(search.DefaultOptions())
	store := &recordingVectorStore{}
	assert.ErrorIs(t, ExportVectors(engine, store), search.ErrCorpusUnavailable)

	require.NoError(t, engine.Build(context.Background(), []model.Movie{
		{ID: "tt1", Title: "Dune"},
		{ID: "tt2", Title: "Arrival"},
	}))
	require.NoError(t, ExportVectors(engine, store))
	assert.Equal(t, []string{"tt1", "tt2"}, store.ids)
	require.NotNil(t, store.idx)
	assert.Equal(t, 2, store.idx.Len())
	assert.Equal(t, engine.Stats().Vocabulary, store.idx.VocabularySize())

	store.err = errors.New("db down")
	assert.Error(t, ExportVectors(engine, store))
}

func TestRefreshExportsVectorsOnSwap(t *testing.T) {
	dir := t.TempDir()
	writeCorpusFile(t, dir, "movies_out_1.jsonl", []model.Movie{{ID: "tt1", Title: "Dune"}})

	engine := search.NewEngine(search.DefaultOptions())
	store := &recordingVectorStore{}
	svc := NewRefreshService(engine, dir, "movies_out_*.jsonl", nil)
	svc.OnSwap(func() { require.NoError(t, ExportVectors(engine, store)) })

	_, err := svc.Refresh(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"tt1"}, store.ids)
}
