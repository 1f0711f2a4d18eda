package storage

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	scanerr "pptKeywordDetector/internal/errors"
	"pptKeywordDetector/internal/model"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(DefaultOptions(filepath.Join(t.TempDir(), "db", "history.db")))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestOpen_EmptyPath(t *testing.T) {
	_, err := Open(Options{})
	assert.Error(t, err)
}

func TestRecordRunAndList(t *testing.T) {
	store := openTestStore(t)
	base := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)

	results := []model.FileResult{
		model.Succeeded("/d/a.pptx", []model.Match{
			{Location: "1", Keywords: []string{"acme"}, Count: 2, Excerpt: "acme acme"},
			{Location: "Master Group 1, Layout 1", Keywords: []string{"acme"}, Count: 1, IsMaster: true},
		}, []string{"master/layout scan incomplete"}),
		model.Failed("/d/b.pptx", "file is not a zip package"),
	}

	id1, err := store.RecordRun(Run{
		StartedAt:  base,
		FinishedAt: base.Add(time.Second),
		Host:       "host-1",
		Directory:  "/d",
		Keywords:   []string{"acme", "旧社名"},
		Recursive:  true,
		Results:    results,
		Digests:    map[string]string{"/d/a.pptx": "abc123"},
	})
	require.NoError(t, err)

	id2, err := store.RecordRun(Run{StartedAt: base.Add(time.Hour), Directory: "/e"})
	require.NoError(t, err)
	assert.NotEqual(t, id1, id2)

	runs, err := store.ListRuns(0)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, "/e", runs[0].Directory, "newest first")

	first := runs[1]
	assert.Equal(t, "host-1", first.Host)
	assert.Equal(t, []string{"acme", "旧社名"}, first.KeywordList())
	assert.Equal(t, 2, first.TotalFiles)
	assert.Equal(t, 1, first.FilesWithMatches)
	assert.Equal(t, 1, first.FailedFiles)
	assert.Equal(t, 2, first.TotalMatches)

	limited, err := store.ListRuns(1)
	require.NoError(t, err)
	assert.Len(t, limited, 1)

	files, err := store.Files(id1)
	require.NoError(t, err)
	require.Len(t, files, 2)

	assert.Equal(t, "/d/a.pptx", files[0].Path)
	assert.Equal(t, "abc123", files[0].SM3)
	assert.Equal(t, 2, files[0].Detections)
	assert.Equal(t, 3, files[0].Occurrences)
	assert.Equal(t, "master/layout scan incomplete", files[0].Warnings)

	matches, err := files[0].MatchList()
	require.NoError(t, err)
	require.Len(t, matches, 2)
	assert.True(t, matches[1].IsMaster)
	assert.Equal(t, "acme acme", matches[0].Excerpt)

	assert.False(t, files[1].Success)
	assert.Empty(t, files[1].SM3)
	assert.Equal(t, 0, files[1].Detections)

	empty, err := store.Files(id2)
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestRunAndResult(t *testing.T) {
	store := openTestStore(t)

	results := []model.FileResult{
		model.Succeeded("/d/a.pptx", []model.Match{
			{Location: "Master Group 1, Layout 1", LayoutName: "Title Slide", ShapeName: "Title 1",
				Part: "ppt/slideLayouts/slideLayout1.xml", Keywords: []string{"acme"}, Count: 1, IsMaster: true},
		}, []string{"w1", "w2"}),
		model.Failed("/d/b.pptx", "file is empty"),
	}
	id, err := store.RecordRun(Run{StartedAt: time.Now(), Directory: "/d", Keywords: []string{"acme"}, Results: results})
	require.NoError(t, err)

	rec, err := store.RunByID(id)
	require.NoError(t, err)
	assert.Equal(t, "/d", rec.Directory)
	assert.Equal(t, []string{"acme"}, rec.KeywordList())

	_, err = store.RunByID(id + 100)
	assert.True(t, scanerr.HasCode(err, scanerr.ErrRecordNotFound), "err = %v", err)

	files, err := store.Files(id)
	require.NoError(t, err)
	require.Len(t, files, 2)

	got, err := files[0].Result()
	require.NoError(t, err)
	assert.Equal(t, results[0], got)

	got, err = files[1].Result()
	require.NoError(t, err)
	assert.Equal(t, results[1], got)
}

func TestOpen_Reopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.db")

	store, err := Open(DefaultOptions(path))
	require.NoError(t, err)
	_, err = store.RecordRun(Run{StartedAt: time.Now(), Directory: "/x"})
	require.NoError(t, err)
	require.NoError(t, store.Close())

	store, err = Open(DefaultOptions(path))
	require.NoError(t, err)
	defer store.Close()

	runs, err := store.ListRuns(10)
	require.NoError(t, err)
	assert.Len(t, runs, 1)
	assert.Equal(t, path, store.Path())
}
