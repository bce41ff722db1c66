package project

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()

	s, err := Open(filepath.Join(t.TempDir(), "projects.bolt"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestStore_SaveEmptyIsNoOp(t *testing.T) {
	s := openTestStore(t)

	require.NoError(t, s.Save(SavedProject{ID: "1700000000000"}))

	_, err := s.Get("1700000000000")
	assert.ErrorIs(t, err, ErrNotFound)

	list, err := s.List()
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestStore_SaveRequiresID(t *testing.T) {
	s := openTestStore(t)

	err := s.Save(SavedProject{Generations: []Generation{{ImageURL: "a"}}})
	require.Error(t, err)
}

func TestStore_SaveGetRoundtrip(t *testing.T) {
	s := openTestStore(t)

	p := New("1700000000001", []Generation{
		{ImageURL: "data:image/png;base64,one", Description: "first"},
		{ImageURL: "data:image/png;base64,two", Description: "second"},
	})
	require.NoError(t, s.Save(p))

	got, err := s.Get(p.ID)
	require.NoError(t, err)

	assert.Equal(t, p.ID, got.ID)
	assert.Equal(t, p.Generations, got.Generations)
	assert.Equal(t, p.Timestamp, got.Timestamp)
	assert.Equal(t, "data:image/png;base64,one", got.PreviewImage)
	assert.WithinDuration(t, p.CreatedAt, got.CreatedAt, time.Second)
}

func TestStore_SaveRefreshesPreview(t *testing.T) {
	s := openTestStore(t)

	p := New("1700000000002", []Generation{{ImageURL: "old", Description: "d"}})
	require.NoError(t, s.Save(p))

	p.Generations[0].ImageURL = "new"
	require.NoError(t, s.Save(p))

	got, err := s.Get(p.ID)
	require.NoError(t, err)
	assert.Equal(t, "new", got.PreviewImage)
}

func TestStore_SaveOverwritesNotMerges(t *testing.T) {
	s := openTestStore(t)

	id := "1700000000003"
	require.NoError(t, s.Save(New(id, []Generation{{ImageURL: "a"}, {ImageURL: "b"}})))
	require.NoError(t, s.Save(New(id, []Generation{{ImageURL: "c"}})))

	got, err := s.Get(id)
	require.NoError(t, err)
	require.Len(t, got.Generations, 1)
	assert.Equal(t, "c", got.Generations[0].ImageURL)
}

func TestStore_ListNewestFirst(t *testing.T) {
	s := openTestStore(t)

	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	for i, id := range []string{"100", "200", "300"} {
		p := SavedProject{
			ID:          id,
			Generations: []Generation{{ImageURL: "img-" + id}},
			CreatedAt:   base.Add(time.Duration(i) * time.Minute),
		}
		require.NoError(t, s.Save(p))
	}

	list, err := s.List()
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, "300", list[0].ID)
	assert.Equal(t, "200", list[1].ID)
	assert.Equal(t, "100", list[2].ID)
}

func TestStore_DeleteExactEntry(t *testing.T) {
	s := openTestStore(t)

	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	for i, id := range []string{"100", "200", "300"} {
		require.NoError(t, s.Save(SavedProject{
			ID:          id,
			Generations: []Generation{{ImageURL: "img"}},
			CreatedAt:   base.Add(time.Duration(i) * time.Minute),
		}))
	}

	require.NoError(t, s.Delete("200"))

	list, err := s.List()
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "300", list[0].ID)
	assert.Equal(t, "100", list[1].ID)

	assert.ErrorIs(t, s.Delete("200"), ErrNotFound)
	assert.ErrorIs(t, s.Delete("does-not-exist"), ErrNotFound)
}

func TestStore_AppendCreatesAndExtends(t *testing.T) {
	s := openTestStore(t)

	id := "1700000000004"
	p, err := s.Append(id, Generation{ImageURL: "one", Description: "first"})
	require.NoError(t, err)
	require.Len(t, p.Generations, 1)
	assert.Equal(t, "one", p.PreviewImage)

	p, err = s.Append(id, Generation{ImageURL: "two", Description: "second"})
	require.NoError(t, err)
	require.Len(t, p.Generations, 2)
	assert.Equal(t, "one", p.PreviewImage)

	got, err := s.Get(id)
	require.NoError(t, err)
	assert.Equal(t, p.Generations, got.Generations)
}

func TestStore_ReplaceLastImage(t *testing.T) {
	s := openTestStore(t)

	id := "1700000000005"
	require.NoError(t, s.Save(New(id, []Generation{
		{ImageURL: "first-img", Description: "first"},
		{ImageURL: "last-img", Description: "last"},
	})))

	p, err := s.ReplaceLastImage(id, "edited-img")
	require.NoError(t, err)

	// only the last generation's image changes
	require.Len(t, p.Generations, 2)
	assert.Equal(t, "first-img", p.Generations[0].ImageURL)
	assert.Equal(t, "first", p.Generations[0].Description)
	assert.Equal(t, "edited-img", p.Generations[1].ImageURL)
	assert.Equal(t, "last", p.Generations[1].Description)
	assert.Equal(t, "first-img", p.PreviewImage)

	got, err := s.Get(id)
	require.NoError(t, err)
	assert.Equal(t, p.Generations, got.Generations)
}

func TestStore_ReplaceLastImageSingleGenerationRefreshesPreview(t *testing.T) {
	s := openTestStore(t)

	id := "1700000000006"
	require.NoError(t, s.Save(New(id, []Generation{{ImageURL: "orig", Description: "d"}})))

	p, err := s.ReplaceLastImage(id, "edited")
	require.NoError(t, err)
	assert.Equal(t, "edited", p.PreviewImage)
}

func TestStore_ReplaceLastImageMissingProject(t *testing.T) {
	s := openTestStore(t)

	_, err := s.ReplaceLastImage("missing", "img")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestNew(t *testing.T) {
	gens := []Generation{{ImageURL: "a", Description: "d"}}
	p := New("123", gens)

	assert.Equal(t, "123", p.ID)
	assert.Equal(t, "a", p.PreviewImage)
	assert.NotEmpty(t, p.Timestamp)
	assert.WithinDuration(t, time.Now(), p.CreatedAt, time.Second)
}
