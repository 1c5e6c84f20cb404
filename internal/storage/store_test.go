package storage

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"tubevault/internal/model"
	"tubevault/pkg/logger"
)

func init() {
	logger.InitNop()
}

func newTestStore(t *testing.T) *Store {
	t.Helper()
	root := t.TempDir()
	store, err := Open(&model.LibraryConfig{
		RootDir: root,
		TempDir: filepath.Join(root, ".tmp"),
	})
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

// seedArtifact records an artifact and drops a matching file into the pool
func seedArtifact(t *testing.T, s *Store, id, filename string) *model.Artifact {
	t.Helper()
	path := filepath.Join(s.RootDir(), filename)
	if err := os.WriteFile(path, []byte("media"), 0644); err != nil {
		t.Fatalf("write artifact file: %v", err)
	}
	a := &model.Artifact{
		ID:       id,
		VideoID:  id,
		Filename: filename,
		Title:    "Title " + id,
		Size:     5,
	}
	if err := s.RecordDownload(context.Background(), a); err != nil {
		t.Fatalf("RecordDownload failed: %v", err)
	}
	return a
}

func TestRecordAndListDownloads(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	seedArtifact(t, s, "abc123", "abc123_one.mp3")
	seedArtifact(t, s, "def456", "def456_two.mp4")

	list, err := s.ListDownloads(ctx)
	if err != nil {
		t.Fatalf("ListDownloads failed: %v", err)
	}
	if len(list) != 2 {
		t.Fatalf("expected 2 records, got %d", len(list))
	}
}

func TestRecordDownloadDoesNotDedupeByVideoID(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	seedArtifact(t, s, "run1", "abc123_take1.mp4")
	seedArtifact(t, s, "run2", "abc123_take2.mp4")

	list, err := s.ListDownloads(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 2 {
		t.Fatalf("redownload should produce a second entry, got %d", len(list))
	}
}

func TestCreateCollectionAlreadyExists(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if err := s.CreateCollection(ctx, "mix"); err != nil {
		t.Fatalf("CreateCollection failed: %v", err)
	}
	if err := s.CreateCollection(ctx, "mix"); !errors.Is(err, ErrAlreadyExists) {
		t.Fatalf("expected ErrAlreadyExists, got %v", err)
	}
	if _, err := os.Stat(filepath.Join(s.RootDir(), "mix")); err != nil {
		t.Errorf("collection dir missing: %v", err)
	}
}

func TestMoveRoundTripRestoresMembership(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	a := seedArtifact(t, s, "abc123", "abc123_song.mp3")
	if err := s.CreateCollection(ctx, "mix"); err != nil {
		t.Fatal(err)
	}

	if err := s.MoveToCollection(ctx, "mix", &model.MoveVideoRequest{Filename: a.Filename}); err != nil {
		t.Fatalf("MoveToCollection failed: %v", err)
	}
	if _, err := os.Stat(filepath.Join(s.RootDir(), "mix", a.Filename)); err != nil {
		t.Fatalf("file not in collection dir: %v", err)
	}
	if _, err := os.Stat(filepath.Join(s.RootDir(), a.Filename)); !os.IsNotExist(err) {
		t.Error("file still present in pool after move")
	}

	members, err := s.ListCollection(ctx, "mix")
	if err != nil || len(members) != 1 {
		t.Fatalf("collection members = %v, err = %v", members, err)
	}

	if err := s.RemoveFromCollection(ctx, "mix", a.Filename); err != nil {
		t.Fatalf("RemoveFromCollection failed: %v", err)
	}
	if _, err := os.Stat(filepath.Join(s.RootDir(), a.Filename)); err != nil {
		t.Fatalf("file not back in pool: %v", err)
	}

	members, err = s.ListCollection(ctx, "mix")
	if err != nil {
		t.Fatal(err)
	}
	if len(members) != 0 {
		t.Errorf("collection should be empty after round trip, got %v", members)
	}

	list, err := s.ListDownloads(ctx)
	if err != nil || len(list) != 1 {
		t.Fatalf("history changed size during round trip: %v", list)
	}
	if list[0].Collection != "" {
		t.Errorf("artifact still claims collection %q", list[0].Collection)
	}
}

func TestMoveBetweenCollectionsIsExclusive(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	a := seedArtifact(t, s, "abc123", "abc123_song.mp3")
	for _, name := range []string{"first", "second"} {
		if err := s.CreateCollection(ctx, name); err != nil {
			t.Fatal(err)
		}
	}

	if err := s.MoveToCollection(ctx, "first", &model.MoveVideoRequest{Filename: a.Filename}); err != nil {
		t.Fatal(err)
	}
	if err := s.MoveToCollection(ctx, "second", &model.MoveVideoRequest{Filename: a.Filename}); err != nil {
		t.Fatal(err)
	}

	first, _ := s.ListCollection(ctx, "first")
	second, _ := s.ListCollection(ctx, "second")
	if len(first) != 0 || len(second) != 1 {
		t.Errorf("membership not exclusive: first=%v second=%v", first, second)
	}
	if _, err := os.Stat(filepath.Join(s.RootDir(), "second", a.Filename)); err != nil {
		t.Errorf("file not under second collection: %v", err)
	}
}

func TestMoveMissingFileOrCollection(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if err := s.MoveToCollection(ctx, "ghost", &model.MoveVideoRequest{Filename: "f.mp4"}); !errors.Is(err, ErrNotFound) {
		t.Errorf("missing collection: got %v", err)
	}

	if err := s.CreateCollection(ctx, "mix"); err != nil {
		t.Fatal(err)
	}
	if err := s.MoveToCollection(ctx, "mix", &model.MoveVideoRequest{Filename: "nope.mp4"}); !errors.Is(err, ErrNotFound) {
		t.Errorf("missing file: got %v", err)
	}
}

func TestDeleteCollectionReturnsMembersToPool(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if err := s.CreateCollection(ctx, "mix"); err != nil {
		t.Fatal(err)
	}
	var names []string
	for _, id := range []string{"a1", "b2", "c3"} {
		a := seedArtifact(t, s, id, id+"_song.mp3")
		names = append(names, a.Filename)
		if err := s.MoveToCollection(ctx, "mix", &model.MoveVideoRequest{Filename: a.Filename}); err != nil {
			t.Fatal(err)
		}
	}

	if err := s.DeleteCollection(ctx, "mix"); err != nil {
		t.Fatalf("DeleteCollection failed: %v", err)
	}

	for _, name := range names {
		if _, err := os.Stat(filepath.Join(s.RootDir(), name)); err != nil {
			t.Errorf("member %q not returned to pool: %v", name, err)
		}
	}

	list, err := s.ListDownloads(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 3 {
		t.Fatalf("expected 3 artifacts after delete, got %d", len(list))
	}
	for _, a := range list {
		if a.Collection != "" {
			t.Errorf("artifact %q still assigned to %q", a.Filename, a.Collection)
		}
	}

	if _, err := s.ListCollection(ctx, "mix"); !errors.Is(err, ErrNotFound) {
		t.Errorf("deleted collection still listable: %v", err)
	}
	if err := s.DeleteCollection(ctx, "mix"); !errors.Is(err, ErrNotFound) {
		t.Errorf("second delete should be NotFound, got %v", err)
	}
}

func TestClearHistoryRemovesFilesAndRecords(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	a := seedArtifact(t, s, "abc123", "abc123_song.mp3")
	b := seedArtifact(t, s, "def456", "def456_clip.mp4")
	if err := s.CreateCollection(ctx, "mix"); err != nil {
		t.Fatal(err)
	}
	if err := s.MoveToCollection(ctx, "mix", &model.MoveVideoRequest{Filename: b.Filename}); err != nil {
		t.Fatal(err)
	}

	if err := s.ClearHistory(ctx); err != nil {
		t.Fatalf("ClearHistory failed: %v", err)
	}

	list, err := s.ListDownloads(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 0 {
		t.Errorf("history not empty: %v", list)
	}
	if _, err := os.Stat(filepath.Join(s.RootDir(), a.Filename)); !os.IsNotExist(err) {
		t.Error("pool artifact file survived clear")
	}
	if _, err := os.Stat(filepath.Join(s.RootDir(), "mix", b.Filename)); !os.IsNotExist(err) {
		t.Error("collection artifact file survived clear")
	}
}

func TestTotalSize(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	seedArtifact(t, s, "a1", "a1_x.mp3")
	seedArtifact(t, s, "b2", "b2_y.mp3")

	total, err := s.TotalSize(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if total != 10 {
		t.Errorf("TotalSize = %d, want 10", total)
	}
}
