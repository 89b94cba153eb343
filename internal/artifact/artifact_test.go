package artifact_test

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"bsrbot/internal/artifact"
	"bsrbot/internal/logging"
	"bsrbot/internal/services"
	"bsrbot/internal/testsupport"
)

func TestFetchWritesArchive(t *testing.T) {
	payload := []byte("zip-bytes")
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write(payload)
	}))
	t.Cleanup(srv.Close)

	dir := t.TempDir()
	fetcher := artifact.NewFetcher(dir, logging.NewNop(), artifact.WithHTTPClient(srv.Client()))
	path, err := fetcher.Fetch(context.Background(), srv.URL+"/file.zip", "abc123")
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if path != filepath.Join(dir, "abc123.zip") {
		t.Fatalf("unexpected path %q", path)
	}
	got, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read archive: %v", err)
	}
	if !bytes.Equal(got, payload) {
		t.Fatalf("archive contents mismatch: %q", got)
	}
}

func TestFetchRejectsErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusNotFound)
	}))
	t.Cleanup(srv.Close)

	dir := t.TempDir()
	fetcher := artifact.NewFetcher(dir, nil)
	_, err := fetcher.Fetch(context.Background(), srv.URL, "abc123")
	if !errors.Is(err, services.ErrTransient) {
		t.Fatalf("expected transient error, got %v", err)
	}
	if _, statErr := os.Stat(filepath.Join(dir, "abc123.zip")); !os.IsNotExist(statErr) {
		t.Fatalf("expected no archive on failure, stat err %v", statErr)
	}
}

func TestFetchRejectsUnsafeKey(t *testing.T) {
	fetcher := artifact.NewFetcher(t.TempDir(), nil)
	_, err := fetcher.Fetch(context.Background(), "http://127.0.0.1/", "../escape")
	if !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestUnpackExtractsEntries(t *testing.T) {
	dir := t.TempDir()
	archive := testsupport.WriteMapArchive(t, filepath.Join(dir, "abc123.zip"), map[string]string{
		"Info.dat":           `{"_songName":"Song"}`,
		"song.egg":           "audio",
		"sub/ExpertPlus.dat": "notes",
	})

	// Stale content from an earlier extraction must not survive.
	stale := filepath.Join(dir, "abc123", "stale.txt")
	if err := os.MkdirAll(filepath.Dir(stale), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(stale, []byte("old"), 0o644); err != nil {
		t.Fatal(err)
	}

	unpacker := artifact.NewUnpacker(dir, nil)
	dest, err := unpacker.Unpack(archive, "abc123")
	if err != nil {
		t.Fatalf("Unpack: %v", err)
	}
	if dest != filepath.Join(dir, "abc123") {
		t.Fatalf("unexpected dest %q", dest)
	}
	for _, name := range []string{"Info.dat", "song.egg", filepath.Join("sub", "ExpertPlus.dat")} {
		if _, err := os.Stat(filepath.Join(dest, name)); err != nil {
			t.Fatalf("expected %s: %v", name, err)
		}
	}
	if _, err := os.Stat(stale); !os.IsNotExist(err) {
		t.Fatalf("expected stale file removed, stat err %v", err)
	}
}

func TestUnpackRejectsTraversal(t *testing.T) {
	dir := t.TempDir()
	archive := testsupport.WriteMapArchive(t, filepath.Join(dir, "evil.zip"), map[string]string{"../outside.txt": "x"})
	_, err := artifact.NewUnpacker(dir, nil).Unpack(archive, "evil")
	if !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if _, statErr := os.Stat(filepath.Join(dir, "outside.txt")); !os.IsNotExist(statErr) {
		t.Fatalf("traversal entry was written")
	}
}

func TestUnpackRejectsCorruptArchive(t *testing.T) {
	dir := t.TempDir()
	archive := filepath.Join(dir, "bad.zip")
	if err := os.WriteFile(archive, []byte("not a zip"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := artifact.NewUnpacker(dir, nil).Unpack(archive, "bad"); err == nil {
		t.Fatal("expected error for corrupt archive")
	}
}
