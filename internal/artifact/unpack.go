package artifact

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/zip"

	"bsrbot/internal/logging"
	"bsrbot/internal/services"
	"bsrbot/internal/textutil"
)

// Unpacker expands archives into per-hash directories.
type Unpacker struct {
	dir    string
	logger *slog.Logger
}

// NewUnpacker constructs an unpacker writing into dir.
func NewUnpacker(dir string, logger *slog.Logger) *Unpacker {
	return &Unpacker{dir: dir, logger: logging.NewComponentLogger(logger, "artifact")}
}

// MapDir returns where the unpacked contents for hash live.
func (u *Unpacker) MapDir(hash string) string {
	return filepath.Join(u.dir, hash)
}

// Unpack extracts archivePath into <dir>/<hash>, replacing any previous
// extraction, and returns the directory.
func (u *Unpacker) Unpack(archivePath, hash string) (string, error) {
	if !textutil.IsSafeKey(hash) {
		return "", services.Wrap(services.ErrValidation, "unpack", "prepare", fmt.Sprintf("unsafe artifact key %q", hash), nil)
	}
	dest := u.MapDir(hash)
	if err := os.RemoveAll(dest); err != nil {
		return "", fmt.Errorf("prepare destination: %w", err)
	}
	if err := os.MkdirAll(dest, 0o755); err != nil {
		return "", fmt.Errorf("create destination: %w", err)
	}

	reader, err := zip.OpenReader(archivePath)
	if err != nil {
		return "", services.Wrap(services.ErrValidation, "unpack", "open", archivePath, err)
	}
	defer reader.Close()

	files := 0
	for _, entry := range reader.File {
		target, err := entryPath(dest, entry.Name)
		if err != nil {
			return "", services.Wrap(services.ErrValidation, "unpack", "entry", entry.Name, err)
		}
		if entry.FileInfo().IsDir() {
			if err := os.MkdirAll(target, 0o755); err != nil {
				return "", fmt.Errorf("create directory %s: %w", target, err)
			}
			continue
		}
		if err := extractFile(entry, target); err != nil {
			return "", services.Wrap(services.ErrTransient, "unpack", "extract", entry.Name, err)
		}
		files++
	}

	u.logger.Info("map archive unpacked", logging.String("dir", dest), logging.Int("files", files))
	return dest, nil
}

// entryPath resolves an archive entry name inside dest and rejects names that
// would escape it.
func entryPath(dest, name string) (string, error) {
	if name == "" || filepath.IsAbs(name) || strings.HasPrefix(name, "/") {
		return "", fmt.Errorf("illegal entry name %q", name)
	}
	target := filepath.Join(dest, filepath.FromSlash(name))
	rel, err := filepath.Rel(dest, target)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("entry %q escapes destination", name)
	}
	return target, nil
}

func extractFile(entry *zip.File, target string) error {
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return err
	}
	src, err := entry.Open()
	if err != nil {
		return err
	}
	defer src.Close()

	dst, err := os.OpenFile(target, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	if _, err := io.Copy(dst, src); err != nil {
		dst.Close()
		return err
	}
	return dst.Close()
}
