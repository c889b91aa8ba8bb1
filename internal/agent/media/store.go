// Package media manages the agent's local content library.
package media

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"

	"signage/internal/domain/entity"
	"signage/internal/errors"
)

// Downloader fetches one media file into the library.
type Downloader interface {
	DownloadMedia(ctx context.Context, filename, destPath string) error
}

// Store is the on-disk media library. Playback only ever uses files that are
// present and non-empty; a missing download degrades playback, it never
// blocks enforcement.
type Store struct {
	dir    string
	logger *slog.Logger
}

// NewStore creates the library rooted at dir.
func NewStore(dir string, logger *slog.Logger) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, errors.Wrap(err, "failed to create media directory")
	}

	return &Store{
		dir:    dir,
		logger: logger,
	}, nil
}

// Path returns the library path of a media filename.
func (s *Store) Path(filename string) string {
	return filepath.Join(s.dir, filepath.Base(filename))
}

// Present reports whether the file exists locally with content.
func (s *Store) Present(filename string) bool {
	info, err := os.Stat(s.Path(filename))

	return err == nil && info.Mode().IsRegular() && info.Size() > 0
}

// PlayableFiles filters a playlist down to the locally present, non-empty
// media files, in playlist order.
func (s *Store) PlayableFiles(playlist *entity.Playlist) []string {
	if playlist == nil {
		return nil
	}

	files := make([]string, 0, len(playlist.Items))
	for _, item := range playlist.Items {
		if item.Media == nil {
			continue
		}
		if s.Present(item.Media.Filename) {
			files = append(files, s.Path(item.Media.Filename))
		}
	}

	return files
}

// Sync downloads the playlist's missing files. Failures are logged per file
// and do not abort the rest: partial content beats none.
func (s *Store) Sync(ctx context.Context, downloader Downloader, playlist *entity.Playlist) {
	if playlist == nil {
		return
	}

	for _, item := range playlist.Items {
		if item.Media == nil || s.Present(item.Media.Filename) {
			continue
		}

		if err := downloader.DownloadMedia(ctx, item.Media.Filename, s.Path(item.Media.Filename)); err != nil {
			s.logger.Warn("media download failed",
				slog.String("filename", item.Media.Filename),
				slog.String("error", err.Error()),
			)
		}
	}
}
