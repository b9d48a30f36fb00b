package repository

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/okian/tubesense/pkg/metrics"
)

const defaultFileMode os.FileMode = 0o644

// FileStore implements Store on a data root holding one directory per channel.
type FileStore struct {
	root     string
	fileMode os.FileMode
	syncDir  bool
}

var _ Store = (*FileStore)(nil)

// NewFileStore creates a store rooted at root.
func NewFileStore(root string, opts ...Option) *FileStore {
	s := &FileStore{
		root:     root,
		fileMode: defaultFileMode,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Root returns the data root.
func (s *FileStore) Root() string { return s.root }

// channelDir validates channelID and returns its directory.
func (s *FileStore) channelDir(channelID string) (string, error) {
	if channelID == "" || channelID == "." || channelID == ".." ||
		strings.ContainsAny(channelID, `/\`) || strings.ContainsRune(channelID, 0) {
		return "", fmt.Errorf("%w: %q", ErrInvalidChannel, channelID)
	}
	return filepath.Join(s.root, channelID), nil
}

// videoPath validates a video record name and returns its path.
func (s *FileStore) videoPath(channelID, name string) (string, error) {
	dir, err := s.channelDir(channelID)
	if err != nil {
		return "", err
	}
	if !isVideoName(name) {
		return "", fmt.Errorf("%w: %q", ErrInvalidVideo, name)
	}
	return filepath.Join(dir, name), nil
}

func isVideoName(name string) bool {
	return name != ChannelMetadataFile &&
		strings.HasSuffix(name, ".json") &&
		!strings.HasPrefix(name, ".") &&
		filepath.Base(name) == name
}

// ChannelExists implements Store.
func (s *FileStore) ChannelExists(ctx context.Context, channelID string) (bool, error) {
	dir, err := s.channelDir(channelID)
	if err != nil {
		return false, err
	}
	info, err := os.Stat(dir)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return false, nil
	case err != nil:
		return false, fmt.Errorf("stat %s: %w", dir, err)
	}
	return info.IsDir(), nil
}

// EnsureChannel creates the channel directory if it is missing.
func (s *FileStore) EnsureChannel(ctx context.Context, channelID string) error {
	dir, err := s.channelDir(channelID)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create %s: %w", dir, err)
	}
	return nil
}

// ListVideos implements Store.
func (s *FileStore) ListVideos(ctx context.Context, channelID string) ([]string, error) {
	dir, err := s.channelDir(channelID)
	if err != nil {
		return nil, err
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", dir, err)
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() || !isVideoName(e.Name()) {
			continue
		}
		names = append(names, e.Name())
	}
	sort.Strings(names)
	return names, nil
}

// ReadVideo implements Store.
func (s *FileStore) ReadVideo(ctx context.Context, channelID, name string) ([]byte, error) {
	path, err := s.videoPath(channelID, name)
	if err != nil {
		return nil, err
	}
	return readFile(path)
}

// WriteVideo implements Store.
func (s *FileStore) WriteVideo(ctx context.Context, channelID, name string, data []byte) error {
	path, err := s.videoPath(channelID, name)
	if err != nil {
		return err
	}
	return s.writeAtomic(path, data)
}

// ReadChannel implements Store.
func (s *FileStore) ReadChannel(ctx context.Context, channelID string) ([]byte, error) {
	dir, err := s.channelDir(channelID)
	if err != nil {
		return nil, err
	}
	return readFile(filepath.Join(dir, ChannelMetadataFile))
}

// WriteChannel implements Store.
func (s *FileStore) WriteChannel(ctx context.Context, channelID string, data []byte) error {
	dir, err := s.channelDir(channelID)
	if err != nil {
		return err
	}
	return s.writeAtomic(filepath.Join(dir, ChannelMetadataFile), data)
}

func readFile(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s: %w", ErrNotFound, filepath.Base(path), err)
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", filepath.Base(path), err)
	}
	return data, nil
}

// writeAtomic writes data to a hidden temporary file next to path, syncs it
// and renames it over path. Readers see either the old or the new record.
func (s *FileStore) writeAtomic(path string, data []byte) (err error) {
	dir, base := filepath.Split(path)

	mode := s.fileMode
	if info, statErr := os.Stat(path); statErr == nil {
		mode = info.Mode().Perm()
	}

	tmp, err := os.CreateTemp(dir, "."+base+".*.tmp")
	if err != nil {
		metrics.RecordErrorByComponent("repository", "create_temp")
		return fmt.Errorf("write %s: %w", base, err)
	}
	defer func() {
		if err != nil {
			_ = tmp.Close()
			_ = os.Remove(tmp.Name())
			metrics.RecordErrorByComponent("repository", "write")
		}
	}()

	if _, err = tmp.Write(data); err != nil {
		return fmt.Errorf("write %s: %w", base, err)
	}
	if err = tmp.Sync(); err != nil {
		return fmt.Errorf("sync %s: %w", base, err)
	}
	if err = tmp.Chmod(mode); err != nil {
		return fmt.Errorf("chmod %s: %w", base, err)
	}
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("close %s: %w", base, err)
	}
	if err = os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("rename %s: %w", base, err)
	}
	if s.syncDir {
		if d, openErr := os.Open(dir); openErr == nil {
			_ = d.Sync()
			_ = d.Close()
		}
	}
	return nil
}
