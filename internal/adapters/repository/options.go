package repository

import "os"

// Option applies a configuration option to the FileStore.
type Option func(*FileStore)

// WithFileMode sets the permissions of newly created records.
// Existing records keep their mode.
func WithFileMode(mode os.FileMode) Option {
	return func(s *FileStore) {
		if mode != 0 {
			s.fileMode = mode
		}
	}
}

// WithDirSync makes every write also fsync the channel directory so the
// rename itself survives a crash.
func WithDirSync(enabled bool) Option {
	return func(s *FileStore) {
		s.syncDir = enabled
	}
}
