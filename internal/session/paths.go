package session

import (
	"os"
	"path/filepath"
	"strconv"
)

// BaseDir returns ~/.pocketgram.
func BaseDir() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".pocketgram")
}

// Dir returns the session-specific directory.
func Dir(name string) string {
	return filepath.Join(BaseDir(), "sessions", name)
}

// CacheDBPath returns the app-owned cache.db path holding the asset ledger.
func CacheDBPath(name string) string {
	return filepath.Join(Dir(name), "cache.db")
}

// AvatarsDir returns the raw/rendered avatar directory inside a session dir.
func AvatarsDir(sessionDir string) string {
	return filepath.Join(sessionDir, "avatars")
}

// PhotosDir returns the raw/thumbnail photo directory inside a session dir.
func PhotosDir(sessionDir string) string {
	return filepath.Join(sessionDir, "photos")
}

// AvatarRawPath returns the fetch target for an avatar asset id.
func AvatarRawPath(sessionDir string, id int64) string {
	return filepath.Join(AvatarsDir(sessionDir), strconv.FormatInt(id, 10)+".jpg")
}

// PhotoRawPath returns the fetch target for a photo asset id.
func PhotoRawPath(sessionDir string, id int64) string {
	return filepath.Join(PhotosDir(sessionDir), strconv.FormatInt(id, 10)+".jpg")
}

// LogDir returns the log directory for a session.
func LogDir(name string) string {
	return filepath.Join(Dir(name), "logs")
}

// LogPath returns the core log file path.
func LogPath(name string) string {
	return filepath.Join(LogDir(name), "core.log")
}

// ConfigPath returns the global config file path.
func ConfigPath() string {
	return filepath.Join(BaseDir(), "config.toml")
}

// EnsureDir creates the session directory tree with proper permissions.
func EnsureDir(name string) error {
	dirs := []string{
		Dir(name),
		LogDir(name),
	}
	for _, d := range dirs {
		if err := os.MkdirAll(d, 0700); err != nil {
			return err
		}
	}
	return nil
}
