package session

import (
	"path/filepath"
	"strings"
	"testing"
)

func TestDerivedAssetPaths(t *testing.T) {
	dir := filepath.Join("/tmp", "s1")

	avatar := AvatarRawPath(dir, 42)
	if !strings.HasSuffix(avatar, filepath.Join("avatars", "42.jpg")) {
		t.Errorf("avatar path = %q", avatar)
	}

	photo := PhotoRawPath(dir, 42)
	if !strings.HasSuffix(photo, filepath.Join("photos", "42.jpg")) {
		t.Errorf("photo path = %q", photo)
	}

	// Same numeric id must not collide across namespaces.
	if avatar == photo {
		t.Error("avatar and photo paths collide")
	}
}

func TestSessionLayout(t *testing.T) {
	if got := CacheDBPath("main"); !strings.HasSuffix(got, filepath.Join("sessions", "main", "cache.db")) {
		t.Errorf("CacheDBPath = %q", got)
	}
	if got := LogPath("main"); !strings.HasSuffix(got, filepath.Join("main", "logs", "core.log")) {
		t.Errorf("LogPath = %q", got)
	}
}
