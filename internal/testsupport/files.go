package testsupport

import (
	"os"
	"path/filepath"
	"testing"

	"podjoin/internal/episode"
)

// WriteFile fills the target path with the requested number of bytes using a
// simple repeating pattern. A size <= 0 writes a single byte.
func WriteFile(t testing.TB, path string, size int64) {
	t.Helper()

	if size <= 0 {
		size = 1
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir for %s: %v", path, err)
	}
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create %s: %v", path, err)
	}
	defer f.Close()

	const chunkSize = 32 * 1024
	buf := make([]byte, chunkSize)
	for i := range buf {
		buf[i] = 0x42
	}

	remaining := size
	for remaining > 0 {
		toWrite := int64(chunkSize)
		if remaining < toWrite {
			toWrite = remaining
		}
		if _, err := f.Write(buf[:toWrite]); err != nil {
			t.Fatalf("write %s: %v", path, err)
		}
		remaining -= toWrite
	}
}

// WriteEpisodeFolder creates an episode folder holding all required segment
// files, minus any roles listed in missing.
func WriteEpisodeFolder(t testing.TB, missing ...episode.Role) string {
	t.Helper()

	skip := make(map[episode.Role]struct{}, len(missing))
	for _, role := range missing {
		skip[role] = struct{}{}
	}

	dir := t.TempDir()
	for _, role := range episode.Roles() {
		if _, ok := skip[role]; ok {
			continue
		}
		WriteFile(t, filepath.Join(dir, episode.FileName(role)), 64)
	}
	return dir
}
