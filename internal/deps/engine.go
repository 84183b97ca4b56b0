package deps

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"

	"podjoin/internal/services"
)

// LocateEngine resolves the audio engine executable. Lookup order: an
// explicit configured path, a bundled binary in bin/ next to the running
// executable, then PATH resolution of the configured binary name. The probe
// is read-only; nothing is executed.
func LocateEngine(binary, explicitPath string) (string, error) {
	if explicit := strings.TrimSpace(explicitPath); explicit != "" {
		if info, err := os.Stat(explicit); err == nil && isExecutable(info) {
			return explicit, nil
		}
		return "", services.Wrap(services.ErrEngineNotFound, "locating", "",
			fmt.Sprintf("configured engine path %q is not an executable file", explicit), nil)
	}

	name := strings.TrimSpace(binary)
	if name == "" {
		name = "ffmpeg"
	}

	if bundled, ok := bundledCandidate(name); ok {
		if info, err := os.Stat(bundled); err == nil && isExecutable(info) {
			return bundled, nil
		}
	}

	if resolved, err := exec.LookPath(executableName(name)); err == nil {
		return resolved, nil
	}

	return "", services.Wrap(services.ErrEngineNotFound, "locating", "",
		fmt.Sprintf("%q is neither bundled nor on PATH; install it or bundle it next to podjoin", name), nil)
}

// CheckEngine reports engine availability for status output without
// treating absence as an error.
func CheckEngine(binary, explicitPath string) Status {
	result := Status{
		Name:        "Audio engine",
		Description: "Used for loudness measurement, normalization, and MP3 encoding",
	}
	path, err := LocateEngine(binary, explicitPath)
	if err != nil {
		result.Command = executableName(strings.TrimSpace(binary))
		result.Detail = fmt.Sprintf("binary %q not found", result.Command)
		return result
	}
	result.Command = path
	result.Available = true
	return result
}

func bundledCandidate(name string) (string, bool) {
	self, err := os.Executable()
	if err != nil {
		return "", false
	}
	resolved, err := filepath.EvalSymlinks(self)
	if err != nil {
		resolved = self
	}
	return filepath.Join(filepath.Dir(resolved), "bin", executableName(name)), true
}

func executableName(name string) string {
	if runtime.GOOS == "windows" && !strings.HasSuffix(strings.ToLower(name), ".exe") {
		return name + ".exe"
	}
	return name
}

func isExecutable(info os.FileInfo) bool {
	if info == nil {
		return false
	}
	if info.IsDir() {
		return false
	}
	if runtime.GOOS == "windows" {
		return true
	}
	return info.Mode().Perm()&0o111 != 0
}
