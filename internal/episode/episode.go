// Package episode defines the fixed roles, file layout, and export sequence
// of an episode folder.
package episode

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Role identifies one of the six fixed source files of an episode folder.
type Role string

const (
	RoleIntro        Role = "intro"
	RoleVorab        Role = "vorab"
	RoleKapitel      Role = "kapitel"
	RoleOutro        Role = "outro"
	RoleJingleVorne  Role = "jingle_vorne"
	RoleJingleHinten Role = "jingle_hinten"
)

// ReferenceRole is the clip whose integrated loudness becomes the
// normalization target for every segment.
const ReferenceRole = RoleJingleVorne

var roles = []Role{
	RoleIntro,
	RoleVorab,
	RoleKapitel,
	RoleOutro,
	RoleJingleVorne,
	RoleJingleHinten,
}

// The final episode reuses both jingles: the front jingle opens the episode
// and reappears before the outro, the back jingle closes both halves.
var exportOrder = []Role{
	RoleJingleVorne,
	RoleIntro,
	RoleJingleHinten,
	RoleVorab,
	RoleKapitel,
	RoleJingleVorne,
	RoleOutro,
	RoleJingleHinten,
}

// Roles returns the six distinct source roles in their canonical order.
func Roles() []Role {
	cp := make([]Role, len(roles))
	copy(cp, roles)
	return cp
}

// ExportOrder returns the fixed eight-position concatenation sequence.
func ExportOrder() []Role {
	cp := make([]Role, len(exportOrder))
	copy(cp, exportOrder)
	return cp
}

// FileName returns the required file name for a role inside the episode folder.
func FileName(role Role) string {
	return string(role) + ".mp3"
}

// SourcePath returns the absolute path of a role's file under the episode folder.
func SourcePath(dir string, role Role) string {
	return filepath.Join(dir, FileName(role))
}

// OutputFileName returns the final episode file name for a chapter number.
func OutputFileName(chapter int) string {
	return fmt.Sprintf("Kapitel %d.mp3", chapter)
}

// Validate checks that all six required files exist directly inside the
// episode folder and returns the names of the missing ones in canonical
// order. The probe is read-only; subfolders are not searched.
func Validate(dir string) ([]string, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("episode folder: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("episode folder: %s is not a directory", dir)
	}

	var missing []string
	for _, role := range roles {
		if _, err := os.Stat(SourcePath(dir, role)); err != nil {
			missing = append(missing, FileName(role))
		}
	}
	return missing, nil
}

var displayCaser = cases.Title(language.German)

// DisplayName returns the human label used in progress and notification
// text, e.g. "Jingle Vorne" for jingle_vorne.
func DisplayName(role Role) string {
	return displayCaser.String(strings.ReplaceAll(string(role), "_", " "))
}
