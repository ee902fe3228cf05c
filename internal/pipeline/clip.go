package pipeline

import (
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"wavebars/internal/fileutil"
	"wavebars/internal/services"
)

const clipExtension = ".mp3"

// ResolveClip maps a CLI argument to a clip ID and audio path. A purely
// numeric argument is a clip ID under voicesDir; anything else is a path whose
// base name (without extension) becomes the clip ID.
func ResolveClip(voicesDir, arg string) (clipID, path string, err error) {
	arg = strings.TrimSpace(arg)
	if arg == "" {
		return "", "", services.Wrap(services.ErrInputFormat, "pipeline", "resolve clip", "empty clip argument", nil)
	}
	if isNumeric(arg) {
		return arg, filepath.Join(voicesDir, arg+clipExtension), nil
	}
	base := filepath.Base(arg)
	id := strings.TrimSuffix(base, filepath.Ext(base))
	if id == "" || id == "." || strings.ContainsAny(id, `/\`) {
		return "", "", services.Wrap(services.ErrInputFormat, "pipeline", "resolve clip",
			fmt.Sprintf("cannot derive clip id from %q", arg), nil)
	}
	return id, arg, nil
}

// FrameName returns the file name of frame idx for clipID.
func FrameName(clipID string, idx int) string {
	return fmt.Sprintf("%s-%06d.png", clipID, idx)
}

// ParseFrameName extracts the frame index from a committed frame file name of
// clipID. Temp files and other clips' frames do not match.
func ParseFrameName(clipID, name string) (int, bool) {
	if fileutil.IsTemp(name) {
		return 0, false
	}
	rest, ok := strings.CutPrefix(name, clipID+"-")
	if !ok {
		return 0, false
	}
	digits, ok := strings.CutSuffix(rest, ".png")
	if !ok || len(digits) < 6 || !isNumeric(digits) {
		return 0, false
	}
	idx, err := strconv.Atoi(digits)
	if err != nil {
		return 0, false
	}
	return idx, true
}

func isNumeric(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return s != ""
}
