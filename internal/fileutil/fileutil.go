// Package fileutil holds the write-then-rename helpers used for frame output.
package fileutil

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

const tempMarker = ".tmp-"

// TempPattern returns the os.CreateTemp pattern used for finalPath. Temp
// files are hidden and carry a marker so watchers can skip them.
func TempPattern(finalPath string) string {
	return "." + filepath.Base(finalPath) + tempMarker + "*"
}

// IsTemp reports whether name looks like a temp file produced by WriteTemp.
func IsTemp(name string) bool {
	base := filepath.Base(name)
	return strings.HasPrefix(base, ".") && strings.Contains(base, tempMarker)
}

// WriteTemp creates a temp file beside finalPath, streams write into it, and
// returns the temp path. The caller commits it with Commit or removes it.
func WriteTemp(finalPath string, write func(io.Writer) error) (string, error) {
	dir := filepath.Dir(finalPath)
	f, err := os.CreateTemp(dir, TempPattern(finalPath))
	if err != nil {
		return "", fmt.Errorf("create temp for %s: %w", filepath.Base(finalPath), err)
	}
	tmp := f.Name()
	fail := func(err error) (string, error) {
		_ = f.Close()
		_ = os.Remove(tmp)
		return "", err
	}

	buf := bufio.NewWriter(f)
	if err := write(buf); err != nil {
		return fail(fmt.Errorf("write %s: %w", filepath.Base(finalPath), err))
	}
	if err := buf.Flush(); err != nil {
		return fail(fmt.Errorf("flush %s: %w", filepath.Base(finalPath), err))
	}
	if err := f.Chmod(0o644); err != nil {
		return fail(fmt.Errorf("chmod %s: %w", filepath.Base(finalPath), err))
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(tmp)
		return "", fmt.Errorf("close %s: %w", filepath.Base(finalPath), err)
	}
	return tmp, nil
}

// Commit renames tmp onto finalPath. Readers see either no file or the
// complete file.
func Commit(tmp, finalPath string) error {
	if err := os.Rename(tmp, finalPath); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("commit %s: %w", filepath.Base(finalPath), err)
	}
	return nil
}

// WriteAtomic writes finalPath through a temp file and rename.
func WriteAtomic(finalPath string, write func(io.Writer) error) error {
	tmp, err := WriteTemp(finalPath, write)
	if err != nil {
		return err
	}
	return Commit(tmp, finalPath)
}
