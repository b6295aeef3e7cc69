// Package output writes generated files so that a failed run never leaves a
// truncated file behind.
package output

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// Encoder writes a complete document to w.
type Encoder func(w io.Writer) error

// File is one generated file.
type File struct {
	Path   string
	Encode Encoder
}

// WriteFile renders enc in memory and then replaces path with the result.
// Nothing is created when enc fails; the rename makes the final step atomic
// on the same file system.
func WriteFile(path string, enc Encoder) error {
	return WriteAll(File{Path: path, Encode: enc})
}

// WriteAll renders every file before touching the file system and stages
// each next to its destination. Files are only renamed into place once all
// of them are staged, so a rendering or staging failure creates nothing.
func WriteAll(files ...File) error {
	rendered := make([][]byte, len(files))
	for i, f := range files {
		var buf bytes.Buffer
		if err := f.Encode(&buf); err != nil {
			return fmt.Errorf("failed to render %s: %w", f.Path, err)
		}
		rendered[i] = buf.Bytes()
	}

	staged := make([]string, 0, len(files))
	defer func() {
		// no-op for files already renamed
		for _, name := range staged {
			_ = os.Remove(name)
		}
	}()

	for i, f := range files {
		name, err := stage(f.Path, rendered[i])
		if err != nil {
			return err
		}
		staged = append(staged, name)
	}

	for i, f := range files {
		if err := os.Rename(staged[i], f.Path); err != nil {
			return fmt.Errorf("failed to write %s: %w", f.Path, err)
		}
	}
	return nil
}

// stage writes data to a temporary file in the directory of path.
func stage(path string, data []byte) (string, error) {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return "", fmt.Errorf("failed to create %s: %w", path, err)
	}
	name := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(name)
		return "", fmt.Errorf("failed to write %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(name)
		return "", fmt.Errorf("failed to write %s: %w", path, err)
	}
	if err := os.Chmod(name, 0o644); err != nil {
		_ = os.Remove(name)
		return "", fmt.Errorf("failed to write %s: %w", path, err)
	}
	return name, nil
}
