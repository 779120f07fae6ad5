package gen

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// File permission constants.
const (
	dirPerm  = 0o755
	filePerm = 0o644
)

// WriteFiles writes all generated files. A non-empty outputDir overrides the
// directory of every file. Directories are created if they don't exist.
func WriteFiles(files []GeneratedFile, outputDir string) error {
	for _, file := range files {
		dir := file.Dir
		if outputDir != "" {
			dir = outputDir
		}

		// Create output directory if it doesn't exist
		err := os.MkdirAll(dir, dirPerm)
		if err != nil {
			return fmt.Errorf("creating output directory: %w", err)
		}

		outputPath := filepath.Join(dir, file.Filename)

		err = os.WriteFile(outputPath, file.Content, filePerm)
		if err != nil {
			return fmt.Errorf("writing file %s: %w", file.Filename, err)
		}
	}

	return nil
}

// CheckFiles returns the paths of files whose content on disk differs from
// the generated content, including files that do not exist yet.
func CheckFiles(files []GeneratedFile) ([]string, error) {
	var stale []string

	for _, file := range files {
		existing, err := os.ReadFile(file.Path())
		if errors.Is(err, fs.ErrNotExist) {
			stale = append(stale, file.Path())
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", file.Path(), err)
		}

		if !bytes.Equal(existing, file.Content) {
			stale = append(stale, file.Path())
		}
	}

	return stale, nil
}
