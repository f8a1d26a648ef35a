package attachments

import (
	"fmt"
	"path/filepath"
	"strings"
)

type FileSanitizer struct{}

func NewFileSanitizer() *FileSanitizer {
	return &FileSanitizer{}
}

// SanitizeFilename returns a name safe to send as a multipart file name.
func (s *FileSanitizer) SanitizeFilename(filename string) string {
	filename = filepath.Base(strings.TrimSpace(filename))
	if filename == "." || filename == string(filepath.Separator) {
		return "unnamed_file"
	}

	unsafe := []string{"/", "\\", ":", "*", "?", "\"", "<", ">", "|"}
	for _, char := range unsafe {
		filename = strings.ReplaceAll(filename, char, "_")
	}

	filename = strings.TrimSpace(filename)
	if filename == "" {
		return "unnamed_file"
	}

	return filename
}

// ValidatePath rejects filePath unless it lies inside baseDir.
func (s *FileSanitizer) ValidatePath(filePath, baseDir string) error {
	absDir, err := filepath.Abs(baseDir)
	if err != nil {
		return err
	}

	absFilePath, err := filepath.Abs(filePath)
	if err != nil {
		return err
	}

	if !strings.HasPrefix(absFilePath, absDir+string(filepath.Separator)) && absFilePath != absDir {
		return fmt.Errorf("path traversal detected: %s is outside %s", filePath, baseDir)
	}

	return nil
}
