package validation

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	apperrors "converteasy/errors"
	"converteasy/tasks"
)

type FileType string

const (
	FileTypePDF  FileType = "pdf"
	FileTypeDOCX FileType = "docx"
)

var magicBytes = map[FileType][]byte{
	FileTypePDF: {0x25, 0x50, 0x44, 0x46},
	// docx is a zip package
	FileTypeDOCX: {0x50, 0x4B, 0x03, 0x04},
}

var extensions = map[FileType]string{
	FileTypePDF:  ".pdf",
	FileTypeDOCX: ".docx",
}

// InputType returns the file type a direction reads.
func InputType(direction tasks.Direction) (FileType, error) {
	switch direction {
	case tasks.DirectionDocToHTML:
		return FileTypeDOCX, nil
	case tasks.DirectionPDFToDoc, tasks.DirectionPDFToPPT:
		return FileTypePDF, nil
	default:
		return "", fmt.Errorf("unsupported direction %q", direction)
	}
}

// DetectFileType sniffs the signature at the start of r and rewinds it.
func DetectFileType(r io.ReadSeeker) (FileType, error) {
	buffer := make([]byte, 512)
	n, err := r.Read(buffer)
	if err != nil && err != io.EOF {
		return "", err
	}

	if _, err := r.Seek(0, io.SeekStart); err != nil {
		return "", err
	}

	for fileType, signature := range magicBytes {
		if bytes.HasPrefix(buffer[:n], signature) {
			return fileType, nil
		}
	}

	return "", ErrInvalidFileType
}

// CheckInput verifies that path exists, is a regular file and holds the
// format the direction converts from. Failures wrap ErrInputMissing or
// ErrInputWrongFormat.
func CheckInput(path string, direction tasks.Direction) error {
	want, err := InputType(direction)
	if err != nil {
		return fmt.Errorf("%w: %v", apperrors.ErrInputWrongFormat, err)
	}

	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("%w: %s", apperrors.ErrInputMissing, path)
	}
	if info.IsDir() {
		return fmt.Errorf("%w: %s is a directory", apperrors.ErrInputMissing, path)
	}
	if info.Size() == 0 {
		return fmt.Errorf("%w: %s is empty", apperrors.ErrInputWrongFormat, path)
	}

	if ext := strings.ToLower(filepath.Ext(path)); ext != extensions[want] {
		return fmt.Errorf("%w: %s: %v, expected %s", apperrors.ErrInputWrongFormat, path, ErrExtensionMismatch, extensions[want])
	}

	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", apperrors.ErrInputMissing, path, err)
	}
	defer f.Close()

	got, err := DetectFileType(f)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", apperrors.ErrInputWrongFormat, path, err)
	}
	if got != want {
		return fmt.Errorf("%w: %s: detected %s, expected %s", apperrors.ErrInputWrongFormat, path, got, want)
	}
	return nil
}
