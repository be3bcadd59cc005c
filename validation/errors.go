package validation

import "errors"

var (
	ErrInvalidFileType   = errors.New("invalid file type")
	ErrExtensionMismatch = errors.New("file extension does not match content")
)
