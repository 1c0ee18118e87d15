package domain

import "errors"

var (
	ErrNotFound            = errors.New("resource not found")
	ErrUnsupportedFileType = errors.New("unsupported file type")
	ErrFileTooLarge        = errors.New("file exceeds maximum allowed size")
	ErrDocumentNotFound    = errors.New("document not found")
	ErrEmptyDocument       = errors.New("no content could be extracted from document")
	ErrUnsupportedExport   = errors.New("unsupported export format")
)
