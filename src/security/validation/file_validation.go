package validation

import (
	"bytes"
	"fmt"
	"io"
	"mime"
	"path/filepath"
	"strings"

	"github.com/rafaavmsilva/Menu/src/logger"
)

var (
	zipSignature  = []byte("PK\x03\x04")
	ole2Signature = []byte{0xD0, 0xCF, 0x11, 0xE0, 0xA1, 0xB1, 0x1A, 0xE1}
)

// allowedClientContentType reports whether a client-declared MIME type is acceptable.
// Browsers and curl often send a generic type for spreadsheets, so those pass too;
// the magic bytes check is the authoritative one.
func allowedClientContentType(mediaType string) bool {
	switch strings.ToLower(mediaType) {
	case "",
		"application/vnd.ms-excel",
		"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
		"application/octet-stream",
		"application/zip",
		"application/x-zip-compressed":
		return true
	}
	return false
}

// ValidateExtension accepts only .xls and .xlsx file names.
func ValidateExtension(filename string) error {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".xls", ".xlsx":
		return nil
	}
	return fmt.Errorf("%w: arquivo não permitido '%s', envie um .xls ou .xlsx", ErrValidationFailed, filename)
}

// ValidateClientContentType checks the Content-Type header provided by the client.
func ValidateClientContentType(contentType string) error {
	mediaType := ""
	if contentType != "" {
		parsed, _, err := mime.ParseMediaType(contentType)
		if err != nil {
			return fmt.Errorf("%w: invalid content type '%s'", ErrValidationFailed, contentType)
		}
		mediaType = parsed
	}
	if !allowedClientContentType(mediaType) {
		logger.L.Warn("Disallowed client-declared Content-Type", "contentType", contentType)
		return fmt.Errorf("%w: client-declared file type '%s' is not allowed for spreadsheet upload", ErrValidationFailed, contentType)
	}
	return nil
}

// ValidateFileContentByMagicBytes checks the file signature against its extension:
// .xlsx files are ZIP containers and .xls files are OLE2 compound documents.
// The reader is rewound before returning.
func ValidateFileContentByMagicBytes(file io.ReadSeeker, filename string) (string, error) {
	if file == nil {
		return "", fmt.Errorf("%w: file is nil", ErrValidationFailed)
	}

	buffer := make([]byte, len(ole2Signature))
	n, err := io.ReadFull(file, buffer)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return "", fmt.Errorf("failed to read file for content type checking: %w", err)
	}

	// Reset the file read pointer so the file can be stored in full.
	if _, seekErr := file.Seek(0, io.SeekStart); seekErr != nil {
		return "", fmt.Errorf("failed to reset file read pointer: %w", seekErr)
	}

	if n == 0 {
		return "", fmt.Errorf("%w: file is empty", ErrValidationFailed)
	}
	head := buffer[:n]

	switch strings.ToLower(filepath.Ext(filename)) {
	case ".xlsx":
		if bytes.HasPrefix(head, zipSignature) {
			return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", nil
		}
	case ".xls":
		if bytes.HasPrefix(head, ole2Signature) {
			return "application/vnd.ms-excel", nil
		}
	default:
		return "", ValidateExtension(filename)
	}

	logger.L.Warn("File rejected: signature does not match extension", "filename", filename)
	return "application/octet-stream", fmt.Errorf("%w: file content does not match its extension", ErrValidationFailed)
}
