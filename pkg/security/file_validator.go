package security

import (
	"bytes"
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

// FileValidationResult contains the result of file validation
type FileValidationResult struct {
	Valid        bool   // Whether the file passed all validation checks
	Extension    string // Detected file extension
	DetectedMIME string // Detected MIME type
	Error        string // User-facing error message if validation failed
}

// Magic byte signatures for allowed document types
// Maps lowercase extension to possible magic byte prefixes
var magicBytes = map[string][][]byte{
	".pdf":  {{0x25, 0x50, 0x44, 0x46}},                         // %PDF
	".doc":  {{0xD0, 0xCF, 0x11, 0xE0, 0xA1, 0xB1, 0x1A, 0xE1}}, // OLE Compound Document
	".docx": {{0x50, 0x4B, 0x03, 0x04}},                         // ZIP (PK..)
	".rtf":  {{0x7B, 0x5C, 0x72, 0x74, 0x66}},                   // {\rtf
	".txt":  {},                                                 // Text files have no magic bytes - rely on MIME detection
}

// MIME types accepted for resumes and supplementary documents.
// application/octet-stream is deliberately absent.
var strictMIMETypes = []string{
	"application/pdf",
	"application/msword",
	"application/x-ole-storage",
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document",
	"application/zip", // DOCX detection fallback for minimal archives
	"text/rtf",
	"text/plain",
}

// ValidateDocument performs 4-layer validation of an uploaded document:
// 1. Size limit (maxBytes <= 0 disables it)
// 2. Extension whitelist check
// 3. Magic byte verification (content matches extension)
// 4. Detected MIME type whitelist
func ValidateDocument(filename string, data []byte, maxBytes int64) FileValidationResult {
	result := FileValidationResult{}

	if len(data) == 0 {
		result.Error = "File is empty"
		return result
	}
	if maxBytes > 0 && int64(len(data)) > maxBytes {
		result.Error = "File is too large (max " + formatSize(maxBytes) + ")"
		return result
	}

	// Sanitize and extract extension
	ext := strings.ToLower(filepath.Ext(filename))
	if ext == "" {
		result.Error = "File has no extension"
		return result
	}
	result.Extension = ext

	// Layer 2: Extension whitelist
	if _, ok := magicBytes[ext]; !ok {
		result.Error = fmt.Sprintf("File type %s is not allowed (use %s)", ext, strings.Join(AllowedExtensions(), ", "))
		return result
	}

	// Layer 3: Magic byte validation
	if !validateMagicBytes(ext, data) {
		result.Error = "File content does not match its extension"
		return result
	}

	// Layer 4: MIME type whitelist
	detected := mimetype.Detect(data)
	result.DetectedMIME = detected.String()
	if !mimeAllowed(detected) {
		result.Error = "File type could not be verified"
		return result
	}

	result.Valid = true
	return result
}

func mimeAllowed(detected *mimetype.MIME) bool {
	for _, allowed := range strictMIMETypes {
		if detected.Is(allowed) {
			return true
		}
	}
	return false
}

// validateMagicBytes checks if file content starts with expected magic bytes
func validateMagicBytes(ext string, data []byte) bool {
	signatures, ok := magicBytes[ext]
	if !ok {
		return false // Unknown extension
	}

	// Empty signatures array = no magic bytes to check (e.g., txt)
	if len(signatures) == 0 {
		return true
	}

	for _, sig := range signatures {
		if bytes.HasPrefix(data, sig) {
			return true
		}
	}

	return false
}

// AllowedExtensions returns the allowed extensions, sorted, for error messages
func AllowedExtensions() []string {
	extensions := make([]string, 0, len(magicBytes))
	for ext := range magicBytes {
		extensions = append(extensions, ext)
	}
	sort.Strings(extensions)
	return extensions
}

func formatSize(n int64) string {
	switch {
	case n >= 1<<20:
		return fmt.Sprintf("%d MB", n>>20)
	case n >= 1<<10:
		return fmt.Sprintf("%d KB", n>>10)
	default:
		return fmt.Sprintf("%d bytes", n)
	}
}
