package errors

import (
	"strings"
	"unicode"
)

// ValidateSlotID validates a slot identifier for safety and correctness.
// Slot ids come from template definitions and API paths, so the rules are
// intentionally conservative:
//   - No empty ids
//   - No control characters
//   - No path separators or traversal sequences
//   - Maximum length of 64 characters
func ValidateSlotID(id string) error {
	if id == "" {
		return New(ErrCodeValidation, "slot id cannot be empty")
	}

	if len(id) > 64 {
		return New(ErrCodeValidation, "slot id too long (max 64 characters)")
	}

	for _, r := range id {
		if unicode.IsControl(r) {
			return New(ErrCodeValidation, "slot id contains invalid control characters")
		}
	}

	if strings.ContainsAny(id, "/\\") || strings.Contains(id, "..") {
		return New(ErrCodeValidation, "slot id contains invalid characters")
	}

	return nil
}

// ValidateFeatureKey validates an enhancement feature key.
// Feature keys index the credit-cost catalog, so unknown shapes are rejected
// before any remote call is made.
func ValidateFeatureKey(key string) error {
	if key == "" {
		return New(ErrCodeValidation, "feature key cannot be empty")
	}

	for _, r := range key {
		if !unicode.IsLower(r) && !unicode.IsDigit(r) && r != '_' {
			return New(ErrCodeValidation, "invalid feature key: %q", key)
		}
	}

	return nil
}

// ValidateURL validates a URL string for safety.
// It ensures the URL has a safe scheme (http or https) or is a local file
// reference, the only two forms slot URIs can take.
func ValidateURL(rawURL string) error {
	if rawURL == "" {
		return New(ErrCodeValidation, "URL cannot be empty")
	}

	if IsRemoteURL(rawURL) || strings.HasPrefix(rawURL, "file://") {
		return nil
	}

	// Bare paths are accepted as locally-cached capture output.
	if strings.Contains(rawURL, "://") {
		return New(ErrCodeValidation, "URL must use http, https, or file scheme")
	}

	return nil
}

// IsRemoteURL reports whether a URI already points at durable remote storage.
// Anything else is considered a transient local path that must be uploaded
// before it can appear in a persisted record.
func IsRemoteURL(uri string) bool {
	return strings.HasPrefix(uri, "http://") || strings.HasPrefix(uri, "https://")
}

// ValidateStoragePath validates an object-storage path for safety.
// It prevents path traversal and ensures reasonable path length.
func ValidateStoragePath(path string) error {
	if path == "" {
		return New(ErrCodeValidation, "storage path cannot be empty")
	}

	const maxPathLength = 500
	if len(path) > maxPathLength {
		return New(ErrCodeValidation, "storage path too long (max %d characters)", maxPathLength)
	}

	for _, r := range path {
		if r == '\x00' || unicode.IsControl(r) {
			return New(ErrCodeValidation, "storage path contains invalid characters")
		}
	}

	if strings.HasPrefix(path, "/") {
		return New(ErrCodeValidation, "storage path must be relative (cannot start with /)")
	}

	if strings.Contains(path, "..") {
		return New(ErrCodeValidation, "storage path cannot contain traversal sequences (..)")
	}

	if strings.Contains(path, "\\") {
		return New(ErrCodeValidation, "storage path cannot contain backslashes")
	}

	return nil
}
