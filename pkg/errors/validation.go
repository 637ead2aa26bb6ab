package errors

import (
	"regexp"
	"strings"
	"unicode"
)

const maxNameLength = 128

// validateName applies the checks shared by font names and theme IDs:
// non-empty, bounded length, no control characters, no surrounding spaces.
func validateName(code Code, kind, name string) error {
	if name == "" {
		return New(code, "%s cannot be empty", kind)
	}
	if len(name) > maxNameLength {
		return New(code, "%s too long (max %d characters)", kind, maxNameLength)
	}
	for _, r := range name {
		if unicode.IsControl(r) {
			return New(code, "%s contains invalid control characters", kind)
		}
	}
	if strings.TrimSpace(name) != name {
		return New(code, "%s has leading or trailing whitespace", kind)
	}
	return nil
}

// ValidateFontName validates a human-readable font name such as
// "Zen Maru Gothic". Spaces and punctuation are allowed.
func ValidateFontName(name string) error {
	return validateName(ErrCodeInvalidFont, "font name", name)
}

// themeIDRegex matches theme identifiers like "dark", "light-2", "sakura_night".
var themeIDRegex = regexp.MustCompile(`^[a-z0-9][a-z0-9_-]*$`)

// ValidateThemeID validates a theme identifier.
func ValidateThemeID(id string) error {
	if err := validateName(ErrCodeInvalidTheme, "theme id", id); err != nil {
		return err
	}
	if !themeIDRegex.MatchString(id) {
		return New(ErrCodeInvalidTheme, "invalid theme id: %q", id)
	}
	return nil
}

// styleHandleRegex matches CSS class-like handles.
var styleHandleRegex = regexp.MustCompile(`^[A-Za-z_-][A-Za-z0-9_-]*$`)

// ValidateStyleHandle validates a style handle (a CSS class name).
func ValidateStyleHandle(handle string) error {
	if handle == "" {
		return New(ErrCodeInvalidCatalog, "style handle cannot be empty")
	}
	if len(handle) > maxNameLength {
		return New(ErrCodeInvalidCatalog, "style handle too long (max %d characters)", maxNameLength)
	}
	if !styleHandleRegex.MatchString(handle) {
		return New(ErrCodeInvalidCatalog, "invalid style handle: %q", handle)
	}
	return nil
}

// visitorIDRegex allows UUIDs and other opaque URL-safe tokens.
var visitorIDRegex = regexp.MustCompile(`^[A-Za-z0-9_-]{1,64}$`)

// ValidateVisitorID validates an opaque visitor identifier.
func ValidateVisitorID(id string) error {
	if id == "" {
		return New(ErrCodeInvalidVisitor, "visitor id cannot be empty")
	}
	if !visitorIDRegex.MatchString(id) {
		return New(ErrCodeInvalidVisitor, "invalid visitor id: %q", id)
	}
	return nil
}

// ValidatePath validates a catalog file path supplied by configuration.
//
// Validation rules:
//   - Path cannot be empty
//   - Maximum length of 500 characters
//   - No null bytes or control characters
//   - No path traversal sequences (..)
func ValidatePath(path string) error {
	if path == "" {
		return New(ErrCodeInvalidPath, "path cannot be empty")
	}

	const maxPathLength = 500
	if len(path) > maxPathLength {
		return New(ErrCodeInvalidPath, "path too long (max %d characters)", maxPathLength)
	}

	for _, r := range path {
		if r == '\x00' || unicode.IsControl(r) {
			return New(ErrCodeInvalidPath, "path contains invalid characters")
		}
	}

	for _, part := range strings.Split(path, "/") {
		if part == ".." {
			return New(ErrCodeInvalidPath, "path cannot contain path traversal sequences (..)")
		}
	}

	return nil
}

// ValidateURL validates a URL string for safety.
// It ensures the URL has a safe scheme (http or https).
func ValidateURL(rawURL string) error {
	if rawURL == "" {
		return New(ErrCodeInvalidInput, "URL cannot be empty")
	}

	if !strings.HasPrefix(rawURL, "http://") && !strings.HasPrefix(rawURL, "https://") {
		return New(ErrCodeInvalidInput, "URL must use http or https scheme")
	}

	return nil
}
