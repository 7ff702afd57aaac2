package errors

import (
	"regexp"
	"strings"
	"unicode"
)

const maxPackageNameLength = 256

// ValidatePackageName validates a package identifier for safety.
//
// Identifiers become both URL path segments and filenames inside the managed
// executable directory, so the rules are conservative:
//   - No empty names
//   - No control characters or whitespace
//   - No path separators or traversal sequences
//   - Maximum length of 256 characters
func ValidatePackageName(name string) error {
	if name == "" {
		return New(ErrCodeInvalidPackage, "package name cannot be empty")
	}

	if len(name) > maxPackageNameLength {
		return New(ErrCodeInvalidPackage, "package name too long (max %d characters)", maxPackageNameLength)
	}

	for _, r := range name {
		if unicode.IsControl(r) || unicode.IsSpace(r) {
			return New(ErrCodeInvalidPackage, "package name %q contains whitespace or control characters", name)
		}
	}

	if name == "." || name == ".." {
		return New(ErrCodeInvalidPackage, "package name %q is reserved", name)
	}

	for _, pattern := range []string{"/", "\\", ".."} {
		if strings.Contains(name, pattern) {
			return New(ErrCodeInvalidPackage, "package name %q contains invalid characters: %q", name, pattern)
		}
	}

	return nil
}

// ValidateRelativePath validates the binary path declared by a descriptor.
// It must stay inside the package's directory on the source.
func ValidateRelativePath(path string) error {
	if path == "" {
		return New(ErrCodeInvalidInput, "path cannot be empty")
	}
	for _, r := range path {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidInput, "path contains invalid characters")
		}
	}
	if strings.HasPrefix(path, "/") {
		return New(ErrCodeInvalidInput, "path must be relative (cannot start with /)")
	}
	if strings.Contains(path, "..") {
		return New(ErrCodeInvalidInput, "path cannot contain path traversal sequences (..)")
	}
	if strings.Contains(path, "\\") {
		return New(ErrCodeInvalidInput, "path cannot contain backslashes")
	}
	return nil
}

// coordinatePartRegex matches a GitHub owner, repository or branch segment.
var coordinatePartRegex = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._-]*$`)

// ValidateCoordinatePart validates one segment of an "owner/repo/branch" triple.
func ValidateCoordinatePart(kind, value string) error {
	if value == "" {
		return New(ErrCodeInvalidSource, "%s cannot be empty", kind)
	}
	if value == "." || value == ".." || !coordinatePartRegex.MatchString(value) {
		return New(ErrCodeInvalidSource, "invalid %s: %q", kind, value)
	}
	return nil
}

// ValidateBranch validates a branch name. Unlike owner and repository names,
// branches may contain "/", but every segment must be a valid coordinate
// part.
func ValidateBranch(value string) error {
	if value == "" {
		return New(ErrCodeInvalidSource, "branch cannot be empty")
	}
	for _, seg := range strings.Split(value, "/") {
		if seg == "" || seg == "." || seg == ".." || !coordinatePartRegex.MatchString(seg) {
			return New(ErrCodeInvalidSource, "invalid branch: %q", value)
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
