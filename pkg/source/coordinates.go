package source

import (
	"fmt"
	"strings"

	bpmerrors "github.com/badtechnologies/bpm/pkg/errors"
)

// DefaultRepo is the upstream package library used when no repository is
// configured.
const DefaultRepo = "badtechnologies/bpl/main"

// DefaultBaseURL is the raw-content host that serves metadata and binaries.
const DefaultBaseURL = "https://raw.githubusercontent.com"

// Coordinates identify the hosted tree packages are read from. The same
// coordinates apply to requested packages and to every transitive
// dependency; there are no per-dependency overrides.
type Coordinates struct {
	Owner  string
	Repo   string
	Branch string
}

// ParseCoordinates parses an "owner/repo/branch" string. Everything after
// the second "/" is the branch, so "owner/repo/feature/x" names the branch
// "feature/x".
func ParseCoordinates(s string) (Coordinates, error) {
	parts := strings.SplitN(strings.TrimSpace(s), "/", 3)
	if len(parts) != 3 {
		return Coordinates{}, bpmerrors.New(bpmerrors.ErrCodeInvalidSource,
			"repo %q must be in the format \"owner/repo/branch\"", s)
	}
	c := Coordinates{Owner: parts[0], Repo: parts[1], Branch: parts[2]}
	if err := c.Validate(); err != nil {
		return Coordinates{}, err
	}
	return c, nil
}

// MustParseCoordinates is like [ParseCoordinates] but panics on error.
// It is intended for constants and tests.
func MustParseCoordinates(s string) Coordinates {
	c, err := ParseCoordinates(s)
	if err != nil {
		panic(err)
	}
	return c
}

// Validate checks that owner and repo are plausible GitHub names and that
// the branch is a valid, possibly nested, branch name.
func (c Coordinates) Validate() error {
	if err := bpmerrors.ValidateCoordinatePart("owner", c.Owner); err != nil {
		return err
	}
	if err := bpmerrors.ValidateCoordinatePart("repo", c.Repo); err != nil {
		return err
	}
	return bpmerrors.ValidateBranch(c.Branch)
}

// String returns the "owner/repo/branch" form.
func (c Coordinates) String() string {
	return fmt.Sprintf("%s/%s/%s", c.Owner, c.Repo, c.Branch)
}
