package source

import (
	"encoding/json"
	"fmt"

	bpmerrors "github.com/badtechnologies/bpm/pkg/errors"
)

// MetadataFile is the name of the descriptor document inside a package
// directory.
const MetadataFile = "bpl.json"

// Descriptor is the parsed metadata document for one package.
//
// Version is opaque; bpm imposes no ordering on it. Requires may be empty and
// may contain duplicates or the package's own identifier.
type Descriptor struct {
	ID       string   `json:"id"`                 // Identifier used to look the package up
	Name     string   `json:"name"`               // Display name
	Version  string   `json:"version"`            // Opaque version string
	Author   string   `json:"author"`             // Package author
	Bin      string   `json:"bin,omitempty"`      // Binary path relative to the package directory
	Homepage string   `json:"homepage,omitempty"` // Project homepage URL
	Requires []string `json:"requires"`           // Dependency identifiers, in declared order
}

// Package is a resolved descriptor: the metadata plus the fully qualified
// download URL of its binary. BinaryURL is empty for metadata-only packages.
type Package struct {
	Descriptor
	BinaryURL string `json:"bin_url,omitempty"`
}

// HasBinary reports whether the package declares an installable artifact.
func (p *Package) HasBinary() bool { return p.BinaryURL != "" }

// String returns "<id>-<version> (<name>)", the form used in progress lines.
func (p *Package) String() string {
	return fmt.Sprintf("%s-%s (%s)", p.ID, p.Version, p.Name)
}

type descriptorDoc struct {
	Name     *string  `json:"name"`
	Version  *string  `json:"version"`
	Author   *string  `json:"author"`
	Bin      *string  `json:"bin"`
	Homepage *string  `json:"homepage"`
	Requires []string `json:"requires"`
}

// ParseDescriptor decodes a metadata document fetched for id.
//
// name, version and author are required; a document missing any of them, or
// one that is not a JSON object, yields a MALFORMED_METADATA error for this
// package only. A missing requires list defaults to empty.
func ParseDescriptor(id string, data []byte) (*Descriptor, error) {
	var doc descriptorDoc
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, malformed(id, err, "invalid metadata document")
	}

	var missing []string
	if doc.Name == nil {
		missing = append(missing, "name")
	}
	if doc.Version == nil {
		missing = append(missing, "version")
	}
	if doc.Author == nil {
		missing = append(missing, "author")
	}
	if len(missing) > 0 {
		return nil, malformed(id, nil, "metadata missing required field(s): %v", missing)
	}

	d := &Descriptor{
		ID:       id,
		Name:     *doc.Name,
		Version:  *doc.Version,
		Author:   *doc.Author,
		Requires: doc.Requires,
	}
	if doc.Bin != nil && *doc.Bin != "" {
		if err := bpmerrors.ValidateRelativePath(*doc.Bin); err != nil {
			return nil, malformed(id, err, "invalid bin path %q", *doc.Bin)
		}
		d.Bin = *doc.Bin
	}
	if doc.Homepage != nil {
		d.Homepage = *doc.Homepage
	}
	if d.Requires == nil {
		d.Requires = []string{}
	}
	return d, nil
}

func malformed(id string, cause error, format string, args ...any) *bpmerrors.Error {
	e := bpmerrors.Wrap(bpmerrors.ErrCodeMalformedMetadata, cause, "%s: "+format, append([]any{id}, args...)...)
	e.Package = id
	return e
}
