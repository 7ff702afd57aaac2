// Package source reads package metadata and binaries from a package library
// hosted as raw files.
//
// # Layout
//
// A library is a tree addressed by [Coordinates] (owner, repo, branch). Each
// package lives in its own directory:
//
//	{base}/{owner}/{repo}/{branch}/lib/{id}/bpl.json
//	{base}/{owner}/{repo}/{branch}/lib/{id}/{bin}
//
// where base defaults to https://raw.githubusercontent.com and bin is the
// relative path declared by the descriptor.
//
// # Client
//
// [Client] wraps net/http with a request timeout, a User-Agent header and
// opt-in retries. [Client.FetchPackage] maps transport outcomes onto the
// coded errors of [github.com/badtechnologies/bpm/pkg/errors]:
//
//	client := source.NewClient()
//	pkg, err := client.FetchPackage(ctx, "alpha", source.MustParseCoordinates(source.DefaultRepo))
//	if errors.Is(err, errors.ErrCodePackageNotFound) {
//	    // report and continue with the next package
//	}
//
// No responses are cached; every call reaches the source.
package source
