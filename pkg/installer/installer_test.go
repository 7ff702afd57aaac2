package installer

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	bpmerrors "github.com/badtechnologies/bpm/pkg/errors"
	"github.com/badtechnologies/bpm/pkg/source"
)

// fakeFetcher returns a fixed payload per binary URL and counts calls.
type fakeFetcher struct {
	bins  map[string][]byte
	calls int
}

func (f *fakeFetcher) FetchBinary(_ context.Context, pkg *source.Package) ([]byte, error) {
	f.calls++
	data, ok := f.bins[pkg.BinaryURL]
	if !ok {
		return nil, bpmerrors.BinaryFetchFailed(pkg.ID, http.StatusForbidden)
	}
	return data, nil
}

func binPkg(id, url string) *source.Package {
	return &source.Package{
		Descriptor: source.Descriptor{ID: id, Name: id, Version: "1.0", Bin: id},
		BinaryURL:  url,
	}
}

func TestInstall(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "bdsh", "exec")
	f := &fakeFetcher{bins: map[string][]byte{
		"u/alpha": []byte("alpha-bin"),
		"u/beta":  []byte("beta-bin"),
	}}
	var out bytes.Buffer
	in := New(f, Options{Dir: dir, Out: &out})

	meta := &source.Package{Descriptor: source.Descriptor{ID: "meta", Name: "Meta", Version: "2"}}
	rep, err := in.Install(context.Background(), []*source.Package{
		binPkg("alpha", "u/alpha"),
		meta,
		binPkg("denied", "u/denied"),
		binPkg("beta", "u/beta"),
	})
	if err != nil {
		t.Fatalf("Install() error: %v", err)
	}

	want := "Installing alpha-1.0 (alpha)\n" +
		"Installing meta-2 (Meta)\n" +
		"Installing denied-1.0 (denied)\n" +
		"\tHTTP 403; could not access package binaries\n" +
		"Installing beta-1.0 (beta)\n"
	if out.String() != want {
		t.Errorf("output =\n%q\nwant\n%q", out.String(), want)
	}

	for id, content := range map[string]string{"alpha": "alpha-bin", "beta": "beta-bin"} {
		data, err := os.ReadFile(filepath.Join(dir, id))
		if err != nil {
			t.Fatalf("read %s: %v", id, err)
		}
		if string(data) != content {
			t.Errorf("%s content = %q, want %q", id, data, content)
		}
		info, _ := os.Stat(filepath.Join(dir, id))
		if info.Mode().Perm() != FileMode {
			t.Errorf("%s mode = %v, want %v", id, info.Mode().Perm(), FileMode)
		}
	}
	for _, id := range []string{"meta", "denied"} {
		if _, err := os.Stat(filepath.Join(dir, id)); !os.IsNotExist(err) {
			t.Errorf("%s should not be written", id)
		}
	}

	if f.calls != 3 {
		t.Errorf("fetches = %d, want 3 (metadata-only package skipped)", f.calls)
	}
	if rep.Count(StatusInstalled) != 2 || rep.Count(StatusSkipped) != 1 || rep.Failed() != 1 {
		t.Errorf("report = %+v", rep.Outcomes)
	}
	if rep.ID == "" {
		t.Error("report should carry a transaction ID")
	}
}

func TestInstallOverwrites(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "alpha")
	if err := os.WriteFile(path, []byte("old"), 0o600); err != nil {
		t.Fatal(err)
	}

	f := &fakeFetcher{bins: map[string][]byte{"first": []byte("first"), "second": []byte("second")}}
	in := New(f, Options{Dir: dir})

	first, second := binPkg("alpha", "first"), binPkg("alpha", "second")
	rep, err := in.Install(context.Background(), []*source.Package{first, second})
	if err != nil {
		t.Fatal(err)
	}
	if f.calls != 2 || rep.Count(StatusInstalled) != 2 {
		t.Errorf("calls = %d, installed = %d, want 2/2", f.calls, rep.Count(StatusInstalled))
	}

	data, _ := os.ReadFile(path)
	if string(data) != "second" {
		t.Errorf("content = %q, want second", data)
	}
	info, _ := os.Stat(path)
	if info.Mode().Perm() != FileMode {
		t.Errorf("mode = %v, want %v", info.Mode().Perm(), FileMode)
	}
}

func TestInstallRejectsUnsafeID(t *testing.T) {
	dir := t.TempDir()
	f := &fakeFetcher{bins: map[string][]byte{"u": []byte("x")}}
	in := New(f, Options{Dir: dir})

	rep, err := in.Install(context.Background(), []*source.Package{binPkg("../escape", "u")})
	if err != nil {
		t.Fatal(err)
	}
	if rep.Failed() != 1 {
		t.Errorf("Failed() = %d, want 1", rep.Failed())
	}
	if f.calls != 0 {
		t.Error("binary fetched for invalid identifier")
	}
	if _, err := os.Stat(filepath.Join(filepath.Dir(dir), "escape")); !os.IsNotExist(err) {
		t.Error("file written outside the managed directory")
	}
}

func TestInstallCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	f := &fakeFetcher{}
	rep, err := New(f, Options{Dir: t.TempDir()}).Install(ctx, []*source.Package{binPkg("alpha", "u")})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("Install() error = %v, want context.Canceled", err)
	}
	if len(rep.Outcomes) != 0 || f.calls != 0 {
		t.Error("canceled install should not process packages")
	}
}

func TestRemove(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "alpha"), []byte("x"), FileMode); err != nil {
		t.Fatal(err)
	}

	var out bytes.Buffer
	in := New(&fakeFetcher{}, Options{Dir: dir, Out: &out})

	rep, err := in.Remove(context.Background(), []string{"alpha", "missing"})
	if err != nil {
		t.Fatalf("Remove() error: %v", err)
	}

	want := "Deleting alpha\n" +
		"Deleting missing\n" +
		"\tCould not find package, skipping\n"
	if out.String() != want {
		t.Errorf("output =\n%q\nwant\n%q", out.String(), want)
	}
	if _, err := os.Stat(filepath.Join(dir, "alpha")); !os.IsNotExist(err) {
		t.Error("alpha should be deleted")
	}
	if rep.Count(StatusRemoved) != 1 || rep.Count(StatusNotFound) != 1 || rep.Failed() != 0 {
		t.Errorf("report = %+v", rep.Outcomes)
	}
	if !bpmerrors.Is(rep.Outcomes[1].Err, bpmerrors.ErrCodeArtifactNotFound) {
		t.Errorf("missing outcome err = %v", rep.Outcomes[1].Err)
	}
}

func TestRemoveIdempotent(t *testing.T) {
	dir := t.TempDir()
	in := New(&fakeFetcher{}, Options{Dir: filepath.Join(dir, "absent")})

	for i := 0; i < 2; i++ {
		rep, err := in.Remove(context.Background(), []string{"ghost"})
		if err != nil {
			t.Fatalf("Remove() #%d error: %v", i, err)
		}
		if rep.Count(StatusNotFound) != 1 {
			t.Errorf("Remove() #%d outcomes = %+v", i, rep.Outcomes)
		}
	}
}

func TestRemoveInvalidAndDirectory(t *testing.T) {
	dir := t.TempDir()
	if err := os.Mkdir(filepath.Join(dir, "sub"), 0o755); err != nil {
		t.Fatal(err)
	}
	in := New(&fakeFetcher{}, Options{Dir: dir})

	rep, err := in.Remove(context.Background(), []string{"../x", "sub"})
	if err != nil {
		t.Fatal(err)
	}
	if rep.Failed() != 2 {
		t.Errorf("Failed() = %d, want 2", rep.Failed())
	}
	if _, err := os.Stat(filepath.Join(dir, "sub")); err != nil {
		t.Error("directory should not be removed")
	}
}

func TestInstallOverHTTP(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/owner/repo/main/lib/alpha/alpha":
			w.Write([]byte("#!/bin/sh\necho alpha\n"))
		case "/owner/repo/main/lib/beta/beta":
			w.Write([]byte("#!/bin/sh\necho beta\n"))
		default:
			http.NotFound(w, r)
		}
	}))
	defer server.Close()

	client := source.NewClient(source.WithBaseURL(server.URL))
	coords := source.Coordinates{Owner: "owner", Repo: "repo", Branch: "main"}
	pkgs := []*source.Package{
		binPkg("alpha", client.BinaryURL(coords, "alpha", "alpha")),
		binPkg("beta", client.BinaryURL(coords, "beta", "beta")),
	}

	dir := t.TempDir()
	rep, err := New(client, Options{Dir: dir}).Install(context.Background(), pkgs)
	if err != nil {
		t.Fatal(err)
	}
	if rep.Count(StatusInstalled) != 2 {
		t.Fatalf("outcomes = %+v", rep.Outcomes)
	}
	data, _ := os.ReadFile(filepath.Join(dir, "beta"))
	if string(data) != "#!/bin/sh\necho beta\n" {
		t.Errorf("beta content = %q", data)
	}
}

func TestReportIDsUnique(t *testing.T) {
	in := New(&fakeFetcher{}, Options{Dir: t.TempDir()})
	a, _ := in.Remove(context.Background(), nil)
	b, _ := in.Remove(context.Background(), nil)
	if a.ID == b.ID {
		t.Errorf("transaction IDs should differ, both %q", a.ID)
	}
}
