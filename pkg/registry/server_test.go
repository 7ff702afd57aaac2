package registry

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"github.com/badtechnologies/bpm/pkg/source"
)

var coords = source.Coordinates{Owner: "badtechnologies", Repo: "bpl", Branch: "main"}

func writeTree(t *testing.T, files map[string]string) string {
	t.Helper()
	root := t.TempDir()
	for name, content := range files {
		path := filepath.Join(root, filepath.FromSlash(name))
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	return root
}

func testTree(t *testing.T) string {
	return writeTree(t, map[string]string{
		"lib/alpha/bpl.json":     `{"name":"Alpha","version":"1.0","author":"bad","bin":"bin/alpha.py","requires":["beta"]}`,
		"lib/alpha/bin/alpha.py": "print('alpha')\n",
		"lib/beta/bpl.json":      `{"name":"Beta Tools","version":"0.2","author":"bad","homepage":"https://example.com/beta"}`,
		"lib/broken/bpl.json":    `{"name":"Broken"}`,
		"lib/empty/README":       "no descriptor",
		"secret.txt":             "top secret",
	})
}

func TestServeFiles(t *testing.T) {
	h := NewServer(testTree(t), coords).Handler()

	tests := []struct {
		name     string
		path     string
		wantCode int
		wantBody string
		wantType string
	}{
		{"metadata", "/badtechnologies/bpl/main/lib/alpha/bpl.json", 200, "", "application/json"},
		{"nested binary", "/badtechnologies/bpl/main/lib/alpha/bin/alpha.py", 200, "print('alpha')\n", ""},
		{"missing package", "/badtechnologies/bpl/main/lib/ghost/bpl.json", 404, "", ""},
		{"missing file", "/badtechnologies/bpl/main/lib/alpha/nope", 404, "", ""},
		{"directory", "/badtechnologies/bpl/main/lib/alpha/bin", 404, "", ""},
		{"other branch", "/badtechnologies/bpl/dev/lib/alpha/bpl.json", 404, "", ""},
		{"other owner", "/someone/bpl/main/lib/alpha/bpl.json", 404, "", ""},
		{"branch prefix", "/badtechnologies/bpl/mainline/lib/alpha/bpl.json", 404, "", ""},
		{"package without file", "/badtechnologies/bpl/main/lib/alpha", 404, "", ""},
		{"traversal in file", "/badtechnologies/bpl/main/lib/alpha/../../secret.txt", 400, "", ""},
		{"encoded traversal", "/badtechnologies/bpl/main/lib/alpha/..%2F..%2Fsecret.txt", 400, "", ""},
		{"traversal in id", "/badtechnologies/bpl/main/lib/../secret.txt", 400, "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, tt.path, nil))

			if rec.Code != tt.wantCode {
				t.Fatalf("status = %d, want %d (body %q)", rec.Code, tt.wantCode, rec.Body.String())
			}
			if tt.wantBody != "" && rec.Body.String() != tt.wantBody {
				t.Errorf("body = %q, want %q", rec.Body.String(), tt.wantBody)
			}
			if tt.wantType != "" && rec.Header().Get("Content-Type") != tt.wantType {
				t.Errorf("Content-Type = %q, want %q", rec.Header().Get("Content-Type"), tt.wantType)
			}
		})
	}
}

func TestServeNestedBranch(t *testing.T) {
	nested := source.MustParseCoordinates("badtechnologies/bpl/feature/x")
	h := NewServer(testTree(t), nested).Handler()

	tests := []struct {
		path     string
		wantCode int
	}{
		{"/badtechnologies/bpl/feature/x/lib/alpha/bpl.json", 200},
		{"/badtechnologies/bpl/feature/x/lib/alpha/bin/alpha.py", 200},
		{"/badtechnologies/bpl/feature/lib/alpha/bpl.json", 404},
		{"/badtechnologies/bpl/main/lib/alpha/bpl.json", 404},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, tt.path, nil))
			if rec.Code != tt.wantCode {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantCode)
			}
		})
	}
}

func TestPackages(t *testing.T) {
	s := NewServer(testTree(t), coords)

	tests := []struct {
		query string
		want  []string
	}{
		{"", []string{"alpha", "beta"}},
		{"ALP", []string{"alpha"}},
		{"tools", []string{"beta"}},
		{"zzz", []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			entries, err := s.Packages(tt.query)
			if err != nil {
				t.Fatalf("Packages() error: %v", err)
			}
			got := []string{}
			for _, e := range entries {
				got = append(got, e.ID)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Packages(%q) = %v, want %v", tt.query, got, tt.want)
			}
		})
	}
}

func TestPackagesMissingLib(t *testing.T) {
	entries, err := NewServer(t.TempDir(), coords).Packages("")
	if err != nil || entries == nil || len(entries) != 0 {
		t.Errorf("Packages() = %v, %v; want empty list", entries, err)
	}
}

func TestListAPI(t *testing.T) {
	srv := httptest.NewServer(NewServer(testTree(t), coords).Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/api/packages?query=beta")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	var entries []Entry
	if err := json.NewDecoder(resp.Body).Decode(&entries); err != nil {
		t.Fatalf("decode: %v", err)
	}
	want := []Entry{{ID: "beta", Name: "Beta Tools", Version: "0.2", Author: "bad", Homepage: "https://example.com/beta"}}
	if !reflect.DeepEqual(entries, want) {
		t.Errorf("entries = %+v, want %+v", entries, want)
	}

	resp, err = http.Get(srv.URL + "/api/packages?query=nothing")
	if err != nil {
		t.Fatal(err)
	}
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	if string(body) != "[]\n" {
		t.Errorf("empty listing = %q, want []", body)
	}
}

func TestHealthz(t *testing.T) {
	rec := httptest.NewRecorder()
	NewServer(t.TempDir(), coords).Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if rec.Code != http.StatusOK || rec.Body.String() != "ok\n" {
		t.Errorf("healthz = %d %q", rec.Code, rec.Body.String())
	}
}

func TestClientAgainstServer(t *testing.T) {
	srv := httptest.NewServer(NewServer(testTree(t), coords).Handler())
	defer srv.Close()

	client := source.NewClient(source.WithBaseURL(srv.URL))
	pkg, err := client.FetchPackage(context.Background(), "alpha", coords)
	if err != nil {
		t.Fatalf("FetchPackage() error: %v", err)
	}
	data, err := client.FetchBinary(context.Background(), pkg)
	if err != nil {
		t.Fatalf("FetchBinary() error: %v", err)
	}
	if string(data) != "print('alpha')\n" {
		t.Errorf("binary = %q", data)
	}

	if _, err := client.FetchPackage(context.Background(), "alpha", source.Coordinates{Owner: "x", Repo: "y", Branch: "z"}); err == nil {
		t.Error("FetchPackage() with foreign coordinates should fail")
	}
}

func TestListenAndServeShutdown(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- NewServer(t.TempDir(), coords).ListenAndServe(ctx, "127.0.0.1:0") }()

	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Errorf("ListenAndServe() error: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
}
