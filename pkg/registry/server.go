// Package registry serves a package library from a local directory using the
// same URL layout as the raw GitHub host, so a [source.Client] pointed at it
// with [source.WithBaseURL] behaves exactly as against the upstream library.
//
// The directory mirrors the repository tree:
//
//	root/lib/{id}/bpl.json
//	root/lib/{id}/{bin}
//
// Besides raw files the server offers a small search API used by package
// portals:
//
//	GET /api/packages?query=al
//	[{"id":"alpha","name":"Alpha","version":"1.0","author":"bad"}]
package registry

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"io/fs"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	bpmerrors "github.com/badtechnologies/bpm/pkg/errors"
	"github.com/badtechnologies/bpm/pkg/source"
)

const shutdownTimeout = 5 * time.Second

// Entry is one row of the package listing.
type Entry struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Version  string `json:"version"`
	Author   string `json:"author"`
	Homepage string `json:"homepage,omitempty"`
}

// Server serves the package tree under root for a single set of coordinates.
// Requests for any other owner, repo or branch get 404.
type Server struct {
	root   string
	coords source.Coordinates
	logger *log.Logger
}

// Option configures a [Server].
type Option func(*Server)

// WithLogger sets the logger used for request and listing diagnostics.
func WithLogger(l *log.Logger) Option {
	return func(s *Server) { s.logger = l }
}

// NewServer creates a Server for the tree at root.
func NewServer(root string, coords source.Coordinates, opts ...Option) *Server {
	s := &Server{
		root:   root,
		coords: coords,
		logger: log.New(io.Discard),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Coordinates returns the coordinates the server answers for.
func (s *Server) Coordinates() source.Coordinates { return s.coords }

// Handler returns the HTTP routes of the server.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(s.logRequests)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = io.WriteString(w, "ok\n")
	})
	r.Get("/api/packages", s.handleList)
	// Branches may contain "/", so everything after the repo is matched by
	// handleFile itself.
	r.Get("/{owner}/{repo}/*", s.handleFile)
	return r
}

// ListenAndServe serves on addr until ctx is canceled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}
}

func (s *Server) handleFile(w http.ResponseWriter, r *http.Request) {
	if chi.URLParam(r, "owner") != s.coords.Owner || chi.URLParam(r, "repo") != s.coords.Repo {
		http.NotFound(w, r)
		return
	}
	rest, ok := strings.CutPrefix(chi.URLParam(r, "*"), s.coords.Branch+"/lib/")
	if !ok {
		http.NotFound(w, r)
		return
	}
	rawID, rawFile, ok := strings.Cut(rest, "/")
	if !ok {
		http.NotFound(w, r)
		return
	}

	id, err1 := url.PathUnescape(rawID)
	file, err2 := url.PathUnescape(rawFile)
	if err := errors.Join(err1, err2); err != nil {
		http.Error(w, "invalid path", http.StatusBadRequest)
		return
	}
	if err := bpmerrors.ValidatePackageName(id); err != nil {
		http.Error(w, bpmerrors.UserMessage(err), http.StatusBadRequest)
		return
	}
	if err := bpmerrors.ValidateRelativePath(file); err != nil {
		http.Error(w, bpmerrors.UserMessage(err), http.StatusBadRequest)
		return
	}

	path := filepath.Join(s.root, "lib", id, filepath.FromSlash(file))
	f, err := os.Open(path)
	if err != nil {
		http.NotFound(w, r)
		return
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil || info.IsDir() {
		http.NotFound(w, r)
		return
	}
	if file == source.MetadataFile {
		w.Header().Set("Content-Type", "application/json")
	}
	http.ServeContent(w, r, info.Name(), info.ModTime(), f)
}

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	entries, err := s.Packages(r.URL.Query().Get("query"))
	if err != nil {
		s.logger.Error("list packages", "err", err)
		http.Error(w, "could not list packages", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(entries)
}

// Packages lists the packages under root/lib whose identifier or name
// contains query, ignoring case, sorted by identifier. An empty query
// matches everything. Directories without a valid descriptor are skipped.
func (s *Server) Packages(query string) ([]Entry, error) {
	dirs, err := os.ReadDir(filepath.Join(s.root, "lib"))
	if errors.Is(err, fs.ErrNotExist) {
		return []Entry{}, nil
	}
	if err != nil {
		return nil, err
	}

	q := strings.ToLower(strings.TrimSpace(query))
	entries := []Entry{}
	for _, d := range dirs {
		if !d.IsDir() {
			continue
		}
		id := d.Name()
		data, err := os.ReadFile(filepath.Join(s.root, "lib", id, source.MetadataFile))
		if err != nil {
			s.logger.Debug("skip package without descriptor", "id", id)
			continue
		}
		desc, err := source.ParseDescriptor(id, data)
		if err != nil {
			s.logger.Warn("skip package with invalid descriptor", "id", id, "err", err)
			continue
		}
		if q != "" && !strings.Contains(strings.ToLower(id), q) && !strings.Contains(strings.ToLower(desc.Name), q) {
			continue
		}
		entries = append(entries, Entry{
			ID:       id,
			Name:     desc.Name,
			Version:  desc.Version,
			Author:   desc.Author,
			Homepage: desc.Homepage,
		})
	}

	slices.SortFunc(entries, func(a, b Entry) int { return strings.Compare(a.ID, b.ID) })
	return entries, nil
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.logger.Debug("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"duration", time.Since(start))
	})
}
