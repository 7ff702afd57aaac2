package source

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/badtechnologies/bpm/pkg/buildinfo"
	bpmerrors "github.com/badtechnologies/bpm/pkg/errors"
	"github.com/badtechnologies/bpm/pkg/httputil"
	"github.com/badtechnologies/bpm/pkg/observability"
)

// DefaultTimeout bounds a single request so a stalled source cannot hang a run.
const DefaultTimeout = 30 * time.Second

var errServerStatus = errors.New("server error status")

// Response is the outcome of a transport call: the status and the full body.
type Response struct {
	StatusCode int
	Body       []byte
}

// OK reports whether the response carries status 200.
func (r *Response) OK() bool { return r.StatusCode == http.StatusOK }

// ProgressFunc returns a writer that observes the bytes of a binary download
// for pkg. size is -1 when the server does not announce a length. If the
// returned writer implements io.Closer it is closed when the download ends.
type ProgressFunc func(pkg string, size int64) io.Writer

// Client fetches package descriptors and binaries from a package source.
// It performs one attempt per request unless retries are configured.
type Client struct {
	http       *http.Client
	baseURL    string
	headers    map[string]string
	retries    int
	retryDelay time.Duration
	progress   ProgressFunc
}

// Option configures a [Client].
type Option func(*Client)

// WithBaseURL points the client at a different raw-content host, such as a
// local registry started with "bpm serve".
func WithBaseURL(base string) Option {
	return func(c *Client) { c.baseURL = strings.TrimRight(base, "/") }
}

// WithHTTPClient replaces the underlying *http.Client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.http = h }
}

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.http.Timeout = d }
}

// WithRetries enables up to n additional attempts for network errors and
// 5xx responses.
func WithRetries(n int, delay time.Duration) Option {
	return func(c *Client) {
		c.retries = max(n, 0)
		c.retryDelay = delay
	}
}

// WithHeaders adds headers sent with every request.
func WithHeaders(headers map[string]string) Option {
	return func(c *Client) {
		for k, v := range headers {
			c.headers[k] = v
		}
	}
}

// WithProgress registers a progress observer for binary downloads.
func WithProgress(fn ProgressFunc) Option {
	return func(c *Client) { c.progress = fn }
}

// NewClient creates a Client for the default raw GitHub host.
func NewClient(opts ...Option) *Client {
	c := &Client{
		http:       &http.Client{Timeout: DefaultTimeout},
		baseURL:    DefaultBaseURL,
		headers:    map[string]string{"User-Agent": buildinfo.UserAgent()},
		retryDelay: httputil.DefaultRetryDelay,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseURL returns the host URL the client reads from.
func (c *Client) BaseURL() string { return c.baseURL }

// MetadataURL returns the descriptor URL for id under coords.
func (c *Client) MetadataURL(coords Coordinates, id string) string {
	return FileURL(c.baseURL, coords, id, MetadataFile)
}

// BinaryURL returns the download URL of bin for id under coords, or "" when
// the package declares no binary.
func (c *Client) BinaryURL(coords Coordinates, id, bin string) string {
	if bin == "" {
		return ""
	}
	return FileURL(c.baseURL, coords, id, bin)
}

// FileURL formats base/{owner}/{repo}/{branch}/lib/{id}/{file}.
func FileURL(base string, coords Coordinates, id, file string) string {
	return fmt.Sprintf("%s/%s/%s/%s/lib/%s/%s",
		base, coords.Owner, coords.Repo, coords.Branch, url.PathEscape(id), file)
}

// FetchPackage fetches and parses the descriptor for id and resolves its
// binary URL against coords.
//
// Returns:
//   - PACKAGE_NOT_FOUND when the source answers 404
//   - METADATA_FETCH_FAILED carrying the status for any other non-200 answer
//   - MALFORMED_METADATA when the document is not a valid descriptor
//   - NETWORK_ERROR when the source could not be reached
//   - ctx.Err() when the context is canceled
func (c *Client) FetchPackage(ctx context.Context, id string, coords Coordinates) (*Package, error) {
	if err := bpmerrors.ValidatePackageName(id); err != nil {
		return nil, err
	}

	resp, err := c.Fetch(ctx, c.MetadataURL(coords, id))
	if err != nil {
		return nil, err
	}

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, bpmerrors.NotFound(id)
	case !resp.OK():
		return nil, bpmerrors.MetadataFetchFailed(id, resp.StatusCode)
	}

	desc, err := ParseDescriptor(id, resp.Body)
	if err != nil {
		return nil, err
	}
	return &Package{
		Descriptor: *desc,
		BinaryURL:  c.BinaryURL(coords, id, desc.Bin),
	}, nil
}

// FetchBinary downloads the binary of pkg. It returns BINARY_FETCH_FAILED
// carrying the status for any non-200 answer.
func (c *Client) FetchBinary(ctx context.Context, pkg *Package) ([]byte, error) {
	if !pkg.HasBinary() {
		return nil, bpmerrors.New(bpmerrors.ErrCodeInvalidInput, "%s: package declares no binary", pkg.ID)
	}

	var progress func(int64) io.Writer
	if c.progress != nil {
		progress = func(size int64) io.Writer { return c.progress(pkg.ID, size) }
	}

	resp, err := c.fetch(ctx, pkg.BinaryURL, progress)
	if err != nil {
		return nil, err
	}
	if !resp.OK() {
		return nil, bpmerrors.BinaryFetchFailed(pkg.ID, resp.StatusCode)
	}
	return resp.Body, nil
}

// Fetch performs a GET against rawURL and returns its status and body.
// Non-200 statuses are not errors at this level; only transport failures are.
func (c *Client) Fetch(ctx context.Context, rawURL string) (*Response, error) {
	return c.fetch(ctx, rawURL, nil)
}

func (c *Client) fetch(ctx context.Context, rawURL string, progress func(int64) io.Writer) (*Response, error) {
	var resp *Response
	err := httputil.Retry(ctx, c.retries+1, c.retryDelay, func() error {
		r, err := c.do(ctx, rawURL, progress)
		if err != nil {
			return err
		}
		resp = r
		if r.StatusCode >= http.StatusInternalServerError {
			return httputil.Retryable(errServerStatus)
		}
		return nil
	})

	if err == nil || (errors.Is(err, errServerStatus) && resp != nil) {
		return resp, nil
	}
	var re *httputil.RetryableError
	if errors.As(err, &re) {
		return nil, re.Err
	}
	return nil, err
}

func (c *Client) do(ctx context.Context, rawURL string, progress func(int64) io.Writer) (*Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, bpmerrors.Wrap(bpmerrors.ErrCodeInvalidInput, err, "build request for %s", rawURL)
	}
	for k, v := range c.headers {
		req.Header.Set(k, v)
	}

	hooks := observability.HTTP()
	host, path := req.URL.Host, req.URL.Path
	hooks.OnRequest(ctx, req.Method, host, path)
	start := time.Now()

	res, err := c.http.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		hooks.OnError(ctx, req.Method, host, path, err)
		return nil, httputil.Retryable(bpmerrors.Wrap(bpmerrors.ErrCodeNetwork, err, "GET %s", rawURL))
	}
	defer res.Body.Close()

	var buf bytes.Buffer
	var dst io.Writer = &buf
	if progress != nil && res.StatusCode == http.StatusOK {
		if w := progress(res.ContentLength); w != nil {
			if closer, ok := w.(io.Closer); ok {
				defer closer.Close()
			}
			dst = io.MultiWriter(&buf, w)
		}
	}

	if _, err := io.Copy(dst, res.Body); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		hooks.OnError(ctx, req.Method, host, path, err)
		return nil, httputil.Retryable(bpmerrors.Wrap(bpmerrors.ErrCodeNetwork, err, "read body of %s", rawURL))
	}

	hooks.OnResponse(ctx, req.Method, host, path, res.StatusCode, time.Since(start))
	return &Response{StatusCode: res.StatusCode, Body: buf.Bytes()}, nil
}
