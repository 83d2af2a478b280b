package res

import (
	"bytes"
	"context"
	"encoding/base64"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/pkg/errors"
)

// ErrNotFound is returned when no source holds the resource
var ErrNotFound = errors.New("resource not found")

// ResourceType represents the type of resource
type ResourceType int

const (
	ResourceTypeUnknown ResourceType = iota
	ResourceTypeImage
	ResourceTypeCSS
	// ResourceTypeDocument is an HTML or Markdown table source
	ResourceTypeDocument
	ResourceTypeOther
)

// Resource represents a loaded resource
type Resource struct {
	URL      string
	Type     ResourceType
	Data     []byte
	MimeType string
}

// Loader fetches documents, stylesheets and background images from files,
// search paths, data URLs and http(s). Results are cached by reference.
type Loader struct {
	// BaseURL is the file path or URL relative references resolve against
	BaseURL string

	mu          sync.RWMutex
	cache       map[string]*Resource
	searchPaths []string
	client      *http.Client
}

// NewLoader creates a new resource loader
func NewLoader(baseURL string) *Loader {
	return &Loader{
		BaseURL: baseURL,
		cache:   make(map[string]*Resource),
		client:  &http.Client{Timeout: 30 * time.Second},
	}
}

// AddSearchPath adds a directory to search for local resources
func (l *Loader) AddSearchPath(path string) {
	l.searchPaths = append(l.searchPaths, path)
}

// Load loads a resource from a URL, a data URL or a file path
func (l *Loader) Load(ctx context.Context, ref string) (*Resource, error) {
	l.mu.RLock()
	cached, ok := l.cache[ref]
	l.mu.RUnlock()
	if ok {
		return cached, nil
	}

	var (
		res *Resource
		err error
	)
	switch {
	case strings.HasPrefix(ref, "data:"):
		res, err = parseDataURL(ref)
	default:
		var resolved string
		if resolved, err = l.resolve(ref); err != nil {
			return nil, err
		}
		if isRemote(resolved) {
			res, err = l.loadRemote(ctx, resolved)
		} else {
			res, err = l.loadLocal(resolved)
		}
	}
	if err != nil {
		return nil, err
	}

	l.mu.Lock()
	l.cache[ref] = res
	l.mu.Unlock()
	return res, nil
}

// LoadImage loads an image resource
func (l *Loader) LoadImage(ctx context.Context, ref string) (*Resource, error) {
	res, err := l.Load(ctx, ref)
	if err != nil {
		return nil, err
	}
	if res.Type != ResourceTypeImage {
		return nil, errors.Errorf("resource is not an image: %s", ref)
	}
	return res, nil
}

// LoadCSS loads a stylesheet
func (l *Loader) LoadCSS(ctx context.Context, ref string) (*Resource, error) {
	res, err := l.Load(ctx, ref)
	if err != nil {
		return nil, err
	}
	if res.Type != ResourceTypeCSS {
		return nil, errors.Errorf("resource is not CSS: %s", ref)
	}
	return res, nil
}

// GetReader returns a reader for a resource
func (r *Resource) GetReader() *bytes.Reader {
	return bytes.NewReader(r.Data)
}

// GetString returns the resource data as a string
func (r *Resource) GetString() string {
	return string(r.Data)
}

// IsMarkdown reports whether the resource is a Markdown document
func (r *Resource) IsMarkdown() bool {
	return r.MimeType == "text/markdown"
}

func isRemote(s string) bool {
	return strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://")
}

// parseDataURL decodes an RFC 2397 data URL such as
// data:image/png;base64,<payload> or data:text/plain,Hello%20World
func parseDataURL(u string) (*Resource, error) {
	meta, payload, ok := strings.Cut(strings.TrimPrefix(u, "data:"), ",")
	if !ok {
		return nil, errors.New("invalid data URL")
	}

	mime := "application/octet-stream"
	encoded := false
	parts := strings.Split(meta, ";")
	if parts[0] != "" {
		mime = parts[0]
	}
	for _, p := range parts[1:] {
		if strings.EqualFold(strings.TrimSpace(p), "base64") {
			encoded = true
		}
	}

	var data []byte
	if encoded {
		d, err := base64.StdEncoding.DecodeString(payload)
		if err != nil {
			return nil, errors.Wrap(err, "invalid base64 data URL")
		}
		data = d
	} else if d, err := url.QueryUnescape(payload); err == nil {
		data = []byte(d)
	} else {
		data = []byte(payload)
	}

	return &Resource{URL: u, Data: data, MimeType: mime, Type: resourceType(mime, "")}, nil
}

func (l *Loader) resolve(ref string) (string, error) {
	if isRemote(ref) || filepath.IsAbs(ref) {
		return ref, nil
	}
	if !isRemote(l.BaseURL) {
		return filepath.Join(filepath.Dir(l.BaseURL), ref), nil
	}

	base, err := url.Parse(l.BaseURL)
	if err != nil {
		return "", errors.Wrapf(err, "parse base URL %q", l.BaseURL)
	}
	rel, err := url.Parse(ref)
	if err != nil {
		return "", errors.Wrapf(err, "parse reference %q", ref)
	}
	return base.ResolveReference(rel).String(), nil
}

func (l *Loader) loadRemote(ctx context.Context, u string) (*Resource, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, errors.Wrapf(err, "build request for %s", u)
	}
	resp, err := l.client.Do(req)
	if err != nil {
		return nil, errors.Wrapf(err, "fetch %s", u)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, errors.Errorf("fetch %s: HTTP %s", u, resp.Status)
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.Wrapf(err, "read %s", u)
	}

	mime, _, _ := strings.Cut(resp.Header.Get("Content-Type"), ";")
	if mime == "" || mime == "text/plain" || mime == "application/octet-stream" {
		mime = mimeType(u)
	}
	return &Resource{URL: u, Data: data, MimeType: mime, Type: resourceType(mime, u)}, nil
}

func (l *Loader) loadLocal(path string) (*Resource, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return l.loadFromSearchPaths(path)
	}
	if err != nil {
		return nil, errors.Wrapf(err, "read %s", path)
	}
	mime := mimeType(path)
	return &Resource{URL: path, Data: data, MimeType: mime, Type: resourceType(mime, path)}, nil
}

func (l *Loader) loadFromSearchPaths(filename string) (*Resource, error) {
	base := filepath.Base(filename)
	for _, dir := range l.searchPaths {
		path := filepath.Join(dir, base)
		data, err := os.ReadFile(path)
		if err != nil {
			continue
		}
		mime := mimeType(path)
		return &Resource{URL: path, Data: data, MimeType: mime, Type: resourceType(mime, path)}, nil
	}
	return nil, errors.Wrap(ErrNotFound, filename)
}

func mimeType(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".png":
		return "image/png"
	case ".gif":
		return "image/gif"
	case ".webp":
		return "image/webp"
	case ".tiff", ".tif":
		return "image/tiff"
	case ".bmp":
		return "image/bmp"
	case ".css":
		return "text/css"
	case ".html", ".htm":
		return "text/html"
	case ".md", ".markdown":
		return "text/markdown"
	default:
		return "application/octet-stream"
	}
}

func resourceType(mime, path string) ResourceType {
	switch {
	case strings.HasPrefix(mime, "image/"):
		return ResourceTypeImage
	case mime == "text/css":
		return ResourceTypeCSS
	case mime == "text/html" || mime == "text/markdown":
		return ResourceTypeDocument
	}
	if path != "" {
		if m := mimeType(path); m != "application/octet-stream" {
			return resourceType(m, "")
		}
	}
	return ResourceTypeOther
}
