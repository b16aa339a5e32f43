package asset

import (
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
)

// A Resource is a streamable scene input: a local file or a remote
// http/https object. The caller owns the stream and must Close it.
type Resource struct {
	io.ReadCloser

	url *url.URL
}

// Get the location this resource was opened from.
func (r *Resource) Path() string {
	return r.url.String()
}

// Returns true when the resource streams over http/https.
func (r *Resource) IsRemote() bool {
	return r.url.Scheme != ""
}

// Open a resource stream. Relative paths are resolved against the
// directory that holds relTo when it is non-nil, so scene files can
// reference side files (material libraries) next to themselves whether
// they live on disk or behind a web server.
func NewResource(pathToResource string, relTo *Resource) (*Resource, error) {
	target, err := url.Parse(strings.ReplaceAll(pathToResource, `\`, `/`))
	if err != nil {
		return nil, err
	}

	if target.Scheme == "" && relTo != nil {
		if target, err = resolveRelative(target.Path, relTo); err != nil {
			return nil, err
		}
	}

	var stream io.ReadCloser
	switch target.Scheme {
	case "":
		if stream, err = os.Open(filepath.Clean(target.Path)); err != nil {
			return nil, err
		}
	case "http", "https":
		resp, err := http.Get(target.String())
		if err != nil {
			return nil, fmt.Errorf("resource: fetch %q: %s", target.String(), err)
		}
		if resp.StatusCode >= 400 {
			resp.Body.Close()
			return nil, fmt.Errorf("resource: fetch %q: status %d", target.String(), resp.StatusCode)
		}
		stream = resp.Body
	default:
		return nil, fmt.Errorf("resource: unsupported scheme %q", target.Scheme)
	}

	return &Resource{
		ReadCloser: stream,
		url:        target,
	}, nil
}

// Wrap an already-open stream as a named resource.
func NewResourceFromStream(name string, source io.Reader) *Resource {
	target, _ := url.Parse(name)
	return &Resource{
		ReadCloser: io.NopCloser(source),
		url:        target,
	}
}

func resolveRelative(relPath string, relTo *Resource) (*url.URL, error) {
	if relTo.IsRemote() {
		resolved := *relTo.url
		resolved.Path = path.Join(path.Dir(resolved.Path), relPath)
		return &resolved, nil
	}

	base, err := filepath.Abs(relTo.url.Path)
	if err != nil {
		return nil, fmt.Errorf("resource: resolve %q against %q: %s", relPath, relTo.Path(), err)
	}
	return &url.URL{Path: filepath.Join(filepath.Dir(base), relPath)}, nil
}
