package resource

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/net/html/charset"

	stdnet "lazyimg/std/net"
)

// ErrUnsupportedScheme is returned for URIs the fetcher cannot retrieve.
var ErrUnsupportedScheme = errors.New("unsupported URI scheme")

var tracer = otel.Tracer("lazyimg/resource")

// Fetcher retrieves resources by URI.
type Fetcher interface {
	Fetch(ctx context.Context, uri string) (body []byte, contentType string, err error)
}

// DefaultFetcher fetches http(s), file and data: URIs, resolving relative
// URIs against a base (a URL or a local directory).
type DefaultFetcher struct {
	baseURL string
}

// NewFetcher creates a DefaultFetcher with the given base. The base may be
// an http(s) URL, a file:// URL or a filesystem path of a document.
func NewFetcher(baseURL string) *DefaultFetcher {
	return &DefaultFetcher{baseURL: baseURL}
}

// Base returns the base the fetcher resolves against.
func (f *DefaultFetcher) Base() string { return f.baseURL }

// Resolve returns uri resolved against the fetcher's base.
func (f *DefaultFetcher) Resolve(uri string) string {
	uri = strings.TrimSpace(uri)
	switch {
	case uri == "", isDataURI(uri), stdnet.IsNetworkURL(uri), strings.HasPrefix(uri, "file://"):
		return uri
	case f.baseURL == "":
		return uri
	case stdnet.IsNetworkURL(f.baseURL) || strings.HasPrefix(f.baseURL, "file://"):
		return stdnet.ResolveURL(f.baseURL, uri)
	case filepath.IsAbs(uri):
		return uri
	default:
		return filepath.Join(filepath.Dir(f.baseURL), filepath.FromSlash(uri))
	}
}

// Fetch retrieves the resource at the given URI.
func (f *DefaultFetcher) Fetch(ctx context.Context, uri string) ([]byte, string, error) {
	resolved := f.Resolve(uri)

	ctx, span := tracer.Start(ctx, "resource.Fetch", trace.WithSpanKind(trace.SpanKindClient))
	defer span.End()
	span.SetAttributes(attribute.String("uri", truncate(resolved, 256)))

	body, ct, err := f.fetch(ctx, resolved)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, "", err
	}
	span.SetAttributes(
		attribute.Int("size", len(body)),
		attribute.String("content_type", ct),
	)
	return body, ct, nil
}

func (f *DefaultFetcher) fetch(ctx context.Context, resolved string) ([]byte, string, error) {
	switch {
	case isDataURI(resolved):
		return decodeDataURI(resolved)
	case stdnet.IsNetworkURL(resolved):
		return stdnet.Fetch(ctx, resolved)
	case strings.HasPrefix(resolved, "file://"):
		u, err := url.Parse(resolved)
		if err != nil {
			return nil, "", fmt.Errorf("parsing %s: %w", resolved, err)
		}
		return readFile(u.Path)
	case strings.Contains(resolved, "://"):
		return nil, "", fmt.Errorf("%w: %s", ErrUnsupportedScheme, resolved)
	default:
		return readFile(resolved)
	}
}

// FetchDocument fetches an HTML document and decodes it to UTF-8 using the
// Content-Type charset, a <meta charset> declaration or content sniffing.
func (f *DefaultFetcher) FetchDocument(ctx context.Context, uri string) (string, error) {
	body, contentType, err := f.Fetch(ctx, uri)
	if err != nil {
		return "", err
	}
	return DecodeDocument(body, contentType)
}

// DecodeDocument converts raw HTML bytes to a UTF-8 string.
func DecodeDocument(body []byte, contentType string) (string, error) {
	r, err := charset.NewReader(bytes.NewReader(body), contentType)
	if err != nil {
		return "", fmt.Errorf("detecting charset: %w", err)
	}
	decoded, err := io.ReadAll(r)
	if err != nil {
		return "", fmt.Errorf("decoding document: %w", err)
	}
	return string(decoded), nil
}

// FetchImage fetches an image URI and returns its raw bytes.
func (f *DefaultFetcher) FetchImage(ctx context.Context, uri string) ([]byte, error) {
	body, _, err := f.Fetch(ctx, uri)
	return body, err
}

func readFile(path string) ([]byte, string, error) {
	body, err := os.ReadFile(path)
	if err != nil {
		return nil, "", fmt.Errorf("reading %s: %w", path, err)
	}
	return body, contentTypeByExt(path), nil
}

func contentTypeByExt(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".html", ".htm":
		return "text/html"
	case ".png":
		return "image/png"
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".gif":
		return "image/gif"
	case ".css":
		return "text/css"
	}
	return ""
}

func isDataURI(s string) bool {
	return strings.HasPrefix(s, "data:")
}

// decodeDataURI handles data:[<mediatype>][;base64],<data>.
func decodeDataURI(uri string) ([]byte, string, error) {
	meta, data, ok := strings.Cut(strings.TrimPrefix(uri, "data:"), ",")
	if !ok {
		return nil, "", fmt.Errorf("malformed data URI")
	}
	contentType := meta
	isBase64 := false
	if strings.HasSuffix(meta, ";base64") {
		isBase64 = true
		contentType = strings.TrimSuffix(meta, ";base64")
	}
	if contentType == "" {
		contentType = "text/plain;charset=US-ASCII"
	}
	if isBase64 {
		decoded, err := base64.StdEncoding.DecodeString(strings.TrimSpace(data))
		if err != nil {
			return nil, "", fmt.Errorf("decoding base64 data URI: %w", err)
		}
		return decoded, contentType, nil
	}
	decoded, err := url.PathUnescape(data)
	if err != nil {
		return nil, "", fmt.Errorf("decoding data URI: %w", err)
	}
	return []byte(decoded), contentType, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
