// Package wsdl keeps local copies of WSDL documents and the schemas they
// import, and reads the little a client needs out of them.
package wsdl

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"golang.org/x/sync/singleflight"
)

// CacheMode selects where a parsed WSDL may be cached.
type CacheMode int

const (
	CacheNone   CacheMode = 0
	CacheDisk   CacheMode = 1
	CacheMemory CacheMode = 2
	CacheBoth   CacheMode = CacheDisk | CacheMemory
)

// ErrCacheWrite is returned when a downloaded document cannot be stored.
var ErrCacheWrite = errors.New("wsdl: unable to write cached file")

// Fetcher downloads a document.
type Fetcher interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
}

// FetcherFunc adapts a function to Fetcher.
type FetcherFunc func(ctx context.Context, url string) ([]byte, error)

func (f FetcherFunc) Fetch(ctx context.Context, url string) ([]byte, error) {
	return f(ctx, url)
}

// CacheError reports a document that was downloaded but could not be
// written to the cache directory.
type CacheError struct {
	Path string
	WSDL string
	Err  error
}

func (e *CacheError) Error() string {
	return fmt.Sprintf("wsdl: unable to write cached file %s for wsdl %s: %v", e.Path, e.WSDL, e.Err)
}

func (e *CacheError) Unwrap() error {
	return e.Err
}

func (e *CacheError) Is(target error) bool {
	return target == ErrCacheWrite
}

var schemaLocation = regexp.MustCompile(`schemaLocation="([^"/]*)"`)

// Preloader copies remote WSDL documents into Dir. Concurrent preloads of the
// same document share one download.
type Preloader struct {
	Dir     string
	Fetcher Fetcher

	group singleflight.Group
}

// NewPreloader returns a preloader writing into dir, os.TempDir() when empty.
func NewPreloader(dir string, f Fetcher) *Preloader {
	if dir == "" {
		dir = os.TempDir()
	}
	return &Preloader{Dir: dir, Fetcher: f}
}

// Preload returns a local path for wsdl. A local file is returned as is. A
// remote document is served from the cache or downloaded together with the
// schemas it imports by relative schemaLocation. CacheNone drops the cached
// copy first. On success the CacheDisk bit is cleared from mode: the local
// copy is the disk cache.
func (p *Preloader) Preload(ctx context.Context, wsdl string, mode *CacheMode) (string, error) {
	path, err := p.preload(ctx, wsdl, *mode, "", map[string]bool{})
	if err != nil {
		return "", err
	}
	*mode &^= CacheDisk
	return path, nil
}

func (p *Preloader) preload(ctx context.Context, src string, mode CacheMode, target string, seen map[string]bool) (string, error) {
	name := target
	if name == "" {
		name = CacheFileName(src)
	}
	cached := filepath.Join(p.Dir, name)

	if mode == CacheNone {
		_ = os.Remove(cached)
	}

	if isFile(src) {
		cached = src
	}
	if isFile(cached) {
		return cached, nil
	}

	if seen[src] {
		return cached, nil
	}
	seen[src] = true

	v, err, _ := p.group.Do(cached, func() (interface{}, error) {
		data, err := p.Fetcher.Fetch(ctx, src)
		if err != nil {
			return nil, fmt.Errorf("wsdl: fetch %s: %w", src, err)
		}

		for _, sub := range SchemaImports(data) {
			if _, err := p.preload(ctx, ImportURL(src, sub), mode, sub, seen); err != nil {
				return nil, err
			}
		}

		if err := os.WriteFile(cached, data, 0o777); err != nil {
			return nil, &CacheError{Path: cached, WSDL: src, Err: err}
		}
		_ = os.Chmod(cached, 0o777)
		return cached, nil
	})
	if err != nil {
		return "", err
	}
	return v.(string), nil
}

// CacheFileName is the name a remote document is cached under.
func CacheFileName(wsdl string) string {
	sum := md5.Sum([]byte(wsdl))
	return hex.EncodeToString(sum[:]) + ".wsdl"
}

// SchemaImports returns the relative schema locations, without any '/',
// referenced by a document, in document order.
func SchemaImports(data []byte) []string {
	var out []string
	for _, m := range schemaLocation.FindAllSubmatch(data, -1) {
		out = append(out, string(m[1]))
	}
	return out
}

// ImportURL resolves a relative import against the URL of the importing
// document by replacing everything after its last '/'.
func ImportURL(base, name string) string {
	i := strings.LastIndex(base, "/")
	if i < 0 {
		return base
	}
	return base[:i+1] + name
}

func isFile(path string) bool {
	fi, err := os.Stat(path)
	return err == nil && !fi.IsDir()
}
