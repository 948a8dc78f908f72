// Package imagecache stores downloaded images under a content-addressed
// filename. Exclusive file creation is the only concurrency control:
// whichever worker (or process run) creates the file first downloads it,
// everyone else gets a cache hit. This must stay a filesystem-level
// mechanism so it also deduplicates across process restarts.
package imagecache

import (
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"

	"paperdump/internal/fetch"
)

type Cache struct {
	// Dir is the docs output directory; images live in Dir/images.
	Dir    string
	Client *fetch.Client
}

func New(dir string, client *fetch.Client) *Cache {
	return &Cache{Dir: dir, Client: client}
}

// hashURL is a fixed-length, URL-safe digest of the full locator string.
// Identical locators always map to the identical filename.
func hashURL(rawURL string) string {
	sum := sha256.Sum256([]byte(rawURL))
	return base64.RawURLEncoding.EncodeToString(sum[:])
}

// filenameFor combines the locator's final path segment (for a readable
// name and the extension) with the locator hash: <base>__<hash>.<ext>,
// or <base>__<hash> when there is no extension.
func filenameFor(rawURL string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("invalid url %s: %v", rawURL, err)
	}
	base := path.Base(u.Path)
	if base == "/" || base == "." {
		base = ""
	}
	hash := hashURL(rawURL)
	if ext := path.Ext(base); ext != "" {
		return strings.TrimSuffix(base, ext) + "__" + hash + ext, nil
	}
	return base + "__" + hash, nil
}

// Resolve returns the cache-relative path ("images/<name>") for the
// image at rawURL, downloading it first if no cache entry exists yet.
// Safe to call concurrently for the same locator: exactly one caller
// performs the download.
func (c *Cache) Resolve(rawURL string) (string, error) {
	name, err := filenameFor(rawURL)
	if err != nil {
		return "", err
	}
	hash := hashURL(rawURL)

	for {
		rel := path.Join("images", name)
		full := filepath.Join(c.Dir, "images", name)
		file, err := os.OpenFile(full, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
		if err != nil {
			if errors.Is(err, fs.ErrExist) {
				// Already downloaded, here or in a prior run.
				return rel, nil
			}
			// Likely a filesystem limit on the name (e.g. too long);
			// fall back to the hash alone, once.
			if name != hash {
				name = hash
				continue
			}
			return "", fmt.Errorf("failed to create file %s: %v", full, err)
		}
		if err := c.download(file, rawURL); err != nil {
			// Never leave a truncated cache entry behind.
			os.Remove(full)
			return "", err
		}
		return rel, nil
	}
}

func (c *Cache) download(file *os.File, rawURL string) error {
	defer file.Close()

	resp, err := c.Client.Get(rawURL)
	if err != nil {
		return fmt.Errorf("failed to fetch %s: %v", rawURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != 200 {
		return fmt.Errorf("failed to fetch %s: status %s", rawURL, resp.Status)
	}
	ct := resp.Header.Get("Content-Type")
	if !strings.HasPrefix(ct, "image/") {
		return fmt.Errorf("%s: content type is %q", rawURL, ct)
	}
	if _, err := io.Copy(file, resp.Body); err != nil {
		return fmt.Errorf("failed to download %s: %v", rawURL, err)
	}
	return nil
}
