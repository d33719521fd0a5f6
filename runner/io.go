package runner

import (
	"bufio"
	"encoding/json"
	"io"
	"net/url"
	"os"
	"strings"

	"github.com/cockroachdb/errors"

	ierrors "github.com/cnosuke/judolhunter/internal/errors"
	"github.com/cnosuke/judolhunter/types"
)

// ErrInvalidURL is returned for inputs that cannot be turned into an http(s) URL.
var ErrInvalidURL = errors.New("invalid URL")

// NormalizeURL trims raw and adds https:// when no scheme is given.
func NormalizeURL(raw string) (string, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return "", errors.Wrap(ErrInvalidURL, "empty URL")
	}
	if !strings.Contains(s, "://") {
		s = "https://" + s
	}
	u, err := url.Parse(s)
	if err != nil {
		return "", errors.Wrapf(ErrInvalidURL, "%s: %v", raw, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", errors.Wrapf(ErrInvalidURL, "%s: unsupported scheme %q", raw, u.Scheme)
	}
	if u.Host == "" {
		return "", errors.Wrapf(ErrInvalidURL, "%s: missing host", raw)
	}
	return u.String(), nil
}

// NormalizeURLs normalizes every input, failing on the first invalid one.
func NormalizeURLs(raws []string) ([]string, error) {
	urls := make([]string, 0, len(raws))
	for _, raw := range raws {
		u, err := NormalizeURL(raw)
		if err != nil {
			return nil, err
		}
		urls = append(urls, u)
	}
	return urls, nil
}

// ReadURLs reads one URL per line. Blank lines and lines starting with # are skipped.
func ReadURLs(r io.Reader) ([]string, error) {
	var urls []string
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		urls = append(urls, line)
	}
	if err := sc.Err(); err != nil {
		return nil, ierrors.Wrap(err, "failed to read URL list")
	}
	return urls, nil
}

// ReadURLFile reads a URL list file.
func ReadURLFile(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, ierrors.Wrapf(err, "failed to open %s", path)
	}
	defer f.Close()
	return ReadURLs(f)
}

// WriteJSON writes results as an indented JSON array.
func WriteJSON(w io.Writer, results []*types.ScanResult) error {
	if results == nil {
		results = []*types.ScanResult{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(results); err != nil {
		return ierrors.Wrap(err, "failed to encode results")
	}
	return nil
}

// WriteJSONFile writes results to path, replacing any existing file.
func WriteJSONFile(path string, results []*types.ScanResult) error {
	f, err := os.Create(path)
	if err != nil {
		return ierrors.Wrapf(err, "failed to create %s", path)
	}
	if err := WriteJSON(f, results); err != nil {
		_ = f.Close()
		return err
	}
	return ierrors.Wrapf(f.Close(), "failed to close %s", path)
}
