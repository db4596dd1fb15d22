// Package beatmapfile keeps downloaded .osu chart files in a local directory.
package beatmapfile

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/bobbycyl/osuawa/internal/contract"
	"golang.org/x/sync/singleflight"
)

const (
	referer   = "https://bobbycyl.github.io/playlists/"
	userAgent = "osuawa"
)

// Cache stores chart files as <dir>/<id>.osu.
type Cache struct {
	dir     string
	baseURL string
	httpc   *http.Client
	gate    *Gate
	timeout time.Duration
	group   singleflight.Group
}

var _ contract.BeatmapFileCache = &Cache{} // Compile-time check

// NewCache creates the directory if needed. A nil gate gets the default pauses.
func NewCache(dir, baseURL string, httpc *http.Client, gate *Gate, timeout time.Duration) (*Cache, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create beatmap dir: %w", err)
	}
	if baseURL == "" {
		baseURL = contract.DefaultDownloadURL
	}
	if httpc == nil {
		httpc = http.DefaultClient
	}
	if gate == nil {
		gate = NewGate(DefaultDelayBefore, DefaultDelayAfter)
	}
	if timeout <= 0 {
		timeout = contract.DefaultTimeout
	}
	return &Cache{
		dir:     dir,
		baseURL: strings.TrimRight(baseURL, "/"),
		httpc:   httpc,
		gate:    gate,
		timeout: timeout,
	}, nil
}

// Path returns where the chart file of id lives, present or not.
func (c *Cache) Path(id int) string {
	return filepath.Join(c.dir, strconv.Itoa(id)+".osu")
}

// Ensure returns the local path of the chart file, downloading it through the
// gate when absent. Concurrent calls for the same id share one download.
func (c *Cache) Ensure(ctx context.Context, id int) (string, error) {
	path := c.Path(id)
	if exists(path) {
		return path, nil
	}
	// The shared download outlives any single caller; each caller still
	// stops waiting when its own ctx ends.
	shared := context.WithoutCancel(ctx)
	ch := c.group.DoChan(strconv.Itoa(id), func() (any, error) {
		return nil, c.gate.Do(shared, func(ctx context.Context) error {
			// A previous holder of the gate may have fetched it already.
			if exists(path) {
				return nil
			}
			return c.download(ctx, id, path)
		})
	})
	select {
	case res := <-ch:
		if res.Err != nil {
			return "", fmt.Errorf("ensure beatmap file %d: %w", id, res.Err)
		}
		return path, nil
	case <-ctx.Done():
		return "", fmt.Errorf("ensure beatmap file %d: %w", id, ctx.Err())
	}
}

func (c *Cache) download(ctx context.Context, id int, path string) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fmt.Sprintf("%s/%d", c.baseURL, id), nil)
	if err != nil {
		return err
	}
	req.Header.Set("Referer", referer)
	req.Header.Set("User-Agent", userAgent)

	res, err := c.httpc.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %w", contract.ErrTransient, err)
	}
	defer func() { _ = res.Body.Close() }()

	switch {
	case res.StatusCode == http.StatusOK:
	case res.StatusCode == http.StatusNotFound:
		return fmt.Errorf("%w: beatmap file %d", contract.ErrNotFound, id)
	case res.StatusCode == http.StatusTooManyRequests || res.StatusCode >= 500:
		return fmt.Errorf("%w: status %d", contract.ErrTransient, res.StatusCode)
	case res.StatusCode >= 400 && res.StatusCode < 500:
		return fmt.Errorf("%w: beatmap file %d: status %d", contract.ErrBadChart, id, res.StatusCode)
	default:
		return fmt.Errorf("download status %d", res.StatusCode)
	}

	body, err := io.ReadAll(res.Body)
	if err != nil {
		return fmt.Errorf("%w: read body: %w", contract.ErrTransient, err)
	}
	// The server answers removed charts with an empty 200.
	if len(body) == 0 {
		return fmt.Errorf("%w: empty beatmap file %d", contract.ErrNotFound, id)
	}
	if _, err := Decode(bytes.NewReader(body)); err != nil {
		return fmt.Errorf("%w: beatmap file %d: %w", contract.ErrBadChart, id, err)
	}
	return writeAtomic(path, body)
}

// writeAtomic writes to a temp file in the same directory and renames it into place.
func writeAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".*.tmp")
	if err != nil {
		return err
	}
	name := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(name)
		return err
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(name)
		return err
	}
	if err := os.Rename(name, path); err != nil {
		_ = os.Remove(name)
		return err
	}
	return nil
}

func exists(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return info.Mode().IsRegular() && info.Size() > 0
}
