package cache

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"
)

type LogCache struct {
	dir     string
	maxSize int64         // max total cache size in bytes
	ttl     time.Duration // cache entry TTL
}

// CacheEntry is one cached job log.
type CacheEntry struct {
	JobID    int64
	Size     int64
	StoredAt time.Time
	Path     string
}

func NewLogCache(dir string, maxSizeMB int, ttl time.Duration) (*LogCache, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create log cache dir: %w", err)
	}
	return &LogCache{
		dir:     dir,
		maxSize: int64(maxSizeMB) * 1024 * 1024,
		ttl:     ttl,
	}, nil
}

func (lc *LogCache) jobPath(jobID int64) string {
	return filepath.Join(lc.dir, fmt.Sprintf("job-%d.log", jobID))
}

// HasJobLog reports a cached, unexpired, non-empty log for the job.
func (lc *LogCache) HasJobLog(jobID int64) bool {
	info, err := os.Stat(lc.jobPath(jobID))
	if err != nil {
		return false
	}
	return info.Mode().IsRegular() && info.Size() > 0 && time.Since(info.ModTime()) < lc.ttl
}

// StoreJobLog writes the log through a temp file so readers never see a
// partial entry.
func (lc *LogCache) StoreJobLog(jobID int64, r io.Reader) error {
	tmp, err := os.CreateTemp(lc.dir, "tmp-*.log")
	if err != nil {
		return fmt.Errorf("create temp log: %w", err)
	}
	if _, err := io.Copy(tmp, r); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("write job log: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	if err := os.Rename(tmp.Name(), lc.jobPath(jobID)); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("store job log: %w", err)
	}
	return nil
}

func (lc *LogCache) GetJobLog(jobID int64) (string, error) {
	data, err := os.ReadFile(lc.jobPath(jobID))
	if err != nil {
		return "", fmt.Errorf("read job log %d: %w", jobID, err)
	}
	return string(data), nil
}

// Evict removes expired entries, then the oldest ones while the cache is
// over its size cap.
func (lc *LogCache) Evict() error {
	entries, err := lc.ListEntries()
	if err != nil {
		return err
	}

	var totalSize int64
	now := time.Now()
	remaining := entries[:0]
	for _, e := range entries {
		if now.Sub(e.StoredAt) > lc.ttl {
			os.Remove(e.Path)
			continue
		}
		totalSize += e.Size
		remaining = append(remaining, e)
	}
	entries = remaining

	if totalSize > lc.maxSize {
		sort.Slice(entries, func(i, j int) bool {
			return entries[i].StoredAt.Before(entries[j].StoredAt)
		})
		for _, e := range entries {
			if totalSize <= lc.maxSize {
				break
			}
			os.Remove(e.Path)
			totalSize -= e.Size
		}
	}
	return nil
}

// ListEntries scans the cache directory and returns all job log entries.
func (lc *LogCache) ListEntries() ([]CacheEntry, error) {
	dirEntries, err := os.ReadDir(lc.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	var result []CacheEntry
	for _, e := range dirEntries {
		name := e.Name()
		if e.IsDir() || !strings.HasPrefix(name, "job-") || !strings.HasSuffix(name, ".log") {
			continue
		}
		jobID, err := strconv.ParseInt(strings.TrimSuffix(strings.TrimPrefix(name, "job-"), ".log"), 10, 64)
		if err != nil {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		result = append(result, CacheEntry{
			JobID:    jobID,
			Size:     info.Size(),
			StoredAt: info.ModTime(),
			Path:     filepath.Join(lc.dir, name),
		})
	}
	return result, nil
}

// TotalSize returns total cache size in bytes.
func (lc *LogCache) TotalSize() (int64, error) {
	entries, err := lc.ListEntries()
	if err != nil {
		return 0, err
	}
	var total int64
	for _, e := range entries {
		total += e.Size
	}
	return total, nil
}
