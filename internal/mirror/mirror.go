// Package mirror uploads the download directory to a blob bucket so an
// archive copy exists off the local disk.
package mirror

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"gocloud.dev/blob"
	_ "gocloud.dev/blob/fileblob" // file:// driver
	_ "gocloud.dev/blob/gcsblob"  // gs:// driver
	_ "gocloud.dev/blob/s3blob"   // s3:// driver
	"gocloud.dev/gcerrors"
)

// Mirror copies local files into a bucket, skipping blobs that already
// exist with the same size.
type Mirror struct {
	bucket *blob.Bucket
	prefix string
	log    *slog.Logger
}

// Stats tallies one mirror pass.
type Stats struct {
	Uploaded      int
	UploadedBytes int64
	Skipped       int
}

// Open connects to the bucket named by a driver URL such as
// "gs://my-bucket", "s3://my-bucket" or "file:///tmp/mirror".
func Open(ctx context.Context, bucketURL, prefix string, log *slog.Logger) (*Mirror, error) {
	bucket, err := blob.OpenBucket(ctx, bucketURL)
	if err != nil {
		return nil, fmt.Errorf("open bucket %s: %w", bucketURL, err)
	}
	if prefix != "" && !strings.HasSuffix(prefix, "/") {
		prefix += "/"
	}
	return &Mirror{bucket: bucket, prefix: prefix, log: log}, nil
}

// Close releases the bucket connection.
func (m *Mirror) Close() error {
	return m.bucket.Close()
}

// Sync walks localDir and uploads every regular file whose blob is
// missing or has a different size. Symlinks are followed so dedup links
// mirror as full content.
func (m *Mirror) Sync(ctx context.Context, localDir string) (*Stats, error) {
	stats := &Stats{}

	err := filepath.WalkDir(localDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}

		info, err := os.Stat(path) // follows symlinks
		if err != nil {
			m.log.Warn("skipping unreadable file", "path", path, "error", err)
			return nil
		}
		if !info.Mode().IsRegular() {
			return nil
		}

		rel, err := filepath.Rel(localDir, path)
		if err != nil {
			return err
		}
		key := m.prefix + filepath.ToSlash(rel)

		upToDate, err := m.blobMatches(ctx, key, info.Size())
		if err != nil {
			return err
		}
		if upToDate {
			stats.Skipped++
			return nil
		}

		if err := m.upload(ctx, path, key); err != nil {
			return err
		}
		m.log.Info("mirrored", "key", key, "bytes", info.Size())
		stats.Uploaded++
		stats.UploadedBytes += info.Size()
		return nil
	})
	if err != nil {
		return stats, fmt.Errorf("mirror %s: %w", localDir, err)
	}
	return stats, nil
}

// blobMatches reports whether key already holds a blob of wantSize.
func (m *Mirror) blobMatches(ctx context.Context, key string, wantSize int64) (bool, error) {
	attrs, err := m.bucket.Attributes(ctx, key)
	if err != nil {
		if gcerrors.Code(err) == gcerrors.NotFound {
			return false, nil
		}
		return false, fmt.Errorf("stat blob %s: %w", key, err)
	}
	return attrs.Size == wantSize, nil
}

func (m *Mirror) upload(ctx context.Context, path, key string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	w, err := m.bucket.NewWriter(ctx, key, nil)
	if err != nil {
		return fmt.Errorf("create writer for %s: %w", key, err)
	}
	if _, err := io.Copy(w, f); err != nil {
		w.Close()
		return fmt.Errorf("write blob %s: %w", key, err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("close writer for %s: %w", key, err)
	}
	return nil
}
