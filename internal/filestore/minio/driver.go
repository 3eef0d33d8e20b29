// Package minio serves recorded voice clips from a MinIO or S3-compatible
// server through filestore.Store.
package minio

import (
	"context"
	"io"
	"strings"

	"github.com/koustreak/askdb/internal/errs"
	"github.com/koustreak/askdb/internal/filestore"
	miniogo "github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// Driver is safe for concurrent use.
type Driver struct {
	client *miniogo.Client
	bucket string
}

var _ filestore.Store = (*Driver)(nil)

// New connects to cfg.Endpoint and pings it before returning.
func New(ctx context.Context, cfg *filestore.Config) (*Driver, error) {
	if !cfg.Enabled() {
		return nil, errs.New(errs.ErrKindInvalidInput, "object storage endpoint is not set")
	}

	client, err := miniogo.New(cfg.Endpoint, &miniogo.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, errs.Wrap(errs.ErrKindConnectionFailed, "failed to create minio client for "+cfg.Endpoint, err)
	}

	d := &Driver{client: client, bucket: cfg.Bucket}
	if err := d.Ping(ctx); err != nil {
		return nil, err
	}
	return d, nil
}

// Ping checks the clip bucket exists. Without a default bucket it only
// checks that the credentials can list buckets.
func (d *Driver) Ping(ctx context.Context) error {
	if d.bucket == "" {
		if _, err := d.client.ListBuckets(ctx); err != nil {
			return mapError(err, "ping failed", filestore.Ref{})
		}
		return nil
	}

	ok, err := d.client.BucketExists(ctx, d.bucket)
	if err != nil {
		return mapError(err, "ping failed", filestore.Ref{Bucket: d.bucket})
	}
	if !ok {
		return errs.New(errs.ErrKindNotFound, "clip bucket "+d.bucket+" does not exist")
	}
	return nil
}

// Close is a no-op.
func (d *Driver) Close() error { return nil }

// ListObjects walks bucket recursively under opts.Prefix. Folder markers
// (keys ending in "/") are skipped and do not count toward opts.Limit.
func (d *Driver) ListObjects(ctx context.Context, bucket string, opts filestore.ListOptions) ([]filestore.ObjectInfo, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var clips []filestore.ObjectInfo
	objects := d.client.ListObjects(ctx, bucket, miniogo.ListObjectsOptions{Prefix: opts.Prefix, Recursive: true})
	for obj := range objects {
		if obj.Err != nil {
			return nil, mapError(obj.Err, "failed to list clips in", filestore.Ref{Bucket: bucket, Key: opts.Prefix})
		}
		if strings.HasSuffix(obj.Key, "/") {
			continue
		}

		clips = append(clips, info(obj))
		if opts.Limit > 0 && len(clips) >= opts.Limit {
			break
		}
	}
	return clips, nil
}

// GetObject opens the clip at bucket/key. The caller must Close it.
func (d *Driver) GetObject(ctx context.Context, bucket, key string) (filestore.Object, error) {
	ref := filestore.Ref{Bucket: bucket, Key: key}

	obj, err := d.client.GetObject(ctx, bucket, key, miniogo.GetObjectOptions{})
	if err != nil {
		return nil, mapError(err, "failed to get clip", ref)
	}

	// The SDK opens lazily; Stat is the first round trip.
	stat, err := obj.Stat()
	if err != nil {
		_ = obj.Close()
		return nil, mapError(err, "failed to get clip", ref)
	}

	meta := info(stat)
	return &clip{ReadCloser: obj, info: &meta}, nil
}

// StatObject returns clip metadata without downloading it.
func (d *Driver) StatObject(ctx context.Context, bucket, key string) (*filestore.ObjectInfo, error) {
	stat, err := d.client.StatObject(ctx, bucket, key, miniogo.StatObjectOptions{})
	if err != nil {
		return nil, mapError(err, "failed to stat clip", filestore.Ref{Bucket: bucket, Key: key})
	}
	meta := info(stat)
	return &meta, nil
}

func info(o miniogo.ObjectInfo) filestore.ObjectInfo {
	return filestore.ObjectInfo{
		Key:          o.Key,
		Size:         o.Size,
		ContentType:  o.ContentType,
		ETag:         o.ETag,
		LastModified: o.LastModified,
	}
}

type clip struct {
	io.ReadCloser
	info *filestore.ObjectInfo
}

func (c *clip) Info() *filestore.ObjectInfo { return c.info }
