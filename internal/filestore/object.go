package filestore

import (
	"fmt"
	"io"
	"strings"
	"time"
)

// RefScheme prefixes object references.
const RefScheme = "s3://"

// ObjectInfo describes a single stored object.
type ObjectInfo struct {
	Key          string    `json:"key"`
	Size         int64     `json:"size"` // -1 if unknown
	ContentType  string    `json:"content_type,omitempty"`
	ETag         string    `json:"etag,omitempty"`
	LastModified time.Time `json:"last_modified"`
}

// Object is a streaming handle to an object's content.
// The caller MUST call Close() after reading to avoid resource leaks.
type Object interface {
	io.ReadCloser

	// Info returns the metadata for this object.
	Info() *ObjectInfo
}

// ListOptions controls ListObjects.
type ListOptions struct {
	// Prefix restricts results to keys starting with this string.
	Prefix string

	// Limit caps the number of results. 0 means no cap.
	Limit int
}

// Ref addresses one object.
type Ref struct {
	Bucket string
	Key    string
}

func (r Ref) String() string {
	return RefScheme + r.Bucket + "/" + r.Key
}

// IsRef reports whether s uses the object reference scheme.
func IsRef(s string) bool {
	return strings.HasPrefix(s, RefScheme)
}

// ParseRef parses "s3://bucket/key". An empty bucket falls back to
// defaultBucket.
func ParseRef(s, defaultBucket string) (Ref, error) {
	if !IsRef(s) {
		return Ref{}, fmt.Errorf("object reference %q must start with %s", s, RefScheme)
	}
	bucket, key, ok := strings.Cut(strings.TrimPrefix(s, RefScheme), "/")
	if !ok || key == "" {
		return Ref{}, fmt.Errorf("object reference %q has no key", s)
	}
	if bucket == "" {
		bucket = defaultBucket
	}
	if bucket == "" {
		return Ref{}, fmt.Errorf("object reference %q has no bucket", s)
	}
	return Ref{Bucket: bucket, Key: key}, nil
}
