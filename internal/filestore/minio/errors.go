package minio

import (
	"context"
	"errors"
	"net/http"

	"github.com/koustreak/askdb/internal/errs"
	"github.com/koustreak/askdb/internal/filestore"
	miniogo "github.com/minio/minio-go/v7"
)

// codeKinds maps S3 error codes to error kinds. Codes win over HTTP status
// because some gateways answer 200 with an error body.
var codeKinds = map[string]errs.ErrKind{
	"NoSuchBucket":          errs.ErrKindNotFound,
	"NoSuchKey":             errs.ErrKindNotFound,
	"AccessDenied":          errs.ErrKindPermissionDenied,
	"InvalidAccessKeyId":    errs.ErrKindPermissionDenied,
	"SignatureDoesNotMatch": errs.ErrKindPermissionDenied,
	"InvalidBucketName":     errs.ErrKindInvalidInput,
	"InvalidObjectName":     errs.ErrKindInvalidInput,
	"KeyTooLongError":       errs.ErrKindInvalidInput,
	"RequestTimeout":        errs.ErrKindTimeout,
	"SlowDown":              errs.ErrKindTimeout,
	"ServiceUnavailable":    errs.ErrKindTimeout,
}

func kindOf(err error) errs.ErrKind {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return errs.ErrKindTimeout
	}

	resp := miniogo.ToErrorResponse(err)
	if kind, ok := codeKinds[resp.Code]; ok {
		return kind
	}
	switch resp.StatusCode {
	case http.StatusNotFound:
		return errs.ErrKindNotFound
	case http.StatusForbidden, http.StatusUnauthorized:
		return errs.ErrKindPermissionDenied
	case http.StatusBadRequest:
		return errs.ErrKindInvalidInput
	case http.StatusServiceUnavailable:
		return errs.ErrKindTimeout
	}
	return errs.ErrKindConnectionFailed
}

// mapError wraps a MinIO SDK error, naming the clip it concerns when ref
// has a bucket.
func mapError(err error, op string, ref filestore.Ref) *errs.Error {
	if err == nil {
		return nil
	}
	msg := op
	if ref.Bucket != "" {
		msg += " " + ref.String()
	}
	return errs.Wrap(kindOf(err), msg, err)
}
