// Package attachments moves order attachments (identity proofs, videos) into
// the object store and hands back the remote object id.
package attachments

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	sdkaws "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/smithy-go"
	"github.com/google/uuid"

	"github.com/imrishuroy/orderdesk/internal/aws"
)

// ErrUploadFailed wraps every failure to create a remote object.
var ErrUploadFailed = errors.New("upload failed")

// Purposes used to build target names.
const (
	PurposeIDProof = "ID_PROOF"
	PurposeVideo   = "VIDEO"
	VideoExt       = ".mp4"
)

// File is a binary payload held fully in memory.
type File struct {
	Name     string // original client file name
	MIMEType string
	Content  []byte
}

// Ext returns the extension of the original file name including the dot,
// or "" when it has none.
func (f *File) Ext() string {
	return filepath.Ext(f.Name)
}

// TargetName builds the remote name "{orderID}_{purpose}{ext}".
func TargetName(orderID, purpose, ext string) string {
	return orderID + "_" + purpose + ext
}

// Uploader creates one new remote object per call and returns its id.
type Uploader interface {
	Upload(ctx context.Context, content []byte, mimeType, targetName string) (string, error)
}

// S3Uploader writes into a single bucket under a fixed folder prefix.
type S3Uploader struct {
	client aws.S3API
	bucket string
	folder string
	newID  func() string
}

// NewS3Uploader returns an uploader bound to bucket/folder.
func NewS3Uploader(client aws.S3API, bucket, folder string) *S3Uploader {
	return &S3Uploader{
		client: client,
		bucket: bucket,
		folder: folder,
		newID:  uuid.NewString,
	}
}

var _ Uploader = (*S3Uploader)(nil)

// Upload stores content as {folder}/{uuid}/{targetName}. The uuid segment makes
// every call a new object and If-None-Match guards against overwriting one
// that already exists. The object key is the returned id. Empty content is a
// valid zero-byte object.
func (u *S3Uploader) Upload(ctx context.Context, content []byte, mimeType, targetName string) (string, error) {
	if targetName == "" {
		return "", fmt.Errorf("%w: empty target name", ErrUploadFailed)
	}

	key := u.objectKey(targetName)
	input := &s3.PutObjectInput{
		Bucket:        sdkaws.String(u.bucket),
		Key:           sdkaws.String(key),
		Body:          bytes.NewReader(content),
		ContentLength: sdkaws.Int64(int64(len(content))),
		IfNoneMatch:   sdkaws.String("*"),
	}
	if mimeType != "" {
		input.ContentType = sdkaws.String(mimeType)
	}

	if _, err := u.client.PutObject(ctx, input); err != nil {
		return "", fmt.Errorf("%w: %w", ErrUploadFailed, err)
	}
	return key, nil
}

// objectKey joins without cleaning: targetName embeds a caller-chosen order
// id, and "../" in it must stay literal so the key keeps its folder and uuid
// prefix.
func (u *S3Uploader) objectKey(targetName string) string {
	prefix := u.newID() + "/"
	if folder := strings.Trim(u.folder, "/"); folder != "" {
		prefix = folder + "/" + prefix
	}
	return prefix + targetName
}

// ProviderCode extracts the storage service error code (AccessDenied,
// NoSuchBucket, ...) from err, or "" for non-API failures such as network
// errors.
func ProviderCode(err error) string {
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		return apiErr.ErrorCode()
	}
	return ""
}
