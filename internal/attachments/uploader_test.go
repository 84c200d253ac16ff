package attachments

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/smithy-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeS3 struct {
	inputs []*s3.PutObjectInput
	bodies [][]byte
	err    error
}

func (f *fakeS3) PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	f.inputs = append(f.inputs, params)
	b, _ := io.ReadAll(params.Body)
	f.bodies = append(f.bodies, b)
	if f.err != nil {
		return nil, f.err
	}
	return &s3.PutObjectOutput{}, nil
}

func newTestUploader(client *fakeS3) *S3Uploader {
	u := NewS3Uploader(client, "legal-docs", "orders")
	u.newID = func() string { return "fixed" }
	return u
}

func TestUpload_WritesFolderedObject(t *testing.T) {
	fake := &fakeS3{}
	u := newTestUploader(fake)

	id, err := u.Upload(context.Background(), []byte("pdf-bytes"), "application/pdf", "TM-1_ID_PROOF.pdf")
	require.NoError(t, err)
	assert.Equal(t, "orders/fixed/TM-1_ID_PROOF.pdf", id)

	require.Len(t, fake.inputs, 1)
	in := fake.inputs[0]
	assert.Equal(t, "legal-docs", *in.Bucket)
	assert.Equal(t, id, *in.Key)
	assert.Equal(t, "application/pdf", *in.ContentType)
	assert.Equal(t, int64(9), *in.ContentLength)
	assert.Equal(t, "*", *in.IfNoneMatch)
	assert.Equal(t, []byte("pdf-bytes"), fake.bodies[0])
}

func TestUpload_EachCallIsANewObject(t *testing.T) {
	fake := &fakeS3{}
	u := NewS3Uploader(fake, "b", "orders")

	a, err := u.Upload(context.Background(), []byte("x"), "video/mp4", "TM-1_VIDEO.mp4")
	require.NoError(t, err)
	b, err := u.Upload(context.Background(), []byte("x"), "video/mp4", "TM-1_VIDEO.mp4")
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}

func TestUpload_ProviderFailure(t *testing.T) {
	apiErr := &smithy.GenericAPIError{Code: "NoSuchBucket", Message: "The specified bucket does not exist"}
	u := newTestUploader(&fakeS3{err: apiErr})

	_, err := u.Upload(context.Background(), []byte("x"), "", "TM-1_ID_PROOF.png")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUploadFailed)
	assert.Contains(t, err.Error(), "The specified bucket does not exist")
	assert.Equal(t, "NoSuchBucket", ProviderCode(err))
}

func TestUpload_NetworkFailureHasNoProviderCode(t *testing.T) {
	u := newTestUploader(&fakeS3{err: errors.New("dial tcp: connection refused")})

	_, err := u.Upload(context.Background(), []byte("x"), "", "n")
	assert.ErrorIs(t, err, ErrUploadFailed)
	assert.Equal(t, "", ProviderCode(err))
}

func TestUpload_RejectsEmptyNameWithoutCalling(t *testing.T) {
	fake := &fakeS3{}
	u := newTestUploader(fake)

	_, err := u.Upload(context.Background(), []byte("x"), "", "")
	assert.ErrorIs(t, err, ErrUploadFailed)
	assert.Empty(t, fake.inputs)
}

func TestUpload_EmptyContentIsAZeroByteObject(t *testing.T) {
	fake := &fakeS3{}
	u := newTestUploader(fake)

	id, err := u.Upload(context.Background(), []byte{}, "application/pdf", "TM-1_ID_PROOF.pdf")
	require.NoError(t, err)
	assert.Equal(t, "orders/fixed/TM-1_ID_PROOF.pdf", id)
	require.Len(t, fake.inputs, 1)
	assert.Equal(t, int64(0), *fake.inputs[0].ContentLength)
}

func TestUpload_DotSegmentsInOrderIDStayInsideFolder(t *testing.T) {
	fake := &fakeS3{}
	u := NewS3Uploader(fake, "b", "orders")
	name := TargetName("../../evil", PurposeIDProof, ".pdf")

	a, err := u.Upload(context.Background(), []byte("x"), "", name)
	require.NoError(t, err)
	b, err := u.Upload(context.Background(), []byte("x"), "", name)
	require.NoError(t, err)

	assert.NotEqual(t, a, b)
	for _, key := range []string{a, b} {
		assert.True(t, strings.HasPrefix(key, "orders/"), key)
		assert.True(t, strings.HasSuffix(key, "/../../evil_ID_PROOF.pdf"), key)
	}
}

func TestUpload_FolderSlashesAreTrimmed(t *testing.T) {
	for folder, want := range map[string]string{
		"":        "fixed/n",
		"/":       "fixed/n",
		"orders/": "orders/fixed/n",
		"/a/b/":   "a/b/fixed/n",
	} {
		u := NewS3Uploader(&fakeS3{}, "b", folder)
		u.newID = func() string { return "fixed" }
		id, err := u.Upload(context.Background(), []byte("x"), "", "n")
		require.NoError(t, err)
		assert.Equal(t, want, id, folder)
	}
}

func TestTargetNameAndExt(t *testing.T) {
	f := &File{Name: "passport.scan.JPG"}
	assert.Equal(t, "TM-1_ID_PROOF.JPG", TargetName("TM-1", PurposeIDProof, f.Ext()))
	assert.Equal(t, "TM-1_ID_PROOF", TargetName("TM-1", PurposeIDProof, (&File{Name: "noext"}).Ext()))
	assert.Equal(t, "TM-1_VIDEO.mp4", TargetName("TM-1", PurposeVideo, VideoExt))
}
