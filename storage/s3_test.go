package storage_test

import (
	"bytes"
	"context"
	"crypto/md5"
	"encoding/hex"
	"io"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/tidemark-io/tidemark"
	"github.com/tidemark-io/tidemark/kit/platform/errors"
	"github.com/tidemark-io/tidemark/storage"
)

// fakeBackend is an in-memory stand-in for the S3 API surface the gateway
// uses. ETags are content checksums, as the real backend computes them.
type fakeBackend struct {
	objects map[string]fakeObject

	lifecycleInput *s3.PutBucketLifecycleConfigurationInput
	lifecycleCalls int
	headCalls      int

	uploadErr    error
	headErr      error
	lifecycleErr error
}

type fakeObject struct {
	etag     string
	metadata map[string]string
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{objects: map[string]fakeObject{}}
}

func objectKey(bucket, key *string) string {
	return aws.ToString(bucket) + "/" + aws.ToString(key)
}

func (f *fakeBackend) Upload(ctx context.Context, input *s3.PutObjectInput, opts ...func(*manager.Uploader)) (*manager.UploadOutput, error) {
	if f.uploadErr != nil {
		return nil, f.uploadErr
	}
	body, err := io.ReadAll(input.Body)
	if err != nil {
		return nil, err
	}
	sum := md5.Sum(body)
	etag := hex.EncodeToString(sum[:])
	f.objects[objectKey(input.Bucket, input.Key)] = fakeObject{
		etag:     etag,
		metadata: input.Metadata,
	}
	return &manager.UploadOutput{ETag: aws.String(`"` + etag + `"`)}, nil
}

func (f *fakeBackend) HeadObject(ctx context.Context, params *s3.HeadObjectInput, optFns ...func(*s3.Options)) (*s3.HeadObjectOutput, error) {
	f.headCalls++
	if f.headErr != nil {
		return nil, f.headErr
	}
	obj, ok := f.objects[objectKey(params.Bucket, params.Key)]
	if !ok {
		return nil, &types.NotFound{}
	}
	return &s3.HeadObjectOutput{
		ETag:     aws.String(`"` + obj.etag + `"`),
		Metadata: obj.metadata,
	}, nil
}

func (f *fakeBackend) PutBucketLifecycleConfiguration(ctx context.Context, params *s3.PutBucketLifecycleConfigurationInput, optFns ...func(*s3.Options)) (*s3.PutBucketLifecycleConfigurationOutput, error) {
	f.lifecycleCalls++
	if f.lifecycleErr != nil {
		return nil, f.lifecycleErr
	}
	f.lifecycleInput = params
	return &s3.PutBucketLifecycleConfigurationOutput{}, nil
}

func newTestStore(t *testing.T, backend *fakeBackend) *storage.S3Store {
	t.Helper()
	return storage.NewS3StoreWithClients(storage.Config{
		Endpoint:     "http://objects.local:9000",
		Bucket:       "assets",
		TileCacheTTL: time.Hour,
	}, zaptest.NewLogger(t), backend, backend)
}

func TestS3Store_UploadExistsRoundTrip(t *testing.T) {
	backend := newFakeBackend()
	store := newTestStore(t, backend)
	ctx := context.Background()

	ev, err := store.Upload(ctx, bytes.NewReader([]byte("tile data")), "ws1/tiles/0.png", "image/png",
		tidemark.WithMetadata(map[string]string{"source": "render"}))
	require.NoError(t, err)

	assert.Equal(t, "assets", ev.Bucket)
	assert.Equal(t, "ws1/tiles/0.png", ev.Key)
	assert.NotEmpty(t, ev.ETag)
	assert.Equal(t, "http://objects.local:9000/assets/ws1/tiles/0.png", ev.URL)

	probe, err := store.Exists(ctx, "ws1/tiles/0.png")
	require.NoError(t, err)
	require.NotNil(t, probe)
	assert.Equal(t, ev.Bucket, probe.Bucket)
	assert.Equal(t, ev.Key, probe.Key)
	assert.Equal(t, ev.ETag, probe.ETag, "entity tag must be stable across upload and probe")
	assert.Equal(t, map[string]string{"source": "render"}, probe.Metadata)
}

func TestS3Store_UploadBackendFailure(t *testing.T) {
	backend := newFakeBackend()
	backend.uploadErr = &smithy.GenericAPIError{Code: "InternalError", Message: "backend exploded"}
	store := newTestStore(t, backend)

	_, err := store.Upload(context.Background(), bytes.NewReader(nil), "k", "text/plain")
	require.Error(t, err)
	assert.Equal(t, errors.EInternal, errors.ErrorCode(err))
	assert.Contains(t, err.Error(), "backend exploded")
}

func TestS3Store_ExistsAbsentKeyIsNotAnError(t *testing.T) {
	backend := newFakeBackend()
	store := newTestStore(t, backend)

	ev, err := store.Exists(context.Background(), "no/such/key")
	require.NoError(t, err)
	assert.Nil(t, ev)
	assert.Equal(t, 1, backend.headCalls)
}

func TestS3Store_ExistsBackendFailure(t *testing.T) {
	backend := newFakeBackend()
	backend.headErr = &smithy.GenericAPIError{Code: "SlowDown", Message: "throttled"}
	store := newTestStore(t, backend)

	_, err := store.Exists(context.Background(), "k")
	require.Error(t, err)
	assert.Equal(t, errors.EInternal, errors.ErrorCode(err))
}

func TestS3Store_UploadBucketOverride(t *testing.T) {
	backend := newFakeBackend()
	store := newTestStore(t, backend)

	ev, err := store.Upload(context.Background(), bytes.NewReader([]byte("x")), "k", "text/plain",
		tidemark.WithBucket("other"))
	require.NoError(t, err)
	assert.Equal(t, "other", ev.Bucket)
	assert.Equal(t, "http://objects.local:9000/other/k", ev.URL)
}

func TestS3Store_ApplyLifecycleReplacesRules(t *testing.T) {
	backend := newFakeBackend()
	store := newTestStore(t, backend)

	ok, err := store.ApplyLifecycle(context.Background(), []string{"ws1/", "ws1-archive/"}, 7)
	require.NoError(t, err)
	assert.True(t, ok)

	require.NotNil(t, backend.lifecycleInput)
	assert.Equal(t, "assets", aws.ToString(backend.lifecycleInput.Bucket))

	rules := backend.lifecycleInput.LifecycleConfiguration.Rules
	require.Len(t, rules, 2)
	assert.Equal(t, "ws1/", aws.ToString(rules[0].Filter.Prefix))
	assert.Equal(t, types.ExpirationStatusEnabled, rules[0].Status)
	assert.Equal(t, int32(7), aws.ToInt32(rules[0].Expiration.Days))
	assert.Equal(t, "ws1-archive/", aws.ToString(rules[1].Filter.Prefix))
}

func TestS3Store_ApplyLifecycleDefaultsExpiration(t *testing.T) {
	backend := newFakeBackend()
	store := newTestStore(t, backend)

	ok, err := store.ApplyLifecycle(context.Background(), "ws1/", 0)
	require.NoError(t, err)
	assert.True(t, ok)

	rules := backend.lifecycleInput.LifecycleConfiguration.Rules
	require.Len(t, rules, 1)
	assert.Equal(t, int32(storage.DefaultExpirationDays), aws.ToInt32(rules[0].Expiration.Days))
}

func TestS3Store_ApplyLifecycleRejectsBadPrefixShape(t *testing.T) {
	backend := newFakeBackend()
	store := newTestStore(t, backend)

	for _, prefix := range []any{42, 3.14, true, map[string]string{}, []any{"ok", 1}, []string{}, "", []string{"ws1/", ""}, []any{""}} {
		ok, err := store.ApplyLifecycle(context.Background(), prefix, 1)
		assert.False(t, ok)
		require.Error(t, err)
		assert.Equal(t, errors.EInvalid, errors.ErrorCode(err))
	}
	assert.Zero(t, backend.lifecycleCalls, "shape validation must happen before any network call")
}

func TestS3Store_ApplyLifecycleSwallowsBackendFailure(t *testing.T) {
	backend := newFakeBackend()
	backend.lifecycleErr = &smithy.GenericAPIError{Code: "AccessDenied", Message: "no"}
	store := newTestStore(t, backend)

	ok, err := store.ApplyLifecycle(context.Background(), "ws1/", 1)
	assert.NoError(t, err, "backend failures must not abort a bulk sweep")
	assert.False(t, ok)
}

func TestNormalizePrefixes(t *testing.T) {
	got, err := storage.NormalizePrefixes("a/")
	require.NoError(t, err)
	assert.Equal(t, []string{"a/"}, got)

	got, err = storage.NormalizePrefixes([]any{"a/", "b/"})
	require.NoError(t, err)
	assert.Equal(t, []string{"a/", "b/"}, got)

	// an empty prefix would expire the whole bucket
	_, err = storage.NormalizePrefixes("")
	assert.ErrorIs(t, err, storage.ErrEmptyPrefix)
}
