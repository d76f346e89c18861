// Package storage moves byte streams into S3-compatible object storage and
// manages their retention.
package storage

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
	"go.uber.org/zap"

	"github.com/tidemark-io/tidemark"
)

// DefaultExpirationDays is the lifecycle expiration applied when the caller
// does not specify one.
const DefaultExpirationDays = 1

// Config carries the object store settings loaded once at process start.
type Config struct {
	// Endpoint is the S3-compatible API endpoint.
	Endpoint string
	// PublicEndpoint is the base for canonical object URLs; falls back to
	// Endpoint when empty.
	PublicEndpoint string
	Region         string
	AccessKey      string
	SecretKey      string
	// Bucket is the default asset bucket.
	Bucket string
	// TileCacheTTL sets the cache-control max-age on uploaded objects.
	TileCacheTTL time.Duration
	// PartSize is the multipart chunk size; zero keeps the SDK default.
	PartSize int64
	// UsePathStyle addresses buckets by path, required by most
	// S3-compatible backends outside AWS.
	UsePathStyle bool
}

// ObjectAPI is the subset of the S3 client the gateway calls directly.
type ObjectAPI interface {
	HeadObject(ctx context.Context, params *s3.HeadObjectInput, optFns ...func(*s3.Options)) (*s3.HeadObjectOutput, error)
	PutBucketLifecycleConfiguration(ctx context.Context, params *s3.PutBucketLifecycleConfigurationInput, optFns ...func(*s3.Options)) (*s3.PutBucketLifecycleConfigurationOutput, error)
}

// UploadAPI is the multipart upload surface, satisfied by
// manager.Uploader.
type UploadAPI interface {
	Upload(ctx context.Context, input *s3.PutObjectInput, opts ...func(*manager.Uploader)) (*manager.UploadOutput, error)
}

// S3Store is the tidemark.ObjectStore over an S3-compatible backend.
// Uploads stream through the multipart uploader, so payload size is
// bounded by the backend, not by process memory.
type S3Store struct {
	cfg      Config
	client   ObjectAPI
	uploader UploadAPI
	log      *zap.Logger
}

// NewS3Store builds the S3 client and uploader from cfg.
func NewS3Store(ctx context.Context, cfg Config, log *zap.Logger) (*S3Store, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(cfg.Region),
		awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		),
	)
	if err != nil {
		return nil, UploadError(err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
		o.UsePathStyle = cfg.UsePathStyle
	})
	uploader := manager.NewUploader(client, func(u *manager.Uploader) {
		if cfg.PartSize > 0 {
			u.PartSize = cfg.PartSize
		}
	})

	return NewS3StoreWithClients(cfg, log, client, uploader), nil
}

// NewS3StoreWithClients wires pre-built API clients, used by tests.
func NewS3StoreWithClients(cfg Config, log *zap.Logger, client ObjectAPI, uploader UploadAPI) *S3Store {
	return &S3Store{
		cfg:      cfg,
		client:   client,
		uploader: uploader,
		log:      log,
	}
}

func (s *S3Store) objectOptions(opts []tidemark.ObjectOption) tidemark.ObjectOptions {
	o := tidemark.ObjectOptions{Bucket: s.cfg.Bucket}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

func (s *S3Store) objectURL(bucket, key string) string {
	base := s.cfg.PublicEndpoint
	if base == "" {
		base = s.cfg.Endpoint
	}
	return fmt.Sprintf("%s/%s/%s",
		strings.TrimRight(base, "/"),
		bucket,
		strings.TrimLeft(key, "/"))
}

// Upload streams body to key. Objects are created public-read with a
// cache-control max-age derived from the configured tile-cache TTL;
// callers relying on private objects must not use this path.
func (s *S3Store) Upload(ctx context.Context, body io.Reader, key, contentType string, opts ...tidemark.ObjectOption) (*tidemark.StorageEvent, error) {
	o := s.objectOptions(opts)

	in := &s3.PutObjectInput{
		Bucket:       aws.String(o.Bucket),
		Key:          aws.String(key),
		Body:         body,
		ContentType:  aws.String(contentType),
		ACL:          types.ObjectCannedACLPublicRead,
		CacheControl: aws.String(fmt.Sprintf("max-age=%d", int(s.cfg.TileCacheTTL.Seconds()))),
	}
	if len(o.Metadata) > 0 {
		in.Metadata = o.Metadata
	}

	out, err := s.uploader.Upload(ctx, in)
	if err != nil {
		return nil, UploadError(err)
	}

	return &tidemark.StorageEvent{
		Bucket:   o.Bucket,
		Key:      key,
		ETag:     trimETag(out.ETag),
		URL:      s.objectURL(o.Bucket, key),
		Metadata: o.Metadata,
	}, nil
}

// Exists probes key metadata without transferring the body. A missing
// object is a normal outcome and returns (nil, nil); only true backend
// failures error.
func (s *S3Store) Exists(ctx context.Context, key string, opts ...tidemark.ObjectOption) (*tidemark.StorageEvent, error) {
	o := s.objectOptions(opts)

	out, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(o.Bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		if isNotFound(err) {
			return nil, nil
		}
		return nil, UploadError(err)
	}

	return &tidemark.StorageEvent{
		Bucket:   o.Bucket,
		Key:      key,
		ETag:     trimETag(out.ETag),
		URL:      s.objectURL(o.Bucket, key),
		Metadata: out.Metadata,
	}, nil
}

// ApplyLifecycle replaces the bucket's entire lifecycle configuration with
// one expiration rule per prefix. Backend failures are logged and yield
// false so a bulk cleanup sweep can continue with other buckets; only a
// bad prefix shape raises, and it does so before any network call.
func (s *S3Store) ApplyLifecycle(ctx context.Context, prefix any, expirationDays int, opts ...tidemark.ObjectOption) (bool, error) {
	prefixes, err := NormalizePrefixes(prefix)
	if err != nil {
		return false, err
	}
	if expirationDays <= 0 {
		expirationDays = DefaultExpirationDays
	}
	o := s.objectOptions(opts)

	rules := make([]types.LifecycleRule, 0, len(prefixes))
	for _, p := range prefixes {
		rules = append(rules, types.LifecycleRule{
			ID:     aws.String("expire-" + p),
			Status: types.ExpirationStatusEnabled,
			Filter: &types.LifecycleRuleFilter{
				Prefix: aws.String(p),
			},
			Expiration: &types.LifecycleExpiration{
				Days: aws.Int32(int32(expirationDays)),
			},
		})
	}

	_, err = s.client.PutBucketLifecycleConfiguration(ctx, &s3.PutBucketLifecycleConfigurationInput{
		Bucket: aws.String(o.Bucket),
		LifecycleConfiguration: &types.BucketLifecycleConfiguration{
			Rules: rules,
		},
	})
	if err != nil {
		s.log.Warn("Applying lifecycle configuration failed",
			zap.String("bucket", o.Bucket),
			zap.Strings("prefixes", prefixes),
			zap.Error(err))
		return false, nil
	}
	return true, nil
}

func trimETag(etag *string) string {
	return strings.Trim(aws.ToString(etag), `"`)
}

func isNotFound(err error) bool {
	var nf *types.NotFound
	if stderrors.As(err, &nf) {
		return true
	}
	var nsk *types.NoSuchKey
	if stderrors.As(err, &nsk) {
		return true
	}
	var ae smithy.APIError
	if stderrors.As(err, &ae) {
		switch ae.ErrorCode() {
		case "NotFound", "NoSuchKey":
			return true
		}
	}
	return false
}

var _ tidemark.ObjectStore = (*S3Store)(nil)
