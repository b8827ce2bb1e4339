// Package s3 implements an under-store backed by Amazon S3 or any
// S3-compatible object store.
//
// Path-Based Key Design:
//   - Namespace path "/data/report.csv" maps to key "data/report.csv"
//     (plus the optional key prefix)
//   - Directories are inferred from common prefixes; an explicit
//     zero-byte "dir/" marker object is also recognized
//   - The object ETag serves as the content hash; it is opaque and
//     compared only for equality
//
// S3 has no ownership or permission concept, so owner, group and mode
// encode as fingerprint placeholders.
package s3

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/marmos91/mirrorfs/pkg/ufs"
)

// Store serves under-store metadata from an S3 bucket.
// Safe for concurrent use; the SDK client handles its own pooling.
type Store struct {
	client    *s3.Client
	bucket    string
	keyPrefix string
}

var _ ufs.Store = (*Store)(nil)

// Config contains configuration for the S3 under-store.
type Config struct {
	// Client is the configured S3 client.
	Client *s3.Client

	// Bucket is the S3 bucket name.
	Bucket string

	// KeyPrefix is an optional prefix for all object keys.
	// Example: "mirrorfs/" maps "/data/f" to "mirrorfs/data/f".
	KeyPrefix string
}

// NewClientFromConfig creates an S3 client from configuration
// parameters. This is a helper for wiring the store from YAML
// configuration.
func NewClientFromConfig(
	ctx context.Context,
	endpoint,
	region,
	accessKeyID,
	secretAccessKey string,
	forcePathStyle bool,
) (*s3.Client, error) {
	var loadOpts []func(*awsconfig.LoadOptions) error
	loadOpts = append(loadOpts, awsconfig.WithRegion(region))
	if accessKeyID != "" {
		loadOpts = append(loadOpts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(accessKeyID, secretAccessKey, ""),
		))
	}

	cfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		if endpoint != "" {
			o.BaseEndpoint = &endpoint
		}
		o.UsePathStyle = forcePathStyle
	})

	return client, nil
}

// New creates an S3 under-store and verifies bucket access. The bucket
// must already exist.
func New(ctx context.Context, cfg Config) (*Store, error) {
	if cfg.Client == nil {
		return nil, fmt.Errorf("S3 client is required")
	}
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("bucket name is required")
	}

	_, err := cfg.Client.HeadBucket(ctx, &s3.HeadBucketInput{
		Bucket: aws.String(cfg.Bucket),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to access bucket %q: %w", cfg.Bucket, err)
	}

	return &Store{
		client:    cfg.Client,
		bucket:    cfg.Bucket,
		keyPrefix: cfg.KeyPrefix,
	}, nil
}

// Name identifies the store kind.
func (s *Store) Name() string { return "s3" }

// Exists reports whether path exists as an object or a prefix.
func (s *Store) Exists(ctx context.Context, p string) (bool, error) {
	_, err := s.GetStatus(ctx, p)
	if err != nil {
		if errors.Is(err, ufs.ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// GetStatus returns the status of a single path. A path is a file when
// an object exists at its key, a directory when objects exist under
// its prefix (or a "key/" marker object exists).
func (s *Store) GetStatus(ctx context.Context, p string) (*ufs.Status, error) {
	p = cleanPath(p)
	if p == "/" {
		return &ufs.Status{Name: "/", IsDir: true}, nil
	}

	key := s.objectKey(p)
	head, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err == nil {
		return s.fileStatus(path.Base(p), head), nil
	}
	if !isNotFound(err) {
		return nil, fmt.Errorf("head object %q: %w", key, err)
	}

	// No object at the key; check for a directory prefix.
	isDir, err := s.prefixExists(ctx, key+"/")
	if err != nil {
		return nil, err
	}
	if !isDir {
		return nil, ufs.ErrNotFound
	}
	return &ufs.Status{Name: path.Base(p), IsDir: true}, nil
}

// ListStatus returns the direct children of path using a delimited
// listing. Objects become files, common prefixes become directories.
// Listing a file returns the file's own status.
func (s *Store) ListStatus(ctx context.Context, p string) ([]*ufs.Status, error) {
	p = cleanPath(p)

	status, err := s.GetStatus(ctx, p)
	if err != nil {
		return nil, err
	}
	if !status.IsDir {
		return []*ufs.Status{status}, nil
	}

	prefix := s.objectKey(p)
	if prefix != "" {
		prefix += "/"
	}

	var statuses []*ufs.Status
	paginator := s3.NewListObjectsV2Paginator(s.client, &s3.ListObjectsV2Input{
		Bucket:    aws.String(s.bucket),
		Prefix:    aws.String(prefix),
		Delimiter: aws.String("/"),
	})
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("list objects under %q: %w", prefix, err)
		}
		for _, cp := range page.CommonPrefixes {
			name := strings.TrimSuffix(strings.TrimPrefix(aws.ToString(cp.Prefix), prefix), "/")
			if name == "" {
				continue
			}
			statuses = append(statuses, &ufs.Status{Name: name, IsDir: true})
		}
		for _, obj := range page.Contents {
			name := strings.TrimPrefix(aws.ToString(obj.Key), prefix)
			if name == "" || strings.HasSuffix(name, "/") {
				continue // the directory marker itself
			}
			status := &ufs.Status{
				Name:        name,
				Size:        uint64(aws.ToInt64(obj.Size)),
				ContentHash: trimETag(aws.ToString(obj.ETag)),
			}
			if obj.LastModified != nil {
				status.ModTime = *obj.LastModified
			}
			statuses = append(statuses, status)
		}
	}
	return statuses, nil
}

// Close is a no-op; the SDK client holds no closable resources here.
func (s *Store) Close() error { return nil }

func (s *Store) fileStatus(name string, head *s3.HeadObjectOutput) *ufs.Status {
	status := &ufs.Status{
		Name:        name,
		Size:        uint64(aws.ToInt64(head.ContentLength)),
		ContentHash: trimETag(aws.ToString(head.ETag)),
	}
	if head.LastModified != nil {
		status.ModTime = *head.LastModified
	}
	return status
}

// prefixExists reports whether any object lives under the prefix.
func (s *Store) prefixExists(ctx context.Context, prefix string) (bool, error) {
	out, err := s.client.ListObjectsV2(ctx, &s3.ListObjectsV2Input{
		Bucket:  aws.String(s.bucket),
		Prefix:  aws.String(prefix),
		MaxKeys: aws.Int32(1),
	})
	if err != nil {
		return false, fmt.Errorf("list prefix %q: %w", prefix, err)
	}
	return aws.ToInt32(out.KeyCount) > 0, nil
}

// objectKey maps a namespace path to an S3 key.
func (s *Store) objectKey(p string) string {
	key := strings.TrimPrefix(cleanPath(p), "/")
	if s.keyPrefix != "" {
		return s.keyPrefix + key
	}
	return key
}

func cleanPath(p string) string {
	return path.Clean("/" + p)
}

// trimETag strips the quotes S3 wraps around ETag values.
func trimETag(etag string) string {
	return strings.Trim(etag, `"`)
}

func isNotFound(err error) bool {
	var noSuchKey *types.NoSuchKey
	var notFound *types.NotFound
	return errors.As(err, &noSuchKey) || errors.As(err, &notFound)
}
