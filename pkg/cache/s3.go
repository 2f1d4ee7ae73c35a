package cache

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/jonboulle/clockwork"
)

// expiresAtKey is the S3 object metadata key holding the entry deadline.
// S3 lowercases user metadata keys on the wire.
const expiresAtKey = "stratum-expires-at"

// S3API is the subset of the S3 client used by S3Cache.
type S3API interface {
	GetObject(ctx context.Context, in *s3.GetObjectInput, opts ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	PutObject(ctx context.Context, in *s3.PutObjectInput, opts ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	DeleteObject(ctx context.Context, in *s3.DeleteObjectInput, opts ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
}

// S3Cache stores entries as JSON objects in an S3 bucket. Expiry is stamped
// in object metadata and enforced on read; a read past the deadline is a miss
// and the stale object is deleted best-effort.
//
// Transport and API failures are returned to the caller, who treats them as
// misses. The pipeline never propagates them into the request.
//
// Example:
//
//	cfg, _ := config.LoadDefaultConfig(context.Background())
//	backend := cache.NewS3Cache[compose.Result[PageProps]](
//	    s3.NewFromConfig(cfg), "my-bucket", "stratum/projects/")
type S3Cache[V any] struct {
	client S3API
	bucket string
	prefix string
	clock  clockwork.Clock
}

// NewS3Cache creates an S3-backed cache. The prefix namespaces this
// registration's keys within the bucket (e.g. "stratum/projects/").
func NewS3Cache[V any](client S3API, bucket, prefix string) *S3Cache[V] {
	return &S3Cache[V]{
		client: client,
		bucket: bucket,
		prefix: prefix,
		clock:  clockwork.NewRealClock(),
	}
}

// WithClock overrides the clock used for expiry stamps. Tests use a fake
// clock.
func (c *S3Cache[V]) WithClock(clock clockwork.Clock) *S3Cache[V] {
	c.clock = clock
	return c
}

// Get fetches and decodes the entry for key. Expired entries are misses.
func (c *S3Cache[V]) Get(ctx context.Context, key string) (V, bool, error) {
	var zero V

	out, err := c.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(c.bucket),
		Key:    aws.String(c.prefix + key),
	})
	if err != nil {
		return zero, false, fmt.Errorf("cache: s3 get %q: %w", key, err)
	}
	defer out.Body.Close()

	if raw, ok := out.Metadata[expiresAtKey]; ok {
		deadline, perr := time.Parse(time.RFC3339Nano, raw)
		if perr != nil || !c.clock.Now().Before(deadline) {
			// Stale object; drop it so the bucket does not accumulate
			// entries referencing long-finished requests.
			c.client.DeleteObject(ctx, &s3.DeleteObjectInput{
				Bucket: aws.String(c.bucket),
				Key:    aws.String(c.prefix + key),
			})
			return zero, false, nil
		}
	}

	data, err := io.ReadAll(out.Body)
	if err != nil {
		return zero, false, fmt.Errorf("cache: s3 read %q: %w", key, err)
	}
	var value V
	if err := json.Unmarshal(data, &value); err != nil {
		return zero, false, fmt.Errorf("cache: s3 decode %q: %w", key, err)
	}
	return value, true, nil
}

// Set encodes and uploads the entry with its expiry deadline in metadata.
func (c *S3Cache[V]) Set(ctx context.Context, key string, value V, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("cache: s3 encode %q: %w", key, err)
	}

	in := &s3.PutObjectInput{
		Bucket:      aws.String(c.bucket),
		Key:         aws.String(c.prefix + key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String("application/json"),
	}
	if ttl > 0 {
		in.Metadata = map[string]string{
			expiresAtKey: c.clock.Now().Add(ttl).UTC().Format(time.RFC3339Nano),
		}
	}
	if _, err := c.client.PutObject(ctx, in); err != nil {
		return fmt.Errorf("cache: s3 put %q: %w", key, err)
	}
	return nil
}

// Delete removes the entry for key.
func (c *S3Cache[V]) Delete(ctx context.Context, key string) error {
	_, err := c.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(c.bucket),
		Key:    aws.String(c.prefix + key),
	})
	if err != nil {
		return fmt.Errorf("cache: s3 delete %q: %w", key, err)
	}
	return nil
}
