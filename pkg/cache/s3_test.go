package cache

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/jonboulle/clockwork"
)

// fakeS3 is an in-memory S3API for tests.
type fakeS3 struct {
	objects map[string]fakeObject
	getErr  error
	putErr  error
	deletes []string
}

type fakeObject struct {
	body     string
	metadata map[string]string
}

func newFakeS3() *fakeS3 {
	return &fakeS3{objects: make(map[string]fakeObject)}
}

func (f *fakeS3) GetObject(_ context.Context, in *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	obj, ok := f.objects[*in.Key]
	if !ok {
		return nil, errors.New("NoSuchKey")
	}
	return &s3.GetObjectOutput{
		Body:     io.NopCloser(strings.NewReader(obj.body)),
		Metadata: obj.metadata,
	}, nil
}

func (f *fakeS3) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	if f.putErr != nil {
		return nil, f.putErr
	}
	data, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	f.objects[*in.Key] = fakeObject{body: string(data), metadata: in.Metadata}
	return &s3.PutObjectOutput{}, nil
}

func (f *fakeS3) DeleteObject(_ context.Context, in *s3.DeleteObjectInput, _ ...func(*s3.Options)) (*s3.DeleteObjectOutput, error) {
	f.deletes = append(f.deletes, *in.Key)
	delete(f.objects, *in.Key)
	return &s3.DeleteObjectOutput{}, nil
}

type payload struct {
	Name string `json:"name"`
}

func TestS3CacheRoundTrip(t *testing.T) {
	backend := newFakeS3()
	c := NewS3Cache[payload](backend, "bucket", "cache/")
	ctx := context.Background()

	if err := c.Set(ctx, "k1", payload{Name: "widget"}, time.Minute); err != nil {
		t.Fatalf("Set() error: %v", err)
	}

	v, ok, err := c.Get(ctx, "k1")
	if err != nil {
		t.Fatalf("Get() error: %v", err)
	}
	if !ok {
		t.Fatal("Expected hit")
	}
	if v.Name != "widget" {
		t.Errorf("Expected widget, got %q", v.Name)
	}

	// Stored under the prefix with an expiry stamp.
	obj, ok := backend.objects["cache/k1"]
	if !ok {
		t.Fatal("Expected object under prefix")
	}
	if _, ok := obj.metadata[expiresAtKey]; !ok {
		t.Error("Expected expiry metadata")
	}
}

func TestS3CacheMissReportsError(t *testing.T) {
	backend := newFakeS3()
	backend.getErr = errors.New("connection timeout")
	c := NewS3Cache[payload](backend, "bucket", "cache/")

	_, ok, err := c.Get(context.Background(), "k1")
	if ok {
		t.Error("Expected miss on transport failure")
	}
	if err == nil {
		t.Error("Remote failures must be reported so the caller can fail open")
	}
}

func TestS3CacheExpiredEntryIsMiss(t *testing.T) {
	clock := clockwork.NewFakeClock()
	backend := newFakeS3()
	c := NewS3Cache[payload](backend, "bucket", "cache/").WithClock(clock)
	ctx := context.Background()

	c.Set(ctx, "k1", payload{Name: "old"}, time.Second)
	clock.Advance(2 * time.Second)

	_, ok, err := c.Get(ctx, "k1")
	if err != nil {
		t.Fatalf("Expired entry must be a clean miss, got error: %v", err)
	}
	if ok {
		t.Error("Expected miss for expired entry")
	}
	if len(backend.deletes) == 0 {
		t.Error("Expected stale object to be deleted")
	}
}

func TestS3CacheSetWithoutTTL(t *testing.T) {
	backend := newFakeS3()
	c := NewS3Cache[payload](backend, "bucket", "cache/")
	ctx := context.Background()

	c.Set(ctx, "k1", payload{Name: "keep"}, 0)

	if _, ok, err := c.Get(ctx, "k1"); !ok || err != nil {
		t.Errorf("Expected hit for entry without expiry, got (%v, %v)", ok, err)
	}
}

func TestS3CacheDelete(t *testing.T) {
	backend := newFakeS3()
	c := NewS3Cache[payload](backend, "bucket", "cache/")
	ctx := context.Background()

	c.Set(ctx, "k1", payload{Name: "gone"}, time.Minute)
	if err := c.Delete(ctx, "k1"); err != nil {
		t.Fatalf("Delete() error: %v", err)
	}
	if _, ok, _ := c.Get(ctx, "k1"); ok {
		t.Error("Expected miss after delete")
	}
}
