package upload_test

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/xcel-dev/xcel/pkg/upload"
)

type fakeObject struct {
	data        []byte
	contentType string
	metadata    map[string]string
	modified    time.Time
}

type fakeS3 struct {
	mu      sync.Mutex
	objects map[string]*fakeObject
	putErr  error
}

func newFakeS3() *fakeS3 {
	return &fakeS3{objects: make(map[string]*fakeObject)}
}

func (f *fakeS3) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	if f.putErr != nil {
		return nil, f.putErr
	}
	data, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.objects[aws.ToString(in.Key)] = &fakeObject{
		data:        data,
		contentType: aws.ToString(in.ContentType),
		metadata:    in.Metadata,
		modified:    time.Now(),
	}
	return &s3.PutObjectOutput{}, nil
}

func (f *fakeS3) GetObject(_ context.Context, in *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	obj, ok := f.objects[aws.ToString(in.Key)]
	if !ok {
		return nil, &types.NoSuchKey{}
	}
	return &s3.GetObjectOutput{
		Body:          io.NopCloser(bytes.NewReader(obj.data)),
		ContentType:   aws.String(obj.contentType),
		ContentLength: aws.Int64(int64(len(obj.data))),
		Metadata:      obj.metadata,
	}, nil
}

func (f *fakeS3) HeadObject(_ context.Context, in *s3.HeadObjectInput, _ ...func(*s3.Options)) (*s3.HeadObjectOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	obj, ok := f.objects[aws.ToString(in.Key)]
	if !ok {
		return nil, &types.NotFound{}
	}
	return &s3.HeadObjectOutput{ContentLength: aws.Int64(int64(len(obj.data)))}, nil
}

func (f *fakeS3) DeleteObject(_ context.Context, in *s3.DeleteObjectInput, _ ...func(*s3.Options)) (*s3.DeleteObjectOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.objects, aws.ToString(in.Key))
	return &s3.DeleteObjectOutput{}, nil
}

func (f *fakeS3) ListObjectsV2(_ context.Context, in *s3.ListObjectsV2Input, _ ...func(*s3.Options)) (*s3.ListObjectsV2Output, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := &s3.ListObjectsV2Output{IsTruncated: aws.Bool(false)}
	for key, obj := range f.objects {
		if !strings.HasPrefix(key, aws.ToString(in.Prefix)) {
			continue
		}
		out.Contents = append(out.Contents, types.Object{
			Key:          aws.String(key),
			LastModified: aws.Time(obj.modified),
		})
	}
	return out, nil
}

func TestS3Store_SaveAndOpen(t *testing.T) {
	ctx := context.Background()
	client := newFakeS3()
	store := upload.NewS3Store(client, "bucket", "uploads/", 1<<20)

	content := []byte("workbook")
	id, err := store.Save(ctx, "voters.xlsx", "", int64(len(content)), bytes.NewReader(content))
	if err != nil {
		t.Fatalf("Save: %v", err)
	}

	obj, ok := client.objects["uploads/"+id]
	if !ok {
		t.Fatalf("object not stored under prefix; have %v", client.objects)
	}
	if obj.metadata["original-filename"] != "voters.xlsx" {
		t.Errorf("metadata = %v", obj.metadata)
	}
	if obj.contentType != "application/octet-stream" {
		t.Errorf("contentType = %q", obj.contentType)
	}

	file, err := store.Open(ctx, id)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer file.Close()

	if file.Filename != "voters.xlsx" || file.Size != int64(len(content)) {
		t.Errorf("file = %+v", file)
	}
	if file.ID != id {
		t.Errorf("ID = %q, want %q", file.ID, id)
	}
	data, _ := io.ReadAll(file.Reader)
	if !bytes.Equal(data, content) {
		t.Error("content mismatch")
	}
}

func TestS3Store_SaveBuffersUnseekableReaders(t *testing.T) {
	client := newFakeS3()
	store := upload.NewS3Store(client, "bucket", "", 4)

	_, err := store.Save(context.Background(), "a.xlsx", "", 0, io.NopCloser(strings.NewReader("12345")))
	if !errors.Is(err, upload.ErrTooLarge) {
		t.Fatalf("expected ErrTooLarge, got %v", err)
	}

	id, err := store.Save(context.Background(), "a.xlsx", "", 0, io.NopCloser(strings.NewReader("1234")))
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if got := string(client.objects[id].data); got != "1234" {
		t.Errorf("stored %q", got)
	}
}

func TestS3Store_SaveWrapsClientError(t *testing.T) {
	client := newFakeS3()
	client.putErr = errors.New("denied")
	store := upload.NewS3Store(client, "bucket", "", 0)

	_, err := store.Save(context.Background(), "a.xlsx", "", 1, bytes.NewReader([]byte("x")))
	if err == nil || !strings.Contains(err.Error(), "denied") {
		t.Fatalf("expected wrapped client error, got %v", err)
	}
}

func TestS3Store_OpenNotFound(t *testing.T) {
	store := upload.NewS3Store(newFakeS3(), "bucket", "uploads/", 0)
	if _, err := store.Open(context.Background(), "missing"); !errors.Is(err, upload.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestS3Store_Delete(t *testing.T) {
	ctx := context.Background()
	client := newFakeS3()
	store := upload.NewS3Store(client, "bucket", "uploads/", 0)

	id, err := store.Save(ctx, "a.xlsx", "", 1, bytes.NewReader([]byte("x")))
	if err != nil {
		t.Fatalf("Save: %v", err)
	}

	if err := store.Delete(ctx, id); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if len(client.objects) != 0 {
		t.Errorf("objects left after Delete: %v", client.objects)
	}
	if err := store.Delete(ctx, id); !errors.Is(err, upload.ErrNotFound) {
		t.Errorf("second Delete = %v, want ErrNotFound", err)
	}
}

func TestS3Store_Cleanup(t *testing.T) {
	ctx := context.Background()
	client := newFakeS3()
	store := upload.NewS3Store(client, "bucket", "uploads/", 0)

	oldID, _ := store.Save(ctx, "old.xlsx", "", 1, bytes.NewReader([]byte("o")))
	newID, _ := store.Save(ctx, "new.xlsx", "", 1, bytes.NewReader([]byte("n")))
	client.objects["uploads/"+oldID].modified = time.Now().Add(-48 * time.Hour)
	client.objects["other/keep"] = &fakeObject{modified: time.Now().Add(-48 * time.Hour)}

	if err := store.Cleanup(ctx, 24*time.Hour); err != nil {
		t.Fatalf("Cleanup: %v", err)
	}

	if _, ok := client.objects["uploads/"+oldID]; ok {
		t.Error("expired object should be deleted")
	}
	if _, ok := client.objects["uploads/"+newID]; !ok {
		t.Error("fresh object should be kept")
	}
	if _, ok := client.objects["other/keep"]; !ok {
		t.Error("objects outside the prefix should be kept")
	}
}
