package sync

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

type fakePutter struct {
	in   *s3.PutObjectInput
	body string
	err  error
}

func (f *fakePutter) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	f.in = in
	b, _ := io.ReadAll(in.Body)
	f.body = string(b)
	return &s3.PutObjectOutput{}, f.err
}

func TestS3Destination_Write(t *testing.T) {
	putter := &fakePutter{}
	dest := &S3Destination{client: putter, bucket: "backups", key: "skyrecords/backup.jsonl"}

	data := `{"type":"header"}` + "\n"
	if err := dest.Write(context.Background(), []byte(data)); err != nil {
		t.Fatal(err)
	}
	if got := aws.ToString(putter.in.Bucket); got != "backups" {
		t.Errorf("Bucket = %q", got)
	}
	if got := aws.ToString(putter.in.Key); got != "skyrecords/backup.jsonl" {
		t.Errorf("Key = %q", got)
	}
	if got := aws.ToString(putter.in.ContentType); got != jsonlContentType {
		t.Errorf("ContentType = %q", got)
	}
	if got := aws.ToInt64(putter.in.ContentLength); got != int64(len(data)) {
		t.Errorf("ContentLength = %d, want %d", got, len(data))
	}
	if putter.body != data {
		t.Errorf("body = %q", putter.body)
	}
}

func TestS3Destination_WriteError(t *testing.T) {
	dest := &S3Destination{client: &fakePutter{err: errors.New("access denied")}, bucket: "b", key: "k"}

	err := dest.Write(context.Background(), []byte("{}\n"))
	if err == nil || !strings.Contains(err.Error(), "s3://b/k") {
		t.Fatalf("Write = %v", err)
	}
}

func TestNewS3Destination_Endpoint(t *testing.T) {
	t.Setenv("AWS_ACCESS_KEY_ID", "test")
	t.Setenv("AWS_SECRET_ACCESS_KEY", "test")

	dest, err := NewS3Destination(context.Background(), "b", "k", "us-east-1", "http://127.0.0.1:9000")
	if err != nil {
		t.Fatal(err)
	}
	client, ok := dest.client.(*s3.Client)
	if !ok {
		t.Fatalf("client is %T", dest.client)
	}
	opts := client.Options()
	if !opts.UsePathStyle || aws.ToString(opts.BaseEndpoint) != "http://127.0.0.1:9000" {
		t.Errorf("UsePathStyle=%v BaseEndpoint=%q", opts.UsePathStyle, aws.ToString(opts.BaseEndpoint))
	}
}
