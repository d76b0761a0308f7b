package static

import (
	"context"
	"errors"
	"net/http"
	"os"
	"path"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
)

// ObjectGetter is the subset of *s3.Client used by S3Source.
type ObjectGetter interface {
	GetObject(ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// S3Config locates a bucket.
type S3Config struct {
	Bucket string
	Region string

	// Endpoint overrides the S3 endpoint (MinIO, LocalStack). Requests use
	// path-style addressing when set.
	Endpoint string

	// Prefix is prepended to every object key.
	Prefix string
}

// S3Source serves files from an S3 bucket.
type S3Source struct {
	Client ObjectGetter
	Bucket string
	Prefix string
}

// NewS3Source creates a source backed by a new S3 client. Credentials come
// from AWS_ACCESS_KEY_ID, AWS_SECRET_ACCESS_KEY and AWS_SESSION_TOKEN;
// without them requests are anonymous.
func NewS3Source(cfg S3Config) *S3Source {
	opts := s3.Options{
		Region:      cfg.Region,
		Credentials: envCredentials(),
	}
	if opts.Region == "" {
		opts.Region = os.Getenv("AWS_REGION")
	}
	if opts.Region == "" {
		opts.Region = "us-east-1"
	}
	if cfg.Endpoint != "" {
		opts.BaseEndpoint = aws.String(cfg.Endpoint)
		opts.UsePathStyle = true
	}

	return &S3Source{
		Client: s3.New(opts),
		Bucket: cfg.Bucket,
		Prefix: cfg.Prefix,
	}
}

func envCredentials() aws.CredentialsProvider {
	id := os.Getenv("AWS_ACCESS_KEY_ID")
	secret := os.Getenv("AWS_SECRET_ACCESS_KEY")
	if id == "" || secret == "" {
		return aws.AnonymousCredentials{}
	}
	token := os.Getenv("AWS_SESSION_TOKEN")
	return aws.NewCredentialsCache(aws.CredentialsProviderFunc(func(context.Context) (aws.Credentials, error) {
		return aws.Credentials{
			AccessKeyID:     id,
			SecretAccessKey: secret,
			SessionToken:    token,
			Source:          "Environment",
		}, nil
	}))
}

// Open implements Source.
func (s *S3Source) Open(ctx context.Context, name string) (*File, error) {
	out, err := s.Client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.Bucket),
		Key:    aws.String(s.key(name)),
	})
	if err != nil {
		if isNotFound(err) {
			return nil, ErrNotExist
		}
		return nil, err
	}

	f := &File{
		Body: out.Body,
		Size: -1,
	}
	if out.ContentLength != nil {
		f.Size = *out.ContentLength
	}
	if out.LastModified != nil {
		f.ModTime = *out.LastModified
	}
	if out.ContentType != nil {
		f.ContentType = *out.ContentType
	}
	return f, nil
}

func (s *S3Source) key(name string) string {
	if s.Prefix == "" {
		return name
	}
	return path.Join(strings.Trim(s.Prefix, "/"), name)
}

func isNotFound(err error) bool {
	var noKey *types.NoSuchKey
	if errors.As(err, &noKey) {
		return true
	}
	var status interface{ HTTPStatusCode() int }
	if errors.As(err, &status) {
		code := status.HTTPStatusCode()
		return code == http.StatusNotFound || code == http.StatusForbidden
	}
	return false
}
