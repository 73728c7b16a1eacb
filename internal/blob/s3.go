package blob

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
)

// S3 implements Store against an S3-compatible bucket (AWS S3, R2, MinIO).
// Single bucket, keys map to object keys directly.
type S3 struct {
	client *s3.Client
	bucket string
}

// NewS3 constructs an S3-backed store. When no explicit access key is
// configured the default credentials chain applies.
func NewS3(ctx context.Context, opts Options) (*S3, error) {
	if opts.S3Bucket == "" {
		return nil, fmt.Errorf("s3 bucket required")
	}
	region := opts.S3Region
	if region == "" {
		region = "us-east-1"
	}

	loadOpts := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(region)}
	if opts.S3AccessKey != "" {
		loadOpts = append(loadOpts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(opts.S3AccessKey, opts.S3SecretKey, ""),
		))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, err
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if opts.S3PathStyle {
			o.UsePathStyle = true
		}
		if opts.S3Endpoint != "" {
			o.BaseEndpoint = aws.String(opts.S3Endpoint)
		}
	})

	return &S3{client: client, bucket: opts.S3Bucket}, nil
}

// Driver returns the driver identifier.
func (s *S3) Driver() Driver { return DriverS3 }

// Put uploads the object, replacing any existing content under the key.
func (s *S3) Put(ctx context.Context, key string, r io.Reader, opts PutOptions) (Info, error) {
	input := &s3.PutObjectInput{Bucket: &s.bucket, Key: &key, Body: r}
	if opts.ContentType != "" {
		input.ContentType = &opts.ContentType
	}
	if _, err := s.client.PutObject(ctx, input); err != nil {
		return Info{}, err
	}

	out, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{Bucket: &s.bucket, Key: &key})
	if err != nil {
		return Info{}, err
	}
	return s.infoFor(key, out.ContentLength, out.ContentType, out.LastModified), nil
}

// Get downloads the object.
func (s *S3) Get(ctx context.Context, key string) (Info, io.ReadCloser, error) {
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{Bucket: &s.bucket, Key: &key})
	if err != nil {
		var noKey *types.NoSuchKey
		if errors.As(err, &noKey) {
			return Info{}, nil, ErrNotFound
		}
		return Info{}, nil, err
	}
	return s.infoFor(key, out.ContentLength, out.ContentType, out.LastModified), out.Body, nil
}

// Delete removes the object; S3 treats unknown keys as a no-op too.
func (s *S3) Delete(ctx context.Context, key string) error {
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{Bucket: &s.bucket, Key: &key})
	return err
}

// List returns every object in the bucket sorted by key.
func (s *S3) List(ctx context.Context) ([]Info, error) {
	var infos []Info
	var token *string
	for {
		out, err := s.client.ListObjectsV2(ctx, &s3.ListObjectsV2Input{Bucket: &s.bucket, ContinuationToken: token})
		if err != nil {
			return nil, err
		}
		for _, obj := range out.Contents {
			infos = append(infos, Info{
				Key:        aws.ToString(obj.Key),
				Size:       aws.ToInt64(obj.Size),
				UploadedAt: aws.ToTime(obj.LastModified),
			})
		}
		if out.IsTruncated != nil && *out.IsTruncated && out.NextContinuationToken != nil {
			token = out.NextContinuationToken
			continue
		}
		break
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].Key < infos[j].Key })
	return infos, nil
}

func (s *S3) infoFor(key string, size *int64, contentType *string, lastModified *time.Time) Info {
	info := Info{Key: key, Size: aws.ToInt64(size), UploadedAt: time.Now().UTC()}
	if contentType != nil {
		info.ContentType = strings.TrimSpace(*contentType)
	}
	if lastModified != nil {
		info.UploadedAt = *lastModified
	}
	return info
}
