package storage

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"os"
	"strings"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	awscreds "github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// Portal-scoped S3 credentials. Consortium members get bucket-scoped
// keys from the portal admin; these take precedence over ambient AWS
// credentials so a developer's personal profile is never used by
// accident.
const (
	envS3AccessKey = "TRIALPOINT_S3_ACCESS_KEY"
	envS3SecretKey = "TRIALPOINT_S3_SECRET_KEY"
)

const defaultS3Region = "us-east-1"

// s3Downloader streams s3:// objects via the AWS SDK. Clients are
// cached per region; the bucket region comes from AWS_REGION or falls
// back to the SDK default.
type s3Downloader struct {
	mu      sync.Mutex
	clients map[string]*s3.Client
}

func newS3Downloader() *s3Downloader {
	return &s3Downloader{clients: make(map[string]*s3.Client)}
}

func (d *s3Downloader) Name() string { return "s3" }

func (d *s3Downloader) Download(ctx context.Context, objectURL string, w io.Writer) (int64, error) {
	bucket, key, err := parseS3URL(objectURL)
	if err != nil {
		return 0, err
	}

	client, err := d.clientForRegion(ctx, regionFromEnv())
	if err != nil {
		return 0, err
	}

	resp, err := client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return 0, fmt.Errorf("failed to get s3://%s/%s: %w", bucket, key, err)
	}
	defer resp.Body.Close()

	written, err := io.Copy(w, resp.Body)
	if err != nil {
		return written, fmt.Errorf("failed to stream s3://%s/%s: %w", bucket, key, err)
	}
	return written, nil
}

func (d *s3Downloader) clientForRegion(ctx context.Context, region string) (*s3.Client, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if client, ok := d.clients[region]; ok {
		return client, nil
	}

	opts := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(region)}
	switch {
	case os.Getenv(envS3AccessKey) != "" && os.Getenv(envS3SecretKey) != "":
		opts = append(opts, awsconfig.WithCredentialsProvider(
			awscreds.NewStaticCredentialsProvider(
				os.Getenv(envS3AccessKey), os.Getenv(envS3SecretKey), "")))
	case os.Getenv("AWS_ACCESS_KEY_ID") == "" && os.Getenv("AWS_PROFILE") == "":
		// No ambient credentials: portal buckets that allow public
		// reads still work with anonymous requests.
		opts = append(opts, awsconfig.WithCredentialsProvider(aws.AnonymousCredentials{}))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg)
	d.clients[region] = client
	return client, nil
}

func regionFromEnv() string {
	if region := os.Getenv("AWS_REGION"); region != "" {
		return region
	}
	if region := os.Getenv("AWS_DEFAULT_REGION"); region != "" {
		return region
	}
	return defaultS3Region
}

// parseS3URL splits s3://bucket/key/with/slashes.
func parseS3URL(objectURL string) (bucket, key string, err error) {
	u, err := url.Parse(objectURL)
	if err != nil || u.Scheme != "s3" {
		return "", "", fmt.Errorf("not an s3 url: %q", objectURL)
	}
	bucket = u.Host
	key = strings.TrimPrefix(u.Path, "/")
	if bucket == "" || key == "" {
		return "", "", fmt.Errorf("s3 url missing bucket or key: %q", objectURL)
	}
	return bucket, key, nil
}
