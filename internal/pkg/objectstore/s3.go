package objectstore

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"path"
	"sort"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
	"go.uber.org/zap"
)

const deleteBatchSize = 1000

// S3Config describes any S3 compatible bucket (AWS, MinIO, R2...).
type S3Config struct {
	Bucket          string
	Region          string
	Endpoint        string
	AccessKeyID     string
	SecretAccessKey string
	UsePathStyle    bool
}

// s3API is the subset of *s3.Client the store calls.
type s3API interface {
	s3.ListObjectsV2APIClient
	HeadObject(ctx context.Context, in *s3.HeadObjectInput, optFns ...func(*s3.Options)) (*s3.HeadObjectOutput, error)
	GetObject(ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	DeleteObjects(ctx context.Context, in *s3.DeleteObjectsInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectsOutput, error)
}

type S3 struct {
	client            s3API
	presignClient     *s3.PresignClient
	bucket            string
	endpoint          string
	region            string
	pathStyle         bool
	publicBaseURL     string
	presignExpiration time.Duration
	logger            *zap.Logger
}

type S3Option func(*S3)

func WithLogger(logger *zap.Logger) S3Option {
	return func(s *S3) {
		if logger != nil {
			s.logger = logger
		}
	}
}

func WithPresignExpiration(d time.Duration) S3Option {
	return func(s *S3) { s.presignExpiration = d }
}

// WithPublicBaseURL serves URL() from a CDN or custom domain instead of the bucket endpoint.
func WithPublicBaseURL(base string) S3Option {
	return func(s *S3) { s.publicBaseURL = strings.TrimRight(strings.TrimSpace(base), "/") }
}

func NewS3(ctx context.Context, cfg S3Config, opts ...S3Option) (*S3, error) {
	if strings.TrimSpace(cfg.Bucket) == "" {
		return nil, errors.New("storage bucket is required")
	}
	region := cfg.Region
	if region == "" {
		region = "us-east-1"
	}

	loadOpts := []func(*config.LoadOptions) error{config.WithRegion(region)}
	if cfg.AccessKeyID != "" {
		loadOpts = append(loadOpts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		))
	}
	awsCfg, err := config.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create AWS config: %w", err)
	}

	endpoint := strings.TrimRight(cfg.Endpoint, "/")
	if endpoint != "" && !strings.HasPrefix(endpoint, "http://") && !strings.HasPrefix(endpoint, "https://") {
		endpoint = "https://" + endpoint
	}
	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.UsePathStyle = cfg.UsePathStyle
		if endpoint != "" {
			o.BaseEndpoint = aws.String(endpoint)
		}
	})

	s := &S3{
		client:        client,
		presignClient: s3.NewPresignClient(client),
		bucket:        cfg.Bucket,
		endpoint:      endpoint,
		region:        region,
		pathStyle:     cfg.UsePathStyle,
		logger:        zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.presignExpiration <= 0 {
		s.presignExpiration = 15 * time.Minute
	}
	s.logger = s.logger.Named("S3Store")
	return s, nil
}

func isS3NotFound(err error) bool {
	var notFound *types.NotFound
	var noSuchKey *types.NoSuchKey
	if errors.As(err, &notFound) || errors.As(err, &noSuchKey) {
		return true
	}
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "NotFound", "NoSuchKey":
			return true
		}
	}
	return false
}

func (s *S3) Exists(ctx context.Context, p string) (bool, error) {
	key, err := CleanPath(p)
	if err != nil {
		return false, err
	}
	_, err = s.client.HeadObject(ctx, &s3.HeadObjectInput{Bucket: aws.String(s.bucket), Key: aws.String(key)})
	if err != nil {
		if isS3NotFound(err) {
			return false, nil
		}
		return false, fmt.Errorf("head %s: %w: %w", key, ErrStorage, err)
	}
	return true, nil
}

func (s *S3) Get(ctx context.Context, p string) ([]byte, error) {
	key, err := CleanPath(p)
	if err != nil {
		return nil, err
	}
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{Bucket: aws.String(s.bucket), Key: aws.String(key)})
	if err != nil {
		if isS3NotFound(err) {
			return nil, fmt.Errorf("%s: %w", key, ErrNotFound)
		}
		return nil, fmt.Errorf("get %s: %w: %w", key, ErrStorage, err)
	}
	defer out.Body.Close()
	data, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w: %w", key, ErrStorage, err)
	}
	return data, nil
}

// Put buffers r so the SDK can sign a seekable payload. Objects become
// visible only once PutObject succeeds.
func (s *S3) Put(ctx context.Context, folder, name string, r io.Reader) (string, error) {
	key, err := Join(folder, name)
	if err != nil {
		return "", err
	}
	data, err := io.ReadAll(ctxReader{ctx: ctx, r: r})
	if err != nil {
		return "", fmt.Errorf("buffer %s: %w: %w", key, ErrStorage, err)
	}
	contentType := mime.TypeByExtension(path.Ext(key))
	if contentType == "" {
		contentType = http.DetectContentType(data)
	}

	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(data),
		ContentLength: aws.Int64(int64(len(data))),
		ContentType:   aws.String(contentType),
	})
	if err != nil {
		return "", fmt.Errorf("put %s: %w: %w", key, ErrStorage, err)
	}
	return key, nil
}

func (s *S3) Delete(ctx context.Context, paths ...string) error {
	keys := make([]types.ObjectIdentifier, 0, len(paths))
	for _, p := range paths {
		key, err := CleanPath(p)
		if err != nil {
			return err
		}
		keys = append(keys, types.ObjectIdentifier{Key: aws.String(key)})
	}

	var errs []error
	for start := 0; start < len(keys); start += deleteBatchSize {
		end := min(start+deleteBatchSize, len(keys))
		out, err := s.client.DeleteObjects(ctx, &s3.DeleteObjectsInput{
			Bucket: aws.String(s.bucket),
			Delete: &types.Delete{Objects: keys[start:end], Quiet: aws.Bool(true)},
		})
		if err != nil {
			errs = append(errs, fmt.Errorf("delete objects: %w: %w", ErrStorage, err))
			continue
		}
		for _, e := range out.Errors {
			s.logger.Warn("delete object failed",
				zap.String("key", aws.ToString(e.Key)),
				zap.String("code", aws.ToString(e.Code)),
			)
			errs = append(errs, fmt.Errorf("delete %s: %w: %s", aws.ToString(e.Key), ErrStorage, aws.ToString(e.Message)))
		}
	}
	return errors.Join(errs...)
}

func (s *S3) URL(p string) string {
	key, err := CleanPath(p)
	if err != nil {
		return ""
	}
	switch {
	case s.publicBaseURL != "":
		return s.publicBaseURL + "/" + key
	case s.endpoint != "" && s.pathStyle:
		return s.endpoint + "/" + s.bucket + "/" + key
	case s.endpoint != "":
		scheme, host, _ := strings.Cut(s.endpoint, "://")
		return scheme + "://" + s.bucket + "." + host + "/" + key
	default:
		return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", s.bucket, s.region, key)
	}
}

func (s *S3) TemporaryURL(ctx context.Context, p string, ttl time.Duration) (string, error) {
	key, err := CleanPath(p)
	if err != nil {
		return "", err
	}
	if ttl <= 0 {
		ttl = s.presignExpiration
	}
	req, err := s.presignClient.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	}, s3.WithPresignExpires(ttl))
	if err != nil {
		return "", fmt.Errorf("presign %s: %w: %w", key, ErrStorage, err)
	}
	return req.URL, nil
}

func (s *S3) Size(ctx context.Context, p string) (int64, error) {
	key, err := CleanPath(p)
	if err != nil {
		return 0, err
	}
	out, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{Bucket: aws.String(s.bucket), Key: aws.String(key)})
	if err != nil {
		if isS3NotFound(err) {
			return 0, fmt.Errorf("%s: %w", key, ErrNotFound)
		}
		return 0, fmt.Errorf("head %s: %w: %w", key, ErrStorage, err)
	}
	return aws.ToInt64(out.ContentLength), nil
}

func (s *S3) Files(ctx context.Context, folder string, recursive bool) ([]string, error) {
	base, err := CleanFolder(folder)
	if err != nil {
		return nil, err
	}
	out := []string{}
	err = s.walk(ctx, base, recursive, func(page *s3.ListObjectsV2Output) {
		for _, obj := range page.Contents {
			key := aws.ToString(obj.Key)
			if key == "" || strings.HasSuffix(key, "/") {
				continue
			}
			out = append(out, key)
		}
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(out)
	return out, nil
}

func (s *S3) Directories(ctx context.Context, folder string, recursive bool) ([]string, error) {
	base, err := CleanFolder(folder)
	if err != nil {
		return nil, err
	}
	seen := map[string]struct{}{}
	err = s.walk(ctx, base, recursive, func(page *s3.ListObjectsV2Output) {
		for _, cp := range page.CommonPrefixes {
			if dir := strings.TrimSuffix(aws.ToString(cp.Prefix), "/"); dir != "" {
				seen[dir] = struct{}{}
			}
		}
		if !recursive {
			return
		}
		for _, obj := range page.Contents {
			for _, dir := range parentDirs(base, aws.ToString(obj.Key)) {
				seen[dir] = struct{}{}
			}
		}
	})
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, len(seen))
	for dir := range seen {
		out = append(out, dir)
	}
	sort.Strings(out)
	return out, nil
}

func (s *S3) walk(ctx context.Context, base string, recursive bool, fn func(*s3.ListObjectsV2Output)) error {
	in := &s3.ListObjectsV2Input{Bucket: aws.String(s.bucket)}
	if prefix := prefixOf(base); prefix != "" {
		in.Prefix = aws.String(prefix)
	}
	if !recursive {
		in.Delimiter = aws.String("/")
	}
	pager := s3.NewListObjectsV2Paginator(s.client, in)
	for pager.HasMorePages() {
		page, err := pager.NextPage(ctx)
		if err != nil {
			return fmt.Errorf("list %s: %w: %w", base, ErrStorage, err)
		}
		fn(page)
	}
	return nil
}
