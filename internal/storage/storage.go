package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/rs/zerolog/log"

	"github.com/Nixie-Tech-LLC/salah/internal/clock"
)

var ErrNotFound = errors.New("file not found")

// Storage keeps uploaded import files and hands them back by key.
type Storage interface {
	// SaveFile stores the upload and returns the key to Open it with.
	SaveFile(ctx context.Context, fileHeader *multipart.FileHeader, filename string) (string, error)
	Open(ctx context.Context, key string) (io.ReadCloser, error)
}

type LocalStorage struct {
	dir   string
	clock clock.Clock
}

type SpacesStorage struct {
	client *s3.S3
	bucket string
	cdnURL string
	clock  clock.Clock
}

type SpacesOptions struct {
	Endpoint  string
	Region    string
	Bucket    string
	CDNURL    string
	AccessKey string
	SecretKey string
	// PathStyle addresses the bucket in the path instead of the host name.
	PathStyle bool
	Clock     clock.Clock
}

var (
	_ Storage = (*LocalStorage)(nil)
	_ Storage = (*SpacesStorage)(nil)
)

func NewLocalStorage(dir string, clk clock.Clock) *LocalStorage {
	if clk == nil {
		clk = clock.RealClock{}
	}
	return &LocalStorage{dir: dir, clock: clk}
}

func NewSpacesStorage(opts SpacesOptions) (*SpacesStorage, error) {
	config := &aws.Config{
		Credentials:      credentials.NewStaticCredentials(opts.AccessKey, opts.SecretKey, ""),
		Endpoint:         aws.String(opts.Endpoint),
		Region:           aws.String(opts.Region),
		S3ForcePathStyle: aws.Bool(opts.PathStyle),
	}

	sess, err := session.NewSession(config)
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	clk := opts.Clock
	if clk == nil {
		clk = clock.RealClock{}
	}
	return &SpacesStorage{
		client: s3.New(sess),
		bucket: opts.Bucket,
		cdnURL: opts.CDNURL,
		clock:  clk,
	}, nil
}

var unsafeChars = regexp.MustCompile(`[^a-zA-Z0-9_-]`)

// normalizeFilename strips characters that are awkward in paths and object
// keys, then stamps the name so repeated uploads do not collide.
func normalizeFilename(original string, c clock.Clock) string {
	ext := filepath.Ext(original)
	baseName := strings.TrimSuffix(filepath.Base(original), ext)
	baseName = strings.ReplaceAll(baseName, " ", "_")
	baseName = unsafeChars.ReplaceAllString(baseName, "")
	if baseName == "" {
		baseName = "file"
	}
	ext = strings.ToLower(unsafeChars.ReplaceAllString(strings.TrimPrefix(ext, "."), ""))
	if ext != "" {
		ext = "." + ext
	}

	timestamp := c.Now().Format("20060102_150405")
	return fmt.Sprintf("%s_%s%s", baseName, timestamp, ext)
}

func (ls *LocalStorage) SaveFile(_ context.Context, fileHeader *multipart.FileHeader, filename string) (string, error) {
	key := normalizeFilename(filename, ls.clock)
	log.Debug().Str("original", filename).Str("normalized", key).Msg("File upload normalized")

	if err := os.MkdirAll(ls.dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create upload directory: %w", err)
	}

	src, err := fileHeader.Open()
	if err != nil {
		return "", fmt.Errorf("failed to open uploaded file: %w", err)
	}
	defer src.Close()

	dst, err := os.Create(filepath.Join(ls.dir, key))
	if err != nil {
		return "", fmt.Errorf("failed to create destination file: %w", err)
	}
	defer dst.Close()

	if _, err := io.Copy(dst, src); err != nil {
		return "", fmt.Errorf("failed to save file: %w", err)
	}
	return key, nil
}

// Open reads a file relative to the storage directory. Keys may not escape it.
func (ls *LocalStorage) Open(_ context.Context, key string) (io.ReadCloser, error) {
	if !filepath.IsLocal(key) {
		return nil, fmt.Errorf("invalid key %q", key)
	}
	f, err := os.Open(filepath.Join(ls.dir, key))
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, key)
	}
	return f, err
}

func (ss *SpacesStorage) SaveFile(ctx context.Context, fileHeader *multipart.FileHeader, filename string) (string, error) {
	normalized := normalizeFilename(filename, ss.clock)
	log.Debug().Str("original", filename).Str("normalized", normalized).Msg("File upload normalized")

	src, err := fileHeader.Open()
	if err != nil {
		return "", fmt.Errorf("failed to open uploaded file: %w", err)
	}
	defer src.Close()

	key := "imports/" + normalized
	_, err = ss.client.PutObjectWithContext(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(ss.bucket),
		Key:         aws.String(key),
		Body:        src,
		ContentType: aws.String(getContentType(normalized)),
		ACL:         aws.String("private"),
	})
	if err != nil {
		log.Error().Err(err).Msg("Failed to upload file to Spaces")
		return "", fmt.Errorf("failed to upload to Spaces: %w", err)
	}
	return key, nil
}

func (ss *SpacesStorage) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	out, err := ss.client.GetObjectWithContext(ctx, &s3.GetObjectInput{
		Bucket: aws.String(ss.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		var aerr awserr.Error
		if errors.As(err, &aerr) && aerr.Code() == s3.ErrCodeNoSuchKey {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, key)
		}
		return nil, fmt.Errorf("failed to read %s from Spaces: %w", key, err)
	}
	return out.Body, nil
}

// URL is the CDN location of key.
func (ss *SpacesStorage) URL(key string) string {
	return fmt.Sprintf("%s/%s", strings.TrimSuffix(ss.cdnURL, "/"), key)
}

func getContentType(filename string) string {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".json":
		return "application/json"
	case ".csv":
		return "text/csv"
	case ".txt":
		return "text/plain"
	default:
		return "application/octet-stream"
	}
}
