package media

import (
	"errors"
	"fmt"
	"io"
	"mime"
	"path"
	"strings"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3iface"
	"github.com/aws/aws-sdk-go/service/s3/s3manager"
	"github.com/rs/zerolog"
)

type S3Options struct {
	Bucket    string
	Region    string
	Endpoint  string // custom endpoint for S3-compatible services, enables path-style addressing
	AccessKey string
	SecretKey string
	PublicURL string // defaults to https://<bucket>.s3.amazonaws.com
}

// S3Storage implements the Store interface on an S3 bucket. Asset types map
// to key prefixes the same way they map to subdirectories in LocalStorage.
type S3Storage struct {
	client    s3iface.S3API
	uploader  *s3manager.Uploader
	bucket    string
	publicURL string
	subDirMap map[AssetType]string
	log       zerolog.Logger
}

var _ Store = (*S3Storage)(nil)

// NewS3Storage opens an AWS session for opts.
func NewS3Storage(opts S3Options, subDirs map[AssetType]string, log zerolog.Logger) (*S3Storage, error) {
	awsCfg := &aws.Config{
		Region: aws.String(opts.Region),
	}
	if opts.AccessKey != "" {
		awsCfg.Credentials = credentials.NewStaticCredentials(opts.AccessKey, opts.SecretKey, "")
	}
	if opts.Endpoint != "" {
		awsCfg.Endpoint = aws.String(opts.Endpoint)
		awsCfg.S3ForcePathStyle = aws.Bool(true)
	}

	sess, err := session.NewSession(awsCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create S3 session: %w", err)
	}
	return NewS3StorageWithClient(s3.New(sess), opts, subDirs, log), nil
}

// NewS3StorageWithClient builds the store around an existing client.
func NewS3StorageWithClient(client s3iface.S3API, opts S3Options, subDirs map[AssetType]string, log zerolog.Logger) *S3Storage {
	publicURL := opts.PublicURL
	if publicURL == "" {
		publicURL = fmt.Sprintf("https://%s.s3.amazonaws.com", opts.Bucket)
	}
	log = log.With().Str("component", "media.s3").Str("bucket", opts.Bucket).Logger()
	log.Info().Msg("initialized S3 storage")
	return &S3Storage{
		client:    client,
		uploader:  s3manager.NewUploaderWithClient(client),
		bucket:    opts.Bucket,
		publicURL: strings.TrimRight(publicURL, "/"),
		subDirMap: subDirs,
		log:       log,
	}
}

func (s *S3Storage) key(assetType AssetType, filename string) (string, error) {
	prefix, ok := s.subDirMap[assetType]
	if !ok {
		return "", fmt.Errorf("asset type '%s' is not configured", assetType)
	}
	if filename == "" || strings.Contains(filename, "/") || filename == "." || filename == ".." {
		return "", fmt.Errorf("invalid filename '%s' for S3Storage.Save", filename)
	}
	return path.Join(prefix, filename), nil
}

func cleanKey(relativePath string) (string, error) {
	key := strings.TrimPrefix(path.Clean("/"+relativePath), "/")
	if key == "" || relativePath == "" {
		return "", fmt.Errorf("invalid path: empty asset path")
	}
	return key, nil
}

func (s *S3Storage) Save(assetType AssetType, filename string, data io.Reader) (string, error) {
	key, err := s.key(assetType, filename)
	if err != nil {
		return "", err
	}

	contentType := mime.TypeByExtension(path.Ext(filename))
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	_, err = s.uploader.Upload(&s3manager.UploadInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        data,
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload '%s' to S3: %w", key, err)
	}

	s.log.Debug().Str("key", key).Msg("uploaded asset")
	return key, nil
}

func (s *S3Storage) Get(relativePath string) (io.ReadCloser, error) {
	key, err := cleanKey(relativePath)
	if err != nil {
		return nil, err
	}
	out, err := s.client.GetObject(&s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		var aerr awserr.Error
		if errors.As(err, &aerr) && aerr.Code() == s3.ErrCodeNoSuchKey {
			return nil, fmt.Errorf("%w at '%s'", ErrAssetNotFound, relativePath)
		}
		return nil, fmt.Errorf("failed to get '%s' from S3: %w", key, err)
	}
	return out.Body, nil
}

func (s *S3Storage) Delete(relativePath string) error {
	key, err := cleanKey(relativePath)
	if err != nil {
		return err
	}
	_, err = s.client.DeleteObject(&s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("failed to delete '%s' from S3: %w", key, err)
	}
	s.log.Debug().Str("key", key).Msg("deleted asset")
	return nil
}

func (s *S3Storage) URL(relativePath string) string {
	key, err := cleanKey(relativePath)
	if err != nil {
		return ""
	}
	return s.publicURL + "/" + key
}
