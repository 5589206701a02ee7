package storage

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
	"github.com/localbase/localbase-backend/config"
	"github.com/localbase/localbase-backend/pkg/logger"
)

const (
	// MaxImageSize is the largest image a presigned URL is issued for.
	MaxImageSize  = 5 << 20
	presignExpiry = 15 * time.Minute
	defaultFolder = "posts"
)

var (
	ErrContentType  = errors.New("only JPEG, PNG, GIF and WEBP images are allowed")
	ErrFolder       = errors.New("unknown upload folder")
	ErrFileTooLarge = errors.New("file exceeds the upload size limit")
)

var allowedContentTypes = map[string]bool{
	"image/jpeg": true,
	"image/jpg":  true,
	"image/png":  true,
	"image/gif":  true,
	"image/webp": true,
}

var allowedFolders = map[string]bool{
	"businesses": true,
	"posts":      true,
	"reviews":    true,
}

// Uploader issues direct-to-bucket upload URLs for images.
type Uploader interface {
	PresignUpload(ctx context.Context, req UploadRequest) (*PresignedURLResponse, error)
}

type UploadRequest struct {
	Filename    string
	ContentType string
	Folder      string
	Size        int64
	Owner       string
}

type PresignedURLResponse struct {
	UploadURL string    `json:"upload_url"`
	FileURL   string    `json:"file_url"`
	Key       string    `json:"key"`
	ExpiresAt time.Time `json:"expires_at"`
}

type S3Storage struct {
	client  *s3.Client
	presign *s3.PresignClient
	bucket  string
	baseURL string
}

func NewS3Storage(ctx context.Context, cfg *config.S3Config) *S3Storage {
	var awsCfg aws.Config
	var err error

	// Static keys win; otherwise fall back to the default credential chain.
	if cfg.AccessKeyID != "" && cfg.SecretAccessKey != "" {
		awsCfg = aws.Config{
			Region: cfg.Region,
			Credentials: credentials.NewStaticCredentialsProvider(
				cfg.AccessKeyID,
				cfg.SecretAccessKey,
				"",
			),
		}
	} else {
		awsCfg, err = awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.Region))
		if err != nil {
			logger.Warn("Falling back to region-only AWS config", map[string]interface{}{
				"error": err.Error(),
			})
			awsCfg = aws.Config{Region: cfg.Region}
		}
	}

	client := s3.NewFromConfig(awsCfg)
	return &S3Storage{
		client:  client,
		presign: s3.NewPresignClient(client),
		bucket:  cfg.Bucket,
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
	}
}

// ValidateUpload checks type, folder and size, returning the folder to use.
func ValidateUpload(req UploadRequest) (string, error) {
	if !allowedContentTypes[strings.ToLower(req.ContentType)] {
		return "", ErrContentType
	}
	folder := req.Folder
	if folder == "" {
		folder = defaultFolder
	}
	if !allowedFolders[folder] {
		return "", ErrFolder
	}
	if req.Size > MaxImageSize {
		return "", ErrFileTooLarge
	}
	return folder, nil
}

// ObjectKey places uploads under folder/owner so one wallet's files group
// together.
func ObjectKey(folder, owner, filename string) string {
	ext := strings.ToLower(filepath.Ext(filename))
	if owner == "" {
		return fmt.Sprintf("%s/%s%s", folder, uuid.New().String(), ext)
	}
	return fmt.Sprintf("%s/%s/%s%s", folder, strings.ToLower(owner), uuid.New().String(), ext)
}

// PresignUpload returns a PUT URL valid for fifteen minutes.
func (s *S3Storage) PresignUpload(ctx context.Context, req UploadRequest) (*PresignedURLResponse, error) {
	folder, err := ValidateUpload(req)
	if err != nil {
		return nil, err
	}
	key := ObjectKey(folder, req.Owner, req.Filename)

	input := &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		ContentType: aws.String(req.ContentType),
	}
	if req.Size > 0 {
		input.ContentLength = aws.Int64(req.Size)
	}
	presignedReq, err := s.presign.PresignPutObject(ctx, input, s3.WithPresignExpires(presignExpiry))
	if err != nil {
		return nil, fmt.Errorf("failed to generate presigned URL: %w", err)
	}

	var fileURL string
	if s.baseURL != "" {
		fileURL = fmt.Sprintf("%s/%s", s.baseURL, key)
	} else {
		fileURL = fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", s.bucket, s.client.Options().Region, key)
	}

	return &PresignedURLResponse{
		UploadURL: presignedReq.URL,
		FileURL:   fileURL,
		Key:       key,
		ExpiresAt: time.Now().Add(presignExpiry),
	}, nil
}
