package services

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/dmitrijs2005/lotkeeper/internal/common"
	sc "github.com/dmitrijs2005/lotkeeper/internal/server/config"
	"github.com/dmitrijs2005/lotkeeper/internal/server/repositories/repomanager"
	"github.com/google/uuid"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

var (
	loadDefaultAWSConfig = config.LoadDefaultConfig

	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) *s3.Client {
		return s3.NewFromConfig(cfg, optFns...)
	}

	newS3PresignClient = func(c *s3.Client) *s3.PresignClient {
		return s3.NewPresignClient(c)
	}

	presignPutObject = func(pc *s3.PresignClient, ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
		return pc.PresignPutObject(ctx, in, optFns...)
	}
	presignGetObject = func(pc *s3.PresignClient, ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
		return pc.PresignGetObject(ctx, in, optFns...)
	}
)

// uploadValidity bounds how long a seller has to upload a photo.
const uploadValidity = 15 * time.Minute

// PhotoService hands out presigned object-store links for lot photos.
// Sellers upload with a PUT link; listings show GET links.
type PhotoService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	config      *sc.Config
}

func NewPhotoService(db *sql.DB, repomanager repomanager.RepositoryManager, config *sc.Config) *PhotoService {
	return &PhotoService{
		db:          db,
		repomanager: repomanager,
		config:      config,
	}
}

func photoStorageKey(d time.Time) string {
	return fmt.Sprintf("lots/%d/%d/%d/%v", d.Year(), d.Month(), d.Day(), uuid.New())
}

func (s *PhotoService) getPresignClient(ctx context.Context) (*s3.PresignClient, error) {
	cfg, err := loadDefaultAWSConfig(ctx,
		config.WithRegion(s.config.S3Region),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			s.config.S3RootUser,
			s.config.S3RootPassword,
			"",
		)))
	if err != nil {
		return nil, err
	}

	client := newS3ClientFromConfig(cfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(s.config.S3BaseEndpoint)
		o.UsePathStyle = true
	})

	return newS3PresignClient(client), nil
}

// GetPresignedPutURL returns a fresh storage key and the link to upload it.
// Only registered users may upload.
func (s *PhotoService) GetPresignedPutURL(ctx context.Context, userID string) (string, string, error) {
	if _, err := s.repomanager.Users(s.db).GetByID(ctx, userID); err != nil {
		return "", "", fmt.Errorf("photo upload for %q: %w", userID, common.ErrorUnauthorized)
	}

	presignClient, err := s.getPresignClient(ctx)
	if err != nil {
		return "", "", err
	}

	bucket := s.config.S3Bucket
	key := photoStorageKey(time.Now())

	req, err := presignPutObject(presignClient, ctx, &s3.PutObjectInput{
		Bucket: &bucket,
		Key:    &key,
	}, s3.WithPresignExpires(uploadValidity))
	if err != nil {
		return "", "", err
	}

	return key, req.URL, nil
}

// GetPresignedGetURL links a stored photo for PhotoURLValidity.
func (s *PhotoService) GetPresignedGetURL(ctx context.Context, key string) (string, error) {
	presignClient, err := s.getPresignClient(ctx)
	if err != nil {
		return "", err
	}

	bucket := s.config.S3Bucket

	req, err := presignGetObject(presignClient, ctx, &s3.GetObjectInput{
		Bucket: &bucket,
		Key:    &key,
	}, s3.WithPresignExpires(s.config.PhotoURLValidity))
	if err != nil {
		return "", err
	}

	return req.URL, nil
}
