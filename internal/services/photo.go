package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	appconfig "lovehour-backend/internal/config"
	"lovehour-backend/internal/models"
	"lovehour-backend/internal/repository"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
)

const (
	uploadURLTTL   = 5 * time.Minute
	downloadURLTTL = 15 * time.Minute
	maxCaptionLen  = 280
)

// Errors surfaced by the photo service.
var (
	ErrGateClosed     = errors.New("upload gate is closed")
	ErrCaptionTooLong = errors.New("caption is too long")
)

// PhotoService handles photo-related business logic
type PhotoService struct {
	photoRepo *repository.PhotoRepository
	userRepo  *repository.UserRepository
	scheduler *UnlockScheduler
	s3Client  *s3.Client
	presign   *s3.PresignClient
	s3Bucket  string
}

// NewPhotoService creates a new photo service
func NewPhotoService(
	photoRepo *repository.PhotoRepository,
	userRepo *repository.UserRepository,
	scheduler *UnlockScheduler,
	awsCfg appconfig.AWSConfig,
) (*PhotoService, error) {
	loadOpts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(awsCfg.Region),
	}
	if awsCfg.AccessKey != "" {
		loadOpts = append(loadOpts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(awsCfg.AccessKey, awsCfg.SecretKey, ""),
		))
	}

	cfg, err := awsconfig.LoadDefaultConfig(context.Background(), loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	s3Client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		if awsCfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(awsCfg.Endpoint)
			o.UsePathStyle = true
		}
	})

	return &PhotoService{
		photoRepo: photoRepo,
		userRepo:  userRepo,
		scheduler: scheduler,
		s3Client:  s3Client,
		presign:   s3.NewPresignClient(s3Client),
		s3Bucket:  awsCfg.S3Bucket,
	}, nil
}

// UploadRequest represents a request to post a photo-and-caption update
type UploadRequest struct {
	Caption     string `json:"caption"`
	ContentType string `json:"content_type"`
}

// UploadResponse carries the pre-signed PUT URL for the new photo
type UploadResponse struct {
	UploadURL string        `json:"upload_url"`
	ExpiresIn int           `json:"expires_in"`
	Photo     *models.Photo `json:"photo"`
}

// Gate returns the upload gate status for a user.
func (s *PhotoService) Gate(ctx context.Context, userID string) (GateStatus, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return GateStatus{}, err
	}
	return GateAt(time.Now(), user.LastUploadAt, user.IntervalHours), nil
}

// Upload checks the gate, records the photo and hands back a pre-signed
// PUT URL. The last-upload stamp and the photo row commit together.
func (s *PhotoService) Upload(ctx context.Context, userID, caption, contentType string) (*UploadResponse, error) {
	if len(caption) > maxCaptionLen {
		return nil, ErrCaptionTooLong
	}

	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	if !CanUploadAt(now, user.LastUploadAt, user.IntervalHours) {
		return nil, ErrGateClosed
	}

	photoID := uuid.New().String()
	s3Key := fmt.Sprintf("%s/%s.jpg", userID, photoID)

	request, err := s.presign.PresignPutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.s3Bucket),
		Key:         aws.String(s3Key),
		ContentType: aws.String(contentType),
	}, func(opts *s3.PresignOptions) {
		opts.Expires = uploadURLTTL
	})
	if err != nil {
		return nil, fmt.Errorf("failed to generate pre-signed URL: %w", err)
	}

	photo := &models.Photo{
		ID:        photoID,
		UserID:    userID,
		S3Key:     s3Key,
		Caption:   caption,
		TakenAt:   now,
		CreatedAt: now,
	}

	if err := s.photoRepo.Create(ctx, photo); err != nil {
		return nil, fmt.Errorf("failed to create photo record: %w", err)
	}

	if s.scheduler != nil {
		s.scheduler.Reschedule(userID, &now, user.IntervalHours)
	}

	return &UploadResponse{
		UploadURL: request.URL,
		ExpiresIn: int(uploadURLTTL.Seconds()),
		Photo:     photo,
	}, nil
}

// Feed retrieves the merged photo feed for a user and their partner with
// pagination, newest first, with pre-signed download URLs.
func (s *PhotoService) Feed(ctx context.Context, userID string, limit, offset int) ([]*models.Photo, int, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, 0, err
	}

	userIDs := []string{userID}
	if user.PartnerID != nil {
		userIDs = append(userIDs, *user.PartnerID)
	}

	if limit <= 0 {
		limit = 50
	}
	if limit > 100 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}

	photos, total, err := s.photoRepo.GetFeed(ctx, userIDs, limit, offset)
	if err != nil {
		return nil, 0, err
	}

	for _, photo := range photos {
		url, err := s.DownloadURL(ctx, photo.S3Key)
		if err != nil {
			return nil, 0, err
		}
		photo.S3URL = url
	}

	return photos, total, nil
}

// DownloadURL generates a pre-signed GET URL for a stored photo.
func (s *PhotoService) DownloadURL(ctx context.Context, s3Key string) (string, error) {
	request, err := s.presign.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.s3Bucket),
		Key:    aws.String(s3Key),
	}, func(opts *s3.PresignOptions) {
		opts.Expires = downloadURLTTL
	})
	if err != nil {
		return "", fmt.Errorf("failed to generate download URL: %w", err)
	}
	return request.URL, nil
}
