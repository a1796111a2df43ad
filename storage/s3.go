package storage

import (
	"context"
	"fmt"
	"io"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/yeremiapane/restaurant-booking/utils"
)

// S3Store keeps images in a bucket. PublicURL is the bucket (or CDN) origin
// images are served from.
type S3Store struct {
	Client    *s3.Client
	Bucket    string
	PublicURL string
}

func NewS3Store(ctx context.Context, bucket, region, publicURL string) (*S3Store, error) {
	var opts []func(*config.LoadOptions) error
	if region != "" {
		opts = append(opts, config.WithRegion(region))
	}
	cfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	if publicURL == "" {
		publicURL = fmt.Sprintf("https://%s.s3.%s.amazonaws.com", bucket, cfg.Region)
	}
	return &S3Store{Client: s3.NewFromConfig(cfg), Bucket: bucket, PublicURL: publicURL}, nil
}

func (s *S3Store) Save(ctx context.Context, filename string, body io.Reader) (string, error) {
	key, contentType, err := objectKey(filename)
	if err != nil {
		return "", err
	}
	_, err = s.Client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.Bucket),
		Key:         aws.String(key),
		Body:        body,
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return "", fmt.Errorf("upload %s: %w", key, err)
	}
	utils.InfoLogger.Printf("Uploaded image s3://%s/%s", s.Bucket, key)
	return joinURL(s.PublicURL, key), nil
}

func (s *S3Store) Delete(ctx context.Context, u string) error {
	key, ok := keyFromURL(s.PublicURL, u)
	if !ok {
		return nil
	}
	_, err := s.Client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.Bucket),
		Key:    aws.String(key),
	})
	return err
}

func (s *S3Store) Copy(ctx context.Context, u string) (string, error) {
	key, ok := keyFromURL(s.PublicURL, u)
	if !ok {
		return u, nil
	}
	newKey, _, err := objectKey(key)
	if err != nil {
		return "", err
	}
	_, err = s.Client.CopyObject(ctx, &s3.CopyObjectInput{
		Bucket:     aws.String(s.Bucket),
		CopySource: aws.String(s.Bucket + "/" + key),
		Key:        aws.String(newKey),
	})
	if err != nil {
		return "", fmt.Errorf("copy %s: %w", key, err)
	}
	return joinURL(s.PublicURL, newKey), nil
}
