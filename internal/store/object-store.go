package store

import (
	"context"
	"fmt"
	"io"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
)

type ObjectStore interface {
	UploadFile(ctx context.Context, file io.Reader, id string) (string, error)
}

type CloudinaryStore struct {
	store *cloudinary.Cloudinary
}

func NewCloudinaryStore(store *cloudinary.Cloudinary) *CloudinaryStore {
	return &CloudinaryStore{
		store: store,
	}
}

func (s *CloudinaryStore) UploadFile(ctx context.Context, file io.Reader, id string) (string, error) {
	resp, err := s.store.Upload.Upload(ctx, file, uploader.UploadParams{PublicID: id, Folder: "libsy"})

	if err != nil {
		return "", fmt.Errorf("error uploading file: %+v", err)
	}

	return resp.SecureURL, nil
}

type S3Store struct {
	client *s3.Client
	bucket string
}

func NewS3Store(client *s3.Client, bucket string) *S3Store {
	return &S3Store{
		client: client,
		bucket: bucket,
	}
}

func (s *S3Store) UploadFile(ctx context.Context, file io.Reader, id string) (string, error) {
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(id),
		Body:   file,
	})

	if err != nil {
		return "", fmt.Errorf("error uploading object to s3: %v", err)
	}

	return fmt.Sprintf("https://%s.s3.amazonaws.com/%s", s.bucket, id), nil
}
