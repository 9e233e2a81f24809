package s3client

import (
	"context"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"travelink-backend/config"
)

func NewClient(ctx context.Context) (*minio.Client, error) {
	minioClient, err := minio.New(config.Conf.S3.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(config.Conf.S3.AccessKey, config.Conf.S3.SecretKey, ""),
		Secure: *config.Conf.S3.UseSSL,
	})
	if err != nil {
		return nil, err
	}
	err = makeBucket(ctx, minioClient)
	if err != nil {
		return nil, err
	}
	return minioClient, nil
}

func makeBucket(ctx context.Context, client *minio.Client) error {
	bucketName := config.Conf.S3.Bucket
	exists, err := client.BucketExists(ctx, bucketName)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}
	return client.MakeBucket(ctx, bucketName, minio.MakeBucketOptions{Region: "us-east-1"})
}
