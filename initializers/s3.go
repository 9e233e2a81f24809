package initializers

import (
	"context"

	log "github.com/sirupsen/logrus"

	filestorage "travelink-backend/lib/file-storage"
	s3client "travelink-backend/s3"
)

func InitS3(ctx context.Context) {
	client, err := s3client.NewClient(ctx)
	if err != nil {
		log.WithError(err).Error("failed to initialize the S3 client, attachments are unavailable")
		return
	}
	filestorage.NewHandler(client)
	log.Info("S3 client initialized")
}
