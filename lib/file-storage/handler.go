package filestorage

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"github.com/minio/minio-go/v7"
	"github.com/pkg/errors"

	"travelink-backend/config"
	"travelink-backend/db"
	store "travelink-backend/lib/file-storage/store"
	initchecker "travelink-backend/lib/utils/init-checker"
	"travelink-backend/models/apperrors"
	dbmodels "travelink-backend/models/db"
)

type Provider interface {
	Upload(ctx context.Context, requestID, uploadedByID string, aType dbmodels.AttachmentType, fileName, contentType string, file []byte) (id string, err error)
	Get(ctx context.Context, attachmentID string) (rec *dbmodels.RequestAttachment, body []byte, err error)
	ListByRequest(requestID string) (list []dbmodels.RequestAttachment, err error)
	Delete(ctx context.Context, attachmentID string) error
}

var Instance Provider

func NewHandler(s3client *minio.Client) {
	instance := impl{
		s3client: s3client,
		store:    store.NewInstance(db.DB),
	}
	initchecker.CheckInit(
		"s3client", instance.s3client,
		"store", instance.store,
	)
	Instance = instance
}

type impl struct {
	s3client *minio.Client
	store    store.Provider
}

func (i impl) Upload(ctx context.Context, requestID, uploadedByID string, aType dbmodels.AttachmentType, fileName, contentType string, file []byte) (id string, err error) {
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	rec := dbmodels.RequestAttachment{
		RequestID:    requestID,
		Name:         fileName,
		Type:         aType,
		ContentType:  contentType,
		UploadedByID: uploadedByID,
	}
	id, err = i.store.Save(rec)
	if err != nil {
		return "", err
	}
	_, err = i.s3client.PutObject(ctx, config.Conf.S3.Bucket, objectKey(requestID, id),
		bytes.NewReader(file), int64(len(file)), minio.PutObjectOptions{ContentType: contentType})
	if err != nil {
		delErr := i.store.Delete(id)
		if delErr != nil {
			return "", errors.Wrap(err, "attachment upload failed and its record could not be removed")
		}
		return "", errors.Wrap(err, "attachment upload failed")
	}
	return id, nil
}

func (i impl) Get(ctx context.Context, attachmentID string) (rec *dbmodels.RequestAttachment, body []byte, err error) {
	rec, err = i.store.GetByID(attachmentID)
	if err != nil {
		return nil, nil, err
	}
	if rec == nil {
		return nil, nil, errors.Wrap(apperrors.ErrNotFound, "attachment not found")
	}
	object, err := i.s3client.GetObject(ctx, config.Conf.S3.Bucket, objectKey(rec.RequestID, rec.ID), minio.GetObjectOptions{})
	if err != nil {
		return nil, nil, err
	}
	defer object.Close()
	body, err = io.ReadAll(object)
	if err != nil {
		return nil, nil, err
	}
	return rec, body, nil
}

func (i impl) ListByRequest(requestID string) (list []dbmodels.RequestAttachment, err error) {
	return i.store.ListByRequest(requestID)
}

func (i impl) Delete(ctx context.Context, attachmentID string) error {
	rec, err := i.store.GetByID(attachmentID)
	if err != nil {
		return err
	}
	if rec == nil {
		return nil
	}
	err = i.s3client.RemoveObject(ctx, config.Conf.S3.Bucket, objectKey(rec.RequestID, rec.ID), minio.RemoveObjectOptions{})
	if err != nil {
		return err
	}
	return i.store.Delete(rec.ID)
}

func objectKey(requestID, attachmentID string) string {
	return fmt.Sprintf("requests/%s/%s", requestID, attachmentID)
}
