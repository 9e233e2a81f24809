package requeststore

import (
	"github.com/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"travelink-backend/models"
	requestapimodels "travelink-backend/models/api/request"
	"travelink-backend/models/apperrors"
	dbmodels "travelink-backend/models/db"
)

type Provider interface {
	Create(rec dbmodels.Request) (id string, err error)
	Update(id string, updMap map[string]interface{}) error
	// UpdateIfStatus commits only when the row still holds the status the
	// caller read; a lost race surfaces as Conflict.
	UpdateIfStatus(id string, prior models.RequestStatus, updMap map[string]interface{}) error
	Delete(id string) error
	GetByID(id string) (rec *dbmodels.Request, err error)
	List(filter requestapimodels.RequestFilter, userID string) (list []dbmodels.Request, rowCount int64, err error)
}

func NewInstance(DB *gorm.DB) Provider {
	return &impl{
		db: DB,
	}
}

type impl struct {
	db *gorm.DB
}

func (i impl) Create(rec dbmodels.Request) (id string, err error) {
	err = i.db.
		Create(&rec).
		Error
	if err != nil {
		return "", err
	}
	return rec.ID, nil
}

func (i impl) Update(id string, updMap map[string]interface{}) error {
	return i.db.
		Model(&dbmodels.Request{}).
		Where("id = ?", id).
		Updates(updMap).
		Error
}

func (i impl) UpdateIfStatus(id string, prior models.RequestStatus, updMap map[string]interface{}) error {
	tx := i.db.
		Model(&dbmodels.Request{}).
		Where("id = ?", id).
		Where("status = ?", prior).
		Updates(updMap)
	if tx.Error != nil {
		return tx.Error
	}
	if tx.RowsAffected == 0 {
		return errors.Wrap(apperrors.ErrConflict, "request status changed by a concurrent action")
	}
	return nil
}

func (i impl) Delete(id string) error {
	rec, err := i.GetByID(id)
	if err != nil {
		return err
	}
	if rec == nil {
		return nil
	}
	return i.db.
		Delete(rec).
		Error
}

func (i impl) GetByID(id string) (rec *dbmodels.Request, err error) {
	err = i.db.Model(dbmodels.Request{}).
		Where("id = ?", id).
		Preload("Department").
		Preload("Requester").
		Preload("Submitter").
		Preload("Invitations").
		First(&rec).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return rec, nil
}

func (i impl) List(filter requestapimodels.RequestFilter, userID string) (list []dbmodels.Request, rowCount int64, err error) {
	tx := i.db.Model(dbmodels.Request{})
	if filter.Status != "" {
		tx = tx.Where("status = ?", filter.Status)
	}
	if filter.Role != "" {
		tx = tx.Where("current_approver_role = ?", filter.Role).
			Where("(next_approver_id IS NULL OR next_approver_id = ?)", userID)
	}
	if filter.Mine {
		tx = tx.Where("requester_id = ? OR submitter_id = ?", userID, userID)
	}
	err = tx.Count(&rowCount).Error
	if err != nil {
		return nil, 0, err
	}
	page, limit := filter.GetPage()
	err = tx.
		Preload(clause.Associations).
		Order("created_at desc").
		Limit(limit).
		Offset((page - 1) * limit).
		Find(&list).
		Error
	if err != nil {
		return nil, 0, err
	}
	return list, rowCount, nil
}
