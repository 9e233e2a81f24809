package usersstore

import (
	"github.com/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"travelink-backend/models"
	dbmodels "travelink-backend/models/db"
)

type Provider interface {
	GetByID(userID string) (rec *dbmodels.User, err error)
	GetByEmail(email string) (rec *dbmodels.User, err error)
	CandidatesFor(tokens []string) (userList []dbmodels.User, err error)
	GetDepartmentHead(departmentID string) (rec *dbmodels.User, err error)
	GetExec(execType models.ExecType) (rec *dbmodels.User, err error)
	ListByApproverRole(role models.ApproverRole) (userList []dbmodels.User, err error)
	Update(userID string, updMap map[string]interface{}) error
}

func NewInstance(DB *gorm.DB) Provider {
	return &impl{
		db: DB,
	}
}

type impl struct {
	db *gorm.DB
}

func (i impl) GetByID(userID string) (rec *dbmodels.User, err error) {
	err = i.db.Model(dbmodels.User{}).
		Where("id = ?", userID).
		Preload(clause.Associations).
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

func (i impl) GetByEmail(email string) (rec *dbmodels.User, err error) {
	err = i.db.Model(dbmodels.User{}).
		Where("LOWER(email) = LOWER(?)", email).
		Preload(clause.Associations).
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

// CandidatesFor returns active users whose name contains any of the tokens.
// Ranking happens in the identity resolver, not here.
func (i impl) CandidatesFor(tokens []string) (userList []dbmodels.User, err error) {
	if len(tokens) == 0 {
		return nil, nil
	}
	tx := i.db.Model(dbmodels.User{}).
		Where("status = ?", models.UserStatusActive)
	cond := i.db.Where("name ILIKE ?", "%"+tokens[0]+"%")
	for _, token := range tokens[1:] {
		cond = cond.Or("name ILIKE ?", "%"+token+"%")
	}
	err = tx.Where(cond).
		Limit(50).
		Find(&userList).
		Error
	if err != nil {
		return nil, err
	}
	return userList, nil
}

func (i impl) GetDepartmentHead(departmentID string) (rec *dbmodels.User, err error) {
	err = i.db.Model(dbmodels.User{}).
		Where("department_id = ?", departmentID).
		Where("is_head = true").
		Where("status = ?", models.UserStatusActive).
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

func (i impl) GetExec(execType models.ExecType) (rec *dbmodels.User, err error) {
	err = i.db.Model(dbmodels.User{}).
		Where("is_exec = true").
		Where("exec_type = ?", execType).
		Where("status = ?", models.UserStatusActive).
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

func (i impl) ListByApproverRole(role models.ApproverRole) (userList []dbmodels.User, err error) {
	tx := i.db.Model(dbmodels.User{}).
		Where("status = ?", models.UserStatusActive)
	switch role {
	case models.ApproverRoleAdmin:
		tx = tx.Where("is_admin = true")
	case models.ApproverRoleComptroller:
		tx = tx.Where("is_comptroller = true")
	case models.ApproverRoleHr:
		tx = tx.Where("is_hr = true")
	case models.ApproverRoleVp:
		tx = tx.Where("is_exec = true").Where("exec_type = ?", models.ExecTypeVp)
	case models.ApproverRolePresident:
		tx = tx.Where("is_exec = true").Where("exec_type = ?", models.ExecTypePresident)
	default:
		return nil, errors.Errorf("no role flag mapped for approver role %v", role)
	}
	err = tx.Find(&userList).Error
	if err != nil {
		return nil, err
	}
	return userList, nil
}

func (i impl) Update(userID string, updMap map[string]interface{}) error {
	return i.db.
		Model(&dbmodels.User{}).
		Where("id = ?", userID).
		Updates(updMap).
		Error
}
