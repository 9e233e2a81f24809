package dbmodels

import (
	"strings"

	"travelink-backend/models"
)

type User struct {
	BaseModel
	Email         string `gorm:"type:varchar(255);uniqueIndex"`
	Name          string `gorm:"type:varchar(255)"`
	Role          models.UserRole
	Status        models.UserStatus
	DepartmentID  *string `gorm:"type:varchar(36)"`
	Department    *Department
	PositionTitle string `gorm:"type:varchar(255)"`
	IsHead        bool
	IsAdmin       bool
	IsComptroller bool
	IsHr          bool
	IsExec        bool
	ExecType      *models.ExecType `gorm:"type:varchar(20)"`
	Signature     string           // data url of the captured signature
}

func (u User) GetFullName() string {
	return strings.TrimSpace(u.Name)
}
