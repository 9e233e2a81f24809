package dbmodels

import (
	"time"

	"travelink-backend/models"
)

// RequesterInvitation lets a named co-requester confirm participation via a
// token link. A pending invitation is confirmed or declined exactly once.
type RequesterInvitation struct {
	BaseModel
	RequestID   string                  `gorm:"type:varchar(36);index"`
	Email       string                  `gorm:"type:varchar(255);index"`
	Name        string                  `gorm:"type:varchar(255)"`
	UserID      *string                 `gorm:"type:varchar(36)"`
	User        *User                   `gorm:"foreignKey:UserID"`
	InvitedByID string                  `gorm:"type:varchar(36)"`
	Status      models.InvitationStatus `gorm:"type:varchar(20)"`
	Token       string                  `gorm:"type:varchar(64);uniqueIndex"`
	ExpiresAt   time.Time
	Signature   string
	ConfirmedAt *time.Time
}

func (i RequesterInvitation) IsExpired(now time.Time) bool {
	return now.After(i.ExpiresAt)
}
