package dbmodels

import (
	"travelink-backend/models"
)

// RequestHistory is append-only; rows are never updated or deleted.
type RequestHistory struct {
	BaseModel
	RequestID      string                `gorm:"type:varchar(36);index"`
	Action         models.HistoryAction  `gorm:"type:varchar(50)"`
	ActorID        string                `gorm:"type:varchar(36)"`
	Actor          *User                 `gorm:"foreignKey:ActorID"`
	ActorRole      models.ApproverRole   `gorm:"type:varchar(50)"`
	PreviousStatus *models.RequestStatus `gorm:"type:varchar(50)"`
	NewStatus      models.RequestStatus  `gorm:"type:varchar(50)"`
	Comments       string
	Metadata       JSONMap `gorm:"type:jsonb"`
}
