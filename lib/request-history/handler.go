package requesthistory

import (
	"gorm.io/gorm"

	log "github.com/sirupsen/logrus"

	"travelink-backend/db"
	store "travelink-backend/lib/request-history/store"
	initchecker "travelink-backend/lib/utils/init-checker"
	"travelink-backend/models"
	requestapimodels "travelink-backend/models/api/request"
	dbmodels "travelink-backend/models/db"
)

// Entry is one audit record for a request transition.
type Entry struct {
	RequestID      string
	Action         models.HistoryAction
	ActorID        string
	ActorRole      models.ApproverRole
	PreviousStatus *models.RequestStatus
	NewStatus      models.RequestStatus
	Comments       string
	Metadata       dbmodels.JSONMap
}

type Provider interface {
	// Append is best-effort: a failed audit write is logged and never blocks
	// the transition it describes.
	Append(entry Entry)
	List(requestID string) (list []requestapimodels.HistoryView, err error)
	ListForPeriod(from, to string) (list []dbmodels.RequestHistory, err error)
}

var Instance Provider

func NewHandler() {
	instance := impl{
		store: store.NewInstance(db.DB),
	}
	initchecker.CheckInit(
		"store", instance.store,
	)
	Instance = instance
}

// NewWithTx binds the recorder to a transaction so audit rows commit
// together with the transition they describe.
func NewWithTx(tx *gorm.DB) Provider {
	return impl{
		store: store.NewInstance(tx),
	}
}

type impl struct {
	store store.Provider
}

func (i impl) Append(entry Entry) {
	rec := dbmodels.RequestHistory{
		RequestID:      entry.RequestID,
		Action:         entry.Action,
		ActorID:        entry.ActorID,
		ActorRole:      entry.ActorRole,
		PreviousStatus: entry.PreviousStatus,
		NewStatus:      entry.NewStatus,
		Comments:       entry.Comments,
		Metadata:       entry.Metadata,
	}
	_, err := i.store.Create(rec)
	if err != nil {
		log.WithError(err).
			WithField("request_id", entry.RequestID).
			WithField("action", entry.Action).
			Error("failed to append request history entry")
	}
}

func (i impl) List(requestID string) (list []requestapimodels.HistoryView, err error) {
	recList, err := i.store.ListByRequest(requestID)
	if err != nil {
		return nil, err
	}
	result := make([]requestapimodels.HistoryView, 0, len(recList))
	for _, rec := range recList {
		result = append(result, requestapimodels.HistoryConvert(rec))
	}
	return result, nil
}

func (i impl) ListForPeriod(from, to string) (list []dbmodels.RequestHistory, err error) {
	return i.store.ListForPeriod(from, to)
}
