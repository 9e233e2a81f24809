package pdfexport

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"travelink-backend/models"
	requestapimodels "travelink-backend/models/api/request"
)

func TestExportRequest(t *testing.T) {
	view := requestapimodels.RequestView{
		RequestNumber:   "TO-2026-000123",
		RequestType:     models.RequestTypeTravelOrder,
		Status:          models.RequestStatusApproved,
		Title:           "Regional planning summit",
		Purpose:         "Attend the annual planning summit",
		Destination:     "Cebu City",
		TravelStartDate: time.Date(2026, 9, 14, 0, 0, 0, 0, time.UTC),
		TravelEndDate:   time.Date(2026, 9, 16, 0, 0, 0, 0, time.UTC),
		RequesterName:   "Juan Dela Cruz",
		DepartmentName:  "College of Engineering",
		HasBudget:       true,
		TotalBudget:     12500,
		CreatedAt:       time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC),
	}
	history := []requestapimodels.HistoryView{
		{Action: models.HistoryActionCreated, ActorRole: models.ApproverRoleSubmitter, ActorName: "Maria Santos", CreatedAt: view.CreatedAt},
		{Action: models.HistoryActionApproved, ActorRole: models.ApproverRoleHead, ActorName: "Pedro Reyes", Comments: "ok", CreatedAt: view.CreatedAt.Add(time.Hour)},
	}

	body, err := impl{}.ExportRequest(view, history)
	require.NoError(t, err)
	require.NotEmpty(t, body)
	assert.Equal(t, "%PDF", string(body[:4]))
}
