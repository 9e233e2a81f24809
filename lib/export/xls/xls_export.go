package xlsexport

import (
	"bytes"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/xuri/excelize/v2"

	dbmodels "travelink-backend/models/db"
)

type Provider interface {
	ExportRequestList(list []dbmodels.Request) (*bytes.Buffer, error)
	ExportRequestHistory(list []dbmodels.RequestHistory) (*bytes.Buffer, error)
}

var Instance Provider

func NewHandler() {
	Instance = impl{}
}

type impl struct{}

var requestHeaders = []string{"Number", "Type", "Title", "Requester", "Department", "Destination", "Travel start", "Travel end", "Budget", "Status", "Filed"}

func (i impl) ExportRequestList(list []dbmodels.Request) (*bytes.Buffer, error) {
	f := excelize.NewFile()
	defer func() {
		if err := f.Close(); err != nil {
			log.WithError(err).Error("failed to close xlsx file")
		}
	}()
	sheet := "Sheet1"
	row, err := writeHeader(f, sheet, 0, requestHeaders)
	if err != nil {
		return nil, errors.Wrap(err, "failed to write xlsx header")
	}
	if len(list) != 0 {
		row, err = writeRequestData(f, sheet, list, row)
		if err != nil {
			return nil, errors.Wrap(err, "failed to write xlsx data rows")
		}
	}
	f.SetSheetName(sheet, "Requests")
	return f.WriteToBuffer()
}

func writeRequestData(f *excelize.File, sheet string, list []dbmodels.Request, row int) (int, error) {
	if err := applyDataCellStyle(f, sheet, 1, row+1, len(requestHeaders), len(list)+1); err != nil {
		return row, err
	}
	for _, item := range list {
		row++
		values := []interface{}{
			item.RequestNumber,
			string(item.RequestType),
			item.Title,
			item.RequesterName,
			departmentName(item),
			item.Destination,
			dateOrEmpty(item.TravelStartDate),
			dateOrEmpty(item.TravelEndDate),
			item.TotalBudget,
			string(item.Status),
			item.CreatedAt.Format("02.01.2006"),
		}
		for idx, value := range values {
			if err := writeColumn(f, sheet, idx+1, row, value); err != nil {
				return row, err
			}
		}
	}
	return row, nil
}

var historyHeaders = []string{"Request", "Action", "Actor", "Role", "From", "To", "Comments", "When"}

func (i impl) ExportRequestHistory(list []dbmodels.RequestHistory) (*bytes.Buffer, error) {
	f := excelize.NewFile()
	defer func() {
		if err := f.Close(); err != nil {
			log.WithError(err).Error("failed to close xlsx file")
		}
	}()
	sheet := "Sheet1"
	row, err := writeHeader(f, sheet, 0, historyHeaders)
	if err != nil {
		return nil, errors.Wrap(err, "failed to write xlsx header")
	}
	if len(list) != 0 {
		if err := applyDataCellStyle(f, sheet, 1, row+1, len(historyHeaders), len(list)+1); err != nil {
			return nil, err
		}
		for _, item := range list {
			row++
			actorName := item.ActorID
			if item.Actor != nil {
				actorName = item.Actor.GetFullName()
			}
			prev := ""
			if item.PreviousStatus != nil {
				prev = string(*item.PreviousStatus)
			}
			values := []interface{}{
				item.RequestID,
				string(item.Action),
				actorName,
				string(item.ActorRole),
				prev,
				string(item.NewStatus),
				item.Comments,
				item.CreatedAt.Format("02.01.2006 15:04"),
			}
			for idx, value := range values {
				if err := writeColumn(f, sheet, idx+1, row, value); err != nil {
					return nil, err
				}
			}
		}
	}
	f.SetSheetName(sheet, "Request history")
	return f.WriteToBuffer()
}

func departmentName(rec dbmodels.Request) string {
	if rec.Department != nil {
		return rec.Department.Name
	}
	return ""
}
