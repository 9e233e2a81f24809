package pdfexport

import (
	"bytes"
	"fmt"
	"time"

	"github.com/go-pdf/fpdf"
	"github.com/pkg/errors"

	"travelink-backend/models"
	requestapimodels "travelink-backend/models/api/request"
)

type Provider interface {
	ExportRequest(view requestapimodels.RequestView, history []requestapimodels.HistoryView) (pdfFile []byte, err error)
}

var Instance Provider

func NewHandler() {
	Instance = impl{}
}

type impl struct{}

// ExportRequest renders a printable copy of the request with its approval
// trail appended.
func (i impl) ExportRequest(view requestapimodels.RequestView, history []requestapimodels.HistoryView) (pdfFile []byte, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = errors.Errorf("ExportRequest panic recover: %v", r)
		}
	}()
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.AddPage()
	pdf.SetFont("Helvetica", "B", 16)
	pdf.CellFormat(0, 10, documentTitle(view.RequestType), "", 1, "C", false, 0, "")
	pdf.SetFont("Helvetica", "", 11)
	pdf.CellFormat(0, 7, view.RequestNumber, "", 1, "C", false, 0, "")
	pdf.Ln(4)

	writeField(pdf, "Requester", view.RequesterName)
	writeField(pdf, "Department", view.DepartmentName)
	writeField(pdf, "Title", view.Title)
	writeField(pdf, "Purpose", view.Purpose)
	writeField(pdf, "Destination", view.Destination)
	writeField(pdf, "Travel dates", fmt.Sprintf("%s - %s", dateOrEmpty(view.TravelStartDate), dateOrEmpty(view.TravelEndDate)))
	if view.HasBudget {
		writeField(pdf, "Total budget", fmt.Sprintf("%.2f", view.TotalBudget))
	}
	writeField(pdf, "Status", string(view.Status))
	writeField(pdf, "Filed", dateOrEmpty(view.CreatedAt))
	if pdf.Error() != nil {
		return nil, pdf.Error()
	}

	if len(history) > 0 {
		pdf.Ln(6)
		pdf.SetFont("Helvetica", "B", 12)
		pdf.CellFormat(0, 8, "Approval trail", "", 1, "L", false, 0, "")
		pdf.SetFont("Helvetica", "", 10)
		for _, entry := range history {
			pdf.CellFormat(0, 6, historyLine(entry), "", 1, "L", false, 0, "")
		}
	}

	buf := new(bytes.Buffer)
	err = pdf.Output(buf)
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func writeField(pdf *fpdf.Fpdf, label, value string) {
	pdf.SetFont("Helvetica", "B", 11)
	pdf.CellFormat(45, 7, label, "", 0, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 11)
	pdf.MultiCell(0, 7, value, "", "L", false)
}

func documentTitle(requestType models.RequestType) string {
	if requestType == models.RequestTypeSeminar {
		return "Seminar Attendance Request"
	}
	return "Travel Order"
}

func historyLine(entry requestapimodels.HistoryView) string {
	actor := entry.ActorName
	if actor == "" {
		actor = string(entry.ActorRole)
	}
	line := fmt.Sprintf("%s  %s by %s (%s)", entry.CreatedAt.Format("02.01.2006 15:04"), entry.Action, actor, entry.ActorRole)
	if entry.Comments != "" {
		line = fmt.Sprintf("%s: %s", line, entry.Comments)
	}
	return line
}

func dateOrEmpty(value time.Time) string {
	if value.IsZero() {
		return ""
	}
	return value.Format("02.01.2006")
}
