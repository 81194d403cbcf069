// Package export writes lead sheets in the XLSX layout the sales team
// shares outside the system.
package export

import (
	"strconv"
	"time"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"

	"github.com/propline/leads-cli/internal/model"
)

var exportHeader = []string{
	"Full Name", "Mobile No", "Email", "Property Type", "Budget", "Location",
	"Source", "Status", "Assigned Agent", "Notes", "Created At", "Updated At",
	"Follow-Ups", "Last Follow-Up",
}

// WriteXLSX writes leads to an XLSX file at path, one row per lead after a
// header row.
func WriteXLSX(path string, leads []model.Lead) error {
	f := xlsx.NewFile()
	sheet, err := f.AddSheet("Leads")
	if err != nil {
		return eris.Wrap(err, "export: add sheet")
	}

	header := sheet.AddRow()
	for _, h := range exportHeader {
		header.AddCell().SetString(h)
	}

	for i := range leads {
		l := &leads[i]
		row := sheet.AddRow()
		for _, v := range []string{
			l.FullName,
			l.NormalizedPhone,
			l.Email,
			l.PropertyType,
			l.Budget,
			l.Location,
			l.Source,
			string(l.Status),
			l.AssignedAgentEmail,
			l.Notes,
			l.CreatedAt.Format(time.RFC3339),
			l.UpdatedAt.Format(time.RFC3339),
			strconv.Itoa(len(l.FollowUps)),
			lastFollowUp(l.FollowUps),
		} {
			row.AddCell().SetString(v)
		}
	}

	return eris.Wrap(f.Save(path), "export: save file")
}

// lastFollowUp returns the due instant of the latest follow-up, or "".
func lastFollowUp(fus []model.FollowUp) string {
	var last time.Time
	for _, fu := range fus {
		if fu.DueAt.After(last) {
			last = fu.DueAt
		}
	}
	if last.IsZero() {
		return ""
	}
	return last.Format(time.RFC3339)
}
