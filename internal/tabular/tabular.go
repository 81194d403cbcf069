// Package tabular parses lead sheets (CSV and XLSX) into raw records keyed
// by the canonical field names the import pipeline expects.
package tabular

import (
	"encoding/csv"
	"io"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"

	"github.com/propline/leads-cli/internal/model"
)

// headerAliases maps the column headings seen in the field's spreadsheets
// to canonical record fields. Matching is case-insensitive and ignores
// surrounding whitespace.
var headerAliases = map[string]string{
	"full name":     model.FieldFullName,
	"name":          model.FieldFullName,
	"client name":   model.FieldFullName,
	"mobile no":     model.FieldMobileNo,
	"mobile":        model.FieldMobileNo,
	"phone":         model.FieldMobileNo,
	"phone number":  model.FieldMobileNo,
	"contact":       model.FieldMobileNo,
	"email":         model.FieldEmail,
	"email address": model.FieldEmail,
	"property type": model.FieldPropertyType,
	"property":      model.FieldPropertyType,
	"budget":        model.FieldBudget,
	"location":      model.FieldLocation,
	"area":          model.FieldLocation,
	"source":        model.FieldSource,
	"lead source":   model.FieldSource,
	"notes":         model.FieldNotes,
	"remarks":       model.FieldNotes,
}

// canonicalFields lets a sheet that already uses the record field names as
// its headers round-trip without aliases, e.g. an exported sheet re-imported.
var canonicalFields = map[string]string{
	strings.ToLower(model.FieldFullName):     model.FieldFullName,
	strings.ToLower(model.FieldMobileNo):     model.FieldMobileNo,
	strings.ToLower(model.FieldEmail):        model.FieldEmail,
	strings.ToLower(model.FieldPropertyType): model.FieldPropertyType,
	strings.ToLower(model.FieldBudget):       model.FieldBudget,
	strings.ToLower(model.FieldLocation):     model.FieldLocation,
	strings.ToLower(model.FieldSource):       model.FieldSource,
	strings.ToLower(model.FieldNotes):        model.FieldNotes,
}

func canonicalField(header string) string {
	key := strings.ToLower(strings.TrimSpace(header))
	if field, ok := headerAliases[key]; ok {
		return field
	}
	if field, ok := canonicalFields[key]; ok {
		return field
	}
	return ""
}

// mapHeader resolves each column to a canonical field, "" for unrecognized
// columns. At least one column must map to the mobile number.
func mapHeader(cells []string) ([]string, error) {
	fields := make([]string, len(cells))
	hasPhone := false
	for i, h := range cells {
		fields[i] = canonicalField(h)
		if fields[i] == model.FieldMobileNo {
			hasPhone = true
		}
	}
	if !hasPhone {
		return nil, eris.Errorf("tabular: no phone column found in header %v", cells)
	}
	return fields, nil
}

func buildRecord(fields, cells []string) model.RawLead {
	rec := make(model.RawLead, len(fields))
	for i, field := range fields {
		if field == "" || i >= len(cells) {
			continue
		}
		rec[field] = strings.TrimSpace(cells[i])
	}
	return rec
}

func emptyRow(cells []string) bool {
	for _, c := range cells {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

// ReadCSV parses a lead sheet in CSV form. The first row must be a header;
// blank rows are skipped.
func ReadCSV(r io.Reader) ([]model.RawLead, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err == io.EOF {
		return nil, eris.New("tabular: empty csv input")
	}
	if err != nil {
		return nil, eris.Wrap(err, "tabular: read csv header")
	}

	fields, err := mapHeader(header)
	if err != nil {
		return nil, err
	}

	var records []model.RawLead
	for {
		cells, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, eris.Wrap(err, "tabular: read csv row")
		}
		if emptyRow(cells) {
			continue
		}
		records = append(records, buildRecord(fields, cells))
	}
	return records, nil
}

// ReadXLSX parses a lead sheet from an XLSX file. sheetName selects a sheet
// by name; empty means the first sheet.
func ReadXLSX(path, sheetName string) ([]model.RawLead, error) {
	f, err := xlsx.OpenFile(path)
	if err != nil {
		return nil, eris.Wrap(err, "tabular: open xlsx")
	}

	sheet, err := pickSheet(f, sheetName)
	if err != nil {
		return nil, err
	}
	if len(sheet.Rows) == 0 {
		return nil, eris.New("tabular: empty xlsx sheet")
	}

	fields, err := mapHeader(rowToStrings(sheet.Rows[0]))
	if err != nil {
		return nil, err
	}

	var records []model.RawLead
	for _, row := range sheet.Rows[1:] {
		cells := rowToStrings(row)
		if emptyRow(cells) {
			continue
		}
		records = append(records, buildRecord(fields, cells))
	}
	return records, nil
}

func pickSheet(f *xlsx.File, name string) (*xlsx.Sheet, error) {
	if name != "" {
		sheet, ok := f.Sheet[name]
		if !ok {
			return nil, eris.Errorf("tabular: sheet %q not found", name)
		}
		return sheet, nil
	}
	if len(f.Sheets) == 0 {
		return nil, eris.New("tabular: xlsx file has no sheets")
	}
	return f.Sheets[0], nil
}

func rowToStrings(row *xlsx.Row) []string {
	cells := make([]string, len(row.Cells))
	for i, cell := range row.Cells {
		cells[i] = cell.String()
	}
	return cells
}
