package tabular

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tealeg/xlsx/v2"

	"github.com/propline/leads-cli/internal/model"
)

func TestReadCSV(t *testing.T) {
	t.Run("maps aliased headers", func(t *testing.T) {
		in := strings.Join([]string{
			"Full Name,Phone Number,Email,Property Type,Budget,Location,Lead Source,Remarks",
			"Ali Raza,+92 334 7600608,ali@example.com,apartment,50 lac,DHA Phase 5,facebook,urgent",
			"",
			"Sara Khan,0345-1234567,,,,,,",
		}, "\n")

		records, err := ReadCSV(strings.NewReader(in))
		require.NoError(t, err)
		require.Len(t, records, 2)

		assert.Equal(t, "Ali Raza", records[0].Field(model.FieldFullName))
		assert.Equal(t, "+92 334 7600608", records[0].Field(model.FieldMobileNo))
		assert.Equal(t, "facebook", records[0].Field(model.FieldSource))
		assert.Equal(t, "urgent", records[0].Field(model.FieldNotes))

		assert.Equal(t, "0345-1234567", records[1].Field(model.FieldMobileNo))
		assert.Empty(t, records[1].Field(model.FieldEmail))
	})

	t.Run("accepts record field names as headers", func(t *testing.T) {
		in := strings.Join([]string{
			"fullName,mobileNo,email,propertyType,budget,location,source,notes",
			"Ali Raza,+923347600608,ali@example.com,plot,80 lac,Gulberg,referral,call after 6",
		}, "\n")

		records, err := ReadCSV(strings.NewReader(in))
		require.NoError(t, err)
		require.Len(t, records, 1)
		assert.Equal(t, "+923347600608", records[0].Field(model.FieldMobileNo))
		assert.Equal(t, "plot", records[0].Field(model.FieldPropertyType))
		assert.Equal(t, "call after 6", records[0].Field(model.FieldNotes))
	})

	t.Run("unrecognized columns ignored", func(t *testing.T) {
		in := "Name,Mobile,Internal Ref\nAli Raza,03001234567,X-42\n"

		records, err := ReadCSV(strings.NewReader(in))
		require.NoError(t, err)
		require.Len(t, records, 1)
		assert.Equal(t, "03001234567", records[0].Field(model.FieldMobileNo))
		assert.Empty(t, records[0].Field("Internal Ref"))
	})

	t.Run("ragged rows", func(t *testing.T) {
		in := "Name,Mobile,Email\nAli Raza,03001234567\n"

		records, err := ReadCSV(strings.NewReader(in))
		require.NoError(t, err)
		require.Len(t, records, 1)
		assert.Empty(t, records[0].Field(model.FieldEmail))
	})

	t.Run("missing phone column", func(t *testing.T) {
		_, err := ReadCSV(strings.NewReader("Name,Email\nAli,ali@example.com\n"))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "no phone column")
	})

	t.Run("empty input", func(t *testing.T) {
		_, err := ReadCSV(strings.NewReader(""))
		require.Error(t, err)
	})
}

func TestReadXLSX(t *testing.T) {
	writeSheet := func(t *testing.T, rows [][]string) string {
		t.Helper()

		f := xlsx.NewFile()
		sheet, err := f.AddSheet("Leads")
		require.NoError(t, err)
		for _, cells := range rows {
			row := sheet.AddRow()
			for _, v := range cells {
				row.AddCell().SetString(v)
			}
		}

		path := filepath.Join(t.TempDir(), "leads.xlsx")
		require.NoError(t, f.Save(path))
		return path
	}

	t.Run("reads first sheet", func(t *testing.T) {
		path := writeSheet(t, [][]string{
			{"Full Name", "Mobile No", "Location"},
			{"Ali Raza", "+923347600608", "DHA Phase 5"},
			{"", "", ""},
			{"Sara Khan", "03451234567", "Bahria Town"},
		})

		records, err := ReadXLSX(path, "")
		require.NoError(t, err)
		require.Len(t, records, 2)
		assert.Equal(t, "+923347600608", records[0].Field(model.FieldMobileNo))
		assert.Equal(t, "Bahria Town", records[1].Field(model.FieldLocation))
	})

	t.Run("sheet by name", func(t *testing.T) {
		path := writeSheet(t, [][]string{
			{"Name", "Phone"},
			{"Ali Raza", "03001234567"},
		})

		records, err := ReadXLSX(path, "Leads")
		require.NoError(t, err)
		assert.Len(t, records, 1)

		_, err = ReadXLSX(path, "Missing")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "not found")
	})
}
