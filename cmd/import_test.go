package main

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/propline/leads-cli/internal/importer"
	"github.com/propline/leads-cli/internal/model"
)

func TestFormatImportResult(t *testing.T) {
	res := &importer.Result{
		Rejected: []importer.Rejection{
			{
				Record: model.RawLead{model.FieldFullName: "No Phone"},
				Reason: importer.ReasonNoPhone,
			},
			{
				Record: model.RawLead{model.FieldFullName: "Dup", model.FieldMobileNo: "0092 334 7600608"},
				Reason: importer.ReasonDuplicatePhone,
				Detail: "+923347600608",
			},
		},
		Summary: importer.Summary{Imported: 3, Duplicates: 1, Total: 5},
	}

	var buf bytes.Buffer
	formatImportResult(&buf, res)

	out := buf.String()
	assert.Contains(t, out, "Imported 3 of 5 leads (1 duplicates)")
	assert.Contains(t, out, "no_phone")
	assert.Contains(t, out, "duplicate_phone")
	assert.Contains(t, out, "+923347600608")
}

func TestFormatImportResultClean(t *testing.T) {
	res := &importer.Result{Summary: importer.Summary{Imported: 2, Total: 2}}

	var buf bytes.Buffer
	formatImportResult(&buf, res)

	assert.NotContains(t, buf.String(), "REASON", "no rejection table for a clean batch")
}

func TestParseDue(t *testing.T) {
	got, err := parseDue("2026-09-01")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 9, 1, 0, 0, 0, 0, time.Local), got)

	got, err = parseDue("2026-09-01 14:30")
	require.NoError(t, err)
	assert.Equal(t, 14, got.Hour())

	_, err = parseDue("tomorrow")
	assert.Error(t, err)
}

func TestTruncateID(t *testing.T) {
	assert.Equal(t, "12345678", truncateID("123456789abcdef"))
	assert.Equal(t, "short", truncateID("short"))
}
