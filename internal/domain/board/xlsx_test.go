package board

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/HutchE92/handover/internal/domain/handover"
	"github.com/HutchE92/handover/internal/domain/patient"
)

func TestWardSheet(t *testing.T) {
	p1 := newPatient("Ward 7", "2", intPtr(6))
	p1.FirstName, p1.LastName = "Margaret", "Thompson"
	p1.NHSNumber = "4857773456"
	p2 := newPatient("Ward 7", "10", nil)
	note := newNote(p1, 0, "2024-05-10")
	note.Situation = "Increasing O2 requirement"

	b := BuildWardBoard("Ward 7", []*patient.Patient{p2, p1}, []*handover.Note{note}, false)
	data, err := WardSheet(b, time.Date(2024, 5, 10, 20, 0, 0, 0, time.UTC))
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{SheetName}, f.GetSheetList())
	rows, err := f.GetRows(SheetName)
	require.NoError(t, err)
	require.Len(t, rows, 3)

	assert.Equal(t, wardSheetHeader, rows[0])
	assert.Equal(t, "2", rows[1][0])
	assert.Equal(t, "Margaret Thompson", rows[1][1])
	assert.Equal(t, "485 7773 456", rows[1][2])
	assert.Equal(t, "76", rows[1][3])
	assert.Equal(t, "6", rows[1][8])
	assert.Equal(t, "Increasing O2 requirement", rows[1][9])
	assert.Equal(t, "RN Okafor", rows[1][13])
	assert.Equal(t, "10", rows[2][0])
}

func TestWardSheet_Empty(t *testing.T) {
	data, err := WardSheet(BuildWardBoard("Ward 1", nil, nil, false), time.Now())
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer f.Close()
	rows, err := f.GetRows(SheetName)
	require.NoError(t, err)
	assert.Len(t, rows, 1)
}

func TestWardSheetFilename(t *testing.T) {
	day := time.Date(2024, 5, 10, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, "handover-ward-7-2024-05-10.xlsx", WardSheetFilename("Ward 7", day))
	assert.Equal(t, "handover-t-o-2024-05-10.xlsx", WardSheetFilename(" T+O ", day))
}
