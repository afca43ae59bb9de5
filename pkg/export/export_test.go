package export

import (
	"bytes"
	"encoding/csv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func rosterDataset() Dataset {
	return Dataset{
		Title: "Roster",
		Columns: []Column{
			{Key: "national_id", Title: "National ID", Width: 25},
			{Key: "name", Title: "Name"},
			{Key: "sport", Title: "Sport"},
		},
		Rows: []map[string]string{
			{"national_id": "70123456", "name": "Lucía Quispe", "sport": "Soccer"},
			{"national_id": "70999999", "name": "Mateo, Jr.", "sport": "Volleyball"},
		},
	}
}

func TestCSVRendererWritesHeaderAndRows(t *testing.T) {
	out, err := NewCSVRenderer().Render(rosterDataset())
	require.NoError(t, err)
	require.True(t, bytes.HasPrefix(out, utf8BOM))

	records, err := csv.NewReader(bytes.NewReader(out[len(utf8BOM):])).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, []string{"National ID", "Name", "Sport"}, records[0])
	assert.Equal(t, []string{"70123456", "Lucía Quispe", "Soccer"}, records[1])
	assert.Equal(t, "Mateo, Jr.", records[2][1])
}

func TestPDFRendererProducesDocument(t *testing.T) {
	data := rosterDataset()
	for i := 0; i < 80; i++ {
		data.Rows = append(data.Rows, map[string]string{"national_id": "70000000", "name": "Row", "sport": "Soccer"})
	}
	out, err := NewPDFRenderer().Render(data)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(out, []byte("%PDF")))
}

func TestRenderersRequireColumns(t *testing.T) {
	_, err := NewCSVRenderer().Render(Dataset{})
	assert.Error(t, err)
	_, err = NewPDFRenderer().Render(Dataset{})
	assert.Error(t, err)
}

func TestForFormat(t *testing.T) {
	r, err := ForFormat("")
	require.NoError(t, err)
	assert.Equal(t, "csv", r.Extension())

	r, err = ForFormat("PDF")
	require.NoError(t, err)
	assert.Equal(t, "application/pdf", r.ContentType())
	assert.Equal(t, "roster_monday.pdf", FileName("roster monday", r))

	_, err = ForFormat("xlsx")
	assert.Error(t, err)
}

func TestColumnWidths(t *testing.T) {
	widths := columnWidths([]Column{{Width: 30}, {}, {}}, 130)
	assert.Equal(t, []float64{30, 50, 50}, widths)
}
