package export

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"dptracker/internal/domain/models"
	"dptracker/internal/schema"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSchema = `
table: projects
columns:
  - {name: project_id, kind: text}
  - {name: programming_deadline, kind: date}
  - {name: programming_comments, kind: text}
`

func str(s string) *string { return &s }

func TestCSVExporter_Write(t *testing.T) {
	s, err := schema.Load([]byte(testSchema))
	require.NoError(t, err)

	e := NewCSVExporter(s, Options{RowHeaders: true, FilenamePrefix: "DP_Tracker_"})

	id := int64(12)
	first := models.NewRow(&id)
	first.Set("project_id", str("P-1"))
	first.Set("programming_deadline", str("01.02.2024"))
	first.Set("programming_comments", str("needs, quoting"))

	second := models.NewRow(nil)
	second.Set("project_id", str("P-2"))

	var buf bytes.Buffer
	require.NoError(t, e.Write(&buf, []models.Row{first, second}))

	want := "1,12,P-1,01.02.2024,\"needs, quoting\"\r\n" +
		"2,,P-2,,\r\n"
	assert.Equal(t, want, buf.String())
}

func TestCSVExporter_NoRowHeadersAndSemicolon(t *testing.T) {
	s, err := schema.Load([]byte(testSchema))
	require.NoError(t, err)

	e := NewCSVExporter(s, Options{Comma: ';'})

	id := int64(1)
	r := models.NewRow(&id)
	r.Set("project_id", str("X"))

	var buf bytes.Buffer
	require.NoError(t, e.Write(&buf, []models.Row{r}))
	assert.Equal(t, "1;X;;\r\n", buf.String())
}

func TestCSVExporter_Empty(t *testing.T) {
	s, err := schema.Load([]byte(testSchema))
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, NewCSVExporter(s, Options{}).Write(&buf, nil))
	assert.Empty(t, buf.String())
}

func TestCSVExporter_Filename(t *testing.T) {
	e := NewCSVExporter(nil, Options{FilenamePrefix: "DP_Tracker_"})
	name := e.Filename(time.Date(2026, 10, 6, 23, 0, 0, 0, time.UTC))
	assert.Equal(t, "DP_Tracker_06.10.2026.csv", name)
	assert.True(t, strings.HasSuffix(name, ".csv"))
}
