package output

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/law-makers/bizcrawl/pkg/models"
)

func sampleRecords() []models.BusinessRecord {
	return []models.BusinessRecord{
		{
			Name:       models.String("Acme Billing"),
			Phone:      models.String("(555) 010-2000"),
			Domain:     models.String("https://acme.example"),
			Accredited: models.Bool(false),
		},
		{},
	}
}

func TestWriteCSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, sampleRecords()))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "name,phone,principal_contact,url,address,accreditation_status", lines[0])
	assert.Equal(t, "Acme Billing,(555) 010-2000,,https://acme.example,,false", lines[1])
	assert.Equal(t, ",,,,,", lines[2])
}

func TestSaveJSONKeepsNulls(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.json")
	require.NoError(t, Save(sampleRecords(), path))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)

	var decoded []map[string]any
	require.NoError(t, json.Unmarshal(raw, &decoded))
	require.Len(t, decoded, 2)
	for _, row := range decoded {
		assert.Len(t, row, 6)
	}
	assert.Nil(t, decoded[1]["name"])
	assert.Equal(t, false, decoded[0]["accreditation_status"])
}

func TestSaveXLSX(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.xlsx")
	require.NoError(t, Save(sampleRecords(), path))

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(sheetName)
	require.NoError(t, err)
	require.GreaterOrEqual(t, len(rows), 2)
	assert.Equal(t, Columns, rows[0])
	assert.Equal(t, "Acme Billing", rows[1][0])
}

func TestSaveRejectsUnknownExtension(t *testing.T) {
	err := Save(nil, filepath.Join(t.TempDir(), "out.txt"))
	assert.Error(t, err)
}

func TestPageMarkdownKeepsLinks(t *testing.T) {
	html := `<html><head><script>var x = 1;</script><style>p{}</style></head>
<body><main><h1>Acme Billing</h1>
<a class="dtm-url" href="https://acme.example" target="_blank">Visit Website</a>
<a href="/us/review">Write a Review</a></main></body></html>`

	out, err := PageMarkdown(html, "https://www.bbb.org/us/profile/acme")
	require.NoError(t, err)
	assert.Contains(t, out, "# Acme Billing")
	assert.Contains(t, out, "[Visit Website](https://acme.example)")
	assert.Contains(t, out, "(https://www.bbb.org/us/review)")
	assert.NotContains(t, out, "var x")
}
