package output

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/law-makers/bizcrawl/pkg/models"
)

// Save writes records to path, choosing the format from its extension
func Save(records []models.BusinessRecord, path string) error {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return SaveJSON(records, path)
	case ".csv":
		return SaveCSV(records, path)
	case ".xlsx":
		return SaveXLSX(records, path)
	default:
		return fmt.Errorf("unsupported output format %q (use .json, .csv or .xlsx)", filepath.Ext(path))
	}
}
