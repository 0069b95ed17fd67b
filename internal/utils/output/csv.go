package output

import (
	"encoding/csv"
	"io"
	"os"
	"strconv"

	"github.com/law-makers/bizcrawl/pkg/models"
)

// Columns is the header row shared by the tabular exporters
var Columns = []string{"name", "phone", "principal_contact", "url", "address", "accreditation_status"}

// Row renders a record as strings in Columns order. Absent values are empty.
func Row(rec models.BusinessRecord) []string {
	accredited := ""
	if rec.Accredited != nil {
		accredited = strconv.FormatBool(*rec.Accredited)
	}
	return []string{
		models.Deref(rec.Name),
		models.Deref(rec.Phone),
		models.Deref(rec.PrincipalContact),
		models.Deref(rec.Domain),
		models.Deref(rec.Address),
		accredited,
	}
}

// WriteCSV writes records with a header row to w
func WriteCSV(w io.Writer, records []models.BusinessRecord) error {
	writer := csv.NewWriter(w)

	if err := writer.Write(Columns); err != nil {
		return err
	}
	for _, rec := range records {
		if err := writer.Write(Row(rec)); err != nil {
			return err
		}
	}

	writer.Flush()
	return writer.Error()
}

// SaveCSV writes records to a CSV file. Returns an error on failure.
func SaveCSV(records []models.BusinessRecord, filepath string) error {
	file, err := os.Create(filepath)
	if err != nil {
		return err
	}
	defer file.Close()

	return WriteCSV(file, records)
}
