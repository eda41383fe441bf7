package annotation

import (
	"encoding/csv"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/turtacn/MedRx-Intelligence/internal/domain/prescription"
	"github.com/turtacn/MedRx-Intelligence/pkg/errors"
)

// alertSeparator joins alert strings into one CSV cell.  Alert messages embed
// drug names taken verbatim from the source text, so a literal separator
// inside a message is escaped rather than assumed absent.
const alertSeparator = '|'

// csvHeader is the fixed export column order.
var csvHeader = []string{
	"file_name", "file_path", "timestamp", "status",
	"drug_name", "dosage", "frequency", "duration", "confidence", "alerts",
}

// ExportRow is one flattened drug entry: record-level fields repeated per
// drug so downstream labelling tools get a rectangular file.
type ExportRow struct {
	FileName   string
	FilePath   string
	Timestamp  time.Time
	Status     prescription.AnnotationStatus
	DrugName   string
	Dosage     string
	Frequency  string
	Duration   string
	Confidence float64
	Alerts     []string
}

// Flatten expands each record into one row per extracted drug, preserving
// record and drug order.  Persisted records always have at least one drug, so
// no record vanishes in the output.
func Flatten(records []prescription.AnnotationRecord) []ExportRow {
	var rows []ExportRow
	for _, r := range records {
		for _, d := range r.ExtractedDrugs {
			rows = append(rows, ExportRow{
				FileName:   r.FileName,
				FilePath:   r.FilePath,
				Timestamp:  r.Timestamp,
				Status:     r.Status,
				DrugName:   d.DrugName,
				Dosage:     d.Dosage,
				Frequency:  d.Frequency,
				Duration:   d.Duration,
				Confidence: d.Confidence,
				Alerts:     r.Alerts,
			})
		}
	}
	return rows
}

// Reconstruct groups consecutive rows that share a file path and timestamp
// back into records.  RawText is not part of the export format and comes back
// empty.
func Reconstruct(rows []ExportRow) []prescription.AnnotationRecord {
	var records []prescription.AnnotationRecord
	for _, row := range rows {
		drug := prescription.DrugMention{
			DrugName:   row.DrugName,
			Dosage:     row.Dosage,
			Frequency:  row.Frequency,
			Duration:   row.Duration,
			Confidence: row.Confidence,
		}
		if n := len(records); n > 0 &&
			records[n-1].FilePath == row.FilePath &&
			records[n-1].Timestamp.Equal(row.Timestamp) {
			records[n-1].ExtractedDrugs = append(records[n-1].ExtractedDrugs, drug)
			continue
		}
		records = append(records, prescription.AnnotationRecord{
			FileName:       row.FileName,
			FilePath:       row.FilePath,
			Timestamp:      row.Timestamp,
			ExtractedDrugs: []prescription.DrugMention{drug},
			Alerts:         row.Alerts,
			Status:         row.Status,
		})
	}
	return records
}

// joinAlerts packs alert strings into one cell, backslash-escaping literal
// separators and backslashes so splitAlerts can reverse it exactly.
func joinAlerts(alerts []string) string {
	var b strings.Builder
	for i, a := range alerts {
		if i > 0 {
			b.WriteByte(alertSeparator)
		}
		for j := 0; j < len(a); j++ {
			if a[j] == '\\' || a[j] == alertSeparator {
				b.WriteByte('\\')
			}
			b.WriteByte(a[j])
		}
	}
	return b.String()
}

// splitAlerts reverses joinAlerts.  An empty cell means no alerts.
func splitAlerts(cell string) []string {
	if cell == "" {
		return nil
	}
	var alerts []string
	var b strings.Builder
	for i := 0; i < len(cell); i++ {
		switch {
		case cell[i] == '\\' && i+1 < len(cell):
			i++
			b.WriteByte(cell[i])
		case cell[i] == alertSeparator:
			alerts = append(alerts, b.String())
			b.Reset()
		default:
			b.WriteByte(cell[i])
		}
	}
	return append(alerts, b.String())
}

// WriteCSV writes rows with a header line.
func WriteCSV(w io.Writer, rows []ExportRow) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return errors.Wrap(err, errors.ErrCodeExportFailed, "write csv header")
	}
	for _, row := range rows {
		rec := []string{
			row.FileName,
			row.FilePath,
			row.Timestamp.Format(time.RFC3339Nano),
			string(row.Status),
			row.DrugName,
			row.Dosage,
			row.Frequency,
			row.Duration,
			strconv.FormatFloat(row.Confidence, 'f', -1, 64),
			joinAlerts(row.Alerts),
		}
		if err := cw.Write(rec); err != nil {
			return errors.Wrap(err, errors.ErrCodeExportFailed, "write csv row")
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return errors.Wrap(err, errors.ErrCodeExportFailed, "flush csv")
	}
	return nil
}

// ReadCSV parses a file written by WriteCSV back into rows.
func ReadCSV(r io.Reader) ([]ExportRow, error) {
	cr := csv.NewReader(r)
	recs, err := cr.ReadAll()
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeExportFailed, "read csv")
	}
	if len(recs) == 0 {
		return nil, nil
	}
	var rows []ExportRow
	for _, rec := range recs[1:] {
		if len(rec) != len(csvHeader) {
			return nil, errors.New(errors.ErrCodeExportFailed, "csv row has wrong column count")
		}
		ts, err := time.Parse(time.RFC3339Nano, rec[2])
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeExportFailed, "parse csv timestamp")
		}
		conf, err := strconv.ParseFloat(rec[8], 64)
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeExportFailed, "parse csv confidence")
		}
		alerts := splitAlerts(rec[9])
		rows = append(rows, ExportRow{
			FileName:   rec[0],
			FilePath:   rec[1],
			Timestamp:  ts,
			Status:     prescription.AnnotationStatus(rec[3]),
			DrugName:   rec[4],
			Dosage:     rec[5],
			Frequency:  rec[6],
			Duration:   rec[7],
			Confidence: conf,
			Alerts:     alerts,
		})
	}
	return rows, nil
}
