package excel

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"gonarrative/domain/narrative"
	"gonarrative/internal/errors"
)

// DataReader loads a CSV or XLSX table into a narrative.Dataset
type DataReader struct {
	filePath string
	fileType string // "xlsx" or "csv"
	sheet    string
	coercer  *TypeCoercer
	logger   *zap.Logger
}

// ReaderOption configures a DataReader
type ReaderOption func(*DataReader)

// WithSheet selects an xlsx sheet; the first sheet is used otherwise
func WithSheet(name string) ReaderOption {
	return func(r *DataReader) { r.sheet = name }
}

// WithCoercion replaces the default cell coercion rules
func WithCoercion(cfg CoercionConfig) ReaderOption {
	return func(r *DataReader) { r.coercer = NewTypeCoercer(cfg) }
}

// WithLogger sets the reader's logger
func WithLogger(l *zap.Logger) ReaderOption {
	return func(r *DataReader) {
		if l != nil {
			r.logger = l
		}
	}
}

// NewDataReader creates a reader; the file type follows the extension
func NewDataReader(filePath string, opts ...ReaderOption) *DataReader {
	fileType := "xlsx"
	if strings.ToLower(filepath.Ext(filePath)) == ".csv" {
		fileType = "csv"
	}
	r := &DataReader{
		filePath: filePath,
		fileType: fileType,
		coercer:  NewTypeCoercer(DefaultCoercionConfig()),
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// ReadDataset reads the file and coerces every column
func (r *DataReader) ReadDataset() (narrative.Dataset, error) {
	if _, err := os.Stat(r.filePath); os.IsNotExist(err) {
		return nil, errors.DataUnavailable(r.filePath, eris.Wrap(err, "stat"))
	}

	start := time.Now()
	var (
		rows [][]string
		err  error
	)
	switch r.fileType {
	case "csv":
		rows, err = r.readCSV()
	default:
		rows, err = r.readExcel()
	}
	if err != nil {
		return nil, errors.DataUnavailable(r.filePath, err)
	}
	if len(rows) < 2 {
		return nil, errors.DataUnavailable(r.filePath, eris.New("need a header row and at least one data row"))
	}

	ds := r.buildDataset(rows)
	r.logger.Info("dataset loaded",
		zap.String("path", r.filePath),
		zap.String("type", r.fileType),
		zap.Int("rows", ds.Len()),
		zap.Int("columns", len(rows[0])),
		zap.Duration("elapsed", time.Since(start)),
	)
	return ds, nil
}

func (r *DataReader) readExcel() ([][]string, error) {
	f, err := excelize.OpenFile(r.filePath)
	if err != nil {
		return nil, eris.Wrap(err, "open xlsx")
	}
	defer f.Close()

	sheet := r.sheet
	if sheet == "" {
		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			return nil, eris.New("workbook has no sheets")
		}
		sheet = sheets[0]
	}
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, eris.Wrapf(err, "read sheet %s", sheet)
	}
	return rows, nil
}

func (r *DataReader) readCSV() ([][]string, error) {
	file, err := os.Open(r.filePath)
	if err != nil {
		return nil, eris.Wrap(err, "open csv")
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, eris.Wrap(err, "read csv")
	}
	return rows, nil
}

// buildDataset types each column from its cells, then coerces row by row.
// Short rows are padded with missing values; blank headers are skipped.
func (r *DataReader) buildDataset(rows [][]string) narrative.Dataset {
	headers := make([]string, len(rows[0]))
	for i, h := range rows[0] {
		headers[i] = strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
	}
	body := rows[1:]

	numeric := make([]bool, len(headers))
	for j := range headers {
		cells := make([]string, 0, len(body))
		for _, row := range body {
			if j < len(row) {
				cells = append(cells, row[j])
			}
		}
		numeric[j] = r.coercer.IsNumericColumn(cells)
	}

	ds := make(narrative.Dataset, 0, len(body))
	for _, row := range body {
		rec := make(narrative.Record, len(headers))
		for j, h := range headers {
			if h == "" {
				continue
			}
			cell := ""
			if j < len(row) {
				cell = row[j]
			}
			rec[h] = r.coercer.Coerce(cell, numeric[j])
		}
		ds = append(ds, rec)
	}
	return ds
}

// WriteCSV writes a dataset with the given column order, for fixtures and exports
func WriteCSV(path string, ds narrative.Dataset, columns []string) error {
	file, err := os.Create(path)
	if err != nil {
		return eris.Wrap(err, "create csv")
	}
	defer file.Close()

	w := csv.NewWriter(file)
	if err := w.Write(columns); err != nil {
		return eris.Wrap(err, "write header")
	}
	for _, rec := range ds {
		row := make([]string, len(columns))
		for i, c := range columns {
			if s, ok := rec.Text(c); ok {
				row[i] = s
			}
		}
		if err := w.Write(row); err != nil {
			return eris.Wrap(err, "write row")
		}
	}
	w.Flush()
	return eris.Wrap(w.Error(), "flush csv")
}
