package tabular

import (
	"encoding/csv"
	"errors"
	"io"
	"io/fs"
	"os"

	"github.com/xuri/excelize/v2"
)

// Table is a fully materialized tabular file: one header row plus data rows.
// Weekly exports are small (hundreds of rows), so reading into memory is fine.
type Table struct {
	Path   string
	Header []string
	Rows   [][]string
}

// ReadCSV reads a CSV export into a Table.
func ReadCSV(path string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, classifyOpenErr(path, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1 // marketplace exports pad rows unevenly

	header, err := r.Read()
	if err == io.EOF {
		return nil, &DataSourceError{Path: path, Kind: SourceEmpty}
	}
	if err != nil {
		return nil, &DataSourceError{Path: path, Kind: SourceMalformed, Err: err}
	}

	var rows [][]string
	for {
		rec, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, &DataSourceError{Path: path, Kind: SourceMalformed, Err: err}
		}
		rows = append(rows, rec)
	}

	if len(rows) == 0 {
		return nil, &DataSourceError{Path: path, Kind: SourceEmpty}
	}
	return &Table{Path: path, Header: header, Rows: rows}, nil
}

// ReadXLSX reads the first sheet of an Excel workbook into a Table.
func ReadXLSX(path string) (*Table, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, classifyOpenErr(path, err)
	}
	defer f.Close()

	sheet := f.GetSheetName(0)
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, &DataSourceError{Path: path, Kind: SourceMalformed, Err: err}
	}
	if len(rows) < 2 {
		return nil, &DataSourceError{Path: path, Kind: SourceEmpty}
	}
	return &Table{Path: path, Header: rows[0], Rows: rows[1:]}, nil
}

func classifyOpenErr(path string, err error) error {
	if errors.Is(err, fs.ErrNotExist) {
		return &DataSourceError{Path: path, Kind: SourceNotFound, Err: err}
	}
	return &DataSourceError{Path: path, Kind: SourceMalformed, Err: err}
}
