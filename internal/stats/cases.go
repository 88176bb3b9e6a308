package stats

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/xuri/excelize/v2"

	"dategen/internal/model"
)

const (
	categorySeparator = ";"
	casesSheet        = "Cases"
)

var caseColumns = []string{"Instance", "Date", "Format", "Validity", "Categories"}

func caseRow(c model.CaseRecord) []string {
	return []string{c.Instance, c.Date, c.Format, c.Validity(), strings.Join(c.Categories, categorySeparator)}
}

// WriteCasesCSV writes one row per case with the categories joined by ";".
func WriteCasesCSV(w io.Writer, cases []model.CaseRecord) error {
	writer := csv.NewWriter(w)
	if err := writer.Write(caseColumns); err != nil {
		return err
	}
	for _, c := range cases {
		if err := writer.Write(caseRow(c)); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}

// ReadCasesCSV parses rows written by WriteCasesCSV. The CSV carries no
// day, month or year columns, so those stay zero.
func ReadCasesCSV(r io.Reader) ([]model.CaseRecord, error) {
	reader := csv.NewReader(r)
	header, err := reader.Read()
	if err != nil {
		if err == io.EOF {
			return []model.CaseRecord{}, nil
		}
		return nil, err
	}
	if len(header) != len(caseColumns) {
		return nil, fmt.Errorf("cases header must have %d columns, got %d", len(caseColumns), len(header))
	}

	cases := make([]model.CaseRecord, 0, 32)
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		var validity bool
		switch record[3] {
		case "Valid":
			validity = true
		case "Invalid":
		default:
			return nil, fmt.Errorf("unknown validity %q", record[3])
		}
		var categories []string
		if record[4] != "" {
			categories = strings.Split(record[4], categorySeparator)
		}
		cases = append(cases, model.CaseRecord{
			Instance:   record[0],
			Date:       record[1],
			Format:     record[2],
			Valid:      validity,
			Categories: categories,
		})
	}
	return cases, nil
}

func writeCasesCSVFile(path string, cases []model.CaseRecord) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()
	return WriteCasesCSV(file, cases)
}

// WriteCasesXLSX writes the CSV columns into a single "Cases" sheet.
func WriteCasesXLSX(path string, cases []model.CaseRecord) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", casesSheet); err != nil {
		return err
	}
	for i, name := range caseColumns {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(casesSheet, cell, name); err != nil {
			return err
		}
	}
	for i, c := range cases {
		rowNum := i + 2
		for j, value := range caseRow(c) {
			cell, err := excelize.CoordinatesToCellName(j+1, rowNum)
			if err != nil {
				return err
			}
			if err := f.SetCellValue(casesSheet, cell, value); err != nil {
				return err
			}
		}
	}
	return f.SaveAs(path)
}
