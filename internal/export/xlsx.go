package export

import (
	"context"
	"encoding/csv"
	"io"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"
)

// SheetName is the worksheet name used for lead exports.
const SheetName = "Leads"

func writeXLSX(ctx context.Context, src io.Reader, w io.Writer) (int64, error) {
	reader := csv.NewReader(src)
	reader.FieldsPerRecord = -1

	f := xlsx.NewFile()
	sheet, err := f.AddSheet(SheetName)
	if err != nil {
		return 0, eris.Wrap(err, "export: add sheet")
	}

	var rows int64
	for {
		if ctx.Err() != nil {
			return 0, eris.Wrap(ctx.Err(), "export: context cancelled")
		}
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return 0, eris.Wrap(err, "export: read csv row")
		}
		row := sheet.AddRow()
		for _, v := range record {
			row.AddCell().SetString(v)
		}
		rows++
	}

	if err := f.Write(w); err != nil {
		return 0, eris.Wrap(err, "export: write xlsx")
	}
	if rows > 0 {
		rows-- // header
	}
	return rows, nil
}

// ReadXLSX returns every row of the first sheet of an XLSX file.
func ReadXLSX(path string) ([][]string, error) {
	f, err := xlsx.OpenFile(path)
	if err != nil {
		return nil, eris.Wrap(err, "export: open xlsx")
	}
	if len(f.Sheets) == 0 {
		return nil, eris.New("export: xlsx has no sheets")
	}
	var out [][]string
	for _, row := range f.Sheets[0].Rows {
		cells := make([]string, len(row.Cells))
		for i, cell := range row.Cells {
			cells[i] = cell.String()
		}
		out = append(out, cells)
	}
	return out, nil
}
