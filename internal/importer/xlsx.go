package importer

import (
	"context"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"
)

func (im *Importer) importXLSX(ctx context.Context, path string) (int, error) {
	f, err := xlsx.OpenFile(path)
	if err != nil {
		return 0, eris.Wrap(err, "xlsx: open file")
	}
	if len(f.Sheets) == 0 {
		return 0, eris.New("xlsx: no sheets")
	}
	sheet := f.Sheets[0]
	if len(sheet.Rows) == 0 {
		return 0, eris.New("xlsx: empty sheet")
	}

	cm, err := mapColumns(rowToStrings(sheet.Rows[0]))
	if err != nil {
		return 0, err
	}

	rowCh := make(chan []string, 64)
	errCh := make(chan error, 1)
	go func() {
		defer close(rowCh)
		defer close(errCh)
		for _, row := range sheet.Rows[1:] {
			select {
			case rowCh <- rowToStrings(row):
			case <-ctx.Done():
				errCh <- eris.Wrap(ctx.Err(), "xlsx: context cancelled")
				return
			}
		}
	}()

	return im.upsertRows(ctx, rowCh, errCh, cm)
}

func rowToStrings(row *xlsx.Row) []string {
	cells := make([]string, len(row.Cells))
	for i, cell := range row.Cells {
		cells[i] = cell.String()
	}
	return cells
}
