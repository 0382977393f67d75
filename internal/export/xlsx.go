package export

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/noah-isme/retail-pos/internal/bill"
)

const xlsxSheet = "Bill"

// XLSXRenderer writes the bill as one sheet, page blocks separated by a
// single blank row. Spreadsheet cells hold Unicode natively, so localized
// names need no special handling here.
type XLSXRenderer struct{}

func (XLSXRenderer) Render(w io.Writer, header Header, pages []bill.Page) error {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	index, err := f.NewSheet(xlsxSheet)
	if err != nil {
		return err
	}
	f.SetActiveSheet(index)
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return err
	}

	row := 1
	row, err = writeHeaderRows(f, header, row)
	if err != nil {
		return err
	}

	for i, page := range pages {
		if i > 0 {
			row++ // blank separator row between page blocks
		}
		row, err = writePageBlock(f, page, row)
		if err != nil {
			return err
		}
	}

	return f.Write(w)
}

func writeHeaderRows(f *excelize.File, header Header, row int) (int, error) {
	values := [][]any{
		{"Customer", header.DisplayName()},
		{"Mobile", header.Mobile},
		{"Delivery", fmt.Sprintf("%s %s", header.DeliveryDate, header.DeliveryTime)},
	}
	for _, pair := range values {
		if err := f.SetSheetRow(xlsxSheet, cellRef(1, row), &pair); err != nil {
			return row, err
		}
		row++
	}
	row++
	return row, nil
}

func writePageBlock(f *excelize.File, page bill.Page, row int) (int, error) {
	titles := []any{"S.No", "Item", "Qty", "", "S.No", "Item", "Qty"}
	if err := f.SetSheetRow(xlsxSheet, cellRef(1, row), &titles); err != nil {
		return row, err
	}
	row++

	for i := range page.Left {
		left := page.Left[i]
		var right bill.Cell
		if i < len(page.Right) {
			right = page.Right[i]
		}
		cells := []any{
			left.Serial, left.Name, left.Quantity,
			"",
			right.Serial, right.Name, right.Quantity,
		}
		if err := f.SetSheetRow(xlsxSheet, cellRef(1, row), &cells); err != nil {
			return row, err
		}
		row++
	}
	return row, nil
}

func cellRef(col, row int) string {
	ref, _ := excelize.CoordinatesToCellName(col, row)
	return ref
}
