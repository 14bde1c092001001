package export

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"bookshop-management/bookshop"
)

// SalesSheet is the worksheet name of the sales export.
const SalesSheet = "Sales"

var salesHeader = []string{"Sale ID", "Book ID", "Book Title", "Quantity", "Total", "Date", "Customer"}

// SalesWorkbook builds a workbook with one row per sale and a closing total row.
func SalesWorkbook(report bookshop.SalesReport) (*excelize.File, error) {
	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", SalesSheet); err != nil {
		f.Close()
		return nil, err
	}

	set := func(colNo, rowNo int, v any) error {
		cell, err := excelize.CoordinatesToCellName(colNo, rowNo)
		if err != nil {
			return err
		}
		return f.SetCellValue(SalesSheet, cell, v)
	}

	for i, h := range salesHeader {
		if err := set(i+1, 1, h); err != nil {
			f.Close()
			return nil, err
		}
	}
	for i, s := range report.Sales {
		rowNo := i + 2
		values := []any{
			s.SaleID, s.BookID, s.BookTitle, s.Quantity,
			s.TotalAmount.InexactFloat64(),
			s.Date.Format(DateLayout),
			s.CustomerName,
		}
		for c, v := range values {
			if err := set(c+1, rowNo, v); err != nil {
				f.Close()
				return nil, err
			}
		}
	}

	totalRow := len(report.Sales) + 3
	if err := set(1, totalRow, fmt.Sprintf("Transactions: %d", report.Count)); err != nil {
		f.Close()
		return nil, err
	}
	if err := set(4, totalRow, "Total Sales"); err != nil {
		f.Close()
		return nil, err
	}
	if err := set(5, totalRow, report.Revenue.InexactFloat64()); err != nil {
		f.Close()
		return nil, err
	}
	return f, nil
}

// WriteSalesXLSX writes the sales workbook to w.
func WriteSalesXLSX(w io.Writer, report bookshop.SalesReport) error {
	f, err := SalesWorkbook(report)
	if err != nil {
		return fmt.Errorf("build sales workbook: %w", err)
	}
	defer f.Close()
	if err := f.Write(w); err != nil {
		return fmt.Errorf("write sales workbook: %w", err)
	}
	return nil
}

// SaveSalesXLSX writes the sales workbook to path.
func SaveSalesXLSX(path string, report bookshop.SalesReport) error {
	f, err := SalesWorkbook(report)
	if err != nil {
		return fmt.Errorf("build sales workbook: %w", err)
	}
	defer f.Close()
	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("save %s: %w", path, err)
	}
	return nil
}
