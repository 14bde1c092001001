// Package export renders shop data to files: PDF sale receipts and an XLSX
// sales history.
package export

import (
	"fmt"
	"os"
	"path/filepath"

	maroto "github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/line"
	"github.com/johnfercher/maroto/v2/pkg/components/row"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/consts/pagesize"
	"github.com/johnfercher/maroto/v2/pkg/core"
	"github.com/johnfercher/maroto/v2/pkg/props"

	"bookshop-management/bookshop"
)

// DateLayout is how receipts and spreadsheets print sale dates.
const DateLayout = "2006-01-02 15:04:05"

var (
	colorPrimary = &props.Color{Red: 0, Green: 70, Blue: 127}
	colorGray    = &props.Color{Red: 100, Green: 100, Blue: 100}
)

// ReceiptPDF renders one sale as an A4 receipt and returns the PDF bytes.
func ReceiptPDF(sale bookshop.Sale, company bookshop.Company) ([]byte, error) {
	cfg := config.NewBuilder().
		WithPageSize(pagesize.A4).
		WithLeftMargin(15).WithRightMargin(15).
		WithTopMargin(15).WithBottomMargin(15).
		WithDefaultFont(&props.Font{Family: "helvetica", Size: 10}).
		WithTitle("Receipt "+sale.SaleID, true).
		WithAuthor(company.Name, true).
		Build()

	m := maroto.New(cfg)

	m.AddRows(headerRow(sale, company))
	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.5}))
	m.AddRows(
		detailRow("Book", fmt.Sprintf("%s (%s)", sale.BookTitle, sale.BookID)),
		detailRow("Quantity", fmt.Sprint(sale.Quantity)),
		detailRow("Unit price", "$"+sale.UnitPrice().StringFixed(2)),
		detailRow("Customer", sale.CustomerName),
		detailRow("Date", sale.Date.Format(DateLayout)),
	)
	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.3}))
	m.AddRows(row.New(10).Add(
		col.New(8).Add(text.New("TOTAL", props.Text{Style: fontstyle.Bold, Size: 12, Top: 2})),
		col.New(4).Add(text.New("$"+sale.TotalAmount.StringFixed(2), props.Text{
			Style: fontstyle.Bold, Size: 12, Align: align.Right, Top: 2,
		})),
	))
	m.AddRows(line.NewRow(4))
	m.AddRows(text.NewRow(8, "Thank you for shopping with "+company.Name+"!", props.Text{
		Size: 9, Align: align.Center, Color: colorGray,
	}))

	doc, err := m.Generate()
	if err != nil {
		return nil, fmt.Errorf("receipt %s: generate pdf: %w", sale.SaleID, err)
	}
	return doc.GetBytes(), nil
}

// WriteReceipt renders the receipt into dir as <saleID>.pdf and returns the path.
func WriteReceipt(dir string, sale bookshop.Sale, company bookshop.Company) (string, error) {
	data, err := ReceiptPDF(sale, company)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create receipts dir: %w", err)
	}
	path := filepath.Join(dir, sale.SaleID+".pdf")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("write receipt: %w", err)
	}
	return path, nil
}

func headerRow(sale bookshop.Sale, company bookshop.Company) core.Row {
	return row.New(20).Add(
		col.New(7).Add(
			text.New(company.Name, props.Text{
				Style: fontstyle.Bold, Size: 14, Color: colorPrimary, Top: 1,
			}),
			text.New(company.Address, props.Text{Size: 8, Top: 9, Color: colorGray}),
			text.New(company.Phone+"  "+company.Email, props.Text{Size: 8, Top: 13, Color: colorGray}),
		),
		col.New(5).Add(
			text.New("SALE RECEIPT", props.Text{
				Style: fontstyle.Bold, Size: 9, Align: align.Right, Color: colorPrimary, Top: 1,
			}),
			text.New(sale.SaleID, props.Text{
				Style: fontstyle.Bold, Size: 12, Align: align.Right, Top: 7,
			}),
		),
	)
}

func detailRow(label, value string) core.Row {
	return row.New(7).Add(
		col.New(4).Add(text.New(label+":", props.Text{Style: fontstyle.Bold, Top: 1})),
		col.New(8).Add(text.New(value, props.Text{Top: 1})),
	)
}
