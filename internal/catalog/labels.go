package catalog

import (
	"fmt"

	"github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/code"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/core"
	"github.com/johnfercher/maroto/v2/pkg/props"
	"github.com/smallbiznis/scanprice/internal/product/domain"
)

const labelsPerRow = 3

// LabelSheet renders a printable PDF with one QR label per product.
func LabelSheet(title, base string, products []domain.Product) ([]byte, error) {
	cfg := config.NewBuilder().
		WithPageNumber(props.PageNumber{
			Pattern: "Page {current} of {total}",
			Place:   props.RightBottom,
		}).
		Build()

	m := maroto.New(cfg)
	m.AddRow(15,
		text.NewCol(12, title, props.Text{
			Size:  16,
			Style: fontstyle.Bold,
			Align: align.Center,
		}),
	)

	for start := 0; start < len(products); start += labelsPerRow {
		end := min(start+labelsPerRow, len(products))
		codes := make([]core.Col, 0, labelsPerRow)
		captions := make([]core.Col, 0, labelsPerRow)
		for _, p := range products[start:end] {
			codes = append(codes, code.NewQrCol(12/labelsPerRow, ProductURL(base, p.ID), props.Rect{
				Center:  true,
				Percent: 85,
			}))
			captions = append(captions, col.New(12/labelsPerRow).Add(
				text.New(p.Name, props.Text{Size: 9, Style: fontstyle.Bold, Align: align.Center}),
				text.New(priceCaption(p), props.Text{Size: 8, Top: 4, Align: align.Center}),
			))
		}
		m.AddRow(45, codes...)
		m.AddRow(14, captions...)
	}

	doc, err := m.Generate()
	if err != nil {
		return nil, err
	}
	return doc.GetBytes(), nil
}

func priceCaption(p domain.Product) string {
	if p.OnPromotion() {
		return fmt.Sprintf("%.2f (-%.0f%%) %.2f", p.Price, p.Discount, p.DiscountedPrice())
	}
	return fmt.Sprintf("%.2f", p.Price)
}
