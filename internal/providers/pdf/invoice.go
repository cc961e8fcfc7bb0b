package pdf

import (
	"bytes"
	"context"
	"io"

	"github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/props"
)

// InvoiceData carries preformatted strings; all amounts are rendered
// as given, the provider does no money math.
type InvoiceData struct {
	InvoiceNumber string
	IssueDate     string
	DueDate       string
	ServicePeriod string

	CustomerRef  string
	StorageUnit  string
	FacilityName string

	Lines []InvoiceLine

	Subtotal  string
	VAT       string
	LateFees  string
	Total     string
	AmountDue string
}

// InvoiceLine is one charge row on the invoice.
type InvoiceLine struct {
	Description string
	Amount      string
}

type PDFProvider struct{}

func New() Provider {
	return &PDFProvider{}
}

func (p *PDFProvider) GenerateInvoice(ctx context.Context, invoice InvoiceData) (io.Reader, error) {
	cfg := config.NewBuilder().
		WithPageNumber(props.PageNumber{
			Pattern: "Sida {current} av {total}",
			Place:   props.RightBottom,
		}).
		Build()

	m := maroto.New(cfg)

	m.AddRow(12,
		text.NewCol(12, "Nordflytt Lager — Faktura", props.Text{
			Size:  20,
			Style: fontstyle.Bold,
			Align: align.Left,
		}),
	)

	m.AddRow(22,
		col.New(6).Add(
			text.New("Fakturanummer: "+invoice.InvoiceNumber, props.Text{Top: 0}),
			text.New("Fakturadatum: "+invoice.IssueDate, props.Text{Top: 4}),
			text.New("Förfallodatum: "+invoice.DueDate, props.Text{Top: 8}),
			text.New("Period: "+invoice.ServicePeriod, props.Text{Top: 12}),
		),
		col.New(6).Add(
			text.New("Kundreferens: "+invoice.CustomerRef, props.Text{Top: 0}),
			text.New("Förråd: "+invoice.StorageUnit, props.Text{Top: 4}),
			text.New("Anläggning: "+invoice.FacilityName, props.Text{Top: 8}),
		),
	)

	m.AddRow(10,
		text.NewCol(10, "Beskrivning", props.Text{Style: fontstyle.Bold, Size: 9}),
		text.NewCol(2, "Belopp", props.Text{Style: fontstyle.Bold, Size: 9, Align: align.Right}),
	)

	for _, line := range invoice.Lines {
		m.AddRow(8,
			text.NewCol(10, line.Description, props.Text{Size: 9}),
			text.NewCol(2, line.Amount, props.Text{Size: 9, Align: align.Right}),
		)
	}

	m.AddRow(10,
		col.New(8),
		text.NewCol(2, "Delsumma", props.Text{Size: 9}),
		text.NewCol(2, invoice.Subtotal, props.Text{Size: 9, Align: align.Right}),
	)
	m.AddRow(10,
		col.New(8),
		text.NewCol(2, "Moms 25%", props.Text{Size: 9}),
		text.NewCol(2, invoice.VAT, props.Text{Size: 9, Align: align.Right}),
	)
	if invoice.LateFees != "" {
		m.AddRow(10,
			col.New(8),
			text.NewCol(2, "Förseningsavgift", props.Text{Size: 9}),
			text.NewCol(2, invoice.LateFees, props.Text{Size: 9, Align: align.Right}),
		)
	}
	m.AddRow(10,
		col.New(8),
		text.NewCol(2, "Att betala", props.Text{Style: fontstyle.Bold, Size: 9}),
		text.NewCol(2, invoice.AmountDue, props.Text{Style: fontstyle.Bold, Size: 9, Align: align.Right}),
	)

	doc, err := m.Generate()
	if err != nil {
		return nil, err
	}

	return bytes.NewReader(doc.GetBytes()), nil
}
