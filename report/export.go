package report

import (
	"fmt"
	"io"
	"strconv"

	"github.com/aldeia/relatos-dashboard/entities"
	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"
	"github.com/jung-kurt/gofpdf"
)

// exportTopN caps the rows per group table in the PDF.
const exportTopN = 15

// WritePDF renders the summary and the leading groups of r as an A4 document.
func WritePDF(w io.Writer, r *entities.Report) error {
	if r == nil {
		return fmt.Errorf("no report available")
	}

	pdf := gofpdf.New("P", "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.SetTitle("Relatorio de relatos", true)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 16)
	pdf.CellFormat(0, 10, tr("Relatório de relatos"), "", 1, "L", false, 0, "")

	s := Summarize(r)
	pdf.SetFont("Helvetica", "", 10)
	pdf.CellFormat(0, 6, tr(fmt.Sprintf("Gerado em %s (geração %d)",
		r.GeneratedAt.Format("02/01/2006 15:04"), r.Generation)), "", 1, "L", false, 0, "")
	pdf.Ln(2)
	for _, line := range []struct {
		label string
		value int
	}{
		{"Casos analisados", s.AnalyzedCases},
		{"Sintomas distintos", s.UniqueSymptoms},
		{"Categorias", s.Categories},
		{"Termos indígenas", s.IndigenousTerms},
	} {
		pdf.CellFormat(60, 6, tr(line.label), "", 0, "L", false, 0, "")
		pdf.CellFormat(0, 6, strconv.Itoa(line.value), "", 1, "L", false, 0, "")
	}

	symptoms := make([][2]string, 0, len(r.Symptoms))
	for _, g := range r.Symptoms {
		symptoms = append(symptoms, [2]string{g.Symptom, strconv.Itoa(g.Count)})
	}
	writeTable(pdf, tr, "Sintomas", symptoms)

	categories := make([][2]string, 0, len(r.Categories))
	for _, g := range r.Categories {
		categories = append(categories, [2]string{g.Category, strconv.Itoa(g.Count)})
	}
	writeTable(pdf, tr, "Categorias", categories)

	terms := make([][2]string, 0, len(r.IndigenousTerms))
	for _, g := range r.IndigenousTerms {
		label := g.Term
		if g.Meaning != "" {
			label += " (" + g.Meaning + ")"
		}
		terms = append(terms, [2]string{label, strconv.Itoa(g.Count)})
	}
	writeTable(pdf, tr, "Termos indígenas", terms)

	if err := pdf.Error(); err != nil {
		return fmt.Errorf("failed to render pdf: %w", err)
	}
	return pdf.Output(w)
}

func writeTable(pdf *gofpdf.Fpdf, tr func(string) string, title string, rows [][2]string) {
	pdf.Ln(4)
	pdf.SetFont("Helvetica", "B", 12)
	pdf.CellFormat(0, 8, tr(title), "", 1, "L", false, 0, "")

	pdf.SetFont("Helvetica", "", 10)
	if len(rows) == 0 {
		pdf.CellFormat(0, 6, tr("Nenhum dado"), "", 1, "L", false, 0, "")
		return
	}

	pdf.SetFillColor(230, 230, 230)
	pdf.CellFormat(150, 6, tr("Rótulo"), "1", 0, "L", true, 0, "")
	pdf.CellFormat(30, 6, "Casos", "1", 1, "R", true, 0, "")
	if len(rows) > exportTopN {
		rows = rows[:exportTopN]
	}
	for _, row := range rows {
		pdf.CellFormat(150, 6, tr(row[0]), "1", 0, "L", false, 0, "")
		pdf.CellFormat(30, 6, row[1], "1", 1, "R", false, 0, "")
	}
}

// WriteTimelineChart renders the timeline of r as a standalone HTML bar chart.
func WriteTimelineChart(w io.Writer, r *entities.Report) error {
	if r == nil {
		return fmt.Errorf("no report available")
	}

	dates := make([]string, len(r.Timeline))
	bars := make([]opts.BarData, len(r.Timeline))
	for i, p := range r.Timeline {
		dates[i] = p.Date
		bars[i] = opts.BarData{Value: p.Count}
	}

	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{
			Title:    "Linha do tempo",
			Subtitle: fmt.Sprintf("%d casos analisados", len(r.Cases)),
		}),
		charts.WithTooltipOpts(opts.Tooltip{
			Show: true,
		}),
		charts.WithLegendOpts(opts.Legend{
			Show: false,
		}),
	)
	bar.SetXAxis(dates).AddSeries("Casos", bars)

	return bar.Render(w)
}
