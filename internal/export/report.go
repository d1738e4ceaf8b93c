// Package export renders therapy recommendations as a downloadable PDF report.
package export

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/go-pdf/fpdf"

	"precision-medicine-server/internal/domain"
)

const (
	font       = "Arial"
	lineHeight = 10.0
	labelWidth = 40.0
)

var disclaimer = []string{
	"This report is generated by an AI-powered Precision Medicine Assistant and is intended for informational purposes only. The recommendations provided are based on the information available and should not be considered as medical advice.",
	"Always consult with a qualified healthcare professional before making any decisions about your health or treatment. The AI system does not replace professional medical advice, diagnosis, or treatment.",
	"The efficacy, safety, and compatibility scores are estimates based on available data and should be validated by healthcare professionals. Individual responses to treatments may vary.",
}

// Document is everything a report shows.
type Document struct {
	Profile   domain.Profile
	Entities  domain.EntityBag
	Therapies []domain.TherapyRecord
	Selector  domain.Selector
	Query     string
}

// Output is a rendered report.
type Output struct {
	Data     []byte
	Filename string
}

// Exporter renders documents. Now defaults to time.Now.
type Exporter struct {
	Now func() time.Time
}

func NewExporter() *Exporter {
	return &Exporter{Now: time.Now}
}

// Heading returns the section heading for a selector.
func Heading(sel domain.Selector) string {
	switch sel {
	case domain.SelectAllopathy:
		return "Allopathic Medicine Recommendations"
	case domain.SelectHomeopathy:
		return "Homeopathic Medicine Recommendations"
	case domain.SelectAyurveda:
		return "Ayurvedic Medicine Recommendations"
	case domain.SelectBoth:
		return "Integrated Medicine Recommendations (Allopathy & Homeopathy)"
	case domain.SelectAll:
		return "Holistic Medicine Recommendations (All Approaches)"
	}
	return "Medicine Recommendations"
}

// Filename returns the download name for a report generated at t.
func Filename(t time.Time) string {
	return "therapy_report_" + t.Format("20060102_150405") + ".pdf"
}

// Export renders doc to PDF.
func (e *Exporter) Export(doc Document) (*Output, error) {
	now := time.Now()
	if e.Now != nil {
		now = e.Now()
	}

	r := &renderer{pdf: fpdf.New("P", "mm", "A4", "")}
	r.pdf.AliasNbPages("")
	r.pdf.SetHeaderFunc(func() {
		r.pdf.SetFont(font, "B", 12)
		r.pdf.Cell(80, 0, "")
		r.cell(30, "Precision Medicine Assistant - Therapy Report", 0, "C")
		r.pdf.Ln(20)
	})
	r.pdf.SetFooterFunc(func() {
		r.pdf.SetY(-15)
		r.pdf.SetFont(font, "I", 8)
		r.cell(0, fmt.Sprintf("Page %d/{nb}", r.pdf.PageNo()), 0, "C")
		r.cell(0, "Generated on "+now.Format("2006-01-02"), 0, "R")
	})

	r.pdf.AddPage()
	r.title(doc)
	r.patient(doc.Profile)
	r.entities(doc.Entities)
	r.therapies(doc.Therapies)
	r.disclaimer(now)

	var buf bytes.Buffer
	if err := r.pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("render report: %w", err)
	}
	return &Output{Data: buf.Bytes(), Filename: Filename(now)}, nil
}

type renderer struct {
	pdf *fpdf.Fpdf
}

func (r *renderer) cell(w float64, text string, ln int, align string) {
	r.pdf.CellFormat(w, lineHeight, SafeText(text), "", ln, align, false, 0, "")
}

func (r *renderer) multi(text string) {
	r.pdf.MultiCell(0, lineHeight, SafeText(text), "", "", false)
}

func (r *renderer) labelled(label, value string) {
	r.pdf.SetFont(font, "B", 10)
	r.cell(labelWidth, label+":", 0, "")
	r.pdf.SetFont(font, "", 10)
	r.multi(value)
}

func (r *renderer) title(doc Document) {
	r.pdf.SetFont(font, "B", 16)
	r.cell(0, "Therapy Recommendations Report", 1, "C")
	r.pdf.Ln(5)

	r.pdf.SetFont(font, "B", 12)
	r.cell(0, Heading(doc.Selector), 1, "L")
	r.pdf.Ln(5)

	r.pdf.SetFont(font, "B", 11)
	r.cell(0, "Your Health Query:", 1, "L")
	r.pdf.SetFont(font, "", 11)
	r.multi(doc.Query)
	r.pdf.Ln(5)
}

func (r *renderer) patient(p domain.Profile) {
	r.pdf.SetFont(font, "B", 12)
	r.cell(0, "Patient Information", 1, "L")
	r.pdf.Ln(2)

	for _, f := range p.Fields() {
		value := f.Value
		if strings.TrimSpace(value) == "" {
			value = "Not specified"
		}
		r.labelled(f.Label, value)
	}
	r.pdf.Ln(5)
}

func (r *renderer) entities(bag domain.EntityBag) {
	r.pdf.SetFont(font, "B", 12)
	r.cell(0, "Extracted Medical Entities", 1, "L")
	r.pdf.Ln(2)

	if bag.IsEmpty() {
		r.pdf.SetFont(font, "", 10)
		r.cell(0, "No medical entities extracted", 1, "")
		r.pdf.Ln(5)
		return
	}

	labs := make([]string, len(bag.LabValues))
	for i, lv := range bag.LabValues {
		labs[i] = strings.TrimSpace(fmt.Sprintf("%s: %s %s", lv.Name, lv.Value, lv.Unit))
	}
	categories := []struct {
		name  string
		items []string
	}{
		{"Diseases", bag.Diseases},
		{"Symptoms", bag.Symptoms},
		{"Lab Values", labs},
		{"Genes", bag.Genes},
		{"Medications", bag.Medications},
	}
	for _, c := range categories {
		if len(c.items) == 0 {
			continue
		}
		r.pdf.SetFont(font, "B", 10)
		r.cell(0, c.name+":", 1, "")
		r.pdf.SetFont(font, "", 10)
		for _, item := range c.items {
			r.cell(0, "* "+item, 1, "")
		}
		r.pdf.Ln(2)
	}
	r.pdf.Ln(5)
}

func (r *renderer) therapies(records []domain.TherapyRecord) {
	r.pdf.AddPage()
	r.pdf.SetFont(font, "B", 14)
	r.cell(0, "Therapy Recommendations", 1, "C")
	r.pdf.Ln(5)

	for i, rec := range records {
		rec = rec.WithDefaults()
		r.pdf.SetFont(font, "B", 12)
		r.cell(0, fmt.Sprintf("%d. %s (%s)", i+1, rec.TherapyName, rec.TherapyType.Title()), 1, "L")
		r.pdf.Ln(2)

		r.labelled("Description", rec.Description)

		r.pdf.SetFont(font, "B", 11)
		r.cell(0, "Scores:", 1, "")
		scores := []struct {
			name  string
			value float64
		}{
			{"Efficacy", rec.EfficacyScore},
			{"Compatibility", rec.CompatibilityScore},
			{"Safety", rec.SafetyScore},
			{"Cost", rec.CostScore},
			{"Overall", rec.Overall()},
		}
		for _, s := range scores {
			r.pdf.SetFont(font, "B", 10)
			r.cell(labelWidth, s.name+":", 0, "")
			r.pdf.SetFont(font, "", 10)
			r.cell(0, formatScore(s.value)+"/100", 1, "")
		}

		r.labelled("Side Effects", joinOr(rec.SideEffects, "None reported"))
		r.labelled("Contraindications", joinOr(rec.Contraindications, "None reported"))
		evidence := rec.SupportingEvidence
		if strings.TrimSpace(evidence) == "" {
			evidence = "No evidence data available"
		}
		r.labelled("Evidence", evidence)

		r.pdf.Ln(10)
		if i < len(records)-1 {
			y := r.pdf.GetY()
			r.pdf.Line(20, y, 190, y)
			r.pdf.Ln(10)
		}
	}
}

func (r *renderer) disclaimer(now time.Time) {
	r.pdf.AddPage()
	r.pdf.SetFont(font, "B", 12)
	r.cell(0, "Important Disclaimer", 1, "L")
	r.pdf.SetFont(font, "", 10)
	r.multi(strings.Join(disclaimer, "\n\n"))

	r.pdf.Ln(10)
	r.pdf.SetFont(font, "I", 10)
	r.cell(0, "Report generated on: "+now.Format("2006-01-02 15:04:05"), 1, "R")
}

func formatScore(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func joinOr(items []string, empty string) string {
	if len(items) == 0 {
		return empty
	}
	return strings.Join(items, ", ")
}
