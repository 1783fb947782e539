package export

import (
	"fmt"

	"github.com/go-pdf/fpdf"

	"github.com/meetingspace/api/internal/models"
)

// renderPDF implements the PDF half of ExportRenderer (SPEC_FULL.md §4.7):
// title page, one section per question, a forced page break before Key
// Takeaways, and a header/footer on pages 2+. Grounded on
// original_source/apps/api/pdf_generator.py's MeetingSummaryPDF class.
func renderPDF(blob models.SummaryBlob, path string) error {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.AddUTF8Font("DejaVu", "", "DejaVuSansCondensed.ttf")
	pdf.AddUTF8Font("DejaVu", "B", "DejaVuSansCondensed-Bold.ttf")
	pdf.SetFont("DejaVu", "", 12)
	pdf.SetAutoPageBreak(true, 15)

	pdf.SetHeaderFunc(func() {
		if pdf.PageNo() == 1 {
			return
		}
		pdf.SetFont("DejaVu", "", 9)
		pdf.SetTextColor(150, 150, 150)
		pdf.CellFormat(0, 8, "Meeting Summary", "", 1, "C", false, 0, "")
		pdf.Ln(3)
	})
	pdf.SetFooterFunc(func() {
		pdf.SetY(-15)
		pdf.SetFont("DejaVu", "", 8)
		pdf.SetTextColor(150, 150, 150)
		pdf.CellFormat(0, 10, fmt.Sprintf("Page %d", pdf.PageNo()), "", 0, "C", false, 0, "")
	})

	pdf.AddPage()
	addTitlePage(pdf, blob)

	for _, qa := range blob.QuestionsAnalysis {
		addQuestionSection(pdf, qa)
	}

	addKeyTakeaways(pdf, blob.KeyTakeaways)

	if err := pdf.Error(); err != nil {
		return err
	}
	return pdf.OutputFileAndClose(path)
}

func addTitlePage(pdf *fpdf.Fpdf, blob models.SummaryBlob) {
	pdf.SetFont("DejaVu", "", 24)
	pdf.SetTextColor(0, 0, 0)
	pdf.Ln(40)
	pdf.CellFormat(0, 15, blob.MeetingTitle, "", 1, "C", false, 0, "")

	pdf.SetFont("DejaVu", "", 14)
	pdf.SetTextColor(90, 90, 90)
	pdf.MultiCell(0, 8, blob.MeetingDescription, "", "C", false)
	pdf.Ln(20)

	pdf.SetFont("DejaVu", "", 12)
	pdf.SetTextColor(60, 60, 60)
	pdf.CellFormat(0, 8, "Date Created: "+blob.Date, "", 1, "C", false, 0, "")
	pdf.CellFormat(0, 8, "Created At: "+blob.TimeCreated, "", 1, "C", false, 0, "")
	pdf.CellFormat(0, 8, "Director: "+blob.Author, "", 1, "C", false, 0, "")
	pdf.Ln(20)
}

func sectionHeading(pdf *fpdf.Fpdf, text string) {
	pdf.SetFont("DejaVu", "", 16)
	pdf.SetTextColor(0, 0, 0)
	pdf.CellFormat(0, 10, text, "", 1, "L", false, 0, "")
	pdf.SetDrawColor(0, 0, 0)
	pdf.SetLineWidth(0.5)
	y := pdf.GetY()
	left, _, right, _ := pdf.GetMargins()
	pageWidth, _ := pdf.GetPageSize()
	pdf.Line(left, y, pageWidth-right, y)
	pdf.Ln(6)
}

func addQuestionSection(pdf *fpdf.Fpdf, qa models.QuestionAnalysis) {
	if pdf.GetY() > 220 {
		pdf.AddPage()
	}

	sectionHeading(pdf, qa.Question)
	pdf.SetFont("DejaVu", "", 12)
	pdf.SetTextColor(50, 50, 50)
	pdf.CellFormat(0, 8, fmt.Sprintf("Total Responses: %d", qa.ResponseCount), "", 1, "L", false, 0, "")
	pdf.Ln(2)

	pdf.SetFont("DejaVu", "", 11)
	pdf.SetTextColor(0, 0, 0)
	pdf.MultiCell(0, 6, qa.Summary, "", "J", false)
	pdf.Ln(8)
}

func addKeyTakeaways(pdf *fpdf.Fpdf, takeaways []string) {
	pdf.AddPage()
	sectionHeading(pdf, "Key Takeaways")
	pdf.SetFont("DejaVu", "", 11)
	pdf.SetTextColor(0, 0, 0)

	left, _, _, _ := pdf.GetMargins()
	for i, text := range takeaways {
		pdf.SetX(left + 5)
		pdf.MultiCell(0, 6, fmt.Sprintf("%d. %s", i+1, text), "", "L", false)
		pdf.Ln(2)
	}
}
