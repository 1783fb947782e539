package export

import (
	"fmt"
	"os"

	docx "github.com/fumiama/go-docx"

	"github.com/meetingspace/api/internal/models"
)

// renderDOCX implements the word-processor half of ExportRenderer
// (SPEC_FULL.md §4.7): a centered bold title paragraph, centered muted
// description, one centered metadata line (date, time, director), one
// heading+response count+summary+underscore divider line per question, and a
// forced page break before the Key Takeaways, written as plain paragraphs
// prefixed "1. ", "2. ", and so on. No "Title" paragraph style, metadata
// table, paragraph border or Word list numbering is used. Grounded on
// original_source/apps/api/docx_generator.py.
func renderDOCX(blob models.SummaryBlob, path string) error {
	w := docx.New().WithDefaultTheme()

	title := w.AddParagraph().Justification("center")
	title.AddText(blob.MeetingTitle).Size("44").Bold()

	desc := w.AddParagraph().Justification("center")
	desc.AddText(blob.MeetingDescription).Size("28").Color("5A5A5A")

	meta := w.AddParagraph().Justification("center")
	meta.AddText(fmt.Sprintf("Date Created: %s    Created At: %s    Director: %s",
		blob.Date, blob.TimeCreated, blob.Author)).Size("20").Color("3C3C3C")

	w.AddParagraph()

	for _, qa := range blob.QuestionsAnalysis {
		heading := w.AddParagraph()
		heading.AddText(qa.Question).Size("28").Bold().Color("003366")

		resp := w.AddParagraph()
		resp.AddText(fmt.Sprintf("Total Responses: %d", qa.ResponseCount)).Size("18").Italic().Color("505050")

		summary := w.AddParagraph().Justification("both")
		summary.AddText(qa.Summary).Size("22")

		divider := w.AddParagraph().Justification("center")
		divider.AddText("________________________________________").Size("16").Color("B4B4B4")
	}

	w.AddParagraph().AddPageBreaks()
	takeawaysHeading := w.AddParagraph()
	takeawaysHeading.AddText("Key Takeaways").Size("28").Bold().Color("003366")

	for i, takeaway := range blob.KeyTakeaways {
		p := w.AddParagraph()
		p.AddText(fmt.Sprintf("%d. %s", i+1, takeaway)).Size("22")
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	_, err = w.WriteTo(f)
	return err
}
