package export

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meetingspace/api/internal/models"
)

func validSummaryBlob() models.SummaryBlob {
	return models.SummaryBlob{
		MeetingTitle:       "Sprint Retro",
		MeetingDescription: "Weekly retro",
		Date:               "01 August 2026",
		TimeCreated:        "10:00",
		Author:             "Jamie Lee",
		QuestionsAnalysis: []models.QuestionAnalysis{
			{Question: "What went well?", Summary: "Pacing was strong throughout.", ResponseCount: 3},
		},
		KeyTakeaways: []string{"Ship the retro notes by Friday"},
	}
}

func TestFilename_FollowsMeetingIDAndFormatConvention(t *testing.T) {
	assert.Equal(t, "meeting_abc-123.pdf", Filename("abc-123", FormatPDF))
	assert.Equal(t, "meeting_abc-123.docx", Filename("abc-123", FormatDOCX))
}

func TestRenderer_Render_RejectsInvalidBlobWithoutTouchingDisk(t *testing.T) {
	root := t.TempDir()
	r := New(root, "/download")

	ok, url := r.Render(models.SummaryBlob{}, "meeting-1", FormatPDF)

	assert.False(t, ok)
	assert.Empty(t, url)
	entries, err := os.ReadDir(root)
	require.NoError(t, err)
	assert.Empty(t, entries, "an invalid blob must never reach the filesystem")
}

func TestRenderer_Render_UnknownFormatReturnsFalse(t *testing.T) {
	root := t.TempDir()
	r := New(root, "/download")

	ok, url := r.Render(validSummaryBlob(), "meeting-1", Format("txt"))

	assert.False(t, ok)
	assert.Empty(t, url)
}

func TestRenderer_Render_DOCXWritesFileAndReturnsDownloadURL(t *testing.T) {
	root := t.TempDir()
	r := New(root, "/download/")

	ok, url := r.Render(validSummaryBlob(), "meeting-1", FormatDOCX)

	require.True(t, ok)
	assert.Equal(t, "/download/meeting_meeting-1.docx", url, "trailing slash on the url prefix must not double up")

	info, err := os.Stat(filepath.Join(root, "meeting_meeting-1.docx"))
	require.NoError(t, err)
	assert.Greater(t, info.Size(), int64(0))
}

func TestRenderDOCX_ProducesNonEmptyFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.docx")

	err := renderDOCX(validSummaryBlob(), path)
	require.NoError(t, err)

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Greater(t, info.Size(), int64(0))
}

func TestResolveDownloadPath_AcceptsExistingFile(t *testing.T) {
	root := t.TempDir()
	full := filepath.Join(root, "meeting_1.pdf")
	require.NoError(t, os.WriteFile(full, []byte("pdf bytes"), 0o644))

	path, err := ResolveDownloadPath(root, "meeting_1.pdf")
	require.NoError(t, err)
	assert.Equal(t, full, path)
}

func TestResolveDownloadPath_RejectsPathTraversal(t *testing.T) {
	root := t.TempDir()

	_, err := ResolveDownloadPath(root, "../../etc/passwd")
	assert.Error(t, err)

	_, err = ResolveDownloadPath(root, "sub/../../escape.pdf")
	assert.Error(t, err)
}

func TestResolveDownloadPath_RejectsMissingFile(t *testing.T) {
	root := t.TempDir()

	_, err := ResolveDownloadPath(root, "nope.pdf")
	assert.Error(t, err)
}

func TestReaperSweep_RemovesOnlyFilesOlderThanRetention(t *testing.T) {
	root := t.TempDir()
	stale := filepath.Join(root, "stale.pdf")
	fresh := filepath.Join(root, "fresh.pdf")
	require.NoError(t, os.WriteFile(stale, []byte("old"), 0o644))
	require.NoError(t, os.WriteFile(fresh, []byte("new"), 0o644))

	oldTime := time.Now().Add(-2 * time.Hour)
	require.NoError(t, os.Chtimes(stale, oldTime, oldTime))

	r := NewReaper(root, 1*time.Hour)
	r.sweep()

	_, err := os.Stat(stale)
	assert.True(t, os.IsNotExist(err), "stale file must be removed")

	_, err = os.Stat(fresh)
	assert.NoError(t, err, "fresh file must survive the sweep")
}

func TestReaperSweep_ToleratesUnreadableDirectoryWithoutPanicking(t *testing.T) {
	r := NewReaper(filepath.Join(t.TempDir(), "does-not-exist"), time.Hour)
	assert.NotPanics(t, func() { r.sweep() })
}
