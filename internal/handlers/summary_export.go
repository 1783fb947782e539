package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/meetingspace/api/internal/export"
	"github.com/meetingspace/api/internal/models"
)

// Summarizer matches llm.Orchestrator's public surface.
type Summarizer interface {
	Summarize(ctx context.Context, meetingID string) error
}

// SummaryHandler implements POST /api/<meeting_id>/summarize/
// (SPEC_FULL.md §6).
type SummaryHandler struct {
	Orchestrator Summarizer
}

func (h *SummaryHandler) Summarize(c *gin.Context) {
	meetingID := c.Param("meeting_id")
	if err := h.Orchestrator.Summarize(c.Request.Context(), meetingID); err != nil {
		c.JSON(http.StatusOK, gin.H{"type": "error"})
		return
	}
	c.JSON(http.StatusOK, gin.H{})
}

// SummaryRepo is the subset of RepoStore ExportHandler needs to load the
// persisted SummaryBlob before rendering it.
type SummaryRepo interface {
	GetMeetingByID(ctx context.Context, id string) (*models.Meeting, error)
}

// ExportHandler implements POST /api/<meeting_id>/export/ and
// GET /download/<filename> (SPEC_FULL.md §6).
type ExportHandler struct {
	Repo     SummaryRepo
	Renderer *export.Renderer
}

type exportRequest struct {
	Type string `json:"type"`
}

func (h *ExportHandler) Export(c *gin.Context) {
	meetingID := c.Param("meeting_id")

	var req exportRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Type == "" {
		c.JSON(http.StatusOK, gin.H{"type": "error"})
		return
	}

	meeting, err := h.Repo.GetMeetingByID(c.Request.Context(), meetingID)
	if err != nil || meeting == nil || meeting.Summary == nil {
		c.JSON(http.StatusOK, gin.H{"type": "error"})
		return
	}

	ok, downloadURL := h.Renderer.Render(*meeting.Summary, meetingID, export.Format(req.Type))
	if !ok {
		c.JSON(http.StatusOK, gin.H{"type": "error"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"type": "success", "download_url": downloadURL})
}

// Download implements GET /download/<filename>, streaming the file as an
// attachment (SPEC_FULL.md §6).
func (h *ExportHandler) Download(c *gin.Context) {
	filename := c.Param("filename")
	path, err := export.ResolveDownloadPath(h.Renderer.ExportRoot(), filename)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
		return
	}
	c.FileAttachment(path, filename)
}
