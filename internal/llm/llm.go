// Package llm implements SummaryOrchestrator (SPEC_FULL.md §4.6): assembling
// the per-question response mapping, calling the LLM provider, and
// reconstructing a trusted SummaryBlob that never carries model-provided
// metadata.
//
// Grounded on original_source/apps/api/views.py's summarize_meeting (exact
// prompt text, temperature, JSON-object mode, and the
// trusted-metadata-reconstruction pattern), using sashabaranov/go-openai the
// way other_examples/3b654f6f_GhiaC-Agentize__engine-schedules.go.go drives
// the same client for chat completions.
package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"

	apperrors "github.com/meetingspace/api/internal/errors"
	"github.com/meetingspace/api/internal/logger"
	"github.com/meetingspace/api/internal/models"
)

// noResponsesPlaceholder is substituted as a question's sole response entry
// when no participant answered it (SPEC_FULL.md §4.6 step 2).
const noResponsesPlaceholder = "No responses received for this question"

// invocationTimeout bounds the LLM round trip (SPEC_FULL.md §5).
const invocationTimeout = 60 * time.Second

const systemPrompt = "You are a meeting analysis assistant. You analyze questions and responses but never generate meeting metadata like titles, dates, or author names."

// Repo is the subset of RepoStore SummaryOrchestrator depends on.
type Repo interface {
	GetMeetingWithQuestions(ctx context.Context, meetingID string) (*models.Meeting, []models.Question, error)
	GetUserByID(ctx context.Context, id string) (*models.User, error)
	ListResponsesForMeeting(ctx context.Context, meetingID string) ([]models.Response, error)
	SetMeetingSummary(ctx context.Context, meetingID string, summary models.SummaryBlob) error
}

// rawAnalysis is the shape the LLM is asked to return, per the JSON contract
// of SPEC_FULL.md §6. ResponseCount is left as interface{} (a float64 or a
// string after decoding) because the original prompt tolerates the model
// echoing it as a numeric string.
type rawAnalysis struct {
	QuestionsAnalysis []struct {
		Question      string      `json:"question"`
		Summary       string      `json:"summary"`
		ResponseCount interface{} `json:"response_count"`
	} `json:"questions_analysis"`
	KeyTakeaways []string `json:"key_takeaways"`
}

// Orchestrator drives SummaryOrchestrator end to end.
type Orchestrator struct {
	repo     Repo
	client   *openai.Client
	model    string
	location *time.Location
}

// New constructs an Orchestrator. apiKey configures the OpenAI client;
// location is the zone summary timestamps are formatted in
// (SPEC_FULL.md §4.6 step 3, "America/Toronto").
func New(repo Repo, apiKey string, location *time.Location) *Orchestrator {
	return &Orchestrator{
		repo:     repo,
		client:   openai.NewClient(apiKey),
		model:    openai.GPT4oMini,
		location: location,
	}
}

// Summarize runs the full SummaryOrchestrator pipeline for one meeting and
// persists the result via RepoStore.SetMeetingSummary.
func (o *Orchestrator) Summarize(ctx context.Context, meetingID string) error {
	log := logger.LLM().With().Str("meeting_id", meetingID).Logger()

	meeting, questions, err := o.repo.GetMeetingWithQuestions(ctx, meetingID)
	if err != nil || meeting == nil || len(questions) == 0 {
		return apperrors.MeetingNotFound()
	}
	director, err := o.repo.GetUserByID(ctx, meeting.DirectorID)
	if err != nil {
		return apperrors.SummarizationError(err)
	}
	responses, err := o.repo.ListResponsesForMeeting(ctx, meetingID)
	if err != nil {
		return apperrors.SummarizationError(err)
	}

	byQuestion := groupResponsesByQuestion(questions, responses)
	prompt := buildPrompt(questions, byQuestion)

	callCtx, cancel := context.WithTimeout(ctx, invocationTimeout)
	defer cancel()

	resp, err := o.client.CreateChatCompletion(callCtx, openai.ChatCompletionRequest{
		Model: o.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		Temperature:    0.3,
		ResponseFormat: &openai.ChatCompletionResponseFormat{Type: openai.ChatCompletionResponseFormatTypeJSONObject},
	})
	if err != nil {
		log.Warn().Err(err).Msg("LLM invocation failed")
		return apperrors.SummarizationError(err)
	}
	if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == "" {
		return apperrors.SummarizationError(fmt.Errorf("empty LLM response"))
	}

	var raw rawAnalysis
	if err := json.Unmarshal([]byte(resp.Choices[0].Message.Content), &raw); err != nil {
		return apperrors.SummarizationError(err)
	}

	blob := models.SummaryBlob{
		MeetingTitle:       meeting.Title,
		MeetingDescription: meeting.Description,
		Date:               formatDate(meeting.CreatedAt, o.location),
		TimeCreated:        formatTime(meeting.CreatedAt, o.location),
		Author:             director.FullName(),
	}
	for _, qa := range raw.QuestionsAnalysis {
		count, err := toResponseCount(qa.ResponseCount)
		if err != nil {
			continue
		}
		blob.QuestionsAnalysis = append(blob.QuestionsAnalysis, models.QuestionAnalysis{
			Question:      qa.Question,
			Summary:       qa.Summary,
			ResponseCount: count,
		})
	}
	blob.KeyTakeaways = append(blob.KeyTakeaways, raw.KeyTakeaways...)

	if err := Validate(blob); err != nil {
		return err
	}
	return o.repo.SetMeetingSummary(ctx, meetingID, blob)
}

// Validate enforces the invariants SPEC_FULL.md §4.6 requires of a
// SummaryBlob before it is usable by ExportRenderer.
func Validate(blob models.SummaryBlob) error {
	if len(blob.QuestionsAnalysis) == 0 {
		return apperrors.SummarizationError(fmt.Errorf("questions_analysis is empty"))
	}
	for _, qa := range blob.QuestionsAnalysis {
		if strings.TrimSpace(qa.Question) == "" || strings.TrimSpace(qa.Summary) == "" {
			return apperrors.SummarizationError(fmt.Errorf("question analysis entry missing question or summary"))
		}
		if qa.ResponseCount < 0 || qa.ResponseCount > 200 {
			return apperrors.SummarizationError(fmt.Errorf("response_count %d out of range", qa.ResponseCount))
		}
	}
	if len(blob.KeyTakeaways) == 0 {
		return apperrors.SummarizationError(fmt.Errorf("key_takeaways is empty"))
	}
	for _, t := range blob.KeyTakeaways {
		if strings.TrimSpace(t) == "" {
			return apperrors.SummarizationError(fmt.Errorf("key_takeaways contains an empty entry"))
		}
	}
	return nil
}

func toResponseCount(v interface{}) (int, error) {
	switch n := v.(type) {
	case float64:
		return int(n), nil
	case string:
		return strconv.Atoi(strings.TrimSpace(n))
	default:
		return 0, fmt.Errorf("unsupported response_count type %T", v)
	}
}

func groupResponsesByQuestion(questions []models.Question, responses []models.Response) map[string][]string {
	byQuestion := make(map[string][]string, len(questions))
	for _, q := range questions {
		byQuestion[q.ID] = nil
	}
	for _, r := range responses {
		byQuestion[r.QuestionID] = append(byQuestion[r.QuestionID], r.ResponseText)
	}
	for id, texts := range byQuestion {
		if len(texts) == 0 {
			byQuestion[id] = []string{noResponsesPlaceholder}
		}
	}
	return byQuestion
}

// buildPrompt reconstructs the fixed analysis prompt from
// original_source/apps/api/views.py's summarize_meeting, substituting the
// question/response mapping for this meeting.
func buildPrompt(questions []models.Question, byQuestion map[string][]string) string {
	mapping := make(map[string][]string, len(questions))
	for _, q := range questions {
		mapping[q.Description] = byQuestion[q.ID]
	}
	payload, _ := json.MarshalIndent(mapping, "", "  ")

	var b strings.Builder
	b.WriteString("Analyze the following meeting questions and responses, then provide a JSON summary of ONLY the questions analysis and key takeaways.\n\n")
	b.WriteString("DO NOT generate meeting metadata (title, date, author) - I will add those separately.\n\n")
	b.WriteString(`Format EXACTLY like this (escape all quotes):
{
"questions_analysis": [
    {
    "question": "[EXACT original question text]",
    "summary": "[4-5 sentence comprehensive analysis that includes:
                - Opening sentence synthesizing the overall theme/consensus
                - Specific response perspectives using descriptors ('one participant noted', 'another emphasized')
                - Clear identification of agreements, disagreements, or patterns
                - Actionable insights or decisions emerging from responses
                - Any unresolved questions or conflicting viewpoints]",
    "response_count": [integer]
    }
],
"key_takeaways": [
    "[Most important decision or consensus with context]",
    "[Critical unresolved issue requiring follow-up]",
    "[Strategic insight or pattern identified across responses]",
    "[Next step or recommendation emerging from discussions]"
]
}

Rules:
- Each summary should be 4-5 complete sentences for comprehensive context
- Lead with overall consensus/theme, then explore different viewpoints
- Use descriptors like "one participant suggested", "multiple responses indicated", "another viewpoint emphasized"
- Quantify agreement patterns ("three of four responses focused on...")
- Use specific numbers and metrics when available
- Flag clear disagreements with [DISAGREEMENT] at start of summary
- Identify trends across anonymous responses
- Highlight actionable items and emerging decisions
- Never invent details not in the source
- Make summaries rich enough to stand alone when read in sequence

Meeting data to analyze:
`)
	b.Write(payload)
	return b.String()
}

func formatDate(t time.Time, loc *time.Location) string {
	return t.In(loc).Format("02 January 2006")
}

func formatTime(t time.Time, loc *time.Location) string {
	return t.In(loc).Format("15:04")
}
