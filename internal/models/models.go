// Package models defines the core data structures for the meetingspace API.
//
// This package contains:
//   - User (director) models
//   - Meeting, Question, and Response models
//   - The summary blob persisted onto a Meeting after summarization
//
// Database tags use the snake_case convention; JSON tags follow the wire
// contract in SPEC_FULL.md §6.
package models

import "time"

// User is a director account: the authenticated owner of one or more meetings.
type User struct {
	ID        string    `json:"id" db:"id"`
	Email     string    `json:"email" db:"email"`
	FirstName string    `json:"firstName" db:"first_name"`
	LastName  string    `json:"lastName" db:"last_name"`
	PasswordHash string `json:"-" db:"password_hash"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt time.Time `json:"updatedAt" db:"updated_at"`

	// Aggregate counters, updated exactly once per meeting on HostEndpoint END.
	MeetingsCreated  int `json:"meetingsCreated" db:"meetings_created"`
	TotalParticipants int `json:"totalParticipants" db:"total_participants"`
	TotalResponses   int `json:"totalResponses" db:"total_responses"`
}

// FullName returns the director's display name, used as SummaryBlob.Author.
func (u User) FullName() string {
	return u.FirstName + " " + u.LastName
}

// Meeting is the persisted record of one session, created before the host
// connects and updated on end and on summarization.
type Meeting struct {
	ID                    string    `json:"id" db:"id"`
	AccessCode            string    `json:"accessCode" db:"access_code"`
	DirectorID            string    `json:"directorId" db:"director_id"`
	Title                 string    `json:"title" db:"title"`
	Description           string    `json:"description" db:"description"`
	DurationMinutes       int       `json:"durationMinutes" db:"duration_minutes"`
	DurationSecondsActual int       `json:"durationSecondsActual" db:"duration_seconds_actual"`
	TotalQuestionsAsked   int       `json:"totalQuestionsAsked" db:"total_questions_asked"`
	ParticipantsCount     int       `json:"participantsCount" db:"participants_count"`
	Summary               *SummaryBlob `json:"summary,omitempty" db:"summary"`
	CreatedAt             time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt             time.Time `json:"updatedAt" db:"updated_at"`
	EndedAt               *time.Time `json:"endedAt,omitempty" db:"ended_at"`
}

// Question belongs to one meeting, ordered by Position ascending.
type Question struct {
	ID          string `json:"id" db:"id"`
	MeetingID   string `json:"meetingId" db:"meeting_id"`
	Description string `json:"description" db:"description"`
	Position    int    `json:"position" db:"position"`
}

// Response is one participant's answer to one question of one meeting.
type Response struct {
	ID           string    `json:"id" db:"id"`
	MeetingID    string    `json:"meetingId" db:"meeting_id"`
	QuestionID   string    `json:"questionId" db:"question_id"`
	ResponseText string    `json:"responseText" db:"response_text"`
	// SessionID is the opaque WebSocket client ID that produced this answer.
	// Supplemental field, carried over from original_source's Response model;
	// participates in no invariant, see SPEC_FULL.md §3.1.
	SessionID string    `json:"sessionId,omitempty" db:"session_id"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
}

// QuestionAnalysis is one entry of SummaryBlob.QuestionsAnalysis.
type QuestionAnalysis struct {
	Question      string `json:"question"`
	Summary       string `json:"summary"`
	ResponseCount int    `json:"response_count"`
}

// SummaryBlob is the structured meeting summary, stored opaquely on Meeting
// and consumed by the export renderers. Per spec.md §3, every string field
// is non-empty after trim and ResponseCount is in [0, 200].
type SummaryBlob struct {
	MeetingTitle       string             `json:"meeting_title"`
	MeetingDescription string             `json:"meeting_description"`
	Date               string             `json:"date"`
	TimeCreated        string             `json:"time_created"`
	Author             string             `json:"author"`
	QuestionsAnalysis  []QuestionAnalysis `json:"questions_analysis"`
	KeyTakeaways       []string           `json:"key_takeaways"`
}
