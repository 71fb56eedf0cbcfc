package events

import (
	"time"

	"github.com/google/uuid"
)

const (
	eventSource  = "form-service"
	eventVersion = "1.0"
)

// EventType represents the kinds of events the form service emits
type EventType string

const (
	EventFormPublished      EventType = "form.published"
	EventSubmissionReceived EventType = "submission.received"
	EventSubmissionScored   EventType = "submission.scored"
)

// Event is the envelope shared by every published event
type Event struct {
	ID        string                 `json:"id"`
	Type      EventType              `json:"type"`
	Timestamp time.Time              `json:"timestamp"`
	Source    string                 `json:"source"`
	Version   string                 `json:"version"`
	Data      interface{}            `json:"data"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`

	// FormID keys the event so all events of one form land on one partition.
	FormID uint `json:"-"`
}

type FormPublishedEvent struct {
	FormID      uint      `json:"form_id"`
	Title       string    `json:"title"`
	Version     int       `json:"version"`
	PublishedBy string    `json:"published_by"`
	PublishedAt time.Time `json:"published_at"`
}

type SubmissionReceivedEvent struct {
	SubmissionID uint      `json:"submission_id"`
	FormID       uint      `json:"form_id"`
	FormVersion  int       `json:"form_version"`
	RespondentID *string   `json:"respondent_id,omitempty"`
	SubmittedAt  time.Time `json:"submitted_at"`
	AnswerCount  int       `json:"answer_count"`
}

type SubmissionScoredEvent struct {
	SubmissionID uint    `json:"submission_id"`
	FormID       uint    `json:"form_id"`
	RespondentID *string `json:"respondent_id,omitempty"`
	Earned       float64 `json:"earned"`
	Possible     float64 `json:"possible"`
	Percentage   int     `json:"percentage"`
	Passed       bool    `json:"passed"`
}

func newEvent(eventType EventType, formID uint, data interface{}) *Event {
	return &Event{
		FormID:    formID,
		ID:        uuid.NewString(),
		Type:      eventType,
		Timestamp: time.Now().UTC(),
		Source:    eventSource,
		Version:   eventVersion,
		Data:      data,
	}
}

func NewFormPublishedEvent(formID uint, title string, version int, publishedBy string, publishedAt time.Time) *Event {
	return newEvent(EventFormPublished, formID, FormPublishedEvent{
		FormID:      formID,
		Title:       title,
		Version:     version,
		PublishedBy: publishedBy,
		PublishedAt: publishedAt,
	})
}

func NewSubmissionReceivedEvent(submissionID, formID uint, formVersion int, respondentID *string, submittedAt time.Time, answerCount int) *Event {
	return newEvent(EventSubmissionReceived, formID, SubmissionReceivedEvent{
		SubmissionID: submissionID,
		FormID:       formID,
		FormVersion:  formVersion,
		RespondentID: respondentID,
		SubmittedAt:  submittedAt,
		AnswerCount:  answerCount,
	})
}

func NewSubmissionScoredEvent(submissionID, formID uint, respondentID *string, earned, possible float64, percentage int, passed bool) *Event {
	return newEvent(EventSubmissionScored, formID, SubmissionScoredEvent{
		SubmissionID: submissionID,
		FormID:       formID,
		RespondentID: respondentID,
		Earned:       earned,
		Possible:     possible,
		Percentage:   percentage,
		Passed:       passed,
	})
}
