package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

const JobTypeFlashcardGeneration = "flashcard-generation"

// QueueName is the Redis list a job type is pushed to.
func QueueName(jobType string) string {
	return "queue:" + jobType
}

type Job struct {
	ID           uuid.UUID       `json:"id"`
	UserID       uuid.UUID       `json:"user_id"`
	Type         string          `json:"type"`
	ReferenceID  int64           `json:"reference_id"`
	ConfigJSON   json.RawMessage `json:"config"`
	Status       string          `json:"status"` // "pending" | "processing" | "completed" | "failed"
	RetryCount   int             `json:"retry_count"`
	MaxRetries   int             `json:"max_retries"`
	ErrorMessage *string         `json:"error_message"`
	CreatedAt    time.Time       `json:"created_at"`
	CompletedAt  *time.Time      `json:"completed_at"`
}

// WebSocket message types
type WSMessage struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload"`
}

type ViewsInvalidated struct {
	Views []string `json:"views"`
}

type StatusUpdate struct {
	JobID    uuid.UUID `json:"job_id"`
	Step     int       `json:"step"`
	StepName string    `json:"step_name"`
}

type CompletedEvent struct {
	JobID      uuid.UUID `json:"job_id"`
	ResultID   int64     `json:"result_id"`
	ResultType string    `json:"result_type"`
}

type ErrorEvent struct {
	JobID        uuid.UUID `json:"job_id"`
	ErrorCode    string    `json:"error_code"`
	ErrorMessage string    `json:"error_message"`
}

type ReviewsDue struct {
	Date    string   `json:"date"`
	Count   int      `json:"count"`
	Overdue int      `json:"overdue"`
	Items   []Review `json:"items"`
}

// API Error response
type APIError struct {
	Code      string            `json:"code"`
	Message   string            `json:"message"`
	Fields    map[string]string `json:"fields,omitempty"`
	RequestID string            `json:"request_id"`
}

type ErrorResponse struct {
	Error APIError `json:"error"`
}
