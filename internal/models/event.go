package models

import "time"

// Event types published after a mutation commits.
const (
	EventRegistrationCreated = "registration.created"
	EventReEnrollmentCreated = "reenrollment.created"
)

// RegistrationEvent is the message body published to the events queue.
type RegistrationEvent struct {
	Type           string    `json:"type"`
	RegistrationID string    `json:"registration_id"`
	Number         string    `json:"number"`
	WaveID         string    `json:"wave_id"`
	BranchID       string    `json:"branch_id"`
	TotalFee       int64     `json:"total_fee"`
	OccurredAt     time.Time `json:"occurred_at"`
}
