package models

import "time"

// ArchivedSession is the durable record written once a session reaches a
// terminal state. The in-memory store remains authoritative; the archive is
// write-only and exists for reporting.
type ArchivedSession struct {
	ID              uint   `gorm:"primaryKey" json:"id"`
	SessionID       string `gorm:"uniqueIndex;size:64" json:"session_id"`
	CandidateID     string `gorm:"index;size:64" json:"candidate_id"`
	Domain          string `gorm:"size:64" json:"domain"`
	State           string `gorm:"size:32" json:"state"`
	TotalScore      float64 `json:"total_score"`
	UnansweredCount int     `json:"unanswered_count"`
	ViolationCount  int     `json:"violation_count"`
	Terminated      bool    `json:"terminated"`
	ResultJSON      string  `gorm:"type:text" json:"result_json"`
	CompletedAt     time.Time `json:"completed_at"`
	CreatedAt       time.Time `json:"created_at"`
}
