// Package analytics emits usage events to an optional Kafka topic through a
// buffered collector. When no brokers are configured the collector is inert
// and every emit is a no-op.
package analytics

import "time"

type EventType string

const (
	EventExperienceRecorded EventType = "experience_recorded"
	EventSearch             EventType = "search"
	EventZeroResult         EventType = "zero_result"
	EventVote               EventType = "vote"
	EventFeedback           EventType = "feedback"
)

type ExperienceEvent struct {
	Type       EventType `json:"type"`
	RecordID   string    `json:"record_id"`
	TokenCount int       `json:"token_count"`
	Timestamp  time.Time `json:"timestamp"`
}

type SearchEvent struct {
	Type      EventType `json:"type"`
	Query     string    `json:"query"`
	Terms     []string  `json:"terms"`
	Returned  int       `json:"returned"`
	LatencyMs int64     `json:"latency_ms"`
	Timestamp time.Time `json:"timestamp"`
}

type VoteEvent struct {
	Type      EventType `json:"type"`
	RecordID  string    `json:"record_id"`
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
}

type FeedbackEvent struct {
	Type      EventType `json:"type"`
	ToolName  string    `json:"tool_name"`
	Rating    int       `json:"rating"`
	Timestamp time.Time `json:"timestamp"`
}
