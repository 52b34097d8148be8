package domain

import "time"

type SwipeOutcome string

const (
	OutcomeNoMatch     SwipeOutcome = "no_match"
	OutcomePending     SwipeOutcome = "pending"
	OutcomeMatchFormed SwipeOutcome = "match_formed"
)

type SwipeResult struct {
	Outcome   SwipeOutcome `json:"outcome"`
	PartnerID string       `json:"partner_id,omitempty"`
	Swipe     *Swipe       `json:"swipe"`
}

type MatchEventType string

const (
	EventMatchFormed MatchEventType = "match.formed"
	EventUnmatched   MatchEventType = "match.cleared"
)

const (
	UnmatchReasonRequested      = "unmatch"
	UnmatchReasonProfileDeleted = "profile_deleted"
)

// MatchEvent is emitted after a match is committed or cleared. UserID is the
// user whose action caused the event; PartnerID is the other side.
type MatchEvent struct {
	ID         string         `json:"id"`
	Type       MatchEventType `json:"type"`
	GuildID    string         `json:"guild_id"`
	UserID     string         `json:"user_id"`
	PartnerID  string         `json:"partner_id"`
	Reason     string         `json:"reason,omitempty"`
	OccurredAt time.Time      `json:"occurred_at"`
}
