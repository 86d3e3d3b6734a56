package types

import "time"

// ScoreBreakdown itemizes how a match score was earned.
type ScoreBreakdown struct {
	Horsepower int `json:"horsepower"`
	Family     int `json:"family"`
	Flags      int `json:"flags"`
	ShaftCode  int `json:"shaft_code"`
}

// Total returns the capped 0-100 sum of all components.
func (b ScoreBreakdown) Total() int {
	total := b.Horsepower + b.Family + b.Flags + b.ShaftCode
	if total > 100 {
		return 100
	}
	return total
}

// MatchCandidate pairs one listing with one catalog motor and the confidence
// that they describe the same model. Candidates are ephemeral: they are
// promoted to a catalog mutation, queued for review, or discarded.
type MatchCandidate struct {
	MotorID       int64          `json:"motor_id"`
	ModelDisplay  string         `json:"model_display"`
	Score         int            `json:"score"`
	Breakdown     ScoreBreakdown `json:"breakdown"`
	Justification string         `json:"justification"`
}

// ReviewStatus is the adjudication state of a review queue entry.
type ReviewStatus string

// Review queue entry states.
const (
	ReviewPending  ReviewStatus = "pending"
	ReviewNoMatch  ReviewStatus = "no_match"
	ReviewApproved ReviewStatus = "approved"
	ReviewRejected ReviewStatus = "rejected"
)

// ReviewEntry is a persisted, unresolved match awaiting human adjudication.
// Entries are keyed by listing identity so a listing that stays ambiguous
// across runs updates its pending entry instead of duplicating it.
type ReviewEntry struct {
	ID         string           `json:"id"`
	ListingKey string           `json:"listing_key"`
	Listing    Listing          `json:"listing"`
	Candidates []MatchCandidate `json:"candidates"`
	TopScore   int              `json:"top_score"`
	Status     ReviewStatus     `json:"status"`
	CreatedAt  time.Time        `json:"created_at"`
	UpdatedAt  time.Time        `json:"updated_at"`
}
