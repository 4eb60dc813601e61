package domain

import "time"

// StatusReady marks a computed result or match set.
const StatusReady = "ready"

// Result is the persisted aggregate for one intake request.
//
// FMCSA and Loads are written once at creation. Intake gains optional fields
// through enrichment, which also sets UpdatedAt. TTL is the epoch-second expiry
// stamped by the result store on every save.
type Result struct {
	RequestID  string              `json:"request_id"`
	ReceivedAt time.Time           `json:"received_at"`
	Intake     Intake              `json:"intake"`
	FMCSA      CarrierVerification `json:"fmcsa"`
	Loads      MatchResult         `json:"loads"`
	Status     string              `json:"status"`
	UpdatedAt  *time.Time          `json:"updated_at,omitempty"`
	TTL        int64               `json:"ttl,omitempty"`
}

// Summary is what a create call reports back without exposing the document.
type Summary struct {
	MCValid      bool   `json:"mc_valid"`
	MatchesCount int    `json:"matches_count"`
	Status       string `json:"status"`
}

// Summarize derives the create summary.
func (r *Result) Summarize() Summary {
	return Summary{
		MCValid:      r.FMCSA.Valid,
		MatchesCount: len(r.Loads.Matches),
		Status:       r.Status,
	}
}

// Clone returns a shallow copy whose top-level fields and intake may be
// reassigned without affecting r. Match and raw payload slices stay shared.
func (r *Result) Clone() *Result {
	c := *r
	if r.UpdatedAt != nil {
		t := *r.UpdatedAt
		c.UpdatedAt = &t
	}
	return &c
}
