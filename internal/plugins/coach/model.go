// Package coach wraps the external generative-language provider behind a
// small gateway interface. It owns every network interaction with the
// provider: continuing a conversation, producing a closing remark,
// summarizing a finished transcript, classifying a mood phrase into one of
// four quadrants, and probing whether an API key is accepted.
//
// The conversational contract (short empathetic questions, no advice or
// judgment) is enforced at the prompt level -- the gateway trusts provider
// compliance and does not post-process tone.
package coach

import "strings"

// Role tags a transcript turn for the provider wire format.
type Role string

const (
	// RoleUser marks text written by the student.
	RoleUser Role = "user"

	// RoleModel marks text produced by the coach.
	RoleModel Role = "model"
)

// Turn is one role-tagged entry of the transcript sent to the provider.
type Turn struct {
	Role Role
	Text string
}

// Summary is the structured result of summarizing a completed conversation.
// Exactly two string fields, matching the response schema sent to the
// provider. Produced once per conversation and stored verbatim.
type Summary struct {
	// Mood is a short free-text phrase describing the student's overall mood.
	Mood string `json:"mood"`

	// Message is a one-or-two sentence recap addressed to the teacher.
	Message string `json:"message"`
}

// Quadrant is one of four coarse emotional-state buckets (energy x valence)
// used for the teacher dashboard. Derived on demand, never stored.
type Quadrant string

const (
	// QuadrantYellow is high energy, pleasant (excited, proud).
	QuadrantYellow Quadrant = "YELLOW"

	// QuadrantRed is high energy, unpleasant (angry, anxious).
	QuadrantRed Quadrant = "RED"

	// QuadrantBlue is low energy, unpleasant (sad, tired). Also the
	// fallback when the provider returns an unrecognized label.
	QuadrantBlue Quadrant = "BLUE"

	// QuadrantGreen is low energy, pleasant (calm, content).
	QuadrantGreen Quadrant = "GREEN"
)

// Quadrants lists every valid quadrant, in dashboard display order.
func Quadrants() []Quadrant {
	return []Quadrant{QuadrantYellow, QuadrantRed, QuadrantBlue, QuadrantGreen}
}

// ParseQuadrant normalizes a provider label and reports whether it is one of
// the four recognized quadrants.
func ParseQuadrant(s string) (Quadrant, bool) {
	switch Quadrant(strings.ToUpper(strings.TrimSpace(s))) {
	case QuadrantYellow:
		return QuadrantYellow, true
	case QuadrantRed:
		return QuadrantRed, true
	case QuadrantBlue:
		return QuadrantBlue, true
	case QuadrantGreen:
		return QuadrantGreen, true
	}
	return "", false
}

// Classification is the observable result of classifying a mood phrase.
// Defaulted is true when the provider returned something outside the four
// recognized labels (or could not be reached) and the quadrant fell back to
// BLUE. Callers can surface the degradation without ever failing.
type Classification struct {
	Quadrant  Quadrant `json:"quadrant"`
	Defaulted bool     `json:"defaulted"`
}

// DefaultClassification is the lenient-degradation fallback: the dashboard
// must remain usable even with a flaky classifier.
func DefaultClassification() Classification {
	return Classification{Quadrant: QuadrantBlue, Defaulted: true}
}
