// Package journal implements the student journaling conversation: a fixed-
// length back-and-forth with the AI coach that ends in a closing remark and
// a structured summary. In-flight conversations (drafts) live only in Redis
// and expire if abandoned; a conversation becomes durable exactly when it
// completes and its summary is stored.
package journal

import (
	"time"

	"github.com/kindmind/kindmind/internal/plugins/coach"
)

// Sender identifies who wrote a message.
type Sender string

const (
	// SenderUser marks messages written by the student.
	SenderUser Sender = "user"

	// SenderAI marks messages produced by the coach.
	SenderAI Sender = "ai"
)

// Message is one entry in a conversation transcript. Immutable once
// appended; ordered, append-only within a conversation.
type Message struct {
	Sender Sender `json:"sender"`
	Text   string `json:"text"`
}

// State is the conversation lifecycle phase.
type State string

const (
	// StateGreeting means the fixed welcome has been emitted and no user
	// input has arrived yet.
	StateGreeting State = "greeting"

	// StateExchanging means the student and coach are mid-conversation.
	StateExchanging State = "exchanging"

	// StateSummarizing means the closing remark has been delivered but
	// summarization failed; resending any input retries it.
	StateSummarizing State = "summarizing"

	// StateComplete means the conversation is finished and persisted.
	// No further input is accepted.
	StateComplete State = "complete"
)

// Draft is an in-flight conversation. Stored only in Redis with a TTL;
// abandoned drafts are simply lost. Turn counts completed user/coach
// exchange pairs.
type Draft struct {
	AccountID string    `json:"account_id"`
	Name      string    `json:"name"`
	State     State     `json:"state"`
	Turn      int       `json:"turn"`
	Messages  []Message `json:"messages"`
	StartedAt time.Time `json:"started_at"`
}

// Conversation is one completed exchange with its derived summary. Created
// only at completion; never mutated afterwards.
type Conversation struct {
	ID        string        `json:"id"`
	AccountID string        `json:"account_id"`
	CreatedAt time.Time     `json:"created_at"`
	Messages  []Message     `json:"messages"`
	Summary   coach.Summary `json:"summary"`
}

// LatestMood is the dashboard's view of a student's most recent completed
// conversation: just the name, the summary mood phrase, and when.
type LatestMood struct {
	AccountID   string    `json:"account_id"`
	StudentName string    `json:"student_name"`
	Mood        string    `json:"mood"`
	CreatedAt   time.Time `json:"created_at"`
}

// --- Request/Response DTOs ---

// SendRequest holds one student message.
type SendRequest struct {
	Text string `json:"text" form:"text"`
}

// TurnResponse describes the conversation after a start or send call. Reply
// is the coach's latest message. Summary is set only once Done.
type TurnResponse struct {
	State    State          `json:"state"`
	Turn     int            `json:"turn"`
	MaxTurns int            `json:"max_turns"`
	Reply    *Message       `json:"reply,omitempty"`
	Summary  *coach.Summary `json:"summary,omitempty"`
	Done     bool           `json:"done"`
}
