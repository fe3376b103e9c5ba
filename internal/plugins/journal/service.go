package journal

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/kindmind/kindmind/internal/apperror"
	"github.com/kindmind/kindmind/internal/plugins/coach"
	"github.com/kindmind/kindmind/internal/sanitize"
)

const (
	maxMessageLength = 2000
)

// JournalService drives the conversation state machine.
type JournalService interface {
	// Start begins a fresh conversation for the account, replacing any
	// in-flight draft. The greeting is fixed and produced locally; no
	// provider call happens here.
	Start(ctx context.Context, accountID, name string) (*TurnResponse, error)

	// Send processes one student message. Depending on the draft's turn
	// count this either continues the exchange, or closes and summarizes
	// it. Provider failures leave the draft untouched so the same turn can
	// be retried.
	Send(ctx context.Context, accountID, text string) (*TurnResponse, error)

	// History returns the account's completed conversations, newest first.
	History(ctx context.Context, accountID string) ([]Conversation, error)
}

type journalService struct {
	repo     ConversationRepository
	drafts   DraftStore
	gateway  coach.Gateway
	maxTurns int
	logger   *slog.Logger
}

// NewJournalService creates the journal service. maxTurns is the number of
// student messages a conversation accepts before it closes.
func NewJournalService(repo ConversationRepository, drafts DraftStore, gateway coach.Gateway, maxTurns int, logger *slog.Logger) JournalService {
	return &journalService{
		repo:     repo,
		drafts:   drafts,
		gateway:  gateway,
		maxTurns: maxTurns,
		logger:   logger,
	}
}

func greetingFor(name string) string {
	return fmt.Sprintf("Hi %s, it's nice to see you! How are you feeling today?", name)
}

func (s *journalService) Start(ctx context.Context, accountID, name string) (*TurnResponse, error) {
	greeting := Message{Sender: SenderAI, Text: greetingFor(name)}

	draft := &Draft{
		AccountID: accountID,
		Name:      name,
		State:     StateGreeting,
		Turn:      0,
		Messages:  []Message{greeting},
		StartedAt: time.Now().UTC(),
	}
	if err := s.drafts.Save(ctx, draft); err != nil {
		return nil, err
	}

	return &TurnResponse{
		State:    StateGreeting,
		Turn:     0,
		MaxTurns: s.maxTurns,
		Reply:    &greeting,
	}, nil
}

func (s *journalService) Send(ctx context.Context, accountID, text string) (*TurnResponse, error) {
	draft, err := s.drafts.Get(ctx, accountID)
	if err != nil {
		return nil, err
	}

	switch draft.State {
	case StateComplete:
		return nil, apperror.NewConflict("conversation already complete")
	case StateSummarizing:
		// The closing remark was already delivered; any input retries the
		// summary without appending to the transcript.
		return s.finish(ctx, draft)
	}

	text = sanitize.Text(text)
	if text == "" {
		return nil, apperror.NewValidation("message text is required")
	}
	if len(text) > maxMessageLength {
		return nil, apperror.NewValidation(fmt.Sprintf("message must be at most %d characters", maxMessageLength))
	}

	// Build the would-be transcript without touching the stored draft. The
	// draft is only saved after the provider call succeeds, so a failure
	// leaves the turn counter and transcript exactly as they were.
	messages := append(append([]Message(nil), draft.Messages...), Message{Sender: SenderUser, Text: text})
	nextTurn := draft.Turn + 1

	if nextTurn < s.maxTurns {
		reply, err := s.gateway.Continue(ctx, toTurns(messages))
		if err != nil {
			return nil, err
		}

		aiMsg := Message{Sender: SenderAI, Text: reply}
		draft.Messages = append(messages, aiMsg)
		draft.Turn = nextTurn
		draft.State = StateExchanging
		if err := s.drafts.Save(ctx, draft); err != nil {
			return nil, err
		}

		return &TurnResponse{
			State:    StateExchanging,
			Turn:     nextTurn,
			MaxTurns: s.maxTurns,
			Reply:    &aiMsg,
		}, nil
	}

	// Final turn: close the conversation instead of asking another question.
	closing, err := s.gateway.Conclude(ctx, toTurns(messages))
	if err != nil {
		return nil, err
	}

	draft.Messages = append(messages, Message{Sender: SenderAI, Text: closing})
	draft.Turn = nextTurn
	draft.State = StateSummarizing
	if err := s.drafts.Save(ctx, draft); err != nil {
		return nil, err
	}

	return s.finish(ctx, draft)
}

// finish summarizes a closed draft and persists the completed conversation.
// The draft stays in the summarizing state if the provider call fails, so
// the caller can retry without repeating the closing remark.
func (s *journalService) finish(ctx context.Context, draft *Draft) (*TurnResponse, error) {
	summary, err := s.gateway.Summarize(ctx, toTurns(draft.Messages))
	if err != nil {
		return nil, err
	}

	conv := &Conversation{
		ID:        uuid.NewString(),
		AccountID: draft.AccountID,
		CreatedAt: time.Now().UTC(),
		Messages:  draft.Messages,
		Summary:   summary,
	}
	if err := s.repo.Create(ctx, conv); err != nil {
		return nil, err
	}

	if err := s.drafts.Delete(ctx, draft.AccountID); err != nil {
		s.logger.Warn("failed to delete completed draft", "account_id", draft.AccountID, "error", err)
	}

	closing := draft.Messages[len(draft.Messages)-1]
	return &TurnResponse{
		State:    StateComplete,
		Turn:     draft.Turn,
		MaxTurns: s.maxTurns,
		Reply:    &closing,
		Summary:  &summary,
		Done:     true,
	}, nil
}

func (s *journalService) History(ctx context.Context, accountID string) ([]Conversation, error) {
	return s.repo.ListByAccount(ctx, accountID)
}

// toTurns converts a transcript into the coach wire roles.
func toTurns(messages []Message) []coach.Turn {
	turns := make([]coach.Turn, 0, len(messages))
	for _, m := range messages {
		role := coach.RoleUser
		if m.Sender == SenderAI {
			role = coach.RoleModel
		}
		turns = append(turns, coach.Turn{Role: role, Text: m.Text})
	}
	return turns
}
