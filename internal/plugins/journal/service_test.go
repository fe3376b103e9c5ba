package journal

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"github.com/kindmind/kindmind/internal/apperror"
	"github.com/kindmind/kindmind/internal/plugins/coach"
)

// --- Mock Conversation Repository ---

type mockConvRepo struct {
	createFn           func(ctx context.Context, conv *Conversation) error
	listByAccountFn    func(ctx context.Context, accountID string) ([]Conversation, error)
	latestPerAccountFn func(ctx context.Context) ([]LatestMood, error)
	created            []*Conversation
}

func (m *mockConvRepo) Create(ctx context.Context, conv *Conversation) error {
	m.created = append(m.created, conv)
	if m.createFn != nil {
		return m.createFn(ctx, conv)
	}
	return nil
}

func (m *mockConvRepo) ListByAccount(ctx context.Context, accountID string) ([]Conversation, error) {
	if m.listByAccountFn != nil {
		return m.listByAccountFn(ctx, accountID)
	}
	return nil, nil
}

func (m *mockConvRepo) LatestPerAccount(ctx context.Context) ([]LatestMood, error) {
	if m.latestPerAccountFn != nil {
		return m.latestPerAccountFn(ctx)
	}
	return nil, nil
}

// --- In-memory Draft Store ---

type memDraftStore struct {
	drafts map[string]*Draft
}

func newMemDraftStore() *memDraftStore {
	return &memDraftStore{drafts: map[string]*Draft{}}
}

func (s *memDraftStore) Get(ctx context.Context, accountID string) (*Draft, error) {
	draft, ok := s.drafts[accountID]
	if !ok {
		return nil, apperror.NewNotFound("no active conversation")
	}
	// Copy so service mutations don't leak back without a Save.
	cp := *draft
	cp.Messages = append([]Message(nil), draft.Messages...)
	return &cp, nil
}

func (s *memDraftStore) Save(ctx context.Context, draft *Draft) error {
	cp := *draft
	cp.Messages = append([]Message(nil), draft.Messages...)
	s.drafts[draft.AccountID] = &cp
	return nil
}

func (s *memDraftStore) Delete(ctx context.Context, accountID string) error {
	delete(s.drafts, accountID)
	return nil
}

// --- Mock Coach Gateway ---

type mockGateway struct {
	continueFn     func(ctx context.Context, history []coach.Turn) (string, error)
	concludeFn     func(ctx context.Context, history []coach.Turn) (string, error)
	summarizeFn    func(ctx context.Context, history []coach.Turn) (coach.Summary, error)
	continueCalls  int
	concludeCalls  int
	summarizeCalls int
}

func (m *mockGateway) Continue(ctx context.Context, history []coach.Turn) (string, error) {
	m.continueCalls++
	if m.continueFn != nil {
		return m.continueFn(ctx, history)
	}
	return "How does that make you feel?", nil
}

func (m *mockGateway) Conclude(ctx context.Context, history []coach.Turn) (string, error) {
	m.concludeCalls++
	if m.concludeFn != nil {
		return m.concludeFn(ctx, history)
	}
	return "Thanks for sharing today. Be kind to yourself!", nil
}

func (m *mockGateway) Summarize(ctx context.Context, history []coach.Turn) (coach.Summary, error) {
	m.summarizeCalls++
	if m.summarizeFn != nil {
		return m.summarizeFn(ctx, history)
	}
	return coach.Summary{Mood: "calm", Message: "Had a steady day."}, nil
}

func (m *mockGateway) ClassifyMood(ctx context.Context, moodText string) coach.Classification {
	return coach.DefaultClassification()
}

func (m *mockGateway) ValidateCredential(ctx context.Context, candidateKey string) bool {
	return true
}

// --- Test Helpers ---

const testMaxTurns = 3

func newTestJournal(repo *mockConvRepo, drafts DraftStore, gateway *mockGateway) JournalService {
	return NewJournalService(repo, drafts, gateway, testMaxTurns, slog.Default())
}

func assertAppError(t *testing.T, err error, expectedCode int) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected error with code %d, got nil", expectedCode)
	}
	var appErr *apperror.AppError
	if !errors.As(err, &appErr) {
		t.Fatalf("expected *apperror.AppError, got %T: %v", err, err)
	}
	if appErr.Code != expectedCode {
		t.Errorf("expected status %d, got %d (message: %s)", expectedCode, appErr.Code, appErr.Message)
	}
}

// runToLastTurn starts a conversation and sends messages up to but not
// including the final turn.
func runToLastTurn(t *testing.T, svc JournalService) {
	t.Helper()
	ctx := context.Background()
	if _, err := svc.Start(ctx, "acc-1", "Maya"); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	for i := 1; i < testMaxTurns; i++ {
		resp, err := svc.Send(ctx, "acc-1", "feeling okay")
		if err != nil {
			t.Fatalf("Send %d failed: %v", i, err)
		}
		if resp.Done {
			t.Fatalf("conversation finished early at turn %d", i)
		}
	}
}

// --- Start Tests ---

func TestStart_GreetingAddressesStudent(t *testing.T) {
	drafts := newMemDraftStore()
	gateway := &mockGateway{}
	svc := newTestJournal(&mockConvRepo{}, drafts, gateway)

	resp, err := svc.Start(context.Background(), "acc-1", "Maya")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if resp.State != StateGreeting {
		t.Errorf("expected greeting state, got %s", resp.State)
	}
	if resp.Reply == nil || !strings.Contains(resp.Reply.Text, "Maya") {
		t.Errorf("expected greeting to address Maya, got %+v", resp.Reply)
	}
	if resp.Reply.Sender != SenderAI {
		t.Errorf("expected greeting from the coach, got %s", resp.Reply.Sender)
	}

	// The greeting is canned; no provider call happens on start.
	if gateway.continueCalls != 0 || gateway.concludeCalls != 0 || gateway.summarizeCalls != 0 {
		t.Error("expected no gateway calls on start")
	}
}

func TestStart_ReplacesExistingDraft(t *testing.T) {
	drafts := newMemDraftStore()
	svc := newTestJournal(&mockConvRepo{}, drafts, &mockGateway{})
	ctx := context.Background()

	if _, err := svc.Start(ctx, "acc-1", "Maya"); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	if _, err := svc.Send(ctx, "acc-1", "hello there"); err != nil {
		t.Fatalf("Send failed: %v", err)
	}

	// Starting again discards the in-flight draft.
	if _, err := svc.Start(ctx, "acc-1", "Maya"); err != nil {
		t.Fatalf("second Start failed: %v", err)
	}
	draft := drafts.drafts["acc-1"]
	if draft.Turn != 0 {
		t.Errorf("expected fresh draft, got turn %d", draft.Turn)
	}
	if len(draft.Messages) != 1 {
		t.Errorf("expected only the greeting, got %d messages", len(draft.Messages))
	}
}

// --- Send Tests ---

func TestSend_NoActiveConversation(t *testing.T) {
	svc := newTestJournal(&mockConvRepo{}, newMemDraftStore(), &mockGateway{})
	_, err := svc.Send(context.Background(), "acc-1", "hello")
	assertAppError(t, err, 404)
}

func TestSend_AdvancesTurn(t *testing.T) {
	drafts := newMemDraftStore()
	svc := newTestJournal(&mockConvRepo{}, drafts, &mockGateway{})
	ctx := context.Background()

	if _, err := svc.Start(ctx, "acc-1", "Maya"); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	resp, err := svc.Send(ctx, "acc-1", "I had a rough morning")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if resp.State != StateExchanging {
		t.Errorf("expected exchanging state, got %s", resp.State)
	}
	if resp.Turn != 1 {
		t.Errorf("expected turn 1, got %d", resp.Turn)
	}
	if resp.Reply == nil || resp.Reply.Sender != SenderAI {
		t.Errorf("expected a coach reply, got %+v", resp.Reply)
	}

	// Greeting + user + coach reply.
	draft := drafts.drafts["acc-1"]
	if len(draft.Messages) != 3 {
		t.Errorf("expected 3 messages in draft, got %d", len(draft.Messages))
	}
}

func TestSend_EmptyText(t *testing.T) {
	drafts := newMemDraftStore()
	svc := newTestJournal(&mockConvRepo{}, drafts, &mockGateway{})
	ctx := context.Background()

	if _, err := svc.Start(ctx, "acc-1", "Maya"); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	_, err := svc.Send(ctx, "acc-1", "   ")
	assertAppError(t, err, 422)
}

func TestSend_StripsHTML(t *testing.T) {
	drafts := newMemDraftStore()
	svc := newTestJournal(&mockConvRepo{}, drafts, &mockGateway{})
	ctx := context.Background()

	if _, err := svc.Start(ctx, "acc-1", "Maya"); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	if _, err := svc.Send(ctx, "acc-1", `<script>alert("hi")</script>feeling fine`); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	draft := drafts.drafts["acc-1"]
	userMsg := draft.Messages[1]
	if strings.Contains(userMsg.Text, "<script>") {
		t.Errorf("expected HTML to be stripped, got %q", userMsg.Text)
	}
	if !strings.Contains(userMsg.Text, "feeling fine") {
		t.Errorf("expected text content to survive, got %q", userMsg.Text)
	}
}

func TestSend_GatewayFailureDoesNotAdvance(t *testing.T) {
	drafts := newMemDraftStore()
	gateway := &mockGateway{
		continueFn: func(ctx context.Context, history []coach.Turn) (string, error) {
			return "", apperror.NewProviderUnavailable(errors.New("connection refused"))
		},
	}
	svc := newTestJournal(&mockConvRepo{}, drafts, gateway)
	ctx := context.Background()

	if _, err := svc.Start(ctx, "acc-1", "Maya"); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	_, err := svc.Send(ctx, "acc-1", "hello")
	assertAppError(t, err, 502)

	// The draft must be untouched so the same turn can be retried.
	draft := drafts.drafts["acc-1"]
	if draft.Turn != 0 {
		t.Errorf("expected turn unchanged at 0, got %d", draft.Turn)
	}
	if len(draft.Messages) != 1 {
		t.Errorf("expected only the greeting in draft, got %d messages", len(draft.Messages))
	}

	// A retry after recovery succeeds.
	gateway.continueFn = nil
	resp, err := svc.Send(ctx, "acc-1", "hello")
	if err != nil {
		t.Fatalf("retry failed: %v", err)
	}
	if resp.Turn != 1 {
		t.Errorf("expected turn 1 after retry, got %d", resp.Turn)
	}
}

// --- Completion Tests ---

func TestSend_FinalTurnClosesAndSummarizes(t *testing.T) {
	repo := &mockConvRepo{}
	drafts := newMemDraftStore()
	gateway := &mockGateway{}
	svc := newTestJournal(repo, drafts, gateway)
	ctx := context.Background()

	runToLastTurn(t, svc)

	// Nothing is persisted before the final turn.
	if len(repo.created) != 0 {
		t.Fatalf("expected no conversations persisted before completion, got %d", len(repo.created))
	}

	resp, err := svc.Send(ctx, "acc-1", "ready to wrap up")
	if err != nil {
		t.Fatalf("final Send failed: %v", err)
	}

	if !resp.Done {
		t.Error("expected Done on final turn")
	}
	if resp.State != StateComplete {
		t.Errorf("expected complete state, got %s", resp.State)
	}
	if resp.Summary == nil || resp.Summary.Mood != "calm" {
		t.Errorf("expected summary with mood calm, got %+v", resp.Summary)
	}
	// The final reply is a closing remark, not another question.
	if gateway.concludeCalls != 1 {
		t.Errorf("expected 1 conclude call, got %d", gateway.concludeCalls)
	}
	if gateway.continueCalls != testMaxTurns-1 {
		t.Errorf("expected %d continue calls, got %d", testMaxTurns-1, gateway.continueCalls)
	}

	// Exactly one conversation persisted, with the full transcript.
	if len(repo.created) != 1 {
		t.Fatalf("expected 1 persisted conversation, got %d", len(repo.created))
	}
	conv := repo.created[0]
	if conv.AccountID != "acc-1" {
		t.Errorf("expected acc-1, got %s", conv.AccountID)
	}
	// Greeting + N user/coach pairs.
	wantMessages := 1 + 2*testMaxTurns
	if len(conv.Messages) != wantMessages {
		t.Errorf("expected %d messages, got %d", wantMessages, len(conv.Messages))
	}

	// The draft is gone.
	if _, ok := drafts.drafts["acc-1"]; ok {
		t.Error("expected draft to be deleted after completion")
	}
}

func TestSend_SummarizeFailureIsRetryable(t *testing.T) {
	repo := &mockConvRepo{}
	drafts := newMemDraftStore()
	gateway := &mockGateway{
		summarizeFn: func(ctx context.Context, history []coach.Turn) (coach.Summary, error) {
			return coach.Summary{}, apperror.NewSummaryParse(errors.New("bad json"))
		},
	}
	svc := newTestJournal(repo, drafts, gateway)
	ctx := context.Background()

	runToLastTurn(t, svc)

	_, err := svc.Send(ctx, "acc-1", "wrapping up")
	assertAppError(t, err, 502)

	// Nothing persisted, but the closing remark is kept so the retry does
	// not repeat it.
	if len(repo.created) != 0 {
		t.Fatalf("expected nothing persisted on summarize failure, got %d", len(repo.created))
	}
	draft := drafts.drafts["acc-1"]
	if draft.State != StateSummarizing {
		t.Fatalf("expected summarizing state, got %s", draft.State)
	}

	// Retry succeeds and does not call Conclude again.
	gateway.summarizeFn = nil
	resp, err := svc.Send(ctx, "acc-1", "retry")
	if err != nil {
		t.Fatalf("retry failed: %v", err)
	}
	if !resp.Done {
		t.Error("expected Done after successful retry")
	}
	if gateway.concludeCalls != 1 {
		t.Errorf("expected closing remark generated once, got %d conclude calls", gateway.concludeCalls)
	}
	if len(repo.created) != 1 {
		t.Errorf("expected 1 persisted conversation after retry, got %d", len(repo.created))
	}
}

func TestSend_CompleteConversationRejectsInput(t *testing.T) {
	drafts := newMemDraftStore()
	drafts.drafts["acc-1"] = &Draft{
		AccountID: "acc-1",
		State:     StateComplete,
		Turn:      testMaxTurns,
	}

	svc := newTestJournal(&mockConvRepo{}, drafts, &mockGateway{})
	_, err := svc.Send(context.Background(), "acc-1", "one more thing")
	assertAppError(t, err, 409)
}

// --- History Tests ---

func TestHistory_ReturnsRepoResults(t *testing.T) {
	repo := &mockConvRepo{
		listByAccountFn: func(ctx context.Context, accountID string) ([]Conversation, error) {
			if accountID != "acc-1" {
				t.Errorf("expected acc-1, got %s", accountID)
			}
			return []Conversation{{ID: "conv-1", AccountID: "acc-1"}}, nil
		},
	}

	svc := newTestJournal(repo, newMemDraftStore(), &mockGateway{})
	convs, err := svc.History(context.Background(), "acc-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(convs) != 1 || convs[0].ID != "conv-1" {
		t.Errorf("unexpected history: %+v", convs)
	}
}
