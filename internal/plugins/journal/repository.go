package journal

import (
	"context"
	"database/sql"
	"fmt"
)

// ConversationRepository persists completed conversations. Drafts never
// touch this layer.
type ConversationRepository interface {
	// Create stores a completed conversation and its messages atomically.
	Create(ctx context.Context, conv *Conversation) error

	// ListByAccount returns an account's completed conversations, newest
	// first.
	ListByAccount(ctx context.Context, accountID string) ([]Conversation, error)

	// LatestPerAccount returns, for every account with at least one
	// completed conversation, the most recent one. Ties on created_at are
	// broken by insertion order.
	LatestPerAccount(ctx context.Context) ([]LatestMood, error)
}

type mariadbConversationRepository struct {
	db *sql.DB
}

// NewConversationRepository creates a MariaDB-backed conversation repository.
func NewConversationRepository(db *sql.DB) ConversationRepository {
	return &mariadbConversationRepository{db: db}
}

func (r *mariadbConversationRepository) Create(ctx context.Context, conv *Conversation) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO conversations (id, account_id, mood, summary, created_at)
		VALUES (?, ?, ?, ?, ?)
	`, conv.ID, conv.AccountID, conv.Summary.Mood, conv.Summary.Message, conv.CreatedAt)
	if err != nil {
		return fmt.Errorf("inserting conversation: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO messages (conversation_id, position, sender, body)
		VALUES (?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("preparing message insert: %w", err)
	}
	defer stmt.Close()

	for i, msg := range conv.Messages {
		if _, err := stmt.ExecContext(ctx, conv.ID, i, msg.Sender, msg.Text); err != nil {
			return fmt.Errorf("inserting message %d: %w", i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing conversation: %w", err)
	}
	return nil
}

func (r *mariadbConversationRepository) ListByAccount(ctx context.Context, accountID string) ([]Conversation, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, account_id, mood, summary, created_at
		FROM conversations
		WHERE account_id = ?
		ORDER BY created_at DESC, seq DESC
	`, accountID)
	if err != nil {
		return nil, fmt.Errorf("querying conversations: %w", err)
	}
	defer rows.Close()

	var convs []Conversation
	for rows.Next() {
		var c Conversation
		if err := rows.Scan(&c.ID, &c.AccountID, &c.Summary.Mood, &c.Summary.Message, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning conversation: %w", err)
		}
		convs = append(convs, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating conversations: %w", err)
	}

	for i := range convs {
		msgs, err := r.messagesFor(ctx, convs[i].ID)
		if err != nil {
			return nil, err
		}
		convs[i].Messages = msgs
	}
	return convs, nil
}

func (r *mariadbConversationRepository) messagesFor(ctx context.Context, conversationID string) ([]Message, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT sender, body
		FROM messages
		WHERE conversation_id = ?
		ORDER BY position ASC
	`, conversationID)
	if err != nil {
		return nil, fmt.Errorf("querying messages: %w", err)
	}
	defer rows.Close()

	var msgs []Message
	for rows.Next() {
		var m Message
		if err := rows.Scan(&m.Sender, &m.Text); err != nil {
			return nil, fmt.Errorf("scanning message: %w", err)
		}
		msgs = append(msgs, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating messages: %w", err)
	}
	return msgs, nil
}

func (r *mariadbConversationRepository) LatestPerAccount(ctx context.Context) ([]LatestMood, error) {
	// Latest is max created_at per account; equal timestamps fall back to
	// the higher seq, which reflects insertion order.
	rows, err := r.db.QueryContext(ctx, `
		SELECT c.account_id, a.name, c.mood, c.created_at
		FROM conversations c
		JOIN accounts a ON a.id = c.account_id
		WHERE c.seq = (
			SELECT c2.seq FROM conversations c2
			WHERE c2.account_id = c.account_id
			ORDER BY c2.created_at DESC, c2.seq DESC
			LIMIT 1
		)
		ORDER BY a.name ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("querying latest conversations: %w", err)
	}
	defer rows.Close()

	var latest []LatestMood
	for rows.Next() {
		var l LatestMood
		if err := rows.Scan(&l.AccountID, &l.StudentName, &l.Mood, &l.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning latest conversation: %w", err)
		}
		latest = append(latest, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating latest conversations: %w", err)
	}
	return latest, nil
}
