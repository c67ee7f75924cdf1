package db

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/kennethwltu/smspanel/internal/models"
)

// MessageRepository defines the interface for message and recipient data access
type MessageRepository interface {
	CreateWithRecipients(userID, content string, phones []string) (*models.Message, error)
	GetMessage(id int64) (*models.Message, error)
	GetRecipients(messageID int64) ([]*models.Recipient, error)
	GetRecipientByPhone(messageID int64, phone string) (*models.Recipient, error)
	ListByUser(userID string, limit, offset int) ([]*models.Message, error)
	MarkRecipientSent(recipientID int64) error
	MarkRecipientFailed(recipientID int64, errorMessage string) error
	UpdateMessageStatus(messageID int64, status string, gatewayResponse *string) error
	RecipientStatuses(messageID int64) ([]string, error)
	CountByStatus() (map[string]int, error)
}

// messageRepository implements MessageRepository interface
type messageRepository struct {
	db *sql.DB
}

// NewMessageRepository creates a new MessageRepository
func NewMessageRepository(db *sql.DB) MessageRepository {
	return &messageRepository{db: db}
}

// CreateWithRecipients inserts a pending message and one pending recipient row
// per phone number in a single transaction
func (r *messageRepository) CreateWithRecipients(userID, content string, phones []string) (*models.Message, error) {
	if userID == "" {
		return nil, fmt.Errorf("user ID cannot be empty")
	}
	if content == "" {
		return nil, fmt.Errorf("content cannot be empty")
	}
	if len(phones) == 0 {
		return nil, fmt.Errorf("at least one recipient is required")
	}

	tx, err := r.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	now := time.Now().UTC()
	res, err := tx.Exec(
		`INSERT INTO messages (user_id, content, status, created_at) VALUES (?, ?, ?, ?)`,
		userID, content, models.MessageStatusPending, now,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create message: %w", err)
	}

	messageID, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to read message id: %w", err)
	}

	message := &models.Message{
		ID:        messageID,
		UserID:    userID,
		Content:   content,
		Status:    models.MessageStatusPending,
		CreatedAt: now,
	}

	for _, phone := range phones {
		if phone == "" {
			return nil, fmt.Errorf("recipient phone cannot be empty")
		}
		recRes, err := tx.Exec(
			`INSERT INTO recipients (message_id, phone, status) VALUES (?, ?, ?)`,
			messageID, phone, models.RecipientStatusPending,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to create recipient: %w", err)
		}
		recipientID, err := recRes.LastInsertId()
		if err != nil {
			return nil, fmt.Errorf("failed to read recipient id: %w", err)
		}
		message.Recipients = append(message.Recipients, &models.Recipient{
			ID:        recipientID,
			MessageID: messageID,
			Phone:     phone,
			Status:    models.RecipientStatusPending,
		})
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit message: %w", err)
	}

	return message, nil
}

// GetMessage retrieves a message by ID, without its recipients
func (r *messageRepository) GetMessage(id int64) (*models.Message, error) {
	msg := &models.Message{}
	err := r.db.QueryRow(
		`SELECT id, user_id, content, status, created_at, sent_at, gateway_response
		 FROM messages WHERE id = ?`, id,
	).Scan(&msg.ID, &msg.UserID, &msg.Content, &msg.Status, &msg.CreatedAt, &msg.SentAt, &msg.GatewayResponse)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get message: %w", err)
	}
	return msg, nil
}

// GetRecipients retrieves all recipients of a message
func (r *messageRepository) GetRecipients(messageID int64) ([]*models.Recipient, error) {
	rows, err := r.db.Query(
		`SELECT id, message_id, phone, status, error_message
		 FROM recipients WHERE message_id = ? ORDER BY id`, messageID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get recipients: %w", err)
	}
	defer rows.Close()

	var recipients []*models.Recipient
	for rows.Next() {
		rec := &models.Recipient{}
		if err := rows.Scan(&rec.ID, &rec.MessageID, &rec.Phone, &rec.Status, &rec.ErrorMessage); err != nil {
			return nil, fmt.Errorf("failed to scan recipient: %w", err)
		}
		recipients = append(recipients, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return recipients, nil
}

// GetRecipientByPhone retrieves one recipient of a message by phone number
func (r *messageRepository) GetRecipientByPhone(messageID int64, phone string) (*models.Recipient, error) {
	rec := &models.Recipient{}
	err := r.db.QueryRow(
		`SELECT id, message_id, phone, status, error_message
		 FROM recipients WHERE message_id = ? AND phone = ?`, messageID, phone,
	).Scan(&rec.ID, &rec.MessageID, &rec.Phone, &rec.Status, &rec.ErrorMessage)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get recipient: %w", err)
	}
	return rec, nil
}

// ListByUser retrieves messages for a user, newest first, with pagination
func (r *messageRepository) ListByUser(userID string, limit, offset int) ([]*models.Message, error) {
	if userID == "" {
		return nil, fmt.Errorf("user ID cannot be empty")
	}
	if limit <= 0 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}

	rows, err := r.db.Query(
		`SELECT id, user_id, content, status, created_at, sent_at, gateway_response
		 FROM messages WHERE user_id = ? ORDER BY created_at DESC, id DESC LIMIT ? OFFSET ?`,
		userID, limit, offset,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list messages: %w", err)
	}
	defer rows.Close()

	var messages []*models.Message
	for rows.Next() {
		msg := &models.Message{}
		if err := rows.Scan(&msg.ID, &msg.UserID, &msg.Content, &msg.Status, &msg.CreatedAt, &msg.SentAt, &msg.GatewayResponse); err != nil {
			return nil, fmt.Errorf("failed to scan message: %w", err)
		}
		messages = append(messages, msg)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return messages, nil
}

// MarkRecipientSent sets a recipient to sent and clears any previous error
func (r *messageRepository) MarkRecipientSent(recipientID int64) error {
	res, err := r.db.Exec(
		`UPDATE recipients SET status = ?, error_message = NULL WHERE id = ?`,
		models.RecipientStatusSent, recipientID,
	)
	if err != nil {
		return fmt.Errorf("failed to mark recipient sent: %w", err)
	}
	return requireRowAffected(res, "recipient", recipientID)
}

// MarkRecipientFailed sets a recipient to failed with the error that caused it
func (r *messageRepository) MarkRecipientFailed(recipientID int64, errorMessage string) error {
	res, err := r.db.Exec(
		`UPDATE recipients SET status = ?, error_message = ? WHERE id = ?`,
		models.RecipientStatusFailed, errorMessage, recipientID,
	)
	if err != nil {
		return fmt.Errorf("failed to mark recipient failed: %w", err)
	}
	return requireRowAffected(res, "recipient", recipientID)
}

// UpdateMessageStatus sets the message status; sent_at is stamped when the
// message transitions to sent
func (r *messageRepository) UpdateMessageStatus(messageID int64, status string, gatewayResponse *string) error {
	var res sql.Result
	var err error

	if status == models.MessageStatusSent {
		res, err = r.db.Exec(
			`UPDATE messages SET status = ?, sent_at = ?, gateway_response = COALESCE(?, gateway_response) WHERE id = ?`,
			status, time.Now().UTC(), gatewayResponse, messageID,
		)
	} else {
		res, err = r.db.Exec(
			`UPDATE messages SET status = ?, gateway_response = COALESCE(?, gateway_response) WHERE id = ?`,
			status, gatewayResponse, messageID,
		)
	}
	if err != nil {
		return fmt.Errorf("failed to update message status: %w", err)
	}
	return requireRowAffected(res, "message", messageID)
}

// RecipientStatuses returns the status column of every recipient of a message
func (r *messageRepository) RecipientStatuses(messageID int64) ([]string, error) {
	rows, err := r.db.Query(`SELECT status FROM recipients WHERE message_id = ? ORDER BY id`, messageID)
	if err != nil {
		return nil, fmt.Errorf("failed to get recipient statuses: %w", err)
	}
	defer rows.Close()

	var statuses []string
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, err
		}
		statuses = append(statuses, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return statuses, nil
}

// CountByStatus returns message counts grouped by status
func (r *messageRepository) CountByStatus() (map[string]int, error) {
	rows, err := r.db.Query(`SELECT status, COUNT(*) FROM messages GROUP BY status`)
	if err != nil {
		return nil, fmt.Errorf("failed to count messages: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var status string
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, err
		}
		counts[status] = count
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return counts, nil
}

func requireRowAffected(res sql.Result, kind string, id int64) error {
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return fmt.Errorf("%s %d not found", kind, id)
	}
	return nil
}
