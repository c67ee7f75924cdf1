package services

import (
	"context"
	"fmt"
	"time"

	"github.com/kennethwltu/smspanel/internal/db"
	"github.com/kennethwltu/smspanel/internal/gateway"
	"github.com/kennethwltu/smspanel/internal/models"
	"github.com/kennethwltu/smspanel/internal/queue"
	"github.com/kennethwltu/smspanel/pkg/logger"

	"go.uber.org/zap"
)

// SMSService accepts send requests, persists them as pending messages and
// hands delivery to the task queue. Its job handlers run on the queue's
// workers and drive the rate-limited, retried gateway sends.
type SMSService struct {
	messages    db.MessageRepository
	deadLetters db.DeadLetterRepository
	gateway     gateway.Client
	queue       *queue.TaskQueue
	retry       queue.RetryPolicy
	limiter     *queue.RateLimiter

	// maxRetries seeds the retry budget of new dead letter entries
	maxRetries int
}

// NewSMSService creates the send pipeline service
func NewSMSService(
	messages db.MessageRepository,
	deadLetters db.DeadLetterRepository,
	gw gateway.Client,
	q *queue.TaskQueue,
	retry queue.RetryPolicy,
	limiter *queue.RateLimiter,
	maxRetries int,
) *SMSService {
	if maxRetries <= 0 {
		maxRetries = 3
	}
	return &SMSService{
		messages:    messages,
		deadLetters: deadLetters,
		gateway:     gw,
		queue:       q,
		retry:       retry,
		limiter:     limiter,
		maxRetries:  maxRetries,
	}
}

// RegisterHandlers wires the service's job handlers onto the queue.
// Must be called before the queue starts accepting work.
func (s *SMSService) RegisterHandlers() {
	s.queue.Register(queue.KindSingle, s.HandleSingleJob)
	s.queue.Register(queue.KindBulk, s.HandleBulkJob)
}

// SendSingle persists a pending message for one recipient and enqueues its
// delivery. Returns queue.ErrQueueFull without persisting anything extra
// when the queue is at capacity.
func (s *SMSService) SendSingle(userID, phone, content string) (*models.Message, int64, error) {
	return s.send(userID, []string{phone}, content, queue.KindSingle)
}

// SendBulk persists one pending message fanning out to many recipients and
// enqueues a single bulk job for it
func (s *SMSService) SendBulk(userID string, phones []string, content string) (*models.Message, int64, error) {
	return s.send(userID, phones, content, queue.KindBulk)
}

func (s *SMSService) send(userID string, phones []string, content string, kind queue.Kind) (*models.Message, int64, error) {
	msg, err := s.messages.CreateWithRecipients(userID, content, phones)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to create message: %w", err)
	}

	jobID, err := s.queue.Enqueue(kind, msg.ID, phones, content)
	if err != nil {
		// The message stays pending; an operator can re-enqueue it later
		logger.Warn("Failed to enqueue message",
			zap.Int64("messageId", msg.ID),
			zap.Error(err))
		return nil, 0, err
	}

	logger.Info("Message accepted",
		zap.Int64("messageId", msg.ID),
		zap.Int64("jobId", jobID),
		zap.String("kind", string(kind)),
		zap.Int("recipients", len(phones)))
	return msg, jobID, nil
}

// HandleSingleJob delivers a single-recipient job
func (s *SMSService) HandleSingleJob(job queue.Job) error {
	return s.deliver(job)
}

// HandleBulkJob delivers a fan-out job, one gateway call per recipient.
// A failed recipient never aborts the rest of the batch.
func (s *SMSService) HandleBulkJob(job queue.Job) error {
	return s.deliver(job)
}

// deliver sends to every recipient of the job's message, records per-recipient
// outcomes and reduces them into the final message status
func (s *SMSService) deliver(job queue.Job) error {
	recipients, err := s.messages.GetRecipients(job.MessageID)
	if err != nil {
		return fmt.Errorf("failed to load recipients for message %d: %w", job.MessageID, err)
	}
	if len(recipients) == 0 {
		return fmt.Errorf("message %d has no recipients", job.MessageID)
	}

	ctx := context.Background()
	var lastResponse *string
	failures := 0

	for _, rec := range recipients {
		if rec.Status != models.RecipientStatusPending {
			continue
		}

		body, sendErr := s.sendOne(ctx, rec.Phone, job.Content)
		if sendErr != nil {
			failures++
			s.recordFailure(job.MessageID, rec, job.Content, sendErr)
			continue
		}
		lastResponse = body
		if markErr := s.messages.MarkRecipientSent(rec.ID); markErr != nil {
			logger.Error("Failed to mark recipient sent",
				zap.Int64("recipientId", rec.ID),
				zap.Error(markErr))
		}
	}

	if err := s.finalizeStatus(job.MessageID, lastResponse); err != nil {
		return err
	}
	if failures > 0 {
		return fmt.Errorf("message %d: %d of %d recipients failed", job.MessageID, failures, len(recipients))
	}
	return nil
}

// sendOne performs the rate-limited, retried gateway call for one recipient.
// The token is taken inside the retried function so every attempt waits for
// its own throughput slot.
func (s *SMSService) sendOne(ctx context.Context, phone, content string) (*string, error) {
	var resp *gateway.Response
	err := s.retry.Do(ctx, func() error {
		if s.limiter != nil && !s.limiter.Acquire(10*time.Second) {
			return gateway.WrapTransient(fmt.Errorf("rate limit wait timed out"))
		}
		var sendErr error
		resp, sendErr = s.gateway.Send(ctx, phone, content)
		return sendErr
	})
	if err != nil {
		return nil, err
	}
	return &resp.Body, nil
}

// recordFailure marks the recipient failed and files exactly one dead letter
// entry for it
func (s *SMSService) recordFailure(messageID int64, rec *models.Recipient, content string, sendErr error) {
	logger.Warn("Recipient delivery failed",
		zap.Int64("messageId", messageID),
		zap.String("phone", rec.Phone),
		zap.String("errorType", gateway.ErrorType(sendErr)),
		zap.Error(sendErr))

	if err := s.messages.MarkRecipientFailed(rec.ID, sendErr.Error()); err != nil {
		logger.Error("Failed to mark recipient failed",
			zap.Int64("recipientId", rec.ID),
			zap.Error(err))
	}

	entry := &models.DeadLetterEntry{
		MessageID:    messageID,
		Recipient:    rec.Phone,
		Content:      content,
		ErrorMessage: sendErr.Error(),
		ErrorType:    gateway.ErrorType(sendErr),
		MaxRetries:   s.maxRetries,
	}
	if err := s.deadLetters.Create(entry); err != nil {
		logger.Error("Failed to create dead letter entry",
			zap.Int64("messageId", messageID),
			zap.String("phone", rec.Phone),
			zap.Error(err))
	}
}

// finalizeStatus reduces the recipient statuses into the message status
func (s *SMSService) finalizeStatus(messageID int64, gatewayResponse *string) error {
	statuses, err := s.messages.RecipientStatuses(messageID)
	if err != nil {
		return fmt.Errorf("failed to load recipient statuses for message %d: %w", messageID, err)
	}
	status := models.MessageStatusFrom(statuses)
	if err := s.messages.UpdateMessageStatus(messageID, status, gatewayResponse); err != nil {
		return fmt.Errorf("failed to update message %d status: %w", messageID, err)
	}
	logger.Info("Message finalized",
		zap.Int64("messageId", messageID),
		zap.String("status", status))
	return nil
}

// GetMessage returns a message with its recipients, scoped to the owner.
// Admins may read any message.
func (s *SMSService) GetMessage(id int64, userID string, isAdmin bool) (*models.Message, error) {
	msg, err := s.messages.GetMessage(id)
	if err != nil {
		return nil, err
	}
	if msg == nil {
		return nil, nil
	}
	if !isAdmin && msg.UserID != userID {
		return nil, nil
	}
	recipients, err := s.messages.GetRecipients(id)
	if err != nil {
		return nil, err
	}
	msg.Recipients = recipients
	return msg, nil
}

// ListMessages returns the user's messages, newest first
func (s *SMSService) ListMessages(userID string, limit, offset int) ([]*models.Message, error) {
	return s.messages.ListByUser(userID, limit, offset)
}

// MessageStats returns message counts per status
func (s *SMSService) MessageStats() (map[string]int, error) {
	return s.messages.CountByStatus()
}
