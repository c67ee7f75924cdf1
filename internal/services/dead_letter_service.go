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

// ErrEntryNotFound is returned when a dead letter id does not exist
var ErrEntryNotFound = fmt.Errorf("dead letter entry not found")

// RetryResult reports the outcome of one manual retry. Exhausted means the
// entry has no retry budget left; the entry itself stays pending until an
// operator abandons it.
type RetryResult struct {
	EntryID   int64  `json:"entry_id"`
	Success   bool   `json:"success"`
	Exhausted bool   `json:"exhausted"`
	Reason    string `json:"reason,omitempty"`
}

// DeadLetterService manages failed deliveries: listing, manual retries and
// abandonment. Retries go straight through the gateway on the caller's
// goroutine rather than back through the queue, so the operator sees the
// outcome synchronously.
type DeadLetterService struct {
	entries  db.DeadLetterRepository
	messages db.MessageRepository
	gateway  gateway.Client
	retry    queue.RetryPolicy
	limiter  *queue.RateLimiter
}

// NewDeadLetterService creates the dead letter admin service
func NewDeadLetterService(
	entries db.DeadLetterRepository,
	messages db.MessageRepository,
	gw gateway.Client,
	retry queue.RetryPolicy,
	limiter *queue.RateLimiter,
) *DeadLetterService {
	return &DeadLetterService{
		entries:  entries,
		messages: messages,
		gateway:  gw,
		retry:    retry,
		limiter:  limiter,
	}
}

// List returns entries newest first, optionally filtered by status
func (s *DeadLetterService) List(statusFilter string, limit int) ([]*models.DeadLetterEntry, error) {
	return s.entries.List(statusFilter, limit)
}

// GetPending returns retryable entries oldest first
func (s *DeadLetterService) GetPending(limit int) ([]*models.DeadLetterEntry, error) {
	return s.entries.GetPending(limit)
}

// Stats returns entry counts per status
func (s *DeadLetterService) Stats() (*models.DeadLetterStats, error) {
	return s.entries.CountByStatus()
}

// Retry re-sends one entry through the gateway. A returned error means the
// entry could not be found or the store failed; delivery failures come back
// in the result instead.
func (s *DeadLetterService) Retry(id int64) (*RetryResult, error) {
	entry, err := s.entries.GetByID(id)
	if err != nil {
		return nil, err
	}
	if entry == nil {
		return nil, ErrEntryNotFound
	}

	result := &RetryResult{EntryID: id}

	if entry.Status != models.DeadLetterStatusPending {
		result.Reason = fmt.Sprintf("entry is %s", entry.Status)
		return result, nil
	}
	if entry.RetryCount >= entry.MaxRetries {
		result.Exhausted = true
		result.Reason = "retry budget exhausted"
		return result, nil
	}

	sendErr := s.retry.Do(context.Background(), func() error {
		if s.limiter != nil && !s.limiter.Acquire(10*time.Second) {
			return gateway.WrapTransient(fmt.Errorf("rate limit wait timed out"))
		}
		_, err := s.gateway.Send(context.Background(), entry.Recipient, entry.Content)
		return err
	})

	if sendErr != nil {
		if err := s.entries.IncrementRetry(id); err != nil {
			return nil, err
		}
		result.Exhausted = entry.RetryCount+1 >= entry.MaxRetries
		result.Reason = sendErr.Error()
		logger.Warn("Dead letter retry failed",
			zap.Int64("entryId", id),
			zap.String("recipient", entry.Recipient),
			zap.Bool("exhausted", result.Exhausted),
			zap.Error(sendErr))
		return result, nil
	}

	if err := s.entries.MarkRetried(id); err != nil {
		return nil, err
	}
	s.reconcileMessage(entry)

	result.Success = true
	logger.Info("Dead letter retried successfully",
		zap.Int64("entryId", id),
		zap.Int64("messageId", entry.MessageID),
		zap.String("recipient", entry.Recipient))
	return result, nil
}

// RetryAll retries every retryable pending entry sequentially and returns
// how many were delivered. Exhausted entries are skipped, not abandoned.
func (s *DeadLetterService) RetryAll() (int, error) {
	// One sweep processes up to 1000 entries; operators re-run for more
	pending, err := s.entries.GetPending(1000)
	if err != nil {
		return 0, err
	}

	retried := 0
	for _, entry := range pending {
		if !entry.CanRetry() {
			continue
		}
		result, err := s.Retry(entry.ID)
		if err != nil {
			// One broken entry never stops the sweep
			logger.Error("Dead letter retry errored, continuing sweep",
				zap.Int64("entryId", entry.ID),
				zap.Error(err))
			continue
		}
		if result.Success {
			retried++
		}
	}

	logger.Info("Dead letter retry sweep finished",
		zap.Int("candidates", len(pending)),
		zap.Int("retried", retried))
	return retried, nil
}

// Abandon marks a pending entry abandoned, taking it out of every future
// retry sweep. Only an explicit operator action gets here.
func (s *DeadLetterService) Abandon(id int64) error {
	entry, err := s.entries.GetByID(id)
	if err != nil {
		return err
	}
	if entry == nil {
		return ErrEntryNotFound
	}
	if entry.Status != models.DeadLetterStatusPending {
		return fmt.Errorf("entry %d is %s, only pending entries can be abandoned", id, entry.Status)
	}
	if err := s.entries.MarkAbandoned(id); err != nil {
		return err
	}
	logger.Info("Dead letter abandoned", zap.Int64("entryId", id))
	return nil
}

// reconcileMessage updates the originating recipient and message after a
// successful retry, best effort
func (s *DeadLetterService) reconcileMessage(entry *models.DeadLetterEntry) {
	rec, err := s.messages.GetRecipientByPhone(entry.MessageID, entry.Recipient)
	if err != nil {
		logger.Error("Failed to load recipient for retried entry",
			zap.Int64("messageId", entry.MessageID),
			zap.String("recipient", entry.Recipient),
			zap.Error(err))
		return
	}
	if rec == nil {
		return
	}
	if err := s.messages.MarkRecipientSent(rec.ID); err != nil {
		logger.Error("Failed to mark retried recipient sent",
			zap.Int64("recipientId", rec.ID),
			zap.Error(err))
		return
	}
	statuses, err := s.messages.RecipientStatuses(entry.MessageID)
	if err != nil {
		logger.Error("Failed to load recipient statuses after retry",
			zap.Int64("messageId", entry.MessageID),
			zap.Error(err))
		return
	}
	status := models.MessageStatusFrom(statuses)
	if err := s.messages.UpdateMessageStatus(entry.MessageID, status, nil); err != nil {
		logger.Error("Failed to update message after retry",
			zap.Int64("messageId", entry.MessageID),
			zap.Error(err))
	}
}
