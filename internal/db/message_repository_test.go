package db

import (
	"testing"

	"github.com/kennethwltu/smspanel/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMessageRepositoryCreateWithRecipients(t *testing.T) {
	database := setupTestDB(t)
	userID := seedTestUser(t, database, "alice")
	repo := NewMessageRepository(database)

	t.Run("single recipient", func(t *testing.T) {
		msg, err := repo.CreateWithRecipients(userID, "Hello", []string{"12345678"})
		require.NoError(t, err)
		require.NotNil(t, msg)

		assert.NotZero(t, msg.ID)
		assert.Equal(t, models.MessageStatusPending, msg.Status)
		require.Len(t, msg.Recipients, 1)
		assert.Equal(t, "12345678", msg.Recipients[0].Phone)
		assert.Equal(t, models.RecipientStatusPending, msg.Recipients[0].Status)
	})

	t.Run("multiple recipients", func(t *testing.T) {
		msg, err := repo.CreateWithRecipients(userID, "Bulk hello", []string{"11111111", "22222222", "33333333"})
		require.NoError(t, err)
		require.Len(t, msg.Recipients, 3)

		recipients, err := repo.GetRecipients(msg.ID)
		require.NoError(t, err)
		assert.Len(t, recipients, 3)
	})

	t.Run("validation errors", func(t *testing.T) {
		_, err := repo.CreateWithRecipients("", "Hello", []string{"12345678"})
		assert.Error(t, err)

		_, err = repo.CreateWithRecipients(userID, "", []string{"12345678"})
		assert.Error(t, err)

		_, err = repo.CreateWithRecipients(userID, "Hello", nil)
		assert.Error(t, err)

		_, err = repo.CreateWithRecipients(userID, "Hello", []string{""})
		assert.Error(t, err)
	})
}

func TestMessageRepositoryGetMessage(t *testing.T) {
	database := setupTestDB(t)
	userID := seedTestUser(t, database, "bob")
	repo := NewMessageRepository(database)

	created, err := repo.CreateWithRecipients(userID, "Hello", []string{"12345678"})
	require.NoError(t, err)

	t.Run("existing message", func(t *testing.T) {
		msg, err := repo.GetMessage(created.ID)
		require.NoError(t, err)
		require.NotNil(t, msg)
		assert.Equal(t, "Hello", msg.Content)
		assert.Equal(t, userID, msg.UserID)
		assert.Nil(t, msg.SentAt)
	})

	t.Run("missing message", func(t *testing.T) {
		msg, err := repo.GetMessage(9999)
		require.NoError(t, err)
		assert.Nil(t, msg)
	})
}

func TestMessageRepositoryStatusUpdates(t *testing.T) {
	database := setupTestDB(t)
	userID := seedTestUser(t, database, "carol")
	repo := NewMessageRepository(database)

	msg, err := repo.CreateWithRecipients(userID, "Hello", []string{"11111111", "22222222"})
	require.NoError(t, err)
	require.Len(t, msg.Recipients, 2)

	// First recipient delivered, second failed
	require.NoError(t, repo.MarkRecipientSent(msg.Recipients[0].ID))
	require.NoError(t, repo.MarkRecipientFailed(msg.Recipients[1].ID, "number rejected"))

	statuses, err := repo.RecipientStatuses(msg.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{models.RecipientStatusSent, models.RecipientStatusFailed}, statuses)

	// Reduce and persist the message status
	status := models.MessageStatusFrom(statuses)
	assert.Equal(t, models.MessageStatusPartial, status)
	require.NoError(t, repo.UpdateMessageStatus(msg.ID, status, nil))

	updated, err := repo.GetMessage(msg.ID)
	require.NoError(t, err)
	assert.Equal(t, models.MessageStatusPartial, updated.Status)
	assert.Nil(t, updated.SentAt)

	// sent_at is stamped only on the sent transition
	resp := "OK"
	require.NoError(t, repo.MarkRecipientSent(msg.Recipients[1].ID))
	require.NoError(t, repo.UpdateMessageStatus(msg.ID, models.MessageStatusSent, &resp))

	updated, err = repo.GetMessage(msg.ID)
	require.NoError(t, err)
	assert.Equal(t, models.MessageStatusSent, updated.Status)
	require.NotNil(t, updated.SentAt)
	require.NotNil(t, updated.GatewayResponse)
	assert.Equal(t, "OK", *updated.GatewayResponse)

	// Failed recipient keeps its error message
	failed, err := repo.GetRecipientByPhone(msg.ID, "22222222")
	require.NoError(t, err)
	require.NotNil(t, failed)
	assert.Equal(t, models.RecipientStatusSent, failed.Status)
}

func TestMessageRepositoryUpdateMissingRows(t *testing.T) {
	database := setupTestDB(t)
	repo := NewMessageRepository(database)

	assert.Error(t, repo.MarkRecipientSent(42))
	assert.Error(t, repo.MarkRecipientFailed(42, "nope"))
	assert.Error(t, repo.UpdateMessageStatus(42, models.MessageStatusFailed, nil))
}

func TestMessageRepositoryListByUser(t *testing.T) {
	database := setupTestDB(t)
	userID := seedTestUser(t, database, "dave")
	otherID := seedTestUser(t, database, "erin")
	repo := NewMessageRepository(database)

	for i := 0; i < 5; i++ {
		_, err := repo.CreateWithRecipients(userID, "msg", []string{"12345678"})
		require.NoError(t, err)
	}
	_, err := repo.CreateWithRecipients(otherID, "other", []string{"12345678"})
	require.NoError(t, err)

	t.Run("only own messages", func(t *testing.T) {
		msgs, err := repo.ListByUser(userID, 100, 0)
		require.NoError(t, err)
		assert.Len(t, msgs, 5)
	})

	t.Run("pagination", func(t *testing.T) {
		msgs, err := repo.ListByUser(userID, 2, 0)
		require.NoError(t, err)
		assert.Len(t, msgs, 2)

		rest, err := repo.ListByUser(userID, 100, 4)
		require.NoError(t, err)
		assert.Len(t, rest, 1)
	})

	t.Run("empty user ID", func(t *testing.T) {
		_, err := repo.ListByUser("", 10, 0)
		assert.Error(t, err)
	})
}

func TestMessageRepositoryCountByStatus(t *testing.T) {
	database := setupTestDB(t)
	userID := seedTestUser(t, database, "frank")
	repo := NewMessageRepository(database)

	m1, err := repo.CreateWithRecipients(userID, "one", []string{"11111111"})
	require.NoError(t, err)
	_, err = repo.CreateWithRecipients(userID, "two", []string{"22222222"})
	require.NoError(t, err)

	require.NoError(t, repo.MarkRecipientSent(m1.Recipients[0].ID))
	require.NoError(t, repo.UpdateMessageStatus(m1.ID, models.MessageStatusSent, nil))

	counts, err := repo.CountByStatus()
	require.NoError(t, err)
	assert.Equal(t, 1, counts[models.MessageStatusSent])
	assert.Equal(t, 1, counts[models.MessageStatusPending])
}
