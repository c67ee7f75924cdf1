package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMessageStatusFrom(t *testing.T) {
	tests := []struct {
		name     string
		statuses []string
		want     string
	}{
		{
			name:     "all sent",
			statuses: []string{RecipientStatusSent, RecipientStatusSent, RecipientStatusSent},
			want:     MessageStatusSent,
		},
		{
			name:     "all failed",
			statuses: []string{RecipientStatusFailed, RecipientStatusFailed},
			want:     MessageStatusFailed,
		},
		{
			name:     "mixed sent and failed",
			statuses: []string{RecipientStatusSent, RecipientStatusFailed, RecipientStatusSent},
			want:     MessageStatusPartial,
		},
		{
			name:     "single sent",
			statuses: []string{RecipientStatusSent},
			want:     MessageStatusSent,
		},
		{
			name:     "single failed",
			statuses: []string{RecipientStatusFailed},
			want:     MessageStatusFailed,
		},
		{
			name:     "sent with one still pending",
			statuses: []string{RecipientStatusSent, RecipientStatusPending},
			want:     MessageStatusPartial,
		},
		{
			name:     "no recipients",
			statuses: nil,
			want:     MessageStatusPending,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, MessageStatusFrom(tt.statuses))
		})
	}
}

func TestDeadLetterCanRetry(t *testing.T) {
	tests := []struct {
		name  string
		entry DeadLetterEntry
		want  bool
	}{
		{
			name:  "pending with retries left",
			entry: DeadLetterEntry{Status: DeadLetterStatusPending, RetryCount: 1, MaxRetries: 3},
			want:  true,
		},
		{
			name:  "pending but exhausted",
			entry: DeadLetterEntry{Status: DeadLetterStatusPending, RetryCount: 3, MaxRetries: 3},
			want:  false,
		},
		{
			name:  "already retried",
			entry: DeadLetterEntry{Status: DeadLetterStatusRetried, RetryCount: 0, MaxRetries: 3},
			want:  false,
		},
		{
			name:  "abandoned",
			entry: DeadLetterEntry{Status: DeadLetterStatusAbandoned, RetryCount: 0, MaxRetries: 3},
			want:  false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.entry.CanRetry())
		})
	}
}
