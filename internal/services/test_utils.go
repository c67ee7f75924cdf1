package services

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/kennethwltu/smspanel/internal/db"
	"github.com/kennethwltu/smspanel/internal/gateway"
	"github.com/kennethwltu/smspanel/internal/models"
	"github.com/kennethwltu/smspanel/internal/queue"

	"github.com/stretchr/testify/require"
)

// newTestDB opens an in-memory database limited to one connection so
// concurrent workers in tests never see a separate empty database
func newTestDB(t *testing.T) *db.Database {
	t.Helper()

	database, err := db.NewDatabase(":memory:")
	require.NoError(t, err)
	database.GetDB().SetMaxOpenConns(1)

	t.Cleanup(func() {
		_ = database.Close()
	})
	return database
}

// seedUser creates a user row and returns its id
func seedUser(t *testing.T, database *db.Database, username string) string {
	t.Helper()

	user := models.NewUser(username, "not-a-real-hash")
	require.NoError(t, db.NewUserRepository(database.GetDB()).Create(user))
	return user.ID
}

// fakeGateway is a scripted gateway client. Outcomes maps a recipient to the
// error each Send should return; a missing key means success. Calls are
// counted per recipient.
type fakeGateway struct {
	mu       sync.Mutex
	outcomes map[string]error
	calls    map[string]int
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{
		outcomes: make(map[string]error),
		calls:    make(map[string]int),
	}
}

func (g *fakeGateway) failWith(recipient string, err error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.outcomes[recipient] = err
}

func (g *fakeGateway) succeed(recipient string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.outcomes, recipient)
}

func (g *fakeGateway) callCount(recipient string) int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.calls[recipient]
}

func (g *fakeGateway) totalCalls() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	total := 0
	for _, n := range g.calls {
		total += n
	}
	return total
}

func (g *fakeGateway) Send(ctx context.Context, recipient, content string) (*gateway.Response, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.calls[recipient]++
	if err, ok := g.outcomes[recipient]; ok && err != nil {
		return nil, err
	}
	return &gateway.Response{
		StatusCode: 200,
		Body:       fmt.Sprintf("OK %s", recipient),
	}, nil
}

// fastRetry is a three-attempt policy that never actually sleeps
func fastRetry() queue.RetryPolicy {
	return queue.NewRetryPolicy(3, 2*time.Second, 10*time.Second).
		WithSleep(func(ctx context.Context, d time.Duration) error { return nil })
}
