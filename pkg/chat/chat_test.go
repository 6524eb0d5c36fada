package chat

import (
	"testing"
	"time"

	"conversadb/pkg/models"
	"conversadb/pkg/store"
)

// fakeClock pins the service's time source so staleness windows and read
// boundaries can be tested deterministically.
type fakeClock struct {
	ms int64
}

func (c *fakeClock) now() time.Time { return time.UnixMilli(c.ms) }

func (c *fakeClock) advance(ms int64) { c.ms += ms }

func newTestService(t *testing.T, opts ...Option) *Service {
	t.Helper()
	if err := store.Open(t.TempDir()); err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return New(opts...)
}

func mustUser(t *testing.T, s *Service, externalID, name string) models.User {
	t.Helper()
	u, err := s.UpsertUser(externalID, name, name+"@example.com", "")
	if err != nil {
		t.Fatalf("upsert user %s: %v", name, err)
	}
	return u
}

func mustDirect(t *testing.T, s *Service, a, b string) string {
	t.Helper()
	id, _, err := s.FindOrCreateDirect(a, b)
	if err != nil {
		t.Fatalf("direct conversation: %v", err)
	}
	return id
}

func mustSend(t *testing.T, s *Service, convID, sender, body string) string {
	t.Helper()
	id, err := s.SendMessage(convID, sender, body, "")
	if err != nil {
		t.Fatalf("send message: %v", err)
	}
	return id
}

// recordingNotifier captures pushed events for assertions.
type recordingNotifier struct {
	events []Event
	users  [][]string
}

func (n *recordingNotifier) Notify(userIDs []string, ev Event) {
	n.users = append(n.users, userIDs)
	n.events = append(n.events, ev)
}
