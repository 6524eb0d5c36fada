package store

import (
	"testing"

	"conversadb/pkg/models"
)

func openTestDB(t *testing.T) {
	t.Helper()
	if err := Open(t.TempDir()); err != nil {
		t.Fatalf("open pebble: %v", err)
	}
	t.Cleanup(func() { _ = Close() })
}

func TestUserRoundTripAndExternalIndex(t *testing.T) {
	openTestDB(t)
	u := models.User{ID: "u1", ExternalID: "ext-1", Name: "Ada", Email: "ada@example.com"}
	if err := SaveUser(u); err != nil {
		t.Fatalf("save user: %v", err)
	}
	got, err := GetUser("u1")
	if err != nil {
		t.Fatalf("get user: %v", err)
	}
	if got.Name != "Ada" || got.ExternalID != "ext-1" {
		t.Fatalf("unexpected user: %+v", got)
	}
	byExt, err := GetUserByExternalID("ext-1")
	if err != nil {
		t.Fatalf("get by external id: %v", err)
	}
	if byExt.ID != "u1" {
		t.Fatalf("expected u1 got %s", byExt.ID)
	}
	if _, err := GetUser("missing"); err != ErrNotFound {
		t.Fatalf("expected ErrNotFound got %v", err)
	}
}

func TestListUsersDoesNotIncludeIndexRows(t *testing.T) {
	openTestDB(t)
	for _, u := range []models.User{
		{ID: "u1", ExternalID: "e1", Name: "A"},
		{ID: "u2", ExternalID: "e2", Name: "B"},
	} {
		if err := SaveUser(u); err != nil {
			t.Fatalf("save user: %v", err)
		}
	}
	users, err := ListUsers()
	if err != nil {
		t.Fatalf("list users: %v", err)
	}
	if len(users) != 2 {
		t.Fatalf("expected 2 users got %d", len(users))
	}
}

func TestDirectConversationIndex(t *testing.T) {
	openTestDB(t)
	c := models.Conversation{ID: "c1", ParticipantIDs: []string{"u2", "u1"}, CreatedAt: 10}
	if err := CreateConversation(c); err != nil {
		t.Fatalf("create conversation: %v", err)
	}
	// lookups resolve regardless of argument order
	id, err := GetDirectConversationID("u1", "u2")
	if err != nil {
		t.Fatalf("direct lookup: %v", err)
	}
	if id != "c1" {
		t.Fatalf("expected c1 got %s", id)
	}
	id, err = GetDirectConversationID("u2", "u1")
	if err != nil || id != "c1" {
		t.Fatalf("reversed lookup: id=%s err=%v", id, err)
	}
	if _, err := GetDirectConversationID("u1", "u3"); err != ErrNotFound {
		t.Fatalf("expected ErrNotFound got %v", err)
	}
}

func TestGroupConversationHasNoDirectIndex(t *testing.T) {
	openTestDB(t)
	c := models.Conversation{ID: "g1", ParticipantIDs: []string{"u1", "u2", "u3"}, IsGroup: true, CreatedAt: 10}
	if err := CreateConversation(c); err != nil {
		t.Fatalf("create conversation: %v", err)
	}
	if _, err := GetDirectConversationID("u1", "u2"); err != ErrNotFound {
		t.Fatalf("group must not claim the direct index, got %v", err)
	}
}

func TestListConversationsForUser(t *testing.T) {
	openTestDB(t)
	convs := []models.Conversation{
		{ID: "c1", ParticipantIDs: []string{"u1", "u2"}, CreatedAt: 1},
		{ID: "c2", ParticipantIDs: []string{"u1", "u3"}, CreatedAt: 2},
		{ID: "c3", ParticipantIDs: []string{"u2", "u3"}, CreatedAt: 3},
	}
	for _, c := range convs {
		if err := CreateConversation(c); err != nil {
			t.Fatalf("create conversation: %v", err)
		}
	}
	got, err := ListConversationsForUser("u1")
	if err != nil {
		t.Fatalf("list for user: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 conversations got %d", len(got))
	}
	got, err = ListConversationsForUser("u3")
	if err != nil || len(got) != 2 {
		t.Fatalf("u3 list: n=%d err=%v", len(got), err)
	}
}

func TestAppendMessageOrderingAndLimit(t *testing.T) {
	openTestDB(t)
	c := models.Conversation{ID: "c1", ParticipantIDs: []string{"u1", "u2"}, CreatedAt: 1}
	if err := CreateConversation(c); err != nil {
		t.Fatalf("create conversation: %v", err)
	}
	for i, body := range []string{"first", "second", "third"} {
		m := models.Message{ID: string(rune('a' + i)), ConversationID: "c1", SenderID: "u1", Body: body, CreatedAt: int64(100 + i)}
		c.LastMessagePreview = body
		c.LastMessageAt = m.CreatedAt
		if err := AppendMessage(m, c); err != nil {
			t.Fatalf("append message: %v", err)
		}
	}
	msgs, err := ListMessages("c1", 0)
	if err != nil {
		t.Fatalf("list messages: %v", err)
	}
	if len(msgs) != 3 {
		t.Fatalf("expected 3 messages got %d", len(msgs))
	}
	for i, want := range []string{"first", "second", "third"} {
		if msgs[i].Body != want {
			t.Fatalf("position %d: expected %q got %q", i, want, msgs[i].Body)
		}
	}
	// limit keeps the tail (most recent)
	msgs, err = ListMessages("c1", 2)
	if err != nil {
		t.Fatalf("list with limit: %v", err)
	}
	if len(msgs) != 2 || msgs[0].Body != "second" || msgs[1].Body != "third" {
		t.Fatalf("unexpected limited window: %+v", msgs)
	}
	// conversation cache committed in the same batch
	got, err := GetConversation("c1")
	if err != nil {
		t.Fatalf("get conversation: %v", err)
	}
	if got.LastMessagePreview != "third" {
		t.Fatalf("expected preview %q got %q", "third", got.LastMessagePreview)
	}

	latest, err := LatestMessage("c1")
	if err != nil {
		t.Fatalf("latest message: %v", err)
	}
	if latest.Body != "third" {
		t.Fatalf("expected latest %q got %q", "third", latest.Body)
	}
	if _, err := LatestMessage("empty"); err != ErrNotFound {
		t.Fatalf("expected ErrNotFound got %v", err)
	}
}

func TestReceiptsRoundTrip(t *testing.T) {
	openTestDB(t)
	r := models.ReadReceipt{ConversationID: "c1", UserID: "u1", LastReadAt: 42, LastReadMessageID: "m1"}
	if err := SaveReceipt(r); err != nil {
		t.Fatalf("save receipt: %v", err)
	}
	got, err := GetReceipt("c1", "u1")
	if err != nil {
		t.Fatalf("get receipt: %v", err)
	}
	if got.LastReadAt != 42 || got.LastReadMessageID != "m1" {
		t.Fatalf("unexpected receipt: %+v", got)
	}
	if _, err := GetReceipt("c1", "u2"); err != ErrNotFound {
		t.Fatalf("expected ErrNotFound got %v", err)
	}
	_ = SaveReceipt(models.ReadReceipt{ConversationID: "c1", UserID: "u2", LastReadAt: 50})
	_ = SaveReceipt(models.ReadReceipt{ConversationID: "c2", UserID: "u1", LastReadAt: 60})
	receipts, err := ListReceipts("c1")
	if err != nil {
		t.Fatalf("list receipts: %v", err)
	}
	if len(receipts) != 2 {
		t.Fatalf("expected 2 receipts got %d", len(receipts))
	}
}

func TestPurgeTypingBefore(t *testing.T) {
	openTestDB(t)
	rows := []models.TypingStatus{
		{ConversationID: "c1", UserID: "u1", IsTyping: true, UpdatedAt: 100},
		{ConversationID: "c1", UserID: "u2", IsTyping: true, UpdatedAt: 200},
		{ConversationID: "c2", UserID: "u3", IsTyping: false, UpdatedAt: 150},
	}
	for _, r := range rows {
		if err := SaveTyping(r); err != nil {
			t.Fatalf("save typing: %v", err)
		}
	}
	n, err := PurgeTypingBefore(151)
	if err != nil {
		t.Fatalf("purge: %v", err)
	}
	if n != 2 {
		t.Fatalf("expected 2 purged got %d", n)
	}
	left, err := ListTyping("c1")
	if err != nil {
		t.Fatalf("list typing: %v", err)
	}
	if len(left) != 1 || left[0].UserID != "u2" {
		t.Fatalf("unexpected survivors: %+v", left)
	}
}
