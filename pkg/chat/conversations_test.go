package chat

import (
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDirectConversationDeduplicated(t *testing.T) {
	s := newTestService(t)
	a := mustUser(t, s, "e1", "Ada")
	b := mustUser(t, s, "e2", "Grace")

	id, created, err := s.FindOrCreateDirect(a.ID, b.ID)
	require.NoError(t, err)
	require.True(t, created)

	// second call, and the reversed pair, both land on the same conversation
	id2, created2, err := s.FindOrCreateDirect(a.ID, b.ID)
	require.NoError(t, err)
	require.False(t, created2)
	require.Equal(t, id, id2)

	id3, created3, err := s.FindOrCreateDirect(b.ID, a.ID)
	require.NoError(t, err)
	require.False(t, created3)
	require.Equal(t, id, id3)
}

func TestDirectConversationConcurrentPair(t *testing.T) {
	s := newTestService(t)
	a := mustUser(t, s, "e1", "Ada")
	b := mustUser(t, s, "e2", "Grace")

	const n = 16
	ids := make([]string, n)
	createds := make([]bool, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			ids[i], createds[i], _ = s.FindOrCreateDirect(a.ID, b.ID)
		}(i)
	}
	wg.Wait()

	creations := 0
	for i := 0; i < n; i++ {
		require.Equal(t, ids[0], ids[i])
		if createds[i] {
			creations++
		}
	}
	require.Equal(t, 1, creations, "exactly one caller creates the conversation")
}

func TestDirectConversationValidation(t *testing.T) {
	s := newTestService(t)
	_, _, err := s.FindOrCreateDirect("", "u2")
	require.True(t, errors.Is(err, ErrValidation))
	_, _, err = s.FindOrCreateDirect("u1", "u1")
	require.True(t, errors.Is(err, ErrValidation))
}

func TestCreateGroupValidation(t *testing.T) {
	s := newTestService(t)
	a := mustUser(t, s, "e1", "Ada")
	b := mustUser(t, s, "e2", "Grace")
	c := mustUser(t, s, "e3", "Adam")

	_, err := s.CreateGroup(a.ID, []string{b.ID, c.ID}, "  ", "")
	require.True(t, errors.Is(err, ErrValidation), "blank name rejected")

	_, err = s.CreateGroup(a.ID, []string{b.ID}, "Team", "")
	require.True(t, errors.Is(err, ErrValidation), "creator plus one is not a group")

	// duplicates collapse; creator in members does not count twice
	_, err = s.CreateGroup(a.ID, []string{a.ID, b.ID, b.ID}, "Team", "")
	require.True(t, errors.Is(err, ErrValidation))

	id, err := s.CreateGroup(a.ID, []string{b.ID, c.ID}, "Team", "http://img")
	require.NoError(t, err)
	got, err := s.GetConversation(id)
	require.NoError(t, err)
	require.True(t, got.IsGroup)
	require.Equal(t, "Team", got.GroupName)
	require.Len(t, got.ParticipantIDs, 3)
	require.Equal(t, a.ID, got.CreatedBy)
}

func TestListConversationsNewestActivityFirst(t *testing.T) {
	clock := &fakeClock{ms: 1_000}
	s := newTestService(t, WithClock(clock.now))
	a := mustUser(t, s, "e1", "Ada")
	b := mustUser(t, s, "e2", "Grace")
	c := mustUser(t, s, "e3", "Adam")

	first := mustDirect(t, s, a.ID, b.ID)
	clock.advance(10)
	second := mustDirect(t, s, a.ID, c.ID)

	// no messages yet: creation time breaks the tie, newest first
	list, err := s.ListConversations(a.ID)
	require.NoError(t, err)
	require.Len(t, list, 2)
	require.Equal(t, second, list[0].ID)

	// activity in the older conversation moves it to the top
	clock.advance(10)
	mustSend(t, s, first, b.ID, "hello")
	list, err = s.ListConversations(a.ID)
	require.NoError(t, err)
	require.Equal(t, first, list[0].ID)
	require.Equal(t, 1, list[0].UnreadCount)
	require.Equal(t, "hello", list[0].LastMessagePreview)

	// direct conversations expose the counterpart's profile
	require.NotNil(t, list[0].OtherUser)
	require.Equal(t, b.ID, list[0].OtherUser.ID)
}

func TestGetConversationNotFound(t *testing.T) {
	s := newTestService(t)
	_, err := s.GetConversation("missing")
	require.True(t, errors.Is(err, ErrNotFound))
}

func TestSetPinned(t *testing.T) {
	s := newTestService(t)
	a := mustUser(t, s, "e1", "Ada")
	b := mustUser(t, s, "e2", "Grace")
	outsider := mustUser(t, s, "e3", "Adam")
	conv := mustDirect(t, s, a.ID, b.ID)
	msg := mustSend(t, s, conv, a.ID, "pin me")

	require.NoError(t, s.SetPinned(conv, msg, b.ID), "any participant may pin")
	got, err := s.GetConversation(conv)
	require.NoError(t, err)
	require.Equal(t, msg, got.PinnedMessageID)

	err = s.SetPinned(conv, msg, outsider.ID)
	require.True(t, errors.Is(err, ErrUnauthorized))

	// empty message id clears the pin
	require.NoError(t, s.SetPinned(conv, "", a.ID))
	got, err = s.GetConversation(conv)
	require.NoError(t, err)
	require.Empty(t, got.PinnedMessageID)

	err = s.SetPinned("missing", msg, a.ID)
	require.True(t, errors.Is(err, ErrNotFound))
}

func TestSetPinnedAcceptsMessageFromAnotherConversation(t *testing.T) {
	s := newTestService(t)
	a := mustUser(t, s, "e1", "Ada")
	b := mustUser(t, s, "e2", "Grace")
	c := mustUser(t, s, "e3", "Adam")
	conv := mustDirect(t, s, a.ID, b.ID)
	other := mustDirect(t, s, a.ID, c.ID)
	foreign := mustSend(t, s, other, a.ID, "elsewhere")

	// the mismatch is logged, not rejected
	require.NoError(t, s.SetPinned(conv, foreign, a.ID))
	got, err := s.GetConversation(conv)
	require.NoError(t, err)
	require.Equal(t, foreign, got.PinnedMessageID)
}
