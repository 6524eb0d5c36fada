package chat

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMutationsNotifyParticipants(t *testing.T) {
	n := &recordingNotifier{}
	s := newTestService(t, WithNotifier(n))
	a := mustUser(t, s, "e1", "Ada")
	b := mustUser(t, s, "e2", "Grace")

	conv := mustDirect(t, s, a.ID, b.ID)
	msg := mustSend(t, s, conv, a.ID, "hello")
	require.NoError(t, s.ToggleReaction(msg, b.ID, "👍"))
	require.NoError(t, s.MarkRead(conv, b.ID))
	require.NoError(t, s.SetTyping(conv, b.ID, true))
	require.NoError(t, s.SoftDelete(msg, a.ID))

	types := make([]string, 0, len(n.events))
	for _, ev := range n.events {
		types = append(types, ev.Type)
	}
	require.Equal(t, []string{
		"conversation.new",
		"message.new",
		"message.reaction",
		"conversation.read",
		"typing",
		"message.deleted",
	}, types)

	// every event targets both participants
	for _, users := range n.users {
		require.ElementsMatch(t, []string{a.ID, b.ID}, users)
	}
	require.Equal(t, conv, n.events[1].ConversationID)
}
