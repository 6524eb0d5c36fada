package store

import (
	"encoding/json"

	"conversadb/pkg/models"
)

// SaveTyping upserts the typing row for its (conversation,user) pair.
func SaveTyping(t models.TypingStatus) error {
	data, err := json.Marshal(t)
	if err != nil {
		return err
	}
	return set(typingPrefix+t.ConversationID+":"+t.UserID, data)
}

// ListTyping returns every typing row for the conversation, stale ones
// included; staleness is the reader's concern.
func ListTyping(convID string) ([]models.TypingStatus, error) {
	var out []models.TypingStatus
	err := iterPrefix(typingPrefix+convID+":", func(_ string, v []byte) bool {
		var t models.TypingStatus
		if json.Unmarshal(v, &t) == nil {
			out = append(out, t)
		}
		return true
	})
	return out, err
}

// PurgeTypingBefore deletes typing rows last updated before the cutoff
// (Unix milliseconds) across all conversations. Returns the number of rows
// removed. Used only by the retention sweep; read-path staleness filtering
// never depends on it.
func PurgeTypingBefore(cutoff int64) (int, error) {
	var stale []string
	err := iterPrefix(typingPrefix, func(k string, v []byte) bool {
		var t models.TypingStatus
		if json.Unmarshal(v, &t) == nil && t.UpdatedAt < cutoff {
			stale = append(stale, k)
		}
		return true
	})
	if err != nil {
		return 0, err
	}
	if len(stale) == 0 {
		return 0, nil
	}
	b, err := NewBatch()
	if err != nil {
		return 0, err
	}
	for _, k := range stale {
		b.delete(k)
	}
	if err := b.Commit(); err != nil {
		return 0, err
	}
	return len(stale), nil
}
