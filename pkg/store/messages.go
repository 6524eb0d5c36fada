package store

import (
	"encoding/json"

	"conversadb/pkg/models"
	"conversadb/pkg/utils"
)

// AppendMessage inserts a message, its ordering-index entry, and the owning
// conversation's updated last-message cache as one atomic batch. A send that
// updated the message but not the cache (or vice versa) would be a
// consistency bug, so the three writes commit together or not at all.
func AppendMessage(m models.Message, c models.Conversation) error {
	data, err := json.Marshal(m)
	if err != nil {
		return err
	}
	b, err := NewBatch()
	if err != nil {
		return err
	}
	b.set(msgPrefix+m.ID, data)
	b.set(convMsgPrefix+m.ConversationID+":"+utils.SortKey(m.CreatedAt), []byte(m.ID))
	cdata, err := json.Marshal(c)
	if err != nil {
		return err
	}
	b.set(convPrefix+c.ID, cdata)
	return b.Commit()
}

// UpdateMessage rewrites a message record in place. The ordering index is
// keyed by creation time and never moves.
func UpdateMessage(m models.Message) error {
	data, err := json.Marshal(m)
	if err != nil {
		return err
	}
	return set(msgPrefix+m.ID, data)
}

// UpdateMessageAndConversation rewrites a message together with its owning
// conversation in one batch. Used by soft delete, where the conversation's
// preview cache may need the tombstone sentinel.
func UpdateMessageAndConversation(m models.Message, c models.Conversation) error {
	data, err := json.Marshal(m)
	if err != nil {
		return err
	}
	cdata, err := json.Marshal(c)
	if err != nil {
		return err
	}
	b, err := NewBatch()
	if err != nil {
		return err
	}
	b.set(msgPrefix+m.ID, data)
	b.set(convPrefix+c.ID, cdata)
	return b.Commit()
}

// GetMessage returns the message record for the given id.
func GetMessage(id string) (models.Message, error) {
	var m models.Message
	v, err := get(msgPrefix + id)
	if err != nil {
		return m, err
	}
	if err := json.Unmarshal(v, &m); err != nil {
		return m, err
	}
	return m, nil
}

// ListMessages returns a conversation's messages in creation order. When
// limit > 0 only the most recent limit messages are returned.
func ListMessages(convID string, limit int) ([]models.Message, error) {
	prefix := convMsgPrefix + convID + ":"
	var ids []string
	err := iterPrefix(prefix, func(_ string, v []byte) bool {
		ids = append(ids, string(v))
		return true
	})
	if err != nil {
		return nil, err
	}
	if limit > 0 && limit < len(ids) {
		ids = ids[len(ids)-limit:]
	}
	out := make([]models.Message, 0, len(ids))
	for _, id := range ids {
		m, err := GetMessage(id)
		if err != nil {
			if err == ErrNotFound {
				continue
			}
			return nil, err
		}
		out = append(out, m)
	}
	return out, nil
}

// LatestMessage returns the newest message in the conversation, or
// ErrNotFound when the conversation has none.
func LatestMessage(convID string) (models.Message, error) {
	prefix := convMsgPrefix + convID + ":"
	var lastID string
	err := iterPrefix(prefix, func(_ string, v []byte) bool {
		lastID = string(v)
		return true
	})
	if err != nil {
		return models.Message{}, err
	}
	if lastID == "" {
		return models.Message{}, ErrNotFound
	}
	return GetMessage(lastID)
}
