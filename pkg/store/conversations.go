package store

import (
	"encoding/json"
	"sort"
	"strings"

	"conversadb/pkg/models"
)

// PairKey returns the canonical key for an unordered user pair. Both
// orderings of the same two ids map to the same key.
func PairKey(userA, userB string) string {
	pair := []string{userA, userB}
	sort.Strings(pair)
	return strings.Join(pair, "|")
}

// putConversation stages the conversation record and one membership index
// entry per participant into the batch.
func putConversation(b *Batch, c models.Conversation) error {
	data, err := json.Marshal(c)
	if err != nil {
		return err
	}
	b.set(convPrefix+c.ID, data)
	for _, uid := range c.ParticipantIDs {
		b.set(convUserPrefix+uid+":"+c.ID, nil)
	}
	return nil
}

// CreateConversation writes a new conversation and its membership index.
// Direct conversations also claim the pair uniqueness key.
func CreateConversation(c models.Conversation) error {
	b, err := NewBatch()
	if err != nil {
		return err
	}
	if err := putConversation(b, c); err != nil {
		return err
	}
	if !c.IsGroup && len(c.ParticipantIDs) == 2 {
		b.set(directPrefix+PairKey(c.ParticipantIDs[0], c.ParticipantIDs[1]), []byte(c.ID))
	}
	return b.Commit()
}

// UpdateConversation rewrites an existing conversation record. Membership
// is immutable in this design, so no index maintenance is needed.
func UpdateConversation(c models.Conversation) error {
	data, err := json.Marshal(c)
	if err != nil {
		return err
	}
	return set(convPrefix+c.ID, data)
}

// GetConversation returns the conversation record for the given id.
func GetConversation(id string) (models.Conversation, error) {
	var c models.Conversation
	v, err := get(convPrefix + id)
	if err != nil {
		return c, err
	}
	if err := json.Unmarshal(v, &c); err != nil {
		return c, err
	}
	return c, nil
}

// GetDirectConversationID returns the id of the existing 1-on-1
// conversation for the pair, or ErrNotFound.
func GetDirectConversationID(userA, userB string) (string, error) {
	v, err := get(directPrefix + PairKey(userA, userB))
	if err != nil {
		return "", err
	}
	return string(v), nil
}

// ListConversationsForUser returns every conversation the user belongs to,
// resolved through the membership index.
func ListConversationsForUser(userID string) ([]models.Conversation, error) {
	prefix := convUserPrefix + userID + ":"
	var ids []string
	err := iterPrefix(prefix, func(k string, _ []byte) bool {
		ids = append(ids, k[len(prefix):])
		return true
	})
	if err != nil {
		return nil, err
	}
	out := make([]models.Conversation, 0, len(ids))
	for _, id := range ids {
		c, err := GetConversation(id)
		if err != nil {
			if err == ErrNotFound {
				continue
			}
			return nil, err
		}
		out = append(out, c)
	}
	return out, nil
}
