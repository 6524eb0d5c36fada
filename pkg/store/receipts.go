package store

import (
	"encoding/json"

	"conversadb/pkg/models"
)

// SaveReceipt upserts the read receipt for its (conversation,user) pair.
func SaveReceipt(r models.ReadReceipt) error {
	data, err := json.Marshal(r)
	if err != nil {
		return err
	}
	return set(receiptPrefix+r.ConversationID+":"+r.UserID, data)
}

// GetReceipt returns the receipt for the pair, or ErrNotFound when the user
// has never marked the conversation read.
func GetReceipt(convID, userID string) (models.ReadReceipt, error) {
	var r models.ReadReceipt
	v, err := get(receiptPrefix + convID + ":" + userID)
	if err != nil {
		return r, err
	}
	if err := json.Unmarshal(v, &r); err != nil {
		return r, err
	}
	return r, nil
}

// ListReceipts returns every receipt recorded for the conversation.
func ListReceipts(convID string) ([]models.ReadReceipt, error) {
	var out []models.ReadReceipt
	err := iterPrefix(receiptPrefix+convID+":", func(_ string, v []byte) bool {
		var r models.ReadReceipt
		if json.Unmarshal(v, &r) == nil {
			out = append(out, r)
		}
		return true
	})
	return out, err
}
