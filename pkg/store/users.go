package store

import (
	"encoding/json"

	"conversadb/pkg/models"
)

// SaveUser writes the user record and its external-id index in one batch.
func SaveUser(u models.User) error {
	data, err := json.Marshal(u)
	if err != nil {
		return err
	}
	b, err := NewBatch()
	if err != nil {
		return err
	}
	b.set(userPrefix+u.ID, data)
	if u.ExternalID != "" {
		b.set(userExtPrefix+u.ExternalID, []byte(u.ID))
	}
	return b.Commit()
}

// GetUser returns the user record for the given id.
func GetUser(id string) (models.User, error) {
	var u models.User
	v, err := get(userPrefix + id)
	if err != nil {
		return u, err
	}
	if err := json.Unmarshal(v, &u); err != nil {
		return u, err
	}
	return u, nil
}

// GetUserByExternalID resolves the identity-provider id to a user record.
func GetUserByExternalID(externalID string) (models.User, error) {
	v, err := get(userExtPrefix + externalID)
	if err != nil {
		return models.User{}, err
	}
	return GetUser(string(v))
}

// ListUsers returns every user record.
func ListUsers() ([]models.User, error) {
	var out []models.User
	err := iterPrefix(userPrefix, func(_ string, v []byte) bool {
		var u models.User
		if json.Unmarshal(v, &u) == nil {
			out = append(out, u)
		}
		return true
	})
	return out, err
}
