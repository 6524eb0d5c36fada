// Package chat is the messaging core: the operations a client needs to run
// direct and group conversations, composed from the store's records and
// kept consistent under concurrent writers by per-key serialization plus
// atomic batch commits.
package chat

import (
	"fmt"
	"strings"
	"time"

	"conversadb/pkg/logger"
	"conversadb/pkg/models"
	"conversadb/pkg/store"
	"conversadb/pkg/utils"
)

// Event is pushed to conversation participants after a mutation commits.
type Event struct {
	Type           string      `json:"type"`
	ConversationID string      `json:"conversation_id,omitempty"`
	Data           interface{} `json:"data,omitempty"`
}

// Notifier fans events out to connected clients. Delivery is best-effort;
// pollers read the same state through the query operations.
type Notifier interface {
	Notify(userIDs []string, ev Event)
}

// Service orchestrates the stores behind the client-facing contract. It
// owns cross-cutting authorization (participant membership) and composes
// the enriched read models.
type Service struct {
	locks    *keyedMutex
	notifier Notifier
	now      func() time.Time
}

// Option customizes a Service.
type Option func(*Service)

// WithNotifier attaches a push channel for mutation events.
func WithNotifier(n Notifier) Option {
	return func(s *Service) { s.notifier = n }
}

// WithClock overrides the time source; tests use it to pin staleness and
// read-boundary behavior.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// New returns a Service. The store must already be open.
func New(opts ...Option) *Service {
	s := &Service{
		locks: newKeyedMutex(),
		now:   time.Now,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

func (s *Service) nowMilli() int64 {
	return s.now().UnixMilli()
}

func (s *Service) notify(userIDs []string, ev Event) {
	if s.notifier != nil {
		s.notifier.Notify(userIDs, ev)
	}
}

// storeErr wraps unexpected store failures so callers can distinguish
// retryable infrastructure errors from domain errors.
func storeErr(op string, err error) error {
	return fmt.Errorf("%s: %w: %v", op, ErrStore, err)
}

// --- Identity store glue ---

// UpsertUser creates or refreshes a profile from an identity-provider
// event. Presence fields are preserved on update.
func (s *Service) UpsertUser(externalID, name, email, avatarURL string) (models.User, error) {
	if strings.TrimSpace(externalID) == "" {
		return models.User{}, fmt.Errorf("%w: external id required", ErrValidation)
	}
	unlock := s.locks.Lock("user:ext:" + externalID)
	defer unlock()

	u, err := store.GetUserByExternalID(externalID)
	switch err {
	case nil:
		// Presence writes serialize on the canonical id. Take the same
		// lock and re-read so neither path overwrites the other's fields.
		unlockRow := s.locks.Lock("user:" + u.ID)
		defer unlockRow()
		u, err = store.GetUser(u.ID)
		if err != nil {
			return models.User{}, storeErr("upsert user", err)
		}
		u.Name = name
		u.Email = email
		u.AvatarURL = avatarURL
	case store.ErrNotFound:
		u = models.User{
			ID:         utils.NewID(),
			ExternalID: externalID,
			Name:       name,
			Email:      email,
			AvatarURL:  avatarURL,
			IsOnline:   false,
			LastSeenAt: s.nowMilli(),
			CreatedAt:  s.nowMilli(),
		}
	default:
		return models.User{}, storeErr("upsert user", err)
	}
	if err := store.SaveUser(u); err != nil {
		return models.User{}, storeErr("upsert user", err)
	}
	logger.Info("user_upserted", "user", u.ID, "external_id", externalID)
	return u, nil
}

// SetOnlineStatus flips the presence flag and bumps last-seen. Unknown
// users are ignored, matching the fire-and-forget session hooks that call
// this on mount and tab close.
func (s *Service) SetOnlineStatus(userID string, online bool) error {
	unlock := s.locks.Lock("user:" + userID)
	defer unlock()

	u, err := store.GetUser(userID)
	if err == store.ErrNotFound {
		logger.Debug("presence_unknown_user", "user", userID)
		return nil
	}
	if err != nil {
		return storeErr("set online status", err)
	}
	u.IsOnline = online
	u.LastSeenAt = s.nowMilli()
	if err := store.SaveUser(u); err != nil {
		return storeErr("set online status", err)
	}
	return nil
}

// GetUser returns one profile.
func (s *Service) GetUser(userID string) (models.User, error) {
	u, err := store.GetUser(userID)
	if err == store.ErrNotFound {
		return models.User{}, fmt.Errorf("user %s: %w", userID, ErrNotFound)
	}
	if err != nil {
		return models.User{}, storeErr("get user", err)
	}
	return u, nil
}

// ListUsers returns every profile, for people-picker UIs.
func (s *Service) ListUsers() ([]models.User, error) {
	users, err := store.ListUsers()
	if err != nil {
		return nil, storeErr("list users", err)
	}
	return users, nil
}

// SearchUsers matches profiles by case-insensitive name substring,
// excluding the requester. An empty query returns everyone else.
func (s *Service) SearchUsers(query, requesterID string) ([]models.User, error) {
	users, err := store.ListUsers()
	if err != nil {
		return nil, storeErr("search users", err)
	}
	q := strings.ToLower(strings.TrimSpace(query))
	out := make([]models.User, 0, len(users))
	for _, u := range users {
		if u.ID == requesterID {
			continue
		}
		if q == "" || strings.Contains(strings.ToLower(u.Name), q) {
			out = append(out, u)
		}
	}
	return out, nil
}

// userOrUnknown resolves a profile for display enrichment, degrading to a
// placeholder instead of failing the whole read.
func userOrUnknown(userID string) models.User {
	u, err := store.GetUser(userID)
	if err != nil {
		return models.User{ID: userID, Name: "Unknown"}
	}
	return u
}
