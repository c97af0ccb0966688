package store

import (
	"context"
	"time"

	"gorm.io/gorm"

	"padaria-club-backend/internal/model"
)

// Store defines the database operations needed by the sweep and handlers.
type Store interface {
	// DB exposes the underlying gorm handle for plain CRUD in the API layer.
	DB() *gorm.DB

	PadariasWithEvents(ctx context.Context) ([]model.Padaria, error)
	MessagePool(ctx context.Context) ([]string, error)
	SubscriptionsForPadaria(ctx context.Context, padariaID int64) ([]model.PushSubscription, error)
	SubscriptionsForOwner(ctx context.Context, userID int64) ([]model.PushSubscription, error)
	DeleteSubscription(ctx context.Context, endpoint string) error
	CountReservationsForOwner(ctx context.Context, ownerID int64, from, to time.Time) (int64, error)
}

// gormStore implements the Store interface using GORM.
type gormStore struct {
	db *gorm.DB
}

// NewGormStore creates a new GORM-backed store.
func NewGormStore(db *gorm.DB) Store {
	return &gormStore{db: db}
}

func (s *gormStore) DB() *gorm.DB {
	return s.db
}

// PadariasWithEvents loads the full directory with fornada events preloaded.
// One query per sweep tick plus the preload; the directory is small.
func (s *gormStore) PadariasWithEvents(ctx context.Context) ([]model.Padaria, error) {
	var padarias []model.Padaria
	if err := s.db.WithContext(ctx).Preload("Events").Find(&padarias).Error; err != nil {
		return nil, err
	}
	return padarias, nil
}

// MessagePool returns all canned message bodies.
func (s *gormStore) MessagePool(ctx context.Context) ([]string, error) {
	var messages []model.NotificationMessage
	if err := s.db.WithContext(ctx).Find(&messages).Error; err != nil {
		return nil, err
	}
	pool := make([]string, len(messages))
	for i, m := range messages {
		pool[i] = m.Body
	}
	return pool, nil
}

// SubscriptionsForPadaria returns every subscription linked to the padaria,
// independent of owner.
func (s *gormStore) SubscriptionsForPadaria(ctx context.Context, padariaID int64) ([]model.PushSubscription, error) {
	var subscriptions []model.PushSubscription
	err := s.db.WithContext(ctx).
		Joins("JOIN subscription_padaria_mapping spm ON spm.push_subscription_endpoint = push_subscriptions.endpoint").
		Where("spm.padaria_id = ?", padariaID).
		Find(&subscriptions).Error
	if err != nil {
		return nil, err
	}
	return subscriptions, nil
}

// SubscriptionsForOwner returns the subscriptions owned by a user. Used to
// alert a padaria's owner about new reservations, not to alert followers.
func (s *gormStore) SubscriptionsForOwner(ctx context.Context, userID int64) ([]model.PushSubscription, error) {
	var subscriptions []model.PushSubscription
	err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Find(&subscriptions).Error
	if err != nil {
		return nil, err
	}
	return subscriptions, nil
}

// DeleteSubscription removes a subscription row. Deleting an already-deleted
// endpoint is a no-op, not an error.
func (s *gormStore) DeleteSubscription(ctx context.Context, endpoint string) error {
	return s.db.WithContext(ctx).Delete(&model.PushSubscription{Endpoint: endpoint}).Error
}

// CountReservationsForOwner counts reservations created in [from, to) across
// all padarias owned by the given user.
func (s *gormStore) CountReservationsForOwner(ctx context.Context, ownerID int64, from, to time.Time) (int64, error) {
	var count int64
	err := s.db.WithContext(ctx).
		Model(&model.Reservation{}).
		Joins("JOIN padarias ON padarias.id = reservations.padaria_id").
		Where("padarias.owner_id = ? AND reservations.created_at >= ? AND reservations.created_at < ?", ownerID, from, to).
		Count(&count).Error
	return count, err
}
