package repository

import (
	"context"
	"fmt"
	"time"

	appterrors "clinicflow/internal/appointments/errors"
	"clinicflow/pkg/config"
	"clinicflow/pkg/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

const SlotLockCollectionName = "Slot_locks"

// SlotLocker serializes the check-then-commit window of bookings and moves
// targeting the same (provider, date, time). Acquire returns ErrLockHeld
// while another owner holds key.
type SlotLocker interface {
	Acquire(ctx context.Context, key, owner string, ttl time.Duration) error
	Release(ctx context.Context, key, owner string) error
}

func SlotKey(providerID, date, clock string) string {
	if providerID == "" {
		providerID = "unassigned"
	}
	return fmt.Sprintf("slot_lock_%s_%s_%s", providerID, date, clock)
}

type mongoSlotLocker struct {
	collection *mongo.Collection
}

func NewMongoSlotLocker(cfg *config.Config) SlotLocker {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoSlotLocker{
		collection: db.Collection(SlotLockCollectionName),
	}
}

// Acquire clears an expired lock for key before inserting its own; the TTL
// index only sweeps about once a minute.
func (l *mongoSlotLocker) Acquire(ctx context.Context, key, owner string, ttl time.Duration) error {
	now := time.Now().UTC()

	if _, err := l.collection.DeleteOne(ctx, bson.M{"_id": key, "expires_at": bson.M{"$lte": now}}); err != nil {
		return fmt.Errorf("failed to clear expired slot lock: %w", err)
	}

	lock := &model.SlotLock{
		ID:        key,
		Owner:     owner,
		ExpiresAt: now.Add(ttl),
		CreatedAt: now,
	}
	if _, err := l.collection.InsertOne(ctx, lock); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return appterrors.ErrLockHeld
		}
		return fmt.Errorf("failed to acquire slot lock: %w", err)
	}
	return nil
}

func (l *mongoSlotLocker) Release(ctx context.Context, key, owner string) error {
	_, err := l.collection.DeleteOne(ctx, bson.M{"_id": key, "owner": owner})
	if err != nil {
		return fmt.Errorf("failed to release slot lock: %w", err)
	}
	return nil
}
