package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	appterrors "clinicflow/internal/appointments/errors"
	"clinicflow/pkg/config"
	mongotx "clinicflow/pkg/db/mongo"
	"clinicflow/pkg/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	CollectionName = "Appointments"
)

type AppointmentRepository interface {
	Create(ctx context.Context, appointment *model.Appointment) error
	FindByID(ctx context.Context, id string) (*model.Appointment, error)
	List(ctx context.Context, filter model.AppointmentFilter) ([]*model.Appointment, error)
	UpdateFields(ctx context.Context, id string, updates *model.AppointmentUpdate) error
	UpdateSchedule(ctx context.Context, id string, date, clock, providerID string) error
	UpdateStatus(ctx context.Context, id string, transition model.StatusTransition) error
	Delete(ctx context.Context, id string) error
	ExecuteTransaction(ctx context.Context, fn mongotx.TransactionFunc) error
}

type mongoAppointmentRepository struct {
	cfg        *config.Config
	collection *mongo.Collection
	txManager  mongotx.TransactionManager
}

func NewMongoAppointmentRepository(cfg *config.Config) AppointmentRepository {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoAppointmentRepository{
		cfg:        cfg,
		collection: db.Collection(CollectionName),
		txManager:  mongotx.NewTransactionManager(cfg.Client.Mongo),
	}
}

// withTimeout leaves a SessionContext untouched so the transaction stays
// intact; any other context gets the tighter of its deadline and timeout.
func (r *mongoAppointmentRepository) withTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if _, ok := ctx.(mongo.SessionContext); ok {
		return ctx, func() {}
	}

	deadline, hasDeadline := ctx.Deadline()
	if hasDeadline && time.Until(deadline) < timeout {
		return context.WithDeadline(ctx, deadline)
	}
	return context.WithTimeout(ctx, timeout)
}

func (r *mongoAppointmentRepository) Create(ctx context.Context, appointment *model.Appointment) error {
	ctx, cancel := r.withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	now := time.Now().UTC().Truncate(time.Millisecond)
	appointment.CreatedAt = now
	appointment.UpdatedAt = now

	result, err := r.collection.InsertOne(ctx, appointment)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return fmt.Errorf("%w: %v", appterrors.ErrSlotTaken, err)
		}
		return fmt.Errorf("failed to create appointment: %w", err)
	}

	if oid, ok := result.InsertedID.(primitive.ObjectID); ok {
		appointment.ID = oid.Hex()
	}
	return nil
}

func (r *mongoAppointmentRepository) FindByID(ctx context.Context, id string) (*model.Appointment, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", appterrors.ErrInvalidID, id)
	}

	var appointment model.Appointment
	err = r.collection.FindOne(ctx, bson.M{"_id": objectID}).Decode(&appointment)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, appterrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find appointment: %w", err)
	}

	return &appointment, nil
}

// List returns appointments matching the structured fields of filter,
// ordered by date and time. The free-text term is left to the caller.
func (r *mongoAppointmentRepository) List(ctx context.Context, filter model.AppointmentFilter) ([]*model.Appointment, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	opts := options.Find().
		SetSort(bson.D{{Key: "date", Value: 1}, {Key: "time", Value: 1}, {Key: "created_at", Value: 1}})

	cursor, err := r.collection.Find(ctx, buildListFilter(filter), opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list appointments: %w", err)
	}
	defer cursor.Close(ctx)

	appointments := []*model.Appointment{}
	if err = cursor.All(ctx, &appointments); err != nil {
		return nil, fmt.Errorf("failed to decode appointments: %w", err)
	}

	return appointments, nil
}

func buildListFilter(f model.AppointmentFilter) bson.M {
	filter := bson.M{}
	if f.Date != "" {
		filter["date"] = f.Date
	}
	if f.ProviderID != "" {
		filter["provider_id"] = f.ProviderID
	}
	if f.Status != "" {
		filter["status"] = f.Status
	}
	if f.Type != "" {
		filter["type"] = f.Type
	}
	return filter
}

func (r *mongoAppointmentRepository) UpdateFields(ctx context.Context, id string, updates *model.AppointmentUpdate) error {
	set := bson.M{}
	if updates.Type != "" {
		set["type"] = updates.Type
	}
	if updates.DurationMin != nil {
		set["duration_min"] = *updates.DurationMin
	}
	if updates.PatientName != "" {
		set["patient_name"] = updates.PatientName
	}
	if updates.PatientPhone != "" {
		set["patient_phone"] = updates.PatientPhone
	}
	if updates.PatientEmail != "" {
		set["patient_email"] = updates.PatientEmail
	}
	if updates.Notes != nil {
		set["notes"] = *updates.Notes
	}
	return r.updateOne(ctx, id, bson.M{}, set, nil)
}

func (r *mongoAppointmentRepository) UpdateSchedule(ctx context.Context, id string, date, clock, providerID string) error {
	set := bson.M{
		"date":        date,
		"time":        clock,
		"provider_id": providerID,
	}
	err := r.updateOne(ctx, id, bson.M{}, set, nil)
	if err != nil && mongo.IsDuplicateKeyError(err) {
		return fmt.Errorf("%w: %v", appterrors.ErrSlotTaken, err)
	}
	return err
}

// UpdateStatus applies transition only while the stored status still equals
// transition.From, and appends it to the status history.
func (r *mongoAppointmentRepository) UpdateStatus(ctx context.Context, id string, transition model.StatusTransition) error {
	err := r.updateOne(ctx, id,
		bson.M{"status": transition.From},
		bson.M{"status": transition.To},
		bson.M{"status_history": transition},
	)
	if errors.Is(err, appterrors.ErrNotFound) {
		if _, findErr := r.FindByID(ctx, id); findErr == nil {
			return appterrors.ErrStaleStatus
		}
	}
	return err
}

func (r *mongoAppointmentRepository) updateOne(ctx context.Context, id string, match, set, push bson.M) error {
	ctx, cancel := r.withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return fmt.Errorf("%w: %s", appterrors.ErrInvalidID, id)
	}

	filter := bson.M{"_id": objectID}
	for k, v := range match {
		filter[k] = v
	}

	set["updated_at"] = time.Now().UTC().Truncate(time.Millisecond)
	update := bson.M{"$set": set}
	if len(push) > 0 {
		update["$push"] = push
	}

	result, err := r.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return err
		}
		return fmt.Errorf("failed to update appointment: %w", err)
	}

	if result.MatchedCount == 0 {
		return appterrors.ErrNotFound
	}
	return nil
}

func (r *mongoAppointmentRepository) Delete(ctx context.Context, id string) error {
	ctx, cancel := r.withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return fmt.Errorf("%w: %s", appterrors.ErrInvalidID, id)
	}

	result, err := r.collection.DeleteOne(ctx, bson.M{"_id": objectID})
	if err != nil {
		return fmt.Errorf("failed to delete appointment: %w", err)
	}

	if result.DeletedCount == 0 {
		return appterrors.ErrNotFound
	}
	return nil
}

func (r *mongoAppointmentRepository) ExecuteTransaction(ctx context.Context, fn mongotx.TransactionFunc) error {
	return r.txManager.ExecuteTransaction(ctx, fn)
}
