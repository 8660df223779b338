package database

import (
	"context"
	"fmt"
	"time"

	"busledger/pkg/logger"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	CollectionBookings  = "bookings"
	CollectionPayments  = "payments"
	CollectionHistories = "booking_histories"
	CollectionTrips     = "trips"
	CollectionRoutes    = "routes"
	collectionMigration = "migrations"
)

type Migration struct {
	Version     int
	Description string
	Up          func(context.Context, *mongo.Database) error
	Down        func(context.Context, *mongo.Database) error
}

type Migrator struct {
	db         *mongo.Database
	migrations []Migration
	log        *logger.Logger
}

func NewMigrator(db *mongo.Database, log *logger.Logger) *Migrator {
	return &Migrator{
		db:         db,
		migrations: getMigrations(),
		log:        log,
	}
}

func (m *Migrator) Up(ctx context.Context) error {
	currentVersion, err := m.getCurrentVersion(ctx)
	if err != nil {
		return err
	}

	for _, migration := range m.migrations {
		if migration.Version <= currentVersion {
			continue
		}
		m.log.WithField("version", migration.Version).Infof("Running migration: %s", migration.Description)

		if err := migration.Up(ctx, m.db); err != nil {
			return fmt.Errorf("migration %d failed: %w", migration.Version, err)
		}

		if err := m.updateVersion(ctx, migration.Version); err != nil {
			return fmt.Errorf("failed to update migration version: %w", err)
		}
	}

	return nil
}

func (m *Migrator) Down(ctx context.Context, targetVersion int) error {
	currentVersion, err := m.getCurrentVersion(ctx)
	if err != nil {
		return err
	}

	for i := len(m.migrations) - 1; i >= 0; i-- {
		migration := m.migrations[i]
		if migration.Version > currentVersion || migration.Version <= targetVersion {
			continue
		}
		m.log.WithField("version", migration.Version).Infof("Reverting migration: %s", migration.Description)

		if err := migration.Down(ctx, m.db); err != nil {
			return fmt.Errorf("migration %d rollback failed: %w", migration.Version, err)
		}

		previousVersion := targetVersion
		if i > 0 {
			previousVersion = m.migrations[i-1].Version
		}

		if err := m.updateVersion(ctx, previousVersion); err != nil {
			return fmt.Errorf("failed to update migration version: %w", err)
		}
	}

	return nil
}

func (m *Migrator) getCurrentVersion(ctx context.Context) (int, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var result struct {
		Version int `bson:"version"`
	}

	err := m.db.Collection(collectionMigration).FindOne(ctx, bson.D{}).Decode(&result)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return 0, nil
		}
		return 0, err
	}

	return result.Version, nil
}

func (m *Migrator) updateVersion(ctx context.Context, version int) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	_, err := m.db.Collection(collectionMigration).ReplaceOne(
		ctx,
		bson.D{},
		bson.D{{Key: "version", Value: version}, {Key: "updated_at", Value: time.Now()}},
		options.Replace().SetUpsert(true),
	)

	return err
}

func getMigrations() []Migration {
	return []Migration{
		{
			Version:     1,
			Description: "Create bookings indexes",
			Up:          createBookingsIndexes,
			Down:        dropIndexes(CollectionBookings),
		},
		{
			Version:     2,
			Description: "Create payments indexes",
			Up:          createPaymentsIndexes,
			Down:        dropIndexes(CollectionPayments),
		},
		{
			Version:     3,
			Description: "Create booking histories indexes",
			Up:          createHistoriesIndexes,
			Down:        dropIndexes(CollectionHistories),
		},
	}
}

func dropIndexes(collection string) func(context.Context, *mongo.Database) error {
	return func(ctx context.Context, db *mongo.Database) error {
		_, err := db.Collection(collection).Indexes().DropAll(ctx)
		return err
	}
}

// The unique sparse index on seat_keys is what keeps two bookings from
// holding the same seat on the same trip.
func createBookingsIndexes(ctx context.Context, db *mongo.Database) error {
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "seat_keys", Value: 1}},
			Options: options.Index().SetUnique(true).SetSparse(true).SetName("uniq_active_seat"),
		},
		{
			Keys: bson.D{{Key: "items.trip_id", Value: 1}},
		},
		{
			Keys: bson.D{{Key: "passenger.phone", Value: 1}},
		},
		{
			Keys: bson.D{{Key: "created_at", Value: -1}},
		},
	}

	_, err := db.Collection(CollectionBookings).Indexes().CreateMany(ctx, indexes)
	return err
}

func createPaymentsIndexes(ctx context.Context, db *mongo.Database) error {
	indexes := []mongo.IndexModel{
		{
			Keys: bson.D{{Key: "booking_id", Value: 1}, {Key: "created_at", Value: 1}},
		},
	}

	_, err := db.Collection(CollectionPayments).Indexes().CreateMany(ctx, indexes)
	return err
}

func createHistoriesIndexes(ctx context.Context, db *mongo.Database) error {
	indexes := []mongo.IndexModel{
		{
			Keys: bson.D{{Key: "booking_id", Value: 1}, {Key: "created_at", Value: -1}},
		},
	}

	_, err := db.Collection(CollectionHistories).Indexes().CreateMany(ctx, indexes)
	return err
}
