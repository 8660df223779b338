package services

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"busledger/internal/models"
	"busledger/internal/repositories/memory"
	"busledger/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type failingHistoryRepository struct{}

func (failingHistoryRepository) Create(ctx context.Context, record *models.HistoryRecord) error {
	return errors.New("write concern timeout")
}

func (failingHistoryRepository) ListByBooking(ctx context.Context, bookingID primitive.ObjectID) ([]*models.HistoryRecord, error) {
	return nil, nil
}

func TestAuditRecordSwallowsWriteFailures(t *testing.T) {
	var buf bytes.Buffer
	log, err := logger.NewLogger(&logger.Config{Level: logger.WarnLevel, Format: "json"})
	require.NoError(t, err)
	log.SetOutput(&buf)

	audit := NewAuditService(failingHistoryRepository{}, log)
	id := primitive.NewObjectID()

	assert.NotPanics(t, func() {
		audit.Record(context.Background(), id, models.HistoryActionUpdate, "changed", nil)
	})
	assert.Contains(t, buf.String(), "Failed to write booking history")
	assert.Contains(t, buf.String(), id.Hex())
	assert.Contains(t, buf.String(), "UPDATE")
}

func TestAuditHistoryIsNewestFirst(t *testing.T) {
	ctx := context.Background()
	audit := NewAuditService(memory.NewHistoryRepository(memory.NewStore()), logger.NewNop())
	id := primitive.NewObjectID()

	audit.Record(ctx, id, models.HistoryActionCreate, "created", nil)
	audit.Record(ctx, id, models.HistoryActionUpdate, "updated", map[string]interface{}{"seat_id": "A01"})
	audit.Record(ctx, primitive.NewObjectID(), models.HistoryActionCreate, "other", nil)

	records, err := audit.History(ctx, id)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, models.HistoryActionUpdate, records[0].Action)
	assert.Equal(t, "A01", records[0].Details["seat_id"])
	assert.Equal(t, models.HistoryActionCreate, records[1].Action)
	assert.NotNil(t, records[1].Details)
}
