package mongodb

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"busledger/internal/domain"
	"busledger/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/mongo"
)

var errStandalone = mongo.CommandError{
	Code:    codeIllegalOperation,
	Name:    "IllegalOperation",
	Message: "Transaction numbers are only allowed on a replica set member or mongos",
}

func newTestCoordinator(run txRunner) *TransactionCoordinator {
	return &TransactionCoordinator{
		timeout: 2 * time.Second,
		logger:  logger.NewNop(),
		runTx:   run,
	}
}

func TestRunAtomicCommitsThroughRunner(t *testing.T) {
	calls := 0
	c := newTestCoordinator(func(ctx context.Context, fn func(context.Context) error) error {
		return fn(ctx)
	})

	err := c.RunAtomic(context.Background(), func(ctx context.Context) error {
		calls++
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 1, calls)
}

func TestRunAtomicAppliesDeadline(t *testing.T) {
	c := newTestCoordinator(func(ctx context.Context, fn func(context.Context) error) error {
		_, ok := ctx.Deadline()
		assert.True(t, ok, "unit of work must be bounded")
		return fn(ctx)
	})

	require.NoError(t, c.RunAtomic(context.Background(), func(context.Context) error { return nil }))
}

func TestRunAtomicFallsBackOnStandalone(t *testing.T) {
	calls := 0
	c := newTestCoordinator(func(ctx context.Context, fn func(context.Context) error) error {
		return errStandalone
	})

	err := c.RunAtomic(context.Background(), func(ctx context.Context) error {
		calls++
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 1, calls, "fallback runs the unit exactly once")
}

func TestRunAtomicFallbackFailureIsTopologyError(t *testing.T) {
	cause := errors.New("insert failed")
	c := newTestCoordinator(func(ctx context.Context, fn func(context.Context) error) error {
		return fmt.Errorf("start transaction: %w", errStandalone)
	})

	err := c.RunAtomic(context.Background(), func(ctx context.Context) error {
		return cause
	})

	require.Error(t, err)
	assert.True(t, domain.IsStorageTopology(err))
	assert.ErrorIs(t, err, cause)
}

func TestRunAtomicFallbackKeepsDomainErrors(t *testing.T) {
	c := newTestCoordinator(func(ctx context.Context, fn func(context.Context) error) error {
		return errStandalone
	})

	err := c.RunAtomic(context.Background(), func(ctx context.Context) error {
		return domain.ValidationError{Msg: "nothing to swap"}
	})

	require.Error(t, err)
	assert.True(t, domain.IsValidation(err))
	assert.False(t, domain.IsStorageTopology(err))
	assert.Equal(t, "nothing to swap", err.Error())

	err = c.RunAtomic(context.Background(), func(ctx context.Context) error {
		return domain.NotFoundError{Resource: "booking", ID: "missing"}
	})
	assert.True(t, domain.IsNotFound(err))
	assert.False(t, domain.IsStorageTopology(err))
}

func TestRunAtomicPropagatesOtherErrors(t *testing.T) {
	calls := 0
	c := newTestCoordinator(func(ctx context.Context, fn func(context.Context) error) error {
		return fn(ctx)
	})

	err := c.RunAtomic(context.Background(), func(ctx context.Context) error {
		calls++
		return domain.NotFoundError{Resource: "trip"}
	})

	assert.True(t, domain.IsNotFound(err))
	assert.Equal(t, 1, calls, "no fallback for ordinary failures")
}

func TestRunAtomicMapsWriteConflict(t *testing.T) {
	c := newTestCoordinator(func(ctx context.Context, fn func(context.Context) error) error {
		return mongo.CommandError{
			Code:    codeWriteConflict,
			Name:    "WriteConflict",
			Message: "WriteConflict error",
			Labels:  []string{"TransientTransactionError"},
		}
	})

	err := c.RunAtomic(context.Background(), func(context.Context) error { return nil })

	assert.True(t, domain.IsConflict(err))
}

func TestIsTransactionUnsupported(t *testing.T) {
	tests := []struct {
		description string
		err         error
		expected    bool
	}{
		{"nil", nil, false},
		{"standalone command error", errStandalone, true},
		{"wrapped", fmt.Errorf("commit: %w", errStandalone), true},
		{"plain message", errors.New("Transactions are not supported by this deployment"), true},
		{"other code", mongo.CommandError{Code: 11000, Message: "duplicate key"}, false},
		{"generic", errors.New("connection refused"), false},
	}

	for _, test := range tests {
		assert.Equalf(t, test.expected, IsTransactionUnsupported(test.err), test.description)
	}
}
