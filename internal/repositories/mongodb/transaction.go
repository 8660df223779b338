package mongodb

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"busledger/internal/domain"
	"busledger/pkg/logger"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readconcern"
	"go.mongodb.org/mongo-driver/mongo/writeconcern"
)

const (
	codeIllegalOperation = 20
	codeWriteConflict    = 112
)

type txRunner func(ctx context.Context, fn func(ctx context.Context) error) error

// TransactionCoordinator runs units of work inside MongoDB multi-document
// transactions. On deployments without transaction support (standalone
// mongod) it degrades to running the unit once without a session. That
// mode is not atomic and must not be relied on with several writers.
type TransactionCoordinator struct {
	client  *mongo.Client
	timeout time.Duration
	logger  *logger.Logger
	runTx   txRunner
}

func NewTransactionCoordinator(client *mongo.Client, timeout time.Duration, log *logger.Logger) *TransactionCoordinator {
	c := &TransactionCoordinator{
		client:  client,
		timeout: timeout,
		logger:  log,
	}
	c.runTx = c.withSession
	return c
}

func (c *TransactionCoordinator) RunAtomic(ctx context.Context, fn func(ctx context.Context) error) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	err := c.runTx(ctx, fn)
	if err == nil {
		return nil
	}

	if !IsTransactionUnsupported(err) {
		if IsWriteConflict(err) {
			return domain.ConflictError{Resource: "booking", Msg: "concurrent modification, retry the request", Err: err}
		}
		return err
	}

	c.logger.WithContext(ctx).WithError(err).
		Warn("MongoDB topology does not support transactions, running unit without atomicity (degraded mode)")

	if err := fn(ctx); err != nil {
		if domain.IsValidation(err) || domain.IsNotFound(err) || domain.IsConflict(err) {
			return err
		}
		return domain.StorageTopologyError{Err: err}
	}
	return nil
}

func (c *TransactionCoordinator) withSession(ctx context.Context, fn func(ctx context.Context) error) error {
	session, err := c.client.StartSession()
	if err != nil {
		return fmt.Errorf("failed to start session: %w", err)
	}
	defer session.EndSession(context.Background())

	maxCommit := c.timeout
	opts := options.Transaction().
		SetReadConcern(readconcern.Snapshot()).
		SetWriteConcern(writeconcern.Majority()).
		SetMaxCommitTime(&maxCommit)

	_, err = session.WithTransaction(ctx, func(sessCtx mongo.SessionContext) (interface{}, error) {
		return nil, fn(sessCtx)
	}, opts)
	return err
}

// IsTransactionUnsupported reports whether err is the server telling us
// that the deployment cannot run multi-document transactions.
func IsTransactionUnsupported(err error) bool {
	if err == nil {
		return false
	}
	var se mongo.ServerError
	if errors.As(err, &se) && se.HasErrorCode(codeIllegalOperation) && se.HasErrorMessage("Transaction numbers") {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "transaction numbers are only allowed") ||
		strings.Contains(msg, "transactions are not supported")
}

func IsWriteConflict(err error) bool {
	var se mongo.ServerError
	if !errors.As(err, &se) {
		return false
	}
	return se.HasErrorCode(codeWriteConflict) || se.HasErrorLabel("TransientTransactionError")
}
