package mongo

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/mongo"

	apperrors "drivebid/pkg/errors"
)

// TransactionFunc runs inside one Mongo session. Every store operation that
// should be atomic with the others must use the session context it receives;
// returning an error aborts the whole transaction.
type TransactionFunc func(ctx mongo.SessionContext) error

type TransactionManager interface {
	ExecuteTransaction(ctx context.Context, fn TransactionFunc) error
}

type mongoTransactionManager struct {
	client *mongo.Client
}

func NewTransactionManager(client *mongo.Client) TransactionManager {
	return &mongoTransactionManager{client: client}
}

func (m *mongoTransactionManager) ExecuteTransaction(ctx context.Context, fn TransactionFunc) error {
	session, err := m.client.StartSession()
	if err != nil {
		return apperrors.Internal("Failed to start transaction session", err)
	}
	defer session.EndSession(ctx)

	_, err = session.WithTransaction(ctx, func(sessCtx mongo.SessionContext) (any, error) {
		return nil, fn(sessCtx)
	})
	if err != nil {
		// Business failures pass through untouched; anything else is a
		// transaction abort the caller must resubmit.
		if apperrors.IsAppError(err) {
			return err
		}
		return apperrors.Internal("Transaction aborted", fmt.Errorf("transaction failed: %w", err))
	}

	return nil
}
