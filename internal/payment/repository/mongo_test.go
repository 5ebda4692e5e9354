package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/thedividend/dividend/internal/payment"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"
)

func TestMongoRepo(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("duplicate key maps to ErrDuplicateReference", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateSuccessResponse())
		repo, err := NewMongoRepo(context.Background(), mt.Coll)
		require.NoError(mt, err)

		mt.AddMockResponses(mtest.CreateSuccessResponse())
		require.NoError(mt, repo.Insert(context.Background(), purchase("ref-1", "u1", time.Now())))

		mt.AddMockResponses(mtest.CreateWriteErrorsResponse(mtest.WriteError{Index: 0, Code: 11000, Message: "E11000 duplicate key error"}))
		require.ErrorIs(mt, repo.Insert(context.Background(), purchase("ref-1", "u1", time.Now())), payment.ErrDuplicateReference)
	})

	mt.Run("get by reference", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateSuccessResponse())
		repo, err := NewMongoRepo(context.Background(), mt.Coll)
		require.NoError(mt, err)

		ns := mt.Coll.Database().Name() + "." + mt.Coll.Name()
		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns, mtest.FirstBatch, bson.D{
			{Key: "_id", Value: "p1"},
			{Key: "user_id", Value: "u1"},
			{Key: "book_id", Value: "book-1"},
			{Key: "amount", Value: 5000.0},
			{Key: "amount_minor", Value: int64(500000)},
			{Key: "reference", Value: "ref-1"},
			{Key: "status", Value: "success"},
		}))
		p, err := repo.GetByReference(context.Background(), "ref-1")
		require.NoError(mt, err)
		require.Equal(mt, "u1", p.UserID)
		require.Equal(mt, int64(500000), p.AmountMinor)

		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns, mtest.FirstBatch))
		_, err = repo.GetByReference(context.Background(), "missing")
		require.ErrorIs(mt, err, payment.ErrNotFound)
	})
}
