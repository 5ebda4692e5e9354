package library

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"
)

func TestMongoRepository(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("add bookmark returns stored document", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateSuccessResponse(), mtest.CreateSuccessResponse())
		repo, err := NewMongoRepository(context.Background(), mt.Coll, mt.Coll)
		require.NoError(mt, err)

		created := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
		mt.AddMockResponses(bson.D{
			{Key: "ok", Value: 1},
			{Key: "value", Value: bson.D{
				{Key: "_id", Value: "bm-existing"},
				{Key: "user_id", Value: "u1"},
				{Key: "article_id", Value: "a1"},
				{Key: "created_at", Value: created},
			}},
		})
		b, err := repo.AddBookmark(context.Background(), &Bookmark{ID: "bm-new", UserID: "u1", ArticleID: "a1", CreatedAt: time.Now()})
		require.NoError(mt, err)
		require.Equal(mt, "bm-existing", b.ID)
		require.True(mt, created.Equal(b.CreatedAt))
	})

	mt.Run("remove missing bookmark", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateSuccessResponse(), mtest.CreateSuccessResponse())
		repo, err := NewMongoRepository(context.Background(), mt.Coll, mt.Coll)
		require.NoError(mt, err)

		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 0}))
		require.ErrorIs(mt, repo.RemoveBookmark(context.Background(), "u1", "a1"), ErrNotFound)
	})

	mt.Run("record read upserts", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateSuccessResponse(), mtest.CreateSuccessResponse())
		repo, err := NewMongoRepository(context.Background(), mt.Coll, mt.Coll)
		require.NoError(mt, err)

		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 1}, bson.E{Key: "nModified", Value: 0}))
		require.NoError(mt, repo.RecordRead(context.Background(), "u1", "a1", time.Now()))
	})
}
