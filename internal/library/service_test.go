package library

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func fixedClock(start time.Time) func() time.Time {
	t := start
	return func() time.Time {
		t = t.Add(time.Minute)
		return t
	}
}

func TestBookmarksAreIdempotent(t *testing.T) {
	svc := NewService(NewMemoryRepository())
	svc.now = fixedClock(time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC))
	ctx := context.Background()

	first, err := svc.Bookmark(ctx, "u1", "a1")
	require.NoError(t, err)
	again, err := svc.Bookmark(ctx, "u1", "a1")
	require.NoError(t, err)
	require.Equal(t, first.ID, again.ID)
	require.Equal(t, first.CreatedAt, again.CreatedAt)

	_, err = svc.Bookmark(ctx, "u1", "a2")
	require.NoError(t, err)
	_, err = svc.Bookmark(ctx, "u2", "a1")
	require.NoError(t, err)

	list, err := svc.Bookmarks(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, list, 2)
	require.Equal(t, "a2", list[0].ArticleID)

	require.NoError(t, svc.Unbookmark(ctx, "u1", "a1"))
	require.ErrorIs(t, svc.Unbookmark(ctx, "u1", "a1"), ErrNotFound)
	list, err = svc.Bookmarks(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, list, 1)
}

func TestHistoryUpsertsPerArticle(t *testing.T) {
	svc := NewService(NewMemoryRepository())
	svc.now = fixedClock(time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC))
	ctx := context.Background()

	require.NoError(t, svc.RecordRead(ctx, "u1", "a1"))
	require.NoError(t, svc.RecordRead(ctx, "u1", "a2"))
	require.NoError(t, svc.RecordRead(ctx, "u1", "a1"))

	list, err := svc.History(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, list, 2)
	require.Equal(t, "a1", list[0].ArticleID)
	require.Equal(t, "a2", list[1].ArticleID)

	list, err = svc.History(ctx, "nobody")
	require.NoError(t, err)
	require.Empty(t, list)
}
