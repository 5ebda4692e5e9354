package notifications

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type recordingPublisher struct {
	got []*Notification
}

func (r *recordingPublisher) Publish(n *Notification) { r.got = append(r.got, n) }

func TestService_Create(t *testing.T) {
	pub := &recordingPublisher{}
	svc := NewService(NewMemoryRepository(), pub)
	ctx := context.Background()

	n, err := svc.Create(ctx, &Notification{UserID: "u1", Title: "Hi", Read: true})
	require.NoError(t, err)
	require.NotEmpty(t, n.ID)
	require.Equal(t, TypeGeneral, n.Type)
	require.False(t, n.Read)
	require.False(t, n.CreatedAt.IsZero())
	require.Len(t, pub.got, 1)

	_, err = svc.Create(ctx, &Notification{Title: "no user"})
	require.Error(t, err)
	_, err = svc.Create(ctx, &Notification{UserID: "u1"})
	require.Error(t, err)
	_, err = svc.Create(ctx, &Notification{UserID: "u1", Title: "x", Type: "spam"})
	require.Error(t, err)
	require.Len(t, pub.got, 1)
}

func TestService_ListNewestFirst(t *testing.T) {
	svc := NewService(NewMemoryRepository(), nil)
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	i := 0
	svc.now = func() time.Time { i++; return base.Add(time.Duration(i) * time.Minute) }
	ctx := context.Background()
	for _, title := range []string{"first", "second", "third"} {
		_, err := svc.Create(ctx, &Notification{UserID: "u1", Title: title})
		require.NoError(t, err)
	}

	list, err := svc.List(ctx, "u1", 2)
	require.NoError(t, err)
	require.Len(t, list, 2)
	require.Equal(t, "third", list[0].Title)
	require.Equal(t, "second", list[1].Title)

	list, err = svc.List(ctx, "nobody", 0)
	require.NoError(t, err)
	require.Empty(t, list)
}

func TestService_MarkRead(t *testing.T) {
	svc := NewService(NewMemoryRepository(), nil)
	ctx := context.Background()
	n, err := svc.Create(ctx, &Notification{UserID: "u1", Title: "x"})
	require.NoError(t, err)

	require.ErrorIs(t, svc.MarkRead(ctx, "someone-else", n.ID), ErrNotFound)
	require.NoError(t, svc.MarkRead(ctx, "u1", n.ID))
	c, err := svc.UnreadCount(ctx, "u1")
	require.NoError(t, err)
	require.Zero(t, c)
}
