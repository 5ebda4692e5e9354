package payment_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/thedividend/dividend/internal/notifications"
	"github.com/thedividend/dividend/internal/payment"
	"github.com/thedividend/dividend/internal/payment/repository"
	"github.com/thedividend/dividend/internal/paystack"
	"github.com/thedividend/dividend/internal/users"
	"github.com/thedividend/dividend/pkg/metrics"
)

const secret = "whsec_test"

type fakeGateway struct {
	txs map[string]*paystack.Transaction
	err error
}

func (f *fakeGateway) Verify(ctx context.Context, ref string) (*paystack.Transaction, error) {
	if f.err != nil {
		return nil, f.err
	}
	tx, ok := f.txs[ref]
	if !ok {
		return nil, paystack.ErrGateway
	}
	return tx, nil
}

type fixture struct {
	store  *repository.MemoryRepo
	notifs *notifications.Service
	rec    *payment.Reconciler
	gw     *fakeGateway
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	userRepo := users.NewMemoryUserRepository()
	_, err := userRepo.UpsertBySub(context.Background(), &users.User{Sub: "user-1", Email: "buyer@example.com"})
	require.NoError(t, err)

	f := &fixture{
		store:  repository.NewMemoryRepo(),
		notifs: notifications.NewService(notifications.NewMemoryRepository(), nil),
		gw:     &fakeGateway{txs: map[string]*paystack.Transaction{}},
	}
	f.rec = payment.NewReconciler(f.store, users.NewService(userRepo), f.notifs, f.gw, secret)
	return f
}

func (f *fixture) notificationCount(t *testing.T, userID string) int {
	t.Helper()
	list, err := f.notifs.List(context.Background(), userID, 0)
	require.NoError(t, err)
	return len(list)
}

const chargeSuccess = `{"event":"charge.success","data":{"reference":"ref-123","amount":500000,"customer":{"email":"buyer@example.com"},"metadata":{"book_id":"book-9"}}}`

func TestReconcile_AmountConvertedToMajorUnits(t *testing.T) {
	f := newFixture(t)
	res, err := f.rec.Reconcile(context.Background(), payment.Confirmation{
		Reference: "ref-1", AmountMinor: 500000, Email: "buyer@example.com", BookID: "book-1", Channel: payment.ChannelWebhook,
	})
	require.NoError(t, err)
	require.Equal(t, payment.OutcomeRecorded, res.Outcome)

	stored, err := f.store.GetByReference(context.Background(), "ref-1")
	require.NoError(t, err)
	assert.Equal(t, 5000.00, stored.Amount)
	assert.Equal(t, "5000.00", payment.FormatMajor(stored.AmountMinor))
	assert.Equal(t, payment.StatusSuccess, stored.Status)
	assert.Equal(t, "user-1", stored.UserID)
	assert.Equal(t, "book-1", stored.BookID)

	list, err := f.notifs.List(context.Background(), "user-1", 0)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "Purchase Successful", list[0].Title)
	assert.Equal(t, "Your book purchase has been confirmed.", list[0].Body)
	assert.Equal(t, notifications.TypePurchase, list[0].Type)
}

func TestReconcileWebhook_DeliveredTwiceRecordsOnce(t *testing.T) {
	f := newFixture(t)
	body := []byte(chargeSuccess)
	sig := payment.Sign([]byte(secret), body)

	first, err := f.rec.ReconcileWebhook(context.Background(), body, sig)
	require.NoError(t, err)
	require.Equal(t, payment.OutcomeRecorded, first.Outcome)

	second, err := f.rec.ReconcileWebhook(context.Background(), body, sig)
	require.NoError(t, err)
	require.Equal(t, payment.OutcomeDuplicate, second.Outcome)

	require.Equal(t, 1, f.store.Count())
	require.Equal(t, 1, f.notificationCount(t, "user-1"))
}

func TestReconcile_ConcurrentRedirectAndWebhookRecordOnce(t *testing.T) {
	f := newFixture(t)
	f.gw.txs["ref-123"] = &paystack.Transaction{
		Reference: "ref-123", Status: "success", Amount: 500000,
		Customer: paystack.Customer{Email: "buyer@example.com"}, Metadata: paystack.Metadata{BookID: "book-9"},
	}
	body := []byte(chargeSuccess)
	sig := payment.Sign([]byte(secret), body)

	const rounds = 25
	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		recorded int
	)
	for i := 0; i < rounds; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			res, err := f.rec.ReconcileWebhook(context.Background(), body, sig)
			if assert.NoError(t, err) && res.Outcome == payment.OutcomeRecorded {
				mu.Lock()
				recorded++
				mu.Unlock()
			}
		}()
		go func() {
			defer wg.Done()
			res, err := f.rec.ReconcileReference(context.Background(), "ref-123")
			if assert.NoError(t, err) && res.Outcome == payment.OutcomeRecorded {
				mu.Lock()
				recorded++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, recorded)
	assert.Equal(t, 1, f.store.Count())
	assert.Equal(t, 1, f.notificationCount(t, "user-1"))
}

func TestReconcileWebhook_BadSignatureRecordsNothing(t *testing.T) {
	f := newFixture(t)
	body := []byte(chargeSuccess)
	before := testutil.ToFloat64(metrics.WebhookRejected.WithLabelValues("signature"))

	for _, sig := range []string{"", "deadbeef", payment.Sign([]byte("other-secret"), body)} {
		_, err := f.rec.ReconcileWebhook(context.Background(), body, sig)
		require.ErrorIs(t, err, payment.ErrInvalidSignature)
	}
	// signature over a different body
	_, err := f.rec.ReconcileWebhook(context.Background(), body, payment.Sign([]byte(secret), []byte(chargeSuccess+" ")))
	require.ErrorIs(t, err, payment.ErrInvalidSignature)

	require.Equal(t, 0, f.store.Count())
	require.Equal(t, 0, f.notificationCount(t, "user-1"))
	require.Equal(t, before+4, testutil.ToFloat64(metrics.WebhookRejected.WithLabelValues("signature")))
}

func TestReconcileWebhook_EmptySecretRejectsEverything(t *testing.T) {
	store := repository.NewMemoryRepo()
	rec := payment.NewReconciler(store, users.NewService(users.NewMemoryUserRepository()), nil, &fakeGateway{}, "")
	body := []byte(chargeSuccess)
	_, err := rec.ReconcileWebhook(context.Background(), body, payment.Sign([]byte(""), body))
	require.ErrorIs(t, err, payment.ErrInvalidSignature)
	require.Equal(t, 0, store.Count())
}

func TestReconcile_UnknownEmailRecordsNothing(t *testing.T) {
	f := newFixture(t)
	body := []byte(`{"event":"charge.success","data":{"reference":"ref-x","amount":1000,"customer":{"email":"stranger@example.com"},"metadata":{"book_id":"book-1"}}}`)

	res, err := f.rec.ReconcileWebhook(context.Background(), body, payment.Sign([]byte(secret), body))
	require.NoError(t, err)
	require.Equal(t, payment.OutcomeUserNotFound, res.Outcome)
	require.Equal(t, 0, f.store.Count())
	require.Equal(t, 0, f.notificationCount(t, "user-1"))
}

func TestReconcile_IncompleteConfirmations(t *testing.T) {
	f := newFixture(t)
	for name, c := range map[string]payment.Confirmation{
		"no book":         {Reference: "r1", AmountMinor: 100, Email: "buyer@example.com"},
		"no email":        {Reference: "r2", AmountMinor: 100, BookID: "b"},
		"no reference":    {AmountMinor: 100, Email: "buyer@example.com", BookID: "b"},
		"negative amount": {Reference: "r3", AmountMinor: -1, Email: "buyer@example.com", BookID: "b"},
	} {
		res, err := f.rec.Reconcile(context.Background(), c)
		require.NoError(t, err, name)
		require.Equal(t, payment.OutcomeIncomplete, res.Outcome, name)
	}
	require.Equal(t, 0, f.store.Count())
}

func TestReconcileWebhook_OtherEventsIgnored(t *testing.T) {
	f := newFixture(t)
	body := []byte(`{"event":"transfer.success","data":{"reference":"t-1","amount":100}}`)
	res, err := f.rec.ReconcileWebhook(context.Background(), body, payment.Sign([]byte(secret), body))
	require.NoError(t, err)
	require.Equal(t, payment.OutcomeIgnored, res.Outcome)
	require.Equal(t, 0, f.store.Count())
}

func TestReconcileReference_GatewayOutcomes(t *testing.T) {
	f := newFixture(t)
	f.gw.txs["abandoned"] = &paystack.Transaction{Reference: "abandoned", Status: "abandoned", Amount: 100}

	_, err := f.rec.ReconcileReference(context.Background(), "abandoned")
	require.ErrorIs(t, err, payment.ErrPaymentNotSuccessful)

	_, err = f.rec.ReconcileReference(context.Background(), "unknown")
	require.ErrorIs(t, err, paystack.ErrGateway)

	f.gw.err = errors.New("dial tcp: timeout")
	_, err = f.rec.ReconcileReference(context.Background(), "abandoned")
	require.Error(t, err)
	require.Equal(t, 0, f.store.Count())
}

type failingStore struct{ payment.Store }

func (failingStore) Insert(ctx context.Context, p *payment.Purchase) error {
	return errors.New("db down")
}

func TestReconcile_StoreFailureIsAnError(t *testing.T) {
	userRepo := users.NewMemoryUserRepository()
	_, err := userRepo.UpsertBySub(context.Background(), &users.User{Sub: "user-1", Email: "buyer@example.com"})
	require.NoError(t, err)
	notifs := notifications.NewService(notifications.NewMemoryRepository(), nil)
	rec := payment.NewReconciler(failingStore{}, users.NewService(userRepo), notifs, &fakeGateway{}, secret)

	_, err = rec.Reconcile(context.Background(), payment.Confirmation{Reference: "r", AmountMinor: 1, Email: "buyer@example.com", BookID: "b", Channel: payment.ChannelWebhook})
	require.Error(t, err)
	list, err := notifs.List(context.Background(), "user-1", 0)
	require.NoError(t, err)
	require.Empty(t, list)
}

func TestFormatMajor(t *testing.T) {
	assert.Equal(t, "5000.00", payment.FormatMajor(500000))
	assert.Equal(t, "0.05", payment.FormatMajor(5))
	assert.Equal(t, "19.99", payment.FormatMajor(1999))
	assert.Equal(t, "-1.50", payment.FormatMajor(-150))
	assert.Equal(t, 19.99, payment.MajorUnits(1999))
}
