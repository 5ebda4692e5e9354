// Package payment records book purchases confirmed by the payment gateway.
//
// A purchase can be confirmed twice: once when the buyer is redirected back
// from the hosted checkout and once by the gateway's webhook. Both paths end
// in Reconciler.Reconcile, and the Store's unique reference guarantees a
// single record and a single notification per transaction.
package payment

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/thedividend/dividend/internal/notifications"
	"github.com/thedividend/dividend/internal/paystack"
	"github.com/thedividend/dividend/internal/users"
	"github.com/thedividend/dividend/pkg/logger"
	"github.com/thedividend/dividend/pkg/metrics"
	"go.uber.org/zap"
)

// Channel names the path a confirmation arrived on.
type Channel string

const (
	ChannelRedirect Channel = "redirect"
	ChannelWebhook  Channel = "webhook"
)

// Outcome is the terminal state of one reconciliation attempt.
type Outcome string

const (
	OutcomeRecorded     Outcome = "recorded"
	OutcomeDuplicate    Outcome = "duplicate"
	OutcomeUserNotFound Outcome = "user_not_found"
	OutcomeIncomplete   Outcome = "incomplete"
	OutcomeIgnored      Outcome = "ignored"
	OutcomeError        Outcome = "error"
)

const (
	purchaseTitle = "Purchase Successful"
	purchaseBody  = "Your book purchase has been confirmed."
	purchaseLink  = "/dashboard/purchases"
)

// ErrPaymentNotSuccessful is returned for a reference the gateway does not
// report as paid.
var ErrPaymentNotSuccessful = errors.New("payment not successful")

// Confirmation is a gateway-attested successful charge.
type Confirmation struct {
	Reference   string
	AmountMinor int64
	Email       string
	BookID      string
	Channel     Channel
}

// ConfirmationFrom maps a gateway transaction onto a Confirmation.
func ConfirmationFrom(tx *paystack.Transaction, ch Channel) Confirmation {
	return Confirmation{
		Reference:   tx.Reference,
		AmountMinor: tx.Amount,
		Email:       tx.Customer.Email,
		BookID:      tx.Metadata.BookID,
		Channel:     ch,
	}
}

type Result struct {
	Outcome  Outcome
	Purchase *Purchase
}

// UserLookup resolves the purchaser. It returns (nil, nil) for unknown emails.
type UserLookup interface {
	GetByEmail(ctx context.Context, email string) (*users.User, error)
}

type Notifier interface {
	Create(ctx context.Context, n *notifications.Notification) (*notifications.Notification, error)
}

// TransactionVerifier re-queries the gateway for a reference.
type TransactionVerifier interface {
	Verify(ctx context.Context, reference string) (*paystack.Transaction, error)
}

type Reconciler struct {
	store         Store
	users         UserLookup
	notifier      Notifier
	gateway       TransactionVerifier
	webhookSecret []byte
	now           func() time.Time
}

func NewReconciler(store Store, u UserLookup, n Notifier, gw TransactionVerifier, webhookSecret string) *Reconciler {
	return &Reconciler{
		store:         store,
		users:         u,
		notifier:      n,
		gateway:       gw,
		webhookSecret: []byte(webhookSecret),
		now:           time.Now,
	}
}

// Reconcile records the purchase for c once. Resolution failures (missing
// fields, unknown user) are reported through the Outcome with a nil error;
// only I/O failures return an error.
func (r *Reconciler) Reconcile(ctx context.Context, c Confirmation) (*Result, error) {
	log := logger.L().With(zap.String("reference", c.Reference), zap.String("channel", string(c.Channel)))

	if c.Reference == "" || c.BookID == "" || strings.TrimSpace(c.Email) == "" || c.AmountMinor < 0 {
		log.Warn("confirmation missing reference, book or email; not recorded")
		return r.done(c, OutcomeIncomplete, nil), nil
	}

	u, err := r.users.GetByEmail(ctx, c.Email)
	if err != nil {
		r.count(c, OutcomeError)
		return nil, fmt.Errorf("resolve purchaser: %w", err)
	}
	if u == nil {
		log.Warn("payment acknowledged but no user matches the customer email")
		return r.done(c, OutcomeUserNotFound, nil), nil
	}

	p := &Purchase{
		ID:          uuid.NewString(),
		UserID:      u.Sub,
		BookID:      c.BookID,
		Amount:      MajorUnits(c.AmountMinor),
		AmountMinor: c.AmountMinor,
		Reference:   c.Reference,
		Status:      StatusSuccess,
		CreatedAt:   r.now().UTC(),
	}
	if err := r.store.Insert(ctx, p); err != nil {
		if errors.Is(err, ErrDuplicateReference) {
			log.Info("purchase already recorded")
			return r.done(c, OutcomeDuplicate, nil), nil
		}
		r.count(c, OutcomeError)
		return nil, fmt.Errorf("record purchase: %w", err)
	}
	log.Info("purchase recorded", zap.String("user", p.UserID), zap.String("book", p.BookID), zap.String("amount", FormatMajor(p.AmountMinor)))

	// the record is the source of truth; a lost notification is not retried
	if r.notifier != nil {
		if _, err := r.notifier.Create(ctx, &notifications.Notification{
			UserID: p.UserID,
			Title:  purchaseTitle,
			Body:   purchaseBody,
			Type:   notifications.TypePurchase,
			Link:   purchaseLink,
		}); err != nil {
			log.Error("purchase notification failed", zap.Error(err))
		}
	}
	return r.done(c, OutcomeRecorded, p), nil
}

// ReconcileReference is the redirect path: the reference is trusted only
// after the gateway reports it paid.
func (r *Reconciler) ReconcileReference(ctx context.Context, reference string) (*Result, error) {
	tx, err := r.gateway.Verify(ctx, reference)
	if err != nil {
		metrics.Reconciliations.WithLabelValues(string(ChannelRedirect), string(OutcomeError)).Inc()
		return nil, fmt.Errorf("verify %s: %w", reference, err)
	}
	if !tx.Succeeded() {
		metrics.Reconciliations.WithLabelValues(string(ChannelRedirect), "not_paid").Inc()
		return nil, ErrPaymentNotSuccessful
	}
	if tx.Reference == "" {
		tx.Reference = reference
	}
	return r.Reconcile(ctx, ConfirmationFrom(tx, ChannelRedirect))
}

// ReconcileWebhook is the webhook path: the raw body must carry a valid
// signature before any of it is read. Events other than charge.success are
// acknowledged and ignored.
func (r *Reconciler) ReconcileWebhook(ctx context.Context, body []byte, signature string) (*Result, error) {
	if err := VerifySignature(r.webhookSecret, body, signature); err != nil {
		metrics.WebhookRejected.WithLabelValues("signature").Inc()
		return nil, err
	}
	ev, err := paystack.ParseEvent(body)
	if err != nil {
		metrics.WebhookRejected.WithLabelValues("payload").Inc()
		return nil, err
	}
	if ev.Event != paystack.EventChargeSuccess {
		logger.Debugf("webhook event %q ignored", ev.Event)
		return r.done(Confirmation{Reference: ev.Data.Reference, Channel: ChannelWebhook}, OutcomeIgnored, nil), nil
	}
	return r.Reconcile(ctx, ConfirmationFrom(&ev.Data, ChannelWebhook))
}

// Purchases lists a user's purchases, newest first.
func (r *Reconciler) Purchases(ctx context.Context, userID string) ([]*Purchase, error) {
	return r.store.ListByUser(ctx, userID)
}

func (r *Reconciler) done(c Confirmation, o Outcome, p *Purchase) *Result {
	r.count(c, o)
	return &Result{Outcome: o, Purchase: p}
}

func (r *Reconciler) count(c Confirmation, o Outcome) {
	metrics.Reconciliations.WithLabelValues(string(c.Channel), string(o)).Inc()
}
