package handler

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/thedividend/dividend/internal/books"
	"github.com/thedividend/dividend/internal/payment"
	"github.com/thedividend/dividend/internal/paystack"
	"github.com/thedividend/dividend/pkg/logger"
	"github.com/thedividend/dividend/pkg/middleware"
)

const (
	successPath = "/dashboard/purchases?success=true"
	failurePath = "/bookstore?error="
)

// Initializer starts a hosted checkout.
type Initializer interface {
	Initialize(ctx context.Context, in paystack.InitializeRequest) (*paystack.InitializeResult, error)
}

type BookLookup interface {
	Get(ctx context.Context, id string) (*books.Book, error)
}

// Handler exposes checkout, the two confirmation paths and the purchase list.
type Handler struct {
	rec     *payment.Reconciler
	gateway Initializer
	books   BookLookup
	siteURL string
}

func NewHandler(rec *payment.Reconciler, gw Initializer, bl BookLookup, siteURL string) *Handler {
	return &Handler{rec: rec, gateway: gw, books: bl, siteURL: strings.TrimRight(siteURL, "/")}
}

// Register mounts the gateway callbacks on public and the buyer endpoints on
// authed, which must run AuthMiddleware.
func (h *Handler) Register(public, authed gin.IRoutes) {
	public.GET("/api/paystack/verify", h.verify)
	public.POST("/api/paystack/webhook", h.webhook)
	authed.POST("/api/paystack/initialize", h.initialize)
	authed.GET("/api/purchases", h.purchases)
}

type initializeRequest struct {
	BookID string `json:"bookId" binding:"required"`
	Email  string `json:"email"`
}

func (h *Handler) initialize(c *gin.Context) {
	p := middleware.CurrentPrincipal(c)
	var req initializeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	email := strings.TrimSpace(req.Email)
	if email == "" && p != nil {
		email = p.Email
	}
	if email == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "email is required"})
		return
	}
	book, err := h.books.Get(c.Request.Context(), req.BookID)
	if err != nil {
		if errors.Is(err, books.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "book not found"})
			return
		}
		logger.Errorf("initialize: load book %s: %v", req.BookID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to initialize payment"})
		return
	}

	res, err := h.gateway.Initialize(c.Request.Context(), paystack.InitializeRequest{
		Email:       email,
		Amount:      book.PriceMinor(),
		CallbackURL: h.siteURL + "/api/paystack/verify",
		Metadata:    paystack.Metadata{BookID: book.ID},
	})
	if err != nil {
		if errors.Is(err, paystack.ErrGateway) {
			c.JSON(http.StatusBadRequest, gin.H{"error": strings.TrimPrefix(err.Error(), paystack.ErrGateway.Error()+": ")})
			return
		}
		logger.Errorf("initialize: gateway: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to initialize payment"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"authorization_url": res.AuthorizationURL, "reference": res.Reference})
}

func (h *Handler) verify(c *gin.Context) {
	reference := c.Query("reference")
	if reference == "" {
		reference = c.Query("trxref")
	}
	if reference == "" {
		h.fail(c, "no_reference")
		return
	}

	res, err := h.rec.ReconcileReference(c.Request.Context(), reference)
	switch {
	case err == nil:
		logger.Debugf("verify %s: %s", reference, res.Outcome)
		c.Redirect(http.StatusFound, h.siteURL+successPath)
	case errors.Is(err, payment.ErrPaymentNotSuccessful), errors.Is(err, paystack.ErrGateway):
		logger.Warnf("verify %s: %v", reference, err)
		h.fail(c, "payment_failed")
	default:
		logger.Errorf("verify %s: %v", reference, err)
		h.fail(c, "verification_failed")
	}
}

func (h *Handler) fail(c *gin.Context, code string) {
	c.Redirect(http.StatusFound, h.siteURL+failurePath+url.QueryEscape(code))
}

func (h *Handler) webhook(c *gin.Context) {
	body, err := c.GetRawData()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Webhook error"})
		return
	}
	if _, err := h.rec.ReconcileWebhook(c.Request.Context(), body, c.GetHeader(payment.SignatureHeader)); err != nil {
		if errors.Is(err, payment.ErrInvalidSignature) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid signature"})
			return
		}
		logger.Errorf("webhook: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Webhook error"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *Handler) purchases(c *gin.Context) {
	p := middleware.CurrentPrincipal(c)
	list, err := h.rec.Purchases(c.Request.Context(), p.UserID)
	if err != nil {
		logger.Errorf("list purchases for %s: %v", p.UserID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list purchases"})
		return
	}
	c.JSON(http.StatusOK, list)
}
