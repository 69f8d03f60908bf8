package http

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	catalog "github.com/shopworks/order-service/internal/catalog/domain"
	"github.com/shopworks/order-service/internal/order/application"
	"github.com/shopworks/order-service/internal/order/domain"
	"github.com/shopworks/order-service/pkg/database"
	"github.com/shopworks/order-service/pkg/retry"
)

// OrderService is the caller boundary consumed by this handler.
type OrderService interface {
	CreateOrder(ctx context.Context, items []application.OrderItem) (*domain.Order, error)
	GetOrder(ctx context.Context, id uuid.UUID) (*domain.Order, error)
	PayOrder(ctx context.Context, id uuid.UUID) error
	CancelOrder(ctx context.Context, id uuid.UUID) error
}

type Handler struct {
	log     *slog.Logger
	service OrderService
	tracer  trace.Tracer
}

func NewHandler(log *slog.Logger, service OrderService) *Handler {
	return &Handler{
		log:     log,
		service: service,
		tracer:  otel.Tracer("order-http"),
	}
}

type orderItemReq struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
}

type createOrderReq struct {
	Items []orderItemReq `json:"items"`
}

type orderLineResp struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
}

type orderResp struct {
	ID        string          `json:"id"`
	Status    string          `json:"status"`
	CreatedAt time.Time       `json:"created_at"`
	PaidAt    *time.Time      `json:"paid_at,omitempty"`
	Lines     []orderLineResp `json:"lines"`
}

func (h *Handler) Register(r chi.Router) {
	r.Post("/orders", h.createOrder)
	r.Get("/orders/{id}", h.getOrder)
	r.Post("/orders/{id}/pay", h.payOrder)
	r.Post("/orders/{id}/cancel", h.cancelOrder)
}

func (h *Handler) createOrder(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "CreateOrder")
	defer span.End()

	var req createOrderReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	items := make([]application.OrderItem, 0, len(req.Items))
	for _, it := range req.Items {
		pid, err := uuid.Parse(it.ProductID)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid product id: "+it.ProductID)
			return
		}
		items = append(items, application.OrderItem{ProductID: pid, Quantity: it.Quantity})
	}

	order, err := h.service.CreateOrder(ctx, items)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toOrderResp(order))
}

func (h *Handler) getOrder(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid order id")
		return
	}
	order, err := h.service.GetOrder(r.Context(), id)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toOrderResp(order))
}

func (h *Handler) payOrder(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, "PayOrder", h.service.PayOrder)
}

func (h *Handler) cancelOrder(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, "CancelOrder", h.service.CancelOrder)
}

func (h *Handler) transition(w http.ResponseWriter, r *http.Request, name string, op func(context.Context, uuid.UUID) error) {
	ctx, span := h.tracer.Start(r.Context(), name)
	defer span.End()

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid order id")
		return
	}
	if err := op(ctx, id); err != nil {
		h.writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) writeServiceError(w http.ResponseWriter, err error) {
	var (
		stockErr      *domain.StockError
		stateErr      *domain.StateError
		exhaustedErr  *retry.ExhaustedError
		validationErr *catalog.ValidationError
	)
	switch {
	case errors.As(err, &stockErr), errors.As(err, &validationErr):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.As(err, &stateErr), errors.As(err, &exhaustedErr):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, database.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	default:
		h.log.Error("order request failed", "err", err)
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func toOrderResp(o *domain.Order) orderResp {
	lines := make([]orderLineResp, 0, len(o.Lines))
	for _, line := range o.Lines {
		lines = append(lines, orderLineResp{ProductID: line.ProductID.String(), Quantity: line.Quantity})
	}
	return orderResp{
		ID:        o.ID.String(),
		Status:    string(o.Status),
		CreatedAt: o.CreatedAt,
		PaidAt:    o.PaidAt,
		Lines:     lines,
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
