package http

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/shopworks/order-service/internal/catalog/application"
	"github.com/shopworks/order-service/internal/catalog/domain"
	"github.com/shopworks/order-service/pkg/database"
)

// ProductService is the caller boundary consumed by this handler.
type ProductService interface {
	CreateProduct(ctx context.Context, in application.CreateProductInput) (*domain.Product, error)
	CreateProducts(ctx context.Context, ins []application.CreateProductInput) ([]*domain.Product, error)
	UpdateProduct(ctx context.Context, in application.UpdateProductInput) (*domain.Product, error)
	UpdateProducts(ctx context.Context, ins []application.UpdateProductInput) ([]*domain.Product, error)
	DeleteProduct(ctx context.Context, id uuid.UUID) error
	DeleteProducts(ctx context.Context, ids []uuid.UUID) error
	GetProduct(ctx context.Context, id uuid.UUID) (*domain.Product, error)
	ListProducts(ctx context.Context, limit, offset int) ([]*domain.Product, error)
}

type Handler struct {
	log     *slog.Logger
	service ProductService
}

func NewHandler(log *slog.Logger, service ProductService) *Handler {
	return &Handler{log: log, service: service}
}

type productReq struct {
	Name          string `json:"name"`
	PriceCents    int64  `json:"price_cents"`
	StockQuantity int    `json:"stock_quantity"`
}

type updateProductReq struct {
	Name          *string `json:"name,omitempty"`
	PriceCents    *int64  `json:"price_cents,omitempty"`
	StockQuantity *int    `json:"stock_quantity,omitempty"`
}

type batchUpdateReq struct {
	ID            string  `json:"id"`
	Name          *string `json:"name,omitempty"`
	PriceCents    *int64  `json:"price_cents,omitempty"`
	StockQuantity *int    `json:"stock_quantity,omitempty"`
}

type productResp struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	PriceCents    int64  `json:"price_cents"`
	StockQuantity int    `json:"stock_quantity"`
}

func (h *Handler) Register(r chi.Router) {
	r.Post("/products", h.createProduct)
	r.Post("/products/batch", h.createProducts)
	r.Put("/products/batch", h.updateProducts)
	r.Get("/products", h.listProducts)
	r.Get("/products/{id}", h.getProduct)
	r.Put("/products/{id}", h.updateProduct)
	r.Delete("/products/{id}", h.deleteProduct)
	r.Post("/products/batch-delete", h.deleteProducts)
}

func (h *Handler) createProduct(w http.ResponseWriter, r *http.Request) {
	var req productReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	p, err := h.service.CreateProduct(r.Context(), application.CreateProductInput{
		Name:          req.Name,
		PriceCents:    req.PriceCents,
		StockQuantity: req.StockQuantity,
	})
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toProductResp(p))
}

func (h *Handler) createProducts(w http.ResponseWriter, r *http.Request) {
	var reqs []productReq
	if err := json.NewDecoder(r.Body).Decode(&reqs); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	ins := make([]application.CreateProductInput, 0, len(reqs))
	for _, req := range reqs {
		ins = append(ins, application.CreateProductInput{
			Name:          req.Name,
			PriceCents:    req.PriceCents,
			StockQuantity: req.StockQuantity,
		})
	}
	ps, err := h.service.CreateProducts(r.Context(), ins)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	out := make([]productResp, 0, len(ps))
	for _, p := range ps {
		out = append(out, toProductResp(p))
	}
	writeJSON(w, http.StatusCreated, out)
}

func (h *Handler) updateProducts(w http.ResponseWriter, r *http.Request) {
	var reqs []batchUpdateReq
	if err := json.NewDecoder(r.Body).Decode(&reqs); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	ins := make([]application.UpdateProductInput, 0, len(reqs))
	for _, req := range reqs {
		id, err := uuid.Parse(req.ID)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid product id: "+req.ID)
			return
		}
		ins = append(ins, application.UpdateProductInput{
			ID:            id,
			Name:          req.Name,
			PriceCents:    req.PriceCents,
			StockQuantity: req.StockQuantity,
		})
	}
	ps, err := h.service.UpdateProducts(r.Context(), ins)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	out := make([]productResp, 0, len(ps))
	for _, p := range ps {
		out = append(out, toProductResp(p))
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Handler) listProducts(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))
	ps, err := h.service.ListProducts(r.Context(), limit, offset)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	out := make([]productResp, 0, len(ps))
	for _, p := range ps {
		out = append(out, toProductResp(p))
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Handler) getProduct(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid product id")
		return
	}
	p, err := h.service.GetProduct(r.Context(), id)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toProductResp(p))
}

func (h *Handler) updateProduct(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid product id")
		return
	}
	var req updateProductReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	p, err := h.service.UpdateProduct(r.Context(), application.UpdateProductInput{
		ID:            id,
		Name:          req.Name,
		PriceCents:    req.PriceCents,
		StockQuantity: req.StockQuantity,
	})
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toProductResp(p))
}

func (h *Handler) deleteProduct(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid product id")
		return
	}
	if err := h.service.DeleteProduct(r.Context(), id); err != nil {
		h.writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) deleteProducts(w http.ResponseWriter, r *http.Request) {
	var raw []string
	if err := json.NewDecoder(r.Body).Decode(&raw); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	ids := make([]uuid.UUID, 0, len(raw))
	for _, s := range raw {
		id, err := uuid.Parse(s)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid product id: "+s)
			return
		}
		ids = append(ids, id)
	}
	if err := h.service.DeleteProducts(r.Context(), ids); err != nil {
		h.writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) writeServiceError(w http.ResponseWriter, err error) {
	var (
		dupErr        *domain.DuplicateNameError
		validationErr *domain.ValidationError
	)
	switch {
	case errors.As(err, &validationErr):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.As(err, &dupErr), errors.Is(err, domain.ErrProductInUse), errors.Is(err, database.ErrConflict):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, database.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	default:
		h.log.Error("product request failed", "err", err)
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func toProductResp(p *domain.Product) productResp {
	return productResp{
		ID:            p.ID.String(),
		Name:          p.Name,
		PriceCents:    p.PriceCents,
		StockQuantity: p.StockQuantity,
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
