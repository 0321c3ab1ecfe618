package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"mime"
	"net/http"
	"strconv"
	"strings"

	"github.com/example/wholesale-clothing/internal/command"
	"github.com/example/wholesale-clothing/internal/domain/inventory"
	"github.com/example/wholesale-clothing/internal/domain/product"
	"github.com/example/wholesale-clothing/internal/fulfillment"
	"github.com/example/wholesale-clothing/internal/infrastructure/store"
	"github.com/example/wholesale-clothing/internal/query"
	"github.com/gorilla/mux"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type Handlers struct {
	cmdHandler   *command.Handler
	queryHandler *query.Handler
	logger       *zap.Logger
}

func NewHandlers(cmdHandler *command.Handler, queryHandler *query.Handler, logger *zap.Logger) *Handlers {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handlers{
		cmdHandler:   cmdHandler,
		queryHandler: queryHandler,
		logger:       logger,
	}
}

// Order Handlers

type placeOrderRequest struct {
	ProductID    string `json:"product_id"`
	CustomerName string `json:"customer_name"`
	Quantity     int    `json:"quantity"`
	OrderDate    string `json:"order_date"`
}

type orderResponse struct {
	Status            string             `json:"status"`
	Message           string             `json:"message"`
	OrderID           int64              `json:"order_id,omitempty"`
	RemainingQuantity *int               `json:"remaining_quantity,omitempty"`
	Reason            fulfillment.Reason `json:"reason,omitempty"`
}

// PlaceOrder accepts a form post or a JSON body.
func (h *Handlers) PlaceOrder(w http.ResponseWriter, r *http.Request) {
	var req placeOrderRequest
	if isJSON(r) {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respondOrder(w, http.StatusBadRequest, orderResponse{Status: "error", Reason: fulfillment.ReasonInvalidInput, Message: "invalid request body"})
			return
		}
	} else {
		if err := r.ParseForm(); err != nil {
			respondOrder(w, http.StatusBadRequest, orderResponse{Status: "error", Reason: fulfillment.ReasonInvalidInput, Message: "invalid form"})
			return
		}
		qty, err := formInt(r, "quantity")
		if err != nil {
			respondOrder(w, http.StatusBadRequest, orderResponse{Status: "error", Reason: fulfillment.ReasonInvalidInput, Message: err.Error()})
			return
		}
		req = placeOrderRequest{
			ProductID:    r.PostFormValue("product_id"),
			CustomerName: r.PostFormValue("customer_name"),
			Quantity:     qty,
			OrderDate:    r.PostFormValue("order_date"),
		}
	}

	out := h.cmdHandler.PlaceOrder(r.Context(), command.PlaceOrder{
		ProductID:    strings.TrimSpace(req.ProductID),
		CustomerName: req.CustomerName,
		Quantity:     req.Quantity,
		OrderDate:    req.OrderDate,
	})
	if !out.Accepted() {
		respondOrder(w, rejectionStatus(out.Reason), orderResponse{Status: "error", Reason: out.Reason, Message: out.Message})
		return
	}

	remaining := out.Remaining
	respondOrder(w, http.StatusCreated, orderResponse{
		Status:            "success",
		Message:           "Order placed successfully",
		OrderID:           out.OrderID,
		RemainingQuantity: &remaining,
	})
}

func rejectionStatus(reason fulfillment.Reason) int {
	switch reason {
	case fulfillment.ReasonInvalidInput:
		return http.StatusBadRequest
	case fulfillment.ReasonProductNotFound:
		return http.StatusNotFound
	case fulfillment.ReasonInsufficientStock:
		return http.StatusConflict
	case fulfillment.ReasonLedgerUnavailable:
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

func (h *Handlers) GetOrders(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			respondJSONError(w, "limit must be a non-negative integer", http.StatusBadRequest)
			return
		}
		limit = n
	}

	orders, err := h.queryHandler.ListRecentOrders(r.Context(), limit)
	if err != nil {
		h.serverError(w, "list orders", err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"orders": orders})
}

// Product Handlers

type productRequest struct {
	Name     string          `json:"name"`
	Category string          `json:"category"`
	Size     string          `json:"size"`
	Quantity int             `json:"quantity"`
	Price    decimal.Decimal `json:"price"`
}

func decodeProduct(r *http.Request, withQuantity bool) (productRequest, error) {
	var req productRequest
	if isJSON(r) {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			return req, errors.New("invalid request body")
		}
		return req, nil
	}

	if err := r.ParseForm(); err != nil {
		return req, errors.New("invalid form")
	}
	req.Name = r.PostFormValue("name")
	req.Category = r.PostFormValue("category")
	req.Size = r.PostFormValue("size")

	price, err := decimal.NewFromString(strings.TrimSpace(r.PostFormValue("price")))
	if err != nil {
		return req, errors.New("price must be a decimal number")
	}
	req.Price = price

	if withQuantity {
		if req.Quantity, err = formInt(r, "quantity"); err != nil {
			return req, err
		}
	}
	return req, nil
}

// CreateProduct serves /add_product.
func (h *Handlers) CreateProduct(w http.ResponseWriter, r *http.Request) {
	req, err := decodeProduct(r, true)
	if err != nil {
		respondJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}

	p, err := h.cmdHandler.CreateProduct(r.Context(), command.CreateProduct{
		Name:     req.Name,
		Category: req.Category,
		Size:     req.Size,
		Quantity: req.Quantity,
		Price:    req.Price,
	})
	if err != nil {
		h.respondCommandError(w, "create product", err)
		return
	}

	respondJSON(w, http.StatusCreated, map[string]any{
		"status":  "success",
		"message": "Product added successfully",
		"product": p,
	})
}

func (h *Handlers) GetInventory(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]any{"inventory": h.queryHandler.ListInventory()})
}

func (h *Handlers) GetProduct(w http.ResponseWriter, r *http.Request) {
	p, ok := h.queryHandler.GetProduct(mux.Vars(r)["id"])
	if !ok {
		respondJSONError(w, "product not found", http.StatusNotFound)
		return
	}
	respondJSON(w, http.StatusOK, p)
}

func (h *Handlers) GetProductOrders(w http.ResponseWriter, r *http.Request) {
	orders, err := h.queryHandler.ListOrdersByProduct(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		h.respondCommandError(w, "list product orders", err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"orders": orders})
}

func (h *Handlers) UpdateProduct(w http.ResponseWriter, r *http.Request) {
	req, err := decodeProduct(r, false)
	if err != nil {
		respondJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}

	cmd := command.UpdateProduct{
		ProductID: mux.Vars(r)["id"],
		Name:      req.Name,
		Category:  req.Category,
		Size:      req.Size,
		Price:     req.Price,
	}
	if err := h.cmdHandler.UpdateProduct(r.Context(), cmd); err != nil {
		h.respondCommandError(w, "update product", err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{"status": "success", "message": "Product updated"})
}

func (h *Handlers) DeleteProduct(w http.ResponseWriter, r *http.Request) {
	cmd := command.DeleteProduct{ProductID: mux.Vars(r)["id"]}
	if err := h.cmdHandler.DeleteProduct(r.Context(), cmd); err != nil {
		h.respondCommandError(w, "delete product", err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{"status": "success", "message": "Product deleted"})
}

func (h *Handlers) Restock(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Quantity int `json:"quantity"`
	}
	if isJSON(r) {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respondJSONError(w, "invalid request body", http.StatusBadRequest)
			return
		}
	} else {
		qty, err := formInt(r, "quantity")
		if err != nil {
			respondJSONError(w, err.Error(), http.StatusBadRequest)
			return
		}
		req.Quantity = qty
	}

	cmd := command.Restock{ProductID: mux.Vars(r)["id"], Quantity: req.Quantity}
	if err := h.cmdHandler.Restock(r.Context(), cmd); err != nil {
		h.respondCommandError(w, "restock", err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{"status": "success", "message": "Stock added"})
}

func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Helper functions

func (h *Handlers) respondCommandError(w http.ResponseWriter, op string, err error) {
	switch {
	case errors.Is(err, product.ErrProductNotFound), errors.Is(err, inventory.ErrProductNotFound):
		respondJSONError(w, "product not found", http.StatusNotFound)
	case errors.Is(err, product.ErrInvalidName),
		errors.Is(err, product.ErrInvalidPrice),
		errors.Is(err, product.ErrInvalidQuantity),
		errors.Is(err, inventory.ErrInvalidQuantity),
		errors.Is(err, inventory.ErrQuantityOverflow):
		respondJSONError(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, command.ErrProductReferenced),
		errors.Is(err, inventory.ErrReservationsInFlight),
		errors.Is(err, store.ErrVersionConflict):
		respondJSONError(w, err.Error(), http.StatusConflict)
	default:
		h.serverError(w, op, err)
	}
}

func (h *Handlers) serverError(w http.ResponseWriter, op string, err error) {
	h.logger.Error(op+" failed", zap.Error(err))
	respondJSONError(w, "internal error", http.StatusInternalServerError)
}

func isJSON(r *http.Request) bool {
	mt, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	return err == nil && mt == "application/json"
}

func formInt(r *http.Request, field string) (int, error) {
	v := strings.TrimSpace(r.PostFormValue(field))
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer", field)
	}
	return n, nil
}

func respondOrder(w http.ResponseWriter, status int, body orderResponse) {
	respondJSON(w, status, body)
}

func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func respondJSONError(w http.ResponseWriter, message string, status int) {
	respondJSON(w, status, map[string]string{"status": "error", "error": message})
}
