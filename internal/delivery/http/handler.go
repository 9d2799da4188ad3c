package http

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/egannguyen/tica-shop/internal/auth"
	"github.com/egannguyen/tica-shop/internal/entity"
	"github.com/egannguyen/tica-shop/internal/service"
)

// Pinger reports whether the database is reachable.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// Deps are the collaborators the handler serves.
type Deps struct {
	Catalog  *service.CatalogService
	Carts    *service.CartService
	Orders   *service.OrderService
	Users    *service.UserService
	Sessions *auth.Sessions
	DB       Pinger
	// DevLogin exposes POST /api/auth/dev-login.
	DevLogin bool

	// AllowedOrigins are the frontends allowed to send the session cookie.
	AllowedOrigins []string
}

// Handler handles HTTP requests for the application.
type Handler struct {
	Deps
}

func NewHandler(deps Deps) *Handler {
	return &Handler{Deps: deps}
}

func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /healthz", h.handleHealth)

	mux.HandleFunc("GET /api/products", h.handleListProducts)
	mux.HandleFunc("GET /api/products/{id}", h.handleGetProduct)
	mux.HandleFunc("POST /api/cart/quote", h.handleQuoteCart)
	mux.HandleFunc("POST /api/cart/checkout", h.handleCheckout)

	mux.HandleFunc("POST /api/orders", h.handleCreateOrder)
	mux.HandleFunc("GET /api/orders", auth.Require(auth.CapListOrders, h.handleListOrders))
	mux.HandleFunc("GET /api/orders/{id}", auth.Require(auth.CapViewOrder, h.handleGetOrder))
	mux.HandleFunc("PATCH /api/orders/{id}/status", auth.Require(auth.CapUpdateOrderStatus, h.handleUpdateOrderStatus))

	mux.HandleFunc("GET /api/auth/me", h.handleMe)
	mux.HandleFunc("POST /api/auth/logout", h.handleLogout)
	if h.DevLogin {
		slog.Warn("Development sign-in enabled at POST /api/auth/dev-login")
		mux.HandleFunc("POST /api/auth/dev-login", h.handleDevLogin)
	}
}

// Routes returns the full middleware chain around a fresh mux.
func (h *Handler) Routes() http.Handler {
	mux := http.NewServeMux()
	h.RegisterRoutes(mux)

	var handler http.Handler = mux
	if h.Sessions != nil {
		handler = h.Sessions.Middleware(handler)
	}
	return RequestID(Logging(EnableCORS(h.AllowedOrigins)(handler)))
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	if h.DB != nil {
		if err := h.DB.PingContext(r.Context()); err != nil {
			slog.Error("Health check failed", "err", err)
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) handleListProducts(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.Catalog.ListProducts(r.Context()))
}

func (h *Handler) handleGetProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	p, err := h.Catalog.GetProduct(r.Context(), id)
	if errors.Is(err, service.ErrNotFound) {
		writeJSON(w, http.StatusOK, nil)
		return
	}
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

type quoteRequest struct {
	Items []service.QuoteLine `json:"items"`
}

func (h *Handler) handleQuoteCart(w http.ResponseWriter, r *http.Request) {
	var req quoteRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	q, err := h.Carts.Quote(r.Context(), req.Items)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, q)
}

type createOrderResponse struct {
	Success bool  `json:"success"`
	OrderID int64 `json:"orderId"`
}

func (h *Handler) handleCreateOrder(w http.ResponseWriter, r *http.Request) {
	var cmd entity.PlaceOrder
	if !decodeJSON(w, r, &cmd) {
		return
	}

	res, err := h.Orders.PlaceOrder(r.Context(), &cmd)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, createOrderResponse{Success: true, OrderID: res.OrderID})
}

type checkoutRequest struct {
	Items []service.QuoteLine `json:"items"`
	entity.Customer
	PaymentMethod string `json:"paymentMethod"`
}

// handleCheckout places an order priced on the server from cart lines.
func (h *Handler) handleCheckout(w http.ResponseWriter, r *http.Request) {
	var req checkoutRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	cmd, err := h.Carts.Checkout(r.Context(), req.Items, req.Customer, req.PaymentMethod)
	if err != nil {
		writeError(w, r, err)
		return
	}
	res, err := h.Orders.PlaceOrder(r.Context(), cmd)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, createOrderResponse{Success: true, OrderID: res.OrderID})
}

func (h *Handler) handleListOrders(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.Orders.ListOrders(r.Context()))
}

func (h *Handler) handleGetOrder(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	detail, err := h.Orders.GetOrder(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, detail)
}

type updateStatusRequest struct {
	Status string `json:"status"`
}

func (h *Handler) handleUpdateOrderStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var req updateStatusRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	next, err := entity.ParseOrderStatus(req.Status)
	if err != nil {
		writeInvalid(w, err.Error(), []service.FieldError{{Field: "status", Message: "unknown status"}})
		return
	}

	detail, err := h.Orders.UpdateStatus(r.Context(), id, next)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, detail)
}

func (h *Handler) handleMe(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, auth.ViewerFrom(r.Context()))
}

func (h *Handler) handleLogout(w http.ResponseWriter, r *http.Request) {
	if err := h.Sessions.Logout(w, r); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

type devLoginRequest struct {
	OpenID string `json:"openId"`
	Name   string `json:"name"`
	Email  string `json:"email"`
}

func (h *Handler) handleDevLogin(w http.ResponseWriter, r *http.Request) {
	var req devLoginRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	u, err := h.Users.SignIn(r.Context(), &entity.User{
		OpenID:      req.OpenID,
		Name:        req.Name,
		Email:       req.Email,
		LoginMethod: "dev",
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := h.Sessions.Login(w, r, u); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, u)
}

func pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id < 1 {
		writeInvalid(w, "id must be a positive integer", []service.FieldError{{Field: "id", Message: "must be a positive integer"}})
		return 0, false
	}
	return id, true
}
