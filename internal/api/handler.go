package api

import (
	"net/http"
	"time"

	"boutique-be/internal/admin"
	"boutique-be/internal/inventory"
	"boutique-be/internal/middleware"
	"boutique-be/internal/order"
	"boutique-be/internal/product"
	"boutique-be/internal/reconciliation"
	"boutique-be/internal/user"
)

// Handler serves the JSON API on top of the domain services.
type Handler struct {
	Users          user.Service
	Products       product.Service
	Inventory      inventory.Service
	Orders         order.Service
	Reconciliation reconciliation.Service
	Admin          admin.Service

	// Webhook receives provider events; it authenticates by signature.
	Webhook http.HandlerFunc

	// ReconcileAfter is the age at which an unconsumed payment is swept.
	ReconcileAfter time.Duration
	SecureCookies  bool
}

func (h *Handler) Routes() *http.ServeMux {
	mux := http.NewServeMux()
	authed := func(fn http.HandlerFunc) http.Handler { return middleware.RequireAuth(fn) }
	adminOnly := func(fn http.HandlerFunc) http.Handler { return middleware.RequireAdmin(fn) }

	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})

	mux.HandleFunc("POST /api/auth/register", h.register)
	mux.HandleFunc("POST /api/auth/login", h.login)
	mux.HandleFunc("POST /api/auth/logout", h.logout)
	mux.Handle("GET /api/auth/me", authed(h.me))

	mux.HandleFunc("GET /api/products", h.listProducts)
	mux.HandleFunc("GET /api/products/{id}", h.getProduct)
	mux.HandleFunc("GET /api/products/{id}/variants/{size}", h.getVariant)

	mux.Handle("POST /api/payments/intents", authed(h.createPaymentIntent))
	mux.Handle("POST /api/orders", authed(h.placeOrder))
	mux.Handle("GET /api/orders", authed(h.listOrders))
	mux.Handle("GET /api/orders/{id}", authed(h.getOrder))

	if h.Webhook != nil {
		mux.HandleFunc("POST /webhooks/stripe", h.Webhook)
	}

	mux.Handle("POST /api/admin/products", adminOnly(h.createProduct))
	mux.Handle("PUT /api/admin/products/{id}", adminOnly(h.updateProduct))
	mux.Handle("DELETE /api/admin/products/{id}", adminOnly(h.deleteProduct))
	mux.Handle("POST /api/admin/products/{id}/variants/{size}/restock", adminOnly(h.restock))
	mux.Handle("GET /api/admin/inventory/low-stock", adminOnly(h.lowStock))

	mux.Handle("PATCH /api/admin/orders/{id}/status", adminOnly(h.updateOrderStatus))
	mux.Handle("GET /api/admin/orders/recent", adminOnly(h.recentOrders))
	mux.Handle("GET /api/admin/stats", adminOnly(h.stats))

	mux.Handle("GET /api/admin/reconciliations", adminOnly(h.listReconciliations))
	mux.Handle("POST /api/admin/reconciliations/sweep", adminOnly(h.sweepReconciliations))
	mux.Handle("POST /api/admin/reconciliations/{id}/refund", adminOnly(h.refundReconciliation))
	mux.Handle("POST /api/admin/reconciliations/{id}/resolve", adminOnly(h.resolveReconciliation))

	return mux
}
