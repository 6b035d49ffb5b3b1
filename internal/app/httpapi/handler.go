// Package httpapi exposes the application services as a JSON REST API
// under /api/v1, plus /healthz, /metrics, and the per-store websocket
// event stream. Authentication is a bearer token from /auth/login;
// store-scoped routes additionally require a membership in the store
// named by the path.
package httpapi

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	app "github.com/learngermanghana/sedifexbiz-sub004/internal/app"
	"github.com/learngermanghana/sedifexbiz-sub004/internal/app/domain/store"
	"github.com/learngermanghana/sedifexbiz-sub004/internal/app/metrics"
	"github.com/learngermanghana/sedifexbiz-sub004/internal/apperr"
	"github.com/learngermanghana/sedifexbiz-sub004/pkg/logger"
)

// maxBodyBytes caps request bodies. POS payloads are small; a replay
// batch of 100 ops fits comfortably under 1 MB.
const maxBodyBytes = 1 << 20

// Config carries the handler's policy knobs. Every field has a
// workable zero value: no origins means the dev-server defaults, a
// zero rate disables limiting, no admins disables the admin routes.
type Config struct {
	AllowedOrigins []string
	RequestsPerSec float64
	Burst          int
	LoginPerMin    float64
	LoginBurst     int
	AdminUserIDs   []string
	AuditLogPath   string
}

type handler struct {
	app     *app.Application
	log     *logger.Logger
	origins map[string]struct{}
	admins  map[string]struct{}
	limiter *rateLimiter
	login   *rateLimiter
	audits  *auditLog
}

// NewHandler returns the full router. The error is only ever about the
// audit log file; everything else degrades to a safe default.
func NewHandler(application *app.Application, cfg Config, log *logger.Logger) (http.Handler, error) {
	if log == nil {
		log = logger.NewDefault("httpapi")
	}

	h := &handler{
		app:     application,
		log:     log,
		origins: make(map[string]struct{}, len(cfg.AllowedOrigins)),
		admins:  make(map[string]struct{}, len(cfg.AdminUserIDs)),
	}
	for _, o := range cfg.AllowedOrigins {
		h.origins[o] = struct{}{}
	}
	for _, id := range cfg.AdminUserIDs {
		h.admins[id] = struct{}{}
	}
	if cfg.RequestsPerSec > 0 {
		h.limiter = newRateLimiter(cfg.RequestsPerSec, cfg.Burst)
	}
	if cfg.LoginPerMin > 0 {
		h.login = newRateLimiter(cfg.LoginPerMin/60, cfg.LoginBurst)
	}

	sink, err := newFileAuditSink(cfg.AuditLogPath)
	if err != nil {
		return nil, err
	}
	h.audits = newAuditLog(0, sink)

	r := mux.NewRouter()

	r.HandleFunc("/healthz", h.health).Methods(http.MethodGet)
	r.Handle("/metrics", metrics.Handler()).Methods(http.MethodGet)

	api := r.PathPrefix("/api/v1").Subrouter()
	api.Use(h.rateLimit)

	// Public: account creation, login, and the payment provider's
	// webhook, which authenticates with its own HMAC signature.
	api.HandleFunc("/auth/register", h.register).Methods(http.MethodPost)
	api.HandleFunc("/auth/login", h.limitLogin(h.loginUser)).Methods(http.MethodPost)
	api.HandleFunc("/billing/webhook", h.billingWebhook).Methods(http.MethodPost)

	sec := api.PathPrefix("/").Subrouter()
	sec.Use(h.authenticate)
	sec.Use(h.audit)

	sec.HandleFunc("/auth/logout", h.logout).Methods(http.MethodPost)
	sec.HandleFunc("/auth/me", h.me).Methods(http.MethodGet)
	sec.HandleFunc("/auth/me", h.updateProfile).Methods(http.MethodPatch)
	sec.HandleFunc("/auth/password", h.changePassword).Methods(http.MethodPost)

	sec.HandleFunc("/stores", h.createStore).Methods(http.MethodPost)
	sec.HandleFunc("/stores", h.listStores).Methods(http.MethodGet)

	admin := sec.PathPrefix("/admin").Subrouter()
	admin.Use(h.requireAdmin)
	admin.HandleFunc("/audit", h.adminAudit).Methods(http.MethodGet)
	admin.HandleFunc("/status", h.adminStatus).Methods(http.MethodGet)

	st := sec.PathPrefix("/stores/{storeID}").Subrouter()
	st.Use(h.storeAccess)

	st.HandleFunc("", h.getStore).Methods(http.MethodGet)
	st.HandleFunc("", h.requireRole(store.RoleOwner, h.updateStore)).Methods(http.MethodPatch)
	st.HandleFunc("/members", h.listMembers).Methods(http.MethodGet)
	st.HandleFunc("/members", h.requireRole(store.RoleOwner, h.addMember)).Methods(http.MethodPost)
	st.HandleFunc("/members/{userID}", h.requireRole(store.RoleOwner, h.updateMemberRole)).Methods(http.MethodPatch)
	st.HandleFunc("/members/{userID}", h.requireRole(store.RoleOwner, h.removeMember)).Methods(http.MethodDelete)

	st.HandleFunc("/products", h.listProducts).Methods(http.MethodGet)
	st.HandleFunc("/products", h.requireRole(store.RoleManager, h.createProduct)).Methods(http.MethodPost)
	st.HandleFunc("/products/low-stock", h.lowStock).Methods(http.MethodGet)
	st.HandleFunc("/products/{id}", h.getProduct).Methods(http.MethodGet)
	st.HandleFunc("/products/{id}", h.requireRole(store.RoleManager, h.updateProduct)).Methods(http.MethodPatch)
	st.HandleFunc("/products/{id}", h.requireRole(store.RoleManager, h.deleteProduct)).Methods(http.MethodDelete)
	st.HandleFunc("/products/{id}/adjust", h.requireRole(store.RoleManager, h.adjustStock)).Methods(http.MethodPost)

	st.HandleFunc("/stock/receive", h.requireRole(store.RoleManager, h.receiveStock)).Methods(http.MethodPost)
	st.HandleFunc("/stock/movements", h.listMovements).Methods(http.MethodGet)
	st.HandleFunc("/stock/levels", h.stockLevels).Methods(http.MethodGet)

	st.HandleFunc("/sales", h.commitSale).Methods(http.MethodPost)
	st.HandleFunc("/sales", h.listSales).Methods(http.MethodGet)
	st.HandleFunc("/sales/{id}", h.getSale).Methods(http.MethodGet)
	st.HandleFunc("/sales/{id}/void", h.requireRole(store.RoleManager, h.voidSale)).Methods(http.MethodPost)
	st.HandleFunc("/sales/{id}/receipt", h.saleReceipt).Methods(http.MethodGet)

	st.HandleFunc("/customers", h.listCustomers).Methods(http.MethodGet)
	st.HandleFunc("/customers", h.createCustomer).Methods(http.MethodPost)
	st.HandleFunc("/customers/{id}", h.getCustomer).Methods(http.MethodGet)
	st.HandleFunc("/customers/{id}", h.updateCustomer).Methods(http.MethodPatch)
	st.HandleFunc("/customers/{id}", h.requireRole(store.RoleManager, h.deleteCustomer)).Methods(http.MethodDelete)
	st.HandleFunc("/customers/{id}/purchases", h.customerPurchases).Methods(http.MethodGet)

	st.HandleFunc("/expenses", h.requireRole(store.RoleManager, h.listExpenses)).Methods(http.MethodGet)
	st.HandleFunc("/expenses", h.requireRole(store.RoleManager, h.createExpense)).Methods(http.MethodPost)
	st.HandleFunc("/expenses/{id}", h.requireRole(store.RoleManager, h.getExpense)).Methods(http.MethodGet)
	st.HandleFunc("/expenses/{id}", h.requireRole(store.RoleManager, h.updateExpense)).Methods(http.MethodPatch)
	st.HandleFunc("/expenses/{id}", h.requireRole(store.RoleManager, h.deleteExpense)).Methods(http.MethodDelete)

	st.HandleFunc("/finance/summary", h.requireRole(store.RoleManager, h.financeSummary)).Methods(http.MethodGet)
	st.HandleFunc("/finance/daily", h.requireRole(store.RoleManager, h.financeDaily)).Methods(http.MethodGet)
	st.HandleFunc("/finance/export", h.requireRole(store.RoleManager, h.financeExport)).Methods(http.MethodGet)

	st.HandleFunc("/billing", h.getBilling).Methods(http.MethodGet)
	st.HandleFunc("/billing/activate", h.requireRole(store.RoleOwner, h.activateBilling)).Methods(http.MethodPost)
	st.HandleFunc("/billing/cancel", h.requireRole(store.RoleOwner, h.cancelBilling)).Methods(http.MethodPost)

	st.HandleFunc("/sync/replay", h.syncReplay).Methods(http.MethodPost)
	st.HandleFunc("/sync/pull", h.syncPull).Methods(http.MethodGet)
	st.HandleFunc("/events", h.events).Methods(http.MethodGet)

	// CORS wraps outside the router so preflight requests are answered
	// even though no OPTIONS routes are registered.
	var root http.Handler = r
	root = h.cors(root)
	root = metrics.InstrumentHandler(root)
	root = h.logRequests(root)
	return root, nil
}

func (h *handler) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst interface{}) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	defer r.Body.Close()
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return apperr.Invalid("invalid request body: %v", err)
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch apperr.KindOf(err) {
	case apperr.KindInvalid:
		status = http.StatusBadRequest
	case apperr.KindUnauthorized:
		status = http.StatusUnauthorized
	case apperr.KindPaymentRequired:
		status = http.StatusPaymentRequired
	case apperr.KindForbidden:
		status = http.StatusForbidden
	case apperr.KindNotFound:
		status = http.StatusNotFound
	case apperr.KindConflict:
		status = http.StatusConflict
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": err.Error()})
}

// queryTime parses an optional time query parameter, accepting RFC 3339
// or a bare date. A missing parameter is the zero time, which the
// services treat as unbounded.
func queryTime(r *http.Request, key string) (time.Time, error) {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return time.Time{}, nil
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t, nil
	}
	t, err := time.Parse("2006-01-02", raw)
	if err != nil {
		return time.Time{}, apperr.Invalid("%s must be RFC 3339 or YYYY-MM-DD, got %q", key, raw)
	}
	return t, nil
}
