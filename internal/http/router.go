package httpx

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/alimagdye/product-management-api/internal/repository"
	"github.com/alimagdye/product-management-api/internal/service/auth"
	"github.com/alimagdye/product-management-api/internal/service/product"
	"github.com/alimagdye/product-management-api/internal/service/update"
	"github.com/alimagdye/product-management-api/pkg/config"
)

// Router wires HTTP endpoints to services.
type Router struct {
	mux     *http.ServeMux
	logger  *slog.Logger
	auth    auth.Service
	product product.Service
	update  update.Service
	limiter RateLimiter
	cfg     config.APIConfig

	dbHealth func(context.Context) error

	metricsOnce        sync.Once
	metricsInitialized bool
	requestTotal       *prometheus.CounterVec
	requestLatency     *prometheus.HistogramVec
	rateLimitHits      *prometheus.CounterVec
}

const (
	rateWindowDefault  = time.Minute
	rateLimitSignup    = 5
	rateLimitLogin     = 12
	rateLimitUserWrite = 60
	healthCheckTimeout = 2 * time.Second
)

// NewRouter assembles routes with dependencies.
func NewRouter(logger *slog.Logger, authSvc auth.Service, productSvc product.Service, updateSvc update.Service, limiter RateLimiter, cfg config.APIConfig, dbHealth func(context.Context) error) *Router {
	r := &Router{
		mux:      http.NewServeMux(),
		logger:   logger,
		auth:     authSvc,
		product:  productSvc,
		update:   updateSvc,
		limiter:  limiter,
		cfg:      cfg,
		dbHealth: dbHealth,
	}
	if r.limiter == nil {
		r.limiter = NewMemoryRateLimiter()
	}
	r.initMetrics()
	r.register()
	return r
}

// ServeHTTP delegates to underlying mux.
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	r.mux.ServeHTTP(w, req)
}

// Close releases background resources.
func (r *Router) Close() {
	if r.limiter != nil {
		r.limiter.Close()
	}
}

func (r *Router) register() {
	r.mux.HandleFunc("/healthz", r.audit(r.handleHealthz))
	r.mux.Handle("/metrics", promhttp.Handler())
	r.mux.HandleFunc("/signup", r.audit(r.withRateLimit("signup", rateLimitSignup, rateWindowDefault, rateLimitKeyIP, r.handleSignup)))
	r.mux.HandleFunc("/login", r.audit(r.withRateLimit("login", rateLimitLogin, rateWindowDefault, rateLimitKeyIP, r.handleLogin)))
	r.mux.HandleFunc("/api/products", r.audit(r.handlerAuthRate("products", rateLimitUserWrite, rateWindowDefault, r.handleProducts)))
	r.mux.HandleFunc("/api/products/", r.audit(r.handlerAuthRate("product", rateLimitUserWrite, rateWindowDefault, r.handleProductByID)))
	r.mux.HandleFunc("/api/updates", r.audit(r.handlerAuthRate("updates", rateLimitUserWrite, rateWindowDefault, r.handleUpdates)))
	r.mux.HandleFunc("/api/updates/", r.audit(r.handlerAuthRate("update", rateLimitUserWrite, rateWindowDefault, r.handleUpdateByID)))
}

func (r *Router) handleSignup(w http.ResponseWriter, req *http.Request) {
	if req.Method != http.MethodPost {
		r.methodNotAllowed(w)
		return
	}
	var payload struct {
		Username string `json:"username"`
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(req.Body).Decode(&payload); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	var errs []string
	if strings.TrimSpace(payload.Username) == "" {
		errs = append(errs, "name must be a string")
	}
	if !validEmail(payload.Email) {
		errs = append(errs, "email must be a valid email")
	}
	if len(payload.Password) < 6 {
		errs = append(errs, "password must be at least 6 characters long")
	}
	if len(errs) > 0 {
		writeFieldErrors(w, errs)
		return
	}
	user, token, err := r.auth.Signup(req.Context(), payload.Username, payload.Email, payload.Password)
	if err != nil {
		if errors.Is(err, auth.ErrUserExists) {
			writeError(w, http.StatusBadRequest, "Username or email already exists")
			return
		}
		writeError(w, http.StatusBadRequest, "User creation failed")
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{
		"message": "sign up successful",
		"user": map[string]any{
			"id":       user.ID,
			"username": user.Username,
			"email":    user.Email,
		},
		"token": token,
	})
}

func (r *Router) handleLogin(w http.ResponseWriter, req *http.Request) {
	if req.Method != http.MethodPost {
		r.methodNotAllowed(w)
		return
	}
	var payload struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(req.Body).Decode(&payload); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	var errs []string
	if strings.TrimSpace(payload.Username) == "" {
		errs = append(errs, "name must be a string")
	}
	if len(payload.Password) < 6 {
		errs = append(errs, "password must be at least 6 characters long")
	}
	if len(errs) > 0 {
		writeFieldErrors(w, errs)
		return
	}
	user, token, err := r.auth.Login(req.Context(), payload.Username, payload.Password)
	if err != nil {
		switch {
		case errors.Is(err, auth.ErrInvalidCredentials):
			writeError(w, http.StatusUnauthorized, "Incorrect password or username")
		case errors.Is(err, auth.ErrLookupFailed):
			writeError(w, http.StatusInternalServerError, "DB connection error")
		default:
			writeError(w, http.StatusInternalServerError, "unexpected internal server error")
		}
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"message": "login successful",
		"user": map[string]any{
			"id":       user.ID,
			"username": user.Username,
		},
		"token": token,
	})
}

func (r *Router) handleProducts(w http.ResponseWriter, req *http.Request) {
	info, ok := authInfoFromContext(req.Context())
	if !ok {
		r.logger.Error("auth context missing for products route", "path", req.URL.Path)
		writeError(w, http.StatusInternalServerError, "authorization context missing")
		return
	}
	switch req.Method {
	case http.MethodGet:
		products, err := r.product.List(req.Context(), info.UserID)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "Error while getting products")
			return
		}
		writeData(w, http.StatusOK, "got all products successfully", products)
	case http.MethodPost:
		var payload struct {
			Name        *string  `json:"name"`
			Description *string  `json:"description"`
			Price       *float64 `json:"price"`
		}
		if err := json.NewDecoder(req.Body).Decode(&payload); err != nil {
			writeError(w, http.StatusBadRequest, "invalid JSON body")
			return
		}
		var errs []string
		if payload.Name == nil || len(*payload.Name) > maxNameLength {
			errs = append(errs, "name must be a string with length less than 255")
		}
		if payload.Description == nil {
			errs = append(errs, "description must be a string")
		}
		if payload.Price == nil {
			errs = append(errs, "price must be a valid number")
		}
		if len(errs) > 0 {
			writeFieldErrors(w, errs)
			return
		}
		created, err := r.product.Create(req.Context(), info.UserID, product.CreateInput{
			Name:        *payload.Name,
			Description: *payload.Description,
			Price:       *payload.Price,
		})
		if err != nil {
			writeError(w, http.StatusInternalServerError, "Error while creating product")
			return
		}
		writeData(w, http.StatusCreated, "product created successfully", created)
	default:
		r.methodNotAllowed(w)
	}
}

func (r *Router) handleProductByID(w http.ResponseWriter, req *http.Request) {
	info, ok := authInfoFromContext(req.Context())
	if !ok {
		r.logger.Error("auth context missing for product route", "path", req.URL.Path)
		writeError(w, http.StatusInternalServerError, "authorization context missing")
		return
	}
	productID := strings.TrimPrefix(req.URL.Path, "/api/products/")
	if productID == "" || strings.Contains(productID, "/") {
		r.notFound(w)
		return
	}
	if !validUUID(productID) {
		writeFieldErrors(w, []string{"Invalid product id format"})
		return
	}
	switch req.Method {
	case http.MethodGet:
		prod, err := r.product.Get(req.Context(), productID, info.UserID)
		if err != nil {
			if isNotFound(err) {
				writeError(w, http.StatusBadRequest, "Product not found")
				return
			}
			writeError(w, http.StatusInternalServerError, "Error while getting product")
			return
		}
		writeData(w, http.StatusOK, "got the product successfully", prod)
	case http.MethodPut:
		var payload struct {
			Name        *string  `json:"name"`
			Description *string  `json:"description"`
			Price       *float64 `json:"price"`
		}
		if err := json.NewDecoder(req.Body).Decode(&payload); err != nil {
			writeError(w, http.StatusBadRequest, "invalid JSON body")
			return
		}
		if payload.Name != nil && len(*payload.Name) > maxNameLength {
			writeFieldErrors(w, []string{"name must be a string with length less than 255"})
			return
		}
		updated, err := r.product.Update(req.Context(), productID, info.UserID, product.UpdateInput{
			Name:        payload.Name,
			Description: payload.Description,
			Price:       payload.Price,
		})
		if err != nil {
			switch {
			case errors.Is(err, product.ErrNoFields):
				writeError(w, http.StatusBadRequest, "No fields provided for update")
			case isNotFound(err):
				writeError(w, http.StatusBadRequest, "error: product not found")
			default:
				writeError(w, http.StatusInternalServerError, "error while updating product")
			}
			return
		}
		writeData(w, http.StatusCreated, "Product updated successfully", updated)
	case http.MethodDelete:
		deleted, err := r.product.Delete(req.Context(), productID, info.UserID)
		if err != nil {
			if isNotFound(err) {
				writeError(w, http.StatusBadRequest, "error: product not found")
				return
			}
			writeError(w, http.StatusInternalServerError, "Error while deleting product")
			return
		}
		writeData(w, http.StatusCreated, "Product deleted successfully", deleted)
	default:
		r.methodNotAllowed(w)
	}
}

func (r *Router) handleUpdates(w http.ResponseWriter, req *http.Request) {
	info, ok := authInfoFromContext(req.Context())
	if !ok {
		r.logger.Error("auth context missing for updates route", "path", req.URL.Path)
		writeError(w, http.StatusInternalServerError, "authorization context missing")
		return
	}
	switch req.Method {
	case http.MethodGet:
		updates, err := r.update.List(req.Context(), info.UserID)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "Error while getting updates")
			return
		}
		writeData(w, http.StatusOK, "got all updates successfully", updates)
	case http.MethodPost:
		var payload struct {
			Title        *string `json:"title"`
			UpdateStatus *string `json:"updateStatus"`
			Body         *string `json:"body"`
			Description  *string `json:"description"`
			Version      *string `json:"version"`
			AssetURL     *string `json:"assetUrl"`
			ProductID    *string `json:"productUpdatedId"`
		}
		if err := json.NewDecoder(req.Body).Decode(&payload); err != nil {
			writeError(w, http.StatusBadRequest, "invalid JSON body")
			return
		}
		var errs []string
		if payload.Title == nil || len(*payload.Title) > maxNameLength {
			errs = append(errs, "title must be a string with length less than 255")
		}
		if payload.UpdateStatus != nil && !validStatus(*payload.UpdateStatus) {
			errs = append(errs, "updateStatus must be one of IN_PROGRESS, PENDING, DONE")
		}
		if payload.Body == nil {
			errs = append(errs, "body must be a string")
		}
		if payload.Description == nil {
			errs = append(errs, "description must be a string")
		}
		if payload.Version == nil {
			errs = append(errs, "version must be a string")
		}
		switch {
		case payload.ProductID == nil || *payload.ProductID == "":
			errs = append(errs, "productUpdatedId is required")
		case !validUUID(*payload.ProductID):
			errs = append(errs, "Invalid productUpdatedId format")
		}
		if len(errs) > 0 {
			writeFieldErrors(w, errs)
			return
		}
		in := update.CreateInput{
			Title:       *payload.Title,
			Body:        *payload.Body,
			Description: *payload.Description,
			Version:     *payload.Version,
			ProductID:   *payload.ProductID,
		}
		if payload.UpdateStatus != nil {
			in.Status = *payload.UpdateStatus
		}
		if payload.AssetURL != nil {
			in.AssetURL = *payload.AssetURL
		}
		created, err := r.update.Create(req.Context(), info.UserID, in)
		if err != nil {
			if errors.Is(err, update.ErrNotOwner) {
				writeError(w, http.StatusForbidden, "You don't own this product or product doesn't exist")
				return
			}
			writeError(w, http.StatusInternalServerError, "Error while creating update")
			return
		}
		writeData(w, http.StatusCreated, "created the update successfully", created)
	default:
		r.methodNotAllowed(w)
	}
}

func (r *Router) handleUpdateByID(w http.ResponseWriter, req *http.Request) {
	info, ok := authInfoFromContext(req.Context())
	if !ok {
		r.logger.Error("auth context missing for update route", "path", req.URL.Path)
		writeError(w, http.StatusInternalServerError, "authorization context missing")
		return
	}
	updateID := strings.TrimPrefix(req.URL.Path, "/api/updates/")
	if updateID == "" || strings.Contains(updateID, "/") {
		r.notFound(w)
		return
	}
	if !validUUID(updateID) {
		writeFieldErrors(w, []string{"Invalid update id format"})
		return
	}
	switch req.Method {
	case http.MethodGet:
		upd, err := r.update.Get(req.Context(), updateID, info.UserID)
		if err != nil {
			if isNotFound(err) {
				writeError(w, http.StatusBadRequest, "Update not found or unathorized")
				return
			}
			writeError(w, http.StatusInternalServerError, "Error while getting update")
			return
		}
		writeData(w, http.StatusOK, "got the update successfully", upd)
	case http.MethodPut:
		var payload struct {
			Title        *string `json:"title"`
			UpdateStatus *string `json:"updateStatus"`
			Body         *string `json:"body"`
			Description  *string `json:"description"`
			Version      *string `json:"version"`
			AssetURL     *string `json:"assetUrl"`
		}
		if err := json.NewDecoder(req.Body).Decode(&payload); err != nil {
			writeError(w, http.StatusBadRequest, "invalid JSON body")
			return
		}
		var errs []string
		if payload.Title != nil && len(*payload.Title) > maxNameLength {
			errs = append(errs, "title must be a string with length less than 255")
		}
		if payload.UpdateStatus != nil && !validStatus(*payload.UpdateStatus) {
			errs = append(errs, "updateStatus must be one of IN_PROGRESS, PENDING, DONE")
		}
		if len(errs) > 0 {
			writeFieldErrors(w, errs)
			return
		}
		updated, err := r.update.Update(req.Context(), updateID, info.UserID, update.UpdateInput{
			Title:       payload.Title,
			Body:        payload.Body,
			Description: payload.Description,
			Version:     payload.Version,
			AssetURL:    payload.AssetURL,
			Status:      payload.UpdateStatus,
		})
		if err != nil {
			switch {
			case errors.Is(err, update.ErrNoFields):
				writeError(w, http.StatusBadRequest, "No fields to update")
			case isNotFound(err):
				writeError(w, http.StatusBadRequest, "error: update not found or unathorized")
			default:
				writeError(w, http.StatusInternalServerError, "Error while updating update")
			}
			return
		}
		writeData(w, http.StatusOK, "updated the update successfully", updated)
	case http.MethodDelete:
		deleted, err := r.update.Delete(req.Context(), updateID, info.UserID)
		if err != nil {
			if isNotFound(err) {
				writeError(w, http.StatusBadRequest, "error: update not found or unathorized")
				return
			}
			writeError(w, http.StatusInternalServerError, "Error while deleting update")
			return
		}
		writeData(w, http.StatusOK, "deleted the update successfully", deleted)
	default:
		r.methodNotAllowed(w)
	}
}

func (r *Router) handleHealthz(w http.ResponseWriter, req *http.Request) {
	if req.Method != http.MethodGet {
		r.methodNotAllowed(w)
		return
	}
	components := make(map[string]any)
	status := "ok"
	if r.dbHealth != nil {
		ctx, cancel := context.WithTimeout(req.Context(), healthCheckTimeout)
		defer cancel()
		if err := r.dbHealth(ctx); err != nil {
			status = "degraded"
			components["database"] = map[string]any{
				"status": "down",
				"error":  err.Error(),
			}
		} else {
			components["database"] = map[string]any{"status": "up"}
		}
	}
	payload := map[string]any{
		"status":     status,
		"components": components,
		"timestamp":  time.Now().UTC().Format(time.RFC3339Nano),
	}
	code := http.StatusOK
	if status != "ok" {
		code = http.StatusServiceUnavailable
	}
	writeJSON(w, code, payload)
}

func (r *Router) audit(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		recorder := &statusRecorder{ResponseWriter: w}
		start := time.Now()
		next(recorder, req)

		status := recorder.status
		if status == 0 {
			status = http.StatusOK
		}
		ctx := recorder.ctx
		if ctx == nil {
			ctx = req.Context()
		}
		duration := time.Since(start)
		r.recordRequestMetrics(req.Method, routeLabel(req.URL.Path), status, duration)

		actor := "anonymous"
		fields := []any{
			"method", req.Method,
			"path", req.URL.Path,
			"status", status,
			"bytes", recorder.bytes,
			"duration_ms", duration.Milliseconds(),
		}
		if ip := clientIP(req); ip != "" {
			fields = append(fields, "ip", ip)
		}
		if reqID := strings.TrimSpace(req.Header.Get("X-Request-ID")); reqID != "" {
			fields = append(fields, "request_id", reqID)
		}
		if info, ok := authInfoFromContext(ctx); ok {
			actor = "user"
			fields = append(fields, "user_id", info.UserID)
		}
		fields = append(fields, "actor", actor)

		switch {
		case status >= http.StatusInternalServerError:
			r.logger.Error("http_request", fields...)
		case status >= http.StatusBadRequest:
			r.logger.Warn("http_request", fields...)
		default:
			r.logger.Info("http_request", fields...)
		}
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
	bytes  int
	ctx    context.Context
}

func (sr *statusRecorder) WriteHeader(code int) {
	sr.status = code
	sr.ResponseWriter.WriteHeader(code)
}

func (sr *statusRecorder) Write(b []byte) (int, error) {
	if sr.status == 0 {
		sr.status = http.StatusOK
	}
	n, err := sr.ResponseWriter.Write(b)
	sr.bytes += n
	return n, err
}

func (sr *statusRecorder) SetContext(ctx context.Context) {
	sr.ctx = ctx
}

func (sr *statusRecorder) Flush() {
	if f, ok := sr.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

func clientIP(req *http.Request) string {
	if forwarded := strings.TrimSpace(req.Header.Get("X-Forwarded-For")); forwarded != "" {
		parts := strings.Split(forwarded, ",")
		if len(parts) > 0 {
			ip := strings.TrimSpace(parts[0])
			if ip != "" {
				return ip
			}
		}
	}
	host, _, err := net.SplitHostPort(strings.TrimSpace(req.RemoteAddr))
	if err != nil {
		return strings.TrimSpace(req.RemoteAddr)
	}
	return host
}

func (r *Router) applyRateHeaders(w http.ResponseWriter, limit int, decision rateDecision) {
	if limit <= 0 {
		return
	}
	remaining := limit - decision.count
	if remaining < 0 {
		remaining = 0
	}
	headers := w.Header()
	headers.Set("X-RateLimit-Limit", strconv.Itoa(limit))
	headers.Set("X-RateLimit-Remaining", strconv.Itoa(remaining))
	if !decision.windowEnd.IsZero() {
		headers.Set("X-RateLimit-Reset", strconv.FormatInt(decision.windowEnd.Unix(), 10))
	}
}

func routeLabel(path string) string {
	switch {
	case strings.HasPrefix(path, "/api/products/"):
		return "/api/products/{id}"
	case strings.HasPrefix(path, "/api/updates/"):
		return "/api/updates/{id}"
	}
	return path
}

func (r *Router) methodNotAllowed(w http.ResponseWriter) {
	writeError(w, http.StatusMethodNotAllowed, "method not allowed")
}

func (r *Router) notFound(w http.ResponseWriter) {
	writeError(w, http.StatusNotFound, "not found")
}

func isNotFound(err error) bool {
	return errors.Is(err, repository.ErrNotFound)
}
