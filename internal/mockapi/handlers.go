package mockapi

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/crypto/bcrypt"

	"github.com/davidahmann/agent-platform/pkg/types"
)

// Handler serves the auth and decision endpoints from memory. Error bodies
// follow the FastAPI shape: {"detail": "..."} or a validation list.
type Handler struct {
	Store  *Store
	Tokens *Signer
	Decide DecideFunc
	Logger *slog.Logger
}

// NewHandler wires an empty store and a signer derived from seed.
func NewHandler(seed []byte, logger *slog.Logger) (*Handler, error) {
	signer, err := NewSigner(seed, DefaultTokenTTL)
	if err != nil {
		return nil, err
	}
	return &Handler{Store: NewStore(), Tokens: signer, Decide: CannedDecision, Logger: logger}, nil
}

type validationIssue struct {
	Loc  []string `json:"loc"`
	Msg  string   `json:"msg"`
	Type string   `json:"type"`
}

// Seed creates a tenant and admin so the mock is usable without signup.
func (h *Handler) Seed(orgName string, orgType string, email string, password string) (Tenant, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		return Tenant{}, err
	}
	tenant, _, err := h.Store.CreateTenant(orgName, orgType, email, hash)
	return tenant, err
}

func (h *Handler) Signup(w http.ResponseWriter, r *http.Request) {
	var req types.SignupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeDetail(w, http.StatusUnprocessableEntity, "JSON decode error")
		return
	}
	if issues := missing("body", map[string]string{
		"org_name": req.OrgName,
		"org_type": req.OrgType,
		"email":    req.Email,
		"password": req.Password,
	}); len(issues) > 0 {
		writeJSON(w, http.StatusUnprocessableEntity, map[string]any{"detail": issues})
		return
	}
	if !strings.Contains(req.Email, "@") {
		writeJSON(w, http.StatusUnprocessableEntity, map[string]any{"detail": []validationIssue{
			{Loc: []string{"body", "email"}, Msg: "value is not a valid email address", Type: "value_error"},
		}})
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.MinCost)
	if err != nil {
		writeDetail(w, http.StatusInternalServerError, "password hashing failed")
		return
	}
	tenant, user, err := h.Store.CreateTenant(req.OrgName, req.OrgType, req.Email, hash)
	if errors.Is(err, ErrEmailTaken) {
		writeDetail(w, http.StatusConflict, "Email already registered")
		return
	}
	if err != nil {
		writeDetail(w, http.StatusInternalServerError, err.Error())
		return
	}

	token, err := h.Tokens.Issue(user)
	if err != nil {
		writeDetail(w, http.StatusInternalServerError, "token issue failed")
		return
	}
	h.logger().Info("tenant created", "tenant_id", tenant.ID, "org_type", tenant.OrgType)
	writeJSON(w, http.StatusOK, types.SignupResponse{
		Tenant: &types.SignupTenant{ID: tenant.ID, Name: tenant.Name, OrgType: tenant.OrgType},
		Token:  &types.TokenResponse{AccessToken: token, TokenType: "bearer"},
	})
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		writeDetail(w, http.StatusBadRequest, "invalid form body")
		return
	}
	username, password := r.PostForm.Get("username"), r.PostForm.Get("password")
	if issues := missing("body", map[string]string{"username": username, "password": password}); len(issues) > 0 {
		writeJSON(w, http.StatusUnprocessableEntity, map[string]any{"detail": issues})
		return
	}

	user, ok := h.Store.UserByEmail(username)
	if !ok || bcrypt.CompareHashAndPassword(user.PasswordHash, []byte(password)) != nil {
		writeDetail(w, http.StatusUnauthorized, "Invalid credentials")
		return
	}

	token, err := h.Tokens.Issue(user)
	if err != nil {
		writeDetail(w, http.StatusInternalServerError, "token issue failed")
		return
	}
	writeJSON(w, http.StatusOK, types.TokenResponse{AccessToken: token, TokenType: "bearer"})
}

func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	user, ok := h.currentUser(w, r)
	if !ok {
		return
	}
	tenant, ok := h.Store.Tenant(user.TenantID)
	if !ok {
		writeDetail(w, http.StatusUnauthorized, "Tenant not found")
		return
	}
	writeJSON(w, http.StatusOK, types.SessionContext{
		UserID:   user.ID,
		Email:    user.Email,
		TenantID: tenant.ID,
		OrgType:  tenant.OrgType,
	})
}

func (h *Handler) Decision(w http.ResponseWriter, r *http.Request) {
	user, ok := h.currentUser(w, r)
	if !ok {
		return
	}

	tenantID := chi.URLParam(r, "tenantID")
	if user.TenantID != tenantID {
		writeDetail(w, http.StatusForbidden, "Forbidden: tenant access denied")
		return
	}
	tenant, ok := h.Store.Tenant(tenantID)
	if !ok {
		writeDetail(w, http.StatusNotFound, "Tenant not found")
		return
	}

	var req types.DecisionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeDetail(w, http.StatusUnprocessableEntity, "JSON decode error")
		return
	}
	if issues := missing("body", map[string]string{"question": req.Question}); len(issues) > 0 {
		writeJSON(w, http.StatusUnprocessableEntity, map[string]any{"detail": issues})
		return
	}

	decide := h.Decide
	if decide == nil {
		decide = CannedDecision
	}
	result := decide(tenant, req.Question, req.Fields)
	result.TenantID = tenant.ID
	result.OrgType = tenant.OrgType
	result.RequestedBy = user.Email
	if result.Actions == nil {
		result.Actions = []string{}
	}

	h.logger().Info("decision",
		"tenant_id", tenant.ID,
		"decision", result.Decision,
		"request_id", middleware.GetReqID(r.Context()))
	writeJSON(w, http.StatusOK, result)
}

func (h *Handler) currentUser(w http.ResponseWriter, r *http.Request) (User, bool) {
	bearer, err := extractBearer(r.Header.Get("Authorization"))
	if err != nil {
		w.Header().Set("WWW-Authenticate", "Bearer")
		writeDetail(w, http.StatusUnauthorized, "Not authenticated")
		return User{}, false
	}
	claims, err := h.Tokens.Verify(bearer)
	if err != nil {
		writeDetail(w, http.StatusUnauthorized, "Invalid token")
		return User{}, false
	}
	user, ok := h.Store.User(claims.Subject)
	if !ok {
		writeDetail(w, http.StatusUnauthorized, "Invalid token user")
		return User{}, false
	}
	return user, true
}

func (h *Handler) logger() *slog.Logger {
	if h.Logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return h.Logger
}

// missing reports empty required values in a stable field order.
func missing(loc string, values map[string]string) []validationIssue {
	order := []string{"org_name", "org_type", "username", "email", "password", "question"}
	out := []validationIssue{}
	for _, name := range order {
		v, ok := values[name]
		if !ok || strings.TrimSpace(v) != "" {
			continue
		}
		out = append(out, validationIssue{Loc: []string{loc, name}, Msg: "Field required", Type: "missing"})
	}
	return out
}

func writeDetail(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, map[string]string{"detail": detail})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(payload)
}
