package gatekey

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog"

	"github.com/panyam/gatekey/oauth2"
	"github.com/panyam/gatekey/otp"
)

// API exposes the authentication operations over HTTP. It carries no logic
// of its own beyond decoding requests and mapping error kinds to statuses;
// all invariants live in AuthService and its collaborators.
type API struct {
	Service   *AuthService
	Exchanger *oauth2.Exchanger

	// AdminAuthorize gates the admin routes. When nil, admin routes always
	// reject. The check itself (API key, role claim, mTLS) is the host
	// application's concern.
	AdminAuthorize func(r *http.Request) error

	Logger zerolog.Logger
}

// Handler builds the router for all auth endpoints.
func (api *API) Handler() http.Handler {
	r := mux.NewRouter()

	r.HandleFunc("/auth/register", api.handleRegister).Methods(http.MethodPost)
	r.HandleFunc("/auth/verify-otp", api.handleVerifyOTP).Methods(http.MethodPost)
	r.HandleFunc("/auth/resend-otp", api.handleResendOTP).Methods(http.MethodPost)
	r.HandleFunc("/auth/login", api.handleLogin).Methods(http.MethodPost)

	r.HandleFunc("/auth/oauth/{provider}/authorize", api.handleOAuthAuthorize).Methods(http.MethodGet)
	r.HandleFunc("/auth/oauth/{provider}/callback", api.handleOAuthCallback).Methods(http.MethodGet)

	r.HandleFunc("/admin/accounts", api.adminOnly(api.handleAdminList)).Methods(http.MethodGet)
	r.HandleFunc("/admin/accounts", api.adminOnly(api.handleAdminCreate)).Methods(http.MethodPost)
	r.HandleFunc("/admin/accounts/{id}", api.adminOnly(api.handleAdminUpdate)).Methods(http.MethodPut)
	r.HandleFunc("/admin/accounts/{id}", api.adminOnly(api.handleAdminDelete)).Methods(http.MethodDelete)

	return r
}

func (api *API) adminOnly(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if api.AdminAuthorize == nil {
			api.writeJSONError(w, http.StatusForbidden, "admin access not configured")
			return
		}
		if err := api.AdminAuthorize(r); err != nil {
			api.writeJSONError(w, http.StatusForbidden, "admin access denied")
			return
		}
		next(w, r)
	}
}

func (api *API) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(payload)
}

func (api *API) writeJSONError(w http.ResponseWriter, status int, message string) {
	api.writeJSON(w, status, map[string]string{"error": message})
}

// writeError maps a failure to an HTTP status. Business failures use the
// AuthError kind; infrastructure trouble maps to 503 so callers know a retry
// may help. State failures are presented uniformly regardless of which check
// tripped.
func (api *API) writeError(w http.ResponseWriter, err error) {
	var ae *AuthError
	if errors.As(err, &ae) {
		status := http.StatusInternalServerError
		switch ae.Kind {
		case KindConflict:
			status = http.StatusConflict
		case KindNotFound:
			status = http.StatusNotFound
		case KindInvalidCredential:
			status = http.StatusUnauthorized
		case KindInvalidOrExpiredCode, KindProviderNotConfigured, KindInvalidOAuthState:
			status = http.StatusBadRequest
		case KindProviderExchangeFailed, KindDeliveryFailed:
			status = http.StatusBadGateway
		case KindUnavailable:
			status = http.StatusServiceUnavailable
		}
		if ae.Kind == KindUnavailable {
			api.Logger.Error().Err(err).Msg("infrastructure failure")
		}
		api.writeJSONError(w, status, ae.Message)
		return
	}

	switch {
	case errors.Is(err, oauth2.ErrStateFormat),
		errors.Is(err, oauth2.ErrStateSignature),
		errors.Is(err, oauth2.ErrStateExpired):
		api.writeJSONError(w, http.StatusBadRequest, "invalid oauth state")
	case errors.Is(err, oauth2.ErrNotConfigured):
		api.writeJSONError(w, http.StatusBadRequest, "oauth provider not configured")
	case errors.Is(err, oauth2.ErrUnknownProvider):
		api.writeJSONError(w, http.StatusBadRequest, "unsupported oauth provider")
	case errors.Is(err, oauth2.ErrExchangeFailed), errors.Is(err, oauth2.ErrProfileFetch):
		api.writeJSONError(w, http.StatusBadGateway, "oauth exchange failed")
	case errors.Is(err, otp.ErrUnavailable):
		api.Logger.Error().Err(err).Msg("otp store failure")
		api.writeJSONError(w, http.StatusServiceUnavailable, "service temporarily unavailable")
	default:
		api.Logger.Error().Err(err).Msg("unhandled error")
		api.writeJSONError(w, http.StatusInternalServerError, "internal error")
	}
}

func decodeJSON(r *http.Request, out any) error {
	return json.NewDecoder(r.Body).Decode(out)
}

func (api *API) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := decodeJSON(r, &req); err != nil || req.Email == "" || req.Password == "" {
		api.writeJSONError(w, http.StatusBadRequest, "email and password are required")
		return
	}

	account, err := api.Service.Register(r.Context(), req.Email, req.Password)
	if err != nil {
		api.writeError(w, err)
		return
	}
	api.writeJSON(w, http.StatusCreated, account)
}

func (api *API) handleVerifyOTP(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email string `json:"email"`
		Code  string `json:"code"`
	}
	if err := decodeJSON(r, &req); err != nil || req.Email == "" || req.Code == "" {
		api.writeJSONError(w, http.StatusBadRequest, "email and code are required")
		return
	}

	account, err := api.Service.VerifyOTP(r.Context(), req.Email, req.Code)
	if err != nil {
		api.writeError(w, err)
		return
	}
	api.writeJSON(w, http.StatusOK, account)
}

func (api *API) handleResendOTP(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email string `json:"email"`
	}
	if err := decodeJSON(r, &req); err != nil || req.Email == "" {
		api.writeJSONError(w, http.StatusBadRequest, "email is required")
		return
	}

	if err := api.Service.ResendOTP(r.Context(), req.Email); err != nil {
		api.writeError(w, err)
		return
	}
	api.writeJSON(w, http.StatusOK, map[string]string{"message": "verification code sent"})
}

func (api *API) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := decodeJSON(r, &req); err != nil || req.Email == "" || req.Password == "" {
		api.writeJSONError(w, http.StatusBadRequest, "email and password are required")
		return
	}

	token, err := api.Service.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		api.writeError(w, err)
		return
	}
	api.writeJSON(w, http.StatusOK, map[string]string{
		"access_token": token,
		"token_type":   "bearer",
	})
}

func (api *API) handleOAuthAuthorize(w http.ResponseWriter, r *http.Request) {
	provider := mux.Vars(r)["provider"]
	redirectOverride := r.URL.Query().Get("redirect_uri")

	url, _, err := api.Exchanger.AuthorizationURL(provider, redirectOverride)
	if err != nil {
		api.writeError(w, err)
		return
	}
	http.Redirect(w, r, url, http.StatusFound)
}

func (api *API) handleOAuthCallback(w http.ResponseWriter, r *http.Request) {
	provider := mux.Vars(r)["provider"]
	code := r.URL.Query().Get("code")
	state := r.URL.Query().Get("state")
	redirectOverride := r.URL.Query().Get("redirect_uri")

	if code == "" || state == "" {
		api.writeJSONError(w, http.StatusBadRequest, "code and state are required")
		return
	}

	profile, err := api.Exchanger.Exchange(r.Context(), provider, code, state, redirectOverride)
	if err != nil {
		api.writeError(w, err)
		return
	}

	token, err := api.Service.LoginWithOAuth(r.Context(), profile)
	if err != nil {
		api.writeError(w, err)
		return
	}
	api.writeJSON(w, http.StatusOK, map[string]string{
		"access_token": token,
		"token_type":   "bearer",
	})
}

func (api *API) handleAdminList(w http.ResponseWriter, r *http.Request) {
	accounts, err := api.Service.AdminListAccounts(r.Context())
	if err != nil {
		api.writeError(w, err)
		return
	}
	api.writeJSON(w, http.StatusOK, accounts)
}

func (api *API) handleAdminCreate(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email        string `json:"email"`
		Password     string `json:"password"`
		AuthProvider string `json:"auth_provider"`
		ProviderID   string `json:"provider_id"`
		IsActive     bool   `json:"is_active"`
		IsVerified   bool   `json:"is_verified"`
	}
	if err := decodeJSON(r, &req); err != nil || req.Email == "" {
		api.writeJSONError(w, http.StatusBadRequest, "email is required")
		return
	}

	account := &Account{
		Email:        req.Email,
		AuthProvider: req.AuthProvider,
		ProviderID:   req.ProviderID,
		IsActive:     req.IsActive,
		IsVerified:   req.IsVerified,
	}
	if req.Password != "" {
		hash, err := HashPassword(req.Password)
		if err != nil {
			api.writeError(w, err)
			return
		}
		account.PasswordHash = hash
	}

	created, err := api.Service.AdminCreateAccount(r.Context(), account)
	if err != nil {
		api.writeError(w, err)
		return
	}
	api.writeJSON(w, http.StatusCreated, created)
}

func (api *API) handleAdminUpdate(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseUint(mux.Vars(r)["id"], 10, 32)
	if err != nil {
		api.writeJSONError(w, http.StatusBadRequest, "invalid account id")
		return
	}

	var req Account
	if err := decodeJSON(r, &req); err != nil || req.Email == "" {
		api.writeJSONError(w, http.StatusBadRequest, "invalid account payload")
		return
	}
	req.ID = uint(id)

	saved, err := api.Service.AdminUpdateAccount(r.Context(), &req)
	if err != nil {
		api.writeError(w, err)
		return
	}
	api.writeJSON(w, http.StatusOK, saved)
}

func (api *API) handleAdminDelete(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseUint(mux.Vars(r)["id"], 10, 32)
	if err != nil {
		api.writeJSONError(w, http.StatusBadRequest, "invalid account id")
		return
	}

	if err := api.Service.AdminDeleteAccount(r.Context(), uint(id)); err != nil {
		api.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
