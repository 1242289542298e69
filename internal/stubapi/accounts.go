package stubapi

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/sells-group/leadwatcher/pkg/leadwatcher"
)

// liveURLBase is where simulated manual-login sessions claim to live.
const liveURLBase = "https://live.leadwatcher.local/sessions/"

const rejectedMessage = "LinkedIn rejected the login. Try logging in manually."

func (s *Server) listAccounts(w http.ResponseWriter, r *http.Request) {
	accounts, err := s.store.ListAccounts(r.Context())
	if err != nil {
		respondStoreError(w, r, "Account", err)
		return
	}
	respondData(w, http.StatusOK, accounts)
}

func (s *Server) createAccount(w http.ResponseWriter, r *http.Request) {
	var req leadwatcher.CreateAccountRequest
	if err := decode(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body.")
		return
	}
	if strings.TrimSpace(req.Email) == "" {
		respondError(w, http.StatusUnprocessableEntity, "The email field is required.")
		return
	}
	a, err := s.store.CreateAccount(r.Context(), req)
	if err != nil {
		respondStoreError(w, r, "Account", err)
		return
	}
	respondData(w, http.StatusCreated, a)
}

// getAccount returns an account. Each read of a connecting account counts
// as a status poll; once enough polls have happened the connection
// resolves, failing for addresses that contain "fail".
func (s *Server) getAccount(w http.ResponseWriter, r *http.Request) {
	ctx, id := r.Context(), chi.URLParam(r, "id")
	a, err := s.store.GetAccount(ctx, id)
	if err != nil {
		respondStoreError(w, r, "Account", err)
		return
	}

	if a.Status == leadwatcher.AccountConnecting {
		polls, err := s.store.CountStatusPoll(ctx, id)
		if err != nil {
			respondStoreError(w, r, "Account", err)
			return
		}
		if polls >= s.opts.ConnectAfter {
			status, msg := leadwatcher.AccountConnected, ""
			if strings.Contains(strings.ToLower(a.Email), "fail") {
				status, msg = leadwatcher.AccountError, rejectedMessage
			}
			if a, err = s.store.SetAccountStatus(ctx, id, status, msg); err != nil {
				respondStoreError(w, r, "Account", err)
				return
			}
		}
	}
	respondData(w, http.StatusOK, a)
}

func (s *Server) updateAccount(w http.ResponseWriter, r *http.Request) {
	var req leadwatcher.UpdateAccountRequest
	if err := decode(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body.")
		return
	}
	a, err := s.store.UpdateAccount(r.Context(), chi.URLParam(r, "id"), req)
	if err != nil {
		respondStoreError(w, r, "Account", err)
		return
	}
	respondData(w, http.StatusOK, a)
}

func (s *Server) deleteAccount(w http.ResponseWriter, r *http.Request) {
	if err := s.store.DeleteAccount(r.Context(), chi.URLParam(r, "id")); err != nil {
		respondStoreError(w, r, "Account", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) connectAccount(w http.ResponseWriter, r *http.Request) {
	a, err := s.store.SetAccountStatus(r.Context(), chi.URLParam(r, "id"), leadwatcher.AccountConnecting, "")
	if err != nil {
		respondStoreError(w, r, "Account", err)
		return
	}
	respondData(w, http.StatusAccepted, leadwatcher.ConnectResult{
		Status:  a.Status,
		Message: "Connection started.",
	})
}

func (s *Server) disconnectAccount(w http.ResponseWriter, r *http.Request) {
	a, err := s.store.SetAccountStatus(r.Context(), chi.URLParam(r, "id"), leadwatcher.AccountDisconnected, "")
	if err != nil {
		respondStoreError(w, r, "Account", err)
		return
	}
	respondData(w, http.StatusOK, a)
}

func (s *Server) storeTOTPSecret(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Secret string `json:"totp_secret"`
	}
	if err := decode(r, &body); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body.")
		return
	}
	if _, _, err := TOTPCode(body.Secret, s.opts.Now()); err != nil || NormalizeSecret(body.Secret) == "" {
		respondError(w, http.StatusUnprocessableEntity, "The TOTP secret is not valid base32.")
		return
	}
	a, err := s.store.StoreTOTPSecret(r.Context(), chi.URLParam(r, "id"), body.Secret)
	if err != nil {
		respondStoreError(w, r, "Account", err)
		return
	}
	respondData(w, http.StatusOK, a)
}

func (s *Server) totpCode(w http.ResponseWriter, r *http.Request) {
	secret, err := s.store.TOTPSecret(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respondStoreError(w, r, "Account", err)
		return
	}
	if secret == "" {
		respondError(w, http.StatusUnprocessableEntity, "No TOTP secret is stored for this account.")
		return
	}
	code, validFor, err := TOTPCode(secret, s.opts.Now())
	if err != nil {
		respondError(w, http.StatusUnprocessableEntity, "The stored TOTP secret is not valid.")
		return
	}
	respondData(w, http.StatusOK, leadwatcher.TOTPCode{Code: code, ValidForSeconds: validFor})
}

func (s *Server) startManualConnect(w http.ResponseWriter, r *http.Request) {
	id, expires, err := s.store.CreateManualSession(r.Context(), chi.URLParam(r, "id"), s.opts.ManualSessionTTL)
	if err != nil {
		respondStoreError(w, r, "Account", err)
		return
	}
	respondData(w, http.StatusCreated, leadwatcher.ManualSession{
		SessionID: id,
		LiveURL:   LiveURL(id),
		ExpiresAt: &expires,
	})
}

func (s *Server) confirmManualConnect(w http.ResponseWriter, r *http.Request) {
	var body struct {
		SessionID string `json:"session_id"`
	}
	if err := decode(r, &body); err != nil || body.SessionID == "" {
		respondError(w, http.StatusUnprocessableEntity, "The session id field is required.")
		return
	}
	ctx, id := r.Context(), chi.URLParam(r, "id")
	ok, err := s.store.ConsumeManualSession(ctx, id, body.SessionID)
	if err != nil {
		respondStoreError(w, r, "Account", err)
		return
	}
	if !ok {
		respondData(w, http.StatusOK, leadwatcher.ManualConfirmation{
			Success: false,
			Message: "The login session expired. Start a new one.",
		})
		return
	}
	if _, err := s.store.SetAccountStatus(ctx, id, leadwatcher.AccountConnected, ""); err != nil {
		respondStoreError(w, r, "Account", err)
		return
	}
	respondData(w, http.StatusOK, leadwatcher.ManualConfirmation{Success: true, Message: "Connected."})
}

func (s *Server) rateLimits(w http.ResponseWriter, r *http.Request) {
	rl, err := s.store.RateLimits(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respondStoreError(w, r, "Account", err)
		return
	}
	respondData(w, http.StatusOK, rl)
}

func (s *Server) resetRateLimits(w http.ResponseWriter, r *http.Request) {
	rl, err := s.store.ResetRateLimits(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respondStoreError(w, r, "Account", err)
		return
	}
	respondData(w, http.StatusOK, rl)
}

func (s *Server) startWarmup(w http.ResponseWriter, r *http.Request) {
	wu, err := s.store.StartWarmup(r.Context(), chi.URLParam(r, "id"), s.opts.Now().UTC())
	if err != nil {
		respondStoreError(w, r, "Account", err)
		return
	}
	respondData(w, http.StatusOK, wu)
}

func (s *Server) warmupProgress(w http.ResponseWriter, r *http.Request) {
	wu, err := s.store.WarmupProgress(r.Context(), chi.URLParam(r, "id"), s.opts.Now().UTC())
	if err != nil {
		respondStoreError(w, r, "Account", err)
		return
	}
	respondData(w, http.StatusOK, wu)
}

// LiveURL returns the live-session URL for a manual-login session id.
func LiveURL(sessionID string) string { return liveURLBase + sessionID }
