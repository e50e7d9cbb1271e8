package web

import (
	"crypto/subtle"
	"encoding/json"
	"net/http"

	"telegram-giveaway-bot/internal/domain/model"
	"telegram-giveaway-bot/internal/usecase"
)

type loginRequest struct {
	Secret string `json:"secret"`
}

// loginHandler exchanges the configured API secret for a session token.
func (s *Server) loginHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req loginRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "Invalid request body", http.StatusBadRequest)
			return
		}
		if len(s.cfg.APISecret) == 0 ||
			subtle.ConstantTimeCompare([]byte(req.Secret), []byte(s.cfg.APISecret)) != 1 {
			http.Error(w, "Forbidden", http.StatusForbidden)
			return
		}

		token, err := s.auth.Mint(w)
		if err != nil {
			s.log.Error().Err(err).Msg("failed to mint session token")
			http.Error(w, "Internal error", http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(struct {
			Token string `json:"token"`
		}{Token: token})
	}
}

func (s *Server) logoutHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		s.auth.Clear(w)
		w.WriteHeader(http.StatusNoContent)
	}
}

// statsHandler serves the ledger row totals.
func (s *Server) statsHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		totals, err := s.statsUC.Totals(r.Context())
		if err != nil {
			http.Error(w, "Failed to get totals", http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(totals)
	}
}

type codeCreateRequest struct {
	Code         string `json:"code"` // optional, generated when empty
	MaxUses      int    `json:"max_uses"`
	ValidMinutes int    `json:"valid_minutes"`
}

// codesCreateHandler registers a redeem code, generating a random one when
// the request omits it.
func (s *Server) codesCreateHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		var req codeCreateRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "Invalid request body", http.StatusBadRequest)
			return
		}

		code := req.Code
		if code == "" {
			generated, err := usecase.GenerateRedeemCode()
			if err != nil {
				s.log.Error().Err(err).Msg("failed to generate redeem code")
				http.Error(w, "Internal error", http.StatusInternalServerError)
				return
			}
			code = generated
		}

		// createdBy 0 marks codes issued over the API rather than in chat.
		status, rc, err := s.redeemUC.CreateCode(ctx, code, req.MaxUses, req.ValidMinutes, 0)
		if err != nil {
			http.Error(w, "Failed to create code", http.StatusInternalServerError)
			return
		}
		switch status {
		case model.CodeInvalidSpec:
			http.Error(w, "Invalid code spec", http.StatusBadRequest)
			return
		case model.CodeAlreadyExists:
			http.Error(w, "Code already exists", http.StatusConflict)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(rc)
	}
}
