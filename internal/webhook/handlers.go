package webhook

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-telegram/bot/models"

	"github.com/edgard/swarmbot/internal/apicall"
	"github.com/edgard/swarmbot/internal/dispatch"
	"github.com/edgard/swarmbot/internal/telegram"
)

// handleRegisterMain registers the main instance's callback URL with
// Telegram so updates start flowing to this process.
func (s *Server) handleRegisterMain(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	callbackURL, err := telegram.MainWebhookURL(s.cfg.Web.PublicURL)
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to build main webhook url", "error", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	if err := s.registrar.RegisterWebhook(ctx, s.main, callbackURL); err != nil {
		s.logger.ErrorContext(ctx, "Failed to register main webhook", "error", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(map[string]string{"status": "ok"}); err != nil {
		s.logger.ErrorContext(ctx, "Failed to write registration response", "error", err)
	}
}

// handleMainUpdate delivers one update to the main instance.
func (s *Server) handleMainUpdate(w http.ResponseWriter, r *http.Request) {
	s.serveUpdate(w, r, s.main, dispatch.RoleMain)
}

// handleMinionUpdate delivers one update to the minion identified by the
// path token, creating its instance on first use.
func (s *Server) handleMinionUpdate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	token := chi.URLParam(r, "token")

	handle, err := s.minions.GetOrCreate(ctx, token)
	if err != nil {
		// Nothing was cached; a later request with the same token retries.
		s.logger.WarnContext(ctx, "Failed to create minion instance",
			"error", err,
			"token_prefix", telegram.MaskToken(token))
		updatesDispatched.WithLabelValues(dispatch.RoleMinion.String(), "error").Inc()
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	s.serveUpdate(w, r, handle, dispatch.RoleMinion)
}

// serveUpdate decodes the inbound update, dispatches it, and either streams
// the resulting call as multipart/form-data or returns an empty success.
func (s *Server) serveUpdate(w http.ResponseWriter, r *http.Request, handle *telegram.Handle, role dispatch.Role) {
	ctx := r.Context()

	var update models.Update
	if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
		s.logger.WarnContext(ctx, "Rejected malformed update payload", "error", err, "role", role.String())
		updatesDispatched.WithLabelValues(role.String(), "error").Inc()
		http.Error(w, "malformed update", http.StatusBadRequest)
		return
	}

	call, err := s.dispatcher.Dispatch(ctx, handle, role, &update)
	if err != nil {
		s.logger.ErrorContext(ctx, "Dispatch failed",
			"error", err,
			"role", role.String(),
			"update_id", update.ID)
		updatesDispatched.WithLabelValues(role.String(), "error").Inc()
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	// Activity logging must never fail a dispatch.
	if err := s.store.RecordDispatch(ctx, handle.Token(), role.String()); err != nil {
		s.logger.ErrorContext(ctx, "Failed to record dispatch", "error", err, "role", role.String())
	}

	if call == nil {
		updatesDispatched.WithLabelValues(role.String(), "empty").Inc()
		w.WriteHeader(http.StatusOK)
		return
	}

	boundary := apicall.NewBoundary()
	stream := apicall.Encode(call, boundary)
	defer stream.Close()

	w.Header().Set("Content-Type", apicall.ContentType(boundary))

	if _, err := io.Copy(w, stream); err != nil {
		// Headers are already out; aborting the connection is the only way
		// left to signal failure instead of serving a truncated stream as
		// if it were complete.
		s.logger.ErrorContext(ctx, "Response stream failed",
			"error", err,
			"method", call.Method,
			"role", role.String())
		updatesDispatched.WithLabelValues(role.String(), "error").Inc()
		panic(http.ErrAbortHandler)
	}

	updatesDispatched.WithLabelValues(role.String(), "call").Inc()
}

// handleHealth reports liveness, including the activity store connection.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if err := s.store.Ping(r.Context()); err != nil {
		s.logger.ErrorContext(r.Context(), "Health check failed", "error", err)
		http.Error(w, "unhealthy", http.StatusServiceUnavailable)
		return
	}
	w.WriteHeader(http.StatusOK)
	_, _ = io.WriteString(w, "ok")
}
