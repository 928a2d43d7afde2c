package httpapi

import (
	"net/http"

	"github.com/dmitrijs2005/authapi/internal/server/models"
	"github.com/dmitrijs2005/authapi/internal/server/services"
	"github.com/go-chi/chi/v5"
)

type createAccountRequest struct {
	Name     string        `json:"name"`
	Password string        `json:"password"`
	Fields   models.Fields `json:"fields"`
}

func (s *HTTPServer) listAccountsHandler(w http.ResponseWriter, r *http.Request) {
	items, err := s.accounts.List(r.Context())
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	if items == nil {
		items = []*models.Account{}
	}
	writeJSON(w, http.StatusOK, items)
}

func (s *HTTPServer) createAccountHandler(w http.ResponseWriter, r *http.Request) {
	var req createAccountRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeDecodeError(w, r, err)
		return
	}

	account, err := s.accounts.Create(r.Context(), services.CreateAccountInput{
		Name:     req.Name,
		Password: req.Password,
		Fields:   req.Fields,
	})
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	s.logger.Info(r.Context(), "account created", "account_id", account.ID, "name", account.Name)
	writeJSON(w, http.StatusCreated, account)
}

func (s *HTTPServer) getAccountHandler(w http.ResponseWriter, r *http.Request) {
	account, err := s.accounts.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, account)
}

func (s *HTTPServer) replaceFieldsHandler(w http.ResponseWriter, r *http.Request) {
	var fields models.Fields
	if err := decodeJSON(r, &fields); err != nil {
		s.writeDecodeError(w, r, err)
		return
	}

	account, err := s.accounts.ReplaceFields(r.Context(), chi.URLParam(r, "id"), fields)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, account)
}

func (s *HTTPServer) deleteAccountHandler(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := s.accounts.Delete(r.Context(), id); err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	s.logger.Info(r.Context(), "account deleted", "account_id", id)
	w.WriteHeader(http.StatusNoContent)
}
