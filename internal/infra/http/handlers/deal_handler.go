package handlers

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/xavierca1/tork-crm/internal/entity"
	"github.com/xavierca1/tork-crm/internal/usecase"
)

type DealUpdater interface {
	Get(ctx context.Context, id string) (*entity.Deal, error)
	Execute(ctx context.Context, id string, in usecase.UpdateDealInput) (*entity.Deal, error)
}

type DealHandler struct {
	UseCase DealUpdater
}

func NewDealHandler(uc DealUpdater) *DealHandler {
	return &DealHandler{UseCase: uc}
}

func (h *DealHandler) Get(w http.ResponseWriter, r *http.Request) {
	deal, err := h.UseCase.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeUseCaseError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, deal)
}

// Patch responde assim que o banco confirma; o reverse sync roda em background.
func (h *DealHandler) Patch(w http.ResponseWriter, r *http.Request) {
	var in usecase.UpdateDealInput
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, http.StatusBadRequest, "JSON inválido")
		return
	}
	deal, err := h.UseCase.Execute(r.Context(), chi.URLParam(r, "id"), in)
	if err != nil {
		writeUseCaseError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, deal)
}
