package handlers

import (
	"context"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/xavierca1/tork-crm/internal/entity"
	"github.com/xavierca1/tork-crm/internal/usecase"
)

type StageManager interface {
	List(ctx context.Context) ([]entity.Stage, error)
	Create(ctx context.Context, in usecase.CreateStageInput) (*entity.Stage, error)
	Update(ctx context.Context, id int64, in usecase.UpdateStageInput) (*entity.Stage, error)
	Delete(ctx context.Context, id int64) error
}

type StageHandler struct {
	UseCase StageManager
}

func NewStageHandler(uc StageManager) *StageHandler {
	return &StageHandler{UseCase: uc}
}

func (h *StageHandler) List(w http.ResponseWriter, r *http.Request) {
	stages, err := h.UseCase.List(r.Context())
	if err != nil {
		writeUseCaseError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, stages)
}

func (h *StageHandler) Create(w http.ResponseWriter, r *http.Request) {
	var in usecase.CreateStageInput
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, http.StatusBadRequest, "JSON inválido")
		return
	}
	stage, err := h.UseCase.Create(r.Context(), in)
	if err != nil {
		writeUseCaseError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, stage)
}

func (h *StageHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := stageID(w, r)
	if !ok {
		return
	}
	var in usecase.UpdateStageInput
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, http.StatusBadRequest, "JSON inválido (slug não pode ser alterado)")
		return
	}
	stage, err := h.UseCase.Update(r.Context(), id, in)
	if err != nil {
		writeUseCaseError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, stage)
}

func (h *StageHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := stageID(w, r)
	if !ok {
		return
	}
	if err := h.UseCase.Delete(r.Context(), id); err != nil {
		writeUseCaseError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func stageID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		writeError(w, http.StatusBadRequest, "id inválido")
		return 0, false
	}
	return id, true
}
