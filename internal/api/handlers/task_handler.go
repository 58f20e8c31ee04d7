package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/ugel-ilo/sgd-backend/internal/core"
)

type TaskHandler struct {
	jobs core.JobStore
}

func NewTaskHandler(jobs core.JobStore) *TaskHandler {
	return &TaskHandler{jobs: jobs}
}

// GetTask reports the state of an ingestion job for upload polling.
func (h *TaskHandler) GetTask(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	job, err := h.jobs.GetJob(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if job == nil {
		writeError(w, http.StatusNotFound, "tarea no encontrada")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"task_id":     job.ID,
		"status":      job.Status,
		"progress":    job.Progress,
		"stage":       job.Stage,
		"document_id": job.DocumentID,
		"error":       job.Error,
		"attempts":    job.Attempts,
	})
}
