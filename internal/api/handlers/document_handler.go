package handlers

import (
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/ugel-ilo/sgd-backend/internal/config"
	"github.com/ugel-ilo/sgd-backend/internal/core"
	"github.com/ugel-ilo/sgd-backend/internal/core/audit"
	"github.com/ugel-ilo/sgd-backend/internal/core/metadata"
	"github.com/ugel-ilo/sgd-backend/internal/models"
)

// allowedUploadTypes is the closed set of MIME types the pipeline accepts.
var allowedUploadTypes = map[string]bool{
	"application/pdf": true,
	"image/jpeg":      true,
	"image/jpg":       true,
}

type DocumentHandler struct {
	dbclient     core.DbClient
	objectclient core.ObjectClient
	jobs         core.JobStore
	cfg          *config.Config
}

func NewDocumentHandler(dbclient core.DbClient, objectclient core.ObjectClient, jobs core.JobStore, cfg *config.Config) *DocumentHandler {
	return &DocumentHandler{dbclient: dbclient, objectclient: objectclient, jobs: jobs, cfg: cfg}
}

// UploadDocument accepts a multipart upload, spools it to the temp dir and
// enqueues an ingestion job. It answers 202 with the job ID; the client
// polls /tareas/{id} for progress.
func (h *DocumentHandler) UploadDocument(w http.ResponseWriter, r *http.Request) {
	maxBytes := h.cfg.MaxUploadSizeMB << 20
	r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
	if err := r.ParseMultipartForm(maxBytes); err != nil {
		writeError(w, http.StatusRequestEntityTooLarge,
			fmt.Sprintf("archivo supera el límite de %d MB", h.cfg.MaxUploadSizeMB))
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "campo 'file' ausente o inválido")
		return
	}
	defer file.Close()

	contentType := strings.ToLower(header.Header.Get("Content-Type"))
	if !allowedUploadTypes[contentType] {
		writeError(w, http.StatusUnsupportedMediaType,
			fmt.Sprintf("tipo de archivo no soportado: %s", contentType))
		return
	}

	// Sanitize the filename; only the base name survives.
	cleanFilename := filepath.Base(header.Filename)
	if cleanFilename == "" || cleanFilename == "." || cleanFilename == string(filepath.Separator) {
		writeError(w, http.StatusBadRequest, "nombre de archivo inválido")
		return
	}

	tempPath, err := h.spool(file)
	if err != nil {
		log.Printf("upload spool failed: %v", err)
		writeError(w, http.StatusInternalServerError, "no se pudo guardar el archivo")
		return
	}

	job := &models.Job{
		TempPath:    tempPath,
		FileName:    cleanFilename,
		ContentType: contentType,
	}
	if err := h.jobs.Enqueue(r.Context(), job); err != nil {
		_ = os.Remove(tempPath)
		log.Printf("enqueue failed for %s: %v", cleanFilename, err)
		writeError(w, http.StatusInternalServerError, "no se pudo encolar el documento")
		return
	}

	writeJSON(w, http.StatusAccepted, map[string]string{
		"task_id": job.ID,
		"status":  models.JobPending,
	})
}

// spool writes the upload to the temp dir; the ingest worker reads it from
// there, possibly on another process sharing the volume.
func (h *DocumentHandler) spool(file io.Reader) (string, error) {
	if err := os.MkdirAll(h.cfg.TempDir, 0o755); err != nil {
		return "", err
	}
	dst, err := os.CreateTemp(h.cfg.TempDir, "upload-*")
	if err != nil {
		return "", err
	}
	defer dst.Close()

	if _, err := io.Copy(dst, file); err != nil {
		_ = os.Remove(dst.Name())
		return "", err
	}
	return dst.Name(), nil
}

func (h *DocumentHandler) GetDocument(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	doc, err := h.dbclient.GetDocumentByID(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if doc == nil {
		writeError(w, http.StatusNotFound, "documento no encontrado")
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

func (h *DocumentHandler) ListDocuments(w http.ResponseWriter, r *http.Request) {
	page, pageSize := pagination(r)

	docs, total, err := h.dbclient.ListDocuments(r.Context(), page, pageSize)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if docs == nil {
		docs = []models.Document{}
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"documentos":  docs,
		"total":       total,
		"page":        page,
		"total_pages": totalPages(total, pageSize),
	})
}

// UpdateDocument edits the LLM-derived metadata fields; everything else is
// immutable. The change is recorded in the audit trail.
func (h *DocumentHandler) UpdateDocument(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var update models.DocumentUpdate
	if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
		writeError(w, http.StatusBadRequest, "cuerpo JSON inválido")
		return
	}
	if update.Category != nil && !isAllowedCategory(*update.Category) {
		writeError(w, http.StatusBadRequest,
			fmt.Sprintf("categoría inválida: %s", *update.Category))
		return
	}
	if update.Date != nil {
		normalized := metadata.ValidateDate(update.Date)
		if normalized == nil {
			writeError(w, http.StatusBadRequest,
				fmt.Sprintf("fecha inválida: %s", *update.Date))
			return
		}
		update.Date = normalized
	}

	current, err := h.dbclient.GetDocumentByID(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if current == nil || current.Status != models.StatusCompleted {
		writeError(w, http.StatusNotFound, "documento no encontrado")
		return
	}

	projected := *current
	applyUpdate(&projected, &update)
	entry := audit.NewUpdate(id,
		audit.MetadataSnapshot(current), audit.MetadataSnapshot(&projected), requestUser(r))

	doc, err := h.dbclient.UpdateDocumentMetadata(r.Context(), id, &update, entry)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

// applyUpdate mirrors the COALESCE semantics of the UPDATE statement so the
// audit snapshot matches what the database will hold.
func applyUpdate(doc *models.Document, update *models.DocumentUpdate) {
	if update.Category != nil {
		doc.Category = update.Category
	}
	if update.Topic != nil {
		doc.Topic = update.Topic
	}
	if update.Date != nil {
		doc.Date = update.Date
	}
	if update.Entities != nil {
		doc.Entities = update.Entities
	}
	if update.Summary != nil {
		doc.Summary = update.Summary
	}
}

// DeleteDocument removes a document, its fragments (cascade) and its stored
// file. Requires ?confirm=true; the S3 delete is best effort.
func (h *DocumentHandler) DeleteDocument(w http.ResponseWriter, r *http.Request) {
	if r.URL.Query().Get("confirm") != "true" {
		writeError(w, http.StatusBadRequest, "la eliminación requiere confirm=true")
		return
	}
	id := chi.URLParam(r, "id")

	doc, err := h.dbclient.GetDocumentByID(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if doc == nil {
		writeError(w, http.StatusNotFound, "documento no encontrado")
		return
	}

	entry := audit.NewDelete(id, audit.Snapshot(doc), requestUser(r))
	if err := h.dbclient.DeleteDocument(r.Context(), id, entry); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	// An orphaned S3 object is a cost problem, not a correctness one.
	if err := h.objectclient.DeleteFile(r.Context(), h.cfg.BucketName, doc.ObjectName); err != nil {
		log.Printf("s3 cleanup failed for %s (%s): %v", id, doc.ObjectName, err)
	}

	writeJSON(w, http.StatusOK, map[string]string{"deleted": id})
}

// DownloadDocument streams the original file from object storage.
func (h *DocumentHandler) DownloadDocument(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	doc, err := h.dbclient.GetDocumentByID(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if doc == nil {
		writeError(w, http.StatusNotFound, "documento no encontrado")
		return
	}

	rc, err := h.objectclient.GetObjectReader(r.Context(), h.cfg.BucketName, doc.ObjectName)
	if err != nil {
		writeError(w, http.StatusBadGateway, "no se pudo recuperar el archivo")
		return
	}
	defer rc.Close()

	w.Header().Set("Content-Type", doc.ContentType)
	w.Header().Set("Content-Disposition",
		fmt.Sprintf("attachment; filename=%q", doc.FileName))
	if _, err := io.Copy(w, rc); err != nil {
		log.Printf("download stream for %s aborted: %v", id, err)
	}
}

func (h *DocumentHandler) DocumentAuditHistory(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	page, pageSize := pagination(r)

	history, err := h.dbclient.DocumentAuditHistory(r.Context(), id, page, pageSize)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, history)
}

func (h *DocumentHandler) AuditHistory(w http.ResponseWriter, r *http.Request) {
	page, pageSize := pagination(r)
	q := core.AuditQuery{
		Action:   r.URL.Query().Get("action"),
		UserID:   r.URL.Query().Get("user_id"),
		DateFrom: r.URL.Query().Get("fecha_desde"),
		DateTo:   r.URL.Query().Get("fecha_hasta"),
		Page:     page,
		PageSize: pageSize,
	}

	history, err := h.dbclient.AuditHistory(r.Context(), q)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, history)
}

func isAllowedCategory(category string) bool {
	for _, c := range models.AllowedCategories {
		if c == category {
			return true
		}
	}
	return false
}

// requestUser identifies the actor for the audit trail. Without an auth
// layer this is the X-User-Id header or the system user.
func requestUser(r *http.Request) string {
	if u := r.Header.Get("X-User-Id"); u != "" {
		return u
	}
	return audit.SystemUser
}

func pagination(r *http.Request) (page, pageSize int) {
	page = queryInt(r, "page", 1)
	if page < 1 {
		page = 1
	}
	pageSize = queryInt(r, "page_size", 10)
	if pageSize < 1 {
		pageSize = 10
	}
	if pageSize > 50 {
		pageSize = 50
	}
	return page, pageSize
}

func queryInt(r *http.Request, key string, def int) int {
	v := r.URL.Query().Get(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

func totalPages(total, pageSize int) int {
	if pageSize <= 0 {
		return 0
	}
	return (total + pageSize - 1) / pageSize
}
