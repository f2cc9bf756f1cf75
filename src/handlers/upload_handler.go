package handlers

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rafaavmsilva/Menu/src/logger"
	"github.com/rafaavmsilva/Menu/src/security/validation"
	"github.com/rafaavmsilva/Menu/src/services"
	"github.com/rafaavmsilva/Menu/src/utils"
)

const msgProcessNotFound = "Process ID not found"

type UploadHandler struct {
	uploadService services.IngestionService
	uploadDir     string
	maxSize       int64
}

func NewUploadHandler(service services.IngestionService, uploadDir string, maxSize int64) *UploadHandler {
	return &UploadHandler{
		uploadService: service,
		uploadDir:     uploadDir,
		maxSize:       maxSize,
	}
}

// HandleUpload validates and stores a statement, then starts its import in
// the background and answers 202 with the process id.
func (h *UploadHandler) HandleUpload(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContext(r.Context())

	r.Body = http.MaxBytesReader(w, r.Body, h.maxSize+1<<20)
	if err := r.ParseMultipartForm(h.maxSize); err != nil {
		log.Warn("Failed to parse multipart form or request too large", "error", err, "limit", h.maxSize)
		utils.SendJSONError(w, fmt.Sprintf("Falha ao processar ou o arquivo é grande demais (máx %d MB)", h.maxSize/(1024*1024)), http.StatusBadRequest)
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, fileHeader, err := r.FormFile("file")
	if err != nil {
		log.Warn("Failed to retrieve file from request", "error", err)
		utils.SendJSONError(w, "Nenhum arquivo enviado. Use o campo 'file'.", http.StatusBadRequest)
		return
	}
	defer file.Close()

	filename := filepath.Base(strings.TrimSpace(fileHeader.Filename))
	if filename == "" || filename == "." {
		utils.SendJSONError(w, "Nenhum arquivo selecionado", http.StatusBadRequest)
		return
	}

	if fileHeader.Size > h.maxSize {
		log.Warn("Uploaded file too large", "fileSize", fileHeader.Size, "limit", h.maxSize)
		utils.SendJSONError(w, fmt.Sprintf("Arquivo grande demais, máx %d MB", h.maxSize/(1024*1024)), http.StatusBadRequest)
		return
	}

	if err := validation.ValidateExtension(filename); err != nil {
		utils.SendJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}

	clientContentType := fileHeader.Header.Get("Content-Type")
	if err := validation.ValidateClientContentType(clientContentType); err != nil {
		log.Warn("Invalid client-declared file type", "contentType", clientContentType, "error", err)
		utils.SendJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}

	detectedContentType, err := validation.ValidateFileContentByMagicBytes(file, filename)
	if err != nil {
		log.Warn("Server-side file content validation failed", "filename", filename, "error", err)
		utils.SendJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}
	log.Debug("File content validated by magic bytes", "filename", filename, "clientType", clientContentType, "detectedType", detectedContentType)

	path, err := h.store(file, filename)
	if err != nil {
		log.Error("Failed to store uploaded file", "filename", filename, "error", err)
		utils.SendJSONError(w, "Falha ao salvar o arquivo", http.StatusInternalServerError)
		return
	}

	processID := h.uploadService.Start(path, filename)
	log.Info("Upload accepted", "filename", filename, "processID", processID, "size", fileHeader.Size)

	utils.WriteJSON(w, http.StatusAccepted, map[string]string{"process_id": processID})
}

// HandleProgress returns the job snapshot for a process id.
func (h *UploadHandler) HandleProgress(w http.ResponseWriter, r *http.Request) {
	processID := chi.URLParam(r, "processID")
	if err := validation.ValidateProcessID(processID); err != nil {
		utils.SendJSONError(w, msgProcessNotFound, http.StatusNotFound)
		return
	}

	job, err := h.uploadService.Poll(processID)
	if errors.Is(err, services.ErrJobNotFound) {
		utils.SendJSONError(w, msgProcessNotFound, http.StatusNotFound)
		return
	}
	if err != nil {
		logger.FromContext(r.Context()).Error("Failed to read upload progress", "processID", processID, "error", err)
		utils.SendJSONError(w, "Falha ao consultar o progresso", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Cache-Control", "no-store")
	utils.WriteJSON(w, http.StatusOK, job)
}

// store copies the upload under a unique name inside the upload directory.
func (h *UploadHandler) store(src io.Reader, filename string) (string, error) {
	if err := os.MkdirAll(h.uploadDir, 0o750); err != nil {
		return "", fmt.Errorf("failed to create upload dir: %w", err)
	}
	dest := filepath.Join(h.uploadDir, uuid.NewString()+"_"+filename)

	out, err := os.OpenFile(dest, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o600)
	if err != nil {
		return "", fmt.Errorf("failed to create upload file: %w", err)
	}
	if _, err := io.Copy(out, src); err != nil {
		out.Close()
		os.Remove(dest)
		return "", fmt.Errorf("failed to write upload file: %w", err)
	}
	if err := out.Close(); err != nil {
		os.Remove(dest)
		return "", fmt.Errorf("failed to close upload file: %w", err)
	}
	return dest, nil
}
