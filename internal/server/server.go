// Package server is the browser surface of the pipeline: it serves the
// upload page, stages multipart uploads to disk, kicks off a run, and exposes
// the status cell for polling.
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"

	"github.com/gorilla/mux"

	"github.com/docupay/invoice-capture/constants"
	"github.com/docupay/invoice-capture/internal/pipeline"
)

const maxUploadMemory = 64 << 20

type Server struct {
	logger    *slog.Logger
	processor *pipeline.Processor
	uploadDir string // "" = system temp dir
}

func NewServer(processor *pipeline.Processor, uploadDir string, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{logger: logger, processor: processor, uploadDir: uploadDir}
}

func (s *Server) Router() *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/", s.handleIndex).Methods(http.MethodGet)
	r.HandleFunc("/api/process", s.handleProcess).Methods(http.MethodPost)
	r.HandleFunc("/api/status", s.handleStatus).Methods(http.MethodGet)
	return r
}

// handleProcess stages the uploaded files in form order and starts one run.
// An empty selection is an input error answered synchronously; it never
// touches the run state machine.
func (s *Server) handleProcess(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadMemory); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("parse upload: %v", err))
		return
	}
	files := r.MultipartForm.File["files"]
	if len(files) == 0 {
		writeError(w, http.StatusBadRequest, "no files selected")
		return
	}
	// Input validation happens before the run slot is touched, so a rejected
	// upload never changes the run state.
	for _, fh := range files {
		if !constants.IsAllowedExt(filepath.Ext(fh.Filename)) {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("unsupported file type: %s", fh.Filename))
			return
		}
	}

	// Reserve the slot before answering. Racing uploads must get 409 here;
	// deferring the reservation to the run goroutine would let both get 202
	// and drop the loser's batch on the floor.
	runID, err := s.processor.Begin()
	if err != nil {
		writeError(w, http.StatusConflict, err.Error())
		return
	}

	stageDir, err := os.MkdirTemp(s.uploadDir, "ic-upload-*")
	if err != nil {
		s.logger.Error("server.stage_dir_error", "error", err)
		s.processor.Abort(runID, err)
		writeError(w, http.StatusInternalServerError, "failed to stage upload")
		return
	}

	docs := make([]pipeline.InputDocument, 0, len(files))
	for i, fh := range files {
		dst := filepath.Join(stageDir, fmt.Sprintf("%03d-%s", i, filepath.Base(fh.Filename)))
		if err := saveUpload(fh, dst); err != nil {
			_ = os.RemoveAll(stageDir)
			s.logger.Error("server.save_upload_error", "file", fh.Filename, "error", err)
			s.processor.Abort(runID, err)
			writeError(w, http.StatusInternalServerError, "failed to stage upload")
			return
		}
		doc, ok := pipeline.NewInputDocument(fh.Filename, dst)
		if !ok {
			_ = os.RemoveAll(stageDir)
			s.processor.Abort(runID, fmt.Errorf("unsupported file type: %s", fh.Filename))
			writeError(w, http.StatusBadRequest, fmt.Sprintf("unsupported file type: %s", fh.Filename))
			return
		}
		docs = append(docs, doc)
	}

	// The run outlives the upload request; the browser follows via /api/status.
	go func() {
		defer func() {
			if rmErr := os.RemoveAll(stageDir); rmErr != nil {
				s.logger.Warn("server.stage_cleanup_error", "dir", stageDir, "error", rmErr)
			}
		}()
		if _, err := s.processor.Resume(context.Background(), runID, docs); err != nil {
			// already reflected in the status cell; log for diagnostics only
			s.logger.Error("server.run_failed", "run_id", runID, "error", err)
		}
	}()

	writeJSON(w, http.StatusAccepted, map[string]string{"status": "accepted"})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.processor.Tracker().Snapshot())
}

func saveUpload(fh *multipart.FileHeader, dst string) error {
	src, err := fh.Open()
	if err != nil {
		return err
	}
	defer func() {
		_ = src.Close()
	}()
	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, src); err != nil {
		_ = out.Close()
		return err
	}
	return out.Close()
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
