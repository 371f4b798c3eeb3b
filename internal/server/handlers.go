package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/joseph-ayodele/rfp-agent/constants"
	"github.com/joseph-ayodele/rfp-agent/internal/async"
	"github.com/joseph-ayodele/rfp-agent/internal/common"
	"github.com/joseph-ayodele/rfp-agent/internal/ingest"
	"github.com/joseph-ayodele/rfp-agent/internal/output"
)

const multipartMemory = 32 << 20

func (a *API) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJson(w, http.StatusOK, map[string]string{
		"status":  "healthy",
		"message": "RFP agent API is running",
	})
}

func (a *API) handleUpload(w http.ResponseWriter, r *http.Request) {
	if a.cfg.MaxUploadMB > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, a.cfg.MaxUploadMB<<20+multipartMemory)
	}
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("invalid multipart form: %w", err))
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, errors.New("no file part"))
		return
	}
	defer file.Close()
	if header.Filename == "" {
		writeError(w, http.StatusBadRequest, errors.New("no selected file"))
		return
	}

	path, err := ingest.SaveUpload(a.cfg.UploadDir, header.Filename, file, a.cfg.MaxUploadMB<<20)
	switch {
	case errors.Is(err, common.ErrUnsupportedType):
		writeError(w, http.StatusBadRequest, errors.New("file type not allowed"))
		return
	case err != nil:
		a.logger.Error("failed to save upload", "filename", header.Filename, "error", err)
		writeError(w, statusFor(err), err)
		return
	}

	name := filepath.Base(path)
	rfpID := fmt.Sprintf("RFP-%s-%d", strings.TrimSuffix(name, filepath.Ext(name)), a.now().Unix())
	a.mu.Lock()
	a.uploads[rfpID] = path
	a.mu.Unlock()

	a.logger.Info("rfp uploaded", "rfp_id", rfpID, "path", path)
	writeJson(w, http.StatusCreated, map[string]string{
		"id":        rfpID,
		"filename":  name,
		"status":    "uploaded",
		"file_path": path,
	})
}

// documentPath prefers an explicit path and falls back to the upload registry.
// An explicit path must resolve inside the upload directory.
func (a *API) documentPath(rfpID, explicit string) (string, error) {
	if explicit != "" {
		return ingest.ResolveWithin(a.cfg.UploadDir, explicit)
	}
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.uploads[rfpID], nil
}

func fileExists(path string) bool {
	fi, err := os.Stat(path)
	return err == nil && !fi.IsDir()
}

// decodeOptional decodes a JSON body when one is present.
func decodeOptional(r *http.Request, v any) error {
	err := json.NewDecoder(r.Body).Decode(v)
	if errors.Is(err, io.EOF) {
		return nil
	}
	return err
}

type analyzeRequest struct {
	FilePath string `json:"file_path"`
}

func (a *API) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	rfpID := chi.URLParam(r, "id")
	var req analyzeRequest
	if err := decodeOptional(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("invalid json: %w", err))
		return
	}

	path, err := a.documentPath(rfpID, req.FilePath)
	if err != nil {
		a.logger.Warn("rejected document path", "rfp_id", rfpID, "file_path", req.FilePath, "error", err)
		writeError(w, http.StatusForbidden, err)
		return
	}
	if path == "" || !fileExists(path) {
		writeError(w, http.StatusNotFound, errors.New("file not found"))
		return
	}

	analysis, err := a.analyzer.Analyze(common.WithRFPID(r.Context(), rfpID), path, rfpID)
	if err != nil {
		a.logger.Error("error analyzing rfp", "rfp_id", rfpID, "error", err)
		writeError(w, statusFor(err), err)
		return
	}
	writeJson(w, http.StatusOK, map[string]any{
		"id":       rfpID,
		"status":   "analyzed",
		"analysis": analysis,
	})
}

type generateRequest struct {
	RFPID    string         `json:"rfpId"`
	Title    string         `json:"title"`
	FilePath string         `json:"file_path"`
	Settings map[string]any `json:"settings,omitempty"`
}

func (a *API) handleGenerate(w http.ResponseWriter, r *http.Request) {
	var req generateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("invalid json: %w", err))
		return
	}

	v := common.NewValidator().
		Field("rfpId", req.RFPID, common.Required, common.Identifier, common.MaxLength(128)).
		Field("title", req.Title, common.Required, common.MaxLength(256))
	if v.HasErrors() {
		writeValidation(w, v)
		return
	}

	path, err := a.documentPath(req.RFPID, req.FilePath)
	if err != nil {
		a.logger.Warn("rejected document path", "rfp_id", req.RFPID, "file_path", req.FilePath, "error", err)
		writeError(w, http.StatusForbidden, err)
		return
	}
	if path == "" {
		writeError(w, http.StatusBadRequest, errors.New("missing required parameters"))
		return
	}
	if !fileExists(path) {
		writeError(w, http.StatusNotFound, errors.New("rfp file not found"))
		return
	}

	proposalID := fmt.Sprintf("PROP-%s-%s", req.RFPID, uuid.NewString()[:8])
	id, err := a.jobs.Enqueue(r.Context(), async.Job{
		ID:    proposalID,
		Path:  path,
		RFPID: req.RFPID,
		Title: req.Title,
	})
	if err != nil {
		code := http.StatusInternalServerError
		if errors.Is(err, async.ErrQueueClosed) {
			code = http.StatusServiceUnavailable
		}
		writeError(w, code, err)
		return
	}

	writeJson(w, http.StatusAccepted, map[string]string{
		"id":     id,
		"title":  req.Title,
		"rfpId":  req.RFPID,
		"status": string(constants.JobStatusQueued),
	})
}

func progress(s constants.JobStatus) (int, string) {
	switch s {
	case constants.JobStatusQueued:
		return 0, "Proposal generation is queued"
	case constants.JobStatusRunning:
		return 50, "Proposal generation is in progress"
	case constants.JobStatusCompleted:
		return 100, "Proposal generation completed successfully"
	default:
		return 100, "Proposal generation failed"
	}
}

func writeProposalNotFound(w http.ResponseWriter, id string) {
	err := fmt.Errorf("proposal %s: %w", id, common.ErrNotFound)
	writeError(w, statusFor(err), err)
}

func (a *API) handleStatus(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	info, ok := a.jobs.Status(id)
	if !ok {
		writeProposalNotFound(w, id)
		return
	}
	pct, msg := progress(info.Status)
	body := map[string]any{
		"id":       id,
		"status":   info.Status,
		"progress": pct,
		"message":  msg,
	}
	if info.Error != "" {
		body["error"] = info.Error
	}
	writeJson(w, http.StatusOK, body)
}

func (a *API) handleProposal(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	info, ok := a.jobs.Status(id)
	if !ok {
		writeProposalNotFound(w, id)
		return
	}
	if info.Status != constants.JobStatusCompleted {
		writeError(w, http.StatusConflict, fmt.Errorf("proposal %s is %s", id, info.Status))
		return
	}

	mdPath := info.Outputs[output.KeyMarkdown]
	content, err := os.ReadFile(mdPath)
	if err != nil {
		a.logger.Error("error retrieving proposal", "proposal_id", id, "path", mdPath, "error", err)
		writeError(w, http.StatusInternalServerError, errors.New("proposal document is unavailable"))
		return
	}
	writeJson(w, http.StatusOK, map[string]any{
		"id":           id,
		"title":        info.Title,
		"rfpId":        info.RFPID,
		"status":       info.Status,
		"content":      string(content),
		"file_path":    mdPath,
		"output_files": info.Outputs,
	})
}

func (a *API) handleKnowledge(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	cat, ok := constants.Canonicalize(q.Get("category"))
	if !ok {
		writeError(w, http.StatusBadRequest, fmt.Errorf("%w: unknown category %q", common.ErrInvalidInput, q.Get("category")))
		return
	}
	results, err := a.kb.Search(q.Get("query"), cat)
	if err != nil {
		a.logger.Error("error searching knowledge base", "error", err)
		writeError(w, statusFor(err), err)
		return
	}
	writeJson(w, http.StatusOK, results)
}

func (a *API) handleCategories(w http.ResponseWriter, _ *http.Request) {
	writeJson(w, http.StatusOK, a.kb.Categories())
}
