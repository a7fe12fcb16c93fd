package api

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/dgallion1/gdocmark/internal/decompiler"
	"github.com/dgallion1/gdocmark/internal/pipeline"
	"github.com/go-chi/chi/v5"
)

// handleDocumentMarkdown fetches a document and returns it as Markdown.
func (s *Server) handleDocumentMarkdown(w http.ResponseWriter, r *http.Request) {
	if s.source == nil {
		jsonError(w, "document source unavailable", http.StatusServiceUnavailable)
		return
	}
	docID := chi.URLParam(r, "docID")

	doc, err := s.source.Fetch(r.Context(), docID)
	if err != nil {
		s.log.Error("fetch document failed", "document_id", docID, "error", err)
		writeError(w, err)
		return
	}
	res, err := decompiler.Decompile(doc, s.decompilerOptions())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"document_id": docID,
		"title":       doc.Title,
		"markdown":    res.Markdown,
		"warnings":    nonNil(res.Warnings),
	})
}

// handlePush queues a job replacing the document body with the Markdown
// request body.
func (s *Server) handlePush(w http.ResponseWriter, r *http.Request) {
	docID := chi.URLParam(r, "docID")
	md, ok := s.readMarkdown(w, r)
	if !ok {
		return
	}
	force := false
	if v := r.URL.Query().Get("force"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			jsonError(w, "force must be a boolean", http.StatusBadRequest)
			return
		}
		force = b
	}

	job := pipeline.NewJob(docID, md, force)
	if err := s.orchestrator.Submit(job); err != nil {
		jsonError(w, err.Error(), http.StatusServiceUnavailable)
		return
	}

	snap := job.Snapshot()
	writeJSON(w, http.StatusAccepted, map[string]any{
		"job_id":      snap.ID,
		"document_id": snap.DocumentID,
		"status":      snap.Status,
		"poll_url":    fmt.Sprintf("/api/jobs/%s", snap.ID),
	})
}

func (s *Server) handleJobStatus(w http.ResponseWriter, r *http.Request) {
	jobID := chi.URLParam(r, "jobID")
	job := s.orchestrator.GetJob(jobID)
	if job == nil {
		jsonError(w, "job not found", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, job.Snapshot())
}
