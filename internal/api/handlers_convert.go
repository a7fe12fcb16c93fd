package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/dgallion1/gdocmark/internal/compiler"
	"github.com/dgallion1/gdocmark/internal/decompiler"
	"github.com/dgallion1/gdocmark/internal/docsim"
	"github.com/dgallion1/gdocmark/internal/pipeline"
	"github.com/dgallion1/gdocmark/internal/source"
)

// handleCompile returns the batchUpdate requests for a Markdown body.
// Query parameters base_index and anchors override the configured defaults.
func (s *Server) handleCompile(w http.ResponseWriter, r *http.Request) {
	md, ok := s.readMarkdown(w, r)
	if !ok {
		return
	}
	opts, err := s.compilerOptions(r)
	if err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}

	batch, err := compiler.Compile(md, opts)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"requests": batch.Requests,
		"warnings": nonNil(batch.Warnings),
		"end":      batch.End,
	})
}

// handleDecompile converts an uploaded document file to Markdown.
func (s *Server) handleDecompile(w http.ResponseWriter, r *http.Request) {
	// Limit total request size.
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes+1024*1024) // extra 1MB for form overhead

	if err := r.ParseMultipartForm(32 << 20); err != nil {
		jsonError(w, "invalid multipart form: "+err.Error(), http.StatusBadRequest)
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("file")
	if err != nil {
		jsonError(w, "file is required: "+err.Error(), http.StatusBadRequest)
		return
	}
	defer file.Close()

	filename := sanitizeFilename(header.Filename)
	if !source.IsSupportedExtension(filename) {
		jsonError(w, fmt.Sprintf("unsupported file type: %s", filepath.Ext(filename)), http.StatusBadRequest)
		return
	}
	src, err := source.ForFile(filename)
	if err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}
	if pdf, ok := src.(*source.PDFSource); ok {
		pdf.FallbackPdftotext = s.cfg.PDFFallbackPdftotext
	}

	doc, err := src.Load(io.LimitReader(file, s.cfg.MaxUploadBytes+1), filename)
	if err != nil {
		jsonError(w, "read document: "+err.Error(), http.StatusUnprocessableEntity)
		return
	}
	res, err := decompiler.Decompile(doc, s.decompilerOptions())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"title":    doc.Title,
		"markdown": res.Markdown,
		"warnings": nonNil(res.Warnings),
	})
}

// handleNormalize compiles Markdown, applies it to an empty in-memory
// document and decompiles the result: the canonical form of the input.
func (s *Server) handleNormalize(w http.ResponseWriter, r *http.Request) {
	md, ok := s.readMarkdown(w, r)
	if !ok {
		return
	}
	opts, err := s.compilerOptions(r)
	if err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}
	opts.BaseIndex = 1

	batch, err := compiler.Compile(md, opts)
	if err != nil {
		writeError(w, err)
		return
	}
	d := docsim.New()
	if err := d.Apply(batch.Requests); err != nil {
		writeError(w, err)
		return
	}
	res, err := decompiler.Decompile(d.Render("", ""), s.decompilerOptions())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"markdown": res.Markdown,
		"warnings": append(nonNil(batch.Warnings), res.Warnings...),
	})
}

// readMarkdown reads the request body as Markdown, or the "markdown" field
// of a JSON body.
func (s *Server) readMarkdown(w http.ResponseWriter, r *http.Request) ([]byte, bool) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			jsonError(w, fmt.Sprintf("body exceeds max size (%d bytes)", s.cfg.MaxUploadBytes), http.StatusRequestEntityTooLarge)
			return nil, false
		}
		jsonError(w, "failed to read body", http.StatusBadRequest)
		return nil, false
	}

	if ct, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type")); ct == "application/json" {
		var req struct {
			Markdown string `json:"markdown"`
		}
		if err := json.Unmarshal(body, &req); err != nil {
			jsonError(w, "invalid json: "+err.Error(), http.StatusBadRequest)
			return nil, false
		}
		body = []byte(req.Markdown)
	}
	return body, true
}

func (s *Server) compilerOptions(r *http.Request) (compiler.Options, error) {
	opts := pipeline.CompilerOptions(s.cfg)
	q := r.URL.Query()
	if v := q.Get("base_index"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			return opts, fmt.Errorf("base_index must be a positive integer")
		}
		opts.BaseIndex = n
	}
	if v := q.Get("anchors"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return opts, fmt.Errorf("anchors must be a boolean")
		}
		opts.GenerateAnchors = b
	}
	return opts, nil
}

func (s *Server) decompilerOptions() decompiler.Options {
	return decompiler.Options{
		MonospaceFamily:   s.cfg.MonospaceFontFamily,
		DefaultFontFamily: s.cfg.DefaultFontFamily,
	}
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

func sanitizeFilename(name string) string {
	// Strip path components, keep only the base name.
	name = filepath.Base(name)
	// Remove any path separators that might have survived.
	name = strings.ReplaceAll(name, "/", "_")
	name = strings.ReplaceAll(name, "\\", "_")
	name = strings.ReplaceAll(name, "..", "_")
	if name == "" || name == "." {
		name = "unnamed"
	}
	return name
}
