package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"sync"

	"github.com/dgallion1/gdocmark/internal/compiler"
	"github.com/dgallion1/gdocmark/internal/config"
	"github.com/dgallion1/gdocmark/internal/docsapi"
	"github.com/dgallion1/gdocmark/internal/fontweight"
	"google.golang.org/api/docs/v1"
)

// CompilerOptions maps configuration onto compiler options. Image embeds
// resolve to IMAGE_BASE_URL + id when a base URL is set.
func CompilerOptions(cfg config.Config) compiler.Options {
	opts := compiler.Options{
		BaseIndex:       1,
		GenerateAnchors: cfg.GenerateAnchors,
		MonospaceFamily: cfg.MonospaceFontFamily,
	}
	if base := cfg.ImageBaseURL; base != "" {
		if !strings.HasSuffix(base, "/") {
			base += "/"
		}
		opts.ImageURI = func(id string) (string, bool) {
			return base + url.PathEscape(id), true
		}
	}
	if cfg.ValidateFonts {
		opts.Catalog = fontweight.KnownFamilies
	}
	return opts
}

// PushLog remembers the content hash last pushed to each document.
type PushLog struct {
	mu     sync.Mutex
	hashes map[string]string
}

func NewPushLog() *PushLog {
	return &PushLog{hashes: map[string]string{}}
}

// Unchanged reports whether hash is what was last pushed to the document.
func (l *PushLog) Unchanged(documentID, hash string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.hashes[documentID] == hash
}

func (l *PushLog) Record(documentID, hash string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.hashes[documentID] = hash
}

// Worker processes a single push job.
type Worker struct {
	source docsapi.Source
	sink   docsapi.Sink
	log    *slog.Logger
	opts   compiler.Options
	pushed *PushLog
}

func NewWorker(source docsapi.Source, sink docsapi.Sink, log *slog.Logger, opts compiler.Options, pushed *PushLog) *Worker {
	return &Worker{
		source: source,
		sink:   sink,
		log:    log,
		opts:   opts,
		pushed: pushed,
	}
}

// Process compiles the job's Markdown and replaces the document body with
// it in a single batchUpdate.
func (w *Worker) Process(ctx context.Context, job *Job) {
	log := w.log.With("job_id", job.ID, "document_id", job.DocumentID)

	// Phase 1: Compile
	job.SetStatus(StatusCompiling, "compiling")
	batch, err := compiler.Compile(job.Markdown(), w.opts)
	if err != nil {
		log.Error("compile failed", "error", err)
		job.AddError(fmt.Sprintf("compile: %s", err))
		job.SetStatus(StatusFailed, "compiling")
		return
	}
	job.SetCompiled(len(batch.Requests), batch.Warnings)
	for _, warn := range batch.Warnings {
		log.Warn("compile warning", "warning", warn)
	}

	if !job.Force && w.pushed.Unchanged(job.DocumentID, job.ContentHash) {
		log.Info("content unchanged since last push, skipping")
		job.SetStatus(StatusUnchanged, "dedup")
		return
	}

	// Phase 2: Read the current body extent.
	job.SetStatus(StatusPushing, "fetching")
	doc, err := w.source.Fetch(ctx, job.DocumentID)
	if err != nil {
		log.Error("fetch failed", "error", err)
		job.AddError(fmt.Sprintf("fetch: %s", err))
		job.SetStatus(StatusFailed, "fetching")
		return
	}

	// Phase 3: Replace the body.
	job.SetStatus(StatusPushing, "pushing")
	reqs := append(ClearRequests(doc), batch.Requests...)
	if err := w.sink.Apply(ctx, job.DocumentID, reqs); err != nil {
		log.Error("push failed", "error", err)
		job.AddError(fmt.Sprintf("push: %s", err))
		job.SetStatus(StatusFailed, "pushing")
		return
	}
	w.pushed.Record(job.DocumentID, job.ContentHash)

	log.Info("push complete", "requests", len(reqs), "warnings", len(batch.Warnings))
	job.SetStatus(StatusCompleted, "done")
}

// ClearRequests empties the body of doc, leaving one plain paragraph so
// compiled content inserted at index 1 inherits no heading or list.
func ClearRequests(doc *docs.Document) []*docs.Request {
	var reqs []*docs.Request
	if end := bodyEnd(doc); end > 2 {
		reqs = append(reqs, &docs.Request{DeleteContentRange: &docs.DeleteContentRangeRequest{
			Range: &docs.Range{StartIndex: 1, EndIndex: end - 1},
		}})
	}
	first := &docs.Range{StartIndex: 1, EndIndex: 2}
	return append(reqs,
		&docs.Request{UpdateParagraphStyle: &docs.UpdateParagraphStyleRequest{
			Range:          first,
			ParagraphStyle: &docs.ParagraphStyle{NamedStyleType: "NORMAL_TEXT"},
			Fields:         "namedStyleType",
		}},
		&docs.Request{DeleteParagraphBullets: &docs.DeleteParagraphBulletsRequest{Range: first}},
	)
}

func bodyEnd(doc *docs.Document) int64 {
	body := doc.Body
	if body == nil && len(doc.Tabs) > 0 && doc.Tabs[0].DocumentTab != nil {
		body = doc.Tabs[0].DocumentTab.Body
	}
	if body == nil || len(body.Content) == 0 {
		return 0
	}
	return body.Content[len(body.Content)-1].EndIndex
}
