package ingestion

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/poiesic/dartos/core"
	"github.com/poiesic/dartos/storage"
)

// transition is one requested status change for a document.
// Content and errorMessage ride along so the document record is updated in
// the same write as the status.
type transition struct {
	docID        core.ID
	to           core.Status
	content      string
	errorMessage string
	reply        chan error
}

// transitionWriter applies status changes one at a time. Funnelling every
// change through a single goroutine makes illegal interleavings (two workers
// racing a document from processing to different terminal states) impossible
// without per-document locking in the repositories.
type transitionWriter struct {
	docs   storage.DocumentRepository
	reqs   chan transition
	done   chan struct{}
	logger *slog.Logger

	mu     sync.RWMutex
	closed bool
}

func newTransitionWriter(docs storage.DocumentRepository, logger *slog.Logger) *transitionWriter {
	w := &transitionWriter{
		docs:   docs,
		reqs:   make(chan transition, 64),
		done:   make(chan struct{}),
		logger: logger,
	}
	go w.run()
	return w
}

func (w *transitionWriter) run() {
	defer close(w.done)
	for req := range w.reqs {
		req.reply <- w.apply(req)
	}
}

// apply validates and persists one transition.
func (w *transitionWriter) apply(req transition) error {
	ctx := context.Background()

	doc, err := w.docs.GetDocument(ctx, req.docID)
	if err != nil {
		return err
	}

	if !core.CanTransition(doc.Status, req.to) {
		return fmt.Errorf("%w: %s -> %s", core.ErrInvalidStatus, doc.Status, req.to)
	}

	doc.Status = req.to
	if req.content != "" {
		doc.Content = req.content
	}
	if req.to == core.StatusFailed {
		doc.ErrorMessage = req.errorMessage
	} else {
		// Leaving a failed state (or any other) clears the stale message.
		doc.ErrorMessage = ""
	}

	if err := w.docs.PutDocument(ctx, doc); err != nil {
		return err
	}

	w.logger.Debug("document transitioned",
		"document", req.docID, "status", req.to.String())
	return nil
}

// transitionTo requests a status change and waits for the outcome.
func (w *transitionWriter) transitionTo(docID core.ID, to core.Status, content, errorMessage string) error {
	// The read lock makes the closed check and the channel send atomic with
	// respect to close().
	w.mu.RLock()
	if w.closed {
		w.mu.RUnlock()
		return ErrPipelineClosed
	}

	reply := make(chan error, 1)
	w.reqs <- transition{
		docID:        docID,
		to:           to,
		content:      content,
		errorMessage: errorMessage,
		reply:        reply,
	}
	w.mu.RUnlock()

	return <-reply
}

// close stops the writer after draining queued transitions.
func (w *transitionWriter) close() {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return
	}
	w.closed = true
	close(w.reqs)
	w.mu.Unlock()

	<-w.done
}
