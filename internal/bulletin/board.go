package bulletin

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Board ties a page to its loader: each refresh loads a bulletin, renders it
// and reports the status.
type Board struct {
	page   *Page
	loader *Loader
	logger *zap.Logger
	now    func() time.Time

	mu       sync.RWMutex
	last     Outcome
	loadedAt time.Time
}

// NewBoard creates a Board.
func NewBoard(page *Page, loader *Loader, logger *zap.Logger) *Board {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Board{
		page:   page,
		loader: loader,
		logger: logger,
		now:    time.Now,
	}
}

// Page returns the board's page.
func (b *Board) Page() *Page {
	return b.page
}

// Refresh loads and renders the bulletin. Overlapping refreshes are not
// coordinated; whichever finishes last owns the page.
func (b *Board) Refresh(ctx context.Context) Outcome {
	out := b.loader.Load(ctx)
	now := b.now()

	Render(b.page, out.Record, now)
	ReportStatus(b.page, b.logger, out.Message, out.IsError)

	b.mu.Lock()
	b.last = out
	b.loadedAt = now
	b.mu.Unlock()

	return out
}

// Last returns the most recent outcome and when it was rendered.
// The time is zero before the first refresh.
func (b *Board) Last() (Outcome, time.Time) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.last, b.loadedAt
}
