package bulletin

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/PuerkitoBio/goquery"
)

// ReloadingLabel is shown on the reload button while a reload is running.
const ReloadingLabel = "Actualizando..."

// DefaultReloadDelay is the pause between the click and the start of the load.
const DefaultReloadDelay = 250 * time.Millisecond

// ErrTriggerBusy is returned when the trigger is clicked while disabled.
var ErrTriggerBusy = errors.New("reload already in progress")

// Trigger is the page's reload button.
type Trigger struct {
	page  *Page
	delay time.Duration
	run   func(ctx context.Context)

	mu   sync.Mutex
	busy bool
}

// NewTrigger creates a reload trigger that calls run after delay.
func NewTrigger(page *Page, delay time.Duration, run func(ctx context.Context)) *Trigger {
	return &Trigger{page: page, delay: delay, run: run}
}

// Busy reports whether a reload is in progress.
func (t *Trigger) Busy() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.busy
}

// Click disables the button and swaps its label, then runs the reload in the
// background. The returned channel is closed once the button is restored,
// which happens whether or not the reload succeeded or ctx was cancelled.
func (t *Trigger) Click(ctx context.Context) (<-chan struct{}, error) {
	t.mu.Lock()
	if t.busy {
		t.mu.Unlock()
		return nil, ErrTriggerBusy
	}
	t.busy = true
	t.mu.Unlock()

	var label string
	t.page.Update(func(doc *goquery.Document) {
		btn := byID(doc, SlotReload)
		label = btn.Text()
		btn.SetAttr("disabled", "disabled")
		btn.SetText(ReloadingLabel)
	})

	done := make(chan struct{})
	go func() {
		defer close(done)
		defer t.restore(label)

		timer := time.NewTimer(t.delay)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return
		case <-timer.C:
		}
		t.run(ctx)
	}()
	return done, nil
}

func (t *Trigger) restore(label string) {
	t.page.Update(func(doc *goquery.Document) {
		btn := byID(doc, SlotReload)
		btn.RemoveAttr("disabled")
		btn.SetText(label)
	})

	t.mu.Lock()
	t.busy = false
	t.mu.Unlock()
}
