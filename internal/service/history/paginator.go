// Package history loads chat transcripts backwards through the cursor API
// and keeps the scroll position anchored while older pages are prepended.
package history

import (
	"context"
	"log"
	"sync"

	"github.com/bekzodm/murojaat-desk/internal/api"
	"github.com/bekzodm/murojaat-desk/internal/domain"
)

// Viewport is the UI adapter boundary: the scrollable transcript element.
// Heights and offsets are pixels. ScrollHeight must reflect the rendered
// message list at the moment it is called.
type Viewport interface {
	ScrollTop() int
	SetScrollTop(int)
	ScrollHeight() int
	ClientHeight() int
}

// Loader fetches one page of history. Satisfied by api.Client.
type Loader interface {
	History(ctx context.Context, sessionUUID, cursor, lang string) (*api.HistoryPage, error)
}

const (
	// LoadOlder triggers when the viewport is within this many pixels of
	// the top.
	nearTopThreshold = 80

	// Auto-scroll on new messages only when the reader was within this many
	// pixels of the bottom.
	nearBottomThreshold = 120
)

// Paginator owns one session's transcript: the ordered message list, the
// backward cursor, and the identity set used to drop duplicates from both
// re-fetched pages and at-least-once realtime delivery.
type Paginator struct {
	mu       sync.Mutex
	loader   Loader
	viewport Viewport

	sessionUUID string
	lang        string

	session  *domain.Session
	messages []domain.Message
	seen     map[string]struct{}
	cursor   string
	hasMore  bool
	loading  bool
}

func NewPaginator(loader Loader, viewport Viewport, sessionUUID, lang string) *Paginator {
	return &Paginator{
		loader:      loader,
		viewport:    viewport,
		sessionUUID: sessionUUID,
		lang:        lang,
		seen:        make(map[string]struct{}),
	}
}

// Load fetches the newest page and scrolls to the bottom.
func (p *Paginator) Load(ctx context.Context) error {
	p.mu.Lock()
	if p.loading {
		p.mu.Unlock()
		return domain.ErrLoadInProgress
	}
	p.loading = true
	p.mu.Unlock()

	page, err := p.loader.History(ctx, p.sessionUUID, "", p.lang)

	p.mu.Lock()
	defer p.mu.Unlock()
	p.loading = false
	if err != nil {
		return err
	}

	p.session = &page.Session
	p.messages = nil
	p.seen = make(map[string]struct{})
	for _, m := range page.Messages {
		if _, dup := p.seen[m.UUID]; dup {
			continue
		}
		p.seen[m.UUID] = struct{}{}
		p.messages = append(p.messages, m)
	}
	p.cursor = page.Next
	p.hasMore = page.HasMore

	p.viewport.SetScrollTop(p.viewport.ScrollHeight() - p.viewport.ClientHeight())
	return nil
}

// NearTop reports whether the viewport has scrolled close enough to the top
// to warrant loading another page.
func (p *Paginator) NearTop() bool {
	return p.viewport.ScrollTop() < nearTopThreshold
}

// LoadOlder prepends the next older page. A load already in flight or an
// exhausted cursor suppresses the call. The scroll offset is adjusted by the
// content-height delta so the messages already on screen do not move.
func (p *Paginator) LoadOlder(ctx context.Context) error {
	p.mu.Lock()
	if p.loading {
		p.mu.Unlock()
		return domain.ErrLoadInProgress
	}
	if !p.hasMore || p.cursor == "" {
		p.mu.Unlock()
		return domain.ErrNoCursor
	}
	p.loading = true
	cursor := p.cursor
	p.mu.Unlock()

	page, err := p.loader.History(ctx, p.sessionUUID, cursor, p.lang)

	p.mu.Lock()
	defer p.mu.Unlock()
	p.loading = false
	if err != nil {
		log.Printf("[HISTORY] %s: loadOlder failed: %v", p.sessionUUID, err)
		return err
	}

	heightBefore := p.viewport.ScrollHeight()
	topBefore := p.viewport.ScrollTop()

	fresh := make([]domain.Message, 0, len(page.Messages))
	for _, m := range page.Messages {
		if _, dup := p.seen[m.UUID]; dup {
			continue
		}
		p.seen[m.UUID] = struct{}{}
		fresh = append(fresh, m)
	}
	p.messages = append(fresh, p.messages...)
	p.cursor = page.Next
	p.hasMore = page.HasMore

	// Anchor: whatever was at the old top stays at the same pixel.
	delta := p.viewport.ScrollHeight() - heightBefore
	p.viewport.SetScrollTop(topBefore + delta)
	return nil
}

// Append adds one new message at the tail (realtime delivery or the
// optimistic copy of an own send). A message already held is a no-op.
// Auto-scrolls only when the reader was already near the bottom; someone
// reading older history keeps their place.
func (p *Paginator) Append(m domain.Message) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	if _, dup := p.seen[m.UUID]; dup {
		return false
	}

	wasNearBottom := p.viewport.ScrollHeight()-p.viewport.ScrollTop()-p.viewport.ClientHeight() <= nearBottomThreshold

	p.seen[m.UUID] = struct{}{}
	p.messages = append(p.messages, m)

	if wasNearBottom {
		p.viewport.SetScrollTop(p.viewport.ScrollHeight() - p.viewport.ClientHeight())
	}
	return true
}

// Messages returns a snapshot ordered oldest to newest.
func (p *Paginator) Messages() []domain.Message {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]domain.Message, len(p.messages))
	copy(out, p.messages)
	return out
}

// Session returns the session metadata from the initial load, if loaded.
func (p *Paginator) Session() *domain.Session {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.session
}

// HasMore reports whether older pages remain.
func (p *Paginator) HasMore() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.hasMore
}
