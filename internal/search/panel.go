package search

import (
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/Nixjoyer/Jump-Ship/internal/catalog"
)

var (
	errEngineRequired = errors.New("search: engine is required")
	errRenderRequired = errors.New("search: render callback is required")
)

// Results is one evaluated search, handed to the panel's render callback.
type Results struct {
	Query    string
	Sort     SortKey
	Products []catalog.Product
}

// Empty reports whether the search matched nothing.
func (r Results) Empty() bool { return len(r.Products) == 0 }

// Panel models the live search overlay: typing is debounced, submitting and
// re-sorting evaluate immediately. Render may be called from a timer goroutine.
type Panel struct {
	engine    *Engine
	debouncer *Debouncer
	render    func(Results)

	mu    sync.Mutex
	query string
	sort  SortKey
	open  bool
}

// PanelOption customises a Panel.
type PanelOption func(*Panel)

// WithDebounce overrides the typing quiet period.
func WithDebounce(delay time.Duration) PanelOption {
	return func(p *Panel) {
		p.debouncer = NewDebouncer(delay)
	}
}

// NewPanel constructs a panel that evaluates queries with engine and reports
// them to render.
func NewPanel(engine *Engine, render func(Results), opts ...PanelOption) (*Panel, error) {
	if engine == nil {
		return nil, errEngineRequired
	}
	if render == nil {
		return nil, errRenderRequired
	}
	p := &Panel{
		engine:    engine,
		debouncer: NewDebouncer(DefaultDebounce),
		render:    render,
		sort:      SortRelevance,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(p)
		}
	}
	return p, nil
}

// Open shows the panel with the browse listing.
func (p *Panel) Open() {
	p.debouncer.Cancel()
	p.mu.Lock()
	p.open = true
	p.query = ""
	p.mu.Unlock()
	p.run()
}

// Close hides the panel, drops pending work and clears the query.
func (p *Panel) Close() {
	p.debouncer.Cancel()
	p.mu.Lock()
	p.open = false
	p.query = ""
	p.mu.Unlock()
}

// Input records a keystroke. Evaluation waits for the debounce window and
// uses whatever query is current when it fires.
func (p *Panel) Input(query string) {
	p.mu.Lock()
	p.query = query
	p.mu.Unlock()
	p.debouncer.Schedule(p.run)
}

// Submit evaluates query immediately, cancelling any pending keystroke run.
func (p *Panel) Submit(query string) {
	p.debouncer.Cancel()
	p.mu.Lock()
	p.query = query
	p.mu.Unlock()
	p.run()
}

// SetSort changes the ordering and re-evaluates the current query.
func (p *Panel) SetSort(key SortKey) {
	p.debouncer.Cancel()
	p.mu.Lock()
	p.sort = key
	p.mu.Unlock()
	p.run()
}

// Query returns the current query text.
func (p *Panel) Query() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.query
}

// IsOpen reports whether the panel is shown.
func (p *Panel) IsOpen() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.open
}

func (p *Panel) run() {
	p.mu.Lock()
	query, key := strings.TrimSpace(p.query), p.sort
	p.mu.Unlock()

	p.render(Results{
		Query:    query,
		Sort:     key,
		Products: p.engine.Search(query, key),
	})
}
