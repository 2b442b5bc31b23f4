package domain

// Table window defaults. Collapsing resets to a smaller window than the first load.
const (
	DefaultInitialWindow = 10
	DefaultStepSize      = 8
	DefaultResetWindow   = 4
)

// Toggle labels for the table's show-more control.
const (
	LabelShowMore = "show more"
	LabelCollapse = "collapse"
)

// PaginatorConfig sets the window sizes. Zero fields take the defaults.
type PaginatorConfig struct {
	InitialWindow int
	StepSize      int
	ResetWindow   int
}

func (c PaginatorConfig) withDefaults() PaginatorConfig {
	if c.InitialWindow <= 0 {
		c.InitialWindow = DefaultInitialWindow
	}
	if c.StepSize <= 0 {
		c.StepSize = DefaultStepSize
	}
	if c.ResetWindow <= 0 {
		c.ResetWindow = DefaultResetWindow
	}
	return c
}

// Paginator owns the visible window of one ranked table. It is not safe for
// concurrent use; each table gets its own.
type Paginator struct {
	cfg     PaginatorConfig
	total   int
	visible int
}

// NewPaginator starts a paginator over total items at the initial window.
func NewPaginator(total int, cfg PaginatorConfig) *Paginator {
	cfg = cfg.withDefaults()
	return &Paginator{cfg: cfg, total: max(total, 0), visible: cfg.InitialWindow}
}

// RestorePaginator rebuilds a paginator at a previously reported visible
// count, e.g. one echoed back by a stateless client. visible <= 0 starts fresh.
func RestorePaginator(total, visible int, cfg PaginatorConfig) *Paginator {
	p := NewPaginator(total, cfg)
	if visible > 0 {
		p.visible = visible
	}
	return p
}

// Expand grows the window by one step, or collapses it to the reset window
// once everything is already visible. It returns the new visible count.
func (p *Paginator) Expand() int {
	if p.visible >= p.total {
		p.visible = p.cfg.ResetWindow
	} else {
		p.visible += p.cfg.StepSize
	}
	return p.visible
}

// SetTotal updates the item count after a refresh; the window is kept.
func (p *Paginator) SetTotal(total int) {
	p.total = max(total, 0)
}

// VisibleCount is the raw window size, which may exceed the item count.
func (p *Paginator) VisibleCount() int { return p.visible }

// VisibleRows is the number of rows actually shown: the window clamped to the item count.
func (p *Paginator) VisibleRows() int { return min(p.visible, p.total) }

// Total is the item count the window applies to.
func (p *Paginator) Total() int { return p.total }

// IsExpandable reports whether items remain hidden.
func (p *Paginator) IsExpandable() bool { return p.visible < p.total }

// ToggleLabel picks the caption for the show-more control.
func (p *Paginator) ToggleLabel() string {
	if p.IsExpandable() {
		return LabelShowMore
	}
	return LabelCollapse
}

// Window returns the visible prefix of points.
func (p *Paginator) Window(points []CanonicalPoint) []CanonicalPoint {
	n := min(p.visible, len(points))
	return points[:n:n]
}
