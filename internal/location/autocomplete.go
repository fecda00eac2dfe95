package location

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"candidate-dashboard/internal/common/logger"
)

type Field string

const (
	FieldStates    Field = "states"
	FieldCities    Field = "cities"
	FieldCompanies Field = "companies"
)

type Mode int

const (
	// ModeSearch queries the suggester on every debounced keystroke.
	ModeSearch Mode = iota
	// ModeSelect loads the full option set whenever the parent changes and filters it locally.
	ModeSelect
)

type Status string

const (
	StatusIdle       Status = "idle"
	StatusDebouncing Status = "debouncing"
	StatusLoading    Status = "loading"
	StatusOpen       Status = "open"
	StatusClosed     Status = "closed"
)

// Suggester produces options for a query. parent is the governing value (the selected
// state for a city field) and is empty for independent fields.
type Suggester interface {
	Suggest(ctx context.Context, query, parent string) []string
}

type SuggesterFunc func(ctx context.Context, query, parent string) []string

func (f SuggesterFunc) Suggest(ctx context.Context, query, parent string) []string {
	return f(ctx, query, parent)
}

// StateLookup is the part of Gateway used by StateSuggester.
type StateLookup interface {
	LookupStates(ctx context.Context, query string) Result
}

// CityLookup is the part of Gateway used by CitySuggester.
type CityLookup interface {
	LookupCities(ctx context.Context, query, stateCode string) Result
}

type StateSuggester struct {
	Lookup StateLookup
}

func (s StateSuggester) Suggest(ctx context.Context, query, _ string) []string {
	if strings.TrimSpace(query) == "" {
		return Catalog{}.States()
	}
	return s.Lookup.LookupStates(ctx, query).Names
}

// CitySuggester maps the parent state name to its code before looking cities up.
type CitySuggester struct {
	Lookup CityLookup
}

func (s CitySuggester) Suggest(ctx context.Context, query, parent string) []string {
	code := Catalog{}.CodeFor(parent)
	if code == "" && strings.TrimSpace(query) == "" {
		return []string{}
	}
	return s.Lookup.LookupCities(ctx, query, code).Names
}

type ControllerConfig struct {
	Field          Field
	Mode           Mode
	Debounce       time.Duration
	MinQueryLength int
}

// Snapshot is the observable state of a controller.
type Snapshot struct {
	ID       string   `json:"id"`
	Field    Field    `json:"field"`
	Status   Status   `json:"status"`
	Query    string   `json:"query"`
	Value    string   `json:"value"`
	Parent   string   `json:"parent"`
	Options  []string `json:"options"`
	Disabled bool     `json:"disabled"`
	Seq      uint64   `json:"seq"`
}

type ControllerOption func(*Controller)

// WithOnSelect registers the write-back for a chosen option.
func WithOnSelect(fn func(value string)) ControllerOption {
	return func(c *Controller) {
		c.onSelect = fn
	}
}

// WithOnChange receives a snapshot after every state transition.
func WithOnChange(fn func(Snapshot)) ControllerOption {
	return func(c *Controller) {
		c.onChange = fn
	}
}

// Controller drives one autocomplete field. Every query carries a sequence number and
// only the response to the latest one is applied.
type Controller struct {
	id        string
	cfg       ControllerConfig
	suggester Suggester
	logger    logger.Logger

	ctx    context.Context
	cancel context.CancelFunc

	mu       sync.Mutex
	status   Status
	query    string
	value    string
	parent   string
	options  []string
	all      []string
	seq      uint64
	timer    *time.Timer
	inflight context.CancelFunc
	closed   bool

	onSelect func(string)
	onChange func(Snapshot)
}

func NewController(cfg ControllerConfig, suggester Suggester, log logger.Logger, opts ...ControllerOption) *Controller {
	if cfg.Debounce <= 0 {
		cfg.Debounce = 300 * time.Millisecond
	}
	if cfg.MinQueryLength <= 0 {
		cfg.MinQueryLength = 1
	}
	ctx, cancel := context.WithCancel(context.Background())
	id := uuid.NewString()
	c := &Controller{
		id:        id,
		cfg:       cfg,
		suggester: suggester,
		logger: log.WithFields(map[string]interface{}{
			"controller": id,
			"field":      string(cfg.Field),
		}),
		ctx:    ctx,
		cancel: cancel,
		status: StatusIdle,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.dependentLocked() {
		c.status = StatusClosed
	}
	return c
}

// dependentLocked reports whether a city field is waiting for its state. Callers hold mu
// or own c exclusively.
func (c *Controller) dependentLocked() bool {
	return c.cfg.Field == FieldCities && c.parent == ""
}

// Input handles a keystroke: the text becomes the field value and restarts the debounce timer.
func (c *Controller) Input(text string) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	// a city without its state is disabled and keeps no value
	if c.dependentLocked() {
		c.resetPendingLocked()
		c.options = nil
		c.status = StatusClosed
		snap := c.snapshotLocked()
		c.mu.Unlock()
		c.notify(snap)
		return
	}
	c.query = text
	c.value = text

	// a select field filters what it already loaded; a pending load stays valid
	if c.cfg.Mode == ModeSelect {
		c.options = filterOptions(c.all, text)
		if c.status != StatusLoading {
			c.status = openOrClosed(c.options)
		}
		snap := c.snapshotLocked()
		c.mu.Unlock()
		c.notify(snap)
		return
	}

	c.resetPendingLocked()
	switch {
	case len([]rune(strings.TrimSpace(text))) < c.cfg.MinQueryLength:
		c.options = nil
		c.status = StatusIdle
	default:
		seq := c.seq
		query := text
		c.status = StatusDebouncing
		c.timer = time.AfterFunc(c.cfg.Debounce, func() {
			c.fire(seq, query)
		})
	}
	snap := c.snapshotLocked()
	c.mu.Unlock()
	c.notify(snap)
}

// SetParent changes the governing value. The dependent value is cleared and, in select
// mode, the full option set for the new parent is loaded.
func (c *Controller) SetParent(parent string) {
	c.mu.Lock()
	if c.closed || parent == c.parent {
		c.mu.Unlock()
		return
	}
	c.parent = parent
	c.value = ""
	c.query = ""
	c.options = nil
	c.all = nil
	c.resetPendingLocked()

	var load bool
	switch {
	case c.dependentLocked():
		c.status = StatusClosed
	case c.cfg.Mode == ModeSelect:
		c.status = StatusLoading
		load = true
	default:
		c.status = StatusIdle
	}
	seq := c.seq
	snap := c.snapshotLocked()
	c.mu.Unlock()

	c.notify(snap)
	if load {
		go c.fire(seq, "")
	}
}

// Load fetches the full option set for the current parent. Only meaningful in select mode.
func (c *Controller) Load() {
	c.mu.Lock()
	if c.closed || c.dependentLocked() {
		c.mu.Unlock()
		return
	}
	c.resetPendingLocked()
	c.status = StatusLoading
	seq := c.seq
	snap := c.snapshotLocked()
	c.mu.Unlock()

	c.notify(snap)
	go c.fire(seq, "")
}

// Select writes option back to the owning field and closes the list.
func (c *Controller) Select(option string) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.resetPendingLocked()
	c.value = option
	c.query = option
	c.options = nil
	c.status = StatusClosed
	onSelect := c.onSelect
	snap := c.snapshotLocked()
	c.mu.Unlock()

	if onSelect != nil {
		onSelect(option)
	}
	c.notify(snap)
}

// SetValue pre-fills the field without triggering a lookup.
func (c *Controller) SetValue(value string) {
	c.mu.Lock()
	c.value = value
	c.query = value
	snap := c.snapshotLocked()
	c.mu.Unlock()
	c.notify(snap)
}

// Dismiss closes the suggestion list, as a click outside the field does. Any pending
// lookup is abandoned so it cannot reopen the list.
func (c *Controller) Dismiss() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.resetPendingLocked()
	c.status = StatusClosed
	snap := c.snapshotLocked()
	c.mu.Unlock()
	c.notify(snap)
}

// Open reopens the list on focus when options are already loaded.
func (c *Controller) Open() {
	c.mu.Lock()
	if c.closed || c.dependentLocked() || len(c.options) == 0 {
		c.mu.Unlock()
		return
	}
	c.status = StatusOpen
	snap := c.snapshotLocked()
	c.mu.Unlock()
	c.notify(snap)
}

// Close cancels all work bound to the controller. It is safe to call more than once.
func (c *Controller) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	c.resetPendingLocked()
	c.status = StatusClosed
	c.mu.Unlock()
	c.cancel()
}

func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

func (c *Controller) Value() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.value
}

// resetPendingLocked supersedes any scheduled or in-flight query.
func (c *Controller) resetPendingLocked() {
	c.seq++
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
	if c.inflight != nil {
		c.inflight()
		c.inflight = nil
	}
}

func (c *Controller) fire(seq uint64, query string) {
	c.mu.Lock()
	if c.closed || seq != c.seq {
		c.mu.Unlock()
		return
	}
	ctx, cancel := context.WithCancel(c.ctx)
	c.inflight = cancel
	c.timer = nil
	c.status = StatusLoading
	parent := c.parent
	snap := c.snapshotLocked()
	c.mu.Unlock()
	c.notify(snap)

	options := c.suggester.Suggest(ctx, query, parent)
	cancel()
	if options == nil {
		options = []string{}
	}

	c.mu.Lock()
	if c.closed || seq != c.seq {
		c.mu.Unlock()
		c.logger.Debug("discarding stale suggestions", map[string]interface{}{
			"seq":   seq,
			"query": query,
		})
		return
	}
	c.inflight = nil
	if c.cfg.Mode == ModeSelect {
		c.all = options
		options = filterOptions(options, c.query)
	}
	c.options = options
	c.status = openOrClosed(options)
	snap = c.snapshotLocked()
	c.mu.Unlock()
	c.notify(snap)
}

func (c *Controller) snapshotLocked() Snapshot {
	opts := make([]string, len(c.options))
	copy(opts, c.options)
	return Snapshot{
		ID:       c.id,
		Field:    c.cfg.Field,
		Status:   c.status,
		Query:    c.query,
		Value:    c.value,
		Parent:   c.parent,
		Options:  opts,
		Disabled: c.dependentLocked(),
		Seq:      c.seq,
	}
}

func (c *Controller) notify(s Snapshot) {
	if c.onChange != nil {
		c.onChange(s)
	}
}

func openOrClosed(options []string) Status {
	if len(options) > 0 {
		return StatusOpen
	}
	return StatusClosed
}

func filterOptions(all []string, query string) []string {
	q := normalize(query)
	out := make([]string, 0, len(all))
	for _, o := range all {
		if strings.Contains(strings.ToLower(o), q) {
			out = append(out, o)
		}
	}
	return out
}
