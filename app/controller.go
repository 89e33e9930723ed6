// Package app holds the interactive loop: it owns the layout, triggers detection passes and
// publishes their results to the model.
package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/go-logr/logr"

	"github.com/lixenwraith/rectlap/dispatch"
	"github.com/lixenwraith/rectlap/event"
	"github.com/lixenwraith/rectlap/geom"
	"github.com/lixenwraith/rectlap/layout"
	"github.com/lixenwraith/rectlap/metrics"
	"github.com/lixenwraith/rectlap/model"
	"github.com/lixenwraith/rectlap/render"
)

// DefaultFrameInterval is the redraw period of the interactive loop
const DefaultFrameInterval = 50 * time.Millisecond

// Cue plays the completion sound; *audio.Player satisfies it
type Cue interface {
	PlayResult(overlapping int) bool
	ToggleMute() bool
	Muted() bool
}

// Baseliner is told the fingerprint of layouts loaded outside the watcher
type Baseliner interface {
	SetBaseline(fp uint64)
}

// Deps are the collaborators of a Controller; Screen, Cue, Watcher and Metrics are optional
// Queue carries input and layout events; completions arrive on Dispatcher.Completions
type Deps struct {
	Queue      *event.Queue
	Dispatcher *dispatch.Dispatcher
	Model      *model.LayoutModel
	Screen     tcell.Screen
	Cue        Cue
	Watcher    Baseliner
	Metrics    *metrics.Metrics
}

// Options configures a Controller
type Options struct {
	LayoutPath    string
	FrameInterval time.Duration
	// AutoDetect starts a pass when Run begins and after every layout change
	AutoDetect bool
	ColorSeed  int64
	Logger     logr.Logger
}

// Controller is the interactive context: every mutation of the layout and the model happens on
// the goroutine running Run or RunOnce
type Controller struct {
	queue      *event.Queue
	dispatcher *dispatch.Dispatcher
	model      *model.LayoutModel
	screen     tcell.Screen
	renderer   *render.TerminalRenderer
	cue        Cue
	watcher    Baseliner
	metrics    *metrics.Metrics
	logger     logr.Logger
	opts       Options

	rects       []geom.Rectangle // Current layout, loop-owned
	fingerprint uint64
	generation  uint64 // Bumped on every layout change; results from older generations are dropped
	applied     uint64 // Seq of the last published result
	status      render.Status
	fatal       error
	quit        bool
}

// New creates a Controller
func New(deps Deps, opts Options) *Controller {
	if opts.FrameInterval <= 0 {
		opts.FrameInterval = DefaultFrameInterval
	}
	c := &Controller{
		queue:      deps.Queue,
		dispatcher: deps.Dispatcher,
		model:      deps.Model,
		screen:     deps.Screen,
		cue:        deps.Cue,
		watcher:    deps.Watcher,
		metrics:    deps.Metrics,
		logger:     opts.Logger.WithName("controller"),
		opts:       opts,
	}
	if deps.Screen != nil {
		c.renderer = render.NewTerminalRenderer(deps.Screen, opts.ColorSeed)
	}
	c.status.Layout = opts.LayoutPath
	if c.cue != nil {
		c.status.Muted = c.cue.Muted()
	}
	return c
}

// SetLayout replaces the current layout and publishes it without overlap flags
// Results of passes started on an earlier layout are discarded when they arrive
func (c *Controller) SetLayout(rects []geom.Rectangle, fp uint64) {
	c.rects = geom.Clone(rects)
	for i := range c.rects {
		c.rects[i].Overlaps = false
	}
	c.fingerprint = fp
	c.generation++
	c.status.Fingerprint = fp
	c.model.ReplaceAll(c.rects)
	if c.watcher != nil {
		c.watcher.SetBaseline(fp)
	}
}

// Fingerprint identifies the current layout geometry
func (c *Controller) Fingerprint() uint64 {
	return c.fingerprint
}

// Layout returns a copy of the current layout
func (c *Controller) Layout() []geom.Rectangle {
	return geom.Clone(c.rects)
}

// Detect starts a detection pass on the current layout
// The result is published on a later loop turn; ErrBusy is reported in the status bar and
// swallowed, any other dispatch error is fatal to the session and returned
func (c *Controller) Detect() error {
	_, err := c.detect()
	return err
}

// detect returns a zero ticket when the dispatcher was busy
func (c *Controller) detect() (dispatch.Ticket, error) {
	gen := c.generation
	ticket, err := c.dispatcher.Dispatch(c.rects, func(res dispatch.Result) {
		c.apply(res, gen)
	})
	if err != nil {
		if errors.Is(err, dispatch.ErrBusy) {
			c.logger.Info("Detection skipped", "reason", err.Error())
			c.setMessage("busy: previous passes still running", false)
			return dispatch.Ticket{}, nil
		}
		c.logger.Error(err, "Detection dispatch failed")
		c.fatal = fmt.Errorf("detect: %w", err)
		c.setMessage(err.Error(), true)
		return dispatch.Ticket{}, c.fatal
	}
	c.logger.V(1).Info("Detection requested", "seq", ticket.Seq, "rects", len(c.rects))
	c.setMessage(fmt.Sprintf("detecting #%d", ticket.Seq), false)
	return ticket, nil
}

// apply publishes a finished pass; runs on the loop via Dispatcher.Deliver
func (c *Controller) apply(res dispatch.Result, gen uint64) {
	logger := c.logger.WithValues("seq", res.Seq, "run", res.RunID)
	if res.Stale {
		logger.V(1).Info("Dropped stale result")
		return
	}
	if gen != c.generation {
		logger.Info("Dropped result for a replaced layout")
		return
	}

	c.rects = res.Rects
	c.applied = res.Seq
	c.model.ReplaceAll(res.Rects)

	overlapping := res.Stats.Marked
	c.metrics.Published(len(res.Rects), overlapping)
	if c.cue != nil {
		c.cue.PlayResult(overlapping)
	}
	logger.Info("Published result", "rects", len(res.Rects), "overlapping", overlapping, "elapsed", res.Elapsed)
	c.setMessage(fmt.Sprintf("%d of %d overlapping in %s", overlapping, len(res.Rects), res.Elapsed.Round(time.Microsecond)), false)
}

// Reload reads the layout file again; failures keep the current layout
func (c *Controller) Reload() {
	rects, err := layout.Load(c.opts.LayoutPath)
	if err != nil {
		c.logger.Error(err, "Reload failed")
		c.setMessage(err.Error(), true)
		return
	}
	c.layoutChanged(rects, layout.Fingerprint(rects))
}

func (c *Controller) layoutChanged(rects []geom.Rectangle, fp uint64) {
	c.SetLayout(rects, fp)
	c.logger.Info("Layout loaded", "rects", len(rects), "fingerprint", fp)
	c.setMessage(fmt.Sprintf("loaded %d rectangles", len(rects)), false)
	if c.opts.AutoDetect {
		_ = c.Detect()
	}
}

// Post queues an event for the loop
func (c *Controller) Post(ev event.Event) error {
	return c.queue.Push(ev)
}

// drain handles every input and layout event currently queued
func (c *Controller) drain() {
	for _, ev := range c.queue.Consume() {
		c.handle(ev)
	}
}

// drainCompletions delivers every finished pass currently queued
func (c *Controller) drainCompletions() {
	for _, ev := range c.dispatcher.Completions().Consume() {
		c.handle(ev)
	}
}

func (c *Controller) handle(ev event.Event) {
	switch ev.Type {
	case event.EventDetectRequest:
		_ = c.Detect()
	case event.EventDetectComplete:
		if completion, ok := ev.Payload.(*dispatch.Completion); ok {
			c.dispatcher.Deliver(completion)
		}
	case event.EventLayoutReload:
		c.Reload()
	case event.EventLayoutChanged:
		if p, ok := ev.Payload.(*event.LayoutChangedPayload); ok {
			c.layoutChanged(p.Rects, p.Fingerprint)
		}
	case event.EventLayoutError:
		if p, ok := ev.Payload.(*event.LayoutErrorPayload); ok {
			c.setMessage(fmt.Sprintf("reload failed, keeping previous layout: %v", p.Err), true)
		}
	case event.EventQuit:
		c.quit = true
	default:
		c.logger.Info("Ignored event", "type", ev.Type.String())
	}
}

func (c *Controller) setMessage(msg string, isErr bool) {
	c.status.Message = msg
	c.status.Error = isErr || c.fatal != nil
}

// Status returns the current status bar state
func (c *Controller) Status() render.Status {
	st := c.status
	if c.dispatcher != nil {
		st.InFlight = c.dispatcher.InFlight()
		st.Pending = c.dispatcher.Pending()
	}
	if c.cue != nil {
		st.Muted = c.cue.Muted()
	}
	return st
}

func (c *Controller) render() {
	if c.renderer != nil {
		c.renderer.RenderFrame(c.model, c.Status())
	}
}

// Run is the interactive loop; it returns nil on quit or context cancellation and the
// dispatch error when detection can no longer run
func (c *Controller) Run(ctx context.Context, input <-chan tcell.Event) error {
	ticker := time.NewTicker(c.opts.FrameInterval)
	defer ticker.Stop()

	if c.opts.AutoDetect {
		if err := c.Detect(); err != nil {
			c.render()
			return err
		}
	}
	c.render()

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-input:
			if !ok {
				return nil
			}
			c.handleInput(ev)
		case <-c.queue.Ready():
			c.drain()
		case <-c.dispatcher.Completions().Ready():
			c.drainCompletions()
		case <-ticker.C:
			c.render()
		}

		if c.fatal != nil {
			c.render()
			return c.fatal
		}
		if c.quit {
			return nil
		}
	}
}

// RunOnce performs one detection pass through the dispatcher and its completion queue and waits
// for it to be published
func (c *Controller) RunOnce(ctx context.Context) ([]geom.Rectangle, error) {
	ticket, err := c.detect()
	if err != nil {
		return nil, err
	}
	if ticket.Seq == 0 {
		return nil, dispatch.ErrBusy
	}

	for c.applied < ticket.Seq {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-c.dispatcher.Completions().Ready():
			c.drainCompletions()
		}
		if c.fatal != nil {
			return nil, c.fatal
		}
	}
	return c.model.Snapshot(), nil
}
