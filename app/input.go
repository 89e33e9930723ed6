package app

import (
	"context"

	"github.com/gdamore/tcell/v2"

	"github.com/lixenwraith/rectlap/event"
)

// PollInput forwards terminal events to out until the screen is finalized or ctx is done
// Blocks; run it on its own goroutine
func PollInput(ctx context.Context, screen tcell.Screen, out chan<- tcell.Event) {
	for {
		ev := screen.PollEvent()
		if ev == nil {
			return // Screen finalized
		}
		select {
		case out <- ev:
		case <-ctx.Done():
			return
		}
	}
}

// handleInput maps keys to loop events
// d/Enter detect, r reload, m mute, q/Esc/Ctrl-C quit
func (c *Controller) handleInput(ev tcell.Event) {
	switch ev := ev.(type) {
	case *tcell.EventResize:
		if c.screen != nil {
			c.screen.Sync()
		}
		c.render()
	case *tcell.EventKey:
		var next event.EventType
		switch ev.Key() {
		case tcell.KeyEnter:
			next = event.EventDetectRequest
		case tcell.KeyEscape, tcell.KeyCtrlC:
			next = event.EventQuit
		case tcell.KeyRune:
			switch ev.Rune() {
			case 'd', 'D':
				next = event.EventDetectRequest
			case 'r', 'R':
				next = event.EventLayoutReload
			case 'q', 'Q':
				next = event.EventQuit
			case 'm', 'M':
				if c.cue != nil {
					c.cue.ToggleMute()
				}
				c.render()
				return
			}
		}
		if next == 0 {
			return
		}
		if err := c.Post(event.Event{Type: next}); err != nil {
			// A full or closed queue must not swallow a quit
			c.logger.Error(err, "Input event dropped", "type", next.String())
			if next == event.EventQuit {
				c.quit = true
			}
		}
	}
}
