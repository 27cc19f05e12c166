// Package terminal puts the dashboard on a tcell screen. A Terminal is both
// the keyboard source for the event multiplexer and the dashboard renderer.
package terminal

import (
	"sync"
	"sync/atomic"

	"codeberg.org/mutker/diskgauge/internal/errors"
	"codeberg.org/mutker/diskgauge/internal/events"
	"codeberg.org/mutker/diskgauge/internal/logger"
	"github.com/gdamore/tcell/v2"
)

type Terminal struct {
	screen tcell.Screen

	// last drawn size; a change forces a full repaint
	width, height int

	// set by Interrupt, consumed by Read
	interrupted atomic.Bool

	closeOnce sync.Once
}

// Open takes over the controlling terminal: raw mode, alternate screen,
// mouse capture and a hidden cursor. Close restores it.
func Open() (*Terminal, error) {
	screen, err := tcell.NewScreen()
	if err != nil {
		return nil, errors.New().Wrap(ErrInitFailed, err)
	}
	return NewWithScreen(screen)
}

// NewWithScreen initializes screen and wraps it.
func NewWithScreen(screen tcell.Screen) (*Terminal, error) {
	if screen == nil {
		return nil, errors.New().WithMessage(errors.ErrInvalidArgument, "screen is required")
	}
	if err := screen.Init(); err != nil {
		return nil, errors.New().Wrap(ErrInitFailed, err)
	}

	screen.EnableMouse()
	screen.HideCursor()
	screen.Clear()

	w, h := screen.Size()
	logger.Debug().Int("width", w).Int("height", h).Msg("Terminal initialized")

	return &Terminal{screen: screen}, nil
}

// Read blocks until a key press or resize. Mouse and other events are
// consumed and ignored so that they never reach the loop.
func (t *Terminal) Read() (events.Event, error) {
	for {
		ev := t.screen.PollEvent()
		if t.interrupted.CompareAndSwap(true, false) {
			return events.Event{}, events.ErrInterrupted
		}
		switch ev := ev.(type) {
		case nil:
			return events.Event{}, errors.New().New(ErrClosed)
		case *tcell.EventKey:
			return events.Input(mapKey(ev)), nil
		case *tcell.EventResize:
			return events.Resize(), nil
		case *tcell.EventInterrupt:
			return events.Event{}, events.ErrInterrupted
		}
	}
}

// Interrupt wakes a pending Read. The flag is set before posting: if the
// queue is full the post is dropped, but then PollEvent has queued events
// to return and Read sees the flag on the way out.
func (t *Terminal) Interrupt() {
	t.interrupted.Store(true)
	if err := t.screen.PostEvent(tcell.NewEventInterrupt(nil)); err != nil {
		logger.Debug().Err(err).Msg("Interrupt not posted")
	}
}

// Close restores the terminal. Safe to call more than once.
func (t *Terminal) Close() error {
	t.closeOnce.Do(func() {
		t.screen.Fini()
		logger.Debug().Msg("Terminal restored")
	})
	return nil
}

func mapKey(ev *tcell.EventKey) events.Key {
	switch ev.Key() {
	case tcell.KeyRune:
		return events.Rune(ev.Rune())
	case tcell.KeyCtrlC:
		return events.Key{Code: events.KeyCtrlC}
	case tcell.KeyEscape:
		return events.Key{Code: events.KeyEscape}
	case tcell.KeyEnter:
		return events.Key{Code: events.KeyEnter}
	default:
		return events.Key{Code: events.KeyOther}
	}
}
