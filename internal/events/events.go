// Package events merges terminal input and a fixed-interval tick into one
// ordered stream for a single consumer.
//
// Two producer goroutines feed a bounded channel. When the channel is full a
// producer blocks until the consumer catches up, so no tick or key press is
// ever dropped. Events reach the consumer in channel arrival order; there is
// no ordering between producers beyond that.
package events

import (
	"time"

	"codeberg.org/mutker/diskgauge/internal/errors"
)

// Kind tags an Event.
type Kind int

const (
	KindInput Kind = iota
	KindTick
	KindResize
)

func (k Kind) String() string {
	switch k {
	case KindInput:
		return "input"
	case KindTick:
		return "tick"
	case KindResize:
		return "resize"
	default:
		return "unknown"
	}
}

// KeyCode identifies non-printable keys. Printable keys use KeyRune and
// carry the character in Key.Rune.
type KeyCode int

const (
	KeyRune KeyCode = iota
	KeyCtrlC
	KeyEscape
	KeyEnter
	KeyOther
)

// Key is a single key press.
type Key struct {
	Code KeyCode
	Rune rune
}

// Rune returns a printable key.
func Rune(r rune) Key {
	return Key{Code: KeyRune, Rune: r}
}

// Event is produced once by the multiplexer and consumed once by the loop.
type Event struct {
	Kind Kind
	Key  Key       // KindInput only
	Seq  uint64    // KindTick only; starts at 1 and increases by one per tick
	At   time.Time // emission time
}

// Input builds an input event for k.
func Input(k Key) Event {
	return Event{Kind: KindInput, Key: k, At: time.Now()}
}

// Resize builds a resize event.
func Resize() Event {
	return Event{Kind: KindResize, At: time.Now()}
}

// Source is a blocking producer of terminal events.
type Source interface {
	// Read blocks until the terminal produces a key press or a resize.
	// After Interrupt it returns ErrInterrupted.
	Read() (Event, error)

	// Interrupt wakes a pending or future Read.
	Interrupt()
}

const (
	ErrInterruptedCode  = errors.ErrorCode("events_interrupted")
	ErrSourceClosedCode = errors.ErrorCode("events_source_closed")
	ErrClosedCode       = errors.ErrorCode("events_multiplexer_closed")
)

var (
	// ErrInterrupted is returned by Source.Read after Interrupt.
	ErrInterrupted = errors.New().New(ErrInterruptedCode)

	// ErrClosed is returned by Next once the multiplexer is closed.
	ErrClosed = errors.New().New(ErrClosedCode)
)

func init() {
	errors.RegisterMessage(ErrInterruptedCode, "Input read interrupted")
	errors.RegisterMessage(ErrSourceClosedCode, "Input source failed")
	errors.RegisterMessage(ErrClosedCode, "Event multiplexer closed")
}
