// Package console reads single keystrokes from the terminal without
// blocking the render loop and edits prompt lines.
package console

import (
	"context"
	"fmt"
	"log"
	"sync"

	"github.com/eiannone/keyboard"
)

// Kind classifies a keystroke
type Kind int

const (
	KindRune      Kind = iota // printable character in Rune
	KindEnter                 // Enter or Return
	KindEscape                // Esc
	KindBackspace             // Backspace or Delete
	KindInterrupt             // Ctrl-C
)

// Key is one keystroke
type Key struct {
	Kind Kind
	Rune rune
}

// Rune returns a printable keystroke
func Rune(r rune) Key { return Key{Kind: KindRune, Rune: r} }

// Input is a non-blocking keystroke source
type Input interface {
	// Poll returns the next pending keystroke, or false when there is none
	Poll() (Key, bool)
}

// Keyboard reads the terminal in raw mode. A producer goroutine waits on
// the terminal and hands keys over a buffered channel.
type Keyboard struct {
	events    chan Key
	cancel    context.CancelFunc
	closeOnce sync.Once
	closeErr  error
}

// Open puts the terminal in raw mode and starts reading keys
func Open(ctx context.Context) (*Keyboard, error) {
	if err := keyboard.Open(); err != nil {
		return nil, fmt.Errorf("failed to open keyboard: %w", err)
	}

	ctx, cancel := context.WithCancel(ctx)
	k := &Keyboard{
		events: make(chan Key, 64),
		cancel: cancel,
	}
	go k.read(ctx)
	return k, nil
}

func (k *Keyboard) read(ctx context.Context) {
	for {
		char, key, err := keyboard.GetKey()
		if err != nil {
			select {
			case <-ctx.Done():
			default:
				log.Printf("Console: keyboard read failed: %v", err)
			}
			return
		}
		ev, ok := translate(char, key)
		if !ok {
			continue
		}
		select {
		case <-ctx.Done():
			return
		case k.events <- ev:
		default:
			// Drop keys when the loop falls behind
		}
	}
}

func translate(char rune, key keyboard.Key) (Key, bool) {
	switch key {
	case keyboard.KeyEnter:
		return Key{Kind: KindEnter}, true
	case keyboard.KeyEsc:
		return Key{Kind: KindEscape}, true
	case keyboard.KeyBackspace, keyboard.KeyBackspace2:
		return Key{Kind: KindBackspace}, true
	case keyboard.KeyCtrlC:
		return Key{Kind: KindInterrupt}, true
	case keyboard.KeySpace:
		return Rune(' '), true
	}
	if char != 0 {
		return Rune(char), true
	}
	return Key{}, false
}

// Poll returns the next pending keystroke without blocking
func (k *Keyboard) Poll() (Key, bool) {
	select {
	case ev := <-k.events:
		return ev, true
	default:
		return Key{}, false
	}
}

// Close restores the terminal. It is safe to call more than once.
func (k *Keyboard) Close() error {
	k.closeOnce.Do(func() {
		k.cancel()
		k.closeErr = keyboard.Close()
	})
	return k.closeErr
}

// Script replays a fixed sequence of keystrokes, one per Poll
type Script struct {
	mu   sync.Mutex
	keys []Key
}

// NewScript creates an input that yields keys in order
func NewScript(keys ...Key) *Script {
	return &Script{keys: keys}
}

// Push appends keystrokes
func (s *Script) Push(keys ...Key) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.keys = append(s.keys, keys...)
}

// Type appends a printable keystroke for each rune of text
func (s *Script) Type(text string) {
	for _, r := range text {
		s.Push(Rune(r))
	}
}

// Poll returns the next scripted keystroke
func (s *Script) Poll() (Key, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.keys) == 0 {
		return Key{}, false
	}
	k := s.keys[0]
	s.keys = s.keys[1:]
	return k, true
}
