// Package ssh gives each SSH session its own tcell screen.
package ssh

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/gdamore/tcell/v2"
	gossh "github.com/gliderlabs/ssh"
)

// ErrNoPty is returned for sessions opened without a terminal.
var ErrNoPty = errors.New("ssh: session has no pty")

const defaultTerm = "xterm-256color"

// Tty implements tcell.Tty on top of a session. Window changes from the
// client update the size tcell reads back.
type Tty struct {
	session gossh.Session
	changes <-chan gossh.Window

	mu       sync.Mutex
	window   gossh.Window
	onResize func()
	watching bool
}

// NewTty wraps s. It fails with ErrNoPty when the client did not ask for
// a terminal.
func NewTty(s gossh.Session) (*Tty, string, error) {
	pty, changes, ok := s.Pty()
	if !ok {
		return nil, "", ErrNoPty
	}
	term := pty.Term
	for _, env := range s.Environ() {
		if v, found := strings.CutPrefix(env, "TERM="); found {
			term = v
		}
	}
	if term == "" {
		term = defaultTerm
	}
	return &Tty{session: s, changes: changes, window: pty.Window}, term, nil
}

func (t *Tty) Read(b []byte) (int, error)  { return t.session.Read(b) }
func (t *Tty) Write(b []byte) (int, error) { return t.session.Write(b) }
func (t *Tty) Close() error                { return t.session.Close() }

// Start, Stop and Drain have nothing to do; the channel is already raw.
func (t *Tty) Start() error { return nil }
func (t *Tty) Stop() error  { return nil }
func (t *Tty) Drain() error { return nil }

func (t *Tty) WindowSize() (tcell.WindowSize, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return tcell.WindowSize{Width: t.window.Width, Height: t.window.Height}, nil
}

// NotifyResize sets the callback run after each window change. The
// watcher goroutine starts on the first call and ends with the session.
func (t *Tty) NotifyResize(cb func()) {
	t.mu.Lock()
	t.onResize = cb
	start := !t.watching && t.changes != nil
	t.watching = true
	t.mu.Unlock()
	if start {
		go t.watch()
	}
}

func (t *Tty) watch() {
	for w := range t.changes {
		t.mu.Lock()
		t.window = w
		cb := t.onResize
		t.mu.Unlock()
		if cb != nil {
			cb()
		}
	}
}

// termMu serialises the TERM swap tcell's terminfo lookup depends on.
var termMu sync.Mutex

// NewScreen creates and initialises a screen drawing to tty, looking up
// term in the terminfo database.
func NewScreen(tty *Tty, term string) (tcell.Screen, error) {
	termMu.Lock()
	prev, had := os.LookupEnv("TERM")
	os.Setenv("TERM", term)
	screen, err := tcell.NewTerminfoScreenFromTty(tty)
	if had {
		os.Setenv("TERM", prev)
	} else {
		os.Unsetenv("TERM")
	}
	termMu.Unlock()
	if err != nil {
		return nil, fmt.Errorf("create screen for %s: %w", term, err)
	}
	if err := screen.Init(); err != nil {
		return nil, fmt.Errorf("init screen: %w", err)
	}
	return screen, nil
}
