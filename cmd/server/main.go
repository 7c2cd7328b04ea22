// lumen-server serves the terminal viewer over SSH. Every connection gets
// its own engine, device and scenes.
//
//	go build -o lumen-server ./cmd/server
//	./lumen-server [-config lumen.toml] [-port 2222] [-key .ssh/lumen_host_key]
//
// Connect with:
//
//	ssh -t -p 2222 localhost
package main

import (
	"context"
	"crypto/ed25519"
	"crypto/rand"
	"encoding/pem"
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/gdamore/tcell/v2"
	gossh "github.com/gliderlabs/ssh"
	"go.uber.org/zap"
	xssh "golang.org/x/crypto/ssh"
	"golang.org/x/sync/semaphore"

	"lumen/internal/config"
	"lumen/internal/engine"
	"lumen/internal/logging"
	lssh "lumen/internal/ssh"
)

const maxNameBytes = 16

// allowedTerms are the terminal types looked up in terminfo. Anything
// else falls back to xterm-256color.
var allowedTerms = map[string]bool{
	"xterm":                 true,
	"xterm-256color":        true,
	"screen":                true,
	"screen-256color":       true,
	"tmux":                  true,
	"tmux-256color":         true,
	"linux":                 true,
	"vt100":                 true,
	"rxvt-unicode-256color": true,
}

func main() {
	cfgPath := flag.String("config", "lumen.toml", "TOML config file (optional)")
	port := flag.Int("port", 0, "SSH port (overrides the config)")
	keyFile := flag.String("key", "", "PEM host key, created if absent (overrides the config)")
	flag.Parse()

	cfg, err := config.LoadOrDefault(*cfgPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	if *port != 0 {
		cfg.Server.Port = *port
	}
	if *keyFile != "" {
		cfg.Server.HostKey = *keyFile
	}
	log, err := logging.New(cfg.Logging)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	if err := serve(cfg, log); err != nil {
		log.Fatal("server stopped", zap.Error(err))
	}
}

func serve(cfg *config.Config, log *zap.Logger) error {
	signer, err := loadOrCreateHostKey(cfg.Server.HostKey, log)
	if err != nil {
		return err
	}
	h := &handler{
		cfg:      cfg,
		log:      log,
		sessions: semaphore.NewWeighted(int64(max(cfg.Server.MaxSessions, 1))),
	}
	srv := &gossh.Server{
		Addr:        fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:     h.handle,
		PtyCallback: func(gossh.Context, gossh.Pty) bool { return true },
		HostSigners: []gossh.Signer{signer},
		IdleTimeout: cfg.Server.IdleTimeout,
	}
	log.Info("listening", zap.Int("port", cfg.Server.Port), zap.Int("max_sessions", cfg.Server.MaxSessions))
	return srv.ListenAndServe()
}

type handler struct {
	cfg      *config.Config
	log      *zap.Logger
	sessions *semaphore.Weighted
}

// handle runs one viewer for the session and blocks until it ends.
func (h *handler) handle(s gossh.Session) {
	user := sanitizeName(s.User())
	log := h.log.With(zap.String("user", user), zap.String("remote", s.RemoteAddr().String()))

	if !h.sessions.TryAcquire(1) {
		fmt.Fprintln(s, "The server is full, try again later.")
		log.Info("session refused", zap.String("reason", "full"))
		return
	}
	defer h.sessions.Release(1)

	tty, term, err := lssh.NewTty(s)
	if err != nil {
		fmt.Fprintln(s, "lumen needs a terminal. Connect with: ssh -t -p <port> <host>")
		return
	}
	if !allowedTerms[term] {
		log.Debug("unknown terminal", zap.String("term", term))
		term = "xterm-256color"
	}
	screen, err := lssh.NewScreen(tty, term)
	if err != nil {
		fmt.Fprintf(s, "Terminal setup failed: %v\n", err)
		log.Warn("terminal setup failed", zap.Error(err))
		return
	}
	defer screen.Fini()

	if err := h.view(s.Context(), screen, log); err != nil {
		log.Warn("viewer stopped", zap.Error(err))
	}
	log.Info("session closed")
}

func (h *handler) view(ctx context.Context, screen tcell.Screen, log *zap.Logger) error {
	sources, err := engine.Demos(time.Now().UnixNano())
	if err != nil {
		return err
	}
	eng, err := engine.New(h.cfg, screen, log)
	if err != nil {
		return err
	}
	eng.Load(sources...)
	log.Info("session started", zap.Int("scenes", len(sources)))
	return errors.Join(eng.Run(ctx), eng.Close())
}

// sanitizeName strips non-printable runes from a client-supplied name
// and cuts it to maxNameBytes without splitting a rune.
func sanitizeName(name string) string {
	out := make([]byte, 0, maxNameBytes)
	for _, r := range name {
		if !unicode.IsPrint(r) || r == utf8.RuneError {
			continue
		}
		if len(out)+utf8.RuneLen(r) > maxNameBytes {
			break
		}
		out = utf8.AppendRune(out, r)
	}
	return string(out)
}

// loadOrCreateHostKey loads a PEM private key from path, or generates an
// ed25519 key and writes it there.
func loadOrCreateHostKey(path string, log *zap.Logger) (gossh.Signer, error) {
	if data, err := os.ReadFile(path); err == nil {
		signer, err := xssh.ParsePrivateKey(data)
		if err != nil {
			return nil, fmt.Errorf("parse host key %s: %w", path, err)
		}
		log.Info("loaded host key", zap.String("path", path))
		return signer, nil
	}

	_, key, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return nil, fmt.Errorf("generate host key: %w", err)
	}
	signer, err := xssh.NewSignerFromKey(key)
	if err != nil {
		return nil, fmt.Errorf("create signer: %w", err)
	}
	block, err := xssh.MarshalPrivateKey(key, "lumen server")
	if err != nil {
		return nil, fmt.Errorf("marshal host key: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		log.Warn("host key not saved", zap.Error(err))
		return signer, nil
	}
	if err := os.WriteFile(path, pem.EncodeToMemory(block), 0o600); err != nil {
		log.Warn("host key not saved", zap.Error(err))
		return signer, nil
	}
	log.Info("generated host key", zap.String("path", path))
	return signer, nil
}
