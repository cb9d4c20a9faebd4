// Package logging builds the process logger.
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"

	"gopkg.in/natefinch/lumberjack.v2"
)

type Config struct {
	Level  string
	Format string
	// File, when set, receives a copy of every record with size based
	// rotation.
	File string
}

// ParseLevel accepts debug, info, warn and error.
func ParseLevel(s string) (slog.Level, error) {
	var l slog.Level
	if err := l.UnmarshalText([]byte(strings.ToUpper(s))); err != nil {
		return 0, fmt.Errorf("logging: unknown level %q", s)
	}
	return l, nil
}

// New returns a logger writing to stderr and, optionally, to a rotated file.
// The returned func closes the file.
func New(cfg Config, stderr io.Writer) (*slog.Logger, func() error, error) {
	level, err := ParseLevel(cfg.Level)
	if err != nil {
		return nil, nil, err
	}

	w := stderr
	closeFn := func() error { return nil }
	if cfg.File != "" {
		file := &closeFixer{w: &lumberjack.Logger{
			Filename: cfg.File,
			MaxSize:  5, // MB
			// Rotated logs are never deleted without this.
			MaxBackups: 1,
		}}
		w = io.MultiWriter(stderr, file)
		closeFn = file.Close
	}

	hopts := &slog.HandlerOptions{Level: level}

	var h slog.Handler
	switch cfg.Format {
	case "", "text":
		h = slog.NewTextHandler(w, hopts)
	case "json":
		h = slog.NewJSONHandler(w, hopts)
	default:
		_ = closeFn()
		return nil, nil, fmt.Errorf("logging: unknown format %q", cfg.Format)
	}

	return slog.New(h), closeFn, nil
}

// closeFixer drops writes after Close; lumberjack reopens the file on Write.
type closeFixer struct {
	w io.WriteCloser

	mu     sync.Mutex
	closed bool
}

func (c *closeFixer) Write(p []byte) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return 0, io.ErrClosedPipe
	}
	return c.w.Write(p)
}

func (c *closeFixer) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.closed = true
	return c.w.Close()
}
