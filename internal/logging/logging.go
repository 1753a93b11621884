// Package logging configures the process-wide zerolog logger.
package logging

import (
	"io"
	"os"
	"strings"
	"sync"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"ai-arena/internal/config"
)

var (
	writerMu sync.Mutex
	writer   io.Writer = os.Stdout
	file     *rotatingWriter
)

// Init installs the global logger described by cfg. When cfg.File is set, records go to
// stdout and to a size-capped file.
func Init(cfg config.LogConfig) error {
	level := zerolog.InfoLevel
	if v := strings.TrimSpace(cfg.Level); v != "" {
		if parsed, err := zerolog.ParseLevel(strings.ToLower(v)); err == nil {
			level = parsed
		}
	}

	var out io.Writer = os.Stdout
	if cfg.Pretty {
		out = zerolog.ConsoleWriter{Out: os.Stdout}
	}
	raw := io.Writer(os.Stdout)
	if path := strings.TrimSpace(cfg.File); path != "" {
		w, err := newRotatingWriter(path, cfg.MaxMB)
		if err != nil {
			return err
		}
		writerMu.Lock()
		if file != nil {
			_ = file.Close()
		}
		file = w
		writerMu.Unlock()
		out = zerolog.MultiLevelWriter(out, w)
		raw = io.MultiWriter(os.Stdout, w)
	}

	zerolog.SetGlobalLevel(level)
	lctx := zerolog.New(out).With().Timestamp()
	if svc := strings.TrimSpace(cfg.Service); svc != "" {
		lctx = lctx.Str("service", svc)
	}
	logger := lctx.Logger()
	if cfg.SampleEvery > 1 {
		logger = logger.Sample(&zerolog.BasicSampler{N: uint32(cfg.SampleEvery)})
	}
	log.Logger = logger

	writerMu.Lock()
	writer = raw
	writerMu.Unlock()
	return nil
}

// Writer is the destination Init chose, for handlers that format their own records
// (the HTTP access log).
func Writer() io.Writer {
	writerMu.Lock()
	defer writerMu.Unlock()
	return writer
}

// Close flushes and closes the log file, if any.
func Close() error {
	writerMu.Lock()
	defer writerMu.Unlock()
	if file == nil {
		return nil
	}
	err := file.Close()
	file = nil
	writer = os.Stdout
	return err
}
