package logx

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

type Config struct {
	Level   string
	Console bool
	File    FileConfig
	Hook    HookConfig
}

type FileConfig struct {
	Enabled bool
	Path    string
}

// HookConfig selects records for the HookFunc installed with SetHook:
// MinLevel and above, at most RatePerSec per second.
type HookConfig struct {
	Enabled    bool
	MinLevel   string
	RatePerSec int
}

// HookFunc receives one rendered record.
type HookFunc func(level Level, msg string)

const defaultLogFile = "./tymeloop.log"

// Service owns the sinks behind every Logger it hands out.
type Service struct {
	root atomic.Pointer[zerolog.Logger]

	mu   sync.Mutex
	cfg  Config
	file *os.File
	hook hookState

	stdout io.Writer
}

// New applies cfg and returns the service with its root logger. A file sink
// that cannot be opened is reported as an error; the other sinks still work.
func New(cfg Config) (*Service, Logger, error) {
	setup()
	s := &Service{stdout: os.Stdout}
	err := s.Apply(cfg)
	return s, Logger{svc: s}, err
}

func (s *Service) Logger() Logger { return Logger{svc: s} }

func (s *Service) current() zerolog.Logger {
	if zl := s.root.Load(); zl != nil {
		return *zl
	}
	return zerolog.Nop()
}

// Config returns the last applied config.
func (s *Service) Config() Config {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cfg
}

// SetHook installs the hook sink callback. nil removes it.
func (s *Service) SetHook(fn HookFunc) {
	s.mu.Lock()
	s.hook.fn = fn
	s.mu.Unlock()
}

// Suppressed counts hook records dropped by the rate limit.
func (s *Service) Suppressed() uint64 { return s.hook.suppressed.Load() }

// Apply rebuilds the sinks. Loggers already handed out pick up the change.
func (s *Service) Apply(cfg Config) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.cfg = cfg
	rps := max(1, cfg.Hook.RatePerSec)
	s.hook.min = ParseLevel(cfg.Hook.MinLevel, LevelWarn)
	s.hook.limit = rate.NewLimiter(rate.Limit(rps), rps)

	var ferr error
	if s.file != nil {
		_ = s.file.Close()
		s.file = nil
	}

	var sinks []io.Writer
	if cfg.Console {
		sinks = append(sinks, consoleWriter(s.stdout))
	}
	if cfg.File.Enabled {
		path := strings.TrimSpace(cfg.File.Path)
		if path == "" {
			path = defaultLogFile
		}
		f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			ferr = fmt.Errorf("open log file %q: %w", path, err)
		} else {
			s.file = f
			sinks = append(sinks, zerolog.SyncWriter(f))
		}
	}
	if cfg.Hook.Enabled {
		sinks = append(sinks, &hookWriter{s: s})
	}
	if len(sinks) == 0 {
		sinks = append(sinks, consoleWriter(s.stdout))
	}

	zl := zerolog.New(zerolog.MultiLevelWriter(sinks...)).
		Level(ParseLevel(cfg.Level, LevelInfo)).
		With().Timestamp().Logger()
	s.root.Store(&zl)
	return ferr
}

// Close releases the log file. Loggers keep writing to the other sinks.
func (s *Service) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.file == nil {
		return nil
	}
	err := s.file.Close()
	s.file = nil
	return err
}

func consoleWriter(w io.Writer) io.Writer {
	return zerolog.ConsoleWriter{
		Out:          w,
		TimeFormat:   timeFormat,
		FormatCaller: func(i any) string { s, _ := i.(string); return s },
	}
}
