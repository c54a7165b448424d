package ai

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Loader resolves the process-wide embedding backend exactly once.
//
// On first use it probes the preferred embedder with a short canary request;
// if the backend is unreachable (no network, missing model weights) and
// fallback is enabled, it logs the degradation and settles on the fallback
// embedder instead. The decision is cached for the process lifetime and all
// concurrent first users await the same outcome.
//
// Loader itself implements Embedder so it can be passed as the capability
// handle into index construction.
type Loader struct {
	preferred      Embedder
	fallback       Embedder
	probeTimeout   time.Duration
	enableFallback bool
	logger         *slog.Logger

	once     sync.Once
	mu       sync.RWMutex
	chosen   Embedder
	degraded bool
	err      error
}

var _ Embedder = (*Loader)(nil)

// LoaderOption configures a Loader.
type LoaderOption func(*Loader)

// WithLoaderLogger sets a custom logger. Default is slog.Default().
func WithLoaderLogger(logger *slog.Logger) LoaderOption {
	return func(l *Loader) {
		if logger != nil {
			l.logger = logger
		}
	}
}

// NewLoader creates a Loader choosing between a preferred embedder and a
// fallback one according to cfg. A nil preferred embedder (e.g. client
// construction already failed) resolves straight to the fallback.
func NewLoader(preferred, fallback Embedder, cfg *Config, opts ...LoaderOption) *Loader {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	cfg.Normalize()

	l := &Loader{
		preferred:      preferred,
		fallback:       fallback,
		probeTimeout:   cfg.ProbeTimeout,
		enableFallback: cfg.EnableFallback,
		logger:         slog.Default().With("component", "embedding-loader"),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// resolve performs the one-time backend selection. The settled state is
// published under the mutex so Name and Degraded stay readable from
// goroutines that never embed anything themselves.
func (l *Loader) resolve(ctx context.Context) (Embedder, error) {
	l.once.Do(func() {
		chosen, degraded, err := l.settle(ctx)
		l.mu.Lock()
		l.chosen, l.degraded, l.err = chosen, degraded, err
		l.mu.Unlock()
	})

	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.chosen, l.err
}

// settle probes the preferred backend and picks the embedder to keep.
func (l *Loader) settle(ctx context.Context) (chosen Embedder, degraded bool, err error) {
	if l.preferred == nil {
		return l.settleFallback("embedding backend not configured"), true, nil
	}

	probeCtx, cancel := context.WithTimeout(ctx, l.probeTimeout)
	defer cancel()

	if _, probeErr := l.preferred.EmbedText(probeCtx, "ping"); probeErr != nil {
		if !l.enableFallback {
			return nil, false, probeErr
		}
		return l.settleFallback(probeErr.Error()), true, nil
	}

	l.logger.Info("embedding backend ready", "embedder", l.preferred.Name())
	return l.preferred, false, nil
}

func (l *Loader) settleFallback(reason string) Embedder {
	l.logger.Warn("embedding backend unavailable, degrading to built-in embedder",
		"reason", reason, "embedder", l.fallback.Name())
	return l.fallback
}

// EmbedText resolves the backend if needed and delegates to it.
func (l *Loader) EmbedText(ctx context.Context, text string) ([]float32, error) {
	embedder, err := l.resolve(ctx)
	if err != nil {
		return nil, err
	}
	return embedder.EmbedText(ctx, text)
}

// EmbedTexts resolves the backend if needed and delegates to it.
func (l *Loader) EmbedTexts(ctx context.Context, texts []string) ([][]float32, error) {
	embedder, err := l.resolve(ctx)
	if err != nil {
		return nil, err
	}
	return embedder.EmbedTexts(ctx, texts)
}

// Name identifies the resolved backend, or "unresolved" before first use.
func (l *Loader) Name() string {
	l.mu.RLock()
	defer l.mu.RUnlock()

	if l.chosen == nil {
		return "unresolved"
	}
	return l.chosen.Name()
}

// Degraded reports whether the loader settled on the fallback embedder.
// Meaningful only after the first embedding call.
func (l *Loader) Degraded() bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.degraded
}
