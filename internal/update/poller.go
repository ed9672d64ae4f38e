package update

import (
	"context"
	"time"

	"go.uber.org/zap"
)

const (
	defaultPollInterval = 24 * time.Hour
	initialPollDelay    = 5 * time.Second
)

// EventKind classifies poller events.
type EventKind int

const (
	// KindAvailable announces a new release; no download has started.
	KindAvailable EventKind = iota
	// KindProgress reports download percentage.
	KindProgress
	// KindDownloaded means the binary is on disk, ready for Apply.
	KindDownloaded
	// KindError reports a failed check or download.
	KindError
)

// Event is what the poller emits to the presentation layer.
type Event struct {
	Kind    EventKind
	Release *Release
	Percent int
	Path    string
	Err     error
}

// Poller checks the release feed at a fixed cadence and announces new
// releases. Downloads only start when the consumer calls Download, so the
// user stays in control of when bytes move.
type Poller struct {
	checker  *Checker
	version  string
	logger   *zap.Logger
	interval time.Duration
	delay    time.Duration
	events   chan Event

	// announced holds the last version surfaced to the UI so a release is
	// announced once, not on every poll.
	announced string
}

func NewPoller(checker *Checker, version string, logger *zap.Logger) *Poller {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Poller{
		checker:  checker,
		version:  version,
		logger:   logger,
		interval: defaultPollInterval,
		delay:    initialPollDelay,
		events:   make(chan Event, 8),
	}
}

// Events returns the channel the presentation layer consumes.
func (p *Poller) Events() <-chan Event {
	return p.events
}

// Start launches the background poll loop. It returns immediately.
func (p *Poller) Start(ctx context.Context) {
	go func() {
		// Let the app finish starting up before the first network call.
		select {
		case <-ctx.Done():
			return
		case <-time.After(p.delay):
		}

		ticker := time.NewTicker(p.interval)
		defer ticker.Stop()

		for {
			p.check(ctx)
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
			}
		}
	}()
}

func (p *Poller) check(ctx context.Context) {
	rel, err := p.checker.Check(ctx, p.version)
	if err != nil {
		p.logger.Warn("update check failed", zap.Error(err))
		p.emit(Event{Kind: KindError, Err: err})
		return
	}
	if rel == nil || rel.Version == p.announced {
		return
	}
	p.announced = rel.Version
	p.emit(Event{Kind: KindAvailable, Release: rel})
}

// Download fetches the release in the background, emitting progress then a
// downloaded (or error) event.
func (p *Poller) Download(ctx context.Context, rel *Release) {
	go func() {
		path, err := p.checker.Download(ctx, rel, func(pct int) {
			p.emit(Event{Kind: KindProgress, Release: rel, Percent: pct})
		})
		if err != nil {
			p.logger.Warn("update download failed", zap.Error(err))
			p.emit(Event{Kind: KindError, Release: rel, Err: err})
			return
		}
		p.emit(Event{Kind: KindDownloaded, Release: rel, Path: path})
	}()
}

// emit never blocks; a stalled consumer drops events rather than wedging
// the poll loop.
func (p *Poller) emit(ev Event) {
	select {
	case p.events <- ev:
	default:
	}
}
