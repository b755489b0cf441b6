package hasnatch

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/brutella/hc/log"

	"github.com/ra1nb0w/hasnatch/backend"
	"github.com/ra1nb0w/hasnatch/config"
	"github.com/ra1nb0w/hasnatch/ffmpeg"
	"github.com/ra1nb0w/hasnatch/hub"
	"github.com/ra1nb0w/hasnatch/mjpeg"
	"github.com/ra1nb0w/hasnatch/notify"
)

// Notifier is told about every saved snapshot.
type Notifier interface {
	Notify(ctx context.Context, ev notify.Event) error
}

// Option configures a Snatcher.
type Option func(*Snatcher)

// WithNotifier announces saved snapshots through n.
func WithNotifier(n Notifier) Option {
	return func(s *Snatcher) {
		s.notifier = n
	}
}

// Snatcher takes one snapshot of a camera entity.
type Snatcher struct {
	cfg      config.Config
	notifier Notifier
	now      func() time.Time
}

// New returns a Snatcher for cfg.
func New(cfg config.Config, opts ...Option) *Snatcher {
	s := &Snatcher{cfg: cfg, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Run resolves the camera attribute, grabs one frame into the output file and
// sends the optional notification. Nothing is retried at this level.
func (s *Snatcher) Run(ctx context.Context) error {
	if s.cfg.Token == "" {
		log.Info.Println("Error: HA_TOKEN env var missing.")
		return config.ErrMissingToken
	}

	client, err := hub.NewClient(hub.Config{
		BaseURL:        s.cfg.BaseURL,
		Token:          s.cfg.Token,
		Timeout:        s.cfg.Timeout,
		ConnectTimeout: s.cfg.Stream.ConnectTimeout,
		Headers:        s.cfg.StreamHeaders(),
	})
	if err != nil {
		return err
	}

	switch s.cfg.Mode {
	case config.ModeFFMPEG:
		err = s.runFFMPEG(ctx, client)
	case config.ModeStream:
		err = s.runStream(ctx, client)
	default:
		err = fmt.Errorf("%w: unknown mode %q", config.ErrInvalid, s.cfg.Mode)
	}
	if err != nil {
		return err
	}

	s.announce(ctx)
	return nil
}

func (s *Snatcher) runFFMPEG(ctx context.Context, client *hub.Client) error {
	source, err := client.Attribute(ctx, s.cfg.EntityID(), s.cfg.AttributeKey())
	if err != nil {
		return fmt.Errorf("%w: %w", ErrResolve, err)
	}
	log.Info.Printf("Got stream source for %s", s.cfg.EntityID())

	// ffmpeg does not create missing directories
	if err := os.MkdirAll(filepath.Dir(s.cfg.Output), 0755); err != nil {
		return fmt.Errorf("%w: %w", ErrAcquire, err)
	}

	f := ffmpeg.New(ffmpeg.Config{
		Binary:   s.cfg.FFMPEG.Binary,
		Output:   s.cfg.Output,
		Width:    s.cfg.Width,
		Attempts: s.cfg.FFMPEG.Attempts,
		Delay:    s.cfg.FFMPEG.Delay,
		Timeout:  s.cfg.FFMPEG.Timeout,
	})
	if err := f.Snapshot(ctx, source); err != nil {
		return fmt.Errorf("%w: %w", ErrAcquire, err)
	}
	return nil
}

func (s *Snatcher) runStream(ctx context.Context, client *hub.Client) error {
	tokens := hub.NewResolver(client, s.cfg.EntityID(), s.cfg.AttributeKey(), s.cfg.TokenTTL)
	if _, err := tokens.Resolve(ctx); err != nil {
		return fmt.Errorf("%w: %w", ErrResolve, err)
	}
	log.Info.Printf("Got access token for %s", s.cfg.EntityID())

	opts := mjpeg.ScannerOptions{
		Fresh:     s.cfg.Stream.Fresh,
		MaxBuffer: s.cfg.Stream.MaxBuffer,
		TailKeep:  s.cfg.Stream.TailKeep,
	}
	if s.cfg.Strict {
		opts.Validate = mjpeg.IsJPEG
	}

	store := backend.NewStore(backend.Config{Path: s.cfg.Output, Width: s.cfg.Width})
	acq := mjpeg.New(hub.NewStream(client, tokens), store, mjpeg.Config{
		Attempts:  s.cfg.Stream.Attempts,
		Delay:     s.cfg.Stream.Delay,
		Budget:    s.cfg.Stream.Budget,
		ChunkSize: s.cfg.Stream.ChunkSize,
		Scanner:   opts,
	})
	if err := acq.Acquire(ctx); err != nil {
		if errors.Is(err, hub.ErrResolve) {
			return fmt.Errorf("%w: %w", ErrResolve, err)
		}
		return fmt.Errorf("%w: %w", ErrAcquire, err)
	}
	return nil
}

// announce never fails the run, the snapshot is already on disk.
func (s *Snatcher) announce(ctx context.Context) {
	if s.notifier == nil {
		return
	}

	store := backend.NewStore(backend.Config{Path: s.cfg.Output})
	size, err := store.Size()
	if err != nil {
		log.Info.Printf("Warning: cannot stat %s: %v", store.Path(), err)
	}

	err = s.notifier.Notify(ctx, notify.Event{
		EntityID:   s.cfg.EntityID(),
		Mode:       string(s.cfg.Mode),
		Path:       store.Path(),
		Size:       size,
		CapturedAt: s.now().UTC(),
	})
	if err != nil {
		log.Info.Printf("Warning: snapshot notification failed: %v", err)
		return
	}
	log.Debug.Printf("Snapshot notification sent")
}
