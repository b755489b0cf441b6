package mjpeg

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/brutella/hc/log"

	"github.com/ra1nb0w/hasnatch/retry"
)

const (
	DefaultAttempts  = 20
	DefaultDelay     = 2 * time.Second
	DefaultBudget    = 15 * time.Second
	DefaultChunkSize = 4096
)

// Config contains the streaming acquisition parameters.
type Config struct {
	// Attempts is the number of connections tried before giving up.
	Attempts int
	// Delay is the pause between two connections.
	Delay time.Duration
	// Budget bounds how long one connection is read.
	Budget time.Duration
	// ChunkSize is the size of a single read.
	ChunkSize int

	Scanner ScannerOptions
}

func (c Config) withDefaults() Config {
	if c.Attempts <= 0 {
		c.Attempts = DefaultAttempts
	}
	if c.Delay <= 0 {
		c.Delay = DefaultDelay
	}
	if c.Budget <= 0 {
		c.Budget = DefaultBudget
	}
	if c.ChunkSize <= 0 {
		c.ChunkSize = DefaultChunkSize
	}
	c.Scanner = c.Scanner.withDefaults()
	return c
}

// Opener opens a new MJPEG byte stream. Errors marked with retry.Permanent
// end the acquisition, all others lead to a new connection.
type Opener interface {
	Open(ctx context.Context) (io.ReadCloser, error)
}

// Sink persists the selected frame.
type Sink interface {
	Save(frame []byte) error
}

// Acquirer reads MJPEG streams until it can persist one frame.
type Acquirer struct {
	cfg    Config
	opener Opener
	sink   Sink
	now    func() time.Time
}

// New returns an acquirer reading from opener and writing to sink.
func New(opener Opener, sink Sink, cfg Config) *Acquirer {
	return &Acquirer{
		cfg:    cfg.withDefaults(),
		opener: opener,
		sink:   sink,
		now:    time.Now,
	}
}

// Acquire connects until a frame is persisted or the attempts run out.
func (a *Acquirer) Acquire(ctx context.Context) error {
	policy := retry.Policy{Attempts: a.cfg.Attempts, Delay: a.cfg.Delay}

	return retry.Do(ctx, policy, func(ctx context.Context, attempt int) error {
		log.Info.Printf("Connecting to stream (attempt %d/%d)", attempt, a.cfg.Attempts)

		frame, err := a.capture(ctx)
		if err != nil {
			log.Info.Printf("Attempt %d/%d failed: %v", attempt, a.cfg.Attempts, err)
			return err
		}

		if err := a.sink.Save(frame); err != nil {
			log.Info.Printf("Saving frame failed: %v", err)
			return retry.Permanent(err)
		}
		log.Info.Printf("Success! Frame of %d bytes saved", len(frame))
		return nil
	})
}

// capture runs one connection and returns the frame to persist.
func (a *Acquirer) capture(ctx context.Context) ([]byte, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	body, err := a.opener.Open(ctx)
	if err != nil {
		return nil, err
	}
	defer body.Close()

	start := a.now()
	// unblocks a stalled read once the budget is spent
	stop := time.AfterFunc(a.cfg.Budget, cancel)
	defer stop.Stop()

	sc := NewScanner(start, a.cfg.Scanner)
	chunk := make([]byte, a.cfg.ChunkSize)

	var rerr error
	for a.now().Sub(start) < a.cfg.Budget {
		n, err := body.Read(chunk)
		if n > 0 && sc.Feed(chunk[:n], a.now()) {
			log.Info.Printf("Got a fresh frame after %v", a.now().Sub(start).Round(time.Millisecond))
			return sc.Frame(), nil
		}
		if err != nil {
			rerr = err
			break
		}
		if n == 0 {
			rerr = io.EOF
			break
		}
	}

	if frame := sc.Frame(); frame != nil {
		log.Info.Printf("Stream ended before the frame was fresh, keeping the last one")
		return frame, nil
	}

	switch {
	case rerr == nil:
		return nil, fmt.Errorf("%w within %v", ErrNoFrame, a.cfg.Budget)
	case errors.Is(rerr, io.EOF):
		return nil, fmt.Errorf("%w: stream closed", ErrNoFrame)
	default:
		return nil, fmt.Errorf("%w: %v", ErrNoFrame, rerr)
	}
}
