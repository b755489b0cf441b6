package ffmpeg

import (
	"context"
	"io"
	"os"

	"github.com/brutella/hc/log"

	"github.com/ra1nb0w/hasnatch/retry"
)

// Stdout receives the ffmpeg standard output.
var Stdout io.Writer = io.Discard

// EnableVerboseLogging enables verbose logging of ffmpeg to stdout.
func EnableVerboseLogging() {
	Stdout = os.Stdout
}

// FFMPEG grabs single frames into the configured output file.
type FFMPEG struct {
	cfg Config
}

// New returns a new ffmpeg handle.
func New(cfg Config) *FFMPEG {
	return &FFMPEG{cfg: cfg.withDefaults()}
}

// Output returns the file written by Snapshot.
func (f *FFMPEG) Output() string {
	return f.cfg.Output
}

// Snapshot writes one frame of source to the output file. Every failed
// invocation is retried until the attempts are exhausted.
func (f *FFMPEG) Snapshot(ctx context.Context, source string) error {
	log.Info.Printf("Starting ffmpeg capture from %s...", source)

	policy := retry.Policy{
		Attempts: f.cfg.Attempts,
		Delay:    f.cfg.Delay,
		Timeout:  f.cfg.Timeout,
	}
	err := retry.Do(ctx, policy, func(ctx context.Context, attempt int) error {
		err := snapshot(ctx, f.cfg, source)
		if err != nil {
			log.Info.Printf("ffmpeg %v (Attempt %d/%d)", err, attempt, f.cfg.Attempts)
		}
		return err
	})
	if err != nil {
		return err
	}

	log.Info.Printf("Success! Frame saved to %s", f.cfg.Output)
	return nil
}
