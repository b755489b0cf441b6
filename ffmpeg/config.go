package ffmpeg

import "time"

// Config contains ffmpeg parameters
type Config struct {
	Binary string
	Output string
	// Width scales the frame, 0 keeps the source size
	Width uint

	Attempts int
	Delay    time.Duration
	Timeout  time.Duration
}

func (c Config) withDefaults() Config {
	if c.Binary == "" {
		c.Binary = "ffmpeg"
	}
	if c.Attempts <= 0 {
		c.Attempts = 3
	}
	if c.Delay <= 0 {
		c.Delay = 2 * time.Second
	}
	if c.Timeout <= 0 {
		c.Timeout = 30 * time.Second
	}
	return c
}
