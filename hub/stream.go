package hub

import (
	"context"
	"fmt"
	"io"

	"github.com/brutella/hc/log"

	"github.com/ra1nb0w/hasnatch/retry"
)

// Stream opens the camera proxy MJPEG stream of one camera entity.
type Stream struct {
	client *Client
	tokens *Resolver
}

// NewStream returns a stream whose access token comes from tokens.
func NewStream(client *Client, tokens *Resolver) *Stream {
	return &Stream{client: client, tokens: tokens}
}

// Open connects to the stream endpoint and returns the response body.
// The caller closes it. A failed token lookup is marked retry.Permanent,
// another connection would not fix it.
func (s *Stream) Open(ctx context.Context) (io.ReadCloser, error) {
	token, err := s.tokens.Resolve(ctx)
	if err != nil {
		log.Info.Printf("Resolving access token of %s failed: %v", s.tokens.Entity(), err)
		return nil, retry.Permanent(fmt.Errorf("%w: %w", ErrResolve, err))
	}

	entity := s.tokens.Entity()
	log.Debug.Printf("Opening camera stream of %s", entity)

	resp, err := s.client.stream.R().
		SetContext(ctx).
		SetDoNotParseResponse(true).
		SetHeader("Referer", s.client.BaseURL()+"/").
		SetPathParam("entity", entity).
		SetQueryParam("token", token).
		Get("/api/camera_proxy_stream/{entity}")
	if err != nil {
		log.Info.Printf("Stream connection failed: %v", err)
		return nil, fmt.Errorf("hub: stream %s: %w", entity, err)
	}

	if !resp.IsSuccess() {
		if body := resp.RawBody(); body != nil {
			body.Close()
		}
		serr := &StatusError{Code: resp.StatusCode(), Status: resp.Status()}
		switch {
		case serr.Busy():
			log.Info.Printf("Stream busy (%d), will retry", serr.Code)
		case serr.Unauthorized():
			log.Info.Printf("Stream refused the access token (%d), resolving a new one", serr.Code)
			s.tokens.Invalidate()
		default:
			log.Info.Printf("Stream HTTP error %d", serr.Code)
		}
		return nil, serr
	}

	log.Info.Printf("Connected to stream of %s (%s)", entity, resp.Header().Get("Content-Type"))
	return resp.RawBody(), nil
}
