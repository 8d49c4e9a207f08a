package anchor

import (
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"
)

const readBufSize = 32 * 1024

// ChunkSource is a pull-based view over an upstream byte stream. Next
// returns one chunk at a time in arrival order and io.EOF when the stream
// ends. Release frees the underlying stream; releasing twice is a no-op.
type ChunkSource interface {
	Next() ([]byte, error)
	Release()
}

// ChunkSink forwards one chunk to the downstream consumer. A Forward error
// means the consumer is gone, not that the upstream failed.
type ChunkSink interface {
	Forward(p []byte) error
}

// CancelToken is shared between the producer and consumer sides of a relay
// so either can stop the loop without the other throwing.
type CancelToken struct {
	flag atomic.Bool
}

func (t *CancelToken) Cancel() {
	t.flag.Store(true)
}

func (t *CancelToken) Cancelled() bool {
	return t.flag.Load()
}

type bodySource struct {
	r       io.ReadCloser
	buf     []byte
	pending error
	release sync.Once
}

// NewBodySource wraps an HTTP response body as a ChunkSource.
func NewBodySource(r io.ReadCloser) ChunkSource {
	return &bodySource{r: r, buf: make([]byte, readBufSize)}
}

func (s *bodySource) Next() ([]byte, error) {
	if s.pending != nil {
		err := s.pending
		s.pending = nil
		return nil, err
	}

	for {
		n, err := s.r.Read(s.buf)
		if n > 0 {
			chunk := make([]byte, n)
			copy(chunk, s.buf[:n])
			// A read can return bytes and an error together; deliver the
			// bytes now and the error on the following call.
			s.pending = err
			return chunk, nil
		}
		if err != nil {
			return nil, err
		}
	}
}

func (s *bodySource) Release() {
	s.release.Do(func() {
		_ = s.r.Close()
	})
}

// Session relays one upstream stream to one downstream consumer. It owns
// the source exclusively and releases it exactly once on every exit path.
type Session struct {
	source  ChunkSource
	sink    ChunkSink
	cancel  *CancelToken
	started time.Time
	chunks  int
	logger  *slog.Logger
}

func NewSession(source ChunkSource, sink ChunkSink, cancel *CancelToken, started time.Time, logger *slog.Logger) *Session {
	if logger == nil {
		logger = slog.Default()
	}
	if cancel == nil {
		cancel = &CancelToken{}
	}
	return &Session{
		source:  source,
		sink:    sink,
		cancel:  cancel,
		started: started,
		logger:  logger,
	}
}

// Run pulls chunks from the source and forwards each one before reading the
// next, so a slow consumer backpressures the upstream read. It returns a
// non-nil error only for an upstream failure while the consumer is still
// attached; consumer disconnects end the loop silently.
func (s *Session) Run() error {
	defer s.source.Release()

	for !s.cancel.Cancelled() {
		chunk, err := s.source.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			if s.cancel.Cancelled() {
				return nil
			}
			return err
		}
		if len(chunk) == 0 {
			continue
		}

		if err := s.sink.Forward(chunk); err != nil {
			// The client hung up. Stop pulling from upstream and let the
			// deferred release clean up; this is not an upstream error.
			s.cancel.Cancel()
			return nil
		}

		if s.chunks == 0 {
			s.logger.Info("first chunk forwarded",
				"bytes", len(chunk),
				"latency_ms", time.Since(s.started).Milliseconds())
		}
		s.chunks++
	}

	return nil
}

// Chunks reports how many chunks were forwarded downstream.
func (s *Session) Chunks() int {
	return s.chunks
}
