// Package broadcast drives the client side of an anchor broadcast: one
// logical generate-and-play session over the streaming endpoint. The
// controller is an explicit state machine; playback events funnel through a
// single dispatch point so no stale callback can touch a torn-down player.
package broadcast

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"sync"
	"time"
)

type State string

const (
	StateIdle       State = "idle"
	StateGenerating State = "generating"
	StatePlaying    State = "playing"
	StatePaused     State = "paused"
	StateError      State = "error"
)

// Event is a playback notification from the player.
type Event string

const (
	// EventCanPlay fires once enough of the stream has buffered to start.
	EventCanPlay Event = "canplay"
	EventPlaying Event = "playing"
	EventPaused  Event = "paused"
	EventEnded   Event = "ended"
	EventError   Event = "error"
)

// Player is the streaming audio primitive the controller drives. Load binds
// a source URL and begins buffering; the implementation reports progress by
// calling the listener registered with OnEvent. OnEvent(nil) detaches the
// listener. Listeners must be invoked asynchronously, never from inside
// Load, Play, Pause, or Stop.
type Player interface {
	Load(url string)
	Play() error
	Pause()
	Stop()
	ClearSource()
	OnEvent(fn func(ev Event, detail string))
}

// PlayerFactory builds a fresh player per broadcast. Each generation gets
// its own instance; the previous one is fully torn down first.
type PlayerFactory func() Player

type Controller struct {
	mu sync.Mutex

	state  State
	errMsg string

	endpoint  string
	newPlayer PlayerFactory
	logger    *slog.Logger

	player Player
	cancel context.CancelFunc
	ctx    context.Context

	// generation stamps every player callback; events from a torn-down
	// broadcast are discarded at the dispatch boundary.
	generation uint64

	now  func() time.Time
	seed func() string
}

func NewController(endpoint string, factory PlayerFactory, logger *slog.Logger) *Controller {
	if logger == nil {
		logger = slog.Default()
	}
	return &Controller{
		state:     StateIdle,
		endpoint:  endpoint,
		newPlayer: factory,
		logger:    logger.With("component", "broadcast"),
		now:       time.Now,
		seed:      randomInstance,
	}
}

func randomInstance() string {
	const alphabet = "abcdefghijklmnopqrstuvwxyz0123456789"
	b := make([]byte, 7)
	for i := range b {
		b[i] = alphabet[rand.Intn(len(alphabet))]
	}
	return string(b)
}

// Generate starts a fresh broadcast. Any previous in-flight request and
// player are torn down first, so exactly one of each is ever live.
func (c *Controller) Generate() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.teardownLocked()
	c.state = StateGenerating
	c.errMsg = ""

	ctx, cancel := context.WithCancel(context.Background())
	c.ctx = ctx
	c.cancel = cancel
	c.generation++
	gen := c.generation

	player := c.newPlayer()
	c.player = player
	player.OnEvent(func(ev Event, detail string) {
		c.dispatch(gen, ev, detail)
	})

	player.Load(c.freshURL())
}

// freshURL cache-busts the streaming endpoint so no layer between the
// player and the proxy replays a previous broadcast.
func (c *Controller) freshURL() string {
	return fmt.Sprintf("%s?timestamp=%d&instance=%s", c.endpoint, c.now().UnixMilli(), c.seed())
}

// Toggle pauses a playing broadcast or resumes a paused one.
func (c *Controller) Toggle() {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch c.state {
	case StatePlaying:
		c.player.Pause()
		c.state = StatePaused
	case StatePaused:
		if err := c.player.Play(); err != nil {
			c.state = StateError
			c.errMsg = "Failed to resume audio"
			return
		}
		c.state = StatePlaying
	}
}

// Stop cancels the in-flight request, tears the player down, and returns to
// idle. A stop is user intent, never an error; it also clears one.
func (c *Controller) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.teardownLocked()
	c.state = StateIdle
	c.errMsg = ""
}

// Reset is Stop without caring what state came before.
func (c *Controller) Reset() {
	c.Stop()
}

func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

func (c *Controller) Err() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.errMsg
}

// Done exposes the current request token; it is cancelled on every teardown.
// Nil when no broadcast has ever started.
func (c *Controller) Done() <-chan struct{} {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.ctx == nil {
		return nil
	}
	return c.ctx.Done()
}

// teardownLocked releases the player and request token. Safe to call any
// number of times; a second call finds nothing to release.
func (c *Controller) teardownLocked() {
	c.generation++

	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}

	if c.player != nil {
		player := c.player
		player.OnEvent(nil)
		player.Stop()
		player.ClearSource()
		c.player = nil
	}
}

// dispatch is the single entry point for player events. The generation
// check drops anything emitted by a broadcast that has since been replaced.
func (c *Controller) dispatch(gen uint64, ev Event, detail string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if gen != c.generation {
		return
	}

	switch ev {
	case EventCanPlay:
		if c.state != StateGenerating {
			return
		}
		if err := c.player.Play(); err != nil {
			c.state = StateError
			c.errMsg = "Failed to load or play audio stream"
			c.logger.Error("autoplay rejected", "error", err)
			return
		}
		c.state = StatePlaying

	case EventPlaying:
		if c.state != StateIdle {
			c.state = StatePlaying
		}

	case EventPaused:
		if c.state == StatePlaying {
			c.state = StatePaused
		}

	case EventEnded:
		if c.state == StatePlaying || c.state == StatePaused {
			c.state = StateIdle
		}

	case EventError:
		if c.state == StateIdle {
			return
		}
		c.state = StateError
		if detail == "" {
			detail = "Failed to load or play audio stream"
		}
		c.errMsg = detail
	}
}
