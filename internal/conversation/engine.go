package conversation

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/opsdeck/opsdeck/internal/concurrency"
	opserrors "github.com/opsdeck/opsdeck/internal/errors"
	"github.com/opsdeck/opsdeck/internal/logger"
)

// State is the explicit phase of the request lifecycle. It is tracked as
// its own value, never inferred from the shape of the message log.
type State string

const (
	StateIdle     State = "idle"
	StateSending  State = "sending"
	StateAwaiting State = "awaiting"
)

var (
	ErrEmptyMessage    = errors.New("message is empty")
	ErrRequestInFlight = errors.New("a request is already in flight")
)

// Backend is the conversational slice of the backend client.
type Backend interface {
	Query(ctx context.Context, userInput string) (string, error)
	Reset(ctx context.Context) error
}

// Engine owns the conversation log. It enforces one request in flight at
// a time: an accepted send appends the user message plus a pending
// placeholder, and the eventual resolution replaces that placeholder in
// place with either the agent response or a readable failure text. The
// log therefore never holds a dangling pending entry.
//
// reset bumps a generation counter; a resolution carrying a superseded
// generation is dropped instead of reappearing in the cleared log.
type Engine struct {
	backend  Backend
	signedIn func() bool
	now      func() time.Time

	mu         sync.Mutex
	state      State
	generation uint64
	messages   []Message

	subscribers []chan struct{}
}

func NewEngine(backend Backend, signedIn func() bool) *Engine {
	return &Engine{
		backend:  backend,
		signedIn: signedIn,
		now:      time.Now,
		state:    StateIdle,
	}
}

// State returns the current lifecycle phase.
func (e *Engine) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

// Messages returns a copy of the log in append order.
func (e *Engine) Messages() []Message {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]Message, len(e.messages))
	copy(out, e.messages)
	return out
}

// Subscribe returns a channel that receives a (coalesced) signal whenever
// the log or state changes.
func (e *Engine) Subscribe() <-chan struct{} {
	ch := make(chan struct{}, 1)
	e.mu.Lock()
	e.subscribers = append(e.subscribers, ch)
	e.mu.Unlock()
	return ch
}

// Send accepts one user input. Empty or whitespace-only input and input
// arriving while a request is outstanding are rejected without touching
// the log.
func (e *Engine) Send(ctx context.Context, text string) error {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return ErrEmptyMessage
	}

	e.mu.Lock()
	if e.state != StateIdle {
		e.mu.Unlock()
		return ErrRequestInFlight
	}

	now := e.now()
	e.messages = append(e.messages, newMessage(RoleUser, trimmed, now))
	pending := newMessage(RolePending, "", now)
	e.messages = append(e.messages, pending)
	e.state = StateSending
	generation := e.generation
	e.mu.Unlock()
	e.notify()

	concurrency.SafeGo(func() {
		e.await(generation)
		response, err := e.backend.Query(ctx, trimmed)
		e.resolve(ctx, generation, pending.ID, response, err)
	}, nil)

	return nil
}

// Reset clears the log unconditionally and invalidates any outstanding
// resolution. The backend session reset is best-effort: it runs only with
// an active identity and its failure is logged, never surfaced.
func (e *Engine) Reset(ctx context.Context) {
	e.mu.Lock()
	e.messages = nil
	e.state = StateIdle
	e.generation++
	e.mu.Unlock()
	e.notify()

	if e.signedIn != nil && !e.signedIn() {
		return
	}
	concurrency.SafeGo(func() {
		if err := e.backend.Reset(ctx); err != nil {
			slog.Warn("Backend session reset failed", "error", err)
		}
	}, nil)
}

// await marks the transition from posting the request to waiting on its
// response, unless a reset already superseded it.
func (e *Engine) await(generation uint64) {
	e.mu.Lock()
	if e.generation == generation && e.state == StateSending {
		e.state = StateAwaiting
	}
	e.mu.Unlock()
	e.notify()
}

// resolve replaces the pending placeholder with the final agent entry. A
// resolution whose generation was superseded by a reset is dropped.
func (e *Engine) resolve(ctx context.Context, generation uint64, pendingID, response string, err error) {
	text := response
	if err != nil {
		slog.Warn("Query failed", "session", logger.GetSessionID(ctx), "error", err)
		text = opserrors.UserMessage(err)
	}

	e.mu.Lock()
	if e.generation != generation {
		e.mu.Unlock()
		slog.Debug("Dropping response for a reset conversation")
		return
	}
	for i := range e.messages {
		if e.messages[i].ID == pendingID {
			e.messages[i].Role = RoleAgent
			e.messages[i].Text = text
			e.messages[i].Timestamp = e.now()
			break
		}
	}
	e.state = StateIdle
	e.mu.Unlock()
	e.notify()
}

func (e *Engine) notify() {
	e.mu.Lock()
	subscribers := e.subscribers
	e.mu.Unlock()

	for _, ch := range subscribers {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}
