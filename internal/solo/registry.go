package solo

import (
	"context"
	"errors"

	"github.com/DoyleJ11/rps-arena/internal/ai"
)

var ErrRegistryClosed = errors.New("session registry closed")

type RegistryMsg interface{ isRegistryMsg() }

type EnsureSession struct {
	Key        string
	Difficulty ai.Difficulty // only used if creation happens
	Reply      chan *ai.Session
}

type GetSession struct {
	Key   string
	Reply chan *ai.Session // nil when the key is unknown
}

type RemoveSession struct {
	Key string
}

type ShutdownRegistry struct{}

func (EnsureSession) isRegistryMsg()    {}
func (GetSession) isRegistryMsg()       {}
func (RemoveSession) isRegistryMsg()    {}
func (ShutdownRegistry) isRegistryMsg() {}

// Registry owns every single-player session of the process. One goroutine
// holds the map; callers talk to it through the inbox.
type Registry struct {
	inbox       chan RegistryMsg
	sessions    map[string]*ai.Session
	newOpponent func(ai.Difficulty) ai.Opponent
	ctx         context.Context
	cancel      context.CancelFunc
}

type RegistryOption func(*Registry)

// WithOpponents replaces how a new session's opponent is built.
func WithOpponents(newOpponent func(ai.Difficulty) ai.Opponent) RegistryOption {
	return func(r *Registry) { r.newOpponent = newOpponent }
}

func NewRegistry(parent context.Context, opts ...RegistryOption) *Registry {
	ctx, cancel := context.WithCancel(parent)
	r := &Registry{
		inbox:    make(chan RegistryMsg, 64),
		sessions: make(map[string]*ai.Session),
		newOpponent: func(d ai.Difficulty) ai.Opponent {
			return ai.NewOpponent(d, nil)
		},
		ctx:    ctx,
		cancel: cancel,
	}
	for _, opt := range opts {
		opt(r)
	}
	go r.loop()
	return r
}

func (r *Registry) Inbox() chan<- RegistryMsg { return r.inbox }

func (r *Registry) loop() {
	for {
		select {
		case <-r.ctx.Done():
			return

		case m := <-r.inbox:
			switch msg := m.(type) {
			case EnsureSession:
				s := r.sessions[msg.Key]
				if s == nil {
					s = ai.NewSession(r.newOpponent(msg.Difficulty))
					r.sessions[msg.Key] = s
				}
				msg.Reply <- s

			case GetSession:
				msg.Reply <- r.sessions[msg.Key] // May be nil

			case RemoveSession:
				delete(r.sessions, msg.Key)

			case ShutdownRegistry:
				clear(r.sessions)
				r.cancel()
				return
			}
		}
	}
}

// Ensure returns the session for key, creating it with difficulty d.
func (r *Registry) Ensure(ctx context.Context, key string, d ai.Difficulty) (*ai.Session, error) {
	reply := make(chan *ai.Session, 1)
	if err := r.send(ctx, EnsureSession{Key: key, Difficulty: d, Reply: reply}); err != nil {
		return nil, err
	}
	return r.await(ctx, reply)
}

// Get returns the session for key or nil.
func (r *Registry) Get(ctx context.Context, key string) (*ai.Session, error) {
	reply := make(chan *ai.Session, 1)
	if err := r.send(ctx, GetSession{Key: key, Reply: reply}); err != nil {
		return nil, err
	}
	return r.await(ctx, reply)
}

// Close stops the registry and waits for its goroutine to let go of the map.
func (r *Registry) Close() {
	select {
	case r.inbox <- ShutdownRegistry{}:
	case <-r.ctx.Done():
	}
	<-r.ctx.Done()
}

func (r *Registry) send(ctx context.Context, msg RegistryMsg) error {
	select {
	case r.inbox <- msg:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-r.ctx.Done():
		return ErrRegistryClosed
	}
}

func (r *Registry) await(ctx context.Context, reply chan *ai.Session) (*ai.Session, error) {
	select {
	case s := <-reply:
		return s, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-r.ctx.Done():
		return nil, ErrRegistryClosed
	}
}
