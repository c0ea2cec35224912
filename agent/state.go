package agent

import (
	"context"
)

// StateReadWriter provides read/write access to session state using context for routing.
type StateReadWriter interface {
	Read(ctx context.Context) (State, error)
	Write(ctx context.Context, state State) error
	Remove(ctx context.Context) error
}

type sessionKeyContext struct{}

const defaultSessionKey = "default"

// WithSessionKey sets the session routing key in the context.
func WithSessionKey(ctx context.Context, key string) context.Context {
	return context.WithValue(ctx, sessionKeyContext{}, key)
}

// SessionKeyFromContext gets the session routing key from the context.
func SessionKeyFromContext(ctx context.Context) (string, bool) {
	key, ok := ctx.Value(sessionKeyContext{}).(string)
	return key, ok
}

func sessionKeyOrDefault(ctx context.Context) (string, bool) {
	key, ok := SessionKeyFromContext(ctx)
	if ok && key != "" {
		return key, true
	}
	return defaultSessionKey, true
}

// SessionStore keeps one State per session key. Missing sessions are created
// with init.
type SessionStore struct {
	store Store[State]
	init  func(ctx context.Context) State
}

var _ StateReadWriter = (*SessionStore)(nil)

func NewSessionStore(core Cache[State], init func(ctx context.Context) State) *SessionStore {
	return &SessionStore{
		store: NewStore(core, "intake:session", sessionKeyOrDefault),
		init:  init,
	}
}

func NewMemorySessionStore(init func(ctx context.Context) State) *SessionStore {
	return NewSessionStore(NewMemoryCache[State](), init)
}

func (s *SessionStore) Read(ctx context.Context) (State, error) {
	st, ok, err := s.store.Get(ctx)
	if err != nil {
		return State{}, err
	}
	if ok {
		return st.Clone(), nil
	}
	st = s.init(ctx)
	st.SessionID, _ = sessionKeyOrDefault(ctx)
	return st, nil
}

func (s *SessionStore) Write(ctx context.Context, state State) error {
	if state.SessionID == "" {
		state.SessionID, _ = sessionKeyOrDefault(ctx)
	}
	return s.store.Set(ctx, state.Clone())
}

// Exists reports whether the session in ctx has been stored before.
func (s *SessionStore) Exists(ctx context.Context) (bool, error) {
	return s.store.Exists(ctx)
}

func (s *SessionStore) Remove(ctx context.Context) error {
	return s.store.Del(ctx)
}
