package shop

import (
	"sync"

	"github.com/m3rciful/shopbot/internal/catalog"
)

// State identifies where a chat currently is in the shopping flow.
type State string

const (
	// StateMenu shows the product listing.
	StateMenu State = "menu"
	// StateProductDetail shows one product with quantity buttons.
	StateProductDetail State = "product"
	// StateCart shows the priced cart summary.
	StateCart State = "cart"
	// StateAwaitingEmail waits for the user to send a contact email.
	StateAwaitingEmail State = "awaiting_email"
)

// Session holds the mutable conversation context of one chat. It is created
// on the first inbound event from a chat and lives until /cancel or process
// exit; nothing is persisted.
type Session struct {
	State            State
	Catalog          *catalog.Catalog
	CurrentProductID string
	// LastPromptID is transport bookkeeping (the message carrying the
	// current screen). The engine never reads it for decisions.
	LastPromptID int
}

// Store keeps per-chat sessions. Reads and writes of the session map are
// mutex-guarded; Acquire additionally serializes event dispatch per chat so
// transitions of one session never interleave.
type Store struct {
	mu       sync.RWMutex
	sessions map[int64]*Session
	locks    map[int64]*sync.Mutex
}

// NewStore constructs an empty in-memory session store.
func NewStore() *Store {
	return &Store{
		sessions: make(map[int64]*Session),
		locks:    make(map[int64]*sync.Mutex),
	}
}

// Get returns the session for a chat, creating it in StateMenu on first use.
func (s *Store) Get(chatID int64) *Session {
	s.mu.Lock()
	defer s.mu.Unlock()

	if sess, ok := s.sessions[chatID]; ok {
		return sess
	}
	sess := &Session{State: StateMenu}
	s.sessions[chatID] = sess
	return sess
}

// StateOf reports the current state of a chat without creating a session.
func (s *Store) StateOf(chatID int64) (State, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, ok := s.sessions[chatID]
	if !ok {
		return "", false
	}
	return sess.State, true
}

// Drop removes the session for a chat. The per-chat dispatch lock is kept so
// an in-flight event for the same chat still serializes correctly.
func (s *Store) Drop(chatID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.sessions, chatID)
}

// Len returns the number of live sessions.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.sessions)
}

// SetLastPrompt records the message id of the current screen for a chat.
func (s *Store) SetLastPrompt(chatID int64, messageID int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if sess, ok := s.sessions[chatID]; ok {
		sess.LastPromptID = messageID
	}
}

// Acquire takes the per-chat dispatch lock and returns its release func.
// Events for one chat are handled strictly one at a time, in arrival order.
func (s *Store) Acquire(chatID int64) func() {
	s.mu.Lock()
	lock, ok := s.locks[chatID]
	if !ok {
		lock = &sync.Mutex{}
		s.locks[chatID] = lock
	}
	s.mu.Unlock()

	lock.Lock()
	return lock.Unlock
}
