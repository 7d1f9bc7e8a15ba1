package memstore

import (
	"sync"
	"time"
)

// SessionKey arma la clave "guild-user" de una sesión interactiva.
func SessionKey(guildID, userID string) string { return guildID + "-" + userID }

type sessionEntry[T any] struct {
	val     T
	expires time.Time
	timer   *time.Timer
}

// Sessions guarda estado temporal de asistentes (setup, announce) con expiración.
type Sessions[T any] struct {
	mu      sync.Mutex
	ttl     time.Duration
	items   map[string]*sessionEntry[T]
	now     func() time.Time
	onEvict func(key string)
}

func NewSessions[T any](ttl time.Duration, onEvict func(key string)) *Sessions[T] {
	return &Sessions[T]{ttl: ttl, items: map[string]*sessionEntry[T]{}, now: time.Now, onEvict: onEvict}
}

// Put guarda (o reemplaza) la sesión y reinicia su expiración.
func (s *Sessions[T]) Put(key string, v T) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if old, ok := s.items[key]; ok && old.timer != nil {
		old.timer.Stop()
	}
	e := &sessionEntry[T]{val: v, expires: s.now().Add(s.ttl)}
	e.timer = time.AfterFunc(s.ttl, func() { s.expire(key, e) })
	s.items[key] = e
}

// Update modifica una sesión existente sin tocar su expiración.
func (s *Sessions[T]) Update(key string, fn func(*T)) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.items[key]
	if !ok || s.now().After(e.expires) {
		return false
	}
	fn(&e.val)
	return true
}

func (s *Sessions[T]) Get(key string) (T, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.items[key]
	if !ok || s.now().After(e.expires) {
		var zero T
		return zero, false
	}
	return e.val, true
}

func (s *Sessions[T]) Delete(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if e, ok := s.items[key]; ok {
		if e.timer != nil {
			e.timer.Stop()
		}
		delete(s.items, key)
	}
}

func (s *Sessions[T]) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.items)
}

func (s *Sessions[T]) expire(key string, e *sessionEntry[T]) {
	s.mu.Lock()
	cur, ok := s.items[key]
	if !ok || cur != e {
		s.mu.Unlock()
		return
	}
	delete(s.items, key)
	s.mu.Unlock()
	if s.onEvict != nil {
		s.onEvict(key)
	}
}
