// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

// Package connectivity turns a reachability signal into a subscribable
// online/offline boolean.
//
// Every [Monitor] has a defined initial value. [Static] is the fallback for
// runtimes without a reachability signal: it reports online and never emits.
// [Manual] is driven by the caller and [Prober] by periodic health checks of
// the remote store.
package connectivity

import (
	"sync"
)

// Monitor reports whether the remote store is believed to be reachable.
type Monitor interface {
	// Online returns the current state.
	Online() bool
	// Subscribe registers fn for state transitions. fn is called with the
	// new state only when it changes. The returned func unsubscribes.
	Subscribe(fn func(online bool)) (unsubscribe func())
}

// state is the shared implementation of transition tracking and fan-out.
type state struct {
	mu     sync.Mutex
	online bool
	nextID int
	subs   map[int]func(bool)
}

func newState(online bool) *state {
	return &state{online: online, subs: make(map[int]func(bool))}
}

func (s *state) Online() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.online
}

func (s *state) Subscribe(fn func(online bool)) func() {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.subs[id] = fn
	s.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.subs, id)
			s.mu.Unlock()
		})
	}
}

// set updates the state and notifies subscribers outside the lock. It
// reports whether a transition happened.
func (s *state) set(online bool) bool {
	s.mu.Lock()
	if s.online == online {
		s.mu.Unlock()
		return false
	}
	s.online = online
	subs := make([]func(bool), 0, len(s.subs))
	for _, fn := range s.subs {
		subs = append(subs, fn)
	}
	s.mu.Unlock()

	for _, fn := range subs {
		fn(online)
	}
	return true
}

// Static is always online and never emits a transition.
type Static struct{}

// NewStatic returns a [Static] monitor.
func NewStatic() Static {
	return Static{}
}

func (Static) Online() bool { return true }

func (Static) Subscribe(func(bool)) func() { return func() {} }

// Manual is a [Monitor] whose state is set by the caller.
type Manual struct {
	*state
}

// NewManual returns a [Manual] monitor starting at online.
func NewManual(online bool) *Manual {
	return &Manual{state: newState(online)}
}

// SetOnline changes the state, notifying subscribers on a transition.
func (m *Manual) SetOnline(online bool) {
	m.set(online)
}
