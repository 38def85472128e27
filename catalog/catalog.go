// Package catalog holds satellites imported from external element sets
// so scenarios can reference them by ID instead of restating orbits.
package catalog

import (
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/poj1738/satellite-communication-simulator/model"
)

var (
	// ErrDuplicateEntry rejects a second entry under an existing ID.
	ErrDuplicateEntry = errors.New("catalog entry already exists")
	// ErrNotFound reports a lookup for an ID the catalog never saw.
	ErrNotFound = errors.New("catalog entry not found")
)

// EventType indicates what kind of change happened in the catalog.
type EventType int

const (
	EventEntryAdded EventType = iota
	EventEntryRemoved
)

// Event is emitted to subscribers when the catalog changes.
type Event struct {
	Type  EventType
	Entry Entry
}

// Entry is one imported satellite: the circular-equivalent member the
// engine can fly, plus the provenance of the element set it came from.
type Entry struct {
	NORADID int          `json:"norad_id"`
	Name    string       `json:"name"`
	Epoch   time.Time    `json:"epoch"`
	Member  model.Member `json:"member"`
}

// Catalog is an in-memory, thread-safe store of imported satellites.
type Catalog struct {
	mu      sync.RWMutex
	entries map[string]Entry
	subs    []func(Event)
}

// New constructs an empty catalog.
func New() *Catalog {
	return &Catalog{entries: make(map[string]Entry)}
}

// Add stores a new entry keyed by its member ID.
func (c *Catalog) Add(e Entry) error {
	if e.Member.ID == "" {
		return fmt.Errorf("%w: entry has no member id", ErrNotFound)
	}
	c.mu.Lock()
	if _, exists := c.entries[e.Member.ID]; exists {
		c.mu.Unlock()
		return fmt.Errorf("%w: %q", ErrDuplicateEntry, e.Member.ID)
	}
	c.entries[e.Member.ID] = e
	subs := append([]func(Event){}, c.subs...)
	c.mu.Unlock()

	// Notify outside the lock so a subscriber can call back in.
	for _, sub := range subs {
		sub(Event{Type: EventEntryAdded, Entry: e})
	}
	return nil
}

// Get returns the entry with the given member ID.
func (c *Catalog) Get(id string) (Entry, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.entries[id]
	if !ok {
		return Entry{}, fmt.Errorf("%w: %q", ErrNotFound, id)
	}
	return e, nil
}

// Remove deletes the entry with the given member ID.
func (c *Catalog) Remove(id string) error {
	c.mu.Lock()
	e, ok := c.entries[id]
	if !ok {
		c.mu.Unlock()
		return fmt.Errorf("%w: %q", ErrNotFound, id)
	}
	delete(c.entries, id)
	subs := append([]func(Event){}, c.subs...)
	c.mu.Unlock()

	for _, sub := range subs {
		sub(Event{Type: EventEntryRemoved, Entry: e})
	}
	return nil
}

// Len reports how many entries the catalog holds.
func (c *Catalog) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Entries returns a snapshot of all entries sorted by member ID.
func (c *Catalog) Entries() []Entry {
	c.mu.RLock()
	defer c.mu.RUnlock()

	res := make([]Entry, 0, len(c.entries))
	for _, e := range c.entries {
		res = append(res, e)
	}
	sort.Slice(res, func(i, j int) bool { return res[i].Member.ID < res[j].Member.ID })
	return res
}

// Members returns every catalogued satellite as a scenario member,
// sorted by ID.
func (c *Catalog) Members() []model.Member {
	entries := c.Entries()
	members := make([]model.Member, len(entries))
	for i, e := range entries {
		members[i] = e.Member
	}
	return members
}

// MembersFor resolves the given IDs into members, in the order asked.
func (c *Catalog) MembersFor(ids ...string) ([]model.Member, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	members := make([]model.Member, 0, len(ids))
	for _, id := range ids {
		e, ok := c.entries[id]
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrNotFound, id)
		}
		members = append(members, e.Member)
	}
	return members, nil
}

// Subscribe registers a callback for catalog events. It returns an
// unsubscribe function.
func (c *Catalog) Subscribe(fn func(Event)) (unsubscribe func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.subs = append(c.subs, fn)
	idx := len(c.subs) - 1

	return func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		if idx < 0 || idx >= len(c.subs) {
			return
		}
		c.subs = append(c.subs[:idx], c.subs[idx+1:]...)
		idx = -1
	}
}
