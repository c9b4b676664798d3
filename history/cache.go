package history

import (
	"container/list"
	"sync"

	"github.com/fwojciec/analyst"
)

// Cache is a bounded in-memory copy of recent session messages, consulted
// only when the primary log is unavailable. It holds at most maxSessions
// sessions (least recently used evicted first) and at most perSession
// messages for each.
type Cache struct {
	mu          sync.Mutex
	maxSessions int
	perSession  int
	order       *list.List // front = most recently used session ID
	entries     map[string]*cacheEntry
}

type cacheEntry struct {
	elem *list.Element
	msgs []analyst.Message
}

// NewCache creates a Cache. Non-positive bounds fall back to 100 sessions and
// 50 messages per session.
func NewCache(maxSessions, perSession int) *Cache {
	if maxSessions <= 0 {
		maxSessions = 100
	}
	if perSession <= 0 {
		perSession = 50
	}
	return &Cache{
		maxSessions: maxSessions,
		perSession:  perSession,
		order:       list.New(),
		entries:     make(map[string]*cacheEntry),
	}
}

// Add appends msgs to the session, trimming to the per-session bound.
func (c *Cache) Add(sessionID string, msgs ...analyst.Message) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e := c.touch(sessionID)
	for _, m := range msgs {
		e.msgs = append(e.msgs, m.Clone())
	}
	c.trim(e)
}

// Refresh replaces the session's window with msgs loaded from the primary
// log, unless the cache already holds a longer window.
func (c *Cache) Refresh(sessionID string, msgs []analyst.Message) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e := c.touch(sessionID)
	if len(msgs) < len(e.msgs) {
		return
	}
	e.msgs = make([]analyst.Message, 0, len(msgs))
	for _, m := range msgs {
		e.msgs = append(e.msgs, m.Clone())
	}
	c.trim(e)
}

// Recent returns at most n of the session's latest cached messages, oldest
// first.
func (c *Cache) Recent(sessionID string, n int) []analyst.Message {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[sessionID]
	if !ok || n <= 0 {
		return []analyst.Message{}
	}
	c.order.MoveToFront(e.elem)
	if n > len(e.msgs) {
		n = len(e.msgs)
	}
	out := make([]analyst.Message, 0, n)
	for _, m := range e.msgs[len(e.msgs)-n:] {
		out = append(out, m.Clone())
	}
	return out
}

// Drop forgets the session.
func (c *Cache) Drop(sessionID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if e, ok := c.entries[sessionID]; ok {
		c.order.Remove(e.elem)
		delete(c.entries, sessionID)
	}
}

// Len returns the number of cached sessions.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

func (c *Cache) touch(sessionID string) *cacheEntry {
	if e, ok := c.entries[sessionID]; ok {
		c.order.MoveToFront(e.elem)
		return e
	}
	e := &cacheEntry{elem: c.order.PushFront(sessionID)}
	c.entries[sessionID] = e
	for len(c.entries) > c.maxSessions {
		oldest := c.order.Back()
		c.order.Remove(oldest)
		delete(c.entries, oldest.Value.(string))
	}
	return e
}

func (c *Cache) trim(e *cacheEntry) {
	if over := len(e.msgs) - c.perSession; over > 0 {
		e.msgs = append([]analyst.Message(nil), e.msgs[over:]...)
	}
}
