package auth

import (
	"strconv"
	"sync/atomic"
)

// FirstRequestID is the first id handed out. 0 and 1 are reserved for
// out-of-band use by the protocol.
const FirstRequestID uint32 = 2

// RequestIDGenerator hands out request ids.
type RequestIDGenerator interface {
	Next() string
}

// Counter is a RequestIDGenerator backed by an atomic counter. It is safe
// for concurrent use and never returns the same id twice until the 32-bit
// range wraps.
type Counter struct {
	next atomic.Uint32
}

// NewCounter returns a Counter whose first id is start.
func NewCounter(start uint32) *Counter {
	c := &Counter{}
	c.next.Store(start)
	return c
}

// Next returns the current value as a decimal string and advances the counter.
func (c *Counter) Next() string {
	id := c.next.Add(1) - 1
	return strconv.FormatUint(uint64(id), 10)
}

// DefaultCounter is shared by every Authenticator that is not given its own generator.
var DefaultCounter = NewCounter(FirstRequestID)
