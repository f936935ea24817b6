package middleware

import (
	"sync"

	tele "gopkg.in/telebot.v4"
)

type userLock struct {
	mu   sync.Mutex
	refs int
}

// PerUser serializes handlers per sender so one user's updates never
// interleave, while different users run in parallel.
type PerUser struct {
	mu    sync.Mutex
	locks map[int64]*userLock
}

// NewPerUser returns an empty lock table.
func NewPerUser() *PerUser {
	return &PerUser{locks: make(map[int64]*userLock)}
}

func (p *PerUser) acquire(id int64) *userLock {
	p.mu.Lock()
	l, ok := p.locks[id]
	if !ok {
		l = &userLock{}
		p.locks[id] = l
	}
	l.refs++
	p.mu.Unlock()
	l.mu.Lock()
	return l
}

func (p *PerUser) release(id int64, l *userLock) {
	l.mu.Unlock()
	p.mu.Lock()
	l.refs--
	if l.refs == 0 {
		delete(p.locks, id)
	}
	p.mu.Unlock()
}

// Len returns the number of users with a handler running or waiting.
func (p *PerUser) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.locks)
}

// Middleware wraps next with the sender's lock.
func (p *PerUser) Middleware(next tele.HandlerFunc) tele.HandlerFunc {
	return func(c tele.Context) error {
		user := c.Sender()
		if user == nil {
			return next(c)
		}
		l := p.acquire(user.ID)
		defer p.release(user.ID, l)
		return next(c)
	}
}
