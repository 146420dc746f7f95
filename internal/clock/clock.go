// Package clock отделяет текущее время от кода: выдача токенов, их срок и
// сравнение со сменой пароля в тестах управляются вручную.
package clock

import (
	"sync"
	"time"
)

type Clock interface {
	Now() time.Time
}

// System — системные часы.
type System struct{}

func (System) Now() time.Time { return time.Now() }

// Manual — часы, которые тест переводит сам.
type Manual struct {
	mu  sync.Mutex
	now time.Time
}

func NewManual(start time.Time) *Manual {
	return &Manual{now: start}
}

func (m *Manual) Now() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.now
}

func (m *Manual) Advance(d time.Duration) {
	m.mu.Lock()
	m.now = m.now.Add(d)
	m.mu.Unlock()
}

func (m *Manual) Set(t time.Time) {
	m.mu.Lock()
	m.now = t
	m.mu.Unlock()
}
