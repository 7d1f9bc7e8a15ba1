package discord

import (
	"sync"
	"time"
)

// autoDeleter dispara un borrado al vencer el tiempo o tras N mensajes humanos en el canal, lo que pase primero.
type autoDeleter struct {
	mu      sync.Mutex
	pending map[string][]*pendingDelete // channelID -> pendientes
	after   func(d time.Duration, f func()) func() bool
}

type pendingDelete struct {
	remaining int
	once      sync.Once
	fire      func()
	stop      func() bool
}

func newAutoDeleter() *autoDeleter {
	return &autoDeleter{
		pending: map[string][]*pendingDelete{},
		after: func(d time.Duration, f func()) func() bool {
			return time.AfterFunc(d, f).Stop
		},
	}
}

// Track registra un borrado. messages=0 desactiva el conteo de mensajes.
func (a *autoDeleter) Track(channelID string, ttl time.Duration, messages int, fire func()) {
	p := &pendingDelete{remaining: messages}
	p.fire = func() {
		p.once.Do(func() {
			a.remove(channelID, p)
			fire()
		})
	}
	a.mu.Lock()
	if messages > 0 {
		a.pending[channelID] = append(a.pending[channelID], p)
	}
	a.mu.Unlock()
	stop := a.after(ttl, p.fire)
	a.mu.Lock()
	p.stop = stop
	a.mu.Unlock()
}

// Seen cuenta un mensaje humano en el canal.
func (a *autoDeleter) Seen(channelID string) {
	var due []*pendingDelete
	var stops []func() bool
	a.mu.Lock()
	for _, p := range a.pending[channelID] {
		p.remaining--
		if p.remaining <= 0 {
			due = append(due, p)
			if p.stop != nil {
				stops = append(stops, p.stop)
			}
		}
	}
	a.mu.Unlock()
	for _, stop := range stops {
		stop()
	}
	for _, p := range due {
		p.fire()
	}
}

func (a *autoDeleter) remove(channelID string, p *pendingDelete) {
	a.mu.Lock()
	defer a.mu.Unlock()
	list := a.pending[channelID]
	for i, q := range list {
		if q == p {
			list = append(list[:i], list[i+1:]...)
			break
		}
	}
	if len(list) == 0 {
		delete(a.pending, channelID)
		return
	}
	a.pending[channelID] = list
}

func (a *autoDeleter) Len(channelID string) int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.pending[channelID])
}
