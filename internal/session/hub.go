// internal/session/hub.go

package session

import (
	"errors"
	"io"
	"sync"

	"go.uber.org/zap"
)

const (
	subscriberBuffer = 64
	readChunkSize    = 32 * 1024
)

type subscriber struct {
	ch       chan []byte
	done     chan struct{}
	mu       sync.Mutex
	closed   bool
	stopOnce sync.Once
}

// stop odłącza subskrybenta; kanał jest zamykany pod mutexem, więc nie
// koliduje z trwającym wysyłaniem
func (s *subscriber) stop() {
	s.stopOnce.Do(func() { close(s.done) })
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.closed {
		s.closed = true
		close(s.ch)
	}
}

func (s *subscriber) send(chunk []byte, stop <-chan struct{}) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	select {
	case s.ch <- chunk:
	case <-s.done:
	case <-stop:
	}
}

// hub rozsyła wyjście jednej powłoki do subskrybentów. Żyje dokładnie tyle co
// połączenie; po zamknięciu wszystkie kanały subskrybentów są zamknięte.
type hub struct {
	src    io.Reader
	logger *zap.Logger

	mu     sync.Mutex
	subs   map[int]*subscriber
	nextID int
	closed bool

	ready     chan struct{}
	readyOnce sync.Once
	stop      chan struct{}
	stopOnce  sync.Once
}

func newHub(src io.Reader, logger *zap.Logger) *hub {
	return &hub{
		src:    src,
		logger: logger,
		subs:   map[int]*subscriber{},
		ready:  make(chan struct{}),
		stop:   make(chan struct{}),
	}
}

// subscribe dodaje odbiorcę. Zwracana funkcja cancel jest idempotentna.
func (h *hub) subscribe() (<-chan []byte, func(), bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return nil, nil, false
	}

	id := h.nextID
	h.nextID++
	sub := &subscriber{
		ch:   make(chan []byte, subscriberBuffer),
		done: make(chan struct{}),
	}
	h.subs[id] = sub
	h.readyOnce.Do(func() { close(h.ready) })

	cancel := func() {
		h.mu.Lock()
		delete(h.subs, id)
		h.mu.Unlock()
		sub.stop()
	}
	return sub.ch, cancel, true
}

func (h *hub) subscribers() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}

func (h *hub) snapshot() []*subscriber {
	h.mu.Lock()
	defer h.mu.Unlock()
	subs := make([]*subscriber, 0, len(h.subs))
	for _, s := range h.subs {
		subs = append(subs, s)
	}
	return subs
}

// pump czyta wyjście powłoki aż do błędu lub zamknięcia. Czytanie zaczyna
// się dopiero po pierwszej subskrypcji, żeby nie zgubić powitania serwera.
func (h *hub) pump() {
	defer h.close()

	select {
	case <-h.ready:
	case <-h.stop:
		return
	}

	buf := make([]byte, readChunkSize)
	for {
		n, err := h.src.Read(buf)
		if n > 0 {
			chunk := append([]byte(nil), buf[:n]...)
			for _, sub := range h.snapshot() {
				sub.send(chunk, h.stop)
			}
		}
		if err != nil {
			if !errors.Is(err, io.EOF) {
				h.logger.Debug("shell output ended", zap.Error(err))
			}
			return
		}
	}
}

func (h *hub) close() {
	h.stopOnce.Do(func() { close(h.stop) })

	h.mu.Lock()
	h.closed = true
	subs := h.subs
	h.subs = map[int]*subscriber{}
	h.mu.Unlock()

	for _, sub := range subs {
		sub.stop()
	}
}
