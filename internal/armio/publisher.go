package armio

import (
	"net"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/banshee-data/armlink/internal/monitoring"
)

// Publisher broadcasts binary status records to every connected TCP client.
// The control loop is the single writer; subscribers that stop reading are
// dropped rather than allowed to stall the loop.
type Publisher struct {
	ln net.Listener

	mu      sync.Mutex
	conns   map[string]net.Conn
	closing bool
}

// NewPublisher starts listening on addr and accepting subscribers.
func NewPublisher(addr string) (*Publisher, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, err
	}

	p := &Publisher{
		ln:    ln,
		conns: make(map[string]net.Conn),
	}
	go p.acceptLoop()
	return p, nil
}

// Addr returns the listener address, useful when addr was ":0" in tests.
func (p *Publisher) Addr() net.Addr {
	return p.ln.Addr()
}

func (p *Publisher) acceptLoop() {
	for {
		conn, err := p.ln.Accept()
		if err != nil {
			p.mu.Lock()
			closing := p.closing
			p.mu.Unlock()
			if !closing {
				monitoring.Logf("status publisher accept error: %v", err)
			}
			return
		}

		id := uuid.NewString()
		p.mu.Lock()
		if p.closing {
			p.mu.Unlock()
			conn.Close()
			return
		}
		p.conns[id] = conn
		n := len(p.conns)
		p.mu.Unlock()
		monitoring.Logf("status subscriber %s connected from %s (%d total)", id[:8], conn.RemoteAddr(), n)
	}
}

// publishWriteTimeout bounds how long one subscriber may hold up Publish.
// Publish runs on the control thread, so a subscriber that stops reading
// must time out well inside a loop tick rather than block the arm.
const publishWriteTimeout = 50 * time.Millisecond

// Publish writes record to every subscriber, dropping any whose write fails
// or times out.
func (p *Publisher) Publish(record []byte) {
	p.mu.Lock()
	defer p.mu.Unlock()

	for id, conn := range p.conns {
		conn.SetWriteDeadline(time.Now().Add(publishWriteTimeout))
		if _, err := conn.Write(record); err != nil {
			monitoring.Logf("dropping status subscriber %s: %v", id[:8], err)
			conn.Close()
			delete(p.conns, id)
		}
	}
}

// SubscriberCount returns the number of connected subscribers.
func (p *Publisher) SubscriberCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.conns)
}

// Close stops accepting and closes all subscriber connections.
func (p *Publisher) Close() error {
	p.mu.Lock()
	p.closing = true
	for id, conn := range p.conns {
		conn.Close()
		delete(p.conns, id)
	}
	p.mu.Unlock()
	return p.ln.Close()
}
