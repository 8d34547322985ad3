// Package stats optionally publishes a periodic snapshot of the demo's
// queue depth and allocator high-water mark to NATS. It is deliberately
// optional: cmd/demo runs unmodified with no NATS server reachable,
// treating the NATS connection as configuration, not a hard runtime
// requirement. nats.go is still a compile-time dependency of this package.
package stats

import (
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/nats-io/nats.go"
)

// Snapshot is the JSON payload published once per tick.
type Snapshot struct {
	QueueDepth      int    `json:"queue_depth"`
	AllocatorPeak   uint64 `json:"allocator_peak_bytes"`
	Strategy        string `json:"strategy"`
	TimestampUnixMS int64  `json:"timestamp_unix_ms"`
}

// Publisher publishes one Snapshot per Publish call on its subject. It
// has no timer of its own; the caller decides how often to publish.
type Publisher struct {
	conn    *nats.Conn
	subject string
}

// Connect dials addr and returns a Publisher bound to subject. Callers
// only construct a Publisher when a NATS address was configured — see
// cmd/demo, which treats an empty address as "stats disabled".
func Connect(addr, subject string) (*Publisher, error) {
	nc, err := nats.Connect(addr)
	if err != nil {
		return nil, fmt.Errorf("stats: connect to NATS at %s: %w", addr, err)
	}
	log.Printf("[stats] connected to NATS at %s, publishing on %q", addr, subject)
	return &Publisher{conn: nc, subject: subject}, nil
}

// Publish marshals snap to JSON and publishes it on the configured
// subject. A publish failure is logged, not fatal — losing one stats
// tick must never take down the demo driver.
func (p *Publisher) Publish(snap Snapshot) {
	snap.TimestampUnixMS = time.Now().UnixMilli()
	data, err := json.Marshal(snap)
	if err != nil {
		log.Printf("[stats] marshal snapshot: %v", err)
		return
	}
	if err := p.conn.Publish(p.subject, data); err != nil {
		log.Printf("[stats] publish: %v", err)
	}
}

// Close closes the underlying NATS connection without draining it first.
func (p *Publisher) Close() {
	if p.conn != nil {
		p.conn.Close()
	}
}
