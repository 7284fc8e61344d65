package worker

import (
	"sync"

	"github.com/segmentio/kafka-go"
)

// offsetTracker releases offsets for commit in partition order. A message's
// offset is only released once it and every earlier tracked message of the
// same partition have been settled, so concurrent workers never commit past
// an unsettled message.
type offsetTracker struct {
	mu         sync.Mutex
	partitions map[int]*partitionOffsets
}

type partitionOffsets struct {
	pending []kafka.Message
	settled map[int64]bool
}

func newOffsetTracker() *offsetTracker {
	return &offsetTracker{partitions: make(map[int]*partitionOffsets)}
}

// track registers msg in fetch order. An offset at or below the last tracked
// one means the partition was rewound (for example after a rebalance), so its
// earlier state is discarded.
func (t *offsetTracker) track(msg kafka.Message) {
	t.mu.Lock()
	defer t.mu.Unlock()

	p, ok := t.partitions[msg.Partition]
	if !ok || (len(p.pending) > 0 && msg.Offset <= p.pending[len(p.pending)-1].Offset) {
		p = &partitionOffsets{settled: make(map[int64]bool)}
		t.partitions[msg.Partition] = p
	}
	p.pending = append(p.pending, msg)
}

// settle marks msg as done and returns the highest message that may now be
// committed, if any.
func (t *offsetTracker) settle(msg kafka.Message) (kafka.Message, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	p, ok := t.partitions[msg.Partition]
	if !ok {
		return kafka.Message{}, false
	}
	p.settled[msg.Offset] = true

	var (
		last  kafka.Message
		ready bool
	)
	for len(p.pending) > 0 && p.settled[p.pending[0].Offset] {
		last = p.pending[0]
		delete(p.settled, last.Offset)
		p.pending = p.pending[1:]
		ready = true
	}
	return last, ready
}
