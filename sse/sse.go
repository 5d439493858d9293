package sse

import (
	"log"
	"sync"
)

// ClientStream is one subscriber waiting on a generation job's output.
type ClientStream struct {
	Messages chan string
	Done     chan struct{}
}

var (
	connections = make(map[string]*ClientStream)
	mu          sync.RWMutex
)

// Register creates the stream for a job id, replacing any stale one.
func Register(jobID string) *ClientStream {
	stream := &ClientStream{
		Messages: make(chan string, 100),
		Done:     make(chan struct{}, 1),
	}
	mu.Lock()
	connections[jobID] = stream
	mu.Unlock()
	return stream
}

// Unregister drops the stream for a job id.
func Unregister(jobID string) {
	mu.Lock()
	delete(connections, jobID)
	mu.Unlock()
}

// SendChunk forwards one content delta to the job's subscriber. Chunks are
// dropped when nobody is listening or the buffer is full; generation does
// not block on slow readers.
func SendChunk(jobID string, chunk string) {
	mu.RLock()
	stream, ok := connections[jobID]
	mu.RUnlock()
	if !ok {
		return
	}

	select {
	case stream.Messages <- chunk:
	default:
		log.Printf("Dropping chunk for jobID %s: stream buffer full", jobID)
	}
}

// SendDone signals the subscriber that the job finished.
func SendDone(jobID string) {
	mu.RLock()
	stream, ok := connections[jobID]
	mu.RUnlock()
	if !ok {
		return
	}

	select {
	case stream.Done <- struct{}{}:
	default:
	}
}
