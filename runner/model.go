package runner

import (
	"sync"
	"time"
)

const maxOutput = 1 << 20 // 1MB

// Run is one invocation of the check runner.
type Run struct {
	ID         string     `json:"id"`
	Command    []string   `json:"command"`
	StartedAt  time.Time  `json:"startedAt"`
	FinishedAt *time.Time `json:"finishedAt,omitempty"`
	ExitCode   *int       `json:"exitCode,omitempty"`
	Connected  bool       `json:"connected"`

	output   *outputBuf
	outChan  chan []byte
	kickChan chan struct{}
	outMu    sync.Mutex
	stateMu  sync.RWMutex
	done     chan struct{}
	kill     func()
}

func newRun(id string, command []string) *Run {
	return &Run{
		ID:        id,
		Command:   command,
		StartedAt: time.Now(),
		output:    newOutputBuf(),
		done:      make(chan struct{}),
	}
}

// outputBuf keeps the tail of the run output.
type outputBuf struct {
	mu   sync.Mutex
	data []byte
	max  int
}

func newOutputBuf() *outputBuf {
	return &outputBuf{max: maxOutput}
}

func (o *outputBuf) Write(p []byte) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.data = append(o.data, p...)
	if len(o.data) > o.max {
		excess := len(o.data) - o.max
		o.data = o.data[excess:]
	}
}

func (o *outputBuf) Snapshot() []byte {
	o.mu.Lock()
	defer o.mu.Unlock()
	if len(o.data) == 0 {
		return nil
	}
	cp := make([]byte, len(o.data))
	copy(cp, o.data)
	return cp
}

// emit records p and forwards it to the live client, if any. A client that
// is not keeping up misses live chunks; it still gets them on replay.
func (r *Run) emit(p []byte) {
	data := make([]byte, len(p))
	copy(data, p)
	r.output.Write(data)

	r.outMu.Lock()
	if r.outChan != nil {
		select {
		case r.outChan <- data:
		default:
		}
	}
	r.outMu.Unlock()
}

// finish records the exit status and closes Done.
func (r *Run) finish(code int) {
	now := time.Now()
	r.stateMu.Lock()
	r.FinishedAt = &now
	r.ExitCode = &code
	r.stateMu.Unlock()
	close(r.done)
}

// SetClient registers a channel to receive live output. A previously
// registered client is displaced: its kick channel is closed. The returned
// kick channel is closed if this client is itself displaced later.
func (r *Run) SetClient(ch chan []byte) <-chan struct{} {
	r.outMu.Lock()
	defer r.outMu.Unlock()
	if r.kickChan != nil {
		close(r.kickChan)
	}
	kick := make(chan struct{})
	r.kickChan = kick
	r.outChan = ch
	r.stateMu.Lock()
	r.Connected = true
	r.stateMu.Unlock()
	return kick
}

// ClearClient detaches ch if it is still the current client, and always
// closes ch so its pump goroutine exits.
func (r *Run) ClearClient(ch chan []byte) {
	r.outMu.Lock()
	if r.outChan == ch {
		r.outChan = nil
		r.kickChan = nil
		r.stateMu.Lock()
		r.Connected = false
		r.stateMu.Unlock()
	}
	r.outMu.Unlock()
	close(ch)
}

// Output returns a copy of the retained output.
func (r *Run) Output() []byte {
	return r.output.Snapshot()
}

// Done is closed when the runner process has exited.
func (r *Run) Done() <-chan struct{} {
	return r.done
}

// Running reports whether the process is still alive.
func (r *Run) Running() bool {
	select {
	case <-r.done:
		return false
	default:
		return true
	}
}

// Info is a point-in-time copy of the run's public fields.
type Info struct {
	ID         string     `json:"id"`
	Command    []string   `json:"command"`
	StartedAt  time.Time  `json:"startedAt"`
	FinishedAt *time.Time `json:"finishedAt,omitempty"`
	ExitCode   *int       `json:"exitCode,omitempty"`
	Running    bool       `json:"running"`
	Connected  bool       `json:"connected"`
}

func (r *Run) Info() Info {
	r.stateMu.RLock()
	defer r.stateMu.RUnlock()
	return Info{
		ID:         r.ID,
		Command:    r.Command,
		StartedAt:  r.StartedAt,
		FinishedAt: r.FinishedAt,
		ExitCode:   r.ExitCode,
		Running:    r.Running(),
		Connected:  r.Connected,
	}
}
