package overlaypost

import (
	"sync"
	"time"

	"github.com/eringen/overlaypost/compositor"
)

// FormState is the form as one browser session last left it.
type FormState struct {
	Template     []byte
	Content      []byte
	TemplateName string
	ContentName  string
	Library      string // slug when the template came from the library
	Caption      string

	Result *compositor.Output

	// Generation is bumped by every compose; only the newest may store a Result.
	Generation uint64

	touched time.Time
}

// Input returns the compositor input described by the form.
func (f FormState) Input() compositor.Input {
	return compositor.Input{Template: f.Template, Content: f.Content, Caption: f.Caption}
}

// FormStore keeps FormState per form session in memory. Idle entries are
// dropped after ttl, and once max entries are live the least recently used
// one makes room for a new session.
type FormStore struct {
	mu    sync.Mutex
	forms map[string]*FormState
	ttl   time.Duration
	max   int
}

// NewFormStore creates an empty FormStore. A max of zero means no cap.
func NewFormStore(ttl time.Duration, max int) *FormStore {
	return &FormStore{forms: make(map[string]*FormState), ttl: ttl, max: max}
}

func (s *FormStore) entry(id string) *FormState {
	f, ok := s.forms[id]
	if !ok {
		if s.max > 0 && len(s.forms) >= s.max {
			s.evictOldest()
		}
		f = &FormState{}
		s.forms[id] = f
	}
	f.touched = time.Now()
	return f
}

func (s *FormStore) evictOldest() {
	var (
		oldest string
		at     time.Time
	)
	for id, f := range s.forms {
		if oldest == "" || f.touched.Before(at) {
			oldest, at = id, f.touched
		}
	}
	delete(s.forms, oldest)
}

// Get returns a copy of the form state for id.
func (s *FormStore) Get(id string) FormState {
	s.mu.Lock()
	defer s.mu.Unlock()
	if f, ok := s.forms[id]; ok {
		f.touched = time.Now()
		return *f
	}
	return FormState{}
}

// Update applies fn to the form state for id under the store lock.
func (s *FormStore) Update(id string, fn func(f *FormState)) {
	s.mu.Lock()
	fn(s.entry(id))
	s.mu.Unlock()
}

// Begin starts a compose for id and returns its input and generation. The
// previous result no longer matches the form, so it is dropped.
func (s *FormStore) Begin(id string) (compositor.Input, uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	f := s.entry(id)
	f.Generation++
	f.Result = nil
	return f.Input(), f.Generation
}

// Finish stores out as the result for id if gen is still the newest
// generation. It reports whether the result was stored.
func (s *FormStore) Finish(id string, gen uint64, out *compositor.Output) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	f := s.entry(id)
	if f.Generation != gen {
		return false
	}
	f.Result = out
	return true
}

// Reset forgets everything about id.
func (s *FormStore) Reset(id string) {
	s.mu.Lock()
	delete(s.forms, id)
	s.mu.Unlock()
}

// Len returns the number of live form sessions.
func (s *FormStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.forms)
}

// Sweep drops entries idle for longer than the TTL and returns how many
// were removed.
func (s *FormStore) Sweep() int {
	cutoff := time.Now().Add(-s.ttl)
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for id, f := range s.forms {
		if f.touched.Before(cutoff) {
			delete(s.forms, id)
			n++
		}
	}
	return n
}

// StartCleanup sweeps idle entries every interval until the returned
// function is called.
func (s *FormStore) StartCleanup(interval time.Duration) (stop func()) {
	done := make(chan struct{})
	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				s.Sweep()
			case <-done:
				return
			}
		}
	}()
	var once sync.Once
	return func() { once.Do(func() { close(done) }) }
}
