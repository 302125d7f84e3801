package earshot

import "sync"

// session is one user's accumulation state. Its mutex serializes the buffer
// and last-recognition fields; the registry never touches them without it.
type session struct {
	mu   sync.Mutex
	buf  *AudioBuffer
	last *Recognition
}

// SessionRegistry owns every live session. Sessions are created implicitly on
// the first chunk for an unseen user id, removed only by an explicit clear,
// and otherwise live for the process lifetime.
type SessionRegistry struct {
	mu       sync.RWMutex
	sessions map[string]*session
}

func NewSessionRegistry() *SessionRegistry {
	return &SessionRegistry{sessions: make(map[string]*session)}
}

// getOrCreate returns the session for uid, creating it on first sight.
func (r *SessionRegistry) getOrCreate(uid string, sampleRate int) (*session, error) {
	r.mu.RLock()
	s, ok := r.sessions[uid]
	r.mu.RUnlock()
	if ok {
		return s, nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if s, ok := r.sessions[uid]; ok {
		return s, nil
	}
	buf, err := NewAudioBuffer(sampleRate)
	if err != nil {
		return nil, err
	}
	s = &session{buf: buf}
	r.sessions[uid] = s
	return s, nil
}

func (r *SessionRegistry) get(uid string) (*session, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.sessions[uid]
	return s, ok
}

// Remove destroys the session for uid, reporting whether it existed.
func (r *SessionRegistry) Remove(uid string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.sessions[uid]; !ok {
		return false
	}
	delete(r.sessions, uid)
	return true
}

// Len returns the number of live sessions.
func (r *SessionRegistry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

// Stats returns a consistent snapshot of one session's buffer state. The
// snapshot is taken under the session lock, so byte count, duration and rate
// always describe the same moment.
func (r *SessionRegistry) Stats(uid string) (*SessionStats, error) {
	s, ok := r.get(uid)
	if !ok {
		return nil, ErrUnknownSession
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	stats := &SessionStats{
		UID:             uid,
		BufferBytes:     s.buf.Len(),
		DurationSeconds: s.buf.Duration(),
		SampleRate:      s.buf.SampleRate(),
	}
	if s.last != nil {
		last := *s.last
		stats.LastRecognition = &last
	}
	return stats, nil
}
