package registry

// Session remembers the last upload set and result so that repeated
// updates with an identical set skip reconciliation entirely.
type Session struct {
	rec     *Reconciler
	uploads Uploads
	result  *Result
}

// NewSession creates a session with an empty result.
func NewSession(rec *Reconciler) *Session {
	return &Session{rec: rec}
}

// Update reconciles uploads against the previous result. When uploads holds
// the same contents as last time, the previous result is returned without
// calling the reconciler.
func (s *Session) Update(uploads Uploads) *Result {
	if s.result != nil && s.uploads.Same(uploads) {
		return s.result
	}
	s.result = s.rec.Reconcile(uploads, s.result)
	s.uploads = uploads.Clone()
	return s.result
}
