package session

// Recover forces a session left active or paused by a previous process into
// suspended with its clock cleared, so a stale anchor is never trusted across
// a process boundary. The unfolded span is discarded. It reports whether s
// was changed.
func Recover(s *Session) bool {
	return suspend(s, 0)
}

// Recoverable reports whether s is a suspended session the user can continue
// (Resume) or discard (End).
func Recoverable(s *Session) bool {
	return s != nil && s.Status == StatusSuspended
}
