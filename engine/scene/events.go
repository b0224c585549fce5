package scene

// eventHandler is one subscription. The id lets an unsubscribe find its own entry after earlier
// subscriptions were removed.
type eventHandler struct {
	id uint64
	fn func()
}

func (s *scene) On(event string, handler func()) func() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextHandlerID++
	id := s.nextHandlerID
	s.handlers[event] = append(s.handlers[event], eventHandler{id: id, fn: handler})

	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		hs := s.handlers[event]
		for i, h := range hs {
			if h.id == id {
				s.handlers[event] = append(hs[:i:i], hs[i+1:]...)
				return
			}
		}
	}
}

func (s *scene) Emit(event string) {
	// Handlers may subscribe, unsubscribe or emit themselves, so they run without the lock held.
	s.mu.RLock()
	hs := append([]eventHandler(nil), s.handlers[event]...)
	s.mu.RUnlock()

	for _, h := range hs {
		h.fn()
	}
}
