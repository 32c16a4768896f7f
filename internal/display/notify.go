package display

// Subscribe returns a channel that receives a value after visible changes
// to the screen. Notifications coalesce: a slow reader sees at most one
// pending value. The returned function unsubscribes and closes the channel.
func (m *Model) Subscribe() (<-chan struct{}, func()) {
	ch := make(chan struct{}, 1)

	m.subMu.Lock()
	m.subs[ch] = struct{}{}
	m.subMu.Unlock()

	var once bool
	return ch, func() {
		m.subMu.Lock()
		defer m.subMu.Unlock()
		if once {
			return
		}
		once = true
		delete(m.subs, ch)
		close(ch)
	}
}

func (m *Model) notify() {
	m.subMu.Lock()
	defer m.subMu.Unlock()
	for ch := range m.subs {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}
