package notify

// TextNotifier is the minimal outbound notification surface. Components
// depend on this instead of a concrete transport.
type TextNotifier interface {
	SendText(text string) error
}

// Nop discards all notifications.
type Nop struct{}

func (Nop) SendText(string) error { return nil }
