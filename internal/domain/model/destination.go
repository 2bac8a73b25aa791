package model

// Destination is one addressable Telegram conversation surface: a chat and,
// optionally, a forum topic (thread) inside it.
type Destination struct {
	Key      string // configured alias or DB key
	ChatID   int64  // required; a destination without a chat id is invalid
	ThreadID int    // 0 means no topic
	Name     string
	Active   bool
}

// Valid reports whether the destination can actually receive messages.
// Invalid destinations are dropped at resolution time, never passed to dispatch.
func (d Destination) Valid() bool {
	return d.ChatID != 0
}
