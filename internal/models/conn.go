package models

// Conn is the transport side of one live connection. Send must never block:
// implementations queue the event or drop it when the peer is too slow.
type Conn interface {
	ID() string
	Send(ev Event)
	Close()
}
