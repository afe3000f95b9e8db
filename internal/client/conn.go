package client

//go:generate mockgen -source=conn.go -destination=mocks/mock_conn.go -package=mocks

// Conn is the subset of *websocket.Conn the client uses.
type Conn interface {
	WriteMessage(messageType int, data []byte) error
	ReadMessage() (messageType int, p []byte, err error)
	Close() error
}
