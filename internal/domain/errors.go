package domain

// basic error that can occur
type Error string

func (e Error) Error() string {
	return string(e)
}

const (
	// codec
	ErrMalformedMessage   Error = "malformed message"
	ErrUnknownMessageType Error = "unknown message type"
	ErrSchemaViolation    Error = "schema violation"
	ErrUnencodableMove    Error = "unencodable move"

	// transport
	ErrConnectionClosed Error = "connection closed"
	ErrIO               Error = "i/o error"

	// engine
	ErrProtocolViolation Error = "protocol violation"
	ErrServerError       Error = "server reported an error"
)
