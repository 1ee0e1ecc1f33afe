package ports

// LogPublisher receives pipeline output for live subscribers of a stream.
type LogPublisher interface {
	Send(streamID, line string)
	Close(streamID string)
}
