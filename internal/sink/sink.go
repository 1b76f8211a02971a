package sink

// RecordSink appends normalized records to a named destination, creating the
// destination and writing its header on first use
type RecordSink interface {
	Append(destination string, header []string, rows [][]string) error
}
