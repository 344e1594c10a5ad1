package client

import "fmt"

// create subject strings for various types of messages

// SubjectSignal constructs a NATS subject for raw signal values
func SubjectSignal(id string) string {
	return fmt.Sprintf("sig.%v", id)
}

// SubjectAllSignals provides the subject for values of all signals
func SubjectAllSignals() string {
	return "sig.>"
}

// SubjectSignalRead constructs a NATS subject for on-demand signal reads
func SubjectSignalRead(id string) string {
	return fmt.Sprintf("sigread.%v", id)
}

// SubjectAllSignalReads provides the subject for reads of all signals
func SubjectAllSignalReads() string {
	return "sigread.>"
}

// SubjectReading constructs a NATS subject for published readings
func SubjectReading(id string) string {
	return fmt.Sprintf("reading.%v", id)
}

// SubjectWindow constructs a NATS subject for finalized window summaries
func SubjectWindow(id string) string {
	return fmt.Sprintf("window.%v", id)
}
