package journal

import "fmt"

// Error codes for the journal error taxonomy.
const (
	CodeBuild    = "JOURNAL_BUILD"
	CodeStore    = "JOURNAL_STORE"
	CodeDelivery = "JOURNAL_DELIVERY"
	CodeDecode   = "JOURNAL_DECODE"
)

// BuildError reports a malformed event payload. It is never fatal: the
// builder degrades to storing the payload as raw passthrough.
type BuildError struct {
	Host string
	Err  error
}

func (e *BuildError) Error() string {
	return fmt.Sprintf("[%s] host %q: %v", CodeBuild, e.Host, e.Err)
}

func (e *BuildError) Unwrap() error { return e.Err }

// StoreError reports a failure to open or write the durable store.
// It aborts the current run since durability cannot be guaranteed.
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("[%s] %s: %v", CodeStore, e.Op, e.Err)
}

func (e *StoreError) Unwrap() error { return e.Err }

// DeliveryError reports a network failure or a non-201 collector response.
// StatusCode is zero when no response was received.
type DeliveryError struct {
	StatusCode int
	Err        error
}

func (e *DeliveryError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("[%s] collector responded %d: %v", CodeDelivery, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("[%s] %v", CodeDelivery, e.Err)
}

func (e *DeliveryError) Unwrap() error { return e.Err }

// DecodeError reports a cache record whose payload could not be decoded.
type DecodeError struct {
	RecordID int64
	Err      error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("[%s] record %d: %v", CodeDecode, e.RecordID, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }
