package dispatch

import "time"

// Result is the outcome of one dispatch: exactly one of Success, Timeout,
// TransportError or ModelError.
type Result interface {
	isResult()
}

// Success carries the model's raw answer.
type Success struct {
	Text string
}

// Timeout means no answer arrived before the deadline.
type Timeout struct {
	After time.Duration
}

// TransportError covers network, authentication and provider availability
// failures.
type TransportError struct {
	Detail string
}

// ModelError means the provider received the request and refused or failed it.
type ModelError struct {
	Detail string
}

func (Success) isResult()        {}
func (Timeout) isResult()        {}
func (TransportError) isResult() {}
func (ModelError) isResult()     {}
