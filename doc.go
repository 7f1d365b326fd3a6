// Package codecsession streams media through a stateful codec engine
// without blocking the caller.
//
// A Session accepts operations (Configure, Submit, Flush, Reset, Close)
// without blocking, runs them in order on a dedicated worker goroutine
// against the engine, and delivers the outputs and errors back through
// callbacks, in order, on a separate goroutine. Flush resolves only after
// every output of every previously submitted unit was delivered and its
// callback returned.
package codecsession
