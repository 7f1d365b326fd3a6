// Package resource implements the ownership primitives of codecsession:
// single-owner handles over native objects, a pool of reusable payload
// buffers and a registry of live instances.
//
// Every handle here is released exactly once: a second Release is reported
// as ErrAlreadyReleased and never reaches the underlying free function, and
// the only way to keep a handle alive past its scope is to Move it.
package resource
