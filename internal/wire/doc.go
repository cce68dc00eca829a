// Package wire reads the raw request text off a client connection and frames
// responses. It deliberately does not implement HTTP: a request is whatever a
// single read of at most MaxRequestSize bytes returns, the identifier and body
// are extracted textually, and a response is one of three fixed status blocks
// followed by the body.
package wire
