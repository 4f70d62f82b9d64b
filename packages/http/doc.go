// Package http provides the transport layer for hitchain builders.
//
// It wraps the standard library's http package with:
//   - Configurable timeouts, redirects, proxy and TLS validation
//   - A pluggable Doer so tests can stub the network
//   - Request accumulation (method, path, query, headers, body)
//   - Fully buffered responses that can be cloned and read more than once
package http
