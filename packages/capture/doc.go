// Package capture saves values from HTTP responses into a shared state.Context.
//
// It supports capturing:
//   - Response body fields (literal keys or gjson paths)
//   - Response headers
//   - A named cookie from Set-Cookie headers
//
// Each capture is an assertions.Func, so it runs in the same ordered queue as
// the checks and sees the same response. Saved values are available to later
// requests through {{key}} placeholders.
package capture
