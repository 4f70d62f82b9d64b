// Package state holds the Context shared by chained hitchain builders.
//
// A Context carries values from one request to the next:
//   - The session cookie captured from a Set-Cookie header
//   - Response fields saved under caller-chosen keys
//   - Seed values (scenario vars, dotenv files)
//
// Strings may reference stored values with {{key}} placeholders, and built-in
// functions with {{uuid()}}; Resolve expands both.
package state
