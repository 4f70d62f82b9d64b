// Package builtin provides the functions available inside {{...}} placeholders.
//
// Available functions:
//   - uuid(): Random UUID v4
//   - now(): Current time in RFC 3339
//   - timestamp(), timestampMs(): Current Unix time
//   - date(format): Current date, Go layout (default 2006-01-02)
//   - randomString(length): Random alphanumeric string
//   - randomEmail(): Random email address
//   - base64(value), urlEncode(value): Encoders
//
// A placeholder such as {{uuid()}} in a request path or body is replaced by the
// function result when the request is built.
package builtin
