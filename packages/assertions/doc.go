// Package assertions provides the checks a builder runs against a response.
//
// Each constructor returns a Func; builders queue them and run them in order
// once the request completes. Available checks:
//   - Status code equality (Status)
//   - Header equality or substring (Header, HeaderContains)
//   - JSON body field presence and value (BodyField)
//   - Whole JSON body equality with a diff on failure (BodyEquals)
//   - Raw text equality or substring (Text, BodyContains)
//   - JSON Schema validation (Schema, SchemaJSON)
//
// Failures are returned as *Failure values carrying the expected and actual
// values.
package assertions
