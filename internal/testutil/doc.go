// Package testutil contains fluent builders used across tests to construct
// personas, conversation threads and memory records without boilerplate.
// They are not intended for production usage.
package testutil
