// Package testutil provides recording fakes for the exchange's collaborators.
//
// Gateway stands in for a transport and Metrics for a metrics backend. Both
// are safe for concurrent use and record everything they are given, so tests
// can assert on the exact sequence of calls.
package testutil
