// Package testutils provides shared test helpers: httptest servers that
// stand in for the identity and automation APIs, response assertions, and
// temporary config files.
//
// Helpers take *testing.T and register their own cleanup.
package testutils
