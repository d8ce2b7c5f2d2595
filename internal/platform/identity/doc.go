// Package identity is the client for the external user-lookup API. It turns a
// user identifier into a display name, either through the GraphQL endpoint or
// the per-user REST resource, authenticating with an HTTP Basic key/secret pair.
package identity
