// Package api handles incoming HTTP requests for the balance endpoint:
// request decoding and validation, the call into the balance service and
// the mapping of every outcome to a status code and a JSON body. It acts as
// an adapter between the front-end page and internal/service.
//
// Error bodies always have the shape {"error": "<message>"} and carry one of
// a small set of fixed messages (see errors.go). Upstream detail is logged
// through internal/redact and never returned.
package api
