// Package automation is the client for the external browser-automation API.
// It submits a natural-language task with an engine selector and reads back
// the status of a submitted task by its handle. Authentication is a bearer key.
package automation
