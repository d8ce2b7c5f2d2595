// Package domain defines the core types shared by the balance lookup pipeline:
// task handles and statuses reported by the automation service, the balance
// value extracted from a finished task, and the error taxonomy every stage
// maps its failures onto.
package domain
