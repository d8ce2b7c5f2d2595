// Package service contains the balance pipeline: resolve a display name,
// submit a browser automation task for it, poll the task to a terminal
// state and parse the balance out of its result.
//
// Components:
//
//   - Submitter renders the fixed instruction template and starts the task.
//   - Poller is the bounded retry loop. Its status query and its delay are
//     both injectable, so tests run the whole loop without real time passing.
//   - BalanceService orchestrates the stages, applies per-stage deadlines and
//     records a tracing span for each stage.
//
// The service depends only on small interfaces (NameLookup, TaskSubmitter,
// StatusQuerier). The HTTP clients that satisfy them live under
// internal/platform.
package service
