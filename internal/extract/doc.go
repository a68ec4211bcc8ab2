// Package extract turns raw event candidates into validated records.
//
// Title, date, time and location are each recovered by small heuristic
// extractors that work on plain text or on HTML fragments. The Orchestrator
// runs them in order and reports ErrNoTitle, ErrGenericTitle or ErrNoDate
// when a required field cannot be found.
package extract
