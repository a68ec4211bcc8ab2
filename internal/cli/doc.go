// Package cli implements the command-line interface for seminar-cal.
//
// The cli package provides the Cobra-based CLI: run scrapes every configured
// source once, watch runs on a cron schedule and can expose Prometheus
// metrics, export writes stored events as an iCalendar file, list prints
// stored events, categorize scores a title and description against the
// keyword dictionaries, and backfill enriches stored events.
package cli
