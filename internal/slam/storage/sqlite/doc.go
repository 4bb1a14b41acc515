// Package sqlite persists simulation runs and their per-step trace.
//
// Schema changes go through golang-migrate; migrations are embedded so a
// binary can bring any database file up to date without a checkout.
package sqlite
