// Command triage is the pipeline CLI: it executes run files against local
// element storage and inspects past runs through the ledger.
package main
