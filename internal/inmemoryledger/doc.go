// Package inmemoryledger provides a thread-safe, in-memory implementation
// of the ledger.Ledger interface. Entries live for the lifetime of the
// process, which is enough for dry runs and tests.
package inmemoryledger
