// Package ledger derives the money figures of a transaction: revenue, cost
// of goods, expenses, margin, and the PPN tax under the supported regimes.
// Every function is pure.
package ledger
