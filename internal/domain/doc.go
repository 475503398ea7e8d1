// Package domain defines the core domain types, rules, and ports.
//
// Concept-oriented files (counting.go, account.go, booster.go, countdown.go, notify.go, ...)
// hold shared types, the pure decision functions of the counting game, and the interfaces
// adapters implement. No I/O lives here.
package domain
