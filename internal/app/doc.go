// Package app provides the application service layer.
//
// Orchestrates use cases: the counting game and its save economy, save decay, ping-abuse
// detection, audit logging, booster role sync, the countdown message, and bot status.
// Depends on domain interfaces, not concrete implementations.
package app
