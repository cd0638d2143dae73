package domain

import "time"

// HistoryStore keeps the rolling conversation window per chat. Entries are
// opaque tagged strings; the store never parses them. Implementations must be
// safe for concurrent use.
type HistoryStore interface {
	// Recent returns up to n of the newest entries for the chat, oldest
	// first. An unseen chat yields an empty slice.
	Recent(chatID int64, n int) []string
	// Append adds entries in order, then drops from the front so at most
	// limit entries remain.
	Append(chatID int64, limit int, entries ...string)
	// Reset drops all history for the chat. Resetting an unseen chat is a
	// no-op.
	Reset(chatID int64)
}

// RateGate throttles senders to one accepted message per minimum interval.
type RateGate interface {
	// Limited reports whether the user's message arrived too soon after
	// the last accepted one. An accepted message records now as the new
	// last-seen timestamp; a rejected one leaves it untouched.
	Limited(userID int64, now time.Time) bool
}
