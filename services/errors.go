// services/errors.go - Error taxonomy for the game protocol
package services

import "errors"

var (
	// ErrInvalidToken is returned when a page token does not match the
	// (team, round, page) it claims to authorize. No detail about which
	// component mismatched is ever attached.
	ErrInvalidToken = errors.New("invalid token")

	// ErrRoundClosed is returned when a team tries to start a round the
	// admin has not opened.
	ErrRoundClosed = errors.New("round not open yet")

	// ErrTimeExpired is returned when a completion arrives after the
	// session deadline. The session has already been flipped to time_over
	// by the time the caller sees this.
	ErrTimeExpired = errors.New("time over")

	// ErrInsufficientBugs is returned when fewer bugs than the page quota
	// were fixed.
	ErrInsufficientBugs = errors.New("all bugs must be fixed")

	// ErrNotFound is returned when a team, round or session lookup fails.
	ErrNotFound = errors.New("not found")
)
