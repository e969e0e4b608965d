package availability

import "errors"

var (
	// ErrInvalidInput rejects malformed reservation parameters before any
	// remote call is made.
	ErrInvalidInput = errors.New("availability: invalid input")
	// ErrSlotBlocked rejects a start time matching a configured recovery
	// slot, regardless of calendar state.
	ErrSlotBlocked = errors.New("availability: slot is reserved for recovery")
	// ErrSlotTaken rejects a start time that overlaps a busy interval.
	ErrSlotTaken = errors.New("availability: slot already taken")
)
