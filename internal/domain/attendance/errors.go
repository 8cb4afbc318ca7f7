package attendance

import "errors"

// Attendance domain errors
var (
	// Capture errors
	ErrAlreadyCheckedIn      = errors.New("attendance already recorded for this date")
	ErrAlreadyCheckedOut     = errors.New("you have already checked out")
	ErrNotCheckedIn          = errors.New("you have not checked in yet")
	ErrFaceNotMatched        = errors.New("face match failed")
	ErrSessionTooShort       = errors.New("check-out is too soon after check-in")
	ErrCheckOutBeforeCheckIn = errors.New("check-out must be after check-in")

	// Classification errors
	ErrSessionOpen = errors.New("attendance session has no check-out")

	// General errors
	ErrAttendanceNotFound = errors.New("attendance record not found")
)
