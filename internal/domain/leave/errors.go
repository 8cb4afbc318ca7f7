package leave

import "errors"

var (
	ErrNegativeLeaveTaken = errors.New("leave taken cannot be negative")
	ErrNegativeBalance    = errors.New("opening balance cannot be negative")
)
