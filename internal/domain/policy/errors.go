package policy

import "errors"

var (
	ErrPolicyNotLoaded   = errors.New("policy tables not loaded")
	ErrInvalidTaxSlabs   = errors.New("tax slabs must be ascending with a single unbounded last bracket")
	ErrInvalidSplit      = errors.New("salary split percentages must be non-negative and sum to at most 100")
	ErrInvalidThresholds = errors.New("attendance thresholds must satisfy 0 < half day hours <= full day hours")
	ErrInvalidRate       = errors.New("policy rates and ceilings must be non-negative")
)
