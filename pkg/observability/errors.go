package observability

import "errors"

var (
	ErrDuplicateMetric      = errors.New("duplicate metric")
	ErrLabelMismatch        = errors.New("label mismatch")
	ErrUnknownMetric        = errors.New("unknown metric")
	ErrKindMismatch         = errors.New("metric kind mismatch")
	ErrInvalidValue         = errors.New("invalid metric value")
	ErrInconsistentSnapshot = errors.New("inconsistent snapshot")
)
