package api

import (
	"errors"

	"github.com/okian/perfscore/internal/domain/model"
)

// Sentinel kinds for API errors.
var (
	ErrBadRequest    = errors.New("bad request")
	ErrLimitExceeded = errors.New("limit exceeded")
	ErrInvalidTime   = model.ErrInvalidTime
)
