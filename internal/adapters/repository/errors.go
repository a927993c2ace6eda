package repository

import "errors"

// Sentinel kinds for repository errors.
var (
	ErrNotFound       = errors.New("employee not found")
	ErrInvalidWindow  = errors.New("invalid reporting window")
	ErrInvalidDataset = errors.New("invalid dataset")
)
