package curation

import "errors"

// Sentinel kinds for curation errors.
var (
	ErrGroupNotFound  = errors.New("group not found")
	ErrStagingEmpty   = errors.New("no candidates staged")
	ErrNotCurated     = errors.New("candidate not curated")
	ErrAlreadyCurated = errors.New("candidate already curated")
)
