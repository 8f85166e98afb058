package domain

import "errors"

var (
	ErrNoSession      = errors.New("no provider session established")
	ErrNothingPlaying = errors.New("nothing currently playing")
	ErrTrackNotFound  = errors.New("track not found")
)
