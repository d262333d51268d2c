package session

import "errors"

var (
	// ErrAlreadyStarted is returned by Start on a non-idle session.
	ErrAlreadyStarted = errors.New("session already started")

	// ErrNotPlaying is returned by Pause when there is nothing to pause.
	ErrNotPlaying = errors.New("session is not playing")

	// ErrNotPaused is returned by Resume when the session is not paused.
	ErrNotPaused = errors.New("session is not paused")
)
