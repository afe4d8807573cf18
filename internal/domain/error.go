package domain

import "errors"

var (
	// Common domain errors
	ErrNotFound            = errors.New("entity not found")
	ErrInvalidArgument     = errors.New("invalid argument")
	ErrUnsupportedFormat   = errors.New("unsupported audio format")
	ErrFileTooLarge        = errors.New("audio file exceeds size limit")
	ErrNoSpeech            = errors.New("provider returned empty transcript")
	ErrProviderUnavailable = errors.New("provider call failed")
	ErrProvidersExhausted  = errors.New("all transcription providers failed")
	ErrTranscriptFailed    = errors.New("provider reported transcription failure")
	ErrPollTimeout         = errors.New("provider polling attempts exhausted")
	ErrStorageFull         = errors.New("storage full on primary and fallback medium")
)
