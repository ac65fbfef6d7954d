// Package transcribe turns call audio into text.
package transcribe

import (
	"context"
	"fmt"
	"sync"
)

const (
	ErrEmptyTranscript   = "empty_transcript"
	ErrUnsupportedFormat = "unsupported_format"

	exceptionPrefix = "transcription_exception: "
)

// Audio is an uploaded recording.
type Audio struct {
	Name string
	Data []byte
}

// Result is the outcome of one transcription. Failures are reported in
// ErrorKind, never as a Go error.
type Result struct {
	Success   bool   `json:"success"`
	Text      string `json:"text"`
	ErrorKind string `json:"error,omitempty"`
	Language  string `json:"language,omitempty"`
}

// Transcriber must be safe for concurrent use.
type Transcriber interface {
	Transcribe(ctx context.Context, audio Audio) Result
}

func failure(kind, language string) Result {
	return Result{ErrorKind: kind, Language: language}
}

func exception(err error) Result {
	return Result{ErrorKind: exceptionPrefix + err.Error()}
}

// Lazy initializes its backend on first use and shares it afterwards.
type Lazy struct {
	init func() (Transcriber, error)

	once    sync.Once
	backend Transcriber
	err     error
}

func NewLazy(init func() (Transcriber, error)) *Lazy {
	return &Lazy{init: init}
}

func (l *Lazy) Transcribe(ctx context.Context, audio Audio) Result {
	l.once.Do(func() {
		l.backend, l.err = l.init()
		if l.err == nil && l.backend == nil {
			l.err = fmt.Errorf("no transcription backend")
		}
	})
	if l.err != nil {
		return exception(fmt.Errorf("init backend: %w", l.err))
	}
	return l.backend.Transcribe(ctx, audio)
}
