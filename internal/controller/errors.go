package controller

import (
	"context"
	"errors"

	"github.com/claude/planform/internal/models"
	"github.com/claude/planform/internal/upstream"
)

// ErrStaleResponse is returned by Submit when a newer submission started before
// this one's response arrived. The response is discarded.
var ErrStaleResponse = errors.New("response superseded by a newer submission")

// StatusKind classifies the message shown in the form's status region.
type StatusKind string

const (
	StatusNone  StatusKind = ""
	StatusError StatusKind = "error"
)

// Status is the user-visible outcome of the last network operation.
type Status struct {
	Kind    StatusKind `json:"kind,omitempty"`
	Message string     `json:"message,omitempty"`
}

// IsError reports whether the status carries an error message.
func (s Status) IsError() bool { return s.Kind == StatusError }

// StatusFor maps an operation error to the message shown to the user.
func StatusFor(err error) Status {
	var msg string
	switch {
	case err == nil:
		return Status{}
	case errors.Is(err, models.ErrMalformedTag):
		msg = "The workout options could not be loaded: the server sent an invalid subcategory."
	case errors.Is(err, upstream.ErrMalformedBody):
		msg = "The workout server sent a response that could not be read."
	case errors.Is(err, upstream.ErrTransport),
		errors.Is(err, context.DeadlineExceeded),
		errors.Is(err, context.Canceled):
		msg = "The workout server could not be reached. Please try again."
	default:
		msg = "Something went wrong. Please try again."
	}
	return Status{Kind: StatusError, Message: msg}
}
