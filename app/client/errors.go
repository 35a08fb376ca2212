package client

import (
	"fmt"
	"sort"
	"strings"
)

// ValidationError is a 422 from the server with per-field messages.
type ValidationError struct {
	Message string
	Fields  map[string][]string
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return e.Message
	}
	fields := make([]string, 0, len(e.Fields))
	for field := range e.Fields {
		fields = append(fields, field)
	}
	sort.Strings(fields)
	var msgs []string
	for _, field := range fields {
		msgs = append(msgs, e.Fields[field]...)
	}
	return strings.Join(msgs, " ")
}

// NotFoundError reports an unknown post id.
type NotFoundError struct {
	ID int
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("post %d not found", e.ID)
}

// TransportError covers network failures and unexpected statuses.
type TransportError struct {
	Op         string
	StatusCode int
	Err        error
}

func (e *TransportError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("%s: unexpected status %d", e.Op, e.StatusCode)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}
