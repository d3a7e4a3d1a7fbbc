package errors

import "fmt"

type UnexpectedStatusCode struct {
	Code   int
	Detail string
}

func (e *UnexpectedStatusCode) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("Unexpected in-band status code=%d", e.Code)
	}
	return fmt.Sprintf("Unexpected in-band status code=%d: %s", e.Code, e.Detail)
}

type MissingFieldError struct {
	MessageName string
	FieldName   string
}

func (e *MissingFieldError) Error() string {
	return fmt.Sprintf("Missing field %s in message type %s", e.FieldName, e.MessageName)
}

type PayloadDecodeError struct {
	Stage string
	Cause error
}

func (e *PayloadDecodeError) Error() string {
	return fmt.Sprintf("Failed to decode payload at stage '%s': %v", e.Stage, e.Cause)
}

func (e *PayloadDecodeError) Unwrap() error {
	return e.Cause
}

type InvalidRankError struct {
	TeamName string
	Rank     int
}

func (e *InvalidRankError) Error() string {
	return fmt.Sprintf("Invalid rank=%d for team '%s' (ranks are 1-based)", e.Rank, e.TeamName)
}

type AlreadyClosedError struct {
	Component string
}

func (e *AlreadyClosedError) Error() string {
	return fmt.Sprintf("Operation rejected: %s has already been closed", e.Component)
}
