// Package wire defines the JSON envelope spoken over the feed connection.
//
// Every frame from the server is a single Envelope. The Code field decides
// how the rest of the envelope is interpreted: an auth acknowledgement, a
// snapshot payload, or an error condition carrying a human-readable message.
package wire

import (
	"encoding/json"

	"github.com/overlaykit/matchfeed/pkg/errors"
)

const (
	// CodeSnapshot marks an envelope carrying an application payload in the
	// Data field.
	CodeSnapshot = 100

	// CodeAuthOK acknowledges the authentication request. The connection is
	// not considered ready until this code has been observed.
	CodeAuthOK = 200
)

type Envelope struct {
	Code    int    `json:"code"`
	Data    string `json:"data,omitempty"`
	Message string `json:"message,omitempty"`
}

// IsError reports whether the envelope carries anything other than the two
// distinguished status codes.
func (e *Envelope) IsError() bool {
	return e.Code != CodeSnapshot && e.Code != CodeAuthOK
}

// AuthRequest is the single outbound message this module ever sends: the
// credential payload written immediately after the transport opens.
type AuthRequest struct {
	Token string `json:"token"`
}

func ParseEnvelope(raw []byte) (*Envelope, error) {
	var env Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, &errors.PayloadDecodeError{Stage: "envelope", Cause: err}
	}

	if env.Code == CodeSnapshot && env.Data == "" {
		return nil, &errors.MissingFieldError{MessageName: "Envelope", FieldName: "data"}
	}

	return &env, nil
}

func EncodeAuthRequest(token string) ([]byte, error) {
	return json.Marshal(&AuthRequest{Token: token})
}
