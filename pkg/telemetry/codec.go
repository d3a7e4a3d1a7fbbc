package telemetry

import (
	"encoding/base64"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/overlaykit/matchfeed/pkg/errors"
)

// DecodeSnapshot decodes the opaque string payload carried in a snapshot
// envelope: base64-wrapped msgpack. Validation failures are returned so the
// caller can drop the single message and keep the pipeline running.
func DecodeSnapshot(payload string) (*MatchSnapshot, error) {
	raw, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, &errors.PayloadDecodeError{Stage: "base64", Cause: err}
	}

	var snap MatchSnapshot
	if err := msgpack.Unmarshal(raw, &snap); err != nil {
		return nil, &errors.PayloadDecodeError{Stage: "msgpack", Cause: err}
	}

	if len(snap.MatchID) == 0 {
		return nil, &errors.MissingFieldError{MessageName: "MatchSnapshot", FieldName: "matchId"}
	}

	for _, team := range snap.Roster {
		if team.Rank < 1 {
			return nil, &errors.InvalidRankError{TeamName: team.Name, Rank: team.Rank}
		}
	}
	for _, team := range snap.Teams {
		if team.Rank < 1 {
			return nil, &errors.InvalidRankError{TeamName: team.Name, Rank: team.Rank}
		}
	}

	return &snap, nil
}

// EncodeSnapshot is the inverse of DecodeSnapshot. The core never sends
// snapshots; this exists for producers and tests.
func EncodeSnapshot(snap *MatchSnapshot) (string, error) {
	raw, err := msgpack.Marshal(snap)
	if err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(raw), nil
}
