package remote

import (
	"fmt"

	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/greedsolver/greed/game"
)

// EncodeReply serializes a response as a protobuf Struct, the payload sent
// on NATS reply channels.
func EncodeReply(r Response) ([]byte, error) {
	s, err := structpb.NewStruct(map[string]any{
		"request_id":  r.RequestID,
		"max":         r.Ruleset.Max,
		"sides":       r.Ruleset.Sides,
		"active":      r.State.Active,
		"queued":      r.State.Queued,
		"final":       r.State.Final,
		"n":           r.N,
		"value":       r.Value,
		"fingerprint": r.Fingerprint,
	})
	if err != nil {
		return nil, err
	}
	return proto.Marshal(s)
}

// EncodeError serializes a failed lookup.
func EncodeError(requestID string, err error) ([]byte, error) {
	s, serr := structpb.NewStruct(map[string]any{
		"request_id": requestID,
		"error":      err.Error(),
	})
	if serr != nil {
		return nil, serr
	}
	return proto.Marshal(s)
}

// DecodeReply parses a payload written by EncodeReply or EncodeError.
func DecodeReply(data []byte) (Response, error) {
	s := &structpb.Struct{}
	if err := proto.Unmarshal(data, s); err != nil {
		return Response{}, err
	}
	f := s.GetFields()
	if msg := f["error"].GetStringValue(); msg != "" {
		return Response{RequestID: f["request_id"].GetStringValue()}, fmt.Errorf("remote: %s", msg)
	}
	num := func(k string) int { return int(f[k].GetNumberValue()) }
	return Response{
		RequestID:   f["request_id"].GetStringValue(),
		Ruleset:     game.Ruleset{Max: num("max"), Sides: num("sides")},
		State:       game.NewState(num("active"), num("queued"), f["final"].GetBoolValue()),
		N:           num("n"),
		Value:       f["value"].GetNumberValue(),
		Fingerprint: f["fingerprint"].GetStringValue(),
	}, nil
}
