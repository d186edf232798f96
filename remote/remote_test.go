package remote

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/lambda"
	"github.com/matryer/is"
	"github.com/rs/zerolog"

	"github.com/greedsolver/greed/cache"
	"github.com/greedsolver/greed/config"
	"github.com/greedsolver/greed/game"
)

func TestMain(m *testing.M) {
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	os.Exit(m.Run())
}

func TestHandle(t *testing.T) {
	is := is.New(t)
	cache.CreateGlobalObjectCache()
	cfg := config.DefaultConfig()

	resp, err := Handle(context.Background(), cfg, Request{RequestID: "r1", Max: 10, Sides: 3, Active: 10, Queued: 10})
	is.NoErr(err)
	is.Equal(resp.RequestID, "r1")
	is.Equal(resp.Ruleset, game.Ruleset{Max: 10, Sides: 3})
	is.Equal(resp.N, 0)
	is.Equal(resp.Value, 0.5)
	is.Equal(len(resp.Fingerprint), 16)

	resp, err = Handle(context.Background(), cfg, Request{Max: 10, Sides: 3, Active: 4, Queued: 2, Final: true})
	is.NoErr(err)
	is.Equal(resp.N, 0)
	is.Equal(resp.Value, 1.0)

	_, err = Handle(context.Background(), cfg, Request{Max: 10, Sides: 3, Active: 11})
	is.True(errors.Is(err, game.ErrInvalidState))
	_, err = Handle(context.Background(), cfg, Request{Max: -3})
	is.True(errors.Is(err, game.ErrInvalidRuleset))
	_, err = Handle(context.Background(), cfg, Request{Max: MaxRemoteScore + 1})
	is.True(errors.Is(err, ErrRulesetTooLarge))
}

func TestDefaultRuleset(t *testing.T) {
	is := is.New(t)
	r, err := Request{}.Ruleset()
	is.NoErr(err)
	is.Equal(r, game.DefaultRuleset())
}

func TestReplyRoundTrip(t *testing.T) {
	is := is.New(t)
	want := Response{
		RequestID:   "abc",
		Ruleset:     game.Ruleset{Max: 100, Sides: 6},
		State:       game.NewState(37, 52, true),
		N:           4,
		Value:       0.4375,
		Fingerprint: "0123456789abcdef",
	}
	data, err := EncodeReply(want)
	is.NoErr(err)
	got, err := DecodeReply(data)
	is.NoErr(err)
	is.Equal(got, want)

	data, err = EncodeError("abc", errors.New("no table"))
	is.NoErr(err)
	got, err = DecodeReply(data)
	is.True(err != nil)
	is.Equal(got.RequestID, "abc")
}

type fakeLambda struct {
	got *lambda.InvokeInput
	out *lambda.InvokeOutput
}

func (f *fakeLambda) Invoke(_ context.Context, in *lambda.InvokeInput, _ ...func(*lambda.Options)) (*lambda.InvokeOutput, error) {
	f.got = in
	return f.out, nil
}

func TestClientLookup(t *testing.T) {
	is := is.New(t)
	want := Response{Ruleset: game.DefaultRuleset(), State: game.NewState(0, 0, false), N: 5, Value: 0.53}
	payload, err := json.Marshal(want)
	is.NoErr(err)
	fake := &fakeLambda{out: &lambda.InvokeOutput{StatusCode: 200, Payload: payload}}
	c := &Client{function: "greed-lookup", api: fake}

	got, err := c.Lookup(context.Background(), Request{Active: 0, Queued: 0})
	is.NoErr(err)
	is.Equal(got, want)
	is.Equal(aws.ToString(fake.got.FunctionName), "greed-lookup")
	var sent Request
	is.NoErr(json.Unmarshal(fake.got.Payload, &sent))
	is.Equal(sent, Request{})

	fake.out = &lambda.InvokeOutput{StatusCode: 200, FunctionError: aws.String("Unhandled"), Payload: []byte(`{"errorMessage":"boom"}`)}
	_, err = c.Lookup(context.Background(), Request{})
	is.True(err != nil)
}
