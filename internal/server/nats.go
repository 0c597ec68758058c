package server

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	comms "github.com/nats-io/nats.go"

	"github.com/morezero/json-api-router/pkg/dispatcher"
	"github.com/morezero/json-api-router/pkg/payload"
	"github.com/morezero/json-api-router/pkg/result"
)

const natsLogPrefix = "server:nats"

// MsgDecodeFailed is the error reported for requests that are not a JSON object.
const MsgDecodeFailed = "Failed to decode request"

// NewRequestHandler returns the request/reply handler for the router subject.
// Every message is routed by a fresh Dispatcher; the reply is always a JSON
// envelope.
func NewRequestHandler(ctx context.Context, router *dispatcher.Router, timeout time.Duration) comms.MsgHandler {
	return func(msg *comms.Msg) {
		data, err := handleRequest(ctx, router, timeout, msg.Data)
		if err != nil {
			slog.Error(fmt.Sprintf("%s - failed to encode response: %v", natsLogPrefix, err))
			return
		}
		if err := msg.Respond(data); err != nil {
			slog.Warn(fmt.Sprintf("%s - respond on %s: %v", natsLogPrefix, msg.Subject, err))
		}
	}
}

// Subscribe registers the router on subject.
func Subscribe(ctx context.Context, nc *comms.Conn, subject string, router *dispatcher.Router, timeout time.Duration) (*comms.Subscription, error) {
	sub, err := nc.Subscribe(subject, NewRequestHandler(ctx, router, timeout))
	if err != nil {
		return nil, fmt.Errorf("%s - failed to subscribe to %s: %w", natsLogPrefix, subject, err)
	}
	return sub, nil
}

func handleRequest(ctx context.Context, router *dispatcher.Router, timeout time.Duration, data []byte) ([]byte, error) {
	p, err := payload.Decode(data)
	if err != nil {
		slog.Error(fmt.Sprintf("%s - failed to decode request: %v", natsLogPrefix, err))
		return decodeFailure().JSON()
	}

	reqCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	return encodeOutput(router.NewDispatcher().Route(reqCtx, p))
}

func decodeFailure() *result.Result {
	res := result.New(nil)
	res.AddError(MsgDecodeFailed, result.ExpectedArgument)
	return res
}

// encodeOutput serializes any non-HTTP output as JSON.
func encodeOutput(out *result.Output) ([]byte, error) {
	switch out.Format {
	case result.FormatJSON, result.FormatHTTP:
		return out.JSON, nil
	case result.FormatArray:
		return json.Marshal(out.Array)
	default:
		return out.Object.JSON()
	}
}
