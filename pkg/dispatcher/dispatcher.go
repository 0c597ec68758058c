package dispatcher

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"runtime/debug"
	"time"

	"github.com/google/uuid"

	"github.com/morezero/json-api-router/pkg/auth"
	"github.com/morezero/json-api-router/pkg/events"
	"github.com/morezero/json-api-router/pkg/payload"
	"github.com/morezero/json-api-router/pkg/provider"
	"github.com/morezero/json-api-router/pkg/result"
	"github.com/morezero/json-api-router/pkg/version"
)

const logPrefix = "dispatcher:dispatch"

// Caller-facing messages added by the dispatcher.
const (
	MsgNotValidUser    = "Not a valid API User"
	MsgProcMissing     = "Expected argument was not present `proc`"
	MsgNotImplemented  = "That API method has not been implemented"
	msgUnexpectedError = "An unexpected error has occurred: %v"
)

// Dispatcher carries the state of one caller. It is not safe for concurrent
// use; concurrent calls need their own Dispatcher. The identity bound by one
// Route call is reused by later calls on the same Dispatcher.
type Dispatcher struct {
	router *Router
	format result.Format
	w      http.ResponseWriter

	identity auth.Identity
	res      *result.Result
	set      *provider.HandlerSet
	state    State
	version  int
	callID   string
}

// SetOutputFormat selects how Route renders the envelope.
func (d *Dispatcher) SetOutputFormat(f result.Format) error {
	if !f.Valid() {
		return fmt.Errorf("%s - %w: %d", logPrefix, result.ErrUnknownFormat, int(f))
	}
	d.format = f
	return nil
}

// OutputFormat returns the configured output format.
func (d *Dispatcher) OutputFormat() result.Format { return d.format }

// SetResponseWriter sets the writer used by the HTTP output format.
func (d *Dispatcher) SetResponseWriter(w http.ResponseWriter) { d.w = w }

// CreateNewResult creates the call's envelope bound to p. Later calls within
// the same Route leave the existing envelope unchanged.
func (d *Dispatcher) CreateNewResult(p payload.Payload) *result.Result {
	if d.res == nil {
		d.res = result.New(p)
	}
	return d.res
}

// State returns the current routing state.
func (d *Dispatcher) State() State { return d.state }

// Result returns the envelope of the last Route call.
func (d *Dispatcher) Result() *result.Result { return d.res }

// Identity returns the caller identity.
func (d *Dispatcher) Identity() *auth.Identity { return &d.identity }

// Version returns the version resolved by the last Route call.
func (d *Dispatcher) Version() int { return d.version }

// CallID returns the id of the last Route call.
func (d *Dispatcher) CallID() string { return d.callID }

// Route executes one call and returns its rendered envelope. Failures are
// reported inside the envelope; Route never panics.
func (d *Dispatcher) Route(ctx context.Context, p payload.Payload) *result.Output {
	started := time.Now()
	d.res = nil
	d.set = nil
	d.state = StateStart
	d.callID = uuid.NewString()

	slog.Debug(fmt.Sprintf("%s - call %s payload=%v", logPrefix, d.callID, p.Redacted()))

	d.run(ctx, p)
	return d.finish(ctx, p, started)
}

func (d *Dispatcher) run(ctx context.Context, p payload.Payload) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error(fmt.Sprintf("%s - call %s panicked: %v\n%s", logPrefix, d.callID, r, debug.Stack()))
			d.fail(p, fmt.Errorf("%v", r))
		}
	}()

	d.version = version.Coerce(p.RawVersion())
	d.set, _ = d.router.registry.Resolve(d.version)
	d.CreateNewResult(p)
	d.state = StateVersionResolved

	before := d.res.ErrorCount()
	if !d.router.credentials.Validate(ctx, p, d.res, &d.identity) {
		if d.res.ErrorCount() == before {
			d.res.AddError(MsgNotValidUser, result.InvalidCredentials)
		}
		slog.Warn(fmt.Sprintf("%s - call %s rejected: %v", logPrefix, d.callID, d.res.ErrorCodes()))
		d.state = StateAuthFailed
		return
	}
	d.state = StateAuthenticated

	proc, hasProc := p.Proc()
	procDef, ok := d.set.Lookup(proc)
	if !ok {
		if !hasProc {
			d.res.AddError(MsgProcMissing, result.ExpectedArgument)
		}
		d.res.AddError(MsgNotImplemented, result.NotImplemented)
		slog.Warn(fmt.Sprintf("%s - call %s: %q not implemented in version %d", logPrefix, d.callID, proc, d.version))
		d.state = StateNotImplemented
		return
	}
	d.state = StateMethodChecked

	args, _ := p.Arguments()
	if !d.router.arguments.Validate(args, procDef.Args, d.res) {
		slog.Warn(fmt.Sprintf("%s - call %s: invalid arguments for %s", logPrefix, d.callID, proc))
		d.state = StateArgsInvalid
		return
	}
	d.state = StateArgsValid

	err := d.set.Invoke(ctx, proc, provider.Call{
		Payload:   p,
		Arguments: args,
		Result:    d.res,
		Caller:    d.identity.Account(),
	})
	if err != nil {
		slog.Error(fmt.Sprintf("%s - call %s: %s failed: %v", logPrefix, d.callID, proc, err))
		d.fail(p, err)
		return
	}
	d.state = StateDispatched
}

// fail replaces the envelope with one carrying a single UNEXPECTED_ERROR.
func (d *Dispatcher) fail(p payload.Payload, err error) {
	d.res = result.New(p)
	d.res.AddError(fmt.Sprintf(msgUnexpectedError, err), result.UnexpectedError)
	d.state = StateUnexpectedFailure
}

func (d *Dispatcher) finish(ctx context.Context, p payload.Payload, started time.Time) *result.Output {
	last := d.state

	if sessionID := d.identity.TakeSession(); sessionID != "" {
		d.safely("end session", func() error {
			return d.router.store.EndSession(ctx, sessionID)
		})
	}

	event := d.event(p, last, started)
	d.safely("publish route event", func() error {
		return d.router.publisher.PublishRoute(ctx, event)
	})

	d.state = StateFinished
	return d.render(p)
}

func (d *Dispatcher) render(p payload.Payload) *result.Output {
	out, err := d.res.Render(d.format, d.w)
	if err == nil {
		return out
	}
	slog.Error(fmt.Sprintf("%s - call %s: render %s failed: %v", logPrefix, d.callID, d.format, err))

	d.res = result.New(p)
	d.res.AddError(fmt.Sprintf(msgUnexpectedError, err), result.UnexpectedError)
	if out, err := d.res.Render(d.format, d.w); err == nil {
		return out
	}
	return &result.Output{Format: result.FormatObject, Object: d.res}
}

func (d *Dispatcher) event(p payload.Payload, last State, started time.Time) *events.RouteEvent {
	proc, _ := p.Proc()
	ev := &events.RouteEvent{
		CallID:       d.callID,
		Proc:         proc,
		Version:      d.version,
		Status:       d.res.Status(),
		ErrorCodes:   codeNames(d.res.ErrorCodes()),
		WarningCodes: codeNames(d.res.WarningCodes()),
		State:        last.String(),
		DurationMs:   time.Since(started).Milliseconds(),
		Timestamp:    time.Now().UTC().Format(time.RFC3339Nano),
	}
	if acc := d.identity.Account(); acc != nil {
		ev.AccountID = acc.ID
	}
	return ev
}

// safely runs a finishing step; its errors and panics are logged, never surfaced.
func (d *Dispatcher) safely(step string, fn func() error) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error(fmt.Sprintf("%s - call %s: %s panicked: %v", logPrefix, d.callID, step, r))
		}
	}()
	if err := fn(); err != nil {
		slog.Warn(fmt.Sprintf("%s - call %s: %s failed: %v", logPrefix, d.callID, step, err))
	}
}

func codeNames(codes []result.Code) []string {
	out := make([]string, len(codes))
	for i, c := range codes {
		out[i] = c.String()
	}
	return out
}
