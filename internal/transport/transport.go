// Package transport provides the http.RoundTripper through which every
// inventory API call flows. It decides per request whether the call counts
// toward the global busy signal and reports its completion exactly once.
package transport

import (
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/maxkimambo/stockctl/internal/activity"
)

// RequestIDHeader carries a per-request identifier for log correlation.
const RequestIDHeader = "X-Request-ID"

// Transport wraps Base with activity tracking.
//
// Read-only methods (GET, HEAD, OPTIONS) do not participate unless the
// request context says otherwise via activity.WithParticipation; all other
// methods participate unless opted out the same way.
type Transport struct {
	Base        http.RoundTripper
	Coordinator *activity.Coordinator
	Log         logrus.FieldLogger
}

// New returns a Transport over http.DefaultTransport.
func New(c *activity.Coordinator, log logrus.FieldLogger) *Transport {
	return &Transport{Coordinator: c, Log: log}
}

// IsReadOnly reports whether method is a query that by default stays silent.
func IsReadOnly(method string) bool {
	switch method {
	case "", http.MethodGet, http.MethodHead, http.MethodOptions:
		return true
	}
	return false
}

func (t *Transport) base() http.RoundTripper {
	if t.Base != nil {
		return t.Base
	}
	return http.DefaultTransport
}

func (t *Transport) log() logrus.FieldLogger {
	if t.Log != nil {
		return t.Log
	}
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

// RoundTrip implements http.RoundTripper.
func (t *Transport) RoundTrip(req *http.Request) (*http.Response, error) {
	out := req.Clone(req.Context())
	if out.Header.Get(RequestIDHeader) == "" {
		out.Header.Set(RequestIDHeader, uuid.NewString())
	}

	op := t.Coordinator.Start(activity.ConfigFromContext(req.Context()), IsReadOnly(req.Method))
	log := t.log().WithFields(logrus.Fields{
		"method":       out.Method,
		"url":          out.URL.Redacted(),
		"request_id":   out.Header.Get(RequestIDHeader),
		"participates": op.Participates(),
	})
	start := time.Now()

	resp, err := t.base().RoundTrip(out)
	if err != nil {
		op.Done()
		log.WithError(err).Debug("Request failed")
		return nil, err
	}

	log.WithFields(logrus.Fields{
		"status":   resp.StatusCode,
		"duration": time.Since(start).Round(time.Millisecond),
	}).Debug("Response received")

	if !op.Participates() {
		return resp, nil
	}
	if resp.Body == nil || resp.Body == http.NoBody {
		op.Done()
		return resp, nil
	}
	resp.Body = &trackedBody{rc: resp.Body, op: op}
	return resp, nil
}

// trackedBody ends its operation once the body is drained, fails, or is
// closed, whichever comes first.
type trackedBody struct {
	rc io.ReadCloser
	op *activity.Operation
}

func (b *trackedBody) Read(p []byte) (int, error) {
	n, err := b.rc.Read(p)
	if err != nil {
		b.op.Done()
	}
	return n, err
}

func (b *trackedBody) Close() error {
	defer b.op.Done()
	return b.rc.Close()
}
