package gradecheck

import (
	"context"
	"fmt"
	"gradewatch/lib/transcript"
	"strconv"

	"github.com/go-resty/resty/v2"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// Session is an authenticated HTTP session, requests started from R() carry
// its cookies.
type Session interface {
	R() *resty.Request
}

// Window is the page of transcript rows requested from the data endpoint.
type Window struct {
	Start  int
	Length int
}

func (w Window) validate() error {
	if w.Start < 0 {
		return fmt.Errorf("window start must not be negative, got %d", w.Start)
	}
	if w.Length <= 0 {
		return fmt.Errorf("window length must be positive, got %d", w.Length)
	}
	return nil
}

// FetchError means the data endpoint could not be reached or did not answer
// with a well-formed snapshot.
type FetchError struct {
	Status int
	Err    error
}

func (e *FetchError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("fetch transcript (status %d): %s", e.Status, e.Err)
	}
	return fmt.Sprintf("fetch transcript: %s", e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

type FetcherOptions struct {
	// requested before the data endpoint so the portal binds the session
	// to the transcript application, empty skips it
	ServiceUrl string
	DataUrl    string
}

type Fetcher struct {
	session Session
	opts    FetcherOptions
}

func NewFetcher(session Session, opts FetcherOptions) Fetcher {
	return Fetcher{session: session, opts: opts}
}

// Fetch requests one page of transcript rows.
func (f Fetcher) Fetch(ctx context.Context, window Window) (transcript.Snapshot, error) {
	ctx, span := tracer.Start(ctx, "Fetch")
	defer span.End()
	span.SetAttributes(
		attribute.Int("window.start", window.Start),
		attribute.Int("window.length", window.Length),
	)

	if err := window.validate(); err != nil {
		span.SetStatus(codes.Error, err.Error())
		return transcript.Snapshot{}, err
	}

	if f.opts.ServiceUrl != "" {
		_, err := f.session.R().
			SetContext(ctx).
			Get(f.opts.ServiceUrl)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "failed to open service page")
			return transcript.Snapshot{}, &FetchError{Err: err}
		}
	}

	res, err := f.session.R().
		SetContext(ctx).
		SetFormData(map[string]string{
			"start":  strconv.Itoa(window.Start),
			"length": strconv.Itoa(window.Length),
		}).
		Post(f.opts.DataUrl)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to request transcript data")
		return transcript.Snapshot{}, &FetchError{Err: err}
	}
	span.SetAttributes(attribute.Int("status", res.StatusCode()))

	snap, err := transcript.Parse(res.Body())
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to parse transcript data")
		return transcript.Snapshot{}, &FetchError{Status: res.StatusCode(), Err: err}
	}

	span.SetAttributes(
		attribute.Int("records_total", snap.RecordsTotal),
		attribute.Int("records", len(snap.Records)),
	)
	return snap, nil
}
