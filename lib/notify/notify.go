package notify

import (
	"context"
	"errors"
	"fmt"
	"gradewatch/lib/telemetry"
	"log/slog"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
)

var tracer = telemetry.Tracer("gradewatch.lib.notify")
var meter = telemetry.Meter("gradewatch.lib.notify")
var pushCounter, _ = meter.Int64Counter("notify.pushes")
var pushFailureCounter, _ = meter.Int64Counter("notify.push_failures")

var ErrUnknownChannel = errors.New("push channel does not exist")

// PushError is returned when a relay answers with a non-success status.
type PushError struct {
	Channel string
	Status  int
	Body    string
}

func (e *PushError) Error() string {
	return fmt.Sprintf("push through %s failed with status %d: %s", e.Channel, e.Status, e.Body)
}

// Channel delivers a piece of text to the user.
type Channel interface {
	Name() string
	Send(ctx context.Context, text string) error
}

// Dispatcher sends through the channel chosen by index.
type Dispatcher struct {
	channels []Channel
	selected int
}

func NewDispatcher(selected int, channels ...Channel) Dispatcher {
	return Dispatcher{channels: channels, selected: selected}
}

// Channel returns the selected channel or ErrUnknownChannel.
func (d Dispatcher) Channel() (Channel, error) {
	if d.selected < 0 || d.selected >= len(d.channels) {
		return nil, fmt.Errorf("%w: index %d, %d channels available", ErrUnknownChannel, d.selected, len(d.channels))
	}
	return d.channels[d.selected], nil
}

// Dispatch sends `text` through the selected channel. empty text means there
// is nothing to report and nothing is sent.
func (d Dispatcher) Dispatch(ctx context.Context, text string) error {
	if text == "" {
		return nil
	}

	ctx, span := tracer.Start(ctx, "Dispatch")
	defer span.End()

	channel, err := d.Channel()
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return err
	}
	span.SetAttributes(attribute.String("channel", channel.Name()))
	attrs := attribute.String("channel", channel.Name())

	err = channel.Send(ctx, text)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "push failed")
		pushFailureCounter.Add(ctx, 1, metricAttrs(attrs))
		return err
	}
	pushCounter.Add(ctx, 1, metricAttrs(attrs))
	slog.InfoContext(ctx, "pushed notification", "channel", channel.Name())
	return nil
}

func metricAttrs(attrs ...attribute.KeyValue) metric.AddOption {
	return metric.WithAttributes(attrs...)
}
