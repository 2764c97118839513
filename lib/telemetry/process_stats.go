package telemetry

import (
	"context"
	"os"

	"github.com/shirou/gopsutil/v4/process"
	"go.opentelemetry.io/otel/metric"
)

// InstrumentProcessStats reports the resident memory and cpu usage of this
// process, sampled whenever the meter provider collects.
func InstrumentProcessStats() (metric.Registration, error) {
	proc, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		return nil, err
	}

	meter := Meter("gradewatch.process")
	rss, err := meter.Int64ObservableGauge("process.memory.rss", metric.WithUnit("By"))
	if err != nil {
		return nil, err
	}
	cpu, err := meter.Float64ObservableGauge("process.cpu.percent", metric.WithUnit("%"))
	if err != nil {
		return nil, err
	}

	return meter.RegisterCallback(func(ctx context.Context, o metric.Observer) error {
		memory, err := proc.MemoryInfoWithContext(ctx)
		if err != nil {
			return err
		}
		o.ObserveInt64(rss, int64(memory.RSS))

		percent, err := proc.PercentWithContext(ctx, 0)
		if err != nil {
			return err
		}
		o.ObserveFloat64(cpu, percent)
		return nil
	}, rss, cpu)
}
