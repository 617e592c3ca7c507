// Command modescore runs the Mode S adaptive-gain intake pipeline: it opens
// an SDR driver, streams raw IQ through the DSP kernel registry into a
// bounded FIFO, and feeds an adaptive gain controller from the magnitude
// stream — spec §5's end-to-end wiring.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/charmbracelet/log"
	"github.com/lestrrat-go/strftime"
	"github.com/spf13/pflag"

	"github.com/adsbcore/modescore/internal/adaptive"
	"github.com/adsbcore/modescore/internal/config"
	"github.com/adsbcore/modescore/internal/dsp"
	"github.com/adsbcore/modescore/internal/fifo"
	"github.com/adsbcore/modescore/internal/intake"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	var configPath = pflag.StringP("config", "c", "", "Path to modescore.yaml. Defaults to a search list if omitted.")
	var driverName = pflag.String("driver", "", "Override the configured driver: file, soundcard, netsdr, external.")
	var devicePath = pflag.String("device", "", "Override the configured device path/host:port/command.")
	var wisdomFile = pflag.String("wisdom", "", "Override the configured kernel wisdom file path.")
	var sampleRate = pflag.Int("sample-rate", 0, "Override the configured sample rate in Hz.")
	var help = pflag.BoolP("help", "h", false, "Display help text.")
	pflag.Parse()

	if *help {
		pflag.Usage()
		return nil
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		return err
	}
	if *driverName != "" {
		cfg.Driver = *driverName
	}
	if *devicePath != "" {
		cfg.DevicePath = *devicePath
	}
	if *wisdomFile != "" {
		cfg.WisdomFile = *wisdomFile
	}
	if *sampleRate != 0 {
		cfg.SampleRate = *sampleRate
		cfg.Adaptive.SampleRate = *sampleRate
	}
	cfg.Adaptive.SampleRate = cfg.SampleRate

	logger := log.NewWithOptions(os.Stderr, log.Options{ReportTimestamp: true})

	kernels := dsp.NewKernels()
	if cfg.WisdomFile != "" {
		if err := dsp.LoadWisdom(kernels, cfg.WisdomFile); err != nil {
			logger.Warn("could not load kernel wisdom file", "path", cfg.WisdomFile, "err", err)
		}
	}

	driver, err := buildDriver(cfg)
	if err != nil {
		return err
	}
	if err := driver.InitConfig(); err != nil {
		return fmt.Errorf("modescore: driver init: %w", err)
	}

	// Bounded ring of ~1s blocks; overlap sized to cover the longest
	// boxcar/preamble correlation window this receiver runs (spec 4.E).
	const fifoDepth = 8
	const overlap = 1200
	f := fifo.New(fifoDepth, cfg.Adaptive.BlockSize()+overlap, overlap)

	producer := intake.NewProducer(kernels, f, driver, logger)

	controller, err := adaptive.NewController(cfg.Adaptive, driver, logger)
	if err != nil {
		return fmt.Errorf("modescore: adaptive controller: %w", err)
	}
	controller.OnGainChange = gainChangeLogger(logger, cfg.TimestampFormat)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	producerErr := make(chan error, 1)
	go func() { producerErr <- producer.Run(ctx) }()

	consumeLoop(ctx, f, controller, logger)

	f.Halt()
	return <-producerErr
}

// consumeLoop is the consumer-thread half of spec §5's concurrency model:
// it dequeues magnitude buffers and feeds the adaptive controller. Message
// demodulation itself is out of this module's scope (spec Non-goals); every
// buffer is fed to the controller as entirely undecoded, which is the
// correct behavior for a receiver with decoding disabled or not yet wired.
func consumeLoop(ctx context.Context, f *fifo.Fifo, controller *adaptive.Controller, logger *log.Logger) {
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}
		buf, err := f.Dequeue(pollTimeout)
		if err != nil {
			continue
		}
		controller.FeedBuffer(buf, nil)
		f.Release(buf)
	}
}

const pollTimeout = 200 * time.Millisecond

// gainChangeLogger returns the OnGainChange callback wired into the
// adaptive controller. When timestampFormat is set (the timestamp_format
// config option, mirroring the teacher's "-T" kissutil flag), each log record
// additionally carries a "ts" field holding that strftime-formatted time.
func gainChangeLogger(logger *log.Logger, timestampFormat string) func(adaptive.GainChange) {
	return func(change adaptive.GainChange) {
		fields := []interface{}{
			"old_step", change.OldStep, "new_step", change.NewStep,
			"old_db", change.OldDB, "new_db", change.NewDB, "reason", change.Reason,
		}
		if timestampFormat != "" {
			if ts, err := strftime.Format(timestampFormat, time.Now()); err == nil {
				fields = append(fields, "ts", ts)
			} else {
				logger.Warn("invalid timestamp-format, ignoring", "format", timestampFormat, "err", err)
			}
		}
		logger.Info("gain change", fields...)
	}
}
