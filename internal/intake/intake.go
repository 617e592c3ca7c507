// Package intake implements the sample-intake and magnitude-conversion
// pipeline of spec 4.A/4.C/4.E flow: the producer side that turns an
// sdr.Driver's raw IQ blocks into magnitude buffers in a fifo.Fifo, with
// exact per-sample timestamping, overlap handling, and dropped/discontinuity
// propagation (spec §3, §5, §7).
package intake

import (
	"context"
	"time"

	"github.com/charmbracelet/log"

	"github.com/adsbcore/modescore/internal/dsp"
	"github.com/adsbcore/modescore/internal/fifo"
	"github.com/adsbcore/modescore/internal/sdr"
)

// AcquireTimeout bounds how long the producer waits for a free buffer
// before treating the FIFO as full for this block (spec 4.E's "fail-fast"
// semantics apply above this, since the producer must not stall the SDR
// driver's real-time stream indefinitely).
const AcquireTimeout = 50 * time.Millisecond

// Producer is the producer-thread half of spec §5's concurrency model: it
// owns the sdr.Driver and calls DSP kernels to convert each raw block into
// a magnitude buffer obtained from a fifo.Fifo, then enqueues it.
type Producer struct {
	Kernels *dsp.Kernels
	Fifo    *fifo.Fifo
	Driver  sdr.Driver
	Log     *log.Logger

	nextTimestamp uint64
}

// NewProducer wires k, f and d together. log may be nil, in which case a
// default logger is used.
func NewProducer(k *dsp.Kernels, f *fifo.Fifo, d sdr.Driver, logger *log.Logger) *Producer {
	if logger == nil {
		logger = log.Default()
	}
	return &Producer{Kernels: k, Fifo: f, Driver: d, Log: logger}
}

// Run opens the driver, streams it until ctx is cancelled or it returns an
// I/O error (which is logged and returned, per spec §7's "driver I/O errors
// during streaming: logged, stream terminated"), and closes it.
func (p *Producer) Run(ctx context.Context) error {
	if err := p.Driver.Open(); err != nil {
		return err
	}
	defer p.Driver.Close()

	err := p.Driver.Run(ctx, p.handleRawBlock)
	if err != nil {
		p.Log.Error("sdr driver stopped with error", "err", err)
	}
	return err
}

// handleRawBlock converts one raw block and publishes it, or records it as
// dropped if the FIFO has no free buffer within AcquireTimeout (spec §7's
// "buffer exhaustion: silent at per-buffer level").
func (p *Producer) handleRawBlock(rb sdr.RawBlock) {
	stride := rb.Format.BytesPerSample()
	if stride <= 0 {
		stride = 1
	}
	samplesIn := len(rb.IQ) / stride

	buf, err := p.Fifo.Acquire(AcquireTimeout)
	if err != nil {
		p.Fifo.NoteDropped(uint64(samplesIn))
		return
	}

	buf.SampleTimestamp = p.nextTimestamp
	buf.SysTimestamp = rb.SysTimestamp
	if buf.Dropped > 0 {
		// The drop happened before this buffer's first fresh sample, so
		// the clock must jump by that many positions too.
		p.nextTimestamp += buf.Dropped
		buf.SampleTimestamp = p.nextTimestamp
	}
	if rb.Overrun {
		buf.Flags |= fifo.Discontinuous
	}

	freshCap := len(buf.Data) - buf.Overlap
	freshDest := buf.Data[buf.Overlap:]
	if samplesIn > freshCap {
		samplesIn = freshCap
	}

	if rb.Format == sdr.FormatUC8 {
		meanLevel, meanPower := p.Kernels.MagnitudePower(rb.IQ[:samplesIn*stride], freshDest[:samplesIn])
		buf.MeanLevel, buf.MeanPower = meanLevel, meanPower
	} else {
		p.Kernels.Magnitude(magnitudeOp(rb.Format), rb.IQ[:samplesIn*stride], freshDest[:samplesIn])
		buf.MeanLevel, buf.MeanPower = p.Kernels.MeanPower(freshDest[:samplesIn])
	}

	buf.ValidLength = buf.Overlap + samplesIn
	p.nextTimestamp += uint64(samplesIn)

	p.Fifo.Enqueue(buf)
}

// magnitudeOp maps an sdr.Format to the dsp package's operation-name
// constant for its magnitude kernel.
func magnitudeOp(f sdr.Format) string {
	switch f {
	case sdr.FormatSC16:
		return dsp.OpMagnitudeSC16
	case sdr.FormatSC16Q11:
		return dsp.OpMagnitudeSC16Q11
	case sdr.FormatS16:
		return dsp.OpMagnitudeS16
	case sdr.FormatU16O12:
		return dsp.OpMagnitudeU16O12
	default:
		return dsp.OpMagnitudeUC8
	}
}
