package sdr

import (
	"context"
	"fmt"
	"time"

	"github.com/gordonklaus/portaudio"
	"github.com/jochenvg/go-udev"
)

// SoundcardDriver captures a single-channel S16 stream from a PC sound
// device via PortAudio — the direct analogue of the teacher's
// AUDIO_IN_TYPE_SOUNDCARD path, generalized from Dire Wolf's AFSK/9600
// audio intake to this receiver's magnitude pipeline. Many cheap SDR
// front-ends (and every FM-discriminator-tap dongle) present themselves to
// the OS as exactly this: a sound card input.
type SoundcardDriver struct {
	DeviceName    string // empty = system default input device
	SampleRate    float64
	FramesPerRead int

	// Gain delegates gain control to an external backend (CAT-controlled
	// attenuator, GPIO bypass relay). Nil means this driver has no gain
	// control at all, per spec 4.F.
	Gain GainBackend

	stream *portaudio.Stream
	buf    []int16
}

// NewSoundcardDriver configures capture at sampleRate Hz, framesPerRead
// frames per Sink delivery. gain may be nil for a driver with no gain
// control.
func NewSoundcardDriver(deviceName string, sampleRate float64, framesPerRead int, gain GainBackend) *SoundcardDriver {
	return &SoundcardDriver{DeviceName: deviceName, SampleRate: sampleRate, FramesPerRead: framesPerRead, Gain: gain}
}

func (d *SoundcardDriver) CurrentGainStep() int {
	if d.Gain == nil {
		return 0
	}
	return d.Gain.CurrentGainStep()
}

func (d *SoundcardDriver) MaxGainStep() int {
	if d.Gain == nil {
		return -1
	}
	return d.Gain.MaxGainStep()
}

func (d *SoundcardDriver) GainDB(step int) float64 {
	if d.Gain == nil {
		return 0
	}
	return d.Gain.GainDB(step)
}

func (d *SoundcardDriver) SetGainStep(step int) int {
	if d.Gain == nil {
		return step
	}
	return d.Gain.SetGainStep(step)
}

func (d *SoundcardDriver) InitConfig() error {
	if d.SampleRate <= 0 {
		d.SampleRate = 2400000 // 2.4 MHz, a common conforming rate per spec §9
	}
	if d.FramesPerRead <= 0 {
		d.FramesPerRead = 16384
	}
	return nil
}

func (d *SoundcardDriver) HandleOption(argv []string, idx int) (int, error) {
	if argv[idx] == "--soundcard-device" && idx+1 < len(argv) {
		d.DeviceName = argv[idx+1]
		return 2, nil
	}
	return 0, nil
}

// Open enumerates capture devices via udev (paralleling the teacher's
// udev-based device discovery) purely for diagnostic purposes, then opens
// the requested (or default) PortAudio input stream.
func (d *SoundcardDriver) Open() error {
	if err := portaudio.Initialize(); err != nil {
		return fmt.Errorf("sdr: portaudio init: %w", err)
	}

	if dev, err := d.resolveDevice(); err == nil && dev != nil {
		params := portaudio.StreamParameters{
			Input: portaudio.StreamDeviceParameters{
				Device:   dev,
				Channels: 1,
				Latency:  dev.DefaultLowInputLatency,
			},
			SampleRate:      d.SampleRate,
			FramesPerBuffer: d.FramesPerRead,
		}
		d.buf = make([]int16, d.FramesPerRead)
		stream, err := portaudio.OpenStream(params, d.buf)
		if err != nil {
			portaudio.Terminate()
			return fmt.Errorf("sdr: portaudio open stream: %w", err)
		}
		d.stream = stream
	} else {
		d.buf = make([]int16, d.FramesPerRead)
		stream, err := portaudio.OpenDefaultStream(1, 0, d.SampleRate, d.FramesPerRead, d.buf)
		if err != nil {
			portaudio.Terminate()
			return fmt.Errorf("sdr: portaudio open default stream: %w", err)
		}
		d.stream = stream
	}

	return d.stream.Start()
}

// resolveDevice looks up DeviceName among PortAudio's input devices by
// exact name. It also walks udev's "sound" nodes looking for a matching
// "ID_MODEL" property, but that match does not affect the result: a name
// that matches only a udev ID_MODEL, and no PortAudio device label, is
// reported as not found.
func (d *SoundcardDriver) resolveDevice() (*portaudio.DeviceInfo, error) {
	if d.DeviceName == "" {
		return nil, nil
	}

	u := udev.Udev{}
	enum := u.NewEnumerate()
	enum.AddMatchSubsystem("sound")
	devices, _ := enum.Devices()
	for _, ud := range devices {
		if ud.PropertyValue("ID_MODEL") == d.DeviceName {
			break // found a matching capture node; PortAudio lookup below still authoritative
		}
	}

	devs, err := portaudio.Devices()
	if err != nil {
		return nil, err
	}
	for _, dev := range devs {
		if dev.Name == d.DeviceName && dev.MaxInputChannels > 0 {
			return dev, nil
		}
	}
	return nil, fmt.Errorf("sdr: no input device named %q", d.DeviceName)
}

func (d *SoundcardDriver) Close() error {
	var err error
	if d.stream != nil {
		err = d.stream.Close()
		d.stream = nil
	}
	portaudio.Terminate()
	return err
}

func (d *SoundcardDriver) Run(ctx context.Context, sink Sink) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		default:
		}

		if err := d.stream.Read(); err != nil {
			return fmt.Errorf("sdr: portaudio read: %w", err)
		}

		raw := make([]byte, len(d.buf)*2)
		for i, s := range d.buf {
			raw[2*i] = byte(uint16(s))
			raw[2*i+1] = byte(uint16(s) >> 8)
		}
		sink(RawBlock{Format: FormatS16, IQ: raw, SysTimestamp: time.Now().UnixMilli()})
	}
}
