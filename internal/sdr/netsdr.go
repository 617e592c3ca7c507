package sdr

import (
	"context"
	"fmt"
	"io"
	"net"
	"time"

	"github.com/brutella/dnssd"
)

// NetSDRDriver connects to a network-attached IQ streamer (an rtl_tcp-alike
// daemon) discovered via mDNS, the SDR-domain analogue of the teacher's
// KISS-over-network discovery (src/dns_sd.go uses the same library to
// advertise/discover KISS TNCs on the LAN).
type NetSDRDriver struct {
	NoGain

	ServiceName string // mDNS instance name to resolve; empty = use Host:Port directly
	ServiceType string // e.g. "_iqstream._tcp"
	Host        string
	Port        int
	Format      Format

	conn net.Conn
}

func NewNetSDRDriver(serviceType string, format Format) *NetSDRDriver {
	return &NetSDRDriver{ServiceType: serviceType, Format: format}
}

func (d *NetSDRDriver) InitConfig() error {
	if d.ServiceType == "" {
		d.ServiceType = "_iqstream._tcp"
	}
	return nil
}

func (d *NetSDRDriver) HandleOption(argv []string, idx int) (int, error) {
	if argv[idx] == "--netsdr-host" && idx+1 < len(argv) {
		d.Host = argv[idx+1]
		return 2, nil
	}
	return 0, nil
}

// Open resolves ServiceName via mDNS when Host/Port aren't already set, then
// dials the streamer.
func (d *NetSDRDriver) Open() error {
	if d.Host == "" && d.ServiceName != "" {
		if err := d.discover(); err != nil {
			return fmt.Errorf("sdr: mDNS discovery of %q: %w", d.ServiceName, err)
		}
	}
	if d.Host == "" {
		return fmt.Errorf("sdr: no host configured and no service discovered")
	}

	conn, err := net.DialTimeout("tcp", fmt.Sprintf("%s:%d", d.Host, d.Port), 5*time.Second)
	if err != nil {
		return fmt.Errorf("sdr: dial %s:%d: %w", d.Host, d.Port, err)
	}
	d.conn = conn
	return nil
}

func (d *NetSDRDriver) discover() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	found := make(chan dnssd.BrowseEntry, 1)
	addFn := func(e dnssd.BrowseEntry) {
		if e.Name == d.ServiceName {
			select {
			case found <- e:
			default:
			}
		}
	}
	go func() {
		_ = dnssd.LookupType(ctx, d.ServiceType, addFn, func(dnssd.BrowseEntry) {})
	}()

	select {
	case e := <-found:
		if len(e.IPs) == 0 {
			return fmt.Errorf("sdr: service %q resolved with no addresses", d.ServiceName)
		}
		d.Host = e.IPs[0].String()
		d.Port = e.Port
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (d *NetSDRDriver) Close() error {
	if d.conn == nil {
		return nil
	}
	err := d.conn.Close()
	d.conn = nil
	return err
}

func (d *NetSDRDriver) Run(ctx context.Context, sink Sink) error {
	stride := d.Format.BytesPerSample()
	bufSize := stride * 8192
	buf := make([]byte, bufSize)

	// pending holds bytes read but not yet forming a whole sample; a TCP
	// read can return at any byte boundary, so the remainder is carried
	// into the next read rather than dropped (which would permanently
	// desync I/Q framing for the rest of the stream).
	var pending []byte

	for {
		select {
		case <-ctx.Done():
			return nil
		default:
		}

		n, err := io.ReadAtLeast(d.conn, buf, stride)
		if n > 0 {
			pending = append(pending, buf[:n]...)
			aligned := len(pending) - (len(pending) % stride)
			if aligned > 0 {
				chunk := make([]byte, aligned)
				copy(chunk, pending[:aligned])
				sink(RawBlock{Format: d.Format, IQ: chunk, SysTimestamp: time.Now().UnixMilli()})
			}
			pending = append(pending[:0], pending[aligned:]...)
		}
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("sdr: netsdr stream read: %w", err)
		}
	}
}
