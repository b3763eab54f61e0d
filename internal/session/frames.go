package session

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"bytemomo/moray/internal/process"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
	"github.com/google/gopacket/pcapgo"
)

// Frame counter selectors for configuration.
const (
	CounterTshark = "tshark"
	CounterPcap   = "pcap"
)

// NewFrameCounter returns the counter registered under kind.
func NewFrameCounter(kind string, r process.Runner, tool string) (FrameCounter, error) {
	switch kind {
	case "", CounterTshark:
		if tool == "" {
			tool = DefaultFramesTool
		}
		return &TsharkCounter{Runner: r, Tool: tool}, nil
	case CounterPcap:
		return PcapCounter{}, nil
	default:
		return nil, fmt.Errorf("unknown frame counter %q", kind)
	}
}

// TsharkCounter counts EAPOL frames through the protocol analyzer.
type TsharkCounter struct {
	Runner process.Runner
	Tool   string
}

func (t *TsharkCounter) Count(ctx context.Context, capFile string) (int, error) {
	out, err := t.Runner.Execute(ctx, t.Tool, "-r", capFile, "-Y", "eapol", "-T", "fields", "-e", "frame.number")
	if err != nil {
		return 0, err
	}
	n := 0
	for _, line := range strings.Split(out, "\n") {
		if strings.TrimSpace(line) != "" {
			n++
		}
	}
	return n, nil
}

// PcapCounter decodes the capture in process and counts the frames that
// carry an EAPOL layer.
type PcapCounter struct{}

func (PcapCounter) Count(ctx context.Context, capFile string) (int, error) {
	f, err := os.Open(capFile)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	r, err := pcapgo.NewReader(f)
	if err != nil {
		return 0, fmt.Errorf("read pcap header: %w", err)
	}

	opts := gopacket.DecodeOptions{Lazy: true, NoCopy: true}
	n := 0
	for {
		if err := ctx.Err(); err != nil {
			return n, err
		}
		data, _, err := r.ReadPacketData()
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			// The capture tool may be mid-write on the last record.
			return n, nil
		}
		if err != nil {
			return n, fmt.Errorf("read pcap record: %w", err)
		}
		pkt := gopacket.NewPacket(data, r.LinkType(), opts)
		if pkt.Layer(layers.LayerTypeEAPOL) != nil {
			n++
		}
	}
}
