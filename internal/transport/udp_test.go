// SPDX-License-Identifier: MIT
package transport

import (
	"encoding/binary"
	"math"
	"net"
	"testing"
	"time"
)

const packetSize = 44 // 4 + 8 + 8 + 3*8

func TestUDPTransportPacketLayout(t *testing.T) {
	listener, err := net.ListenUDP("udp", &net.UDPAddr{IP: net.IPv4(127, 0, 0, 1)})
	if err != nil {
		t.Fatalf("ListenUDP failed: %v", err)
	}
	defer listener.Close()

	tr, err := NewUDPTransport(listener.LocalAddr().String())
	if err != nil {
		t.Fatalf("NewUDPTransport failed: %v", err)
	}
	defer tr.Close()

	frame := MetricsFrame{
		Seq:           7,
		Timestamp:     1234567890,
		SourceID:      "tone.wav",
		ChunkIndex:    42,
		EnergyDensity: 3.5e-9,
		RMSPressure:   0.02,
		AvgPower:      1.2e-6,
	}
	if err := tr.Send(frame); err != nil {
		t.Fatalf("Send failed: %v", err)
	}

	buf := make([]byte, 256)
	listener.SetReadDeadline(time.Now().Add(2 * time.Second))
	n, _, err := listener.ReadFromUDP(buf)
	if err != nil {
		t.Fatalf("packet not received: %v", err)
	}
	if n != packetSize {
		t.Fatalf("packet is %d bytes, want %d", n, packetSize)
	}

	if seq := binary.BigEndian.Uint32(buf[0:4]); seq != 7 {
		t.Errorf("seq = %d, want 7", seq)
	}
	if ts := int64(binary.BigEndian.Uint64(buf[4:12])); ts != 1234567890 {
		t.Errorf("timestamp = %d, want 1234567890", ts)
	}
	if idx := binary.BigEndian.Uint64(buf[12:20]); idx != 42 {
		t.Errorf("chunk index = %d, want 42", idx)
	}
	if d := math.Float64frombits(binary.BigEndian.Uint64(buf[20:28])); d != 3.5e-9 {
		t.Errorf("energy density = %g, want 3.5e-9", d)
	}
	if p := math.Float64frombits(binary.BigEndian.Uint64(buf[28:36])); p != 0.02 {
		t.Errorf("rms pressure = %g, want 0.02", p)
	}
	if w := math.Float64frombits(binary.BigEndian.Uint64(buf[36:44])); w != 1.2e-6 {
		t.Errorf("avg power = %g, want 1.2e-6", w)
	}
}

func TestUDPTransportSendAfterClose(t *testing.T) {
	listener, err := net.ListenUDP("udp", &net.UDPAddr{IP: net.IPv4(127, 0, 0, 1)})
	if err != nil {
		t.Fatalf("ListenUDP failed: %v", err)
	}
	defer listener.Close()

	tr, err := NewUDPTransport(listener.LocalAddr().String())
	if err != nil {
		t.Fatalf("NewUDPTransport failed: %v", err)
	}
	if err := tr.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	if err := tr.Close(); err != nil {
		t.Errorf("second Close failed: %v", err)
	}
	if err := tr.Send(MetricsFrame{}); err == nil {
		t.Error("Send succeeded on closed transport")
	}
}

func TestMultiFansOut(t *testing.T) {
	var a, b recorder
	multi := Multi{&a, &b}

	if err := multi.Send(MetricsFrame{Seq: 1}); err != nil {
		t.Fatalf("Send failed: %v", err)
	}
	if a.sent != 1 || b.sent != 1 {
		t.Errorf("fan-out sent (%d, %d) frames, want (1, 1)", a.sent, b.sent)
	}

	if err := multi.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	if !a.closed || !b.closed {
		t.Error("Close did not reach all transports")
	}
}

type recorder struct {
	sent   int
	closed bool
}

func (r *recorder) Send(MetricsFrame) error { r.sent++; return nil }
func (r *recorder) Close() error            { r.closed = true; return nil }
