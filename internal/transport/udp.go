// SPDX-License-Identifier: MIT
package transport

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"net"
	"sync"

	applog "github.com/JaclynCodes/Symphonic-Joules/internal/log"
)

/*
UDP packet layout (BigEndian):

	Seq            uint32   4 bytes
	Timestamp      int64    8 bytes  nanoseconds since epoch
	ChunkIndex     uint64   8 bytes
	EnergyDensity  float64  8 bytes  J/m³
	RMSPressure    float64  8 bytes  Pa
	AvgPower       float64  8 bytes  W/m²
*/

// UDPTransport sends one binary packet per metrics frame to a fixed
// target address.
type UDPTransport struct {
	conn   *net.UDPConn
	mu     sync.Mutex
	buf    bytes.Buffer
	closed bool
}

// NewUDPTransport dials the target address ("host:port") for packet
// sending.
func NewUDPTransport(targetAddress string) (*UDPTransport, error) {
	udpAddr, err := net.ResolveUDPAddr("udp", targetAddress)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve UDP target address %q: %w", targetAddress, err)
	}
	conn, err := net.DialUDP("udp", nil, udpAddr)
	if err != nil {
		return nil, fmt.Errorf("failed to dial UDP target %q: %w", targetAddress, err)
	}
	applog.Infof("Transport: UDP metrics to %s", conn.RemoteAddr())
	return &UDPTransport{conn: conn}, nil
}

// Send packs and transmits one frame. The reusable packet buffer is
// guarded by the same mutex that orders writes on the connection.
func (t *UDPTransport) Send(frame MetricsFrame) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closed {
		return fmt.Errorf("UDP transport is closed")
	}

	t.buf.Reset()
	err := binary.Write(&t.buf, binary.BigEndian, frame.Seq)
	if err == nil {
		err = binary.Write(&t.buf, binary.BigEndian, frame.Timestamp)
	}
	if err == nil {
		err = binary.Write(&t.buf, binary.BigEndian, frame.ChunkIndex)
	}
	if err == nil {
		err = binary.Write(&t.buf, binary.BigEndian, frame.EnergyDensity)
	}
	if err == nil {
		err = binary.Write(&t.buf, binary.BigEndian, frame.RMSPressure)
	}
	if err == nil {
		err = binary.Write(&t.buf, binary.BigEndian, frame.AvgPower)
	}
	if err != nil {
		return fmt.Errorf("failed to pack metrics packet: %w", err)
	}

	if _, err := t.conn.Write(t.buf.Bytes()); err != nil {
		return fmt.Errorf("failed to send metrics packet: %w", err)
	}
	return nil
}

// Close closes the underlying connection; further Sends fail.
func (t *UDPTransport) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closed {
		return nil
	}
	t.closed = true
	if t.conn != nil {
		return t.conn.Close()
	}
	return nil
}

var _ Transport = (*UDPTransport)(nil)
