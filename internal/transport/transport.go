// SPDX-License-Identifier: MIT
/*
Package transport publishes per-chunk energy metrics to external
viewers over WebSocket (JSON) or UDP (binary packets). Publishing is
fire-and-forget: a slow or absent consumer never stalls or fails the
analysis pipeline.
*/
package transport

import "time"

// MetricsFrame is the unit published per processed chunk.
type MetricsFrame struct {
	Seq           uint32        `json:"seq"`
	Timestamp     int64         `json:"timestamp"` // Nanoseconds since epoch.
	SourceID      string        `json:"source_id"`
	ChunkIndex    uint64        `json:"chunk_index"`
	EnergyDensity float64       `json:"energy_density"`
	RMSPressure   float64       `json:"rms_pressure"`
	AvgPower      float64       `json:"avg_power"`
	Start         time.Duration `json:"start"`
	End           time.Duration `json:"end"`
}

// Transport sends metrics frames to some destination. Implementations
// must be safe for concurrent use.
type Transport interface {
	Send(frame MetricsFrame) error
	Close() error
}

// Multi fans a frame out to several transports; Send returns the first
// error but still attempts every transport.
type Multi []Transport

func (m Multi) Send(frame MetricsFrame) error {
	var first error
	for _, t := range m {
		if err := t.Send(frame); err != nil && first == nil {
			first = err
		}
	}
	return first
}

func (m Multi) Close() error {
	var first error
	for _, t := range m {
		if err := t.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}
