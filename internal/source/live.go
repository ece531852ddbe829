// SPDX-License-Identifier: MIT
package source

import (
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/gordonklaus/portaudio"

	"github.com/JaclynCodes/Symphonic-Joules/internal/signal"
)

// Initialize sets up the PortAudio subsystem. Must be called once
// before opening any LiveSource; pair with Terminate at shutdown.
func Initialize() error {
	return portaudio.Initialize()
}

// Terminate tears down the PortAudio subsystem.
func Terminate() error {
	return portaudio.Terminate()
}

// DeviceInfo describes one capture device for listing.
type DeviceInfo struct {
	Index      int
	Name       string
	Channels   int
	SampleRate float64
	Default    bool
}

// ListInputDevices enumerates devices with at least one input channel.
func ListInputDevices() ([]DeviceInfo, error) {
	devices, err := portaudio.Devices()
	if err != nil {
		return nil, fmt.Errorf("failed to enumerate audio devices: %w", err)
	}
	defaultDev, _ := portaudio.DefaultInputDevice()

	var out []DeviceInfo
	for i, dev := range devices {
		if dev.MaxInputChannels == 0 {
			continue
		}
		out = append(out, DeviceInfo{
			Index:      i,
			Name:       dev.Name,
			Channels:   dev.MaxInputChannels,
			SampleRate: dev.DefaultSampleRate,
			Default:    defaultDev != nil && dev.Name == defaultDev.Name,
		})
	}
	return out, nil
}

// LiveSource adapts PortAudio's push callback to the pull-based
// SampleSource contract. The capture callback normalizes frames to
// float64 and hands them to NextChunk through a bounded channel; if the
// consumer falls behind long enough to fill the channel, frames are
// dropped oldest-first and the drop count is recorded.
type LiveSource struct {
	id         string
	sampleRate float64

	stream *portaudio.Stream
	frames chan []float64

	index  uint64
	offset uint64

	mu      sync.Mutex
	dropped uint64
	closed  bool

	maxChunks uint64 // Stop after this many chunks; 0 means run until Close.
}

// LiveConfig configures a capture source.
type LiveConfig struct {
	DeviceIndex     int // -1 selects the system default input device.
	SampleRate      float64
	FramesPerBuffer int
	Duration        time.Duration // Maximum capture length; 0 means unbounded.
}

// NewLiveSource opens a mono capture stream on the selected device and
// starts it. The returned source yields chunks of FramesPerBuffer
// samples.
func NewLiveSource(cfg LiveConfig) (*LiveSource, error) {
	if cfg.SampleRate <= 0 {
		return nil, fmt.Errorf("sample rate must be positive, got %f", cfg.SampleRate)
	}
	if cfg.FramesPerBuffer <= 0 {
		return nil, fmt.Errorf("frames per buffer must be positive, got %d", cfg.FramesPerBuffer)
	}

	device, err := inputDevice(cfg.DeviceIndex)
	if err != nil {
		return nil, err
	}

	s := &LiveSource{
		id:         "live:" + device.Name,
		sampleRate: cfg.SampleRate,
		frames:     make(chan []float64, 32),
	}
	if cfg.Duration > 0 {
		chunkSpan := float64(cfg.FramesPerBuffer) / cfg.SampleRate
		s.maxChunks = uint64(cfg.Duration.Seconds()/chunkSpan) + 1
	}

	params := portaudio.StreamParameters{
		Input: portaudio.StreamDeviceParameters{
			Channels: 1,
			Device:   device,
			Latency:  device.DefaultHighInputLatency,
		},
		FramesPerBuffer: cfg.FramesPerBuffer,
		SampleRate:      cfg.SampleRate,
	}

	stream, err := portaudio.OpenStream(params, s.capture)
	if err != nil {
		return nil, fmt.Errorf("failed to open capture stream: %w", err)
	}
	s.stream = stream

	if err := stream.Start(); err != nil {
		stream.Close()
		return nil, fmt.Errorf("failed to start capture stream: %w", err)
	}
	return s, nil
}

// capture runs on PortAudio's callback thread. It must not block, so a
// full channel costs the oldest pending frame rather than stalling the
// audio thread.
func (s *LiveSource) capture(in []int32) {
	const normFactor = 1.0 / float64(0x80000000)
	frame := make([]float64, len(in))
	for i, v := range in {
		frame[i] = float64(v) * normFactor
	}

	select {
	case s.frames <- frame:
	default:
		select {
		case <-s.frames:
			s.mu.Lock()
			s.dropped++
			s.mu.Unlock()
		default:
		}
		select {
		case s.frames <- frame:
		default:
		}
	}
}

// NextChunk blocks until the next captured frame is available.
func (s *LiveSource) NextChunk() (*signal.SampleChunk, error) {
	if s.maxChunks > 0 && s.index >= s.maxChunks {
		return nil, io.EOF
	}
	frame, ok := <-s.frames
	if !ok {
		return nil, io.EOF
	}
	chunk := &signal.SampleChunk{
		SourceID:   s.id,
		Index:      s.index,
		Offset:     s.offset,
		SampleRate: s.sampleRate,
		Samples:    frame,
	}
	s.index++
	s.offset += uint64(len(frame))
	return chunk, nil
}

func (s *LiveSource) ID() string          { return s.id }
func (s *LiveSource) SampleRate() float64 { return s.sampleRate }
func (s *LiveSource) ChannelCount() int   { return 1 }

// Dropped reports frames lost to consumer backpressure.
func (s *LiveSource) Dropped() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dropped
}

// Close stops the capture stream and unblocks any pending NextChunk.
func (s *LiveSource) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	s.mu.Unlock()

	var err error
	if s.stream != nil {
		if stopErr := s.stream.Stop(); stopErr != nil {
			err = stopErr
		}
		if closeErr := s.stream.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
	}
	close(s.frames)
	return err
}

var _ SampleSource = (*LiveSource)(nil)

func inputDevice(index int) (*portaudio.DeviceInfo, error) {
	if index < 0 {
		device, err := portaudio.DefaultInputDevice()
		if err != nil {
			return nil, fmt.Errorf("no default input device: %w", err)
		}
		return device, nil
	}
	devices, err := portaudio.Devices()
	if err != nil {
		return nil, fmt.Errorf("failed to enumerate audio devices: %w", err)
	}
	if index >= len(devices) {
		return nil, fmt.Errorf("device index %d out of range (%d devices)", index, len(devices))
	}
	if devices[index].MaxInputChannels == 0 {
		return nil, fmt.Errorf("device %d (%s) has no input channels", index, devices[index].Name)
	}
	return devices[index], nil
}
