// Package serialmux reads a range scanner over a serial port and lets
// multiple clients subscribe to the scans it produces.
package serialmux

import (
	"context"
	crand "crypto/rand"
	"encoding/hex"
	"errors"
	"sync"
	"sync/atomic"

	"github.com/banshee-data/fieldwalls/internal/lidar/ld06"
	"github.com/banshee-data/fieldwalls/internal/monitoring"
)

// ScanMux fans the scans assembled from a single serial port out to any
// number of subscribers. Subscribers that are not ready when a scan is
// published miss it; the reader never blocks on them.
type ScanMux[T SerialPorter] struct {
	port    T
	decoder ld06.DecoderConfig

	subscribers  map[string]chan ld06.Scan
	subscriberMu sync.Mutex
	closing      bool
	closingMu    sync.Mutex

	stats Stats
}

// Stats counts stream events since the mux was created.
type Stats struct {
	Packets        atomic.Uint64
	ChecksumErrors atomic.Uint64
	Realignments   atomic.Uint64
	Scans          atomic.Uint64
	Dropped        atomic.Uint64 // scans a subscriber was not ready for
}

// ScanMuxInterface defines the interface for the ScanMux type.
type ScanMuxInterface interface {
	// Subscribe creates a new channel receiving every scan. The ID is used
	// to unsubscribe.
	Subscribe() (string, <-chan ld06.Scan)
	// Unsubscribe removes a channel from the list of subscribers and closes it.
	Unsubscribe(string)
	// Monitor reads packets until ctx is cancelled or the port fails.
	Monitor(context.Context) error
	// Close closes all subscribed channels and the serial port.
	Close() error
}

// NewScanMux creates a ScanMux reading from port.
func NewScanMux[T SerialPorter](port T, decoder ld06.DecoderConfig) *ScanMux[T] {
	return &ScanMux[T]{
		port:        port,
		decoder:     decoder,
		subscribers: make(map[string]chan ld06.Scan),
	}
}

// randomID generates a random channel ID (8 byte random hex encoded value)
func randomID() string {
	b := make([]byte, 8)
	_, _ = crand.Read(b)
	return hex.EncodeToString(b)
}

// Subscribe registers a new subscriber. The channel holds at most one
// pending scan. After Close a closed channel is returned.
func (s *ScanMux[T]) Subscribe() (string, <-chan ld06.Scan) {
	id := randomID()
	ch := make(chan ld06.Scan, 1)

	s.closingMu.Lock()
	closing := s.closing
	s.closingMu.Unlock()
	if closing {
		close(ch)
		return id, ch
	}

	s.subscriberMu.Lock()
	defer s.subscriberMu.Unlock()
	s.subscribers[id] = ch
	return id, ch
}

// Unsubscribe removes a subscriber from the mux.
func (s *ScanMux[T]) Unsubscribe(id string) {
	s.subscriberMu.Lock()
	defer s.subscriberMu.Unlock()
	if ch, ok := s.subscribers[id]; ok {
		close(ch)
		delete(s.subscribers, id)
	}
}

// Stats returns the live counters.
func (s *ScanMux[T]) Stats() *Stats { return &s.stats }

// Monitor reads packets from the port, assembles revolutions and publishes
// each completed scan. Corrupt packets and lost alignment are counted and
// skipped. It returns nil when the port reaches EOF or the mux is closed.
func (s *ScanMux[T]) Monitor(ctx context.Context) error {
	scanChan := make(chan ld06.Scan)
	readErrChan := make(chan error, 1)

	// The blocking reads happen in their own goroutine so the outer loop
	// keeps watching ctx.
	go func() {
		defer close(scanChan)
		reader := ld06.NewFrameReader(s.port)
		assembler := ld06.NewScanAssembler(s.decoder)
		resyncs := 0
		for {
			p, err := reader.Next()
			if n := reader.Resyncs(); n != resyncs {
				s.stats.Realignments.Add(uint64(n - resyncs))
				resyncs = n
			}
			switch {
			case err == nil:
			case errors.Is(err, ld06.ErrChecksum):
				s.stats.ChecksumErrors.Add(1)
				monitoring.Debugf("serialmux: %v", err)
				continue
			case errors.Is(err, ld06.ErrStartNotFound):
				monitoring.Debugf("serialmux: %v", err)
				continue
			default:
				select {
				case readErrChan <- err:
				case <-ctx.Done():
				}
				return
			}
			s.stats.Packets.Add(1)

			scan, ok := assembler.Add(p)
			if !ok {
				continue
			}
			select {
			case scanChan <- scan:
			case <-ctx.Done():
				return
			}
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case err := <-readErrChan:
			if s.isClosing() || isEOF(err) {
				return nil
			}
			return err

		case scan, ok := <-scanChan:
			if !ok {
				select {
				case err := <-readErrChan:
					if !s.isClosing() && !isEOF(err) {
						return err
					}
				default:
				}
				return nil
			}
			if s.isClosing() {
				return nil
			}
			s.stats.Scans.Add(1)
			s.publish(scan)
		}
	}
}

func (s *ScanMux[T]) publish(scan ld06.Scan) {
	s.subscriberMu.Lock()
	defer s.subscriberMu.Unlock()
	for _, ch := range s.subscribers {
		select {
		case ch <- scan:
		default:
			// if the channel is full skip so as not to block the outer loop
			s.stats.Dropped.Add(1)
		}
	}
}

func (s *ScanMux[T]) isClosing() bool {
	s.closingMu.Lock()
	defer s.closingMu.Unlock()
	return s.closing
}

// Close closes every subscriber channel and the serial port.
func (s *ScanMux[T]) Close() error {
	s.closingMu.Lock()
	if s.closing {
		s.closingMu.Unlock()
		return nil
	}
	s.closing = true
	s.closingMu.Unlock()

	s.subscriberMu.Lock()
	for id, ch := range s.subscribers {
		close(ch)
		delete(s.subscribers, id)
	}
	s.subscriberMu.Unlock()
	return s.port.Close()
}
