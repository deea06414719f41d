// Package cleanup sweeps stale temporary audio files. Downloads are removed
// by the transcriber on every exit path already; the sweeper is the backstop
// for files orphaned by a crash or kill.
package cleanup

import (
	"log"
	"os"
	"path/filepath"
	"time"
)

// Sweeper periodically deletes old files from the temp directory.
type Sweeper struct {
	tempDir  string
	interval time.Duration
	maxAge   time.Duration
	stopChan chan struct{}
}

// NewSweeper creates a sweeper for tempDir.
func NewSweeper(tempDir string, interval, maxAge time.Duration) *Sweeper {
	return &Sweeper{
		tempDir:  tempDir,
		interval: interval,
		maxAge:   maxAge,
		stopChan: make(chan struct{}),
	}
}

// Start sweeps once immediately, then on every interval tick until Stop.
func (s *Sweeper) Start() {
	s.sweep()

	ticker := time.NewTicker(s.interval)
	go func() {
		for {
			select {
			case <-ticker.C:
				s.sweep()
			case <-s.stopChan:
				ticker.Stop()
				return
			}
		}
	}()

	log.Printf("Temp sweeper started (interval: %s, max age: %s)", s.interval, s.maxAge)
}

// Stop halts the periodic sweep.
func (s *Sweeper) Stop() {
	close(s.stopChan)
	log.Println("Temp sweeper stopped")
}

func (s *Sweeper) sweep() {
	cutoff := time.Now().Add(-s.maxAge)
	var deleted int

	entries, err := os.ReadDir(s.tempDir)
	if err != nil {
		log.Printf("Temp sweep failed to read %s: %v", s.tempDir, err)
		return
	}

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		if info.ModTime().After(cutoff) {
			continue
		}
		path := filepath.Join(s.tempDir, entry.Name())
		if err := os.Remove(path); err != nil {
			log.Printf("Failed to delete stale temp file %s: %v", path, err)
			continue
		}
		deleted++
	}

	if deleted > 0 {
		log.Printf("Temp sweep removed %d stale files", deleted)
	}
}

// EnsureTempDirExists creates the temp directory if it doesn't exist.
func EnsureTempDirExists(tempDir string) error {
	if err := os.MkdirAll(tempDir, 0755); err != nil {
		return err
	}
	log.Printf("Temp directory ready: %s", tempDir)
	return nil
}
