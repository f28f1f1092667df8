package app

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/ayusman/abhinaya/internal/skeleton"
)

// ErrNoSource is returned by Run when the App was created without a source.
var ErrNoSource = errors.New("no frame source configured")

// Run polls the source until ctx is cancelled or a finite source runs out
// of frames. It ticks at the idle rate while nobody is in view and at the
// active rate otherwise, falling back to idle after the idle timeout.
func (a *App) Run(ctx context.Context) error {
	if a.source == nil {
		return ErrNoSource
	}
	if !a.source.IsOpen() {
		if err := a.source.Open(); err != nil {
			return err
		}
	}
	defer func() {
		if err := a.source.Close(); err != nil {
			log.Printf("Error closing frame source: %v", err)
		}
		if a.recorder != nil {
			if err := a.recorder.Flush(); err != nil {
				log.Printf("Error flushing recording: %v", err)
			}
		}
	}()

	settings := a.Settings()
	activeMode := false
	lastActive := time.Now()

	ticker := time.NewTicker(settings.IdleFrameInterval())
	defer ticker.Stop()

	log.Println("Tick loop started")
	var lastErr string

	for {
		select {
		case <-ctx.Done():
			log.Println("Tick loop stopped")
			return ctx.Err()
		case <-ticker.C:
		}

		// Skip processing if detection is disabled
		if !a.IsEnabled() {
			continue
		}

		frame, err := a.source.ReadFrame()
		if errors.Is(err, skeleton.ErrNoFrames) {
			log.Println("Frame source exhausted")
			return nil
		}
		if err != nil {
			if err.Error() != lastErr {
				log.Printf("Error reading frame: %v", err)
				lastErr = err.Error()
			}
			continue
		}
		lastErr = ""

		a.ProcessFrame(frame)

		// Rates may change with a reloaded configuration.
		settings = a.Settings()
		if frame.TrackedCount() > 0 {
			lastActive = time.Now()
			if !activeMode {
				activeMode = true
				ticker.Reset(settings.FrameInterval())
				log.Println("Switched to active mode")
			}
		} else if activeMode && time.Since(lastActive) > settings.IdleAfter() {
			activeMode = false
			ticker.Reset(settings.IdleFrameInterval())
			log.Println("Switched to idle mode")
		}
	}
}
