// Package app provides application state, events, and lifecycle helpers.
package app

import (
	"fmt"
	"sync"

	"charscan/internal/classify"
	"charscan/internal/imgio"
	"charscan/internal/pipeline"

	"gocv.io/x/gocv"
)

// EventType identifies application events.
type EventType int

const (
	EventImageLoaded EventType = iota
	EventModelLoaded
	EventRecognitionDone
	EventCaptureStarted
	EventCaptureStopped
	EventOptionsChanged
)

// EventListener is called when an event occurs.
type EventListener func(data interface{})

// State holds the loaded image, the classifier model, and the latest
// recognition results. Recognition itself is synchronous; the mutex
// guards access from UI callbacks.
type State struct {
	mu sync.RWMutex

	// runMu serializes pipeline runs with image replacement: at most
	// one Recognize is in flight at a time, and a Mat is never closed
	// while a run still reads it.
	runMu sync.Mutex

	// Current source image (BGR Mat). Replaced wholesale on load; the
	// previous Mat is closed.
	ImagePath string
	Image     gocv.Mat

	// Loaded classifier. Read-only once set; reload only while no
	// recognition is in flight.
	Model     *classify.Model
	ModelPath string

	// Latest pipeline output, in reading order.
	Results []pipeline.Result

	// Recognition options, persisted via preferences.
	Options pipeline.Options

	Capturing bool

	listeners map[EventType][]EventListener
}

// NewState creates application state with default pipeline options.
func NewState() *State {
	return &State{
		Image:     gocv.NewMat(),
		Options:   pipeline.DefaultOptions(),
		listeners: make(map[EventType][]EventListener),
	}
}

// On registers an event listener.
func (s *State) On(event EventType, listener EventListener) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners[event] = append(s.listeners[event], listener)
}

// Emit triggers all listeners for the event.
func (s *State) Emit(event EventType, data interface{}) {
	s.mu.RLock()
	listeners := s.listeners[event]
	s.mu.RUnlock()

	for _, listener := range listeners {
		listener(data)
	}
}

// LoadImage loads an image file and makes it the current source.
func (s *State) LoadImage(path string) error {
	img, err := imgio.Load(path)
	if err != nil {
		return err
	}

	s.runMu.Lock()
	s.mu.Lock()
	old := s.Image
	s.Image = img
	s.ImagePath = path
	s.Results = nil
	s.mu.Unlock()
	old.Close()
	s.runMu.Unlock()

	s.Emit(EventImageLoaded, path)
	return nil
}

// SetFrame replaces the current image with a copy of a live frame.
// Blocks until any in-flight Recognize finishes, so the Mat it is
// reading is never closed underneath it.
func (s *State) SetFrame(frame gocv.Mat) {
	clone := frame.Clone()

	s.runMu.Lock()
	s.mu.Lock()
	old := s.Image
	s.Image = clone
	s.ImagePath = ""
	s.mu.Unlock()
	old.Close()
	s.runMu.Unlock()
}

// LoadModel loads the classifier model from the given artifact path.
func (s *State) LoadModel(path string) error {
	model, err := classify.LoadModel(path)
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.Model = model
	s.ModelPath = path
	s.mu.Unlock()

	s.Emit(EventModelLoaded, path)
	return nil
}

// Recognize runs the pipeline on the current image and stores the
// results. Calls are serialized: a second Recognize (or a frame
// replacement) blocks until the current run completes.
func (s *State) Recognize() ([]pipeline.Result, error) {
	s.runMu.Lock()
	defer s.runMu.Unlock()

	s.mu.RLock()
	img := s.Image
	model := s.Model
	opts := s.Options
	s.mu.RUnlock()

	if model == nil {
		return nil, fmt.Errorf("no model loaded")
	}
	if img.Empty() {
		return nil, fmt.Errorf("no image loaded")
	}

	results, err := pipeline.Recognize(img, model, opts)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.Results = results
	s.mu.Unlock()

	s.Emit(EventRecognitionDone, results)
	return results, nil
}

// WithImage runs fn with the current image while holding the read lock,
// so the Mat cannot be replaced and closed mid-use.
func (s *State) WithImage(fn func(img gocv.Mat)) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	fn(s.Image)
}

// LatestResults returns the most recent recognition results.
func (s *State) LatestResults() []pipeline.Result {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.Results
}

// SetCapturing records the live-capture state and notifies listeners.
func (s *State) SetCapturing(on bool) {
	s.mu.Lock()
	s.Capturing = on
	s.mu.Unlock()

	if on {
		s.Emit(EventCaptureStarted, nil)
	} else {
		s.Emit(EventCaptureStopped, nil)
	}
}

// IsCapturing reports whether the live-capture loop is running.
func (s *State) IsCapturing() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.Capturing
}

// SetMinConfidence updates the rejection threshold.
func (s *State) SetMinConfidence(v float64) {
	s.mu.Lock()
	s.Options.MinConfidence = v
	s.mu.Unlock()
	s.Emit(EventOptionsChanged, nil)
}

// SetFallback installs or removes the low-confidence fallback
// recognizer.
func (s *State) SetFallback(fb pipeline.Fallback) {
	s.mu.Lock()
	s.Options.Fallback = fb
	s.mu.Unlock()
	s.Emit(EventOptionsChanged, nil)
}

// Close releases held resources.
func (s *State) Close() {
	s.runMu.Lock()
	defer s.runMu.Unlock()
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Image.Close()
}
