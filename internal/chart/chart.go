// Package chart draws labelled datasets onto a named canvas.
package chart

import (
	"fmt"
	"sync"
)

// Dataset is one chart's worth of labelled values. Colors is optional and,
// when set, parallel to Labels.
type Dataset struct {
	Title  string
	Labels []string
	Values []float64
	Colors []string
}

// Validate checks that the parallel slices line up.
func (d Dataset) Validate() error {
	if len(d.Labels) != len(d.Values) {
		return fmt.Errorf("dataset %q: %d labels for %d values", d.Title, len(d.Labels), len(d.Values))
	}
	if len(d.Colors) > 0 && len(d.Colors) != len(d.Labels) {
		return fmt.Errorf("dataset %q: %d colors for %d labels", d.Title, len(d.Colors), len(d.Labels))
	}
	return nil
}

// Max returns the largest value, or 0 for an empty dataset.
func (d Dataset) Max() float64 {
	var m float64
	for _, v := range d.Values {
		if v > m {
			m = v
		}
	}
	return m
}

// Sink renders datasets. Drawing to a canvas id that was drawn before
// replaces the previous chart.
type Sink interface {
	Draw(canvasID string, ds Dataset) error
}

// Drawing is one recorded Draw call.
type Drawing struct {
	CanvasID string
	Dataset  Dataset
}

// Recorder is a Sink that keeps every drawing in memory.
type Recorder struct {
	mu       sync.Mutex
	drawings []Drawing
}

// Draw implements Sink.
func (r *Recorder) Draw(canvasID string, ds Dataset) error {
	if err := ds.Validate(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.drawings = append(r.drawings, Drawing{CanvasID: canvasID, Dataset: ds})
	return nil
}

// Drawings returns every drawing in call order.
func (r *Recorder) Drawings() []Drawing {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Drawing(nil), r.drawings...)
}

// Canvas returns the latest dataset drawn to canvasID.
func (r *Recorder) Canvas(canvasID string) (Dataset, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := len(r.drawings) - 1; i >= 0; i-- {
		if r.drawings[i].CanvasID == canvasID {
			return r.drawings[i].Dataset, true
		}
	}
	return Dataset{}, false
}
