// Package jobfile loads and validates YAML alignment job descriptions.
package jobfile

import (
	"fmt"
	"os"
	"time"

	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

var validate = validator.New()

// TraceSpec names one input recording. Pick is the arrival estimate in
// seconds from the start of the trace.
type TraceSpec struct {
	Path string  `yaml:"path" validate:"required"`
	Pick float64 `yaml:"pick" validate:"gte=0"`
}

// Filter holds optional band-pass settings in Hz.
type Filter struct {
	Low       float64 `yaml:"low" validate:"gt=0"`
	High      float64 `yaml:"high" validate:"gtfield=Low"`
	ZeroPhase bool    `yaml:"zero_phase"`
}

// Job is one alignment run. Durations are in seconds; WindowBefore is
// negative, WindowAfter positive.
type Job struct {
	SampleInterval float64 `yaml:"sample_interval" default:"0.01" validate:"gt=0"`

	WindowBefore  float64 `yaml:"window_before" default:"-1" validate:"lt=0"`
	WindowAfter   float64 `yaml:"window_after" default:"1" validate:"gt=0"`
	TaperFraction float64 `yaml:"taper_fraction" default:"0.05" validate:"gte=0,lte=0.5"`
	ContextMargin float64 `yaml:"context_margin" default:"1" validate:"gte=0"`

	Filter *Filter `yaml:"filter"`

	MinCC            float64 `yaml:"min_cc" default:"0.5" validate:"gte=0,lte=1"`
	ConvergenceLimit float64 `yaml:"convergence_limit" default:"0.001" validate:"gt=0"`
	Convergence      string  `yaml:"convergence" default:"correlation" validate:"oneof=correlation change"`
	MaxIterations    int     `yaml:"max_iterations" default:"10" validate:"gte=1"`

	// AutoFlip and AutoSelect default to on; nil means unset.
	AutoFlip   *bool `yaml:"auto_flip"`
	AutoSelect *bool `yaml:"auto_select"`

	Traces []TraceSpec `yaml:"traces" validate:"min=1,dive"`
}

// Flip reports whether polarity correction is enabled.
func (j *Job) Flip() bool { return j.AutoFlip == nil || *j.AutoFlip }

// Select reports whether coefficient-based deselection is enabled.
func (j *Job) Select() bool { return j.AutoSelect == nil || *j.AutoSelect }

// Load reads, defaults, and validates a job file.
func Load(path string) (*Job, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("jobfile: read %s: %w", path, err)
	}

	return Parse(b)
}

// Parse decodes a job from YAML bytes.
func Parse(b []byte) (*Job, error) {
	var j Job
	if err := yaml.Unmarshal(b, &j); err != nil {
		return nil, fmt.Errorf("jobfile: parse: %w", err)
	}
	if err := defaults.Set(&j); err != nil {
		return nil, fmt.Errorf("jobfile: apply defaults: %w", err)
	}
	if err := validate.Struct(&j); err != nil {
		return nil, fmt.Errorf("jobfile: validate: %w", err)
	}

	return &j, nil
}

// Delta returns the sampling interval as a duration.
func (j *Job) Delta() time.Duration {
	return seconds(j.SampleInterval)
}

// Window returns the correlation window bounds as durations.
func (j *Job) Window() (before, after time.Duration) {
	return seconds(j.WindowBefore), seconds(j.WindowAfter)
}

// Margin returns the context margin as a duration.
func (j *Job) Margin() time.Duration {
	return seconds(j.ContextMargin)
}

func seconds(s float64) time.Duration {
	return time.Duration(s * float64(time.Second))
}
