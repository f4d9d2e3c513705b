package forecast

import (
	"fmt"
	"os"
	"time"

	"github.com/goccy/go-json"

	"github.com/peter-kozarec/solstice/pkg/timeseries"
)

// ArtifactVersion is bumped when the artifact layout changes.
const ArtifactVersion = 1

// artifact is the on-disk form of a trained model: the recipe plus the
// training window it was fitted on. Refitting the recipe on the stored
// window is deterministic, so a reloaded model forecasts exactly what
// the saved one did.
type artifact struct {
	Version    int         `json:"version"`
	CreatedAt  time.Time   `json:"created_at"`
	Spec       ModelSpec   `json:"model"`
	Transform  string      `json:"transform"`
	Lambda     float64     `json:"lambda,omitempty"`
	Final      bool        `json:"final"`
	SeriesName string      `json:"series_name"`
	Frequency  string      `json:"frequency"`
	Times      []time.Time `json:"times"`
	Values     []float64   `json:"values"`
	CV         *Metrics    `json:"cv_metrics,omitempty"`
}

// Save writes the trained model to path as a versioned JSON artifact.
func Save(tm *TrainedModel, path string) error {
	art := artifact{
		Version:    ArtifactVersion,
		CreatedAt:  time.Now().UTC(),
		Spec:       tm.Spec,
		Transform:  string(tm.transform),
		Lambda:     tm.lambda,
		Final:      tm.Final,
		SeriesName: tm.train.Name,
		Frequency:  tm.train.Freq.String(),
		Times:      tm.train.Times,
		Values:     tm.train.Values,
		CV:         tm.CV,
	}

	raw, err := json.MarshalIndent(art, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding artifact: %w", err)
	}
	if err := os.WriteFile(path, raw, 0o644); err != nil {
		return fmt.Errorf("writing artifact: %w", err)
	}
	return nil
}

// Load rebuilds a trained model from an artifact by refitting its
// recipe on the stored training window.
func Load(path string) (*TrainedModel, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading artifact: %w", err)
	}

	var art artifact
	if err := json.Unmarshal(raw, &art); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadArtifact, err)
	}
	if art.Version != ArtifactVersion {
		return nil, fmt.Errorf("%w: unsupported version %d", ErrBadArtifact, art.Version)
	}

	freq, err := timeseries.ParseFrequency(art.Frequency)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadArtifact, err)
	}
	train, err := timeseries.New(art.SeriesName, freq, art.Times, art.Values)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadArtifact, err)
	}

	model, err := buildFromSpec(art.Spec)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadArtifact, err)
	}

	tr := Transform(art.Transform)
	if tr == "" {
		tr = TransformNone
	}
	fitScale, err := applyTransform(train, tr, art.Lambda)
	if err != nil {
		return nil, err
	}
	if err := model.Fit(fitScale); err != nil {
		return nil, fmt.Errorf("refitting %s: %w", art.Spec.Code, err)
	}

	return &TrainedModel{
		Spec:       art.Spec,
		Forecaster: model,
		CV:         art.CV,
		Final:      art.Final,
		transform:  tr,
		lambda:     art.Lambda,
		train:      train,
	}, nil
}
