package session

import (
	"time"

	"github.com/YuminosukeSato/tabfit/dataset"
	"github.com/YuminosukeSato/tabfit/pipeline"
	"github.com/YuminosukeSato/tabfit/preprocessing"
)

// Summary describes a loaded dataset.
type Summary struct {
	DatasetID      string                     `json:"dataset_id"`
	Source         string                     `json:"source,omitempty"`
	Rows           int                        `json:"rows"`
	Columns        int                        `json:"columns"`
	MissingBefore  int                        `json:"missing_before"`
	MissingAfter   int                        `json:"missing_after"`
	Numeric        []string                   `json:"numeric"`
	Categorical    []string                   `json:"categorical"`
	EncodedColumns []string                   `json:"encoded_columns"`
	Unresolved     []string                   `json:"unresolved,omitempty"`
	Fills          []preprocessing.ColumnFill `json:"-"`
	LoadedAt       time.Time                  `json:"loaded_at"`
}

// State is one immutable snapshot of the session. A new State is built for
// every successful Load or Train and replaces the previous one wholesale.
type State struct {
	DatasetID string
	Cleaned   *dataset.Table
	Encoded   *dataset.Table
	Spec      preprocessing.ColumnSpec
	Summary   Summary

	// Pipeline and Features are nil until a model is trained on this dataset.
	Pipeline *pipeline.TrainedPipeline
	Features []string
}

// HasData reports whether a dataset is loaded.
func (s *State) HasData() bool { return s != nil && s.Cleaned != nil }

// HasModel reports whether a trained pipeline is available.
func (s *State) HasModel() bool { return s != nil && s.Pipeline != nil }

func (s *State) withPipeline(p *pipeline.TrainedPipeline) *State {
	next := *s
	next.Pipeline = p
	next.Features = p.Features()
	return &next
}
