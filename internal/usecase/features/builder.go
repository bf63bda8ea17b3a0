package features

import (
	"fmt"

	"go.uber.org/zap"
	"gonum.org/v1/gonum/mat"

	"github.com/kailas-cloud/cinedex/internal/domain"
)

const modelName = "features"

// Catalog is the consumer view of the movie table.
type Catalog interface {
	Len() int
	At(i int) domain.Movie
	Hash() string
}

// ModelStore persists fitted transforms keyed by catalog content hash.
// Both Save and Load take a pointer to the value.
type ModelStore interface {
	Save(name, catalogHash string, v any) error
	Load(name, catalogHash string, v any) error
}

// fittedState is the persisted pair of transforms.
type fittedState struct {
	Vectorizer *Vectorizer
	Reducer    *Reducer
}

// Builder derives the per-movie feature matrix. Runs once at startup;
// recommendation requests wait until it finishes.
type Builder struct {
	store         ModelStore
	maxComponents int
	logger        *zap.Logger
}

// NewBuilder creates a feature builder. store may be nil to disable
// persistence.
func NewBuilder(store ModelStore, maxComponents int, logger *zap.Logger) *Builder {
	return &Builder{store: store, maxComponents: maxComponents, logger: logger}
}

// Build fits (or reapplies) the transforms and returns the feature
// matrix. When a persisted model matches the catalog hash it is applied
// without refitting; otherwise both transforms are fit from scratch and
// persisted. A persistence write failure is logged and swallowed: the
// in-memory matrix stays usable for the current process.
func (b *Builder) Build(cat Catalog) (*Matrix, error) {
	if cat.Len() == 0 {
		return nil, fmt.Errorf("empty catalog")
	}

	if m, ok := b.applyPersisted(cat); ok {
		return m, nil
	}
	return b.fit(cat)
}

// applyPersisted tries to reuse a previously fitted model.
func (b *Builder) applyPersisted(cat Catalog) (*Matrix, bool) {
	if b.store == nil {
		return nil, false
	}

	var state fittedState
	if err := b.store.Load(modelName, cat.Hash(), &state); err != nil {
		b.logger.Debug("no reusable feature model", zap.Error(err))
		return nil, false
	}
	if state.Vectorizer == nil || state.Reducer == nil {
		return nil, false
	}

	rows := make([][]float64, cat.Len())
	for i := 0; i < cat.Len(); i++ {
		tw, err := state.Vectorizer.Transform(cat.At(i).Genres)
		if err != nil {
			b.logger.Warn("persisted vectorizer unusable, refitting", zap.Error(err))
			return nil, false
		}
		rows[i], err = state.Reducer.Transform(tw)
		if err != nil {
			b.logger.Warn("persisted reducer unusable, refitting", zap.Error(err))
			return nil, false
		}
	}

	b.logger.Info("reapplied persisted feature model",
		zap.Int("movies", cat.Len()),
		zap.Int("components", state.Reducer.Cols),
	)
	return &Matrix{rows: rows, dim: state.Reducer.Cols}, true
}

// fit trains both transforms on the catalog and persists them.
func (b *Builder) fit(cat Catalog) (*Matrix, error) {
	corpus := make([][]string, cat.Len())
	for i := 0; i < cat.Len(); i++ {
		corpus[i] = cat.At(i).Genres
	}

	vec := FitVectorizer(corpus)
	if vec.Dims() == 0 {
		return nil, fmt.Errorf("empty genre vocabulary")
	}

	tw := mat.NewDense(cat.Len(), vec.Dims(), nil)
	for i, doc := range corpus {
		row, err := vec.Transform(doc)
		if err != nil {
			return nil, fmt.Errorf("vectorize movie %d: %w", cat.At(i).ID, err)
		}
		tw.SetRow(i, row)
	}

	red, rows, err := FitReducer(tw, b.maxComponents)
	if err != nil {
		return nil, fmt.Errorf("fit reducer: %w", err)
	}

	if b.store != nil {
		state := fittedState{Vectorizer: vec, Reducer: red}
		if err := b.store.Save(modelName, cat.Hash(), &state); err != nil {
			b.logger.Warn("persist feature model failed, continuing with in-memory model",
				zap.Error(err))
		}
	}

	b.logger.Info("fitted feature model",
		zap.Int("movies", cat.Len()),
		zap.Int("vocabulary", vec.Dims()),
		zap.Int("components", red.Cols),
	)
	return &Matrix{rows: rows, dim: red.Cols}, nil
}
