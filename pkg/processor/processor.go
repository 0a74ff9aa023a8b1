// Package processor orchestrates the per-record analysis: mesh
// construction, volume computation, and surface classification. Its
// defining guarantee is fault isolation — a malformed or pathological
// geometry degrades to one failed row and never aborts the run.
package processor

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/solidmetrics/solidmetrics/internal/model"
	"github.com/solidmetrics/solidmetrics/pkg/geometry"
	"github.com/solidmetrics/solidmetrics/pkg/repair"
	"github.com/solidmetrics/solidmetrics/pkg/surface"
)

// Processor analyzes one building record at a time.
type Processor struct {
	engine     *repair.Engine
	classifier *surface.Classifier
	log        *zap.Logger
}

// New creates a processor. A nil logger disables per-record debug logging.
func New(engine *repair.Engine, classifier *surface.Classifier, log *zap.Logger) *Processor {
	if engine == nil {
		engine = repair.NewEngine()
	}
	if classifier == nil {
		classifier = surface.NewClassifier()
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Processor{engine: engine, classifier: classifier, log: log}
}

// Process analyzes rec and always returns a ProcessedRecord: success when
// both the volume and surface analyses are error-free, failed otherwise.
// Panics from the geometric code are recovered into a failed record.
func (p *Processor) Process(rec *model.RawBuildingRecord) (out *model.ProcessedRecord) {
	out = &model.ProcessedRecord{
		Index:  rec.Index,
		Attrs:  rec.Attrs,
		Status: model.StatusSuccess,
	}

	defer func() {
		if r := recover(); r != nil {
			p.log.Warn("recovered panic while processing record",
				zap.Int("record", rec.Index),
				zap.Any("panic", r))
			out.Status = model.StatusFailed
			out.Error = fmt.Sprintf("panic: %v", r)
		}
	}()

	if len(rec.Rings) == 0 {
		out.Status = model.StatusFailed
		out.Error = "no geometry data"
		return out
	}

	mesh := geometry.NewMeshFromRings(rec.Rings)
	if mesh.IsEmpty() {
		out.Status = model.StatusFailed
		out.Error = "geometry has no usable faces"
		return out
	}

	vol, repaired := p.engine.ComputeVolume(mesh)
	out.Volume = &vol

	// The classifier sees the repaired surface so the area metrics match
	// the geometry the volume was computed on.
	surf := p.classifier.Analyze(repaired)
	out.Surface = &surf

	if vol.Err != "" {
		out.Status = model.StatusFailed
		out.Error = "volume: " + vol.Err
	} else if surf.Err != "" {
		out.Status = model.StatusFailed
		out.Error = "surface: " + surf.Err
	}
	return out
}
