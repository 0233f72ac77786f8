package transform

import (
	"sort"

	"go.uber.org/zap"

	"github.com/autoprep-inc/autoprep-engine/pkg/apperrors"
	"github.com/autoprep-inc/autoprep-engine/pkg/dataset"
)

// Pipeline applies operation batches. It is stateless; one instance
// serves all jobs.
type Pipeline struct {
	logger *zap.Logger
}

// NewPipeline creates a pipeline.
func NewPipeline(logger *zap.Logger) *Pipeline {
	return &Pipeline{logger: logger.Named("transform")}
}

// Apply executes the batch against a clone of the input in canonical
// phase order and returns the new dataset plus the change log. The
// input dataset is never mutated. Any invalid operation aborts the
// whole call with no partial result.
func (p *Pipeline) Apply(d *dataset.Dataset, ops []Operation) (*dataset.Dataset, *ChangeLog, error) {
	for _, op := range ops {
		if err := op.Validate(); err != nil {
			return nil, nil, err
		}
	}

	ordered := make([]Operation, len(ops))
	copy(ordered, ops)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Phase() < ordered[j].Phase()
	})

	out := d.Clone()
	log := &ChangeLog{
		Dataset:     d.Name,
		ShapeBefore: Shape{Rows: d.Rows(), Columns: len(d.Columns)},
	}

	for _, op := range ordered {
		rec, err := applyOne(out, op)
		if err != nil {
			p.logger.Warn("operation failed, batch aborted",
				zap.String("dataset", d.Name),
				zap.String("operation", op.Describe()),
				zap.Error(err))
			return nil, nil, err
		}
		log.Records = append(log.Records, rec)
	}

	log.ShapeAfter = Shape{Rows: out.Rows(), Columns: len(out.Columns)}
	p.logger.Info("batch applied",
		zap.String("dataset", d.Name),
		zap.Int("operations", len(ops)),
		zap.Int("rows_before", log.ShapeBefore.Rows),
		zap.Int("rows_after", log.ShapeAfter.Rows))
	return out, log, nil
}

func applyOne(d *dataset.Dataset, op Operation) (Record, error) {
	rec := Record{
		Operation:   op.Describe(),
		ShapeBefore: Shape{Rows: d.Rows(), Columns: len(d.Columns)},
	}
	var err error
	switch o := op.(type) {
	case DropColumns:
		err = applyDrop(d, o, &rec)
	case ChangeType:
		err = applyChangeType(d, o, &rec)
	case HandleMissing:
		err = applyMissing(d, o, &rec)
	case HandleOutliers:
		err = applyOutliers(d, o, &rec)
	case RemoveDuplicates:
		err = applyDedupe(d, &rec)
	case Encode:
		err = applyEncode(d, o, &rec)
	case Scale:
		err = applyScale(d, o, &rec)
	case Balance:
		err = applyBalance(d, o, &rec)
	default:
		err = apperrors.Validation("unsupported operation %T", op)
	}
	if err != nil {
		return Record{}, err
	}
	rec.ShapeAfter = Shape{Rows: d.Rows(), Columns: len(d.Columns)}
	return rec, nil
}

// requireColumn resolves a column or fails the batch naming the
// operation, covering the drop-then-use ordering mistake.
func requireColumn(d *dataset.Dataset, op Operation, name string) (*dataset.Column, error) {
	if c := d.Column(name); c != nil {
		return c, nil
	}
	return nil, apperrors.Transformation(op.Describe(), "column %q not found", name)
}
