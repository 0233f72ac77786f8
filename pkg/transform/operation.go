// Package transform applies ordered batches of column operations to a
// dataset, producing a new dataset plus a change log. Application is
// atomic: any invalid operation fails the whole batch.
package transform

import (
	"fmt"
	"strings"

	"github.com/autoprep-inc/autoprep-engine/pkg/apperrors"
	"github.com/autoprep-inc/autoprep-engine/pkg/dataset"
)

// Phase fixes the canonical execution order. Operations run phase by
// phase regardless of submission order; within a phase, caller order is
// preserved.
type Phase int

const (
	PhaseDrop Phase = iota
	PhaseType
	PhaseMissing
	PhaseOutliers
	PhaseDedupe
	PhaseEncode
	PhaseScale
	PhaseBalance
)

// Operation is one executable instruction. Validate checks the
// operation's own shape; column existence is checked against the live
// dataset state just before application.
type Operation interface {
	Phase() Phase
	Describe() string
	Validate() error
}

// DropColumns removes named columns. Unknown names are an error, not a
// no-op.
type DropColumns struct {
	Columns []string
}

func (o DropColumns) Phase() Phase { return PhaseDrop }
func (o DropColumns) Describe() string {
	return fmt.Sprintf("drop_columns(%s)", strings.Join(o.Columns, ","))
}
func (o DropColumns) Validate() error {
	if len(o.Columns) == 0 {
		return apperrors.Validation("drop_columns requires at least one column")
	}
	return nil
}

// ChangeType coerces a column to a target type; cells that fail
// coercion become nulls and are counted in the change log.
type ChangeType struct {
	Column string
	To     dataset.Type
}

func (o ChangeType) Phase() Phase { return PhaseType }
func (o ChangeType) Describe() string {
	return fmt.Sprintf("change_type(%s->%s)", o.Column, o.To)
}
func (o ChangeType) Validate() error {
	if o.Column == "" {
		return apperrors.Validation("change_type requires a column")
	}
	if _, err := dataset.ParseType(string(o.To)); err != nil {
		return apperrors.Validation("change_type: %v", err)
	}
	return nil
}

// Missing-value methods.
const (
	MissingMean         = "mean"
	MissingMedian       = "median"
	MissingMode         = "mode"
	MissingDropRows     = "drop_rows"
	MissingForwardFill  = "forward_fill"
	MissingBackwardFill = "backward_fill"
	MissingConstant     = "constant"
)

var missingMethods = map[string]struct{}{
	MissingMean: {}, MissingMedian: {}, MissingMode: {}, MissingDropRows: {},
	MissingForwardFill: {}, MissingBackwardFill: {}, MissingConstant: {},
}

// HandleMissing fills or drops nulls in one column. Fill is only used
// by the constant method.
type HandleMissing struct {
	Column string
	Method string
	Fill   string
}

func (o HandleMissing) Phase() Phase { return PhaseMissing }
func (o HandleMissing) Describe() string {
	return fmt.Sprintf("handle_missing(%s,%s)", o.Column, o.Method)
}
func (o HandleMissing) Validate() error {
	if o.Column == "" {
		return apperrors.Validation("handle_missing requires a column")
	}
	if _, ok := missingMethods[o.Method]; !ok {
		return apperrors.Validation("handle_missing: unknown method %q", o.Method)
	}
	if o.Method == MissingConstant && o.Fill == "" {
		return apperrors.Validation("handle_missing: constant method requires a fill value")
	}
	return nil
}

// Outlier methods.
const (
	OutlierRemove = "remove"
	OutlierCap    = "cap"
)

// HandleOutliers treats values outside the 1.5 IQR fences of a numeric
// column, either by removing their rows or capping them at the fence.
type HandleOutliers struct {
	Column string
	Method string
	Factor float64
}

func (o HandleOutliers) Phase() Phase { return PhaseOutliers }
func (o HandleOutliers) Describe() string {
	return fmt.Sprintf("handle_outliers(%s,%s)", o.Column, o.method())
}
func (o HandleOutliers) method() string {
	if o.Method == "" || o.Method == "iqr" {
		return OutlierRemove
	}
	return o.Method
}
func (o HandleOutliers) factor() float64 {
	if o.Factor <= 0 {
		return 1.5
	}
	return o.Factor
}
func (o HandleOutliers) Validate() error {
	if o.Column == "" {
		return apperrors.Validation("handle_outliers requires a column")
	}
	if m := o.method(); m != OutlierRemove && m != OutlierCap {
		return apperrors.Validation("handle_outliers: unknown method %q", o.Method)
	}
	return nil
}

// RemoveDuplicates drops rows that exactly repeat an earlier row.
type RemoveDuplicates struct{}

func (o RemoveDuplicates) Phase() Phase     { return PhaseDedupe }
func (o RemoveDuplicates) Describe() string { return "remove_duplicates" }
func (o RemoveDuplicates) Validate() error  { return nil }

// Encode replaces a column with one-hot indicator columns, one per
// category value observed at encode time.
type Encode struct {
	Column string
	Scheme string
}

func (o Encode) Phase() Phase     { return PhaseEncode }
func (o Encode) Describe() string { return fmt.Sprintf("encode(%s)", o.Column) }
func (o Encode) Validate() error {
	if o.Column == "" {
		return apperrors.Validation("encode requires a column")
	}
	if o.Scheme != "" && o.Scheme != "one_hot" {
		return apperrors.Validation("encode: unknown scheme %q", o.Scheme)
	}
	return nil
}

// Scale standardizes a numeric column to zero mean and unit variance.
// Constant columns are left unscaled.
type Scale struct {
	Column string
	Scheme string
}

func (o Scale) Phase() Phase     { return PhaseScale }
func (o Scale) Describe() string { return fmt.Sprintf("scale(%s)", o.Column) }
func (o Scale) Validate() error {
	if o.Column == "" {
		return apperrors.Validation("scale requires a column")
	}
	if o.Scheme != "" && o.Scheme != "standard" {
		return apperrors.Validation("scale: unknown scheme %q", o.Scheme)
	}
	return nil
}

// Balance oversamples minority classes of a categorical target until
// all class counts match the majority, synthesizing rows by
// nearest-neighbor interpolation. Runs last so it sees the final
// feature set.
type Balance struct {
	Target string
	Method string
	Seed   int64
}

func (o Balance) Phase() Phase     { return PhaseBalance }
func (o Balance) Describe() string { return fmt.Sprintf("balance(%s)", o.Target) }
func (o Balance) Validate() error {
	if o.Target == "" {
		return apperrors.Validation("balance requires a target column")
	}
	if o.Method != "" && o.Method != "oversample" {
		return apperrors.Validation("balance: unknown method %q", o.Method)
	}
	return nil
}
