package transform

import (
	"github.com/autoprep-inc/autoprep-engine/pkg/apperrors"
	"github.com/autoprep-inc/autoprep-engine/pkg/dataset"
	"github.com/autoprep-inc/autoprep-engine/pkg/suggest"
)

// FromSuggestions converts accepted suggestions into executable
// operations. Suggestions passed engine validation already, so a
// conversion failure here is a caller error.
func FromSuggestions(suggestions []suggest.Suggestion) ([]Operation, error) {
	var ops []Operation
	for _, s := range suggestions {
		op, err := fromSuggestion(s)
		if err != nil {
			return nil, err
		}
		ops = append(ops, op)
	}
	return ops, nil
}

func fromSuggestion(s suggest.Suggestion) (Operation, error) {
	switch s.Kind {
	case suggest.KindHandleMissing:
		if s.Method == "drop_column" {
			return DropColumns{Columns: []string{s.Column}}, nil
		}
		return HandleMissing{Column: s.Column, Method: s.Method}, nil
	case suggest.KindHandleOutliers:
		return HandleOutliers{Column: s.Column, Method: s.Method}, nil
	case suggest.KindRemoveDuplicates:
		return RemoveDuplicates{}, nil
	case suggest.KindConvertType:
		typ, err := dataset.ParseType(s.TargetType)
		if err != nil {
			return nil, apperrors.Validation("suggestion for %q: %v", s.Column, err)
		}
		return ChangeType{Column: s.Column, To: typ}, nil
	case suggest.KindNormalization:
		return Scale{Column: s.Column, Scheme: "standard"}, nil
	case suggest.KindDropColumn:
		return DropColumns{Columns: []string{s.Column}}, nil
	}
	return nil, apperrors.Validation("suggestion kind %q cannot be converted to an operation", s.Kind)
}
