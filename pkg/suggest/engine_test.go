package suggest

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/autoprep-inc/autoprep-engine/pkg/dataset"
	"github.com/autoprep-inc/autoprep-engine/pkg/llm"
	"github.com/autoprep-inc/autoprep-engine/pkg/profile"
)

const messyCSV = `id,age,salary,city,churn
1,25,50000,Austin,yes
2,NA,60000,Boston,no
3,35,NA,Austin,yes
4,NA,80000,,no
5,45,2000000,Austin,yes
6,NA,55000,Boston,no
7,50,58000,Austin,yes
7,50,58000,Austin,yes
`

func load(t *testing.T) *dataset.Dataset {
	t.Helper()
	ds, err := dataset.ReadCSV(strings.NewReader(messyCSV), "messy.csv", ",")
	require.NoError(t, err)
	return ds
}

func findSuggestion(a *Analysis, kind Kind, column string) *Suggestion {
	for i := range a.Suggestions {
		s := &a.Suggestions[i]
		if s.Kind == kind && s.Column == column {
			return s
		}
	}
	return nil
}

func TestHeuristicSuggestsDuplicateRemoval(t *testing.T) {
	a := HeuristicAnalysis(profile.Summarize(load(t)))
	assert.NotNil(t, findSuggestion(a, KindRemoveDuplicates, ""))
}

func TestHeuristicMissingValueThresholds(t *testing.T) {
	a := HeuristicAnalysis(profile.Summarize(load(t)))

	// age is half missing, salary only slightly
	age := findSuggestion(a, KindHandleMissing, "age")
	require.NotNil(t, age)
	assert.Contains(t, []string{"drop_rows", "drop_column"}, age.Method)

	salary := findSuggestion(a, KindHandleMissing, "salary")
	require.NotNil(t, salary)
	assert.Equal(t, "mean", salary.Method)
}

func TestHeuristicFlagsOutlierColumn(t *testing.T) {
	a := HeuristicAnalysis(profile.Summarize(load(t)))
	assert.NotNil(t, findSuggestion(a, KindHandleOutliers, "salary"))
}

func TestHeuristicTargetCandidates(t *testing.T) {
	a := HeuristicAnalysis(profile.Summarize(load(t)))

	var churn *TargetCandidate
	for i := range a.TargetCandidates {
		if a.TargetCandidates[i].Column == "churn" {
			churn = &a.TargetCandidates[i]
		}
		assert.NotEqual(t, "id", a.TargetCandidates[i].Column)
	}
	require.NotNil(t, churn)
	assert.Equal(t, TaskClassification, churn.TaskType)
	assert.Equal(t, ClassificationAlgorithms, churn.Algorithms)
}

func TestHeuristicDropsIdentifierColumns(t *testing.T) {
	var b strings.Builder
	b.WriteString("user_id,plan\n")
	for i := 0; i < 50; i++ {
		fmt.Fprintf(&b, "u-%03d,%s\n", i, []string{"free", "pro"}[i%2])
	}
	ds, err := dataset.ReadCSV(strings.NewReader(b.String()), "users.csv", ",")
	require.NoError(t, err)

	a := HeuristicAnalysis(profile.Summarize(ds))
	s := findSuggestion(a, KindDropColumn, "user_id")
	require.NotNil(t, s, "all-distinct string column should be flagged as an identifier")
	assert.Nil(t, findSuggestion(a, KindDropColumn, "plan"))
}

func TestHeuristicSuggestsTypeFixes(t *testing.T) {
	// both columns parse cleanly in their early samples but carry too
	// many stray text cells to pass inference at load time
	var b strings.Builder
	b.WriteString("amount,joined\n")
	for i := 0; i < 50; i++ {
		amount := fmt.Sprintf("%d", 120+i)
		joined := fmt.Sprintf("2021-01-%02d", i%28+1)
		if i >= 30 {
			amount = "pending"
			joined = "later"
		}
		fmt.Fprintf(&b, "%s,%s\n", amount, joined)
	}
	ds, err := dataset.ReadCSV(strings.NewReader(b.String()), "orders.csv", ",")
	require.NoError(t, err)

	a := HeuristicAnalysis(profile.Summarize(ds))

	amount := findSuggestion(a, KindConvertType, "amount")
	require.NotNil(t, amount)
	assert.Equal(t, string(dataset.TypeNumeric), amount.TargetType)

	joined := findSuggestion(a, KindConvertType, "joined")
	require.NotNil(t, joined)
	assert.Equal(t, string(dataset.TypeDatetime), joined.TargetType)
}

func TestEngineWithoutProviderUsesHeuristics(t *testing.T) {
	e := NewEngine(nil, 0.2, 0, zap.NewNop())
	a, err := e.Analyze(context.Background(), load(t))
	require.NoError(t, err)
	assert.Equal(t, SourceHeuristic, a.Source)
	assert.NotEmpty(t, a.Suggestions)
}

func TestEngineParsesProviderResponse(t *testing.T) {
	mock := llm.NewMockProvider(`Here is my analysis:
{
  "quality_score": 6.5,
  "summary": "Dataset has missing ages and one salary outlier.",
  "suggestions": [
    {"column": "age", "kind": "handle_missing_values", "method": "median", "reason": "half missing"},
    {"column": "nope", "kind": "handle_missing_values", "method": "mean", "reason": "hallucinated column"},
    {"column": "salary", "kind": "polish_values", "reason": "unknown kind"},
    {"kind": "remove_duplicates", "reason": "one duplicate row"}
  ],
  "target_candidates": [
    {"column": "churn", "task_type": "classification", "algorithms": [], "reason": "binary label"},
    {"column": "ghost", "task_type": "classification", "algorithms": [], "reason": "hallucinated"}
  ]
}`)
	e := NewEngine(mock, 0.2, 0, zap.NewNop())

	a, err := e.Analyze(context.Background(), load(t))
	require.NoError(t, err)
	assert.Equal(t, SourceAI, a.Source)
	assert.InDelta(t, 6.5, a.QualityScore, 1e-9)

	require.Len(t, a.Suggestions, 2, "hallucinated column and unknown kind dropped")
	assert.Equal(t, "median", a.Suggestions[0].Method)
	assert.Equal(t, KindRemoveDuplicates, a.Suggestions[1].Kind)

	require.Len(t, a.TargetCandidates, 1)
	assert.Equal(t, ClassificationAlgorithms, a.TargetCandidates[0].Algorithms, "empty algorithm list filled")
}

func TestEngineDropsUnsupportedMethods(t *testing.T) {
	mock := llm.NewMockProvider(`{
  "quality_score": 5,
  "summary": "x",
  "suggestions": [
    {"column": "age", "kind": "handle_missing_values", "method": "interpolate", "reason": "not in vocabulary"},
    {"column": "salary", "kind": "handle_outliers", "method": "winsorize", "reason": "not in vocabulary"},
    {"column": "city", "kind": "convert_data_type", "target_type": "tensor", "reason": "unknown target type"},
    {"column": "age", "kind": "handle_missing_values", "method": "median", "reason": "fine"}
  ],
  "target_candidates": []
}`)
	e := NewEngine(mock, 0.2, 0, zap.NewNop())

	a, err := e.Analyze(context.Background(), load(t))
	require.NoError(t, err)
	require.Len(t, a.Suggestions, 1, "unsupported methods and target types dropped silently")
	assert.Equal(t, "median", a.Suggestions[0].Method)
}

func TestEngineClampsQualityScore(t *testing.T) {
	mock := llm.NewMockProvider(`{"quality_score": 97, "summary": "x", "suggestions": [], "target_candidates": []}`)
	e := NewEngine(mock, 0.2, 0, zap.NewNop())

	a, err := e.Analyze(context.Background(), load(t))
	require.NoError(t, err)
	assert.InDelta(t, 10.0, a.QualityScore, 1e-9)
}

func TestEngineFallsBackOnProviderFailure(t *testing.T) {
	mock := llm.NewMockProvider()
	mock.Err = llm.NewError(llm.ErrorTypeAuth, "bad key", false, nil)
	e := NewEngine(mock, 0.2, 0, zap.NewNop())

	a, err := e.Analyze(context.Background(), load(t))
	require.NoError(t, err)
	assert.Equal(t, SourceHeuristic, a.Source)
	assert.Equal(t, 1, mock.CallCount(), "non-retryable failure is not retried")
}

func TestEngineFallsBackOnGarbageResponse(t *testing.T) {
	mock := llm.NewMockProvider("I cannot help with that.")
	e := NewEngine(mock, 0.2, 0, zap.NewNop())

	a, err := e.Analyze(context.Background(), load(t))
	require.NoError(t, err)
	assert.Equal(t, SourceHeuristic, a.Source)
}

// deadlineProvider records whether the engine bounded its call.
type deadlineProvider struct {
	hasDeadline bool
}

func (p *deadlineProvider) Name() string  { return "deadline" }
func (p *deadlineProvider) Model() string { return "m" }
func (p *deadlineProvider) Complete(ctx context.Context, _ llm.Request) (string, error) {
	_, p.hasDeadline = ctx.Deadline()
	return "", llm.NewError(llm.ErrorTypeResponse, "unavailable", false, nil)
}

func TestEngineBoundsProviderCalls(t *testing.T) {
	p := &deadlineProvider{}
	e := NewEngine(p, 0.2, time.Second, zap.NewNop())

	a, err := e.Analyze(context.Background(), load(t))
	require.NoError(t, err)
	assert.True(t, p.hasDeadline, "provider call must carry a deadline")
	assert.Equal(t, SourceHeuristic, a.Source)
}

func TestBuildPromptContainsProfileAndSamples(t *testing.T) {
	ds := load(t)
	prompt := BuildPrompt(ds, profile.Summarize(ds))

	assert.Contains(t, prompt, "8 rows, 5 columns")
	assert.Contains(t, prompt, `"name": "salary"`)
	assert.Contains(t, prompt, "Austin")
	assert.Contains(t, prompt, "random_forest")
	assert.Contains(t, prompt, "quality_score")
}
