// Package report renders preprocessing and training results to
// persisted HTML artifacts, with a machine-readable YAML change log
// alongside each preprocessing report.
package report

import (
	"html/template"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/autoprep-inc/autoprep-engine/pkg/apperrors"
	"github.com/autoprep-inc/autoprep-engine/pkg/train"
	"github.com/autoprep-inc/autoprep-engine/pkg/transform"
)

var templateFuncs = template.FuncMap{
	"join": strings.Join,
}

var (
	preprocessingTmpl = template.Must(template.New("preprocessing").Funcs(templateFuncs).Parse(preprocessingTemplate))
	trainingTmpl      = template.Must(template.New("training").Funcs(templateFuncs).Parse(trainingTemplate))
)

// Builder writes reports under a single artifacts directory, one HTML
// file per job id.
type Builder struct {
	artifactsDir string
	logger       *zap.Logger
	now          func() time.Time
}

// NewBuilder creates a report builder.
func NewBuilder(artifactsDir string, logger *zap.Logger) *Builder {
	return &Builder{
		artifactsDir: artifactsDir,
		logger:       logger.Named("report"),
		now:          time.Now,
	}
}

type metricRow struct {
	Name  string
	Value float64
}

// Preprocessing renders the change log to HTML and writes the raw log
// as YAML next to it. Returns the report path.
func (b *Builder) Preprocessing(jobID string, log *transform.ChangeLog) (string, error) {
	data := struct {
		JobID       string
		GeneratedAt string
		Log         *transform.ChangeLog
	}{jobID, b.now().UTC().Format(time.RFC3339), log}

	path, err := b.render(jobID, preprocessingTmpl, data)
	if err != nil {
		return "", err
	}

	raw, err := yaml.Marshal(log)
	if err != nil {
		return "", apperrors.Storage(err, "marshal change log for job %s", jobID)
	}
	yamlPath := filepath.Join(b.artifactsDir, jobID+"_changelog.yaml")
	if err := os.WriteFile(yamlPath, raw, 0o644); err != nil {
		return "", apperrors.Storage(err, "write change log %q", yamlPath)
	}

	b.logger.Info("preprocessing report written",
		zap.String("job_id", jobID),
		zap.String("path", path))
	return path, nil
}

// Training renders a training result to HTML. Returns the report path.
func (b *Builder) Training(jobID string, result *train.Result) (string, error) {
	metrics := make([]metricRow, 0, len(result.Metrics))
	for name, value := range result.Metrics {
		metrics = append(metrics, metricRow{Name: name, Value: value})
	}
	sort.Slice(metrics, func(i, j int) bool { return metrics[i].Name < metrics[j].Name })

	data := struct {
		JobID       string
		GeneratedAt string
		Result      *train.Result
		Metrics     []metricRow
	}{jobID, b.now().UTC().Format(time.RFC3339), result, metrics}

	path, err := b.render(jobID, trainingTmpl, data)
	if err != nil {
		return "", err
	}
	b.logger.Info("training report written",
		zap.String("job_id", jobID),
		zap.String("path", path))
	return path, nil
}

func (b *Builder) render(jobID string, tmpl *template.Template, data any) (string, error) {
	if err := os.MkdirAll(b.artifactsDir, 0o755); err != nil {
		return "", apperrors.Storage(err, "create artifacts dir")
	}
	path := filepath.Join(b.artifactsDir, jobID+".html")
	f, err := os.Create(path)
	if err != nil {
		return "", apperrors.Storage(err, "create report %q", path)
	}
	if err := tmpl.Execute(f, data); err != nil {
		f.Close()
		return "", apperrors.Storage(err, "render report for job %s", jobID)
	}
	if err := f.Close(); err != nil {
		return "", apperrors.Storage(err, "close report %q", path)
	}
	return path, nil
}

// Read returns a stored report's HTML.
func (b *Builder) Read(jobID string) ([]byte, error) {
	data, err := os.ReadFile(filepath.Join(b.artifactsDir, sanitizeID(jobID)+".html"))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, apperrors.Storage(apperrors.ErrNotFound, "report for job %s", jobID)
		}
		return nil, apperrors.Storage(err, "read report for job %s", jobID)
	}
	return data, nil
}

// List returns the job ids that have a stored report.
func (b *Builder) List() ([]string, error) {
	entries, err := os.ReadDir(b.artifactsDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, apperrors.Storage(err, "list reports")
	}
	var ids []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if name, ok := strings.CutSuffix(e.Name(), ".html"); ok {
			ids = append(ids, name)
		}
	}
	return ids, nil
}

// Delete removes a report and its change log if present.
func (b *Builder) Delete(jobID string) error {
	id := sanitizeID(jobID)
	path := filepath.Join(b.artifactsDir, id+".html")
	if err := os.Remove(path); err != nil {
		if os.IsNotExist(err) {
			return apperrors.Storage(apperrors.ErrNotFound, "report for job %s", jobID)
		}
		return apperrors.Storage(err, "delete report for job %s", jobID)
	}
	// change log only exists for preprocessing jobs
	_ = os.Remove(filepath.Join(b.artifactsDir, id+"_changelog.yaml"))
	b.logger.Info("report deleted", zap.String("job_id", jobID))
	return nil
}

func sanitizeID(id string) string {
	return filepath.Base(strings.TrimSpace(id))
}
