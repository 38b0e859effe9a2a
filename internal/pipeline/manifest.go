package pipeline

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/KaramelBytes/metaclean/internal/table"
	"github.com/KaramelBytes/metaclean/internal/utils"
	"github.com/google/uuid"
)

const manifestFileName = "manifest.json"

// Manifest records one pipeline run: inputs, parameters, per-stage reports
// and the tables written.
type Manifest struct {
	RunID      string         `json:"run_id"`
	Inputs     Inputs         `json:"inputs"`
	Parameters Parameters     `json:"parameters"`
	LOD        float64        `json:"detection_limit"`
	Metrics    Metrics        `json:"metrics"`
	Stages     []StageReport  `json:"stages"`
	Outputs    []*OutputTable `json:"outputs"`
	CreatedAt  time.Time      `json:"created_at"`

	// directory the outputs are written to
	dir string
}

// Inputs names the two files a run reads.
type Inputs struct {
	FeatureTable string `json:"feature_table"`
	Metadata     string `json:"metadata"`
}

// OutputTable describes one exported table.
type OutputTable struct {
	ID    string `json:"id"`
	Title string `json:"title"`
	File  string `json:"file"`
	Rows  int    `json:"rows"`
	Cols  int    `json:"cols"`
}

// NewManifest constructs an in-memory manifest for a run writing to dir.
// Call Save() to persist it.
func NewManifest(dir string, in Inputs, params Parameters) *Manifest {
	return &Manifest{
		RunID:      uuid.NewString(),
		Inputs:     in,
		Parameters: params,
		CreatedAt:  time.Now(),
		dir:        dir,
	}
}

// Dir returns the output directory.
func (m *Manifest) Dir() string { return m.dir }

// Export writes t as TSV under a name derived from title and records it.
// An existing file of the same name is not overwritten.
func (m *Manifest) Export(title string, t *table.Table) (*OutputTable, error) {
	if m.dir == "" {
		return nil, errors.New("manifest output directory not set")
	}
	if err := utils.EnsureDir(m.dir); err != nil {
		return nil, fmt.Errorf("ensure dir: %w", err)
	}
	data, err := table.EncodeTSV(t)
	if err != nil {
		return nil, err
	}
	path := utils.UniquePath(filepath.Join(m.dir, table.ExportName(title)))
	if err := utils.SafeWriteFile(path, data); err != nil {
		return nil, err
	}
	out := &OutputTable{ID: uuid.NewString(), Title: title, File: filepath.Base(path), Rows: t.Rows(), Cols: t.NumCols()}
	m.Outputs = append(m.Outputs, out)
	return out, nil
}

// Save writes manifest.json using atomic write.
func (m *Manifest) Save() error {
	if m.dir == "" {
		return errors.New("manifest output directory not set")
	}
	if err := utils.EnsureDir(m.dir); err != nil {
		return fmt.Errorf("ensure dir: %w", err)
	}
	data, err := utils.PrettyJSON(m)
	if err != nil {
		return err
	}
	return utils.SafeWriteFile(filepath.Join(m.dir, manifestFileName), data)
}

// LoadManifest reads manifest.json from dir.
func LoadManifest(dir string) (*Manifest, error) {
	b, err := os.ReadFile(filepath.Join(dir, manifestFileName))
	if err != nil {
		return nil, fmt.Errorf("read manifest: %w", err)
	}
	var m Manifest
	if err := json.Unmarshal(b, &m); err != nil {
		return nil, fmt.Errorf("parse manifest: %w", err)
	}
	m.dir = dir
	return &m, nil
}
