// Package pipeline runs the cleaning stages over a feature table and its
// metadata and records what each stage did.
package pipeline

import (
	"context"
	"fmt"
	"math"
	"math/rand/v2"
	"path/filepath"
	"time"

	"github.com/KaramelBytes/metaclean/internal/preprocess"
	"github.com/KaramelBytes/metaclean/internal/table"
	"github.com/KaramelBytes/metaclean/internal/utils"
	"github.com/rs/zerolog"
)

// Stage names in execution order.
const (
	StageLoad      = "load"
	StageClean     = "clean"
	StageReconcile = "reconcile"
	StageBlanks    = "blank-filter"
	StageLOD       = "detection-limit"
	StageImpute    = "impute"
	StageNormalize = "normalize"
	StageScale     = "scale"
)

// Options configures a run.
type Options struct {
	FeaturePath  string
	MetadataPath string
	FeatureLoad  table.Options
	MetadataLoad table.Options

	Features preprocess.FeatureOptions
	// Split.Column empty skips blank filtering.
	Split       preprocess.SplitOptions
	BlankCutoff float64
	Scale       preprocess.ScaleOptions
	// Seed for the imputation draws; 0 picks a random seed.
	Seed uint64

	// OutputDir receives a run directory with every table and manifest.json.
	// Empty disables export.
	OutputDir string
}

// Parameters are the options recorded in the manifest.
type Parameters struct {
	RawFileMarker  string   `json:"raw_file_marker"`
	PeakSuffix     string   `json:"peak_suffix"`
	StripExtension bool     `json:"strip_extension"`
	BlankColumn    string   `json:"blank_column,omitempty"`
	BlankValue     string   `json:"blank_value,omitempty"`
	SampleValues   []string `json:"sample_values,omitempty"`
	BlankCutoff    float64  `json:"blank_cutoff"`
	MaxMissing     float64  `json:"max_missing"`
	Seed           uint64   `json:"seed"`
}

// StageReport summarizes one stage.
type StageReport struct {
	Name     string   `json:"name"`
	Rows     int      `json:"rows"`
	Cols     int      `json:"cols"`
	Messages []string `json:"messages,omitempty"`
}

// Metrics are the headline numbers of a run, rounded for display.
type Metrics struct {
	// MissingPercent is the share of cells at or below the detection limit.
	MissingPercent float64 `json:"missing_percent"`
	// PresentPercent is the share of features measured in enough samples.
	PresentPercent float64 `json:"present_percent"`

	BackgroundFeatures int `json:"background_features"`
	RealFeatures       int `json:"real_features"`
	DroppedFeatures    int `json:"dropped_features"`
}

// Result holds every intermediate table of a run. Feature tables from
// Samples onward are samples x features.
type Result struct {
	RunID string
	// Metadata is the cleaned, reconciled metadata.
	Metadata *table.Table
	// Features is the cleaned, reconciled feature table (features x samples).
	Features *table.Table
	// Samples is the blank-filtered sample table.
	Samples    *table.Table
	Imputed    *table.Table
	Normalized *table.Table
	Scaled     *table.Table
	// ScaledMetadata is the metadata aligned with Scaled.
	ScaledMetadata *table.Table

	Seed     uint64
	LOD      float64
	Metrics  Metrics
	Stages   []StageReport
	Manifest *Manifest
}

// Run executes the stages in order. Reconciliation and scaling problems are
// reported as stage messages and logged; only unusable input fails the run.
func Run(ctx context.Context, opt Options) (*Result, error) {
	log := zerolog.Ctx(ctx)
	seed := opt.Seed
	if seed == 0 {
		seed = rand.Uint64()
	}
	res := &Result{Seed: seed}

	var m *Manifest
	if opt.OutputDir != "" {
		dir := utils.UniquePath(filepath.Join(opt.OutputDir, "run-"+time.Now().Format("20060102-150405")))
		m = NewManifest(dir, Inputs{FeatureTable: opt.FeaturePath, Metadata: opt.MetadataPath}, opt.parameters(seed))
		res.Manifest = m
		res.RunID = m.RunID
	}
	stage := func(name string, t *table.Table, msgs ...string) {
		res.Stages = append(res.Stages, StageReport{Name: name, Rows: t.Rows(), Cols: t.NumCols(), Messages: msgs})
		log.Debug().Str("stage", name).Int("rows", t.Rows()).Int("cols", t.NumCols()).Msg("stage done")
	}

	// load
	ft, err := table.Load(opt.FeaturePath, opt.FeatureLoad)
	if err != nil {
		return nil, fmt.Errorf("load feature table: %w", err)
	}
	md, err := table.Load(opt.MetadataPath, opt.MetadataLoad)
	if err != nil {
		return nil, fmt.Errorf("load metadata: %w", err)
	}
	stage(StageLoad, ft, "feature table: "+ft.Summary(), "metadata: "+md.Summary())
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// clean
	md = preprocess.CleanMetadata(md)
	ft = preprocess.CleanFeatureTable(ft, opt.Features)
	stage(StageClean, ft)
	if ft.Empty() {
		return nil, fmt.Errorf("no sample columns containing %q in feature table: %w", opt.Features.Marker, preprocess.ErrEmptyTable)
	}

	// reconcile
	rec := preprocess.Reconcile(md, ft)
	for _, msg := range rec.Messages {
		if rec.Matched {
			log.Info().Msg(msg)
		} else {
			log.Warn().Msg(msg)
		}
	}
	stage(StageReconcile, ft, rec.Messages...)
	res.Metadata, res.Features = md, ft
	if ft.Empty() {
		return nil, fmt.Errorf("no samples shared by feature table and metadata: %w", preprocess.ErrEmptyTable)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	samples, err := ft.Transpose()
	if err != nil {
		return nil, fmt.Errorf("transpose feature table: %w", err)
	}

	// blank filter
	if opt.Split.Column != "" {
		blanks, rest, err := preprocess.SplitBlanks(samples, md, opt.Split)
		if err != nil {
			return nil, fmt.Errorf("split blanks: %w", err)
		}
		var msgs []string
		if blanks.Rows() == 0 {
			msgs = append(msgs, fmt.Sprintf("no rows with %s = %s, blank filtering skipped", opt.Split.Column, opt.Split.BlankValue))
			log.Warn().Str("column", opt.Split.Column).Msg(msgs[0])
			samples = rest
		} else {
			br, err := preprocess.RemoveBlankFeatures(blanks, rest, opt.BlankCutoff)
			if err != nil {
				return nil, fmt.Errorf("blank filter: %w", err)
			}
			res.Metrics.BackgroundFeatures, res.Metrics.RealFeatures = br.Background, br.Real
			msgs = append(msgs, fmt.Sprintf("%d background features, %d real features", br.Background, br.Real))
			samples = br.Samples
		}
		stage(StageBlanks, samples, msgs...)
		if samples.Empty() {
			return nil, fmt.Errorf("no features left after blank filtering: %w", preprocess.ErrEmptyTable)
		}
	}
	res.Samples = samples
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// detection limit and imputation
	lod, err := preprocess.CutoffLODStrict(samples)
	if err != nil {
		return nil, err
	}
	res.LOD = lod
	stage(StageLOD, samples, fmt.Sprintf("detection limit %g", lod))

	imputed, err := preprocess.ImputeMissing(samples, lod, rand.New(rand.NewPCG(seed, seed)))
	if err != nil {
		return nil, err
	}
	res.Imputed = imputed
	stage(StageImpute, imputed)
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// normalize per sample
	perSample, err := imputed.Transpose()
	if err != nil {
		return nil, err
	}
	normalized, err := preprocess.NormalizeColumnWise(perSample).Transpose()
	if err != nil {
		return nil, err
	}
	res.Normalized = normalized
	stage(StageNormalize, normalized)

	// scale
	sr, err := preprocess.TransposeAndScale(imputed, md, lod, opt.Scale)
	if err != nil {
		return nil, fmt.Errorf("scale: %w", err)
	}
	for _, w := range sr.Warnings {
		log.Warn().Msg(w)
	}
	res.Scaled, res.ScaledMetadata = sr.Scaled, sr.Metadata
	res.Metrics.MissingPercent = MissingPercent(sr.MissingFraction)
	res.Metrics.PresentPercent = PresentPercent(sr.PresentFraction)
	res.Metrics.DroppedFeatures = len(sr.Dropped)
	msgs := append([]string{
		fmt.Sprintf("%g %% of values at or below %g", res.Metrics.MissingPercent, lod),
		fmt.Sprintf("%g %% of features measured in enough samples", res.Metrics.PresentPercent),
	}, sr.Warnings...)
	stage(StageScale, sr.Scaled, msgs...)

	if m != nil {
		if err := export(m, res); err != nil {
			return nil, err
		}
	}
	return res, nil
}

func export(m *Manifest, res *Result) error {
	m.LOD = res.LOD
	m.Metrics = res.Metrics
	m.Stages = res.Stages
	outputs := []struct {
		title string
		t     *table.Table
	}{
		{"metadata", res.Metadata},
		{"feature table", res.Features},
		{"samples", res.Samples},
		{"imputed", res.Imputed},
		{"normalized", res.Normalized},
		{"scaled", res.Scaled},
		{"scaled metadata", res.ScaledMetadata},
	}
	for _, o := range outputs {
		if _, err := m.Export(o.title, o.t); err != nil {
			return fmt.Errorf("export %s: %w", o.title, err)
		}
	}
	if err := m.Save(); err != nil {
		return fmt.Errorf("save manifest: %w", err)
	}
	return nil
}

func (o Options) parameters(seed uint64) Parameters {
	return Parameters{
		RawFileMarker:  o.Features.Marker,
		PeakSuffix:     o.Features.Suffix,
		StripExtension: o.Features.StripExtension,
		BlankColumn:    o.Split.Column,
		BlankValue:     o.Split.BlankValue,
		SampleValues:   o.Split.SampleValues,
		BlankCutoff:    o.BlankCutoff,
		MaxMissing:     o.Scale.MaxMissing,
		Seed:           seed,
	}
}

// MissingPercent formats a missing-cell fraction as a percentage rounded to
// three decimals of the fraction.
func MissingPercent(frac float64) float64 {
	return roundTo(frac, 3) * 100
}

// PresentPercent formats a feature fraction as a percentage with two decimals.
func PresentPercent(frac float64) float64 {
	return roundTo(frac*100, 2)
}

func roundTo(x float64, decimals int) float64 {
	p := math.Pow(10, float64(decimals))
	return math.RoundToEven(x*p) / p
}
