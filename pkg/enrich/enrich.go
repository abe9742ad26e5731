// Package enrich sequences the enrichment stages in their fixed
// dependency order and assembles the final merged record set.
package enrich

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"

	"github.com/samber/lo"

	"readBioinfo/pkg/bioinfo"
	"readBioinfo/pkg/longtable"
	"readBioinfo/pkg/report"
)

// MetadataFileName is the merged record-set artifact written per run.
const MetadataFileName = "bioinfo_metadata.json"

type Options struct {
	// RecordsPath is the prior-stage record-set JSON file.
	RecordsPath string
	InputDir    string
	OutputDir   string
	ConfigPath  string
	Pipeline    string
	// XlsxPath, when set, also exports the records as a workbook.
	XlsxPath string
}

// Run is the shared state of one enrichment run: the evolving record
// set, the pipeline configuration and the run report. Stages mutate
// Records in place, strictly one after another.
type Run struct {
	Pipeline      string
	Config        bioinfo.PipelineConfig
	Records       []*bioinfo.Record
	InputDir      string
	OutputDir     string
	Report        *report.Report
	LongTablePath string
}

// Stage is one enrichment step. Requires and Provides make the
// inter-stage field dependencies explicit so the chain is validated
// before anything runs.
type Stage struct {
	Name     string
	Requires []string
	Provides []string
	Run      func(*Run) error
}

// Stages returns the fixed stage order for one pipeline configuration.
// The consensus stage consumes the read_length field the mapping-stats
// join provides; reordering is caught by ValidateStages.
func Stages(cfg bioinfo.PipelineConfig) []Stage {
	return []Stage{
		{
			Name:     "fixed-values",
			Provides: sortedKeys(cfg.FixedValues),
			Run:      runFixedValues,
		},
		{
			Name:     "feed-empty-fields",
			Provides: cfg.FeedEmptyFields,
			Run:      runFeedEmptyFields,
		},
		{
			Name:     "mapping-stats",
			Provides: cfg.MappingStats.Content.Targets(),
			Run:      runMappingStats,
		},
		{
			Name:     "software-versions",
			Provides: cfg.MappingVersion.Content.Targets(),
			Run:      runVersions,
		},
		{
			Name:     "variant-metrics",
			Provides: append(cfg.MappingVariantMetrics.Content.Targets(), bioinfo.FieldBasePairs),
			Run:      runVariantMetrics,
		},
		{
			Name:     "pangolin",
			Provides: append(cfg.MappingPangolin.Content.Targets(), bioinfo.FieldLineageAnalysisDate),
			Run:      runPangolin,
		},
		{
			Name:     "consensus",
			Requires: []string{bioinfo.FieldReadLength},
			Provides: append(cfg.MappingConsensus.Content.Targets(), bioinfo.FieldBasePairs),
			Run:      runConsensus,
		},
		{
			Name: "long-table",
			Run:  runLongTable,
		},
		{
			Name:     "long-table-path",
			Provides: []string{bioinfo.FieldLongTablePath},
			Run:      runLongTablePath,
		},
	}
}

// ValidateStages checks that every field a stage requires is provided
// by an earlier stage or present in the base record set.
func ValidateStages(stages []Stage, baseFields []string) error {
	provided := make(map[string]bool, len(baseFields))
	for _, f := range baseFields {
		provided[f] = true
	}
	for _, stage := range stages {
		for _, req := range stage.Requires {
			if !provided[req] {
				return fmt.Errorf("stage %s requires field %s, which no earlier stage provides", stage.Name, req)
			}
		}
		for _, f := range stage.Provides {
			provided[f] = true
		}
	}
	return nil
}

// Enrich runs one full enrichment: load configuration, check the
// mandatory inputs, run every stage in order and serialize the merged
// record set. The first fatal condition aborts before any further
// output is written.
func Enrich(opts Options, rep *report.Report) ([]*bioinfo.Record, error) {
	config, err := bioinfo.LoadConfig(opts.ConfigPath)
	if err != nil {
		return nil, err
	}
	cfg, err := config.Pipeline(opts.Pipeline)
	if err != nil {
		return nil, err
	}
	if err = cfg.CheckRequiredFiles(opts.Pipeline, opts.InputDir); err != nil {
		return nil, err
	}

	records, err := bioinfo.LoadRecords(opts.RecordsPath)
	if err != nil {
		return nil, err
	}

	stages := Stages(cfg)
	baseFields := []string{bioinfo.SampleIDField}
	if len(records) > 0 {
		baseFields = records[0].Fields()
	}
	if err = ValidateStages(stages, baseFields); err != nil {
		return nil, err
	}

	if err = os.MkdirAll(opts.OutputDir, 0755); err != nil {
		return nil, err
	}

	run := &Run{
		Pipeline:  opts.Pipeline,
		Config:    cfg,
		Records:   records,
		InputDir:  opts.InputDir,
		OutputDir: opts.OutputDir,
		Report:    rep,
	}
	for _, stage := range stages {
		slog.Info("run stage", "stage", stage.Name, "pipeline", run.Pipeline)
		if err = stage.Run(run); err != nil {
			return nil, fmt.Errorf("stage %s: %w", stage.Name, err)
		}
	}

	if err = bioinfo.SaveRecords(run.Records, filepath.Join(opts.OutputDir, MetadataFileName)); err != nil {
		return nil, err
	}
	if opts.XlsxPath != "" {
		if err = bioinfo.WriteRecordsXlsx(run.Records, opts.XlsxPath); err != nil {
			return nil, err
		}
	}
	return run.Records, nil
}

func sortedKeys(m map[string]string) []string {
	keys := lo.Keys(m)
	sort.Strings(keys)
	return keys
}

func runFixedValues(run *Run) error {
	for _, field := range sortedKeys(run.Config.FixedValues) {
		for _, r := range run.Records {
			r.Set(field, run.Config.FixedValues[field])
		}
	}
	run.Report.Updatef("fixed-values", report.Valid,
		"set %d fixed fields on %d samples", len(run.Config.FixedValues), len(run.Records))
	return nil
}

func runFeedEmptyFields(run *Run) error {
	for _, field := range run.Config.FeedEmptyFields {
		for _, r := range run.Records {
			r.Set(field, bioinfo.NotProvided)
		}
	}
	return nil
}

// requiredFile reports whether the configured pattern is declared
// mandatory; it decides whether a load failure is fatal or absorbed.
func (run *Run) requiredFile(pattern string) bool {
	return lo.Contains(run.Config.RequiredFiles, pattern)
}

// loadSourceTable resolves one source file in the input folder and
// loads it. A missing or malformed optional source degrades to an empty
// table so the join fills sentinels; the same failure on a mandatory
// source is fatal.
func (run *Run) loadSourceTable(sc bioinfo.SourceConfig, label string) (bioinfo.SourceTable, error) {
	matches, err := filepath.Glob(filepath.Join(run.InputDir, sc.FileName))
	if err != nil {
		return nil, err
	}
	if len(matches) == 0 {
		run.Report.Updatef(label, report.Warning,
			"no files matching %s found in %s", sc.FileName, run.InputDir)
		return bioinfo.SourceTable{}, nil
	}
	sort.Strings(matches)
	if len(matches) > 1 {
		run.Report.Updatef(label, report.Warning,
			"found %d files matching %s, keeping %s by path order",
			len(matches), sc.FileName, filepath.Base(matches[0]))
	}
	table, err := bioinfo.LoadTable(matches[0], sc.Separator(), sc.KeyPos)
	if err != nil {
		if run.requiredFile(sc.FileName) {
			return nil, err
		}
		run.Report.Updatef(label, report.Warning,
			"error occurred while processing file %s: %v", filepath.Base(matches[0]), err)
		return bioinfo.SourceTable{}, nil
	}
	return table, nil
}

func runMappingStats(run *Run) error {
	table, err := run.loadSourceTable(run.Config.MappingStats, "mapping-stats")
	if err != nil {
		return err
	}
	bioinfo.Join(run.Records, table, &run.Config.MappingStats.Content, "mapping-stats", run.Report)
	return nil
}

func runVersions(run *Run) error {
	sc := run.Config.MappingVersion
	matches, err := filepath.Glob(filepath.Join(run.InputDir, sc.FileName))
	if err != nil {
		return err
	}
	versions := bioinfo.Versions{}
	if len(matches) == 0 {
		run.Report.Updatef("software-versions", report.Warning,
			"no files matching %s found in %s", sc.FileName, run.InputDir)
	} else {
		sort.Strings(matches)
		versions, err = bioinfo.LoadVersions(matches[0])
		if err != nil {
			// The manifest exists but cannot be parsed; always fatal.
			return err
		}
	}
	bioinfo.JoinVersions(run.Records, versions, &sc.Content, "software-versions", run.Report)
	return nil
}

func runVariantMetrics(run *Run) error {
	table, err := run.loadSourceTable(run.Config.MappingVariantMetrics, "variant-metrics")
	if err != nil {
		return err
	}
	bioinfo.JoinVariantMetrics(run.Records, table, &run.Config.MappingVariantMetrics.Content, "variant-metrics", run.Report)
	return nil
}

func runPangolin(run *Run) error {
	table, err := bioinfo.LoadPangolin(run.InputDir, run.Config.MappingPangolin, run.Report, "pangolin")
	if err != nil {
		return err
	}
	bioinfo.JoinPangolin(run.Records, table, &run.Config.MappingPangolin.Content, "pangolin", run.Report)
	return nil
}

func runConsensus(run *Run) error {
	sc := run.Config.MappingConsensus
	files, err := filepath.Glob(filepath.Join(run.InputDir, sc.FileName))
	if err != nil {
		return err
	}
	sort.Strings(files)
	table := bioinfo.HandleConsensus(files, run.Report, "consensus")
	bioinfo.Join(run.Records, table, &sc.Content, "consensus", run.Report)
	bioinfo.ComputeBasePairs(run.Records, run.Report, "consensus")
	return nil
}

func runLongTable(run *Run) error {
	path, err := longtable.Find(run.InputDir, run.Config.LongTable.FileName)
	if err != nil {
		return err
	}
	if path == "" {
		run.Report.Updatef("long-table", report.Warning,
			"no files matching %s found in %s", run.Config.LongTable.FileName, run.InputDir)
		return nil
	}
	list, err := longtable.Parse(path, &run.Config.LongTable.Content, run.Report, "long-table")
	if err != nil {
		return err
	}
	artifact, err := longtable.Save(list, run.OutputDir)
	if err != nil {
		return err
	}
	run.LongTablePath = artifact
	return nil
}

func runLongTablePath(run *Run) error {
	value := any(bioinfo.NotProvided)
	if run.LongTablePath != "" {
		value = run.LongTablePath
	}
	for _, r := range run.Records {
		r.Set(bioinfo.FieldLongTablePath, value)
	}
	return nil
}
