package main

import (
	"flag"
	"log"

	"github.com/liserjrqlxue/version"

	"readBioinfo/pkg/enrich"
	"readBioinfo/pkg/report"
)

// flag
var (
	metadata = flag.String(
		"m",
		"",
		"prior-stage record set json",
	)
	inputDir = flag.String(
		"i",
		"",
		"input folder with pipeline results",
	)
	outputDir = flag.String(
		"o",
		"",
		"output folder",
	)
	config = flag.String(
		"c",
		"",
		"mapping configuration file (json/yaml)",
	)
	pipeline = flag.String(
		"p",
		"viralrecon",
		"pipeline name in configuration",
	)
	xlsxOut = flag.String(
		"x",
		"",
		"also export records to this xlsx path",
	)
)

func main() {
	version.LogVersion()
	flag.Parse()
	if *metadata == "" || *inputDir == "" || *outputDir == "" || *config == "" {
		flag.PrintDefaults()
		log.Fatal("-m/-i/-o/-c are required")
	}

	rep := report.New()
	records, err := enrich.Enrich(
		enrich.Options{
			RecordsPath: *metadata,
			InputDir:    *inputDir,
			OutputDir:   *outputDir,
			ConfigPath:  *config,
			Pipeline:    *pipeline,
			XlsxPath:    *xlsxOut,
		},
		rep,
	)
	rep.PrintAll()
	if err != nil {
		log.Fatalf("enrichment failed: %v", err)
	}
	log.Printf("enriched %d samples", len(records))
}
