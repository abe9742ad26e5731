package main

import (
	"flag"
	"log"
	"os"

	"github.com/liserjrqlxue/goUtil/simpleUtil"
	"github.com/liserjrqlxue/version"

	"readBioinfo/pkg/bioinfo"
	"readBioinfo/pkg/longtable"
	"readBioinfo/pkg/report"
)

// flag
var (
	input = flag.String(
		"i",
		"",
		"variants long table csv",
	)
	outputDir = flag.String(
		"o",
		".",
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
)

func main() {
	version.LogVersion()
	flag.Parse()
	if *input == "" || *config == "" {
		flag.PrintDefaults()
		log.Fatal("-i/-c are required")
	}

	allConfig := simpleUtil.HandleError(bioinfo.LoadConfig(*config))
	cfg := simpleUtil.HandleError(allConfig.Pipeline(*pipeline))

	rep := report.New()
	list, err := longtable.Parse(*input, &cfg.LongTable.Content, rep, "long-table")
	rep.PrintAll()
	if err != nil {
		log.Fatalf("parse long table failed: %v", err)
	}

	simpleUtil.CheckErr(os.MkdirAll(*outputDir, 0755))
	path := simpleUtil.HandleError(longtable.Save(list, *outputDir))
	log.Printf("parsed data saved to %s", path)
}
