package bioinfo

// Record fields produced or consumed across stages. read_length is
// populated by the mapping-stats join and consumed by the consensus
// stage; the orchestrator validates that chain before running.
const (
	FieldReadLength          = "read_length"
	FieldInputReads          = "number_of_input_reads"
	FieldBasePairs           = "number_of_base_pairs_sequenced"
	FieldNsPer100Kbp         = "ns_per_100_kbp"
	FieldLibraryLayout       = "library_layout"
	FieldLongTablePath       = "long_table_path"
	FieldGenomeLength        = "consensus_genome_length"
	FieldAnalysisDate        = "analysis_date"
	FieldLineageAnalysisDate = "lineage_analysis_date"
)
