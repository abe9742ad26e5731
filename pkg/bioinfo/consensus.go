package bioinfo

import (
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"readBioinfo/pkg/report"
)

// Fasta is one consensus sequence record: a description line plus the
// residue sequence.
type Fasta struct {
	Description string
	Sequence    string
}

// ReadFasta reads a single-record FASTA file.
func ReadFasta(path string) (Fasta, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Fasta{}, err
	}
	lines := splitLines(data)
	if len(lines) == 0 || !strings.HasPrefix(lines[0], ">") {
		return Fasta{}, fmt.Errorf("%s is not a fasta file", path)
	}
	var seq strings.Builder
	for _, line := range lines[1:] {
		line = strings.TrimSpace(line)
		if strings.HasPrefix(line, ">") {
			break
		}
		seq.WriteString(line)
	}
	return Fasta{
		Description: strings.TrimSpace(strings.TrimPrefix(lines[0], ">")),
		Sequence:    seq.String(),
	}, nil
}

// Md5File returns the hex md5 checksum of a file's content.
func Md5File(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	sum := md5.Sum(data)
	return hex.EncodeToString(sum[:]), nil
}

// Consensus source columns, joined onto records through the
// mapping_consensus section of the pipeline config.
const (
	consensusColName     = "sequence_name"
	consensusColLength   = "genome_length"
	consensusColFilepath = "sequence_filepath"
	consensusColFilename = "sequence_filename"
	consensusColMd5      = "sequence_md5"
)

// HandleConsensus derives per-sample data from the consensus sequence
// files: description, genome length, location and content checksum.
// The sample key is the file basename up to the first dot,
// canonicalized, so a lab identifier "12345-A" matches
// "12345_A.consensus.fa". Unreadable files are absorbed as one
// aggregated warning.
func HandleConsensus(files []string, rep *report.Report, method string) SourceTable {
	table := make(SourceTable)
	var missing []string
	for _, path := range files {
		fasta, err := ReadFasta(path)
		if err != nil {
			missing = append(missing, filepath.Base(path))
			continue
		}
		sum, err := Md5File(path)
		if err != nil {
			missing = append(missing, filepath.Base(path))
			continue
		}
		sample := sampleOfFile(path)
		table[sample] = map[string]string{
			consensusColName:     fasta.Description,
			consensusColLength:   strconv.Itoa(len(fasta.Sequence)),
			consensusColFilepath: filepath.Dir(path),
			consensusColFilename: sample,
			consensusColMd5:      sum,
		}
	}
	if len(missing) > 0 {
		rep.Updatef(method, report.Warning,
			"%d consensus files could not be read: %v", len(missing), missing)
	}
	return table
}

// pairedEnd detects paired-end sequencing from the record's library
// layout field.
func pairedEnd(r *Record) bool {
	return strings.Contains(strings.ToLower(r.GetString(FieldLibraryLayout)), "paired")
}

// ComputeBasePairs recomputes the sequenced base pairs per record as
// read_length x genome_length, doubled for paired-end samples. The
// read_length field comes from the mapping-stats join; when it is
// non-numeric the result is the sentinel, never an abort.
func ComputeBasePairs(records []*Record, rep *report.Report, method string) {
	for _, r := range records {
		genomeLen, okLen := parseNumber(r.GetString(FieldGenomeLength))
		if !okLen {
			r.Set(FieldBasePairs, NotProvided)
			continue
		}
		rawRead := r.GetString(FieldReadLength)
		readLen, ok := parseNumber(rawRead)
		if !ok {
			if rawRead != "" && rawRead != NotProvided {
				rep.Updatef(method, report.Warning,
					"sample %s: read length %q is not numeric", r.SampleID(), rawRead)
			}
			r.Set(FieldBasePairs, NotProvided)
			continue
		}
		bp := int64(readLen) * int64(genomeLen)
		if pairedEnd(r) {
			bp *= 2
		}
		r.Set(FieldBasePairs, bp)
	}
}
