// Package fasta rewrites RCSB FASTA records into per-chain records for
// structure-prediction tools.
package fasta

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
)

// Record is one FASTA record.
type Record struct {
	Header   string
	Sequence string
}

// Parse reads all records from r. Lines before the first header are ignored.
func Parse(r io.Reader) ([]Record, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 16<<20)

	var (
		records []Record
		cur     *Record
		seq     strings.Builder
	)
	flush := func() {
		if cur != nil {
			cur.Sequence = seq.String()
			records = append(records, *cur)
		}
		seq.Reset()
	}
	for sc.Scan() {
		line := strings.TrimRight(sc.Text(), "\r")
		if strings.HasPrefix(line, ">") {
			flush()
			cur = &Record{Header: line}
			continue
		}
		if cur != nil {
			seq.WriteString(strings.TrimSpace(line))
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("scan fasta: %w", err)
	}
	flush()
	return records, nil
}

var (
	chainsRe     = regexp.MustCompile(`(?i)Chains?\s+([A-Za-z0-9, ]+)`)
	chainSplitRe = regexp.MustCompile(`[,\s]+`)
)

// ParseChains extracts chain ids from an RCSB header such as
// ">1ABC_1|Chains A, B|Lysozyme|Gallus gallus". Without a Chain(s) list the
// first character of the second '|' field is used, and "A" as a last resort.
func ParseChains(header string) []string {
	m := chainsRe.FindStringSubmatch(header)
	if m == nil {
		parts := strings.Split(header, "|")
		if len(parts) > 1 {
			if t := strings.TrimSpace(parts[1]); t != "" {
				return []string{strings.ToUpper(t[:1])}
			}
		}
		return []string{"A"}
	}

	var chains []string
	for _, c := range chainSplitRe.Split(m[1], -1) {
		if c = strings.TrimSpace(c); c != "" {
			chains = append(chains, strings.ToUpper(c))
		}
	}
	if len(chains) == 0 {
		return []string{"A"}
	}
	return chains
}

// BoltzRecords expands each record into one ">{CHAIN}|PROTEIN|" record per chain.
func BoltzRecords(records []Record) []Record {
	var out []Record
	for _, r := range records {
		if r.Sequence == "" {
			continue
		}
		for _, ch := range ParseChains(r.Header) {
			out = append(out, Record{Header: ">" + ch + "|PROTEIN|", Sequence: r.Sequence})
		}
	}
	return out
}

// Write emits records with one header line and one sequence line each.
func Write(w io.Writer, records []Record) error {
	bw := bufio.NewWriter(w)
	for _, r := range records {
		if _, err := fmt.Fprintf(bw, "%s\n%s\n", r.Header, r.Sequence); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// BoltzInputName is written next to each sequence file.
const BoltzInputName = "boltz_input.fasta"

// PrepareBoltzInputs converts every <root>/*/<seqName> into a sibling
// boltz_input.fasta and returns the files written, sorted.
func PrepareBoltzInputs(root, seqName string) ([]string, error) {
	matches, err := filepath.Glob(filepath.Join(root, "*", seqName))
	if err != nil {
		return nil, fmt.Errorf("glob %s: %w", seqName, err)
	}
	sort.Strings(matches)

	var written []string
	for _, src := range matches {
		dest := filepath.Join(filepath.Dir(src), BoltzInputName)
		if err := convertFile(src, dest); err != nil {
			return written, err
		}
		written = append(written, dest)
	}
	return written, nil
}

func convertFile(src, dest string) error {
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("open %s: %w", src, err)
	}
	defer in.Close()

	records, err := Parse(in)
	if err != nil {
		return fmt.Errorf("parse %s: %w", src, err)
	}

	out, err := os.Create(dest)
	if err != nil {
		return fmt.Errorf("create %s: %w", dest, err)
	}
	if err := Write(out, BoltzRecords(records)); err != nil {
		_ = out.Close()
		return fmt.Errorf("write %s: %w", dest, err)
	}
	return out.Close()
}
