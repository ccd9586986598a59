// Package score pulls Rosetta total_score values out of loosely structured
// text: PDB REMARK blocks and SCORE: files. Nothing here returns an error;
// malformed input yields "no value".
package score

import (
	"bufio"
	"io"
	"regexp"
	"strconv"
	"strings"
)

var directRe = regexp.MustCompile(`(?m)^REMARK.*?(?:SCORE|score).*?total_score\s+([+-]?\d+(?:\.\d+)?)`)

// TotalScore finds total_score in PDB text. It first tries a single REMARK
// line carrying "score ... total_score <n>", then falls back to a REMARK
// header row naming total_score and reads that column from the next data row
// that parses.
func TotalScore(pdb string) (float64, bool) {
	if pdb == "" {
		return 0, false
	}
	if m := directRe.FindStringSubmatch(pdb); m != nil {
		if v, err := strconv.ParseFloat(m[1], 64); err == nil {
			return v, true
		}
	}
	return scanRemarkTable(pdb)
}

func scanRemarkTable(pdb string) (float64, bool) {
	var lines []string
	for _, l := range strings.Split(pdb, "\n") {
		if strings.HasPrefix(l, "REMARK") {
			lines = append(lines, strings.TrimSpace(l[len("REMARK"):]))
		}
	}

	for i, txt := range lines {
		hdr := strings.Fields(txt)
		col := indexOf(hdr, "total_score")
		if col < 0 || (indexOf(hdr, "score") < 0 && indexOf(hdr, "fa_atr") < 0) {
			continue
		}
		for _, row := range lines[i+1:] {
			toks := strings.Fields(row)
			if col >= len(toks) {
				continue
			}
			if v, err := strconv.ParseFloat(toks[col], 64); err == nil {
				return v, true
			}
		}
		break
	}
	return 0, false
}

// ParseScoreFile maps decoy descriptions to total_score from a Rosetta
// score file. Only "SCORE:" lines are read; the first one (or any later one
// naming "description" in a non-numeric second field) is a header.
func ParseScoreFile(r io.Reader) map[string]float64 {
	out := make(map[string]float64)
	var header []string

	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 4<<20)
	for sc.Scan() {
		line := sc.Text()
		if !strings.HasPrefix(line, "SCORE:") {
			continue
		}
		toks := strings.Fields(line)
		if header == nil || (indexOf(toks, "description") >= 0 && len(toks) > 1 && !isNumber(toks[1])) {
			header = toks[1:]
			continue
		}

		data := toks[1:]
		if len(data) < len(header) {
			continue
		}
		cols := make(map[string]string, len(header))
		for i, h := range header {
			cols[h] = data[i]
		}
		desc := firstOf(cols, "description", "decoy", "tag", "desc")
		val := firstOf(cols, "total_score", "score")
		if desc == "" || val == "" {
			continue
		}
		if v, err := strconv.ParseFloat(val, 64); err == nil {
			out[desc] = v
		}
	}
	return out
}

func indexOf(toks []string, want string) int {
	for i, t := range toks {
		if t == want {
			return i
		}
	}
	return -1
}

func isNumber(s string) bool {
	_, err := strconv.ParseFloat(s, 64)
	return err == nil
}

func firstOf(cols map[string]string, keys ...string) string {
	for _, k := range keys {
		if v := cols[k]; v != "" {
			return v
		}
	}
	return ""
}
