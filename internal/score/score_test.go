package score

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestTotalScore(t *testing.T) {
	tests := []struct {
		name   string
		pdb    string
		want   float64
		wantOK bool
	}{
		{
			name:   "direct remark",
			pdb:    "HEADER x\nREMARK   1 SCORE info total_score -312.45\nATOM ...\n",
			want:   -312.45,
			wantOK: true,
		},
		{
			name: "header table",
			pdb: "REMARK label fa_atr fa_rep total_score\n" +
				"REMARK weights 1.0 0.55 -\n" +
				"REMARK pose -900.1 120.3 -255.7\n",
			want:   -255.7,
			wantOK: true,
		},
		{
			name:   "header without data",
			pdb:    "REMARK label score total_score\nREMARK\n",
			wantOK: false,
		},
		{name: "empty", pdb: "", wantOK: false},
		{name: "garbage", pdb: "REMARK total_score\x00\xff\n", wantOK: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := TotalScore(tt.pdb)
			if ok != tt.wantOK || (ok && got != tt.want) {
				t.Errorf("TotalScore() = (%v, %v), want (%v, %v)", got, ok, tt.want, tt.wantOK)
			}
		})
	}
}

func TestParseScoreFile(t *testing.T) {
	in := `SEQUENCE: MKV
SCORE: total_score fa_atr description
SCORE: -310.2 -800.0 model_0001
SCORE: -305.9 -790.1 model_0002
SCORE: broken
SCORE: score description
SCORE: -12.5 other_0001
not a score line
`
	got := ParseScoreFile(strings.NewReader(in))
	want := map[string]float64{
		"model_0001": -310.2,
		"model_0002": -305.9,
		"other_0001": -12.5,
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("ParseScoreFile mismatch (-want +got):\n%s", diff)
	}
}
