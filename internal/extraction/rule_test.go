package extraction

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/MedRx-Intelligence/internal/domain/prescription"
)

func TestRuleExtractor_ExtractLine(t *testing.T) {
	e := NewRuleExtractor()

	tests := []struct {
		name string
		line string
		want prescription.DrugMention
		ok   bool
	}{
		{
			name: "full prescription line",
			line: "Metformin 500mg BID for 30 days",
			want: prescription.DrugMention{
				DrugName:   "Metformin",
				Dosage:     "500mg",
				Frequency:  "2x daily",
				Duration:   "30 days",
				Confidence: 1.0,
			},
			ok: true,
		},
		{
			name: "lowercase abbreviation",
			line: "Metformin 500mg bid",
			want: prescription.DrugMention{
				DrugName:   "Metformin",
				Dosage:     "500mg",
				Frequency:  "2x daily",
				Confidence: 1.0,
			},
			ok: true,
		},
		{
			name: "unit-count dosage when no strength present",
			line: "Aspirin 2 tablets once daily",
			want: prescription.DrugMention{
				DrugName:   "Aspirin",
				Dosage:     "2 tablets",
				Frequency:  "1x daily",
				Confidence: 1.0,
			},
			ok: true,
		},
		{
			name: "strength beats tablet count",
			line: "Aspirin 81mg 2 tablets once daily",
			want: prescription.DrugMention{
				DrugName:   "Aspirin",
				Dosage:     "81mg",
				Frequency:  "1x daily",
				Confidence: 1.0,
			},
			ok: true,
		},
		{
			name: "decimal dosage preserved verbatim",
			line: "Levothyroxine 0.5 mg QHS",
			want: prescription.DrugMention{
				DrugName:   "Levothyroxine",
				Dosage:     "0.5 mg",
				Frequency:  "at bedtime",
				Confidence: 1.0,
			},
			ok: true,
		},
		{
			name: "hourly abbreviation",
			line: "Amoxicillin 250mg Q8H x 7 days",
			want: prescription.DrugMention{
				DrugName:   "Amoxicillin",
				Dosage:     "250mg",
				Frequency:  "every X hours",
				Duration:   "7 days",
				Confidence: 1.0,
			},
			ok: true,
		},
		{
			name: "prn frequency",
			line: "Ibuprofen 400mg PRN",
			want: prescription.DrugMention{
				DrugName:   "Ibuprofen",
				Dosage:     "400mg",
				Frequency:  "as needed",
				Confidence: 1.0,
			},
			ok: true,
		},
		{
			name: "no dosage truncates name to leading tokens",
			line: "Vitamin D supplement as directed by physician",
			want: prescription.DrugMention{
				DrugName:   "Vitamin D supplement as",
				Confidence: 1.0,
			},
			ok: true,
		},
		{
			// Bare "daily" is not in the abbreviation table; only the
			// duration matches.
			name: "duration with week unit pluralized",
			line: "Prednisone 10mg daily for 1 week",
			want: prescription.DrugMention{
				DrugName:   "Prednisone",
				Dosage:     "10mg",
				Duration:   "1 weeks",
				Confidence: 1.0,
			},
			ok: true,
		},
		{name: "too short after trim", line: "  ab ", ok: false},
		{name: "blank line", line: "", ok: false},
		{name: "line starting with dosage has no name", line: "500mg twice daily", ok: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := e.ExtractLine(tt.line)
			require.Equal(t, tt.ok, ok)
			if ok {
				assert.Equal(t, tt.want, got)
			}
		})
	}
}

func TestRuleExtractor_ExtractText_LineOrder(t *testing.T) {
	e := NewRuleExtractor()

	text := "Rx\nMetformin 500mg BID\n\nAspirin 81mg once daily\nok"
	mentions := e.ExtractText(text)
	require.Len(t, mentions, 2)
	assert.Equal(t, "Metformin", mentions[0].DrugName)
	assert.Equal(t, "Aspirin", mentions[1].DrugName)
}

func TestRuleExtractor_ExtractText_Empty(t *testing.T) {
	e := NewRuleExtractor()
	assert.Empty(t, e.ExtractText(""))
	assert.Empty(t, e.ExtractText(" \n \n"))
}
