package extraction

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/MedRx-Intelligence/internal/domain/prescription"
)

type stubModel struct {
	available bool
	mentions  []prescription.DrugMention
}

func (s *stubModel) Available() bool { return s.available }

func (s *stubModel) Extract(ctx context.Context, text string) []prescription.DrugMention {
	return s.mentions
}

func TestPipeline_Process_RulesOnly(t *testing.T) {
	p := NewPipeline(nil, nil, nil, nil, nil)

	res := p.Process(context.Background(), "Metformin 500mg BID for 30 days\nAspirin 81mg once daily")
	require.Len(t, res.Drugs, 2)
	assert.Equal(t, "rules", res.Source)
	assert.Equal(t, "Metformin", res.Drugs[0].DrugName)
	assert.Equal(t, "500mg", res.Drugs[0].Dosage)
	assert.Equal(t, "2x daily", res.Drugs[0].Frequency)
	assert.Equal(t, "30 days", res.Drugs[0].Duration)
	assert.Empty(t, res.Alerts)
}

func TestPipeline_Process_EmptyText(t *testing.T) {
	p := NewPipeline(nil, nil, nil, nil, nil)

	res := p.Process(context.Background(), "")
	assert.Empty(t, res.Drugs)
	require.Len(t, res.Alerts, 1)
	assert.Equal(t, "No medications detected in prescription", res.Alerts[0].Message)
}

func TestPipeline_Process_ModelWins(t *testing.T) {
	model := &stubModel{available: true, mentions: []prescription.DrugMention{
		{DrugName: "Lisinopril", Confidence: 0.93},
	}}
	p := NewPipeline(nil, model, nil, nil, nil)

	res := p.Process(context.Background(), "Metformin 500mg BID")
	require.Len(t, res.Drugs, 1)
	assert.Equal(t, "model", res.Source)
	assert.Equal(t, "Lisinopril", res.Drugs[0].DrugName)
	// Model mentions carry no dosage or frequency, so both alerts fire.
	assert.Equal(t, []string{
		"Dosage unclear for Lisinopril",
		"Frequency not specified for Lisinopril",
	}, res.AlertMessages())
}

func TestPipeline_Process_UnavailableModelIgnored(t *testing.T) {
	model := &stubModel{available: false, mentions: []prescription.DrugMention{
		{DrugName: "ShouldNotAppear"},
	}}
	p := NewPipeline(nil, model, nil, nil, nil)

	res := p.Process(context.Background(), "Metformin 500mg BID")
	require.Len(t, res.Drugs, 1)
	assert.Equal(t, "rules", res.Source)
	assert.Equal(t, "Metformin", res.Drugs[0].DrugName)
}

func TestPipeline_Process_InteractionWarningsAppended(t *testing.T) {
	p := NewPipeline(nil, nil, nil, nil, nil)

	res := p.Process(context.Background(), "Warfarin 5mg once daily\nAspirin 81mg once daily")
	require.Len(t, res.Drugs, 2)
	msgs := res.AlertMessages()
	require.NotEmpty(t, msgs)
	assert.Equal(t, "INTERACTION WARNING: Warfarin + Aspirin", msgs[len(msgs)-1])
}

func TestPipeline_Process_NoInteractionCheckWithoutDrugs(t *testing.T) {
	p := NewPipeline(nil, nil, nil, nil, nil)

	res := p.Process(context.Background(), "ab\n")
	require.Len(t, res.Alerts, 1)
	assert.Equal(t, CauseNoDrugsFound, res.Alerts[0].Cause)
}
