package governance

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEngine_DefaultTable_StrictestFirst(t *testing.T) {
	e, err := New(nil)
	require.NoError(t, err)

	cases := []struct {
		risk RiskLevel
		want Authority
	}{
		{RiskCritical, RequireHuman},
		{RiskHigh, RequireApproval},
		{RiskMedium, LogOnly},
		{RiskLow, AutoApprove},
	}
	for _, c := range cases {
		d := e.Evaluate(Request{ToolName: "t", RiskLevel: c.risk})
		assert.Equal(t, c.want, d.Authority, "risk=%s", c.risk)
	}
}

func TestEngine_RequiresApprovalRaisesFloor(t *testing.T) {
	e, err := New(nil)
	require.NoError(t, err)

	d := e.Evaluate(Request{ToolName: "wire_transfer", RiskLevel: RiskLow, RequiresApproval: true})
	assert.Equal(t, RequireApproval, d.Authority)

	d = e.Evaluate(Request{ToolName: "wire_transfer", RiskLevel: RiskCritical, RequiresApproval: true})
	assert.Equal(t, RequireHuman, d.Authority)
}

func TestEngine_CanAutoExecute(t *testing.T) {
	e, err := New(nil)
	require.NoError(t, err)

	d := e.Evaluate(Request{ToolName: "t", RiskLevel: RiskLow})
	assert.True(t, d.CanAutoExecute())

	d = e.Evaluate(Request{ToolName: "t", RiskLevel: RiskHigh})
	assert.False(t, d.CanAutoExecute())
}

func TestEngine_RecentDecisions_BoundedLog(t *testing.T) {
	e, err := New(nil)
	require.NoError(t, err)

	for i := 0; i < 5; i++ {
		e.Evaluate(Request{ToolName: "t", RiskLevel: RiskLow})
	}
	recent := e.RecentDecisions(2)
	assert.Len(t, recent, 2)
}

func TestEngine_ValueThresholdEscalation(t *testing.T) {
	e, err := New(nil)
	require.NoError(t, err)

	threshold := 1000.0
	table := map[RiskLevel]Policy{
		RiskLow: {RiskLevel: RiskLow, Authority: AutoApprove, MaxAutoApproveValue: &threshold},
	}
	e.table.Store(&table)

	small := 500.0
	d := e.Evaluate(Request{ToolName: "payment", RiskLevel: RiskLow, EstimatedValue: &small})
	assert.Equal(t, AutoApprove, d.Authority)

	large := 5000.0
	d = e.Evaluate(Request{ToolName: "payment", RiskLevel: RiskLow, EstimatedValue: &large})
	assert.Equal(t, RequireApproval, d.Authority)
}

func TestEngine_ValueThresholdEscalation_HighRiskPromotesToRequireHuman(t *testing.T) {
	e, err := New(nil)
	require.NoError(t, err)

	threshold := 1000.0
	table := map[RiskLevel]Policy{
		RiskHigh: {RiskLevel: RiskHigh, Authority: RequireApproval, MaxAutoApproveValue: &threshold},
	}
	e.table.Store(&table)

	value := 1500.0
	d := e.Evaluate(Request{ToolName: "wire_transfer", RiskLevel: RiskHigh, EstimatedValue: &value})
	assert.Equal(t, RequireHuman, d.Authority)
	assert.Contains(t, d.Reason, "Value threshold exceeded")
}
