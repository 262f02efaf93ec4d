//go:build !integration

package main

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/buyergroup-cli/internal/cost"
	"github.com/sells-group/buyergroup-cli/internal/model"
	"github.com/sells-group/buyergroup-cli/internal/query"
	"github.com/sells-group/buyergroup-cli/internal/registry"
)

func TestFormatPlan(t *testing.T) {
	prof, err := registry.New("").Load("enterprise-saas")
	require.NoError(t, err)

	target := model.Target{CompanyName: "Dell Technologies", Aliases: []string{"Dell EMC"}}
	plan := query.NewBuilder(12, 25, cost.DefaultRates()).Build(target, prof)
	require.NotEmpty(t, plan.Queries)

	var buf bytes.Buffer
	formatPlan(&buf, plan, prof)

	output := buf.String()
	assert.Contains(t, output, "Profile: enterprise-saas (enterprise)")
	assert.Contains(t, output, "LABEL")
	assert.Contains(t, output, "CREDITS")
	assert.Contains(t, output, "company:Dell Technologies")
	assert.Contains(t, output, "company:Dell EMC")
	assert.Contains(t, output, "dept:sales")
	assert.Contains(t, output, "leadership")
	assert.Contains(t, output, "Planned searches:")
}

func TestFormatPlan_CreditTotalMatchesPlan(t *testing.T) {
	prof, err := registry.New("").Load("mid-market-saas")
	require.NoError(t, err)

	plan := query.NewBuilder(12, 25, cost.DefaultRates()).Build(model.Target{CompanyName: "Initech"}, prof)

	var buf bytes.Buffer
	formatPlan(&buf, plan, prof)

	assert.Contains(t, buf.String(), "Planned searches: 6 (6 credits)")
}

func TestFormatEstimate(t *testing.T) {
	report := &model.Report{
		CreditsUsed:  model.CreditsUsed{Search: 8, Collect: 100},
		EstimatedUSD: 0.216,
		Warnings:     []string{"budget_exhausted:collect"},
	}

	var buf bytes.Buffer
	formatEstimate(&buf, report)

	output := buf.String()
	assert.Contains(t, output, "Search credits:")
	assert.Contains(t, output, "8")
	assert.Contains(t, output, "Collect credits:")
	assert.Contains(t, output, "100")
	assert.Contains(t, output, "Total credits:")
	assert.Contains(t, output, "108")
	assert.Contains(t, output, "$0.2160")
	assert.Contains(t, output, "budget_exhausted:collect")
}

func TestFormatEstimate_NoWarnings(t *testing.T) {
	report := &model.Report{
		CreditsUsed: model.CreditsUsed{Search: 2},
	}

	var buf bytes.Buffer
	formatEstimate(&buf, report)

	assert.NotContains(t, buf.String(), "Warnings")
}
