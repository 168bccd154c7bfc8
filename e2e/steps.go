package e2e

import (
	"github.com/cucumber/godog"

	"vellum/e2e/steps/common"
	"vellum/e2e/steps/issuance"
)

// RegisterSteps wires every step package against the shared test context.
func RegisterSteps(ctx *godog.ScenarioContext, tc *TestContext) {
	common.RegisterSteps(ctx, tc)
	issuance.RegisterSteps(ctx, tc)
}
