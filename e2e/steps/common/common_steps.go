// Package common holds steps shared across features: reachability,
// plain GETs, and response assertions.
package common

import (
	"fmt"

	"github.com/cucumber/godog"
)

// TestContext is the slice of the suite context these steps need.
type TestContext interface {
	CheckHealth() error
	GET(path string, headers map[string]string) error
	GetLastResponseStatus() int
	GetLastResponseBody() []byte
	GetResponseField(field string) (interface{}, error)
	ResponseHasField(field string) (bool, error)
}

type commonSteps struct {
	tc TestContext
}

func RegisterSteps(ctx *godog.ScenarioContext, tc TestContext) {
	s := &commonSteps{tc: tc}

	ctx.Step(`^the issuance service is running$`, s.serviceIsRunning)
	ctx.Step(`^I GET "([^"]*)"$`, s.iGET)
	ctx.Step(`^the response status should be (\d+)$`, s.responseStatusShouldBe)
	ctx.Step(`^the response field "([^"]*)" should be "([^"]*)"$`, s.responseFieldShouldBe)
	ctx.Step(`^the response should not contain field "([^"]*)"$`, s.responseShouldNotContainField)
}

func (s *commonSteps) serviceIsRunning() error {
	return s.tc.CheckHealth()
}

func (s *commonSteps) iGET(path string) error {
	return s.tc.GET(path, nil)
}

func (s *commonSteps) responseStatusShouldBe(expected int) error {
	got := s.tc.GetLastResponseStatus()
	if got != expected {
		return fmt.Errorf("expected status %d, got %d: %s", expected, got, s.tc.GetLastResponseBody())
	}
	return nil
}

func (s *commonSteps) responseFieldShouldBe(field, expected string) error {
	v, err := s.tc.GetResponseField(field)
	if err != nil {
		return err
	}
	if got := fmt.Sprintf("%v", v); got != expected {
		return fmt.Errorf("expected field %q to be %q, got %q", field, expected, got)
	}
	return nil
}

func (s *commonSteps) responseShouldNotContainField(field string) error {
	has, err := s.tc.ResponseHasField(field)
	if err != nil {
		return err
	}
	if has {
		return fmt.Errorf("expected response without field %q: %s", field, s.tc.GetLastResponseBody())
	}
	return nil
}
