// Package issuance holds steps for the bulk certificate issuance flow:
// authenticated uploads, batch report assertions, and the public lookup
// of an issued certificate.
package issuance

import (
	"fmt"

	"github.com/cucumber/godog"
)

// TestContext is the slice of the suite context these steps need.
type TestContext interface {
	Authenticate() error
	UploadFile(filename, content string) error
	GET(path string, headers map[string]string) error
	GetResponseField(field string) (interface{}, error)
	FirstIssuedID() (string, error)
}

type issuanceSteps struct {
	tc TestContext
}

func RegisterSteps(ctx *godog.ScenarioContext, tc TestContext) {
	s := &issuanceSteps{tc: tc}

	ctx.Step(`^I am authenticated as an operator$`, s.authenticatedAsOperator)
	ctx.Step(`^I submit a bulk issuance upload:$`, s.submitBulkUpload)
	ctx.Step(`^I submit a bulk issuance upload named "([^"]*)":$`, s.submitBulkUploadNamed)
	ctx.Step(`^the report should count (\d+) total rows and (\d+) valid rows$`, s.reportShouldCountRows)
	ctx.Step(`^the report should list (\d+) issued and (\d+) failed certificates$`, s.reportShouldListOutcomes)
	ctx.Step(`^the report should reject (\d+) rows?$`, s.reportShouldRejectRows)
	ctx.Step(`^I look up the first issued certificate without credentials$`, s.lookUpFirstIssued)
}

func (s *issuanceSteps) authenticatedAsOperator() error {
	return s.tc.Authenticate()
}

func (s *issuanceSteps) submitBulkUpload(doc *godog.DocString) error {
	return s.tc.UploadFile("recipients.csv", doc.Content)
}

func (s *issuanceSteps) submitBulkUploadNamed(filename string, doc *godog.DocString) error {
	return s.tc.UploadFile(filename, doc.Content)
}

func (s *issuanceSteps) reportShouldCountRows(total, valid int) error {
	if err := s.fieldEquals("total_rows", total); err != nil {
		return err
	}
	return s.fieldEquals("valid_rows", valid)
}

func (s *issuanceSteps) reportShouldListOutcomes(issued, failed int) error {
	if err := s.fieldEquals("issued_count", issued); err != nil {
		return err
	}
	return s.fieldEquals("failed_count", failed)
}

func (s *issuanceSteps) reportShouldRejectRows(rejected int) error {
	v, err := s.tc.GetResponseField("invalid_rows")
	if err != nil {
		return err
	}
	list, ok := v.([]interface{})
	if !ok {
		return fmt.Errorf("invalid_rows is not a list: %v", v)
	}
	if len(list) != rejected {
		return fmt.Errorf("expected %d rejected rows, got %d: %v", rejected, len(list), list)
	}
	return nil
}

func (s *issuanceSteps) lookUpFirstIssued() error {
	id, err := s.tc.FirstIssuedID()
	if err != nil {
		return err
	}
	return s.tc.GET("/api/v1/certificates/"+id, nil)
}

func (s *issuanceSteps) fieldEquals(field string, expected int) error {
	v, err := s.tc.GetResponseField(field)
	if err != nil {
		return err
	}
	// encoding/json decodes numbers into float64.
	got, ok := v.(float64)
	if !ok {
		return fmt.Errorf("field %q is not a number: %v", field, v)
	}
	if int(got) != expected {
		return fmt.Errorf("expected field %q to be %d, got %d", field, expected, int(got))
	}
	return nil
}
