// Package e2e drives the issuance service over HTTP, end to end. It
// assumes a running server (and whatever backing stores it was started
// with); point E2E_BASE_URL at it and export E2E_API_TOKEN with a signed
// operator token for the authenticated scenarios.
package e2e

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"strings"
	"time"
)

// TestContext holds shared scenario state: the HTTP client, the operator
// token, and the last response. Reset clears per-scenario state.
type TestContext struct {
	baseURL  string
	apiToken string
	client   *http.Client

	authenticated bool
	lastStatus    int
	lastBody      []byte
}

func NewTestContext() *TestContext {
	base := os.Getenv("E2E_BASE_URL")
	if base == "" {
		base = "http://localhost:8080"
	}
	return &TestContext{
		baseURL:  strings.TrimSuffix(base, "/"),
		apiToken: os.Getenv("E2E_API_TOKEN"),
		client:   &http.Client{Timeout: 60 * time.Second},
	}
}

// Reset clears per-scenario state so scenarios stay independent.
func (tc *TestContext) Reset() {
	tc.authenticated = false
	tc.lastStatus = 0
	tc.lastBody = nil
}

// Authenticate marks subsequent uploads as operator-authenticated. It
// fails fast when no token was provided to the suite.
func (tc *TestContext) Authenticate() error {
	if tc.apiToken == "" {
		return fmt.Errorf("E2E_API_TOKEN is not set; export a signed operator token")
	}
	tc.authenticated = true
	return nil
}

// CheckHealth verifies the service answers on /healthz. A degraded
// response still counts as running; scenarios that need a dependency will
// fail on their own terms.
func (tc *TestContext) CheckHealth() error {
	if err := tc.GET("/healthz", nil); err != nil {
		return fmt.Errorf("service not reachable at %s: %w", tc.baseURL, err)
	}
	return nil
}

// GET performs a request and captures the response.
func (tc *TestContext) GET(path string, headers map[string]string) error {
	req, err := http.NewRequest(http.MethodGet, tc.baseURL+path, nil)
	if err != nil {
		return err
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	return tc.do(req)
}

// UploadFile submits one file as a multipart bulk issuance request. The
// Authorization header is attached only after Authenticate.
func (tc *TestContext) UploadFile(filename, content string) error {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", filename)
	if err != nil {
		return err
	}
	if _, err := io.WriteString(fw, content); err != nil {
		return err
	}
	if err := mw.Close(); err != nil {
		return err
	}

	req, err := http.NewRequest(http.MethodPost, tc.baseURL+"/api/v1/certificates/bulk", &buf)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	if tc.authenticated {
		req.Header.Set("Authorization", "Bearer "+tc.apiToken)
	}
	return tc.do(req)
}

func (tc *TestContext) do(req *http.Request) error {
	resp, err := tc.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	tc.lastStatus = resp.StatusCode
	tc.lastBody = body
	return nil
}

func (tc *TestContext) GetLastResponseStatus() int {
	return tc.lastStatus
}

func (tc *TestContext) GetLastResponseBody() []byte {
	return tc.lastBody
}

// GetResponseField returns a top-level field of the last JSON response.
func (tc *TestContext) GetResponseField(field string) (interface{}, error) {
	obj, err := tc.responseObject()
	if err != nil {
		return nil, err
	}
	v, ok := obj[field]
	if !ok {
		return nil, fmt.Errorf("field %q not in response: %s", field, tc.lastBody)
	}
	return v, nil
}

// ResponseHasField reports whether the last JSON response carries a
// top-level field, regardless of its value.
func (tc *TestContext) ResponseHasField(field string) (bool, error) {
	obj, err := tc.responseObject()
	if err != nil {
		return false, err
	}
	_, ok := obj[field]
	return ok, nil
}

// FirstIssuedID returns the issuance id of the first succeeded entry in
// the last batch report.
func (tc *TestContext) FirstIssuedID() (string, error) {
	v, err := tc.GetResponseField("succeeded")
	if err != nil {
		return "", err
	}
	list, ok := v.([]interface{})
	if !ok || len(list) == 0 {
		return "", fmt.Errorf("last report has no issued certificates: %s", tc.lastBody)
	}
	entry, ok := list[0].(map[string]interface{})
	if !ok {
		return "", fmt.Errorf("unexpected succeeded entry shape: %s", tc.lastBody)
	}
	id, ok := entry["issuance_id"].(string)
	if !ok || id == "" {
		return "", fmt.Errorf("succeeded entry has no issuance_id: %s", tc.lastBody)
	}
	return id, nil
}

func (tc *TestContext) responseObject() (map[string]interface{}, error) {
	var obj map[string]interface{}
	if err := json.Unmarshal(tc.lastBody, &obj); err != nil {
		return nil, fmt.Errorf("last response is not a JSON object: %s", tc.lastBody)
	}
	return obj, nil
}
