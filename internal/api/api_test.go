package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/legalform/internal/detect"
	"github.com/sells-group/legalform/internal/elf"
)

type mockDetector struct {
	mock.Mock
}

func (m *mockDetector) Detect(ctx context.Context, name, jurisdiction string, top int) ([]detect.Prediction, error) {
	args := m.Called(ctx, name, jurisdiction, top)
	preds, _ := args.Get(0).([]detect.Prediction)
	return preds, args.Error(1)
}

type staticModels []string

func (s staticModels) List(context.Context) ([]string, error) {
	return s, nil
}

func testIndex() *elf.Index {
	return elf.FromReferenceTable([]elf.ReferenceRow{
		{Country: "DE", Code: "2HBR", Abbreviations: "GmbH"},
		{Country: "DE", Code: "40DB", Abbreviations: "OHG"},
		{Country: "DE", Code: "FR1B", Abbreviations: "GmbH"},
	})
}

func newTestServer(t *testing.T, d Detector) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(NewServer(d, testIndex(), staticModels{"DE", "FR"}).Router())
	t.Cleanup(srv.Close)
	return srv
}

func postDetect(t *testing.T, srv *httptest.Server, body string) *http.Response {
	t.Helper()
	resp, err := http.Post(srv.URL+"/v1/detect", "application/json", strings.NewReader(body))
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() }) //nolint:errcheck
	return resp
}

func TestHealth(t *testing.T) {
	srv := newTestServer(t, new(mockDetector))

	resp, err := http.Get(srv.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close() //nolint:errcheck
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))
}

func TestDetect_OK(t *testing.T) {
	d := new(mockDetector)
	d.On("Detect", mock.Anything, "Gamma GmbH", "DE", 1).
		Return([]detect.Prediction{{Code: "2HBR", Name: "GmbH", Score: 0.9}}, nil)
	srv := newTestServer(t, d)

	resp := postDetect(t, srv, `{"name":"Gamma GmbH","jurisdiction":"DE","top":1}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var got DetectResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&got))
	assert.Equal(t, "DE", got.Jurisdiction)
	assert.Equal(t, []detect.Prediction{{Code: "2HBR", Name: "GmbH", Score: 0.9}}, got.Predictions)
	d.AssertExpectations(t)
}

func TestDetect_ModelOverridesJurisdiction(t *testing.T) {
	d := new(mockDetector)
	d.On("Detect", mock.Anything, "Acme GmbH", "DE", 0).Return([]detect.Prediction{}, nil)
	srv := newTestServer(t, d)

	resp := postDetect(t, srv, `{"name":"Acme GmbH","jurisdiction":"AT","model":"DE"}`)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	d.AssertExpectations(t)
}

func TestDetect_BadRequests(t *testing.T) {
	srv := newTestServer(t, new(mockDetector))

	tests := []struct {
		name string
		body string
		want string
	}{
		{"malformed", `{"name":`, "invalid request body"},
		{"no name", `{"jurisdiction":"DE"}`, "name is required"},
		{"no jurisdiction", `{"name":"Acme"}`, "jurisdiction is required"},
		{"top too large", `{"name":"Acme","jurisdiction":"DE","top":500}`, "top out of range"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := postDetect(t, srv, tt.body)
			assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
			var e errorResponse
			require.NoError(t, json.NewDecoder(resp.Body).Decode(&e))
			assert.Equal(t, tt.want, e.Error)
		})
	}
}

func TestDetect_NoModel(t *testing.T) {
	d := new(mockDetector)
	d.On("Detect", mock.Anything, "Acme", "FR", 0).Return(nil, eris.Wrap(detect.ErrNoDetector, "FR"))
	srv := newTestServer(t, d)

	resp := postDetect(t, srv, `{"name":"Acme","jurisdiction":"FR"}`)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestDetect_InternalError(t *testing.T) {
	d := new(mockDetector)
	d.On("Detect", mock.Anything, "Acme", "DE", 0).Return(nil, eris.New("disk on fire"))
	srv := newTestServer(t, d)

	resp := postDetect(t, srv, `{"name":"Acme","jurisdiction":"DE"}`)
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	var e errorResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&e))
	assert.NotContains(t, e.Error, "disk")
}

func TestAbbreviations(t *testing.T) {
	srv := newTestServer(t, new(mockDetector))

	resp, err := http.Get(srv.URL + "/v1/abbreviations/DE")
	require.NoError(t, err)
	defer resp.Body.Close() //nolint:errcheck
	var got AbbreviationsResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&got))
	assert.Equal(t, []string{"GmbH", "OHG"}, got.Abbreviations)

	resp2, err := http.Get(srv.URL + "/v1/abbreviations/DE?abbr=GmbH")
	require.NoError(t, err)
	defer resp2.Body.Close() //nolint:errcheck
	var codes AbbreviationsResponse
	require.NoError(t, json.NewDecoder(resp2.Body).Decode(&codes))
	assert.Equal(t, "GmbH", codes.Abbreviation)
	assert.Equal(t, []string{"2HBR", "FR1B"}, codes.Codes)
}

func TestAbbreviations_UnknownJurisdiction(t *testing.T) {
	srv := newTestServer(t, new(mockDetector))

	resp, err := http.Get(srv.URL + "/v1/abbreviations/XX")
	require.NoError(t, err)
	defer resp.Body.Close() //nolint:errcheck
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	var got AbbreviationsResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&got))
	assert.Empty(t, got.Abbreviations)
}

func TestModels(t *testing.T) {
	srv := newTestServer(t, new(mockDetector))

	resp, err := http.Get(srv.URL + "/v1/models")
	require.NoError(t, err)
	defer resp.Body.Close() //nolint:errcheck
	var got ModelsResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&got))
	assert.Equal(t, []string{"DE", "FR"}, got.Models)
}

func TestCORSPreflight(t *testing.T) {
	srv := newTestServer(t, new(mockDetector))

	req, err := http.NewRequest(http.MethodOptions, srv.URL+"/v1/detect", bytes.NewReader(nil))
	require.NoError(t, err)
	req.Header.Set("Origin", "https://example.com")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close() //nolint:errcheck
	assert.Equal(t, "*", resp.Header.Get("Access-Control-Allow-Origin"))
}
