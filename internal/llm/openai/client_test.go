package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/forms-intake/constants"
	"github.com/joseph-ayodele/forms-intake/internal/common"
	"github.com/joseph-ayodele/forms-intake/internal/llm"
	"github.com/joseph-ayodele/forms-intake/internal/samples"
	"github.com/joseph-ayodele/forms-intake/internal/validation"
)

// fakeResponses serves POST /v1/responses with a canned output_text and records request bodies.
type fakeResponses struct {
	mu       sync.Mutex
	text     string
	status   int
	requests []map[string]any
}

func (f *fakeResponses) handler(t *testing.T) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/responses", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		body, _ := io.ReadAll(r.Body)
		var req map[string]any
		_ = json.Unmarshal(body, &req)
		f.mu.Lock()
		f.requests = append(f.requests, req)
		f.mu.Unlock()

		w.Header().Set("Content-Type", "application/json")
		if f.status != 0 && f.status != http.StatusOK {
			w.WriteHeader(f.status)
			_, _ = w.Write([]byte(`{"error":{"message":"boom","type":"server_error"}}`))
			return
		}
		_ = json.NewEncoder(w).Encode(responseFixture(f.text))
	})
}

func (f *fakeResponses) last() map[string]any {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.requests) == 0 {
		return nil
	}
	return f.requests[len(f.requests)-1]
}

func responseFixture(text string) map[string]any {
	return map[string]any{
		"id":         "resp_67ccd2bed1ec8190b14f964abc0542670bb6a6b452d3795b",
		"object":     "response",
		"created_at": 1741476542,
		"status":     "completed",
		"model":      "gpt-4o-mini",
		"output": []any{
			map[string]any{
				"type":   "message",
				"id":     "msg_67ccd2bf17f0819081ff3bb2cf6508e60bb6a6b452d3795b",
				"status": "completed",
				"role":   "assistant",
				"content": []any{
					map[string]any{"type": "output_text", "text": text, "annotations": []any{}},
				},
			},
		},
		"parallel_tool_calls": true,
		"tool_choice":         "auto",
		"tools":               []any{},
		"usage": map[string]any{
			"input_tokens":          36,
			"input_tokens_details":  map[string]any{"cached_tokens": 0},
			"output_tokens":         12,
			"output_tokens_details": map[string]any{"reasoning_tokens": 0},
			"total_tokens":          48,
		},
	}
}

func newTestClient(t *testing.T, f *fakeResponses) *Client {
	t.Helper()
	srv := httptest.NewServer(f.handler(t))
	t.Cleanup(srv.Close)
	return NewClient(Config{APIKey: "test-key", BaseURL: srv.URL + "/v1", Timeout: 5 * time.Second}, nil)
}

func pngDoc() llm.Document {
	return llm.Document{Name: "abc.png", ContentType: constants.ContentTypePNG, Data: []byte("\x89PNG\r\n\x1a\nfake")}
}

func TestClassify_BareLabel(t *testing.T) {
	f := &fakeResponses{text: "Cheque Book Request"}
	c := newTestClient(t, f)

	cls, err := c.Classify(context.Background(), pngDoc())
	require.NoError(t, err)
	assert.Equal(t, "Cheque Book Request", cls.FormType)
	require.NotNil(t, cls.Confidence)
	assert.Equal(t, 0.9, *cls.Confidence)

	req := f.last()
	require.NotNil(t, req)
	assert.Equal(t, "gpt-4o-mini", req["model"])
	assert.EqualValues(t, 50, req["max_output_tokens"])
	raw, _ := json.Marshal(req["input"])
	assert.Contains(t, string(raw), "Classify this banking form into one of the following types")
	assert.Contains(t, string(raw), "data:image/png;base64,")
}

func TestClassify_JSONVerdictIsCanonicalizedAndClamped(t *testing.T) {
	f := &fakeResponses{text: `{"form_type": "kyc update", "confidence": 1.7}`}
	c := newTestClient(t, f)

	cls, err := c.Classify(context.Background(), pngDoc())
	require.NoError(t, err)
	assert.Equal(t, string(constants.KYCUpdate), cls.FormType)
	assert.Equal(t, 1.0, *cls.Confidence)
}

func TestClassify_UnknownLabelPropagates(t *testing.T) {
	f := &fakeResponses{text: "Loan Application"}
	c := newTestClient(t, f)

	cls, err := c.Classify(context.Background(), pngDoc())
	require.NoError(t, err)
	assert.Equal(t, "Loan Application", cls.FormType)
}

func TestClassify_PDFUsesTextLayer(t *testing.T) {
	f := &fakeResponses{text: "RTGS/NEFT Transfer"}
	c := newTestClient(t, f)

	doc := llm.Document{Name: "x.pdf", ContentType: constants.ContentTypePDF, Data: renderPDF(t, constants.RTGSNEFTTransfer)}
	cls, err := c.Classify(context.Background(), doc)
	require.NoError(t, err)
	assert.Equal(t, string(constants.RTGSNEFTTransfer), cls.FormType)

	raw, _ := json.Marshal(f.last()["input"])
	assert.Contains(t, string(raw), "XYZB0000123")
	assert.NotContains(t, string(raw), "application/pdf;base64")
}

func TestClassify_MissingKeyIsConfigError(t *testing.T) {
	f := &fakeResponses{text: "KYC Update"}
	srv := httptest.NewServer(f.handler(t))
	defer srv.Close()
	c := NewClient(Config{BaseURL: srv.URL + "/v1"}, nil)

	_, err := c.Classify(context.Background(), pngDoc())
	require.Error(t, err)
	assert.ErrorIs(t, err, common.ErrConfig)
	assert.Nil(t, f.last(), "no request must be sent without a key")

	_, err = c.Parse(context.Background(), "text", "KYC Update")
	assert.ErrorIs(t, err, common.ErrConfig)
}

func TestClassify_UpstreamFailureIsNotRetried(t *testing.T) {
	f := &fakeResponses{status: http.StatusInternalServerError}
	c := newTestClient(t, f)

	_, err := c.Classify(context.Background(), pngDoc())
	require.Error(t, err)
	assert.ErrorIs(t, err, common.ErrUpstream)
	assert.Len(t, f.requests, 1)
}

func TestExtractText_Image(t *testing.T) {
	f := &fakeResponses{text: "Customer Name: John Doe\n\n\n\nAccount Number: 1234567890"}
	c := newTestClient(t, f)

	res, err := c.ExtractText(context.Background(), pngDoc())
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.Equal(t, llm.MethodVision, res.Method)
	assert.Equal(t, "Customer Name: John Doe\n\nAccount Number: 1234567890", res.Text)
	assert.EqualValues(t, 2000, f.last()["max_output_tokens"])
}

func TestExtractText_EmptyReplyIsNotSuccess(t *testing.T) {
	c := newTestClient(t, &fakeResponses{text: "   "})
	res, err := c.ExtractText(context.Background(), pngDoc())
	require.NoError(t, err)
	assert.False(t, res.Success)
}

func TestExtractText_PDFTextLayerNeedsNoModel(t *testing.T) {
	f := &fakeResponses{}
	c := NewClient(Config{}, nil) // no key: the text layer is read locally

	doc := llm.Document{ContentType: constants.ContentTypePDF, Data: renderPDF(t, constants.LockerAccessSurrender)}
	res, err := c.ExtractText(context.Background(), doc)
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.Equal(t, llm.MethodPDFText, res.Method)
	assert.Contains(t, res.Text, "L-123")
	assert.Nil(t, f.last())
}

func TestParse(t *testing.T) {
	f := &fakeResponses{text: `{"form_type":"Cheque Book Request","customer_name":"John Doe","account_number":"","number_of_leaves":25,"email":"john.doe@example.com","extra":"x"}`}
	c := newTestClient(t, f)

	res, err := c.Parse(context.Background(), "Customer Name: John Doe", "Cheque Book Request")
	require.NoError(t, err)
	assert.Equal(t, "John Doe", res.Data["customer_name"])
	assert.Equal(t, "", res.Data["account_number"])
	assert.Equal(t, "25", res.Data["number_of_leaves"])
	assert.Equal(t, "", res.Data["delivery_address"])
	assert.NotContains(t, res.Data, "extra")
	assert.JSONEq(t, string(res.Raw), mustMarshal(t, res.Data))

	req := f.last()
	assert.InDelta(t, 0.1, req["temperature"], 1e-9)
	format := req["text"].(map[string]any)["format"].(map[string]any)
	assert.Equal(t, "json_object", format["type"])
	raw, _ := json.Marshal(req["input"])
	assert.Contains(t, string(raw), "You are a JSON API. Always return ONLY valid JSON.")
	assert.Contains(t, string(raw), "Extract information from this Cheque Book Request banking form")
}

func TestParse_UnknownTypeUsesChequeBookTemplate(t *testing.T) {
	f := &fakeResponses{text: `{"customer_name":"A"}`}
	c := newTestClient(t, f)

	res, err := c.Parse(context.Background(), "text", "Loan Application")
	require.NoError(t, err)
	assert.Equal(t, "Loan Application", res.Data["form_type"])
	assert.Contains(t, res.Data, "number_of_leaves")
}

func TestParse_NonJSONIsParseError(t *testing.T) {
	c := newTestClient(t, &fakeResponses{text: "Sorry, I cannot read this form."})
	_, err := c.Parse(context.Background(), "text", "KYC Update")
	require.Error(t, err)
	assert.ErrorIs(t, err, common.ErrParse)
}

func TestParse_ProseWrappedJSONIsParseError(t *testing.T) {
	replies := map[string]string{
		"prose":  "Sure! Here is the extracted data:\n{\"customer_name\":\"John Doe\",\"account_number\":\"1\"}\nLet me know if you need more.",
		"fenced": "```json\n{\"customer_name\":\"John Doe\"}\n```",
		"two":    `{"customer_name":"A"} {"customer_name":"B"}`,
		"array":  `[{"customer_name":"A"}]`,
	}
	for name, text := range replies {
		t.Run(name, func(t *testing.T) {
			c := newTestClient(t, &fakeResponses{text: text})
			res, err := c.Parse(context.Background(), "text", "Cheque Book Request")
			require.Error(t, err)
			assert.ErrorIs(t, err, common.ErrParse)
			assert.Nil(t, res.Data)
		})
	}
}

func TestParse_NestedValueIsKeptAsJSON(t *testing.T) {
	f := &fakeResponses{text: `{"form_type":"Cheque Book Request","customer_name":"John Doe","account_number":"1234567890","number_of_leaves":"25","email":"john.doe@example.com","delivery_address":{"line1":"1 Main St","city":"Pune"}}`}
	c := newTestClient(t, f)

	res, err := c.Parse(context.Background(), "text", "Cheque Book Request")
	require.NoError(t, err)
	assert.JSONEq(t, `{"line1":"1 Main St","city":"Pune"}`, res.Data["delivery_address"])

	v := validation.Validate(res.Data, "Cheque Book Request")
	assert.Equal(t, constants.StatusReady, v.Status)
	assert.Empty(t, v.MissingFields)
}

func TestParse_LogsAcknowledgmentID(t *testing.T) {
	f := &fakeResponses{text: `{"customer_name":"A"}`}
	srv := httptest.NewServer(f.handler(t))
	t.Cleanup(srv.Close)
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))
	c := NewClient(Config{APIKey: "test-key", BaseURL: srv.URL + "/v1", Timeout: 5 * time.Second}, logger)

	ctx := common.WithAcknowledgmentID(context.Background(), "ACK-20250101-0000ABCD")
	_, err := c.Parse(ctx, "text", "KYC Update")
	require.NoError(t, err)
	assert.Contains(t, buf.String(), `"ack_id":"ACK-20250101-0000ABCD"`)
}

func TestInterpretClassification(t *testing.T) {
	cases := []struct {
		raw   string
		want  string
		conf  float64
		known bool
	}{
		{"Account Opening", "Account Opening", 0.9, true},
		{"Form type: ATM Card Block/Replacement.", "ATM Card Block/Replacement", 0.9, true},
		{"\"Locker Access/Surrender\"", "Locker Access/Surrender", 0.9, true},
		{"```json\n{\"form_type\":\"Address Change Request\",\"confidence\":0.72}\n```", "Address Change Request", 0.72, true},
		{`{"form_type":"Something Else","confidence":-3}`, "Something Else", 0, false},
	}
	for _, tc := range cases {
		t.Run(tc.raw, func(t *testing.T) {
			cls, known := interpretClassification(tc.raw)
			assert.Equal(t, tc.want, cls.FormType)
			assert.InDelta(t, tc.conf, *cls.Confidence, 1e-9)
			assert.Equal(t, tc.known, known)
			assert.Equal(t, tc.raw, cls.Raw)
		})
	}
}

func mustMarshal(t *testing.T, v any) string {
	t.Helper()
	b, err := json.Marshal(v)
	require.NoError(t, err)
	return strings.TrimSpace(string(b))
}

func renderPDF(t *testing.T, ft constants.FormType) []byte {
	t.Helper()
	data, err := samples.RenderPDF(ft)
	require.NoError(t, err)
	return data
}
