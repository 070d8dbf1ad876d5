package api_test

import (
	"bufio"
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/joseph-ayodele/forms-intake/internal/api"
)

func logEntries(buf *bytes.Buffer) []map[string]any {
	var out []map[string]any
	sc := bufio.NewScanner(bytes.NewReader(buf.Bytes()))
	sc.Buffer(make([]byte, 0, 64*1024), 1<<20)
	for sc.Scan() {
		var m map[string]any
		Expect(json.Unmarshal(sc.Bytes(), &m)).To(Succeed())
		out = append(out, m)
	}
	return out
}

var _ = Describe("Middleware", func() {
	It("logs a recovered panic as a 500 access line", func() {
		var buf bytes.Buffer
		logger := slog.New(slog.NewJSONHandler(&buf, nil))
		router := api.NewRouter(&api.Handler{}, logger)
		router.Get("/boom", func(http.ResponseWriter, *http.Request) { panic("boom") })

		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/boom", nil)
		req.Header.Set("X-Request-ID", "req-panic-1")
		router.ServeHTTP(rec, req)

		Expect(rec.Code).To(Equal(http.StatusInternalServerError))
		Expect(rec.Body.String()).To(MatchJSON(`{"detail":"Internal server error"}`))

		var access map[string]any
		for _, e := range logEntries(&buf) {
			if e["msg"] == "http.request" {
				access = e
			}
		}
		Expect(access).NotTo(BeNil())
		Expect(access["status"]).To(BeEquivalentTo(500))
		Expect(access["level"]).To(Equal("ERROR"))
		Expect(access["req_id"]).To(Equal("req-panic-1"))
	})
})
