package metrics_test

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"

	"github.com/investai/radar/pkg/metrics"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

var _ = Describe("metrics", func() {
	Context("transport", func() {
		var server *httptest.Server

		BeforeEach(func() {
			server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if r.URL.Path == "/missing" {
					w.WriteHeader(http.StatusNotFound)
					return
				}
				w.WriteHeader(http.StatusOK)
			}))
		})

		AfterEach(func() {
			server.Close()
		})

		It("counts requests by code, method and endpoint", func() {
			transport, err := metrics.NewTransport("test", nil)
			Expect(err).To(BeNil())
			c := &http.Client{Transport: transport}

			for _, path := range []string{"/ok", "/ok", "/missing"} {
				endpoint := "get_ok"
				if path == "/missing" {
					endpoint = "get_missing"
				}
				req, err := http.NewRequestWithContext(metrics.WithEndpoint(context.Background(), endpoint), http.MethodGet, server.URL+path, nil)
				Expect(err).To(BeNil())
				resp, err := c.Do(req)
				Expect(err).To(BeNil())
				_ = resp.Body.Close()
			}

			collectors := transport.Collectors()
			Expect(collectors).To(HaveLen(2))
			Expect(testutil.CollectAndCount(collectors[0])).To(Equal(2))
		})

		It("labels transport failures", func() {
			transport, err := metrics.NewTransport("failing", nil)
			Expect(err).To(BeNil())
			c := &http.Client{Transport: transport}

			_, err = c.Get("http://127.0.0.1:1/unreachable")
			Expect(err).NotTo(BeNil())
			Expect(testutil.CollectAndCount(transport.Collectors()[0])).To(Equal(1))
		})

		It("rejects malformed latency buckets", func() {
			GinkgoT().Setenv(metrics.EnvAPILatencyBuckets, "10,abc")
			_, err := metrics.NewTransport("broken", nil)
			Expect(err).NotTo(BeNil())
		})
	})

	Context("server", func() {
		It("serves the registered metrics", func() {
			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()

			metrics.IncreaseStatusPollsMetric(metrics.PollOutcomeOK)
			metrics.IncreaseLifecycleTransitionsMetric("uploading", "processing")
			metrics.UpdatePipelineActiveStageMetric("job-1", 3)

			s := metrics.NewServer("127.0.0.1:0")
			Expect(s.Start(ctx)).To(Succeed())

			resp, err := http.Get(fmt.Sprintf("http://%s/metrics", s.Addr()))
			Expect(err).To(BeNil())
			defer resp.Body.Close()
			body, err := io.ReadAll(resp.Body)
			Expect(err).To(BeNil())

			Expect(string(body)).To(ContainSubstring(`radar_status_polls_total{outcome="ok"}`))
			Expect(string(body)).To(ContainSubstring(`radar_lifecycle_transitions_total{from="uploading",to="processing"}`))
			Expect(string(body)).To(ContainSubstring(`radar_pipeline_active_stage{job="job-1"} 3`))

			metrics.DeletePipelineActiveStageMetric("job-1")
			Expect(s.Stop()).To(Succeed())
		})
	})
})
