package client_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"

	api "github.com/investai/radar/api/v1alpha1"
	"github.com/investai/radar/internal/client"
	"github.com/investai/radar/pkg/requestid"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("jobs client", func() {
	var (
		ctx    context.Context
		server *httptest.Server
	)

	BeforeEach(func() {
		ctx = context.Background()
	})

	AfterEach(func() {
		if server != nil {
			server.Close()
			server = nil
		}
	})

	Describe("CreateJob", func() {
		It("sends files and filters as multipart form data", func() {
			server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				defer GinkgoRecover()
				Expect(r.Method).To(Equal(http.MethodPost))
				Expect(r.URL.Path).To(Equal("/api/jobs"))
				Expect(r.Header.Get(requestid.Header)).NotTo(BeEmpty())

				Expect(r.ParseMultipartForm(1 << 20)).To(Succeed())
				files := r.MultipartForm.File["files"]
				Expect(files).To(HaveLen(2))
				Expect(files[0].Filename).To(Equal("acme.pdf"))
				Expect(files[1].Filename).To(Equal("list.csv"))

				f, err := files[0].Open()
				Expect(err).NotTo(HaveOccurred())
				content, _ := io.ReadAll(f)
				Expect(string(content)).To(Equal("%PDF-deck"))

				var filters map[string]any
				Expect(json.Unmarshal([]byte(r.FormValue("filters")), &filters)).To(Succeed())
				Expect(filters).To(HaveKeyWithValue("sector", "fintech"))
				Expect(filters).To(HaveKeyWithValue("ticket_min", 1.0))
				Expect(filters).To(HaveKeyWithValue("ticket_max", 5.0))
				Expect(r.FormValue("context_text")).To(Equal("B2B payments"))
				Expect(r.FormValue("google_sheet_link")).To(BeEmpty())

				w.Header().Set("Content-Type", "application/json")
				_, _ = w.Write([]byte(`{"job_id":"job-1","status":"pending","message":"queued"}`))
			}))

			c := client.NewJobsClient(server.URL+"/", nil)
			resp, err := c.CreateJob(ctx, client.CreateJobRequest{
				Files: []client.Upload{
					{Name: "acme.pdf", Content: strings.NewReader("%PDF-deck")},
					{Name: "list.csv", Content: strings.NewReader("a,b")},
				},
				Filters: api.NewFilters("B2B payments", "fintech", "", "", "$1M-$5M"),
			})
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.JobID).To(Equal("job-1"))
			Expect(resp.Status).To(Equal(api.JobStatusPending))
		})

		It("sends the sheet link when given", func() {
			server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				defer GinkgoRecover()
				Expect(r.ParseMultipartForm(1 << 20)).To(Succeed())
				Expect(r.FormValue("google_sheet_link")).To(Equal("https://docs.google.com/spreadsheets/d/x"))
				_, _ = w.Write([]byte(`{"job_id":"job-2"}`))
			}))

			c := client.NewJobsClient(server.URL, nil)
			resp, err := c.CreateJob(ctx, client.CreateJobRequest{SheetURL: "https://docs.google.com/spreadsheets/d/x"})
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.JobID).To(Equal("job-2"))
		})

		It("fails when the response has no job id", func() {
			server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(`{"status":"pending"}`))
			}))

			c := client.NewJobsClient(server.URL, nil)
			_, err := c.CreateJob(ctx, client.CreateJobRequest{})
			Expect(errors.Is(err, client.ErrMissingJobID)).To(BeTrue())
		})

		It("returns an api error for non 2xx responses", func() {
			server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusUnprocessableEntity)
				_, _ = w.Write([]byte("no files\n"))
			}))

			c := client.NewJobsClient(server.URL, nil)
			_, err := c.CreateJob(ctx, client.CreateJobRequest{})
			var apiErr *client.APIError
			Expect(errors.As(err, &apiErr)).To(BeTrue())
			Expect(apiErr.StatusCode).To(Equal(http.StatusUnprocessableEntity))
			Expect(apiErr.Body).To(Equal("no files"))
			Expect(err.Error()).To(ContainSubstring("422"))
		})
	})

	Describe("GetJob", func() {
		It("decodes status and progress", func() {
			server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				defer GinkgoRecover()
				Expect(r.Method).To(Equal(http.MethodGet))
				Expect(r.URL.Path).To(Equal("/api/jobs/job-1"))
				_, _ = w.Write([]byte(`{"job_id":"job-1","status":"dd_running","progress":{"percent":72,"status_message":"Market analysis"}}`))
			}))

			c := client.NewJobsClient(server.URL, nil)
			job, err := c.GetJob(ctx, "job-1")
			Expect(err).NotTo(HaveOccurred())
			Expect(job.Status).To(Equal(api.JobStatusDDRunning))
			Expect(*job.Percent()).To(Equal(72.0))
			Expect(job.StatusMessage()).To(Equal("Market analysis"))
		})

		It("fills in the job id when the service omits it", func() {
			server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(`{"status":"parsing"}`))
			}))

			c := client.NewJobsClient(server.URL, nil)
			job, err := c.GetJob(ctx, "job-9")
			Expect(err).NotTo(HaveOccurred())
			Expect(job.JobID).To(Equal("job-9"))
		})

		It("escapes the job id in the path", func() {
			server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				defer GinkgoRecover()
				Expect(r.URL.EscapedPath()).To(Equal("/api/jobs/a%2Fb"))
				_, _ = w.Write([]byte(`{"status":"parsing"}`))
			}))

			c := client.NewJobsClient(server.URL, nil)
			_, err := c.GetJob(ctx, "a/b")
			Expect(err).NotTo(HaveOccurred())
		})

		It("reports not found", func() {
			server = httptest.NewServer(http.NotFoundHandler())

			c := client.NewJobsClient(server.URL, nil)
			_, err := c.GetJob(ctx, "missing")
			Expect(client.IsNotFound(err)).To(BeTrue())
		})

		It("reuses the request id from the context", func() {
			server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				defer GinkgoRecover()
				Expect(r.Header.Get(requestid.Header)).To(Equal("req-42"))
				_, _ = w.Write([]byte(`{"status":"parsing"}`))
			}))

			c := client.NewJobsClient(server.URL, nil)
			_, err := c.GetJob(requestid.ToContext(ctx, "req-42"), "job-1")
			Expect(err).NotTo(HaveOccurred())
		})

		It("fails on malformed bodies", func() {
			server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(`{not json`))
			}))

			c := client.NewJobsClient(server.URL, nil)
			_, err := c.GetJob(ctx, "job-1")
			Expect(err).To(MatchError(ContainSubstring("failed to decode response")))
		})

		It("stops when the context is cancelled", func() {
			server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				<-r.Context().Done()
			}))

			cctx, cancel := context.WithCancel(ctx)
			cancel()
			c := client.NewJobsClient(server.URL, nil)
			_, err := c.GetJob(cctx, "job-1")
			Expect(errors.Is(err, context.Canceled)).To(BeTrue())
		})
	})

	Describe("GetResults", func() {
		It("decodes the raw results collection", func() {
			server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				defer GinkgoRecover()
				Expect(r.URL.Path).To(Equal("/api/jobs/job-1/results"))
				_, _ = w.Write([]byte(`{"job_id":"job-1","startups":[{"startup":{"id":1,"name":"Acme"},"due_diligence":{"success_rate":72}}]}`))
			}))

			c := client.NewJobsClient(server.URL, nil)
			results, err := c.GetResults(ctx, "job-1")
			Expect(err).NotTo(HaveOccurred())
			Expect(results.Startups).To(HaveLen(1))
			Expect(*results.Startups[0].Descriptor().Name).To(Equal("Acme"))
		})
	})

	Describe("downloads", func() {
		It("streams a candidate report", func() {
			server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				defer GinkgoRecover()
				Expect(r.URL.Path).To(Equal("/api/jobs/job-1/download/7"))
				w.Header().Set("Content-Type", "application/pdf")
				_, _ = w.Write([]byte("%PDF-1.7 report"))
			}))

			var buf bytes.Buffer
			c := client.NewJobsClient(server.URL, nil)
			n, err := c.DownloadReport(ctx, "job-1", "7", &buf)
			Expect(err).NotTo(HaveOccurred())
			Expect(n).To(BeEquivalentTo(len("%PDF-1.7 report")))
			Expect(buf.String()).To(Equal("%PDF-1.7 report"))
		})

		It("streams the portfolio report", func() {
			server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				defer GinkgoRecover()
				Expect(r.URL.Path).To(Equal("/api/jobs/job-1/download-all"))
				_, _ = w.Write([]byte("portfolio"))
			}))

			var buf bytes.Buffer
			c := client.NewJobsClient(server.URL, nil)
			_, err := c.DownloadPortfolio(ctx, "job-1", &buf)
			Expect(err).NotTo(HaveOccurred())
			Expect(buf.String()).To(Equal("portfolio"))
		})

		It("writes nothing on failure", func() {
			server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				http.Error(w, "boom", http.StatusInternalServerError)
			}))

			var buf bytes.Buffer
			c := client.NewJobsClient(server.URL, nil)
			_, err := c.DownloadReport(ctx, "job-1", "7", &buf)
			Expect(err).To(HaveOccurred())
			Expect(buf.Len()).To(BeZero())
		})
	})

	Describe("Health", func() {
		It("succeeds on 200", func() {
			server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				defer GinkgoRecover()
				Expect(r.URL.Path).To(Equal("/health"))
				_, _ = w.Write([]byte(`{"status":"ok"}`))
			}))

			c := client.NewJobsClient(server.URL, nil)
			Expect(c.Health(ctx)).To(Succeed())
		})
	})
})
