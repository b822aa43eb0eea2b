package store_test

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"github.com/investai/radar/internal/store"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func content(s string) store.FillFunc {
	return func(w io.Writer) (int64, error) {
		n, err := io.Copy(w, strings.NewReader(s))
		return n, err
	}
}

// decodeObject returns the object bytes of a PUT, removing the aws-chunked framing
// minio-go uses for streaming signed uploads over plain http.
func decodeObject(r *http.Request) (string, error) {
	if !strings.HasPrefix(r.Header.Get("X-Amz-Content-Sha256"), "STREAMING-") {
		body, err := io.ReadAll(r.Body)
		return string(body), err
	}

	var object strings.Builder
	br := bufio.NewReader(r.Body)
	for {
		line, err := br.ReadString('\n')
		if err != nil {
			return "", fmt.Errorf("reading chunk header: %w", err)
		}
		sizeHex, _, _ := strings.Cut(strings.TrimSpace(line), ";")
		size, err := strconv.ParseInt(sizeHex, 16, 64)
		if err != nil {
			return "", fmt.Errorf("parsing chunk size %q: %w", sizeHex, err)
		}
		if size == 0 {
			return object.String(), nil
		}
		if _, err := io.CopyN(&object, br, size); err != nil {
			return "", fmt.Errorf("reading chunk: %w", err)
		}
		if _, err := br.Discard(2); err != nil {
			return "", fmt.Errorf("reading chunk trailer: %w", err)
		}
	}
}

func failing(w io.Writer) (int64, error) {
	_, _ = w.Write([]byte("%PDF-partial"))
	return 0, errors.New("connection reset")
}

var _ = Describe("report file names", func() {
	DescribeTable("ReportFileName",
		func(name, expected string) {
			Expect(store.ReportFileName(name)).To(Equal(expected))
		},
		Entry("single word", "Acme", "Acme_Report.pdf"),
		Entry("whitespace runs", "Acme  Space\tCo", "Acme_Space_Co_Report.pdf"),
		Entry("empty", "", "startup_Report.pdf"),
		Entry("blank", "   ", "startup_Report.pdf"),
		Entry("path separators", "A/B", "A_B_Report.pdf"),
	)

	It("names the portfolio report", func() {
		Expect(store.PortfolioFileName).To(Equal("Portfolio_Report.pdf"))
	})
})

var _ = Describe("dir sink", func() {
	var (
		ctx  context.Context
		dir  string
		sink *store.DirSink
	)

	BeforeEach(func() {
		ctx = context.Background()
		dir = filepath.Join(GinkgoT().TempDir(), "reports")
		var err error
		sink, err = store.NewDirSink(dir)
		Expect(err).NotTo(HaveOccurred())
	})

	It("writes the document", func() {
		location, err := sink.Write(ctx, "Acme_Report.pdf", content("%PDF-1.7"))
		Expect(err).NotTo(HaveOccurred())
		Expect(location).To(Equal(filepath.Join(dir, "Acme_Report.pdf")))

		data, err := os.ReadFile(location)
		Expect(err).NotTo(HaveOccurred())
		Expect(string(data)).To(Equal("%PDF-1.7"))
		Expect(sink.Type()).To(Equal("dir"))
	})

	It("leaves nothing behind when the download fails", func() {
		_, err := sink.Write(ctx, "Acme_Report.pdf", failing)
		Expect(err).To(MatchError("connection reset"))

		entries, err := os.ReadDir(dir)
		Expect(err).NotTo(HaveOccurred())
		Expect(entries).To(BeEmpty())
	})

	It("does not start when the context is done", func() {
		cctx, cancel := context.WithCancel(ctx)
		cancel()
		_, err := sink.Write(cctx, "Acme_Report.pdf", content("x"))
		Expect(errors.Is(err, context.Canceled)).To(BeTrue())
	})
})

var _ = Describe("minio sink", func() {
	It("requires an endpoint and a bucket", func() {
		_, err := store.NewMinioSink(store.WithBucket("reports"))
		Expect(err).To(HaveOccurred())
		_, err = store.NewMinioSink(store.WithEndpoint("localhost:9000"))
		Expect(err).To(HaveOccurred())
	})

	Context("with a fake object store", func() {
		var (
			server  *httptest.Server
			mu      sync.Mutex
			objects map[string]string
			types   map[string]string
			auth    map[string]string
		)

		BeforeEach(func() {
			objects = map[string]string{}
			types = map[string]string{}
			auth = map[string]string{}
			server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if r.Method != http.MethodPut {
					w.WriteHeader(http.StatusNotImplemented)
					return
				}
				object, err := decodeObject(r)
				if err != nil {
					http.Error(w, err.Error(), http.StatusBadRequest)
					return
				}
				mu.Lock()
				objects[r.URL.Path] = object
				types[r.URL.Path] = r.Header.Get("Content-Type")
				auth[r.URL.Path] = r.Header.Get("Authorization")
				mu.Unlock()
				w.Header().Set("ETag", `"d41d8cd98f00b204e9800998ecf8427e"`)
				w.WriteHeader(http.StatusOK)
			}))
		})

		AfterEach(func() {
			server.Close()
		})

		It("uploads under the job prefix", func() {
			sink, err := store.NewMinioSink(
				store.WithEndpoint(strings.TrimPrefix(server.URL, "http://")),
				store.WithBucket("reports"),
				store.WithPrefix("job-1"),
				store.WithAccessKey("access"),
				store.WithSecretKey("secret"),
			)
			Expect(err).NotTo(HaveOccurred())
			Expect(sink.Type()).To(Equal("minio"))

			location, err := sink.Write(context.Background(), "Acme_Report.pdf", content("%PDF-1.7"))
			Expect(err).NotTo(HaveOccurred())
			Expect(location).To(Equal("s3://reports/job-1/Acme_Report.pdf"))

			mu.Lock()
			defer mu.Unlock()
			Expect(objects).To(HaveKeyWithValue("/reports/job-1/Acme_Report.pdf", "%PDF-1.7"))
			Expect(types["/reports/job-1/Acme_Report.pdf"]).To(Equal("application/pdf"))
			Expect(auth["/reports/job-1/Acme_Report.pdf"]).To(ContainSubstring("/us-east-1/s3/aws4_request"))
		})

		It("signs for the configured region", func() {
			sink, err := store.NewMinioSink(
				store.WithEndpoint(strings.TrimPrefix(server.URL, "http://")),
				store.WithBucket("reports"),
				store.WithRegion("eu-central-1"),
				store.WithAccessKey("access"),
				store.WithSecretKey("secret"),
			)
			Expect(err).NotTo(HaveOccurred())

			_, err = sink.Write(context.Background(), "Portfolio_Report.pdf", content("%PDF-1.7 portfolio"))
			Expect(err).NotTo(HaveOccurred())

			mu.Lock()
			defer mu.Unlock()
			Expect(objects).To(HaveKeyWithValue("/reports/Portfolio_Report.pdf", "%PDF-1.7 portfolio"))
			Expect(auth["/reports/Portfolio_Report.pdf"]).To(ContainSubstring("/eu-central-1/s3/aws4_request"))
		})

		It("uploads nothing when the download fails", func() {
			sink, err := store.NewMinioSink(
				store.WithEndpoint(strings.TrimPrefix(server.URL, "http://")),
				store.WithBucket("reports"),
			)
			Expect(err).NotTo(HaveOccurred())

			_, err = sink.Write(context.Background(), "Acme_Report.pdf", failing)
			Expect(err).To(HaveOccurred())

			mu.Lock()
			defer mu.Unlock()
			Expect(objects).To(BeEmpty())
		})
	})
})
