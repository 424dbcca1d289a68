package storage

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/trialpoint/trialctl/internal/config"
)

func TestFactorySelectsProviderByScheme(t *testing.T) {
	factory := NewFactory(config.NewConfig())

	cases := []struct {
		url  string
		want string
	}{
		{"s3://trialpoint-data/NCI-001/wes_tumor.bam", "s3"},
		{"https://portalstore.blob.core.windows.net/data/participants.csv?sig=x", "azure"},
		{"https://portal.example.org/objects/f1", "https"},
	}
	for _, tc := range cases {
		provider, err := factory.ForURL(tc.url)
		if err != nil {
			t.Fatalf("ForURL(%q) error = %v", tc.url, err)
		}
		if provider.Name() != tc.want {
			t.Errorf("ForURL(%q) = %s, want %s", tc.url, provider.Name(), tc.want)
		}
	}
}

func TestFactoryRejectsUnknownScheme(t *testing.T) {
	factory := NewFactory(config.NewConfig())
	if _, err := factory.ForURL("ftp://host/file"); err == nil {
		t.Error("ftp scheme should be rejected")
	}
}

func TestFactoryReusesProviders(t *testing.T) {
	factory := NewFactory(config.NewConfig())

	a, err := factory.ForURL("s3://bucket/a")
	if err != nil {
		t.Fatal(err)
	}
	b, err := factory.ForURL("s3://bucket/b")
	if err != nil {
		t.Fatal(err)
	}
	if a != b {
		t.Error("providers for the same scheme should be reused")
	}
}

func TestFactoryConcurrentForURL(t *testing.T) {
	factory := NewFactory(config.NewConfig())

	urls := []string{
		"s3://trialpoint-data/NCI-001/wes_tumor.bam",
		"https://portalstore.blob.core.windows.net/data/participants.csv?sig=x",
		"https://portal.example.org/objects/f1",
	}

	var wg sync.WaitGroup
	got := make([][]ObjectDownloader, 8)
	for i := range got {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			providers := make([]ObjectDownloader, len(urls))
			for j, u := range urls {
				p, err := factory.ForURL(u)
				if err != nil {
					t.Errorf("ForURL(%q) error = %v", u, err)
					return
				}
				providers[j] = p
			}
			got[i] = providers
		}(i)
	}
	wg.Wait()

	for i := 1; i < len(got); i++ {
		if got[i] == nil || got[0] == nil {
			continue
		}
		for j := range urls {
			if got[i][j] != got[0][j] {
				t.Errorf("goroutine %d got a different provider for %q", i, urls[j])
			}
		}
	}
}

func TestParseS3URL(t *testing.T) {
	bucket, key, err := parseS3URL("s3://trialpoint-data/NCI-001/raw/wes.bam")
	if err != nil {
		t.Fatal(err)
	}
	if bucket != "trialpoint-data" || key != "NCI-001/raw/wes.bam" {
		t.Errorf("bucket=%q key=%q", bucket, key)
	}

	if _, _, err := parseS3URL("s3://bucket-only"); err == nil {
		t.Error("missing key should error")
	}
}

func TestParseBlobURL(t *testing.T) {
	service, container, blob, err := parseBlobURL(
		"https://acct.blob.core.windows.net/trial-data/NCI-001/participants.csv?sv=2024&sig=abc")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(service, "https://acct.blob.core.windows.net/?sv=2024") {
		t.Errorf("service = %q, SAS must ride on the service URL", service)
	}
	if container != "trial-data" || blob != "NCI-001/participants.csv" {
		t.Errorf("container=%q blob=%q", container, blob)
	}

	if _, _, _, err := parseBlobURL("https://acct.blob.core.windows.net/container-only?sig=x"); err == nil {
		t.Error("missing blob path should error")
	}
}

func TestHTTPDownloaderStreamsBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, "object-bytes")
	}))
	defer srv.Close()

	d, err := newHTTPDownloader(config.NewConfig())
	if err != nil {
		t.Fatal(err)
	}

	var buf strings.Builder
	n, err := d.Download(context.Background(), srv.URL+"/objects/f1", &buf)
	if err != nil {
		t.Fatalf("Download() error = %v", err)
	}
	if n != int64(len("object-bytes")) || buf.String() != "object-bytes" {
		t.Errorf("wrote %d bytes, body %q", n, buf.String())
	}
}

func TestHTTPDownloaderSurfacesHTTPErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusNotFound)
	}))
	defer srv.Close()

	d, err := newHTTPDownloader(config.NewConfig())
	if err != nil {
		t.Fatal(err)
	}

	if _, err := d.Download(context.Background(), srv.URL+"/objects/missing", io.Discard); err == nil {
		t.Error("404 should surface as an error")
	}
}