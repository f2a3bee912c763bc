// Package sync downloads the statewide parcel dataset into the data
// directory. It is a long-running bulk job, fully decoupled from the property
// store: it holds no store reference and never blocks property reads or
// writes while running.
package sync

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
)

// DatasetFileName is the fixed name the archive is written under
const DatasetFileName = "massgis_parcels.zip"

// Progress is one download progress report. Percent is -1 when the server
// does not announce a content length.
type Progress struct {
	BytesDownloaded int64
	TotalBytes      int64
	Percent         int
}

// ProgressFunc receives progress reports during a download
type ProgressFunc func(Progress)

// Service performs dataset downloads
type Service struct {
	dataDir    string
	datasetURL string
	indexURL   string
	httpClient *http.Client
}

// NewService creates a sync service. datasetURL may be empty when indexURL is
// set, in which case the newest archive link is discovered from the index
// page at download time.
func NewService(dataDir, datasetURL, indexURL string, timeout time.Duration) *Service {
	if timeout == 0 {
		timeout = 2 * time.Hour
	}
	return &Service{
		dataDir:    dataDir,
		datasetURL: datasetURL,
		indexURL:   indexURL,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// Download streams the dataset archive to disk, reporting progress as it
// goes. The archive is written to a temp file and renamed into place so an
// interrupted download never clobbers a previous complete one.
func (s *Service) Download(ctx context.Context, onProgress ProgressFunc) error {
	datasetURL := s.datasetURL
	if datasetURL == "" {
		resolved, err := s.resolveLatestDatasetURL(ctx)
		if err != nil {
			return fmt.Errorf("sync: resolve dataset url: %w", err)
		}
		datasetURL = resolved
		log.Printf("Sync: resolved dataset url %s", datasetURL)
	}

	if err := os.MkdirAll(s.dataDir, 0o755); err != nil {
		return fmt.Errorf("sync: create data directory: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, datasetURL, nil)
	if err != nil {
		return err
	}
	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("sync: download failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("sync: download failed: %s", resp.Status)
	}

	total := resp.ContentLength

	tmp, err := os.CreateTemp(s.dataDir, DatasetFileName+".part-*")
	if err != nil {
		return fmt.Errorf("sync: create temp file: %w", err)
	}
	tmpName := tmp.Name()
	cleanup := func() {
		tmp.Close()
		os.Remove(tmpName)
	}

	var downloaded int64
	buf := make([]byte, 256*1024)
	for {
		n, readErr := resp.Body.Read(buf)
		if n > 0 {
			if _, err := tmp.Write(buf[:n]); err != nil {
				cleanup()
				return fmt.Errorf("sync: write archive: %w", err)
			}
			downloaded += int64(n)
			if onProgress != nil {
				onProgress(progressReport(downloaded, total))
			}
		}
		if readErr == io.EOF {
			break
		}
		if readErr != nil {
			cleanup()
			return fmt.Errorf("sync: read download stream: %w", readErr)
		}
	}

	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("sync: close archive: %w", err)
	}
	if err := os.Rename(tmpName, filepath.Join(s.dataDir, DatasetFileName)); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("sync: move archive into place: %w", err)
	}

	log.Printf("Sync: download complete (%d bytes)", downloaded)
	return nil
}

func progressReport(downloaded, total int64) Progress {
	p := Progress{BytesDownloaded: downloaded, TotalBytes: total, Percent: -1}
	if total > 0 {
		p.Percent = int(float64(downloaded) / float64(total) * 100)
	}
	return p
}

// resolveLatestDatasetURL scrapes the download index page for parcel archive
// links and picks the newest (links carry dated snapshot names, so the
// lexicographically largest wins)
func (s *Service) resolveLatestDatasetURL(ctx context.Context) (string, error) {
	if s.indexURL == "" {
		return "", fmt.Errorf("no dataset url or index url configured")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.indexURL, nil)
	if err != nil {
		return "", err
	}
	resp, err := s.httpClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("index page returned %s", resp.Status)
	}

	link, err := latestArchiveLink(resp.Body)
	if err != nil {
		return "", err
	}

	base, err := url.Parse(s.indexURL)
	if err != nil {
		return "", err
	}
	ref, err := url.Parse(link)
	if err != nil {
		return "", err
	}
	return base.ResolveReference(ref).String(), nil
}

// latestArchiveLink finds the lexicographically largest parcel zip link in an
// HTML index page
func latestArchiveLink(page io.Reader) (string, error) {
	doc, err := goquery.NewDocumentFromReader(page)
	if err != nil {
		return "", fmt.Errorf("parse index page: %w", err)
	}

	var best string
	doc.Find("a[href]").Each(func(_ int, sel *goquery.Selection) {
		href, _ := sel.Attr("href")
		lower := strings.ToLower(href)
		if !strings.HasSuffix(lower, ".zip") || !strings.Contains(lower, "l3") {
			return
		}
		if href > best {
			best = href
		}
	})

	if best == "" {
		return "", fmt.Errorf("no parcel archive links on index page")
	}
	return best, nil
}
