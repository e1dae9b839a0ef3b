package downloader

import (
	"archive/zip"
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/schollz/progressbar/v3"

	"github.com/terratensor/teryt/internal/config"
	"github.com/terratensor/teryt/internal/platform/logger"
)

// Registry catalogs the importer reads.
const (
	CatalogTERC = "TERC"
	CatalogSIMC = "SIMC"
)

var zipMagic = []byte("PK\x03\x04")

// Fetcher puts registry files into the import directory.
type Fetcher struct {
	client   *http.Client
	dir      string
	progress io.Writer
	log      *logger.Logger
}

func New(cfg *config.Config, log *logger.Logger) *Fetcher {
	if log == nil {
		log = logger.Nop()
	}
	f := &Fetcher{
		client: &http.Client{
			Timeout: cfg.DownloadTimeout,
		},
		dir: cfg.ImportDir,
		log: log,
	}
	if cfg.ShowProgress {
		f.progress = os.Stderr
	}
	return f
}

// Fetch stores catalog as <dir>/<catalog>.xml. source is an http(s) URL or a
// local path, pointing at either the XML itself or a zip archive holding it.
func (f *Fetcher) Fetch(ctx context.Context, catalog, source string) (string, error) {
	if catalog != CatalogTERC && catalog != CatalogSIMC {
		return "", fmt.Errorf("unknown catalog %q", catalog)
	}
	if source == "" {
		return "", fmt.Errorf("no source for %s", catalog)
	}
	if err := os.MkdirAll(f.dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create import dir: %w", err)
	}
	dest := filepath.Join(f.dir, catalog+".xml")

	local := source
	if isURL(source) {
		path, err := f.download(ctx, catalog, source)
		if err != nil {
			return "", err
		}
		defer os.Remove(path)
		local = path
	}

	archive, err := isZip(local)
	if err != nil {
		return "", err
	}
	if archive {
		err = f.extractXML(local, dest)
	} else {
		err = copyFile(local, dest)
	}
	if err != nil {
		return "", err
	}

	f.log.Info("registry fetched", "catalog", catalog, "source", source, "path", dest)
	return dest, nil
}

func isURL(source string) bool {
	u, err := url.Parse(source)
	return err == nil && (u.Scheme == "http" || u.Scheme == "https")
}

func (f *Fetcher) download(ctx context.Context, catalog, source string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, source, nil)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to download: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("bad status: %s", resp.Status)
	}

	out, err := os.CreateTemp(f.dir, catalog+"-*.download")
	if err != nil {
		return "", fmt.Errorf("failed to create file: %w", err)
	}
	defer out.Close()

	progress := f.progress
	if progress == nil {
		progress = io.Discard
	}
	bar := progressbar.NewOptions64(
		resp.ContentLength,
		progressbar.OptionSetWriter(progress),
		progressbar.OptionSetDescription(fmt.Sprintf("Downloading %s", catalog)),
		progressbar.OptionShowBytes(true),
		progressbar.OptionSetWidth(50),
		progressbar.OptionThrottle(100*time.Millisecond),
		progressbar.OptionShowCount(),
		progressbar.OptionOnCompletion(func() {
			fmt.Fprintln(progress)
		}),
		progressbar.OptionSpinnerType(14),
		progressbar.OptionFullWidth(),
	)

	if _, err := io.Copy(io.MultiWriter(out, bar), resp.Body); err != nil {
		os.Remove(out.Name())
		return "", fmt.Errorf("failed to save file: %w", err)
	}
	return out.Name(), nil
}

func isZip(path string) (bool, error) {
	file, err := os.Open(path)
	if err != nil {
		return false, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer file.Close()

	head := make([]byte, len(zipMagic))
	n, err := io.ReadFull(file, head)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return false, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return bytes.Equal(head[:n], zipMagic), nil
}

// extractXML writes the first .xml entry of the archive to dest.
func (f *Fetcher) extractXML(zipPath, dest string) error {
	reader, err := zip.OpenReader(zipPath)
	if err != nil {
		return fmt.Errorf("failed to open zip: %w", err)
	}
	defer reader.Close()

	for _, zipFile := range reader.File {
		if zipFile.FileInfo().IsDir() || !strings.EqualFold(filepath.Ext(zipFile.Name), ".xml") {
			continue
		}

		rc, err := zipFile.Open()
		if err != nil {
			return fmt.Errorf("failed to open file %s in zip: %w", zipFile.Name, err)
		}
		defer rc.Close()

		if err := writeFile(dest, rc); err != nil {
			return fmt.Errorf("failed to extract file %s: %w", zipFile.Name, err)
		}
		f.log.Debug("extracted", "entry", zipFile.Name, "path", dest)
		return nil
	}
	return fmt.Errorf("no xml file in %s", zipPath)
}

func copyFile(src, dest string) error {
	if abs, err := filepath.Abs(src); err == nil {
		if absDest, err := filepath.Abs(dest); err == nil && abs == absDest {
			return nil
		}
	}
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", src, err)
	}
	defer in.Close()

	if err := writeFile(dest, in); err != nil {
		return fmt.Errorf("failed to copy %s: %w", src, err)
	}
	return nil
}

// writeFile replaces dest atomically so a failed fetch keeps the previous registry.
func writeFile(dest string, r io.Reader) error {
	tmp, err := os.CreateTemp(filepath.Dir(dest), filepath.Base(dest)+".*.tmp")
	if err != nil {
		return err
	}
	if _, err := io.Copy(tmp, r); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	return os.Rename(tmp.Name(), dest)
}
