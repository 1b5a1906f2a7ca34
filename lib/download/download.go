// Copyright (C) 2025 The Geocoding Authors.

// Package download fetches BAN department CSV archives from the remote
// endpoint, decompresses them, and tracks a content manifest to skip
// re-downloading when nothing has changed upstream (§4.8, §6 "Remote
// source").
package download

import (
	"compress/gzip"
	"context"
	"crypto/md5"
	"crypto/tls"
	"encoding/hex"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"

	"github.com/adimajo/geocoding/lib/locations"
	"github.com/adimajo/geocoding/lib/logger"
)

var l = logger.DefaultLogger

// DefaultBaseURL is the BAN CSV distribution root named in §6.
const DefaultBaseURL = "https://adresse.data.gouv.fr/data/ban/adresses-odbl/latest/csv"

// AllDepartments lists every metropolitan and overseas department code
// the real pipeline iterates over (§6's department code grammar).
var AllDepartments = buildAllDepartments()

func buildAllDepartments() []string {
	depts := make([]string, 0, 101)
	for i := 1; i <= 95; i++ {
		if i == 20 {
			depts = append(depts, "2A", "2B")
			continue
		}
		depts = append(depts, fmt.Sprintf("%02d", i))
	}
	for i := 971; i <= 989; i++ {
		depts = append(depts, fmt.Sprintf("%d", i))
	}
	return depts
}

// Downloader fetches and tracks the raw CSVs for a configured set of
// departments. The zero value is not usable; construct one with New.
type Downloader struct {
	Client  *http.Client
	BaseURL string
	Depts   []string
}

// New builds a Downloader against baseURL for the given department list.
// When debug is true, the department list is forced to a single entry
// ("01"), matching the DEBUG single-department mode named in §6's
// Environment list. When sslVerify is false, the client skips TLS
// certificate verification (SSL_VERIFICATION in §6's Environment list),
// for use against self-signed mirrors in test environments only.
func New(baseURL string, depts []string, debug bool, sslVerify bool) *Downloader {
	if debug {
		depts = []string{"01"}
	}
	client := http.DefaultClient
	if !sslVerify {
		client = &http.Client{
			Transport: &http.Transport{
				TLSClientConfig: &tls.Config{InsecureSkipVerify: true},
			},
		}
	}
	return &Downloader{
		Client:  client,
		BaseURL: baseURL,
		Depts:   depts,
	}
}

func addresseFilename(dept string) string { return fmt.Sprintf("adresses-%s.csv.gz", dept) }
func lieuxDitsFilename(dept string) string { return fmt.Sprintf("lieux-dits-%s-beta.csv.gz", dept) }

// manifest builds the plain-text content listing for the configured
// department set: the two archive filenames of each department, one per
// line, in the configured department order; its md5 is what
// NeedsDownload compares against the cached local manifest. It is
// derived from the department list alone: the remote folder listing is
// not fetched, so a change of file content upstream is not detected.
func (d *Downloader) manifest() string {
	var b strings.Builder
	for _, dept := range d.Depts {
		b.WriteString(addresseFilename(dept))
		b.WriteByte('\n')
		b.WriteString(lieuxDitsFilename(dept))
		b.WriteByte('\n')
	}
	return b.String()
}

func md5Hex(s string) string {
	sum := md5.Sum([]byte(s))
	return hex.EncodeToString(sum[:])
}

// NeedsDownload compares the current manifest's md5 against the cached
// one under locations.LocalManifestFile. It reports false (no download
// needed) only when the manifests match AND a database already exists,
// per §4.8 and testable property §8.5.
func (d *Downloader) NeedsDownload() (bool, error) {
	current := md5Hex(d.manifest())

	cached, err := os.ReadFile(locations.Get(locations.LocalManifestFile))
	if err != nil {
		if os.IsNotExist(err) {
			return true, nil
		}
		return true, errors.Wrap(err, "download: read cached manifest")
	}

	if strings.TrimSpace(string(cached)) != current {
		return true, nil
	}

	dbDir := locations.Get(locations.DatabaseDir)
	entries, err := os.ReadDir(dbDir)
	if err != nil || len(entries) == 0 {
		return true, nil
	}
	return false, nil
}

// saveManifest caches the current manifest's md5 so a subsequent
// NeedsDownload call can short-circuit.
func (d *Downloader) saveManifest() error {
	path := locations.Get(locations.LocalManifestFile)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, []byte(md5Hex(d.manifest())), 0o644)
}

// Run fetches every configured department's archives into
// locations.RawDir, unless NeedsDownload reports the local copy is
// already current, in which case it logs "up to date" and returns nil
// without touching the network (§8.5).
func (d *Downloader) Run(ctx context.Context) error {
	needed, err := d.NeedsDownload()
	if err != nil {
		return errors.Wrap(err, "download: check manifest")
	}
	if !needed {
		l.Infoln("download: up to date")
		return nil
	}

	if err := locations.EnsureDirs(); err != nil {
		return errors.Wrap(err, "download: create directories")
	}

	for _, dept := range d.Depts {
		for _, name := range []string{addresseFilename(dept), lieuxDitsFilename(dept)} {
			if err := d.fetch(ctx, name); err != nil {
				return errors.Wrapf(err, "download: fetch %s", name)
			}
		}
	}

	if err := d.saveManifest(); err != nil {
		return errors.Wrap(err, "download: save manifest")
	}
	l.Infof("download: fetched %d departments", len(d.Depts))
	return nil
}

func (d *Downloader) fetch(ctx context.Context, name string) error {
	url := d.BaseURL + "/" + name
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	client := d.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound && strings.HasPrefix(name, "lieux-dits-") {
		// Not every department publishes a lieux-dits file; absence of
		// that variant is not a fetch failure.
		l.Debugf("download: %s not found, skipping", name)
		return nil
	}
	if resp.StatusCode != http.StatusOK {
		return errors.Errorf("unexpected status %d for %s", resp.StatusCode, url)
	}

	dst := filepath.Join(locations.Get(locations.RawDir), name)
	f, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer f.Close()

	_, err = io.Copy(f, resp.Body)
	return err
}

// Decompress gunzips every ".csv.gz" file under locations.RawDir into a
// sibling ".csv" file and removes the archive, per §4.8.
func Decompress() error {
	dir := locations.Get(locations.RawDir)
	entries, err := os.ReadDir(dir)
	if err != nil {
		return errors.Wrap(err, "decompress: list raw directory")
	}

	count := 0
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".csv.gz") {
			continue
		}
		src := filepath.Join(dir, e.Name())
		dst := strings.TrimSuffix(src, ".gz")
		if err := decompressFile(src, dst); err != nil {
			return errors.Wrapf(err, "decompress: %s", e.Name())
		}
		if err := os.Remove(src); err != nil {
			return errors.Wrapf(err, "decompress: remove %s", e.Name())
		}
		count++
	}
	l.Infof("decompress: expanded %d archives", count)
	return nil
}

func decompressFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	gz, err := gzip.NewReader(in)
	if err != nil {
		return err
	}
	defer gz.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer out.Close()

	_, err = io.Copy(out, gz)
	return err
}

// Clean removes every raw archive and decompressed CSV under
// locations.RawDir (the `clean` subcommand).
func Clean() error {
	dir := locations.Get(locations.RawDir)
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return errors.Wrap(err, "clean: list raw directory")
	}
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if strings.HasSuffix(e.Name(), ".csv.gz") || strings.HasSuffix(e.Name(), ".csv") {
			if err := os.Remove(filepath.Join(dir, e.Name())); err != nil {
				return errors.Wrapf(err, "clean: remove %s", e.Name())
			}
		}
	}
	return nil
}

// CSVFiles lists the decompressed CSV files currently present under
// locations.RawDir, in file-name order, for the orchestrator's index
// step to read.
func CSVFiles() ([]string, error) {
	dir := locations.Get(locations.RawDir)
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, errors.Wrap(err, "missing raw data: run decompress first")
	}
	var files []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ".csv") {
			files = append(files, filepath.Join(dir, e.Name()))
		}
	}
	if len(files) == 0 {
		return nil, errors.New("missing raw data: run decompress first")
	}
	return files, nil
}
