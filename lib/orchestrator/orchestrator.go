// Copyright (C) 2025 The Geocoding Authors.

// Package orchestrator wires the download, decompress, index, and
// reverse steps into the single-threaded, synchronous build pipeline
// named in §5 and §6, plus the `update` and `clean` composite commands.
package orchestrator

import (
	"context"
	"os"

	"github.com/pkg/errors"

	"github.com/adimajo/geocoding/lib/banformat"
	"github.com/adimajo/geocoding/lib/builder"
	"github.com/adimajo/geocoding/lib/download"
	"github.com/adimajo/geocoding/lib/kdtree"
	"github.com/adimajo/geocoding/lib/locations"
	"github.com/adimajo/geocoding/lib/logger"
	"github.com/adimajo/geocoding/lib/store"
)

var l = logger.DefaultLogger

// Config configures the pipeline's network and mirroring behavior.
type Config struct {
	BaseURL string
	Depts   []string
	Debug   bool

	// LocalDB true means the database is read/written purely on the
	// local filesystem; false enables the optional S3 mirror, per §6's
	// Environment list.
	LocalDB bool
	Mirror  *download.S3Mirror

	// SSLSkipVerify disables the remote endpoint's certificate check
	// when true (the inverse of SSL_VERIFICATION in §6's Environment
	// list). The Config zero value keeps verification on.
	SSLSkipVerify bool
}

func (c Config) downloader() *download.Downloader {
	base := c.BaseURL
	if base == "" {
		base = download.DefaultBaseURL
	}
	depts := c.Depts
	if len(depts) == 0 {
		depts = download.AllDepartments
	}
	return download.New(base, depts, c.Debug, !c.SSLSkipVerify)
}

// Download runs the download step alone.
func Download(ctx context.Context, cfg Config) error {
	return cfg.downloader().Run(ctx)
}

// DecompressStep runs the decompress step alone.
func DecompressStep() error {
	return download.Decompress()
}

// Index reads every decompressed CSV under locations.RawDir, aggregates
// them with a Builder, and persists the result via store.Write (§5's
// "process -> store" steps).
func Index() error {
	files, err := download.CSVFiles()
	if err != nil {
		return err
	}

	b := builder.New()
	for _, f := range files {
		dept, ok := banformat.DeptFromFilename(f)
		if !ok {
			continue
		}
		records, err := banformat.ReadFile(f)
		if err != nil {
			return errors.Wrapf(err, "index: read %s", f)
		}
		b.Ingest(dept, records)
	}

	db, err := b.Build()
	if err != nil {
		return errors.Wrap(err, "index: build")
	}

	if err := store.Write(locations.Get(locations.DatabaseDir), db); err != nil {
		return errors.Wrap(err, "index: write database")
	}
	l.Infof("index: built database from %d files", len(files))
	return nil
}

// Reverse builds the k-d tree over the just-indexed Localisation table
// and persists it alongside the rest of the database (§4.7, §5).
func Reverse() error {
	dbDir := locations.Get(locations.DatabaseDir)
	db, err := store.Open(dbDir)
	if err != nil {
		return errors.Wrap(err, "reverse: open database")
	}
	defer db.Close()

	if db.NumLocs() == 0 {
		return errors.New("reverse: empty build output, run index first")
	}

	pts := make([]kdtree.Point, db.NumLocs())
	for i := range pts {
		loc := db.Localisation(i)
		pts[i] = kdtree.Point{Lon: loc.Longitude, Lat: loc.Latitude, Payload: uint32(i)}
	}

	nodes := kdtree.Build(pts)
	if err := store.WriteKDTree(dbDir, nodes); err != nil {
		return errors.Wrap(err, "reverse: write kdtree")
	}
	l.Infof("reverse: built k-d tree over %d localisations", len(nodes))
	return nil
}

// Update runs download, decompress, index, and reverse in order,
// removes the raw files, and mirrors the database to S3 afterward when
// cfg.LocalDB is false (§4.8, §6's "update" subcommand). When the
// manifest is unchanged and a database exists, it logs "up to date" and
// does nothing else. A failure to remove raw files or to mirror is
// logged but never fails an otherwise successful local build.
func Update(ctx context.Context, cfg Config) error {
	d := cfg.downloader()
	needed, err := d.NeedsDownload()
	if err != nil {
		return errors.Wrap(err, "update: check manifest")
	}
	if !needed {
		l.Infoln("update: up to date")
		return nil
	}
	if err := d.Run(ctx); err != nil {
		return errors.Wrap(err, "update: download")
	}
	if err := DecompressStep(); err != nil {
		return errors.Wrap(err, "update: decompress")
	}
	if err := Index(); err != nil {
		return errors.Wrap(err, "update: index")
	}
	if err := Reverse(); err != nil {
		return errors.Wrap(err, "update: reverse")
	}
	if err := download.Clean(); err != nil {
		l.Warnln("update: remove raw files failed:", err)
	}

	if !cfg.LocalDB && cfg.Mirror != nil {
		if err := cfg.Mirror.UploadDir(locations.Get(locations.DatabaseDir)); err != nil {
			l.Warnln("update: S3 mirror upload failed:", err)
		}
	}
	return nil
}

// Clean removes downloaded raw files (the `clean` subcommand).
func Clean() error {
	return download.Clean()
}

// Hydrate pulls a database down from the configured S3 mirror into an
// empty local directory, for a cold start when cfg.LocalDB is false
// (§4.8's "near/find on a cold start can hydrate").
func Hydrate(cfg Config) error {
	if cfg.LocalDB || cfg.Mirror == nil {
		return nil
	}
	dbDir := locations.Get(locations.DatabaseDir)
	entries, err := os.ReadDir(dbDir)
	if err == nil && len(entries) > 0 {
		return nil
	}
	return cfg.Mirror.DownloadDir(dbDir)
}
