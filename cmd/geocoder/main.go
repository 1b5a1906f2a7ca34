// Copyright (C) 2025 The Geocoding Authors.

// Command geocoder is the CLI entry point for the BAN offline address
// geocoder: the build pipeline (download, decompress, index, reverse,
// update, clean) and the query server (runserver), per §6.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/alecthomas/kong"
	"github.com/pkg/errors"
	"github.com/thejerf/suture/v4"

	_ "go.uber.org/automaxprocs"

	"github.com/adimajo/geocoding/lib/api"
	"github.com/adimajo/geocoding/lib/build"
	"github.com/adimajo/geocoding/lib/download"
	"github.com/adimajo/geocoding/lib/locations"
	"github.com/adimajo/geocoding/lib/logger"
	"github.com/adimajo/geocoding/lib/orchestrator"
	"github.com/adimajo/geocoding/lib/reverse"
	"github.com/adimajo/geocoding/lib/store"
)

var l = logger.DefaultLogger

type globals struct {
	Home    string   `help:"Base directory for raw/content/database files." env:"GEOCODER_HOME"`
	Debug   bool     `help:"Single-department mode, for fast local testing." env:"DEBUG"`
	LocalDB bool     `help:"Read/write the database purely on the local filesystem." env:"LOCAL_DB" default:"true"`
	Dept    []string `help:"Restrict the pipeline to these department codes. Defaults to all."`

	SSLVerification bool `help:"Verify the remote endpoint's TLS certificate." env:"SSL_VERIFICATION" default:"true"`

	S3Endpoint string `help:"S3-compatible endpoint for optional database mirroring." env:"S3_ENDPOINT_URL"`
	S3Bucket   string `help:"S3 bucket for optional database mirroring." env:"S3_BUCKET"`
	S3Region   string `help:"S3 region for optional database mirroring." env:"S3_REGION"`
	S3Key      string `help:"S3 access key ID." env:"S3_ACCESS_KEY_ID"`
	S3Secret   string `help:"S3 secret access key." env:"S3_SECRET_ACCESS_KEY"`
}

func (g globals) orchestratorConfig() orchestrator.Config {
	cfg := orchestrator.Config{
		Depts:         g.Dept,
		Debug:         g.Debug,
		LocalDB:       g.LocalDB,
		SSLSkipVerify: !g.SSLVerification,
	}
	if !g.LocalDB && g.S3Bucket != "" {
		cfg.Mirror = download.NewS3Mirror(g.S3Endpoint, g.S3Region, g.S3Bucket, g.S3Key, g.S3Secret)
	}
	return cfg
}

type cli struct {
	globals

	Download   downloadCmd   `cmd:"" help:"Fetch BAN CSV archives from the remote endpoint."`
	Decompress decompressCmd `cmd:"" help:"Gunzip downloaded archives into CSVs."`
	Index      indexCmd      `cmd:"" help:"Build the database from decompressed CSVs."`
	Reverse    reverseCmd    `cmd:"" help:"Build the k-d tree for reverse geocoding."`
	Update     updateCmd     `cmd:"" help:"Run download, decompress, index, and reverse in order."`
	Clean      cleanCmd      `cmd:"" help:"Remove downloaded raw files."`
	Runserver  runserverCmd  `cmd:"" help:"Start the query HTTP server."`
	Version    versionCmd    `cmd:"" help:"Print version information."`
}

func main() {
	var params cli
	ctx := kong.Parse(&params, kong.Name("geocoder"), kong.Description(build.LongVersion))

	if params.Home != "" {
		locations.SetBaseDir(params.Home)
	}

	err := ctx.Run(&params.globals)
	ctx.FatalIfErrorf(err)
}

type downloadCmd struct{}

func (c *downloadCmd) Run(g *globals) error {
	return orchestrator.Download(context.Background(), g.orchestratorConfig())
}

type decompressCmd struct{}

func (c *decompressCmd) Run(g *globals) error {
	return orchestrator.DecompressStep()
}

type indexCmd struct{}

func (c *indexCmd) Run(g *globals) error {
	return orchestrator.Index()
}

type reverseCmd struct{}

func (c *reverseCmd) Run(g *globals) error {
	return orchestrator.Reverse()
}

type updateCmd struct{}

func (c *updateCmd) Run(g *globals) error {
	return orchestrator.Update(context.Background(), g.orchestratorConfig())
}

type cleanCmd struct{}

func (c *cleanCmd) Run(g *globals) error {
	return orchestrator.Clean()
}

type versionCmd struct{}

func (c *versionCmd) Run(g *globals) error {
	fmt.Println(build.LongVersion)
	return nil
}

type runserverCmd struct {
	Listen string `help:"HTTP listen address." default:":8080" env:"LISTEN_ADDRESS"`
}

func (c *runserverCmd) Run(g *globals) error {
	cfg := g.orchestratorConfig()
	if err := orchestrator.Hydrate(cfg); err != nil {
		l.Warnln("runserver: hydrate from mirror failed:", err)
	}

	db, err := store.Open(locations.Get(locations.DatabaseDir))
	if err != nil {
		return errors.Wrap(err, "runserver: open database")
	}
	defer db.Close()

	// tree stays nil until `reverse` has run; /near reports 503 until then.
	var tree reverse.Tree
	if db.NumKDNodes() > 0 {
		tree = db
	}

	root := suture.NewSimple("geocoder")
	root.Add(api.New(c.Listen, db, tree))

	sigCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return root.Serve(sigCtx)
}
