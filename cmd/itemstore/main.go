/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

// Command itemstore provisions the tables declared in a tables file.
//
//	itemstore -config itemstore.yaml -tables tables.yaml [-dry-run] [-wait 5m]
//
// With -dry-run the create-table requests are printed as JSON and nothing is
// sent. Otherwise each table is created and the command waits until it is
// ACTIVE. Tables that already exist are reported and skipped.
package main

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/rs/zerolog"

	"github.com/suparena/itemstore"
	"github.com/suparena/itemstore/config"
	"github.com/suparena/itemstore/datastore/ddb"
	"github.com/suparena/itemstore/provision"
)

// creator is the part of a store the command needs.
type creator interface {
	CreateTable(ctx context.Context, input *dynamodb.CreateTableInput) error
	WaitUntilActive(ctx context.Context, table string, maxWait time.Duration) error
}

type creatorFactory func(ctx context.Context, cfg config.Config) (creator, error)

func dynamoCreator(ctx context.Context, cfg config.Config) (creator, error) {
	client, err := ddb.NewClient(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return ddb.NewStore(client), nil
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr, dynamoCreator)
	stop()
	os.Exit(code)
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer, factory creatorFactory) int {
	fs := flag.NewFlagSet("itemstore", flag.ContinueOnError)
	fs.SetOutput(stderr)
	var (
		versionFlag = fs.Bool("version", false, "Show version information")
		vFlag       = fs.Bool("v", false, "Show version information (short)")
		configPath  = fs.String("config", "itemstore.yaml", "Client configuration file")
		tablesPath  = fs.String("tables", "", "Tables file to provision")
		dryRun      = fs.Bool("dry-run", false, "Print the create-table requests without sending them")
		wait        = fs.Duration("wait", 5*time.Minute, "Maximum time to wait for each table to become ACTIVE")
	)
	if err := fs.Parse(args); err != nil {
		return 2
	}

	if *versionFlag || *vFlag {
		fmt.Fprint(stdout, itemstore.GetVersionInfo())
		return 0
	}

	if *tablesPath == "" {
		fmt.Fprintln(stderr, "itemstore: -tables is required")
		fs.Usage()
		return 2
	}

	tf, err := config.LoadTables(*tablesPath)
	if err != nil {
		fmt.Fprintf(stderr, "itemstore: %v\n", err)
		return 1
	}
	requests, err := derive(tf)
	if err != nil {
		fmt.Fprintf(stderr, "itemstore: %v\n", err)
		return 1
	}

	if *dryRun {
		if err := printRequests(stdout, requests); err != nil {
			fmt.Fprintf(stderr, "itemstore: %v\n", err)
			return 1
		}
		return 0
	}

	cfg, err := config.Load(*configPath, ".env")
	if err != nil {
		fmt.Fprintf(stderr, "itemstore: %v\n", err)
		return 1
	}
	logger := config.NewLogger(cfg.Logging)

	if err := provisionAll(ctx, *cfg, requests, factory, *wait, logger); err != nil {
		fmt.Fprintf(stderr, "itemstore: %v\n", err)
		return 1
	}
	return 0
}

// derive turns every table of the file into a create-table request, in file
// order.
func derive(tf *config.TablesFile) ([]*provision.Request, error) {
	schemas, err := tf.Schemas()
	if err != nil {
		return nil, err
	}
	out := make([]*provision.Request, 0, len(schemas))
	for i, schema := range schemas {
		spec := tf.Tables[i]
		req, err := provision.Derive(schema, billing(spec.Billing), provision.WithTags(spec.Tags))
		if err != nil {
			return nil, err
		}
		out = append(out, req)
	}
	return out, nil
}

func billing(b config.Billing) provision.Billing {
	if b.Mode == config.BillingProvisioned {
		return provision.Provisioned(b.ReadCapacity, b.WriteCapacity)
	}
	return provision.PayPerRequest()
}

func printRequests(w io.Writer, requests []*provision.Request) error {
	inputs := make([]*dynamodb.CreateTableInput, 0, len(requests))
	for _, r := range requests {
		inputs = append(inputs, r.Input())
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(inputs)
}

// provisionAll creates the tables one after the other. Stores are shared by
// tables that resolve to the same region and endpoint.
func provisionAll(ctx context.Context, cfg config.Config, requests []*provision.Request, factory creatorFactory, wait time.Duration, logger zerolog.Logger) error {
	stores := make(map[string]creator)
	for _, req := range requests {
		tcfg := cfg.ForTable(req.TableName)
		key := tcfg.Region + "|" + tcfg.Endpoint
		store, ok := stores[key]
		if !ok {
			var err error
			if store, err = factory(ctx, tcfg); err != nil {
				return err
			}
			stores[key] = store
		}

		err := store.CreateTable(ctx, req.Input())
		var inUse *types.ResourceInUseException
		switch {
		case stderrors.As(err, &inUse):
			logger.Info().Str("table", req.TableName).Msg("table already exists")
			continue
		case err != nil:
			return err
		}

		if err := store.WaitUntilActive(ctx, req.TableName, wait); err != nil {
			return err
		}
		itemstore.LogTableCreated(logger, req.TableName, len(req.GlobalIndexes), len(req.LocalIndexes))
	}
	return nil
}
