// ABOUTME: Migration utility that copies every stored collection from one backend to another.
// ABOUTME: Provides dry-run and backup capabilities so a target is never overwritten by accident.

package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/manvote/crmdesk/cli"
	"github.com/manvote/crmdesk/config"
	"github.com/manvote/crmdesk/db"
	"github.com/manvote/crmdesk/logging"
)

type options struct {
	from   config.StorageConfig
	to     config.StorageConfig
	dryRun bool
	backup bool
	force  bool
}

type report struct {
	Copied  []string
	Missing []string
}

func main() {
	var opts options
	flag.StringVar(&opts.from.Backend, "from", config.BackendSQLite, "Source backend: sqlite, badger, charm or mongo")
	flag.StringVar(&opts.from.Path, "from-path", "", "Source sqlite file or badger directory")
	flag.StringVar(&opts.from.MongoURI, "from-mongo-uri", "", "Source mongo URI")
	flag.StringVar(&opts.to.Backend, "to", config.BackendBadger, "Target backend: sqlite, badger, charm or mongo")
	flag.StringVar(&opts.to.Path, "to-path", "", "Target sqlite file or badger directory")
	flag.StringVar(&opts.to.MongoURI, "to-mongo-uri", "", "Target mongo URI")
	flag.BoolVar(&opts.dryRun, "dry-run", false, "Show what would happen without making changes")
	flag.BoolVar(&opts.backup, "backup", true, "Back up a sqlite target before writing to it")
	flag.BoolVar(&opts.force, "force", false, "Overwrite collections the target already holds")
	flag.Parse()

	logging.Init(logging.Options{Level: "info"})
	log := logging.For("migrate")

	if opts.from.Path == "" || (opts.to.Path == "" && opts.to.Backend != config.BackendCharm && opts.to.Backend != config.BackendMongo) {
		log.Fatal("Error: -from-path and -to-path are required")
	}
	opts.from.MongoDatabase = config.AppName
	opts.to.MongoDatabase = config.AppName

	ctx := context.Background()
	r, err := migrate(ctx, opts, log)
	if err != nil {
		log.Fatalf("Migration failed: %v", err)
	}

	log.WithFields(logrus.Fields{
		"copied":  len(r.Copied),
		"missing": len(r.Missing),
	}).Info("Migration completed successfully")
}

func migrate(ctx context.Context, opts options, log *logrus.Entry) (report, error) {
	if opts.from == opts.to {
		return report{}, errors.New("source and target are the same")
	}

	if opts.backup && !opts.dryRun && opts.to.Backend == config.BackendSQLite {
		if err := backupFile(opts.to.Path, log); err != nil {
			return report{}, err
		}
	}

	src, err := cli.OpenStorage(ctx, opts.from)
	if err != nil {
		return report{}, fmt.Errorf("failed to open source: %w", err)
	}
	defer func() { _ = src.Close() }()

	dst, err := cli.OpenStorage(ctx, opts.to)
	if err != nil {
		return report{}, fmt.Errorf("failed to open target: %w", err)
	}
	defer func() { _ = dst.Close() }()

	var r report
	for _, key := range db.AllKeys {
		data, err := src.Resource.Get(ctx, key)
		if errors.Is(err, db.ErrKeyNotFound) {
			r.Missing = append(r.Missing, key)
			continue
		}
		if err != nil {
			return r, fmt.Errorf("failed to read %s: %w", key, err)
		}

		_, err = dst.Resource.Get(ctx, key)
		switch {
		case err == nil && !opts.force:
			log.Printf("WARNING: target already holds %s", key)
			log.Printf("Use -force flag to overwrite it")
			return r, fmt.Errorf("target already holds %s; migration requires -force flag", key)
		case err != nil && !errors.Is(err, db.ErrKeyNotFound):
			return r, fmt.Errorf("failed to check target %s: %w", key, err)
		}

		if opts.dryRun {
			log.Printf("[DRY RUN] Would copy %s (%d bytes)", key, len(data))
			r.Copied = append(r.Copied, key)
			continue
		}
		if err := dst.Resource.Set(ctx, key, data); err != nil {
			return r, fmt.Errorf("failed to write %s: %w", key, err)
		}
		log.Printf("Copied %s (%d bytes)", key, len(data))
		r.Copied = append(r.Copied, key)
	}

	return r, nil
}

func backupFile(path string, log *logrus.Entry) error {
	input, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read database: %w", err)
	}

	backupPath := fmt.Sprintf("%s.backup.%s", path, time.Now().Format("20060102-150405"))
	log.Printf("Creating backup: %s", backupPath)
	if err := os.WriteFile(backupPath, input, 0600); err != nil {
		return fmt.Errorf("failed to create backup: %w", err)
	}
	log.Printf("Backup created successfully")
	return nil
}
