package main

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/urfave/cli/v3"

	"github.com/terratensor/teryt/internal/adapters/downloader"
	"github.com/terratensor/teryt/internal/app/services"
	"github.com/terratensor/teryt/internal/core/domain"
)

func importCommand() *cli.Command {
	return &cli.Command{
		Name:  "import",
		Usage: "Flush and/or import registry data from TERC.xml and SIMC.xml",
		Flags: append([]cli.Flag{
			&cli.StringSliceFlag{
				Name:  "data",
				Value: []string{domain.KindAll},
				Usage: "kinds to process: province, county, municipality, city, village, district or all",
			},
			&cli.BoolFlag{Name: "import", Value: true, Usage: "import the selected kinds"},
			&cli.BoolFlag{Name: "flush", Usage: "delete the selected kinds before importing"},
		}, commonFlags()...),
		Action: func(ctx context.Context, c *cli.Command) error {
			kinds, err := domain.ParseKinds(c.StringSlice("data"))
			if err != nil {
				return err
			}
			req := services.Request{Kinds: kinds, Flush: c.Bool("flush"), Import: c.Bool("import")}
			if !req.Flush && !req.Import {
				return fmt.Errorf("nothing to do: both --import and --flush are off")
			}

			env, err := setup(c)
			if err != nil {
				return err
			}
			defer env.log.Sync()

			store, closeStore, err := env.openStore(ctx)
			if err != nil {
				return err
			}
			defer closeStore()

			stats, err := services.NewImporter(env.cfg, store, env.log).Run(ctx, req)
			if err != nil {
				return err
			}
			for _, s := range stats {
				if s.Deleted > 0 {
					fmt.Printf("%s: %d deleted\n", s.Kind, s.Deleted)
					continue
				}
				fmt.Println(s)
			}
			fmt.Println("Import completed successfully!")
			return nil
		},
	}
}

func fetchCommand() *cli.Command {
	return &cli.Command{
		Name:  "fetch",
		Usage: "Download or copy registry files into the import directory",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "terc", Usage: "TERC source: URL or local .zip/.xml (default $TERYT_TERC_URL)"},
			&cli.StringFlag{Name: "simc", Usage: "SIMC source: URL or local .zip/.xml (default $TERYT_SIMC_URL)"},
			&cli.StringFlag{Name: "import-dir", Usage: "directory holding TERC.xml and SIMC.xml"},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			env, err := setup(c)
			if err != nil {
				return err
			}
			defer env.log.Sync()

			sources := []struct {
				catalog string
				source  string
			}{
				{downloader.CatalogTERC, firstNonEmpty(c.String("terc"), env.cfg.TercURL)},
				{downloader.CatalogSIMC, firstNonEmpty(c.String("simc"), env.cfg.SimcURL)},
			}

			fetcher := downloader.New(env.cfg, env.log)
			fetched := 0
			for _, s := range sources {
				if s.source == "" {
					continue
				}
				path, err := fetcher.Fetch(ctx, s.catalog, s.source)
				if err != nil {
					return fmt.Errorf("fetch %s: %w", s.catalog, err)
				}
				fmt.Printf("%s -> %s\n", s.catalog, path)
				fetched++
			}
			if fetched == 0 {
				return fmt.Errorf("nothing to fetch: pass --terc/--simc or set TERYT_TERC_URL/TERYT_SIMC_URL")
			}
			return nil
		},
	}
}

func migrateCommand() *cli.Command {
	return &cli.Command{
		Name:  "migrate",
		Usage: "Apply database migrations",
		Flags: commonFlags(),
		Action: func(ctx context.Context, c *cli.Command) error {
			env, err := setup(c)
			if err != nil {
				return err
			}
			defer env.log.Sync()

			_, closeStore, err := env.openStore(ctx)
			if err != nil {
				return err
			}
			closeStore()
			fmt.Println("Migrations applied")
			return nil
		},
	}
}

func statsCommand() *cli.Command {
	return &cli.Command{
		Name:  "stats",
		Usage: "Print the number of stored rows per kind",
		Flags: commonFlags(),
		Action: func(ctx context.Context, c *cli.Command) error {
			env, err := setup(c)
			if err != nil {
				return err
			}
			defer env.log.Sync()

			store, closeStore, err := env.openStore(ctx)
			if err != nil {
				return err
			}
			defer closeStore()

			counters := []struct {
				kind  domain.Kind
				count func(context.Context) (int64, error)
			}{
				{domain.KindProvince, store.Provinces().Count},
				{domain.KindCounty, store.Counties().Count},
				{domain.KindMunicipality, store.Municipalities().Count},
				{domain.KindCity, store.Cities().Count},
				{domain.KindVillage, store.Villages().Count},
				{domain.KindDistrict, store.Districts().Count},
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "KIND\tROWS")
			for _, counter := range counters {
				n, err := counter.count(ctx)
				if err != nil {
					return fmt.Errorf("count %s: %w", counter.kind, err)
				}
				fmt.Fprintf(w, "%s\t%d\n", counter.kind, n)
			}
			return w.Flush()
		},
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
