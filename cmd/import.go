package main

import (
	"context"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/gridsignal/loraplan/internal/fetcher"
	"github.com/gridsignal/loraplan/internal/importer"
)

var (
	importCSVPaths []string
	importXLSXPath string
	importShpPath  string
	importURL      string
	importCharset  string
	importSheet    string
)

var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Import candidate sites from files or remote exports",
	Long:  "Parses site lists from CSV, XLSX, or shapefile sources (local paths or ftp/http URLs) and upserts them as candidate nodes. Records without a direct-to-gateway column are classified against the current network.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		if len(importCSVPaths) == 0 && importXLSXPath == "" && importShpPath == "" && importURL == "" {
			return eris.New("at least one of --csv, --xlsx, --shp, --url is required")
		}

		// Parse all sources concurrently, then ingest in flag order so
		// node positions stay deterministic.
		csvRecords := make([][]importer.Record, len(importCSVPaths))
		var xlsxRecords, shpRecords, urlRecords []importer.Record

		g, gctx := errgroup.WithContext(ctx)

		for i, path := range importCSVPaths {
			g.Go(func() error {
				f, err := os.Open(path)
				if err != nil {
					return eris.Wrapf(err, "open %s", path)
				}
				defer f.Close()
				recs, err := importer.ParseCSV(f, importer.CSVOptions{Charset: importCharset})
				if err != nil {
					return err
				}
				csvRecords[i] = recs
				return nil
			})
		}

		if importXLSXPath != "" {
			g.Go(func() error {
				recs, err := importer.ParseXLSX(importXLSXPath, importer.XLSXOptions{SheetName: importSheet})
				if err != nil {
					return err
				}
				xlsxRecords = recs
				return nil
			})
		}

		if importShpPath != "" {
			g.Go(func() error {
				recs, err := importer.ParseShapefile(importShpPath)
				if err != nil {
					return err
				}
				shpRecords = recs
				return nil
			})
		}

		if importURL != "" {
			g.Go(func() error {
				recs, err := fetchRecords(gctx, importURL)
				if err != nil {
					return err
				}
				urlRecords = recs
				return nil
			})
		}

		if err := g.Wait(); err != nil {
			return err
		}

		var records []importer.Record
		for _, recs := range csvRecords {
			records = append(records, recs...)
		}
		records = append(records, xlsxRecords...)
		records = append(records, shpRecords...)
		records = append(records, urlRecords...)

		st, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		sum, err := importer.Ingest(ctx, st, records, cfg.Plan.Planner())
		if err != nil {
			return err
		}

		zap.L().Info("import complete",
			zap.Int("added", sum.Added),
			zap.Int("updated", sum.Updated),
		)
		return nil
	},
}

// fetchRecords downloads a remote CSV export over FTP or HTTP and parses it.
func fetchRecords(ctx context.Context, rawURL string) ([]importer.Record, error) {
	var (
		body io.ReadCloser
		err  error
	)
	timeout := time.Duration(cfg.Fetch.TimeoutSecs) * time.Second

	if strings.HasPrefix(rawURL, "ftp:") {
		f := fetcher.NewFTPFetcher(fetcher.FTPOptions{Timeout: timeout})
		body, err = f.Download(ctx, rawURL)
	} else {
		f := fetcher.NewHTTPFetcher(fetcher.HTTPOptions{
			UserAgent:  cfg.Fetch.UserAgent,
			Timeout:    timeout,
			RatePerSec: cfg.Fetch.RatePerSec,
		})
		body, err = f.Download(ctx, rawURL)
	}
	if err != nil {
		return nil, err
	}
	defer body.Close()

	return importer.ParseCSV(body, importer.CSVOptions{Charset: importCharset})
}

func init() {
	importCmd.Flags().StringSliceVar(&importCSVPaths, "csv", nil, "CSV site list path (repeatable)")
	importCmd.Flags().StringVar(&importXLSXPath, "xlsx", "", "XLSX site list path")
	importCmd.Flags().StringVar(&importShpPath, "shp", "", "shapefile path (point features)")
	importCmd.Flags().StringVar(&importURL, "url", "", "remote CSV export (ftp:// or http(s)://)")
	importCmd.Flags().StringVar(&importCharset, "charset", "", "source charset for CSV (IANA name, default UTF-8)")
	importCmd.Flags().StringVar(&importSheet, "sheet", "", "XLSX sheet name (default first sheet)")
	rootCmd.AddCommand(importCmd)
}
