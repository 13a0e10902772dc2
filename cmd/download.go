package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/legalform/internal/dataset"
	"github.com/sells-group/legalform/internal/fetcher"
)

var downloadDir string

var downloadCmd = &cobra.Command{
	Use:   "download",
	Short: "Download the latest GLEIF golden copy and the ELF code list",
	Long: "Downloads the newest LEI golden copy publication into data.dir, where train and evaluate pick it up when data.registry_file is unset. " +
		"When data.reference_url is set, the ELF code list is fetched into data.reference_file as well.",
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		dir := downloadDir
		if dir == "" {
			dir = cfg.Data.Dir
		}
		if err := runDownload(cmd.Context(), cmd.OutOrStdout(), cfg.Data.GoldenCopyURL, dir); err != nil {
			return err
		}
		return runDownloadReference(cmd.Context(), cmd.OutOrStdout(), cfg.Data.ReferenceURL, cfg.Data.ReferenceFile)
	},
}

func runDownload(ctx context.Context, out io.Writer, listURL, dir string) error {
	client := dataset.NewGoldenCopyClient(listURL, fetcher.NewHTTPFetcher(fetcher.HTTPOptions{}))
	path, err := client.DownloadLatest(ctx, dir)
	if err != nil {
		return eris.Wrap(err, "download golden copy")
	}
	_, _ = fmt.Fprintln(out, path)
	return nil
}

// runDownloadReference fetches the ELF code list into path. An empty url
// skips the download.
func runDownloadReference(ctx context.Context, out io.Writer, url, path string) error {
	if url == "" {
		zap.L().Info("data.reference_url not set, keeping existing ELF code list", zap.String("path", path))
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return eris.Wrapf(err, "create %s", filepath.Dir(path))
	}
	n, err := fetcher.NewHTTPFetcher(fetcher.HTTPOptions{}).DownloadToFile(ctx, url, path)
	if err != nil {
		return eris.Wrap(err, "download ELF code list")
	}
	if _, err := dataset.LoadReference(ctx, path); err != nil {
		return eris.Wrapf(err, "downloaded ELF code list %s", path)
	}
	zap.L().Info("ELF code list downloaded", zap.String("path", path), zap.Int64("bytes", n))
	_, _ = fmt.Fprintln(out, path)
	return nil
}

func init() {
	downloadCmd.Flags().StringVar(&downloadDir, "dir", "", "target directory (default data.dir)")
	rootCmd.AddCommand(downloadCmd)
}
