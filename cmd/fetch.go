package cmd

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/klauspost/compress/zstd"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/pable/go-ctf-metrics/internal/tagpro"
)

// fetch command flags.
var (
	// fetchOut receives the bulk matches export; a .zst suffix compresses it.
	fetchOut string
	// fetchMapsOut, when set, also downloads the bulk maps export.
	fetchMapsOut string
	// fetchFirst overrides the cursor's first match id.
	fetchFirst int64
	// fetchCursor remembers the next match id to download between runs.
	fetchCursor  string
	fetchBaseURL string
)

// fetchCmd downloads new matches from the public archive.
var fetchCmd = &cobra.Command{
	Use:   "fetch",
	Short: "Download new matches from the public archive as a bulk file",
	Long: `Looks up the newest match id in the archive's sitemaps and downloads every
match from the cursor up to it as one bulk matches file. The cursor is then
advanced past the newest match so the next fetch only picks up new games.

Examples:
  ctfmetrics fetch --first 3000000 --out bulkmatches.json.zst --maps-out bulkmaps.json
  ctfmetrics process --matches bulkmatches.json.zst --maps bulkmaps.json`,
	Args: cobra.NoArgs,
	RunE: runFetch,
}

func init() {
	fetchCmd.Flags().StringVar(&fetchOut, "out", "bulkmatches.json", "bulk matches output file (.zst to compress)")
	fetchCmd.Flags().StringVar(&fetchMapsOut, "maps-out", "", "also download the bulk maps file here")
	fetchCmd.Flags().Int64Var(&fetchFirst, "first", 0, "first match id to download (default: from cursor)")
	fetchCmd.Flags().StringVar(&fetchCursor, "cursor", "", "cursor file (default: latest_match.txt next to the database)")
	fetchCmd.Flags().StringVar(&fetchBaseURL, "base-url", tagpro.DefaultBaseURL, "archive root URL")
}

func readCursor(path string) (int64, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return 0, err
	}
	id, err := strconv.ParseInt(strings.TrimSpace(string(b)), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("cursor %s: %w", path, err)
	}
	return id, nil
}

func writeCursor(path string, next int64) error {
	return os.WriteFile(path, []byte(strconv.FormatInt(next, 10)+"\n"), 0644)
}

// writeAtomically streams fill into a temp file next to path, zstd-compressed
// when path ends in .zst, and renames it into place once complete.
func writeAtomically(path string, fill func(io.Writer) (int64, error)) (int64, error) {
	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".*.part")
	if err != nil {
		return 0, err
	}
	defer os.Remove(tmp.Name())

	var w io.Writer = tmp
	var enc *zstd.Encoder
	if strings.HasSuffix(path, ".zst") {
		enc, err = zstd.NewWriter(tmp)
		if err != nil {
			tmp.Close()
			return 0, fmt.Errorf("zstd: %w", err)
		}
		w = enc
	}

	n, err := fill(w)
	if err == nil && enc != nil {
		err = enc.Close()
	}
	if cerr := tmp.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return 0, err
	}
	return n, os.Rename(tmp.Name(), path)
}

func runFetch(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	cursor := fetchCursor
	if cursor == "" {
		cursor = filepath.Join(filepath.Dir(cfg.DBPath), "latest_match.txt")
	}

	first := fetchFirst
	if first == 0 {
		id, err := readCursor(cursor)
		if err != nil {
			if os.IsNotExist(err) {
				return fmt.Errorf("no cursor at %s: pass --first to start", cursor)
			}
			return err
		}
		first = id
	}

	client := tagpro.NewClient(fetchBaseURL)
	latest, err := client.LatestMatchID(ctx)
	if err != nil {
		return fmt.Errorf("latest match: %w", err)
	}
	logger.Info("archive head", zap.Int64("latest", latest), zap.Int64("first", first))
	if latest < first {
		fmt.Fprintln(os.Stdout, "No new matches to fetch.")
		return nil
	}

	fmt.Fprintf(os.Stdout, "Downloading matches %d → %d...\n", first, latest)
	n, err := writeAtomically(fetchOut, func(w io.Writer) (int64, error) {
		return client.DownloadMatches(ctx, first, latest, w)
	})
	if err != nil {
		return fmt.Errorf("download matches: %w", err)
	}
	fmt.Fprintf(os.Stdout, "Wrote %s (%d bytes)\n", fetchOut, n)

	if fetchMapsOut != "" {
		n, err := writeAtomically(fetchMapsOut, func(w io.Writer) (int64, error) {
			return client.DownloadMaps(ctx, w)
		})
		if err != nil {
			return fmt.Errorf("download maps: %w", err)
		}
		fmt.Fprintf(os.Stdout, "Wrote %s (%d bytes)\n", fetchMapsOut, n)
	}

	if err := os.MkdirAll(filepath.Dir(cursor), 0755); err != nil {
		return fmt.Errorf("create cursor dir: %w", err)
	}
	if err := writeCursor(cursor, latest+1); err != nil {
		return fmt.Errorf("write cursor: %w", err)
	}
	return nil
}
