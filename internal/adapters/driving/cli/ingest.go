package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"github.com/machinecraft-tech/vectorpenter/internal/logger"
)

var ingestWatch bool

var ingestCmd = &cobra.Command{
	Use:   "ingest [path]",
	Short: "Parse, chunk, and persist documents from a folder",
	Long: `Walks the given path, chunks every supported document, and persists
the chunks locally. Files whose content is unchanged since the last
run are skipped. Run 'index' afterwards to rebuild the search indexes.

With --watch the command keeps running and re-ingests files as they
change on disk.`,
	Args: cobra.ExactArgs(1),
	RunE: runIngest,
}

func init() {
	ingestCmd.Flags().BoolVar(&ingestWatch, "watch", false, "watch the path and re-ingest on change")
	rootCmd.AddCommand(ingestCmd)
}

func runIngest(cmd *cobra.Command, args []string) error {
	if err := ensureServices(cmd.Context()); err != nil {
		return err
	}
	if ingestService == nil {
		return errors.New("ingest service not configured")
	}

	path := args[0]
	if err := ingestOnce(cmd, path); err != nil {
		return err
	}

	if !ingestWatch {
		return nil
	}
	return watchAndIngest(cmd, path)
}

func ingestOnce(cmd *cobra.Command, path string) error {
	stats, err := ingestService.Ingest(cmd.Context(), path)
	if err != nil {
		return fmt.Errorf("ingest failed: %w", err)
	}
	cmd.Printf("Ingested %d document(s), %d chunk(s), %d unchanged\n",
		stats.Documents, stats.Chunks, stats.Skipped)
	return nil
}

// watchAndIngest blocks, re-running ingestion whenever files under
// path change. Events are debounced so editors that write in several
// steps trigger a single run.
func watchAndIngest(cmd *cobra.Command, path string) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("starting watcher: %w", err)
	}
	defer watcher.Close()

	if err := addWatchDirs(watcher, path); err != nil {
		return err
	}
	cmd.Printf("Watching %s for changes (ctrl-c to stop)\n", path)

	const debounce = 500 * time.Millisecond
	var timer *time.Timer
	pending := make(chan struct{}, 1)

	for {
		select {
		case <-cmd.Context().Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Rename|fsnotify.Remove) == 0 {
				continue
			}
			// New directories need their own watch.
			if event.Op&fsnotify.Create != 0 {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					_ = addWatchDirs(watcher, event.Name)
				}
			}
			if timer != nil {
				timer.Stop()
			}
			timer = time.AfterFunc(debounce, func() {
				select {
				case pending <- struct{}{}:
				default:
				}
			})
		case <-pending:
			if err := ingestOnce(cmd, path); err != nil {
				logger.Warn("re-ingest failed: %v", err)
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Warn("watch error: %v", err)
		}
	}
}

// addWatchDirs registers path and every directory below it.
func addWatchDirs(watcher *fsnotify.Watcher, path string) error {
	return filepath.WalkDir(path, func(p string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return watcher.Add(p)
		}
		return nil
	})
}
