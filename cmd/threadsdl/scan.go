package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"sync"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"threadsdl/pkg/checkpoint"
	"threadsdl/pkg/engine"
	"threadsdl/pkg/metadata"
	"threadsdl/pkg/models"
	"threadsdl/pkg/ui"
)

var (
	location   string
	outputDir  string
	concurrent int
	asZip      bool
	onlyType   string
	sidecars   bool
	skipSaved  bool
)

var scanCmd = &cobra.Command{
	Use:   "scan <file|url>",
	Short: "List the posts and media found on a page",
	Long: `Run one discovery pass over a saved page or a live URL and report every
post with direct media, the filename each item would be saved under, and the
controls the in-page engine would attach.`,
	Example: `  # Scan a saved page
  threadsdl scan ./feed.html

  # Resolve relative links against a specific post URL
  threadsdl scan ./post.html --location https://www.threads.net/@john/post/ABC`,
	Args: cobra.ExactArgs(1),
	RunE: runScan,
}

var downloadCmd = &cobra.Command{
	Use:   "download <file|url>",
	Short: "Download the media found on a page",
	Long: `Discover every post on a page and download its media into the Threads
folder of the output directory. With --zip each post is packed into one
archive instead; items that fail are left out of the archive.`,
	Example: `  # Download every video and image of a saved page
  threadsdl download ./feed.html --output ./media

  # Only videos, five at a time
  threadsdl download https://www.threads.net/@john/post/ABC --type video --concurrent 5

  # One ZIP per post
  threadsdl download ./feed.html --zip

  # Skip media saved by an earlier run and describe each file in a .json sidecar
  threadsdl download ./feed.html --skip-downloaded --metadata`,
	Args: cobra.ExactArgs(1),
	RunE: runDownload,
}

func init() {
	rootCmd.AddCommand(scanCmd)
	rootCmd.AddCommand(downloadCmd)

	for _, cmd := range []*cobra.Command{scanCmd, downloadCmd} {
		cmd.Flags().StringVar(&location, "location", "", "page URL for relative links (default: the fetched URL or threads.net)")
		cmd.Flags().StringVarP(&outputDir, "output", "o", "", "base directory for downloads")
	}
	downloadCmd.Flags().IntVar(&concurrent, "concurrent", 0, "number of concurrent downloads")
	downloadCmd.Flags().BoolVar(&asZip, "zip", false, "pack each post into one ZIP archive")
	downloadCmd.Flags().StringVar(&onlyType, "type", "all", "media to download (all, video, image)")
	downloadCmd.Flags().BoolVar(&sidecars, "metadata", false, "write a JSON metadata file next to every download")
	downloadCmd.Flags().BoolVar(&skipSaved, "skip-downloaded", false, "skip media recorded by earlier runs in the output folder")
}

func commandFlags() map[string]interface{} {
	return map[string]interface{}{
		"output":     outputDir,
		"concurrent": concurrent,
	}
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

func runScan(cmd *cobra.Command, args []string) error {
	ctx, cancel := signalContext()
	defer cancel()

	s, err := openSession(ctx, args[0], location, commandFlags())
	if err != nil {
		out.Error("Failed to open page", err)
		return err
	}
	defer s.Close()

	found := s.engine.Discover()
	stats := s.engine.Scan()

	out.Info("Page", args[0])
	out.Info("Posts", strconv.Itoa(stats.Posts))
	out.Info("Posts with media", strconv.Itoa(len(found)))
	out.Info("Download buttons", strconv.Itoa(stats.ButtonsAdded))
	out.Info("Overlay buttons", strconv.Itoa(stats.OverlaysAdded))

	for _, post := range found {
		fmt.Fprintln(out.Writer())
		if post.Info.Complete() {
			out.Highlight("@" + post.Info.Username + " / " + post.Info.PostID)
		} else {
			out.Highlight("(unknown post)")
		}
		for _, item := range post.Items {
			out.Info(string(item.Media.Type), item.Filename)
			out.Dim("  " + item.Media.URL)
		}
	}

	if len(found) == 0 {
		out.Warning("No media found on this page")
	}
	return nil
}

func runDownload(cmd *cobra.Command, args []string) error {
	ctx, cancel := signalContext()
	defer cancel()

	s, err := openSession(ctx, args[0], location, commandFlags())
	if err != nil {
		out.Error("Failed to open page", err)
		return err
	}
	defer s.Close()

	scope := models.ParseScope(onlyType)
	found := s.engine.Discover()
	for i := range found {
		var items []engine.Item
		for _, item := range found[i].Items {
			if scope.Includes(item.Media.Type) {
				items = append(items, item)
			}
		}
		found[i].Items = items
	}

	if asZip {
		return downloadArchives(ctx, s, found)
	}
	return downloadItems(ctx, s, found)
}

func downloadItems(ctx context.Context, s *session, found []engine.Discovered) error {
	var cp *checkpoint.Manager
	if skipSaved {
		var err error
		found, cp, err = skipDownloaded(s, found)
		if err != nil {
			return err
		}
	}

	var total int
	for _, post := range found {
		total += len(post.Items)
	}
	if total == 0 {
		out.Warning("No new media found on this page")
		return nil
	}

	progress := ui.NewProgress(total)
	var mu sync.Mutex
	var wg sync.WaitGroup
	var failures []string

	for _, post := range found {
		for _, item := range post.Items {
			wg.Add(1)
			go func() {
				defer wg.Done()
				res := s.engine.Download(ctx, item)
				if res.Success {
					recordSaved(s, cp, post, item, res.Path)
				}

				mu.Lock()
				defer mu.Unlock()
				if res.Success {
					progress.Succeed()
				} else {
					progress.Fail()
					failures = append(failures, item.Filename+": "+res.Error)
				}
				progress.Print(out)
			}()
		}
	}
	wg.Wait()

	done, failed, _ := progress.Counts()
	for _, f := range failures {
		out.Error("Failed", fmt.Errorf("%s", f))
	}
	if failed == done {
		return fmt.Errorf("all %d downloads failed", failed)
	}
	out.Success(fmt.Sprintf("Downloaded %d of %d files in %s", done-failed, total, progress.Elapsed().Round(time.Millisecond)))
	return nil
}

// skipDownloaded drops the items the output folder's checkpoint already lists
func skipDownloaded(s *session, found []engine.Discovered) ([]engine.Discovered, *checkpoint.Manager, error) {
	cp, err := checkpoint.NewManager(s.downloadDir(), s.log)
	if err != nil {
		return nil, nil, err
	}
	record, err := cp.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read download checkpoint: %w", err)
	}

	var skipped int
	for i := range found {
		var items []engine.Item
		for _, item := range found[i].Items {
			if record.IsDownloaded(item.Media.URL) {
				skipped++
				continue
			}
			items = append(items, item)
		}
		found[i].Items = items
	}
	if skipped > 0 {
		out.Info("Already downloaded", strconv.Itoa(skipped))
	}
	return found, cp, nil
}

// recordSaved runs the bookkeeping for one finished download
func recordSaved(s *session, cp *checkpoint.Manager, post engine.Discovered, item engine.Item, path string) {
	name := filepath.Base(path)
	if cp != nil {
		if err := cp.RecordDownload(item.Media.URL, name); err != nil {
			s.log.WithError(err).Warn("Failed to update download checkpoint")
		}
	}
	if sidecars {
		meta := metadata.FromItem(item.Media, post.Info, name, s.page, time.Now())
		if err := meta.Save(path); err != nil {
			s.log.WithError(err).Warn("Failed to write metadata")
		}
	}
}

func downloadArchives(ctx context.Context, s *session, found []engine.Discovered) error {
	var saved, attempted int
	for _, post := range found {
		if len(post.Items) == 0 {
			continue
		}
		attempted++
		progress := ui.NewProgress(len(post.Items))
		var mu sync.Mutex
		res, packed, err := s.engine.ArchivePost(ctx, post, func(done, total int) {
			mu.Lock()
			defer mu.Unlock()
			progress.Update(done, total)
			progress.Print(out)
		})
		if err != nil {
			out.Error("Archive failed", err)
			continue
		}
		saved++
		out.Success(fmt.Sprintf("Saved %d files to %s", packed.Succeeded, res.Path))
		for _, f := range packed.Failed {
			out.Warning(fmt.Sprintf("Left out %s: %v", f.Entry.Filename, f.Err))
		}
	}
	if attempted == 0 {
		out.Warning("No media found on this page")
		return nil
	}
	if saved == 0 {
		return fmt.Errorf("none of the %d archives could be saved", attempted)
	}
	return nil
}
