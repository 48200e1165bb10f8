// Command mailsweep finds and removes duplicate emails across local
// mailbox stores (Thunderbird, Apple Mail, Outlook data files, and
// generic mbox/maildir folders). Removal is always a move to a trash
// location, never a permanent delete.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	flag "github.com/spf13/pflag"

	"github.com/nhle/mailsweep/internal/cleaner"
	"github.com/nhle/mailsweep/internal/clients"
	"github.com/nhle/mailsweep/internal/demo"
	"github.com/nhle/mailsweep/internal/history"
	"github.com/nhle/mailsweep/internal/model"
	"github.com/nhle/mailsweep/internal/retention"
	"github.com/nhle/mailsweep/internal/scanner"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, errorStyle.Render("Error: "+err.Error()))
		os.Exit(1)
	}
}

func run() error {
	var (
		scanPath    = flag.String("scan-path", "", "manually specify a mail folder path to scan")
		scanAll     = flag.Bool("scan-all", false, "scan every supported client's folders")
		client      = flag.String("client", "", "email client to scan (thunderbird, apple_mail, outlook, generic, all)")
		criteria    = flag.String("criteria", "", "duplicate detection criteria (strict, content, headers, subject-sender)")
		keep        = flag.String("keep", "", "retention policy when cleaning (oldest, newest, first)")
		autoClean   = flag.Bool("auto-clean", false, "clean duplicates automatically after scanning")
		listFolders = flag.Bool("list-folders", false, "list mail folders and exit without scanning")
		demoMode    = flag.Bool("demo", false, "run against a throwaway demo mailbox")
		analyze     = flag.Bool("analyze", false, "print sender, timeline, and size statistics per folder")
		showHist    = flag.Int("history", 0, "show the N most recent scans and exit")
		configPath  = flag.String("config", model.DefaultConfigPath(), "configuration file path")
		verbose     = flag.BoolP("verbose", "v", false, "enable debug logging")
	)
	flag.Parse()

	logLevel := slog.LevelWarn
	if *verbose {
		logLevel = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel}))
	slog.SetDefault(logger)

	cfg, err := model.LoadConfig(*configPath)
	if err != nil {
		return err
	}
	if *scanAll {
		*client = "all"
	}
	if *client == "" {
		*client = cfg.Scan.Client
	}
	if *criteria == "" {
		*criteria = cfg.Scan.Criteria
	}
	if *keep == "" {
		*keep = cfg.Scan.Keep
	}
	if cfg.Scan.AutoClean {
		*autoClean = true
	}

	criterion, err := model.ParseCriterion(*criteria)
	if err != nil {
		return err
	}
	policy, err := retention.ParsePolicy(*keep)
	if err != nil {
		return err
	}

	ctx := context.Background()

	var hist *history.Store
	if cfg.History.Enabled {
		dbPath := cfg.History.DBPath
		if dbPath == "" {
			dbPath = model.DefaultHistoryDBPath()
		}
		if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err == nil {
			hist, err = history.NewStore(dbPath)
			if err != nil {
				logger.Warn("scan history unavailable", "error", err)
				hist = nil
			}
		}
	}
	if hist != nil {
		defer hist.Close()
	}

	if *showHist > 0 {
		if hist == nil {
			return fmt.Errorf("scan history is disabled")
		}
		return printHistory(ctx, hist, *showHist)
	}

	if *demoMode {
		tmp, err := os.MkdirTemp("", "mailsweep_demo_")
		if err != nil {
			return fmt.Errorf("creating demo directory: %w", err)
		}
		defer os.RemoveAll(tmp)

		profile, err := demo.CreateProfile(tmp)
		if err != nil {
			return err
		}
		fmt.Println(headerStyle.Render("Running in demo mode with test emails"))
		*scanPath = profile
		*client = string(model.FlavorThunderbird)
	}

	folders, err := discover(*client, *scanPath)
	if err != nil {
		return err
	}
	if len(folders) == 0 {
		return fmt.Errorf("no mail folders found; check the client selection or use --scan-path")
	}

	fmt.Println(headerStyle.Render(fmt.Sprintf("Found %d mail folders", len(folders))))
	for i, fd := range folders {
		fmt.Printf("  %2d. %s (%s, %s)\n", i+1, fd.DisplayName, fd.Flavor, fd.Format)
	}
	if *listFolders {
		return nil
	}

	if *scanPath != "" && !*demoMode {
		cfg.Scan.LastCustomFolder = *scanPath
		if err := model.SaveConfig(*configPath, cfg); err != nil {
			logger.Debug("could not persist config", "error", err)
		}
	}

	fmt.Println()
	fmt.Println(headerStyle.Render("Detection criteria: " + string(criterion)))
	fmt.Println("  " + criterion.Description())

	sc := &scanner.Scanner{
		Workers: cfg.Scan.Workers,
		Progress: func(fd model.FolderDescriptor, processed int) {
			logger.Debug("scan progress", "folder", fd.DisplayName, "processed", processed)
		},
	}

	scannable := scannableFolders(folders)
	results, err := sc.ScanFolders(ctx, scannable, criterion)
	if err != nil {
		return err
	}

	totalGroups, totalDupes := 0, 0
	for _, res := range results {
		printScan(res)

		if *analyze {
			messages, err := sc.CollectMessages(ctx, res.Folder)
			if err != nil {
				return err
			}
			printAnalysis(messages)
		}
		totalGroups += len(res.Groups)
		totalDupes += res.DuplicateMessages()

		var scanID string
		if hist != nil {
			if scanID, err = hist.RecordScan(ctx, res); err != nil {
				logger.Warn("recording scan failed", "error", err)
			}
		}

		if *autoClean && len(res.Groups) > 0 {
			cleanRes, err := cleaner.Clean(ctx, res, nil, policy)
			if err != nil {
				return err
			}
			printClean(cleanRes)
			if hist != nil && scanID != "" {
				if _, err := hist.RecordClean(ctx, scanID, cleanRes); err != nil {
					logger.Warn("recording clean failed", "error", err)
				}
			}
		}
	}

	fmt.Println()
	fmt.Println(headerStyle.Render("Scan summary"))
	fmt.Printf("Scanned %d folders: %d duplicate groups, %d duplicate emails\n",
		len(scannable), totalGroups, totalDupes)
	return nil
}

// discover resolves the folder list from an explicit path or from client
// profile discovery.
func discover(client, scanPath string) ([]model.FolderDescriptor, error) {
	if scanPath != "" {
		if client != "" && client != "all" {
			flavor, err := model.ParseClientFlavor(client)
			if err != nil {
				return nil, err
			}
			return clients.DiscoverFolders(flavor, scanPath)
		}
		return clients.DiscoverFolders(model.FlavorGeneric, scanPath)
	}
	if client == "" || client == "all" {
		return clients.DiscoverAllFolders(""), nil
	}
	flavor, err := model.ParseClientFlavor(client)
	if err != nil {
		return nil, err
	}
	return clients.DiscoverFolders(flavor, "")
}

// scannableFolders drops formats that can only be listed, not read.
func scannableFolders(folders []model.FolderDescriptor) []model.FolderDescriptor {
	var out []model.FolderDescriptor
	for _, fd := range folders {
		if fd.Format == model.FormatPST || fd.Format == model.FormatOST {
			fmt.Println(warnStyle.Render(
				"Skipping " + fd.DisplayName + ": Outlook data files cannot be scanned"))
			continue
		}
		out = append(out, fd)
	}
	return out
}

func printHistory(ctx context.Context, hist *history.Store, limit int) error {
	records, err := hist.RecentScans(ctx, limit)
	if err != nil {
		return err
	}
	if len(records) == 0 {
		fmt.Println("No recorded scans.")
		return nil
	}
	fmt.Println(headerStyle.Render("Recent scans"))
	for _, r := range records {
		fmt.Printf("%s  %-12s %-14s %5d emails, %3d groups, %3d duplicates  %s\n",
			r.Timestamp.Local().Format("2006-01-02 15:04"),
			r.ClientType, r.Criteria,
			r.TotalEmails, r.DuplicateGroups, r.DuplicateEmails,
			r.FolderPath,
		)
		cleans, err := hist.CleansForScan(ctx, r.ID)
		if err != nil {
			return err
		}
		for _, c := range cleans {
			fmt.Printf("    cleaned %d (errors %d, keep %s) at %s\n",
				c.CleanedCount, c.ErrorCount, c.SelectionMethod,
				c.Timestamp.Local().Format("2006-01-02 15:04"))
		}
	}
	return nil
}

