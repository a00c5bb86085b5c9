package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/superself/amazon-monitor/internal/config"
	"github.com/superself/amazon-monitor/internal/gsheets"
	"github.com/superself/amazon-monitor/internal/helium"
	"github.com/superself/amazon-monitor/internal/models"
	"github.com/superself/amazon-monitor/internal/registry"
	"github.com/superself/amazon-monitor/internal/report"
	"github.com/superself/amazon-monitor/internal/steplog"
)

const tag = "[MONITOR]"

const dateLayout = "02/Jan/06"

type options struct {
	date     string
	inputDir string
	regions  []models.Region

	sellerboard bool
	business    bool
	keywords    bool
	campaigns   bool
	sns         bool

	update  bool
	ongoing bool
}

func main() {
	log.Println("Starting weekly marketplace monitor...")

	opts, err := parseFlags(os.Args[1:])
	if err != nil {
		log.Fatalf("Invalid arguments: %v", err)
	}

	cfg, err := config.LoadFromEnv("config/config.yaml")
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	client, err := gsheets.NewClient(cfg.Credentials)
	if err != nil {
		log.Fatalf("Failed to initialize sheets client: %v", err)
	}

	if opts.inputDir == "" {
		opts.inputDir, err = defaultInputDir(cfg.InputDir, opts.date)
		if err != nil {
			log.Fatalf("Failed to resolve input directory: %v", err)
		}
	}
	steplog.Infof(tag, "target date %s, input dir %s", opts.date, opts.inputDir)

	ctx := context.Background()
	for _, region := range opts.regions {
		runRegion(ctx, client, cfg, opts, region)
	}

	log.Println("Done.")
}

// parseFlags reads the CLI flags. Source flags are inclusive-or: naming
// none runs every source, naming some runs exactly those. The same rule
// applies to the -u/-o snapshot selectors.
func parseFlags(args []string) (*options, error) {
	fs := flag.NewFlagSet("monitor", flag.ExitOnError)
	var (
		date       = fs.String("d", "", "target date (DD/Mon/YY), defaults to this week's Tuesday")
		inputDir   = fs.String("p", "", "directory holding the weekly export files")
		regionList = fs.String("r", "", "comma-separated regions to process (default: all)")

		sellerboard = fs.Bool("s", false, "process sellerboard exports")
		business    = fs.Bool("b", false, "process business reports")
		keywords    = fs.Bool("m", false, "fetch keyword ranks")
		campaigns   = fs.Bool("c", false, "process campaign exports")
		sns         = fs.Bool("n", false, "process subscribe & save exports")

		update  = fs.Bool("u", false, "write historical (update) snapshots")
		ongoing = fs.Bool("o", false, "write current (ongoing) snapshots")
	)
	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	opts := &options{
		date:        *date,
		inputDir:    *inputDir,
		sellerboard: *sellerboard,
		business:    *business,
		keywords:    *keywords,
		campaigns:   *campaigns,
		sns:         *sns,
		update:      *update,
		ongoing:     *ongoing,
	}

	if !opts.sellerboard && !opts.business && !opts.keywords && !opts.campaigns && !opts.sns {
		opts.sellerboard, opts.business, opts.keywords, opts.campaigns, opts.sns = true, true, true, true, true
	}
	if !opts.update && !opts.ongoing {
		opts.update, opts.ongoing = true, true
	}

	if opts.date == "" {
		opts.date = defaultTargetDate(time.Now())
	} else if _, err := time.ParseInLocation(dateLayout, opts.date, time.Local); err != nil {
		return nil, fmt.Errorf("date %q: %w", opts.date, err)
	}

	if *regionList == "" {
		opts.regions = models.AllRegions
	} else {
		for _, raw := range strings.Split(*regionList, ",") {
			region, ok := models.ParseRegion(strings.TrimSpace(raw))
			if !ok {
				return nil, fmt.Errorf("unknown region %q", raw)
			}
			opts.regions = append(opts.regions, region)
		}
	}
	return opts, nil
}

// defaultTargetDate returns the upcoming Tuesday (today, if today is
// one). Sheets are keyed by Tuesday dates, one row per week.
func defaultTargetDate(now time.Time) string {
	wd := (int(now.Weekday()) + 6) % 7 // Monday=0
	ahead := (1 - wd + 7) % 7
	return now.AddDate(0, 0, ahead).Format(dateLayout)
}

// defaultInputDir resolves the conventional export drop location:
// <base>/<MM monthname>/<DD.MM.YYYY>/ under Downloads by default, with
// the folder date being the target Tuesday.
func defaultInputDir(base, date string) (string, error) {
	dt, err := time.ParseInLocation(dateLayout, date, time.Local)
	if err != nil {
		return "", err
	}
	if base == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		base = filepath.Join(home, "Downloads")
	}
	month := fmt.Sprintf("%02d %s", int(dt.Month()), dt.Month().String())
	return filepath.Join(base, month, dt.Format("02.01.2006")), nil
}

// runRegion processes one region end to end. Failures in one source
// pair are logged and the remaining pairs still run; a registry or row
// location failure skips the whole region.
func runRegion(ctx context.Context, client *gsheets.Client, cfg *config.Config, opts *options, region models.Region) {
	steplog.Infof(tag, "=== region %s ===", region)

	spreadsheetID := cfg.Spreadsheets.ByRegion(region)
	if spreadsheetID == "" {
		steplog.Warnf(tag, "%s: no spreadsheet configured, skipping region", region)
		return
	}

	products, err := registry.Load(ctx, client, cfg.Spreadsheets.Products, region)
	if err != nil {
		steplog.Errorf(tag, "%s: registry: %v, skipping region", region, err)
		return
	}
	if err := gsheets.AssignRowIndexes(ctx, client, spreadsheetID, products, opts.date); err != nil {
		steplog.Errorf(tag, "%s: row location: %v, skipping region", region, err)
		return
	}

	writer := gsheets.NewWriter(client, spreadsheetID, cfg.Ranges, cfg.UpdateOffset)
	upper := strings.ToUpper(string(region))
	file := func(name string) string {
		return filepath.Join(opts.inputDir, upper+name)
	}

	if opts.sellerboard {
		if opts.ongoing {
			runPair(region, "sellerboard current",
				func() error { return report.LoadSellerboardCurrent(file("_dashboard_entries.xlsx"), products) },
				func() error { return writer.WriteSellerboardCurrent(ctx, products) })
		}
		if opts.update {
			runPair(region, "sellerboard historical",
				func() error { return report.LoadSellerboardHistorical(file("_dashboard_entries_update.xlsx"), products) },
				func() error { return writer.WriteSellerboardHistorical(ctx, products) })
		}
	}

	if opts.business {
		if opts.ongoing {
			runPair(region, "business current",
				func() error {
					products, err = report.LoadBusinessCurrent(file("_BusinessReport.csv"), products)
					return err
				},
				func() error { return writer.AppendBusinessCurrent(ctx, withBusinessData(products), region) })
		}
		if opts.update {
			runPair(region, "business historical",
				func() error {
					products, err = report.LoadBusinessHistorical(file("_BusinessReport_update.csv"), products)
					return err
				},
				func() error { return writer.WriteBusinessHistorical(ctx, products) })
		}
	}

	if opts.campaigns {
		runPair(region, "campaigns",
			func() error { return report.LoadCampaigns(file("_Campaigns.csv"), products) },
			func() error { return writer.WriteCampaigns(ctx, products) })
	}

	if opts.sns {
		runPair(region, "subscribe & save",
			func() error {
				return report.LoadSns(file("_sns_performance_report.csv"), file("_sns_manage_products.csv"), products)
			},
			func() error { return writer.WriteSns(ctx, products) })
	}

	if opts.keywords {
		h10 := helium.NewClient(cfg.Helium)
		runPair(region, "keyword ranks",
			func() error {
				if err := helium.UpdateKeywords(ctx, client, spreadsheetID, products); err != nil {
					return err
				}
				return h10.FetchWeeklyRanks(ctx, products, opts.date)
			},
			func() error { return writer.WriteHeliumRanks(ctx, products) })
	}
}

// runPair runs one load/write pair; the write only happens if the load
// succeeded, and either failure aborts only this pair.
func runPair(region models.Region, name string, load, write func() error) {
	if err := load(); err != nil {
		steplog.Errorf(tag, "%s: %s: load: %v", region, name, err)
		return
	}
	if err := write(); err != nil {
		steplog.Errorf(tag, "%s: %s: write: %v", region, name, err)
	}
}

// withBusinessData filters to products that appeared in this week's
// Business Report; only those get an appended row.
func withBusinessData(products []*models.Product) []*models.Product {
	out := make([]*models.Product, 0, len(products))
	for _, p := range products {
		if p.BizCurrent != (models.Business{}) {
			out = append(out, p)
		}
	}
	return out
}
