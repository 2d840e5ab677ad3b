package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/grooveyard/lpmarket/internal/config"
	"github.com/grooveyard/lpmarket/internal/market"
	"github.com/grooveyard/lpmarket/internal/model"
)

func usage() {
	fmt.Println("lpmarket - vinyl marketplace client")
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  lpmarket [options] register -user <name> -pass <pw> -name <nick> -email <addr>")
	fmt.Println("  lpmarket [options] login -user <name> -pass <pw>")
	fmt.Println("  lpmarket [options] logout")
	fmt.Println("  lpmarket [options] list [-save-art <dir>]")
	fmt.Println("  lpmarket [options] buy <product-id>")
	fmt.Println("  lpmarket [options] sell -title <t> -artist <a> -price <won> -image <path> [sell options]")
	fmt.Println()
	fmt.Println("For interactive mode, use: lpmarket-tui")
	fmt.Println()
	flag.PrintDefaults()
}

func main() {
	var (
		configFlag  = flag.String("config", "", "Path to config file")
		backendFlag = flag.String("backend", "", "Backend URL (overrides config)")
		verboseFlag = flag.Bool("verbose", false, "Show verbose output")
	)
	flag.Usage = usage
	flag.Parse()

	if flag.NArg() == 0 {
		usage()
		os.Exit(1)
	}

	// Load config
	path := *configFlag
	if path == "" {
		path = config.DefaultPath()
	}
	settings, err := config.Load(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}
	if *backendFlag != "" {
		settings.BackendURL = *backendFlag
	}

	// Handle interrupts
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		fmt.Println("\nInterrupted, cancelling...")
		cancel()
	}()

	// Create manager with notice callback
	mgr, err := market.NewManager(settings, func(n market.Notice) {
		if n.Level == market.LevelVerbose && !*verboseFlag {
			return
		}

		prefix := "   "
		switch n.Level {
		case market.LevelError:
			prefix = "✗  "
		case market.LevelWarning:
			prefix = "!  "
		case market.LevelSuccess:
			prefix = "✓  "
		case market.LevelInfo:
			prefix = "›  "
		}

		fmt.Println(prefix + n.Message)
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	verb := flag.Arg(0)
	args := flag.Args()[1:]

	if err := run(ctx, mgr, verb, args); err != nil {
		if ctx.Err() != nil {
			fmt.Println("\nCancelled.")
			os.Exit(130)
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, mgr *market.Manager, verb string, args []string) error {
	switch verb {
	case "register":
		fs := flag.NewFlagSet("register", flag.ExitOnError)
		user := fs.String("user", "", "Username")
		pass := fs.String("pass", "", "Password")
		name := fs.String("name", "", "Display name")
		email := fs.String("email", "", "Email address")
		fs.Parse(args)
		if *user == "" || *pass == "" || *name == "" || *email == "" {
			return fmt.Errorf("register needs -user, -pass, -name and -email")
		}
		return mgr.Register(ctx, *user, *pass, *name, *email)

	case "login":
		fs := flag.NewFlagSet("login", flag.ExitOnError)
		user := fs.String("user", "", "Username")
		pass := fs.String("pass", "", "Password")
		fs.Parse(args)
		if *user == "" || *pass == "" {
			return fmt.Errorf("login needs -user and -pass")
		}
		return mgr.Login(ctx, *user, *pass)

	case "logout":
		return mgr.Logout()

	case "list":
		fs := flag.NewFlagSet("list", flag.ExitOnError)
		saveArt := fs.String("save-art", "", "Directory to save cover art into")
		fs.Parse(args)

		cat, err := mgr.FetchCatalog(ctx)
		if err != nil {
			return err
		}
		printCatalog(cat)

		if *saveArt != "" {
			return mgr.SaveArt(ctx, *saveArt)
		}
		return nil

	case "buy":
		if len(args) != 1 {
			return fmt.Errorf("buy needs exactly one product id")
		}
		// A purchase is routed by the last fetched catalog, so refresh
		// first to know whether the record is a limited pressing.
		if _, err := mgr.FetchCatalog(ctx); err != nil {
			return err
		}
		return mgr.Purchase(ctx, args[0])

	case "sell":
		fs := flag.NewFlagSet("sell", flag.ExitOnError)
		title := fs.String("title", "", "Album title")
		artist := fs.String("artist", "", "Artist name")
		price := fs.Int64("price", 0, "Price in won")
		year := fs.Int("year", 0, "Release year")
		condition := fs.String("condition", "", "Record condition (NM, VG+, ...)")
		limited := fs.Bool("limited", false, "List as a limited pressing")
		stock := fs.Int("stock", 0, "Stock (limited only)")
		start := fs.String("start", "", "Sale start, e.g. 2026-03-01T20:00 (limited only)")
		image := fs.String("image", "", "Path to the cover image")
		fs.Parse(args)

		in := market.ListingInput{
			Name:       *title,
			ArtistName: *artist,
			Price:      *price,
			Year:       *year,
			Condition:  *condition,
			IsLimited:  *limited,
			Stock:      *stock,
		}
		if *limited {
			if *start == "" {
				return fmt.Errorf("a limited listing needs -start")
			}
			at, err := parseStart(*start)
			if err != nil {
				return err
			}
			in.SaleStartAt = at
		}
		if *image != "" {
			data, err := os.ReadFile(*image)
			if err != nil {
				return fmt.Errorf("read image: %w", err)
			}
			in.Image = data
			in.ImageName = trimPathBase(*image)
		}
		return mgr.CreateListing(ctx, in)

	default:
		return fmt.Errorf("unknown command %q", verb)
	}
}

func parseStart(s string) (time.Time, error) {
	for _, layout := range []string{"2006-01-02T15:04:05", "2006-01-02T15:04", "2006-01-02 15:04"} {
		if t, err := time.ParseInLocation(layout, s, time.Local); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("-start must look like 2026-03-01T20:00")
}

func trimPathBase(path string) string {
	if i := strings.LastIndexAny(path, `/\`); i >= 0 {
		return path[i+1:]
	}
	return path
}

func printCatalog(cat model.Catalog) {
	now := time.Now()

	if len(cat.Limited) > 0 {
		fmt.Println("Limited pressings:")
		for _, p := range cat.Limited {
			fmt.Printf("  %-12s %s - %s (%d)  ₩%d  %s\n",
				p.ID, p.ArtistName, p.Name, p.Year, p.Price, limitedStatus(&p, now))
		}
		fmt.Println()
	}

	if len(cat.Regular) > 0 {
		fmt.Println("On sale:")
		for _, p := range cat.Regular {
			status := "available"
			if !p.InStock() {
				status = "sold out"
			}
			fmt.Printf("  %-12s %s - %s (%d, %s)  ₩%d  %s\n",
				p.ID, p.ArtistName, p.Name, p.Year, p.Condition, p.Price, status)
		}
	}

	if cat.Len() == 0 {
		fmt.Println("No records on sale.")
	}
}

func limitedStatus(p *model.Product, now time.Time) string {
	switch p.StatusAt(now) {
	case model.StatusSoldOut:
		return "sold out"
	case model.StatusWaiting:
		c := model.Remaining(p.SaleStartAt, now)
		return fmt.Sprintf("opens in %02d:%02d:%02d", c.Hours, c.Minutes, c.Seconds)
	default:
		stock := 0
		if p.Stock != nil {
			stock = *p.Stock
		}
		return fmt.Sprintf("%d left", stock)
	}
}
