package cmd

import (
	"bufio"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"mspro-labs/brew-map/internal/db"
	"mspro-labs/brew-map/internal/geocoder"
	"mspro-labs/brew-map/internal/loader"
	"mspro-labs/brew-map/internal/mapview"
	"mspro-labs/brew-map/internal/searcher"
	"mspro-labs/brew-map/internal/server"
)

var findFlags struct {
	count   int
	data    string
	output  string
	xlsx    string
	noServe bool
}

var findCmd = &cobra.Command{
	Use:   "find [address]",
	Short: "Find the nearest coffee shops and serve them on a map",
	Long: `Geocodes the address, ranks the coffee shops by distance and writes the map.
Without an address argument the address is read from standard input.
Examples:
  brew-map find "Москва, Тверская улица, 1"
  brew-map find --count 10 --no-serve "Red Square"`,
	Run: func(cmd *cobra.Command, args []string) {
		runFind(cmd, args)
	},
}

func init() {
	findCmd.Flags().IntVarP(&findFlags.count, "count", "n", 0, "number of shops to show (default from settings, 5)")
	findCmd.Flags().StringVar(&findFlags.data, "data", "", "coffee shop data file (default $DATA_PATH or coffee.json)")
	findCmd.Flags().StringVar(&findFlags.output, "output", "", "map file to write (default $OUTPUT_PATH or index.html)")
	findCmd.Flags().StringVar(&findFlags.xlsx, "xlsx", "", "also export the nearest shops to this .xlsx file")
	findCmd.Flags().BoolVar(&findFlags.noServe, "no-serve", false, "write the map and exit instead of serving it")
	rootCmd.AddCommand(findCmd)
}

func runFind(cmd *cobra.Command, args []string) {
	// 1. Config
	appCfg, settings := loadConfig()
	if findFlags.data != "" {
		appCfg.DataPath = findFlags.data
	}
	if findFlags.output != "" {
		appCfg.OutputPath = findFlags.output
	}
	count := settings.Count
	if cmd.Flags().Changed("count") {
		count = findFlags.count
	}

	// 2. Address
	address := strings.TrimSpace(strings.Join(args, " "))
	if address == "" {
		var err error
		address, err = readAddress(cmd.InOrStdin(), cmd.OutOrStdout())
		if err != nil {
			log.Fatalf("Failed to read address: %v", err)
		}
	}

	// 3. Optional history
	var history *sql.DB
	if appCfg.DBPath != "" {
		database, err := db.Connect(appCfg.DBPath)
		if err != nil {
			log.Fatalf("Database error: %v", err)
		}
		defer database.Close()
		history = database
	}

	renderer, err := mapview.NewRenderer(settings.Map)
	if err != nil {
		log.Fatalf("Failed to prepare map renderer: %v", err)
	}

	deps := searcher.Deps{
		LoadShops: loader.LoadShops,
		Geocoder:  geocoder.NewClient(appCfg.APIKey, geocoder.WithURL(settings.Geocoder.URL)),
		Renderer:  renderer,
		History:   history,
	}
	opts := searcher.Options{
		DataPath:   appCfg.DataPath,
		OutputPath: appCfg.OutputPath,
		Count:      count,
		XLSXPath:   findFlags.xlsx,
	}

	// 4. Run the pipeline
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	result, err := searcher.Perform(ctx, deps, opts, address)
	if errors.Is(err, geocoder.ErrNotFound) {
		log.Fatalf("Nothing found for %q, try a more precise address", address)
	}
	if err != nil {
		log.Fatalf("Search failed: %v", err)
	}

	printResults(cmd.OutOrStdout(), address, result, settings.Map.Labels.Unit)

	if findFlags.noServe {
		return
	}

	// 5. Serve the map until interrupted
	if err := server.ListenAndServe(ctx, settings.Server.Addr, server.New(result.OutputPath)); err != nil {
		log.Fatalf("Server error: %v", err)
	}
}

// readAddress prompts for a single line on r.
func readAddress(r io.Reader, w io.Writer) (string, error) {
	_, _ = fmt.Fprint(w, "Where are you? ")
	line, err := bufio.NewReader(r).ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && line != "") {
		return "", err
	}
	address := strings.TrimSpace(line)
	if address == "" {
		return "", errors.New("address is empty")
	}
	return address, nil
}

func printResults(w io.Writer, address string, result *searcher.Result, unit string) {
	_, _ = fmt.Fprintf(w, "\n☕ Nearest coffee shops to \"%s\" (%s)\n\n", address, result.User)
	if len(result.Shops) == 0 {
		_, _ = fmt.Fprintln(w, "No coffee shops to show.")
	}
	for i, shop := range result.Shops {
		_, _ = fmt.Fprintf(w, "#%d %s, %.2f %s\n", i+1, shop.Name, shop.DistanceKm, unit)
	}
	_, _ = fmt.Fprintf(w, "\nMap written to %s\n", result.OutputPath)
}
