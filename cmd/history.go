package cmd

import (
	"fmt"
	"io"
	"strings"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"mspro-labs/brew-map/internal/db"
	"mspro-labs/brew-map/internal/models"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List recorded lookups",
	Long: `Lists the addresses looked up so far and the shops found for them.
History is only recorded when DB_PATH is set.

  brew-map history
  brew-map history clear "query address"
  brew-map history clear all`,
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		handleHistory(cmd.OutOrStdout(), nil)
	},
}

var historyClearCmd = &cobra.Command{
	Use:   "clear [address|all]",
	Short: "Remove recorded lookups",
	Args:  cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		handleHistory(cmd.OutOrStdout(), args)
	},
}

func init() {
	historyCmd.AddCommand(historyClearCmd)
	rootCmd.AddCommand(historyCmd)
}

func handleHistory(w io.Writer, clearArgs []string) {
	appCfg, settings := loadConfig()
	if appCfg.DBPath == "" {
		log.Fatal("Lookup history is disabled; set DB_PATH to enable it")
	}
	database, err := db.Connect(appCfg.DBPath)
	if err != nil {
		log.Fatalf("Database error: %v", err)
	}
	defer database.Close()

	if clearArgs != nil {
		target := strings.TrimSpace(strings.Join(clearArgs, " "))
		var affected int64
		if strings.EqualFold(target, "all") {
			affected, err = db.ClearAllLookups(database)
		} else {
			affected, err = db.ClearLookups(database, target)
		}
		if err != nil {
			log.Fatalf("Failed to clear history: %v", err)
		}
		_, _ = fmt.Fprintf(w, "🗑️ Done. Removed %d entry(s).\n", affected)
		return
	}

	lookups, err := db.ListLookups(database)
	if err != nil {
		log.Fatalf("Failed to list history: %v", err)
	}
	printHistory(w, lookups, settings.Map.Labels.Unit)
}

func printHistory(w io.Writer, lookups []models.Lookup, unit string) {
	_, _ = fmt.Fprintln(w, "📜 Lookup History")
	_, _ = fmt.Fprintln(w, "------------------------------------")
	if len(lookups) == 0 {
		_, _ = fmt.Fprintln(w, "No history found.")
		return
	}
	for _, l := range lookups {
		if !l.Found {
			_, _ = fmt.Fprintf(w, "[%s] %s (not found)\n", l.CreatedAt.Local().Format("2006-01-02 15:04"), l.Address)
			continue
		}
		_, _ = fmt.Fprintf(w, "[%s] %s (%s)\n", l.CreatedAt.Local().Format("2006-01-02 15:04"), l.Address, l.Location)
		for i, shop := range l.Results {
			_, _ = fmt.Fprintf(w, "    #%d %s, %.2f %s\n", i+1, shop.Name, shop.DistanceKm, unit)
		}
	}
}
