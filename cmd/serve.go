package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"mspro-labs/brew-map/internal/mapview"
	"mspro-labs/brew-map/internal/server"
)

var serveFlags struct {
	output string
	addr   string
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve a previously rendered map",
	Run: func(cmd *cobra.Command, args []string) {
		runServer()
	},
}

func init() {
	serveCmd.Flags().StringVar(&serveFlags.output, "output", "", "map file to serve (default $OUTPUT_PATH or index.html)")
	serveCmd.Flags().StringVar(&serveFlags.addr, "addr", "", "listen address (default from settings, 0.0.0.0:8080)")
	rootCmd.AddCommand(serveCmd)
}

func runServer() {
	// 1. Setup
	appCfg, settings := loadConfig()
	artifact := appCfg.OutputPath
	if serveFlags.output != "" {
		artifact = serveFlags.output
	}
	addr := settings.Server.Addr
	if serveFlags.addr != "" {
		addr = serveFlags.addr
	}

	// 2. Check what we are about to serve. A missing map is not fatal:
	// requests fail until the file appears.
	markers, err := mapview.ReadMarkersFile(artifact)
	if err != nil {
		log.WithError(err).Warnf("Map %s is not readable yet", artifact)
	} else {
		log.WithFields(log.Fields{"path": artifact, "markers": len(markers)}).Info("Serving map")
	}

	// 3. Start Server
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := server.ListenAndServe(ctx, addr, server.New(artifact)); err != nil {
		log.Fatalf("Server error: %v", err)
	}
}
