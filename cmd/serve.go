package cmd

import (
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/crumbworks/genchat/pkg/memory"
	"github.com/crumbworks/genchat/pkg/provider"
	"github.com/crumbworks/genchat/pkg/service"
)

var (
	portFlag int
	hostFlag string

	serveCmd = &cobra.Command{
		Use:   "serve",
		Short: "Run the chat proxy server",
		Long:  longServe,
		RunE: func(cmd *cobra.Command, args []string) error {
			v := viper.GetViper()

			prvdr, err := provider.FromConfig()
			if err != nil {
				// Start anyway; chat endpoints surface the configuration
				// error to clients until a credential shows up.
				log.Warn("provider not ready", "error", err)
			}

			var opts []memory.Option
			if ttl := v.GetInt("memory.default_ttl"); ttl > 0 {
				opts = append(opts, memory.WithDefaultTTL(time.Duration(ttl)*time.Second))
			}
			store := memory.NewInMemoryStore(opts...)

			addr := fmt.Sprintf("%s:%d", hostFlag, portFlag)
			log.Info("starting chat server", "addr", addr, "provider", v.GetString("provider.name"))

			return service.NewChatServer(store, prvdr).Start(addr)
		},
	}
)

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().IntVarP(&portFlag, "port", "p", 8000, "Port to serve on")
	serveCmd.Flags().StringVarP(&hostFlag, "host", "H", "0.0.0.0", "Host address to bind to")
}

var longServe = `
Serve the chat proxy over HTTP.

Examples:
  # Serve on the default port
  genchat serve

  # Serve on port 9000
  genchat serve --port 9000
`
