package cli

import (
	"fmt"

	"skillscope/internal/server"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start HTTP server for skill-gap analysis",
	Long: `Start an HTTP server that provides REST API endpoints for skill-gap analysis.

Available endpoints:
- POST /analyze: Analyze the skill gaps for a role transition
- GET /health: Health check endpoint
- GET /stats: Server statistics and rate limiting info

TLS is enabled when both --cert-file and --key-file (or their config keys)
are set.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringP("port", "p", "", "Port to listen on (default from config)")
	serveCmd.Flags().String("host", "", "Host to bind to (default from config)")
	serveCmd.Flags().String("cert-file", "", "Server certificate file (PEM, overrides config)")
	serveCmd.Flags().String("key-file", "", "Server private key file (PEM, overrides config)")

	bindFlag := func(key, flagName string) {
		if err := viper.BindPFlag(key, serveCmd.Flags().Lookup(flagName)); err != nil {
			panic(err)
		}
	}

	bindFlag("server.port", "port")
	bindFlag("server.host", "host")
	bindFlag("server.tlscertfile", "cert-file")
	bindFlag("server.tlskeyfile", "key-file")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := getConfigFromContext(cmd.Context())
	if err != nil {
		return err
	}
	logger, err := getLoggerFromContext(cmd.Context())
	if err != nil {
		return err
	}

	// Flag overrides on top of the loaded config
	overrideString := func(target *string, flagName string) {
		if v, err := cmd.Flags().GetString(flagName); err == nil && v != "" {
			*target = v
		}
	}
	overrideString(&cfg.Server.Port, "port")
	overrideString(&cfg.Server.Host, "host")
	overrideString(&cfg.Server.TLSCertFile, "cert-file")
	overrideString(&cfg.Server.TLSKeyFile, "key-file")

	if (cfg.Server.TLSCertFile == "") != (cfg.Server.TLSKeyFile == "") {
		return fmt.Errorf("invalid TLS configuration: cert-file and key-file must be set together")
	}

	srv, err := server.NewServer(cmd.Context(), cfg, Version, logger)
	if err != nil {
		return err
	}
	return srv.Start(cmd.Context())
}
