package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"strconv"
	"strings"

	"github.com/danielgtaylor/huma/v2/humacli"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/joeblew999/plat-rawan/internal/logging"
	"github.com/joeblew999/plat-rawan/internal/server"
)

// Options defines all CLI flags and env vars for the rawan server.
// Flags: --host, --port, --data-dir, --storage, --admin-tokens, ...
// Env vars: SERVICE_HOST, SERVICE_PORT, SERVICE_DATA_DIR, SERVICE_STORAGE, SERVICE_ADMIN_TOKENS, ...
type Options struct {
	Host         string `doc:"Host to bind to" default:"0.0.0.0"`
	Port         int    `doc:"Port to listen on" short:"p" default:"8086"`
	DataDir      string `doc:"Directory for hazard location data" default:".data"`
	WebDir       string `doc:"Directory with fragments/*.html overriding the built-in templates" default:""`
	Storage      string `doc:"Storage backend: file or duckdb" default:"file"`
	AdminTokens  string `doc:"Comma-separated bearer tokens allowed to write" default:""`
	ViewerTokens string `doc:"Comma-separated bearer tokens allowed to read" default:""`
	Center       string `doc:"Default map center as lat,lng" default:"-6.5714,107.7636"`
	LogLevel     string `doc:"Log level: debug, info, warn, error" default:"info"`
	LogFormat    string `doc:"Log format: auto, console, json" default:"auto"`
}

func newLogger(opts *Options) zerolog.Logger {
	return logging.New(os.Stderr, opts.LogLevel, logging.Format(opts.LogFormat))
}

func parseCenter(s string) (lat, lng float64, err error) {
	latStr, lngStr, ok := strings.Cut(s, ",")
	if !ok {
		return 0, 0, fmt.Errorf("center %q: want lat,lng", s)
	}
	if lat, err = strconv.ParseFloat(strings.TrimSpace(latStr), 64); err != nil {
		return 0, 0, fmt.Errorf("center latitude: %w", err)
	}
	if lng, err = strconv.ParseFloat(strings.TrimSpace(lngStr), 64); err != nil {
		return 0, 0, fmt.Errorf("center longitude: %w", err)
	}
	return lat, lng, nil
}

func newServer(opts *Options, log zerolog.Logger) (*server.Server, error) {
	lat, lng, err := parseCenter(opts.Center)
	if err != nil {
		return nil, err
	}
	return server.New(context.Background(), server.Config{
		Host:         opts.Host,
		Port:         fmt.Sprintf("%d", opts.Port),
		DataDir:      opts.DataDir,
		WebDir:       opts.WebDir,
		Storage:      opts.Storage,
		AdminTokens:  server.SplitTokens(opts.AdminTokens),
		ViewerTokens: server.SplitTokens(opts.ViewerTokens),
		CenterLat:    lat,
		CenterLng:    lng,
		Logger:       log,
	})
}

func main() {
	// A missing .env is fine; SERVICE_* variables may come from the environment.
	_ = godotenv.Load()

	cli := humacli.New(func(hooks humacli.Hooks, opts *Options) {
		log := newLogger(opts)
		var httpServer *http.Server

		hooks.OnStart(func() {
			srv, err := newServer(opts, log)
			if err != nil {
				log.Fatal().Err(err).Msg("server setup failed")
			}
			defer srv.Close()

			addr := fmt.Sprintf("%s:%d", opts.Host, opts.Port)
			displayHost := opts.Host
			if displayHost == "0.0.0.0" {
				displayHost = "localhost"
			}
			baseURL := fmt.Sprintf("http://%s:%d", displayHost, opts.Port)

			log.Info().
				Str("server", baseURL).
				Str("data", opts.DataDir).
				Str("editor", baseURL+"/editor").
				Str("docs", baseURL+"/docs").
				Str("openapi", baseURL+"/openapi.json").
				Msg("plat-rawan API server starting")

			httpServer = &http.Server{Addr: addr, Handler: srv}
			if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Fatal().Err(err).Msg("server error")
			}
		})

		hooks.OnStop(func() {
			if httpServer != nil {
				httpServer.Shutdown(context.Background())
			}
		})
	})

	cli.Root().Use = "rawan"
	cli.Root().Short = "Fire department hazard location (lokasi rawan) map service"
	cli.Root().Version = "0.1.0"

	// spec subcommand: export OpenAPI spec
	specCmd := &cobra.Command{
		Use:   "spec",
		Short: "Export OpenAPI spec (JSON by default, --yaml for YAML)",
		Run: humacli.WithOptions(func(cmd *cobra.Command, args []string, opts *Options) {
			// The OpenAPI document does not depend on stored data.
			opts.Storage = server.StorageDuckDB
			opts.DataDir = ""
			srv, err := newServer(opts, zerolog.Nop())
			if err != nil {
				fmt.Fprintf(os.Stderr, "Error creating server: %v\n", err)
				os.Exit(1)
			}
			defer srv.Close()
			spec := srv.OpenAPI()

			useYAML, _ := cmd.Flags().GetBool("yaml")

			var output []byte
			if useYAML {
				output, err = yaml.Marshal(spec)
			} else {
				output, err = json.MarshalIndent(spec, "", "  ")
			}
			if err != nil {
				fmt.Fprintf(os.Stderr, "Error marshaling spec: %v\n", err)
				os.Exit(1)
			}
			fmt.Println(string(output))
		}),
	}
	specCmd.Flags().BoolP("yaml", "y", false, "Output as YAML instead of JSON")
	cli.Root().AddCommand(specCmd)

	cli.Root().AddCommand(newMarkersCmd(streams{in: os.Stdin, out: os.Stdout, err: os.Stderr}))

	cli.Run()
}
