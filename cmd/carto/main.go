package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/danielgtaylor/huma/v2/humacli"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"

	"github.com/joeblew999/plat-carto/internal/catalog"
	"github.com/joeblew999/plat-carto/internal/config"
	"github.com/joeblew999/plat-carto/internal/logging"
	"github.com/joeblew999/plat-carto/internal/server"
)

// Options defines all CLI flags and env vars for the carto server.
// Flags: --host, --port, --data-dir, --db, --catalog-prefix, --fragments,
// --no-db, --log-level, --log-format
// Env vars: SERVICE_HOST, SERVICE_PORT, SERVICE_DATA_DIR, ...
type Options struct {
	Host          string `doc:"Host to bind to" default:"0.0.0.0"`
	Port          int    `doc:"Port to listen on" short:"p" default:"8086"`
	DataDir       string `doc:"Directory for layers, sources and the database" default:".data"`
	DB            string `doc:"DuckDB database name under <data-dir>/duckdb" default:"carto"`
	CatalogPrefix string `doc:"Prefix of the catalog table names" default:""`
	Fragments     string `doc:"Directory overriding the built-in editor fragments" default:""`
	NoDB          bool   `doc:"Run without DuckDB" default:"false"`
	LogLevel      string `doc:"Log level: debug, info, warn or error" default:"info"`
	LogFormat     string `doc:"Log format: auto, terminal, text or json" default:"auto"`
}

func newLogger(opts *Options) *slog.Logger {
	logger, err := logging.New(logging.Options{Level: opts.LogLevel, Format: opts.LogFormat})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(2)
	}
	return logger
}

func newServer(ctx context.Context, opts *Options, logger *slog.Logger) *server.Server {
	srv, err := server.New(ctx, server.Config{
		Host:          opts.Host,
		Port:          strconv.Itoa(opts.Port),
		DataDir:       opts.DataDir,
		DBName:        opts.DB,
		CatalogPrefix: opts.CatalogPrefix,
		FragmentsDir:  opts.Fragments,
		DisableDB:     opts.NoDB,
		Logger:        logger,
	})
	if err != nil {
		logger.Error("server setup failed", "error", err)
		os.Exit(1)
	}
	return srv
}

// output writes v as indented JSON, or as YAML when asYAML is set.
func output(v any, asYAML bool) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	if asYAML {
		// Round-trip through JSON so custom JSON encodings carry over.
		var generic any
		if err := json.Unmarshal(data, &generic); err != nil {
			return err
		}
		if data, err = yaml.Marshal(generic); err != nil {
			return err
		}
	}
	_, err = fmt.Println(string(data))
	return err
}

func fail(logger *slog.Logger, msg string, err error) {
	logger.Error(msg, "error", err)
	os.Exit(1)
}

func main() {
	cli := humacli.New(func(hooks humacli.Hooks, opts *Options) {
		logger := newLogger(opts)
		srv := newServer(context.Background(), opts, logger)
		httpServer := &http.Server{
			Addr:              fmt.Sprintf("%s:%d", opts.Host, opts.Port),
			Handler:           srv,
			ReadHeaderTimeout: 10 * time.Second,
		}

		hooks.OnStart(func() {
			displayHost := opts.Host
			if displayHost == "0.0.0.0" {
				displayHost = "localhost"
			}
			baseURL := fmt.Sprintf("http://%s:%d", displayHost, opts.Port)
			logger.Info("plat-carto API server starting",
				"url", baseURL,
				"data", opts.DataDir,
				"docs", baseURL+"/docs",
				"openapi", baseURL+"/openapi.json",
			)
			if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				fail(logger, "server error", err)
			}
		})

		hooks.OnStop(func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := httpServer.Shutdown(ctx); err != nil {
				logger.Warn("shutdown", "error", err)
			}
			srv.Close()
		})
	})

	cli.Root().Use = "carto"
	cli.Root().Short = "Compile CARTO VL map styles, legends, popups and widgets"
	cli.Root().Version = "1.0.0"

	cli.Root().AddCommand(specCommand(), compileCommand(), catalogCommand())
	cli.Run()
}

// specCommand exports the OpenAPI document.
func specCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "spec",
		Short: "Export OpenAPI spec (JSON by default, --yaml for YAML)",
		Run: humacli.WithOptions(func(cmd *cobra.Command, args []string, opts *Options) {
			logger := newLogger(opts)
			opts.NoDB = true
			srv := newServer(cmd.Context(), opts, logger)
			defer srv.Close()

			useYAML, _ := cmd.Flags().GetBool("yaml")
			if err := output(srv.OpenAPI(), useYAML); err != nil {
				fail(logger, "marshaling spec", err)
			}
		}),
	}
	cmd.Flags().BoolP("yaml", "y", false, "Output as YAML instead of JSON")
	return cmd
}

// compileCommand builds the map definition of a map document.
func compileCommand() *cobra.Command {
	docFlags := pflag.NewFlagSet("document", pflag.ContinueOnError)
	config.Flags(docFlags)

	cmd := &cobra.Command{
		Use:   "compile",
		Short: "Compile a map document into a map definition",
		Long: "Compile reads a YAML map document, applies " + config.EnvPrefix + "* environment " +
			"variables and flags over it, and prints the map definition.",
		Args: cobra.NoArgs,
		Run: humacli.WithOptions(func(cmd *cobra.Command, args []string, opts *Options) {
			logger := newLogger(opts)
			file, _ := cmd.Flags().GetString("file")
			doc, err := config.Load(file, docFlags)
			if err != nil {
				fail(logger, "loading map document", err)
			}

			srv := newServer(cmd.Context(), opts, logger)
			defer srv.Close()
			m, err := srv.Services().Builder.MapOf(cmd.Context(), doc.LayerSpecs(), doc.MapOptions())
			if err != nil {
				fail(logger, "compiling map", err)
			}

			useYAML, _ := cmd.Flags().GetBool("yaml")
			if err := output(m.Definition(), useYAML); err != nil {
				fail(logger, "marshaling definition", err)
			}
		}),
	}
	cmd.Flags().StringP("file", "f", "", "Map document (YAML)")
	cmd.Flags().BoolP("yaml", "y", false, "Output as YAML instead of JSON")
	cmd.Flags().AddFlagSet(docFlags)
	return cmd
}

// catalogCommand browses the data catalog tables.
func catalogCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "catalog <entity> [id] [relation]",
		Short: "List catalog rows, show one row, or follow one of its relations",
		Long:  "Entities: " + fmt.Sprint(catalog.Entities),
		Args:  cobra.RangeArgs(1, 3),
		Run: humacli.WithOptions(func(cmd *cobra.Command, args []string, opts *Options) {
			logger := newLogger(opts)
			srv := newServer(cmd.Context(), opts, logger)
			defer srv.Close()

			store := srv.Services().Catalog
			if store == nil {
				fail(logger, "catalog unavailable", errors.New("database not open"))
			}
			filters, _ := cmd.Flags().GetStringToString("filter")

			var (
				result any
				err    error
			)
			switch len(args) {
			case 1:
				result, err = store.List(cmd.Context(), args[0], catalog.Filters(filters))
			case 2:
				result, err = store.Lookup(cmd.Context(), args[0], args[1])
			default:
				result, err = store.RelatedRows(cmd.Context(), args[0], args[1], args[2])
			}
			if err != nil {
				fail(logger, "catalog lookup", err)
			}

			useYAML, _ := cmd.Flags().GetBool("yaml")
			if err := output(result, useYAML); err != nil {
				fail(logger, "marshaling rows", err)
			}
		}),
	}
	cmd.Flags().StringToString("filter", nil, "Filter listed rows, such as country=esp (repeatable)")
	cmd.Flags().BoolP("yaml", "y", false, "Output as YAML instead of JSON")
	return cmd
}
