// Package main provides the tern binary entry point.
package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/ontoforge/tern"
	"github.com/ontoforge/tern/internal/config"
	"github.com/ontoforge/tern/internal/server"
)

const version = "0.1.0"

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:     "tern",
		Short:   "In-memory triple store with a reduced query and validation surface",
		Version: version,
	}
	cmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to a YAML config file")

	cmd.AddCommand(serveCmd(&configPath))
	cmd.AddCommand(queryCmd(&configPath))
	cmd.AddCommand(validateCmd(&configPath))
	cmd.AddCommand(demoCmd())
	return cmd
}

// loadConfig reads the config file when one is given and falls back
// to the defaults otherwise
func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		return config.DefaultConfig(), nil
	}
	return config.LoadFromFile(path)
}

func newLogger(cfg *config.Config) (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(cfg.Log.Level)
	if err != nil {
		return nil, err
	}

	zapCfg := zap.NewProductionConfig()
	zapCfg.Level = zap.NewAtomicLevelAt(level)
	return zapCfg.Build()
}

func newEngine(cfg *config.Config, logger *zap.Logger) (*tern.Engine, error) {
	opts := []tern.Option{tern.WithLogger(logger)}
	if props := cfg.RequiredProperties(); len(props) > 0 {
		opts = append(opts, tern.WithRequiredProperties(props...))
	}
	return tern.New(opts...)
}

// loadFiles feeds each file through the engine's update path
func loadFiles(engine *tern.Engine, paths []string) error {
	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		if _, err := engine.Update(string(data)); err != nil {
			return fmt.Errorf("loading %s: %w", path, err)
		}
	}
	return nil
}

func serveCmd(configPath *string) *cobra.Command {
	var addr string
	var load []string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP endpoint",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(*configPath)
			if err != nil {
				return err
			}
			if addr != "" {
				cfg.Server.Addr = addr
			}

			logger, err := newLogger(cfg)
			if err != nil {
				return err
			}
			defer logger.Sync() //nolint:errcheck

			engine, err := newEngine(cfg, logger)
			if err != nil {
				return err
			}
			defer engine.Close()

			if err := loadFiles(engine, load); err != nil {
				return err
			}

			return server.NewServer(engine, cfg.Server.Addr, logger).Start()
		},
	}
	cmd.Flags().StringVarP(&addr, "addr", "a", "", "listen address (overrides config)")
	cmd.Flags().StringSliceVarP(&load, "load", "l", nil, "source files to load on startup")
	return cmd
}

func queryCmd(configPath *string) *cobra.Command {
	var load []string

	cmd := &cobra.Command{
		Use:   "query <query-text>",
		Short: "Evaluate a query and print the result as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(*configPath)
			if err != nil {
				return err
			}

			engine, err := newEngine(cfg, zap.NewNop())
			if err != nil {
				return err
			}
			defer engine.Close()

			if err := loadFiles(engine, load); err != nil {
				return err
			}

			result, err := engine.Query(args[0])
			if err != nil {
				return err
			}
			return printJSON(cmd, result)
		},
	}
	cmd.Flags().StringSliceVarP(&load, "load", "l", nil, "source files to load before querying")
	return cmd
}

func validateCmd(configPath *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <file>",
		Short: "Validate a source file and print the diagnostics",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(*configPath)
			if err != nil {
				return err
			}

			engine, err := newEngine(cfg, zap.NewNop())
			if err != nil {
				return err
			}
			defer engine.Close()

			data, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}

			diagnostics, err := engine.Validate(string(data))
			if err != nil {
				return err
			}

			if len(diagnostics) == 0 {
				cmd.Println("OK")
				return nil
			}
			for _, d := range diagnostics {
				cmd.Println(d)
			}
			return fmt.Errorf("%d validation finding(s)", len(diagnostics))
		},
	}
	return cmd
}

const demoOntology = `@prefix rdfs: <http://www.w3.org/2000/01/rdf-schema#> .
@prefix owl: <http://www.w3.org/2002/07/owl#> .
@prefix ex: <http://example.org/> .

ex:Bird a owl:Class ;
    rdfs:label "Bird" ;
    rdfs:comment "A warm-blooded egg-laying vertebrate." .

ex:Tern a owl:Class ;
    rdfs:label "Tern" ;
    rdfs:comment "A slender seabird of the gull family." .
`

func demoCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "demo",
		Short: "Load sample data and run sample operations",
		RunE: func(cmd *cobra.Command, args []string) error {
			engine, err := tern.New()
			if err != nil {
				return err
			}
			defer engine.Close()

			if _, err := engine.Update(demoOntology); err != nil {
				return err
			}

			count, err := engine.Count()
			if err != nil {
				return err
			}
			cmd.Printf("Loaded %d triples\n\n", count)

			queries := []string{
				`SELECT * WHERE { ?s <http://www.w3.org/2000/01/rdf-schema#label> ?o }`,
				`PREFIX ex: <http://example.org/>
PREFIX owl: <http://www.w3.org/2002/07/owl#>
ASK { ex:Tern a owl:Class }`,
			}
			for _, q := range queries {
				cmd.Printf("Query: %s\n", q)
				result, err := engine.Query(q)
				if err != nil {
					return err
				}
				if err := printJSON(cmd, result); err != nil {
					return err
				}
				cmd.Println()
			}

			diagnostics, err := engine.Validate(demoOntology)
			if err != nil {
				return err
			}
			if len(diagnostics) == 0 {
				cmd.Println("Validation: OK")
			} else {
				for _, d := range diagnostics {
					cmd.Println(d)
				}
			}
			return nil
		},
	}
}

func printJSON(cmd *cobra.Command, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	cmd.Println(string(data))
	return nil
}
