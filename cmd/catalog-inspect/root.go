package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"

	"github.com/luketherose/gym-diary-ios-swiftui-sub000/pkg/bootstrap"
	"github.com/luketherose/gym-diary-ios-swiftui-sub000/pkg/catalog"
	"github.com/luketherose/gym-diary-ios-swiftui-sub000/pkg/engine"
)

// options are the persistent flags shared by every subcommand.
type options struct {
	catalogURI string
	output     string
	verbose    bool

	stdout io.Writer
	stderr io.Writer
}

func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	opts := &options{stdout: stdout, stderr: stderr}

	root := &cobra.Command{
		Use:   "catalog-inspect",
		Short: "Inspect and query an exercise catalog",
		Long: `catalog-inspect loads an exercise catalog and answers the same questions
the catalog API does: which archetypes match a query, which attribute values
are allowed, whether a combination is valid and what it would be called.

Catalog locations:
  (empty)                         the embedded default catalog
  ./catalog.jsonc                 a local file
  gs://bucket/catalog.json        a Cloud Storage object
  firestore://catalogs/default    a Firestore document`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			switch opts.output {
			case formatTable, formatJSON, formatYAML:
				return nil
			default:
				return fmt.Errorf("unknown output format %q (want table, json or yaml)", opts.output)
			}
		},
	}
	root.SetOut(stdout)
	root.SetErr(stderr)

	root.PersistentFlags().StringVar(&opts.catalogURI, "catalog", "", "catalog location; defaults to $CATALOG_SOURCE, then the embedded catalog")
	root.PersistentFlags().StringVarP(&opts.output, "output", "o", formatTable, "output format: table, json or yaml")
	root.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "debug logging on stderr")

	root.AddCommand(
		newLintCmd(opts),
		newSearchCmd(opts),
		newAllowedCmd(opts),
		newValidateCmd(opts),
		newNameCmd(opts),
		newExportCmd(opts),
		newFitCmd(opts),
	)
	return root
}

func (o *options) logger() *slog.Logger {
	level := slog.LevelWarn
	if o.verbose {
		level = slog.LevelDebug
	}
	return bootstrap.NewLoggerTo(o.stderr, "catalog-inspect", level)
}

// loadCatalog loads strictly: unlike the API, the CLI reports a broken
// catalog instead of falling back to an empty one.
func (o *options) loadCatalog(ctx context.Context) (*catalog.Catalog, error) {
	cfg := bootstrap.LoadConfig()
	uri := o.catalogURI
	if uri == "" {
		uri = cfg.CatalogSource
	}

	src, closeSource, err := bootstrap.NewCatalogSource(ctx, uri, cfg)
	if err != nil {
		return nil, err
	}
	defer closeSource()

	o.logger().Debug("Loading catalog", "component", "catalog", "source", fmt.Sprint(src))
	return catalog.Load(ctx, src)
}

func (o *options) loadEngine(ctx context.Context) (*engine.Engine, error) {
	c, err := o.loadCatalog(ctx)
	if err != nil {
		return nil, err
	}
	return engine.New(c), nil
}

// parseSets turns repeated key=value flags into typed attributes.
func parseSets(c *catalog.Catalog, sets []string) (catalog.Attributes, error) {
	raw := make(map[string]any, len(sets))
	for _, s := range sets {
		key, value, ok := strings.Cut(s, "=")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid --set %q, expected key=value", s)
		}
		raw[key] = strings.TrimSpace(value)
	}
	return c.CoerceAll(raw)
}
