package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"sort"
	"strings"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/muktihari/fit/decoder"
	"github.com/muktihari/fit/profile/mesgdef"
	"github.com/muktihari/fit/profile/typedef"
	"github.com/spf13/cobra"

	"github.com/luketherose/gym-diary-ios-swiftui-sub000/pkg/catalog"
	"github.com/luketherose/gym-diary-ios-swiftui-sub000/pkg/engine"
	apperrors "github.com/luketherose/gym-diary-ios-swiftui-sub000/pkg/errors"
	"github.com/luketherose/gym-diary-ios-swiftui-sub000/pkg/exercise"
	"github.com/luketherose/gym-diary-ios-swiftui-sub000/pkg/selection"
)

var (
	errLintWarnings       = errors.New("catalog has lint warnings")
	errInvalidCombination = errors.New("combination is not valid")
)

type lintReport struct {
	Version    string            `json:"version" yaml:"version"`
	Archetypes int               `json:"archetypes" yaml:"archetypes"`
	Attributes int               `json:"attributes" yaml:"attributes"`
	Rules      int               `json:"rules" yaml:"rules"`
	Warnings   []catalog.Warning `json:"warnings" yaml:"warnings"`
}

func newLintReport(c *catalog.Catalog, warnings []catalog.Warning) lintReport {
	if warnings == nil {
		warnings = []catalog.Warning{}
	}
	return lintReport{
		Version:    c.Version(),
		Archetypes: len(c.Archetypes()),
		Attributes: len(c.Attributes()),
		Rules:      len(c.Rules()),
		Warnings:   warnings,
	}
}

func renderLint(opts *options, report lintReport) error {
	return render(opts.stdout, opts.output, report, func(w *tabwriter.Writer) {
		fmt.Fprintf(w, "Version:\t%s\n", report.Version)
		fmt.Fprintf(w, "Archetypes:\t%d\n", report.Archetypes)
		fmt.Fprintf(w, "Attributes:\t%d\n", report.Attributes)
		fmt.Fprintf(w, "Rules:\t%d\n", report.Rules)
		fmt.Fprintf(w, "Warnings:\t%d\n", len(report.Warnings))
		if len(report.Warnings) > 0 {
			fmt.Fprintln(w)
			header(w, "Path", "Message")
			for _, warn := range report.Warnings {
				fmt.Fprintf(w, "%s\t%s\n", warn.Path, warn.Message)
			}
		}
	})
}

func newLintCmd(opts *options) *cobra.Command {
	var strict, watch bool
	cmd := &cobra.Command{
		Use:   "lint",
		Short: "Load the catalog and report structural errors and dangling references",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if watch {
				return watchLint(cmd.Context(), opts)
			}

			c, err := opts.loadCatalog(cmd.Context())
			if err != nil {
				return err
			}

			report := newLintReport(c, c.Lint())
			if err := renderLint(opts, report); err != nil {
				return err
			}
			if strict && len(report.Warnings) > 0 {
				return errLintWarnings
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&strict, "strict", false, "exit non-zero when warnings are found")
	cmd.Flags().BoolVar(&watch, "watch", false, "re-lint a local catalog file every time it changes")
	return cmd
}

// watchLint re-lints a local catalog file on every change until interrupted.
func watchLint(ctx context.Context, opts *options) error {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	parsed, err := catalog.ParseSourceURI(opts.catalogURI)
	if err != nil {
		return err
	}
	if parsed.Kind != catalog.SourceFile {
		return errors.New("--watch needs a local catalog file")
	}

	results, err := catalog.WatchFile(ctx, parsed.Location, 200*time.Millisecond, opts.logger())
	if err != nil {
		return err
	}
	for res := range results {
		if res.Err != nil {
			fmt.Fprintf(opts.stdout, "%s\n\n", res.Err)
			continue
		}
		if err := renderLint(opts, newLintReport(res.Catalog, res.Warnings)); err != nil {
			return err
		}
		fmt.Fprintln(opts.stdout)
	}
	return nil
}

type searchReport struct {
	Archetypes  []catalog.Archetype `json:"archetypes" yaml:"archetypes"`
	Suggestions []engine.Suggestion `json:"suggestions,omitempty" yaml:"suggestions,omitempty"`
}

func newSearchCmd(opts *options) *cobra.Command {
	var group string
	cmd := &cobra.Command{
		Use:   "search [query]",
		Short: "Search archetypes by name, muscle or subgroup",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			eng, err := opts.loadEngine(cmd.Context())
			if err != nil {
				return err
			}

			session := selection.New(eng)
			if len(args) == 1 {
				session.SetQuery(args[0])
			}
			session.SetFilter(group)

			report := searchReport{Archetypes: session.Results(), Suggestions: session.Suggestions()}
			if report.Archetypes == nil {
				report.Archetypes = []catalog.Archetype{}
			}

			return render(opts.stdout, opts.output, report, func(w *tabwriter.Writer) {
				if len(report.Archetypes) > 0 {
					header(w, "Key", "Name", "Group", "Primary Muscle")
					for _, a := range report.Archetypes {
						fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", a.Key, a.DisplayName, a.PrimaryGroup, a.PrimaryMuscle)
					}
					return
				}
				fmt.Fprintln(w, "No archetypes found.")
				if len(report.Suggestions) > 0 {
					fmt.Fprintln(w, "\nDid you mean:")
					for _, s := range report.Suggestions {
						fmt.Fprintf(w, "  %s\t%s\t%.0f%%\n", s.Archetype.Key, s.Archetype.DisplayName, s.Confidence*100)
					}
				}
			})
		},
	}
	cmd.Flags().StringVar(&group, "group", "", "restrict to a primary muscle group")
	return cmd
}

type allowedReport struct {
	Attribute string   `json:"attribute" yaml:"attribute"`
	Archetype string   `json:"archetype,omitempty" yaml:"archetype,omitempty"`
	Values    []string `json:"values" yaml:"values"`
}

func newAllowedCmd(opts *options) *cobra.Command {
	var (
		archetypeKey string
		sets         []string
	)
	cmd := &cobra.Command{
		Use:   "allowed <attribute>",
		Short: "List the values an attribute may take under a selection",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			eng, err := opts.loadEngine(cmd.Context())
			if err != nil {
				return err
			}
			if _, ok := eng.Catalog().Attribute(args[0]); !ok {
				return apperrors.ErrAttributeNotFound.
					WithMessage(fmt.Sprintf("attribute %q is not in the catalog", args[0])).
					WithMetadata("attribute", args[0])
			}
			attrs, err := parseSets(eng.Catalog(), sets)
			if err != nil {
				return err
			}

			var archetype *catalog.Archetype
			if archetypeKey != "" {
				if a, ok := eng.Catalog().Archetype(archetypeKey); ok {
					archetype = &a
				}
			}

			report := allowedReport{
				Attribute: args[0],
				Archetype: archetypeKey,
				Values:    eng.AllowedValues(args[0], archetype, attrs),
			}
			return render(opts.stdout, opts.output, report, func(w *tabwriter.Writer) {
				if len(report.Values) == 0 {
					fmt.Fprintf(w, "No values allowed for %s.\n", report.Attribute)
					return
				}
				for _, v := range report.Values {
					fmt.Fprintln(w, v)
				}
			})
		},
	}
	cmd.Flags().StringVar(&archetypeKey, "archetype", "", "archetype key whose rules apply")
	cmd.Flags().StringArrayVar(&sets, "set", nil, "current attribute value as key=value (repeatable)")
	return cmd
}

func newValidateCmd(opts *options) *cobra.Command {
	var sets []string
	cmd := &cobra.Command{
		Use:   "validate <archetype>",
		Short: "Check an attribute combination against the catalog rules",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			eng, err := opts.loadEngine(cmd.Context())
			if err != nil {
				return err
			}
			attrs, err := parseSets(eng.Catalog(), sets)
			if err != nil {
				return err
			}

			v := eng.IsCombinationValid(args[0], attrs)
			err = render(opts.stdout, opts.output, v, func(w *tabwriter.Writer) {
				if v.OK {
					fmt.Fprintln(w, "OK")
					return
				}
				header(w, "Reason", "Message")
				for i, reason := range v.Reasons {
					fmt.Fprintf(w, "%s\t%s\n", reason, v.Messages[i])
				}
			})
			if err != nil {
				return err
			}
			if !v.OK {
				return errInvalidCombination
			}
			return nil
		},
	}
	cmd.Flags().StringArrayVar(&sets, "set", nil, "attribute value as key=value (repeatable)")
	return cmd
}

func newNameCmd(opts *options) *cobra.Command {
	var sets []string
	cmd := &cobra.Command{
		Use:   "name <archetype>",
		Short: "Print the display name of an attribute combination",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			eng, err := opts.loadEngine(cmd.Context())
			if err != nil {
				return err
			}
			attrs, err := parseSets(eng.Catalog(), sets)
			if err != nil {
				return err
			}

			name := eng.BuildDisplayName(args[0], attrs)
			return render(opts.stdout, opts.output, map[string]string{"name": name}, func(w *tabwriter.Writer) {
				fmt.Fprintln(w, name)
			})
		},
	}
	cmd.Flags().StringArrayVar(&sets, "set", nil, "attribute value as key=value (repeatable)")
	return cmd
}

func newExportCmd(opts *options) *cobra.Command {
	var (
		sets       []string
		outputFile string
		defaults   = exercise.DefaultPrescription
	)
	cmd := &cobra.Command{
		Use:   "export <archetype>",
		Short: "Build an exercise from a selection and write it as a FIT workout",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			eng, err := opts.loadEngine(cmd.Context())
			if err != nil {
				return err
			}
			attrs, err := parseSets(eng.Catalog(), sets)
			if err != nil {
				return err
			}

			session := selection.New(eng)
			if err := session.SelectArchetype(args[0]); err != nil {
				return err
			}
			for _, key := range attrs.Keys() {
				session.Pick(key, attrs[key])
			}
			result, err := session.Finalize()
			if err != nil {
				return err
			}

			builder := exercise.NewBuilder(eng.Catalog())
			builder.Defaults = defaults
			ex, err := builder.Build(result)
			if err != nil {
				return err
			}

			fitData, err := exercise.EncodeFIT(ex, time.Now())
			if err != nil {
				return fmt.Errorf("generate FIT file: %w", err)
			}
			if err := os.WriteFile(outputFile, fitData, 0644); err != nil {
				return fmt.Errorf("write output file: %w", err)
			}

			fmt.Fprintf(opts.stderr, "Wrote %s to %s (%d bytes)\n", ex.Name, outputFile, len(fitData))
			return render(opts.stdout, opts.output, ex, func(w *tabwriter.Writer) {
				fmt.Fprintf(w, "Name:\t%s\n", ex.Name)
				fmt.Fprintf(w, "Category:\t%s\n", ex.Category)
				fmt.Fprintf(w, "Sets:\t%d x %d @ %.1f kg\n", len(ex.Sets), defaults.Reps, defaults.WeightKg)
				fmt.Fprintf(w, "Rest:\t%ds\n", ex.RestSeconds)
			})
		},
	}
	cmd.Flags().StringArrayVar(&sets, "set", nil, "attribute value as key=value (repeatable)")
	cmd.Flags().StringVar(&outputFile, "file", "exercise.fit", "path of the FIT file to write")
	cmd.Flags().IntVar(&defaults.Sets, "sets", defaults.Sets, "number of working sets")
	cmd.Flags().IntVar(&defaults.Reps, "reps", defaults.Reps, "repetitions per set")
	cmd.Flags().Float64Var(&defaults.WeightKg, "weight", defaults.WeightKg, "load per set in kilograms")
	cmd.Flags().IntVar(&defaults.RestSeconds, "rest", defaults.RestSeconds, "rest between sets in seconds")
	return cmd
}

type fitSet struct {
	Index    int     `json:"index" yaml:"index"`
	Type     string  `json:"type" yaml:"type"`
	Reps     int     `json:"reps,omitempty" yaml:"reps,omitempty"`
	WeightKg float64 `json:"weightKg,omitempty" yaml:"weightKg,omitempty"`
	Seconds  float64 `json:"seconds,omitempty" yaml:"seconds,omitempty"`
}

type fitReport struct {
	Messages map[string]int `json:"messages" yaml:"messages"`
	Sets     []fitSet       `json:"sets" yaml:"sets"`
}

func newFitCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "fit <file>",
		Short: "Summarize the messages and sets of a FIT workout file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("read file: %w", err)
			}
			report, err := inspectFIT(data)
			if err != nil {
				return err
			}

			return render(opts.stdout, opts.output, report, func(w *tabwriter.Writer) {
				names := make([]string, 0, len(report.Messages))
				for name := range report.Messages {
					names = append(names, name)
				}
				sort.Strings(names)

				header(w, "Message", "Count")
				for _, name := range names {
					fmt.Fprintf(w, "%s\t%d\n", name, report.Messages[name])
				}
				fmt.Fprintln(w)
				header(w, "Set", "Type", "Reps", "Weight", "Duration")
				for _, s := range report.Sets {
					fmt.Fprintf(w, "%d\t%s\t%d\t%.2f\t%.0fs\n", s.Index, s.Type, s.Reps, s.WeightKg, s.Seconds)
				}
			})
		},
	}
}

func inspectFIT(data []byte) (fitReport, error) {
	fitData, err := decoder.New(bytes.NewReader(data)).Decode()
	if err != nil {
		return fitReport{}, fmt.Errorf("decode FIT file: %w", err)
	}

	report := fitReport{Messages: map[string]int{}, Sets: []fitSet{}}
	for i := range fitData.Messages {
		msg := &fitData.Messages[i]
		report.Messages[strings.ToLower(msg.Num.String())]++
		if msg.Num != typedef.MesgNumSet {
			continue
		}

		set := mesgdef.NewSet(msg)
		entry := fitSet{
			Index: len(report.Sets),
			Type:  set.SetType.String(),
		}
		if set.Repetitions != 0 && set.Repetitions != 0xFFFF {
			entry.Reps = int(set.Repetitions)
		}
		if w := set.WeightScaled(); w > 0 {
			entry.WeightKg = w
		}
		if d := set.DurationScaled(); d > 0 {
			entry.Seconds = d
		}
		report.Sets = append(report.Sets, entry)
	}
	return report, nil
}
