package main

import (
	"fmt"
	"strings"

	"sublearn/internal/domain"
	"sublearn/internal/filter"
	"sublearn/internal/repository/postgres"
	"sublearn/internal/service"
	"sublearn/internal/srt"

	"github.com/jmoiron/sqlx"
	"github.com/spf13/cobra"
)

type filterOptions struct {
	userID    int64
	language  string
	level     string
	threshold float64
	output    string
	asJSON    bool
}

func newFilterCommand(ctx *commandContext) *cobra.Command {
	var opts filterOptions

	cmd := &cobra.Command{
		Use:   "filter <subtitles.srt>",
		Short: "Run the vocabulary filter over a subtitle file",
		Long: "Run the vocabulary filter over a subtitle file.\n\n" +
			"Without --user the learner knows nothing beyond --level and no database is needed.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			profile, err := loadProfile(cmd, ctx, opts)
			if err != nil {
				return err
			}

			segments, skipped, err := srt.ParseFile(args[0])
			if err != nil {
				return err
			}
			if skipped > 0 {
				ctx.log().Sugar().Warnf("skipped %d malformed blocks", skipped)
			}

			engine := filter.NewEngine(filter.NewRuleLemmatizer(), opts.threshold, ctx.log())
			result := engine.Filter(segments, profile)

			if opts.output != "" {
				if err := srt.WriteFile(opts.output, filter.LearnerSegments(result)); err != nil {
					return err
				}
			}
			if opts.asJSON {
				return writeJSON(cmd, result)
			}
			printStats(cmd, result.Stats, opts.output)
			return nil
		},
	}

	flags := cmd.Flags()
	flags.Int64Var(&opts.userID, "user", 0, "Load known words and level for this user from the database")
	flags.StringVarP(&opts.language, "language", "l", "de", "Subtitle language")
	flags.StringVar(&opts.level, "level", string(domain.LevelA1), "CEFR level used when --user is not set")
	flags.Float64Var(&opts.threshold, "threshold", filter.DefaultBlockerThreshold, "Share of active words that makes a segment a blocker")
	flags.StringVarP(&opts.output, "output", "o", "", "Write highlighted learner subtitles to this file")
	flags.BoolVar(&opts.asJSON, "json", false, "Print the full filter result as JSON")

	return cmd
}

func loadProfile(cmd *cobra.Command, ctx *commandContext, opts filterOptions) (filter.Profile, error) {
	lang, err := service.NormalizeLanguage(opts.language)
	if err != nil {
		return filter.Profile{}, err
	}

	if opts.userID == 0 {
		level, err := domain.ParseCEFRLevel(opts.level)
		if err != nil {
			return filter.Profile{}, err
		}
		return filter.Profile{
			Language: lang,
			Level:    level,
			Known:    map[string]struct{}{},
			Catalog:  map[string]domain.CEFRLevel{},
		}, nil
	}

	_, db, err := ctx.ensureDB()
	if err != nil {
		return filter.Profile{}, err
	}
	vocab := service.NewVocabularyService(
		postgres.NewUserRepo(db),
		postgres.NewProgressRepo(db),
		postgres.NewConceptRepo(sqlx.NewDb(db, "postgres")),
		ctx.log(),
	)
	return vocab.Snapshot(cmd.Context(), opts.userID, lang)
}

func printStats(cmd *cobra.Command, stats filter.Stats, output string) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Segments: %d (learning %d, blockers %d, empty %d)\n",
		stats.TotalSegments, stats.LearningCount, stats.BlockerCount, stats.EmptyCount)
	fmt.Fprintf(out, "Words: %d active, %d known, %d blocked\n",
		stats.ActiveWords, stats.KnownWords, stats.BlockedWords)
	if stats.DegradedWords > 0 {
		fmt.Fprintf(out, "Degraded lemmas: %d\n", stats.DegradedWords)
	}
	if len(stats.UnknownLemmas) > 0 {
		fmt.Fprintf(out, "Unknown (%d): %s\n", stats.UniqueUnknown, strings.Join(stats.UnknownLemmas, ", "))
	}
	if output != "" {
		fmt.Fprintf(out, "Wrote %s\n", output)
	}
}
