package main

import (
	"fmt"

	"sublearn/internal/app"
	"sublearn/internal/catalog"
	"sublearn/internal/repository/postgres"
	"sublearn/internal/service"

	"github.com/jmoiron/sqlx"
	"github.com/spf13/cobra"
)

func newImportCatalogCommand(ctx *commandContext) *cobra.Command {
	cfg := catalog.DefaultConfig("")
	var dryRun, asJSON bool

	cmd := &cobra.Command{
		Use:   "import-catalog <file.xlsx|file.csv>",
		Short: "Import a CEFR vocabulary catalog",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			lang, err := service.NormalizeLanguage(cfg.Language)
			if err != nil {
				return err
			}
			cfg.Language = lang

			var result *catalog.Result
			if dryRun {
				_, result, err = catalog.ReadFile(args[0], cfg)
				if err != nil {
					return err
				}
			} else {
				_, db, err := ctx.ensureDB()
				if err != nil {
					return err
				}
				importer := catalog.NewImporter(postgres.NewConceptRepo(sqlx.NewDb(db, "postgres")), ctx.log())
				result, err = importer.Import(cmd.Context(), args[0], cfg)
				if err != nil {
					return err
				}
			}

			if asJSON {
				return writeJSON(cmd, result)
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Processed: %d\nAccepted: %d\nDuplicates: %d\n", result.Processed, result.Accepted, result.Duplicates)
			if !dryRun {
				fmt.Fprintf(out, "Written: %d\n", result.Written)
			}
			for _, e := range result.Errors {
				fmt.Fprintf(out, "  %s\n", e)
			}
			return nil
		},
	}

	flags := cmd.Flags()
	flags.StringVarP(&cfg.Language, "language", "l", "de", "Language of the catalog")
	flags.StringVar(&cfg.SheetName, "sheet", "", "Workbook sheet (first sheet when empty)")
	flags.StringVar(&cfg.LemmaColumn, "lemma-column", cfg.LemmaColumn, "Column holding the lemma")
	flags.StringVar(&cfg.LevelColumn, "level-column", cfg.LevelColumn, "Column holding the CEFR level")
	flags.StringVar(&cfg.TranslationColumn, "translation-column", cfg.TranslationColumn, "Column holding translations, empty to skip")
	flags.IntVar(&cfg.StartRow, "start-row", cfg.StartRow, "First data row (1-based)")
	flags.BoolVar(&dryRun, "dry-run", false, "Parse and report without writing to the database")
	flags.BoolVar(&asJSON, "json", false, "Print the result as JSON")

	return cmd
}

func newMigrateCommand(ctx *commandContext) *cobra.Command {
	var source string

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, db, err := ctx.ensureDB()
			if err != nil {
				return err
			}
			return app.RunMigrations(db, source, ctx.log())
		},
	}
	cmd.Flags().StringVar(&source, "source", app.MigrationsURL, "Migration source URL")
	return cmd
}
