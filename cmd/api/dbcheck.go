package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/d-alshehri/VeriCV-v2/internal/config"
	"github.com/d-alshehri/VeriCV-v2/internal/repositories"
)

var dbcheckCmd = &cobra.Command{
	Use:   "dbcheck",
	Short: "Connect to the database and print stored CV and assessment counts",
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, log, err := setup()
		if err != nil {
			return err
		}
		defer func() { _ = log.Sync() }()

		db, err := config.InitDatabase(cfg, log)
		if err != nil {
			return err
		}
		sqlDB, err := db.DB()
		if err != nil {
			return fmt.Errorf("failed to get database handle: %w", err)
		}
		defer sqlDB.Close()

		if err := sqlDB.PingContext(cmd.Context()); err != nil {
			return fmt.Errorf("database ping failed: %w", err)
		}

		cvs, err := repositories.NewDocumentRepository(db).Count(cmd.Context())
		if err != nil {
			return err
		}
		assessments, err := repositories.NewAssessmentRepository(db).Count(cmd.Context())
		if err != nil {
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(), "database ok: %d CVs, %d assessments\n", cvs, assessments)
		return nil
	},
}
