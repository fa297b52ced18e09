package main

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/d-alshehri/VeriCV-v2/internal/config"
	"github.com/d-alshehri/VeriCV-v2/internal/logger"
)

const app = "vericv"

var (
	cfgFile string

	rootCmd = &cobra.Command{
		Use:           app,
		Short:         "VeriCV resume assessment API",
		Long:          "VeriCV generates skill quizzes from resumes, scores submitted answers and matches resumes against job descriptions.",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          runServe,
	}
)

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "optional YAML config file, overridden by environment variables")
	rootCmd.PersistentFlags().BoolP("debug", "d", false, "verbose/debug output")
	rootCmd.PersistentFlags().BoolP("json", "j", false, "json format for logging")

	_ = viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))
	_ = viper.BindPFlag("json", rootCmd.PersistentFlags().Lookup("json"))

	rootCmd.AddCommand(serveCmd, matchCmd, extractCmd, dbcheckCmd)
}

// setup loads the configuration and builds the process logger shared by every command.
func setup() (*config.Config, *zap.Logger, error) {
	log, err := logger.New(viper.GetBool("json"), viper.GetBool("debug"))
	if err != nil {
		return nil, nil, err
	}

	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, nil, err
	}
	log.Debug("config loaded",
		zap.String("env", cfg.Server.Env),
		zap.String("llm_provider", cfg.LLM.Provider),
		zap.String("ocr_provider", cfg.OCR.Provider),
	)
	return cfg, log, nil
}
