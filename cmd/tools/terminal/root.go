package main

import (
	"context"
	"log"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/zhouzirui/mindcheck/backend/internal/config"
	"github.com/zhouzirui/mindcheck/backend/internal/service/prediction"
	"github.com/zhouzirui/mindcheck/backend/internal/service/questionnaire"
)

type options struct {
	handle       string
	predictorURL string
	timeout      time.Duration
	delay        time.Duration
}

func newRootCommand() *cobra.Command {
	opts := &options{}

	cmd := &cobra.Command{
		Use:   "terminal",
		Short: "Run a mindcheck questionnaire in the terminal",
		Long: `Run one questionnaire session against the prediction service.

The command asks for a social media handle, runs the post analysis, walks
through the demographic questions and prints the combined result.`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, opts)
		},
	}

	cmd.Flags().StringVar(&opts.handle, "handle", "", "Social media handle to analyse (asked interactively when empty)")
	cmd.Flags().StringVar(&opts.predictorURL, "predictor-url", "", "Prediction service base URL (default from PREDICTOR_BASE_URL)")
	cmd.Flags().DurationVar(&opts.timeout, "timeout", 0, "Prediction request timeout (default from PREDICTOR_TIMEOUT)")
	cmd.Flags().DurationVar(&opts.delay, "delay", 500*time.Millisecond, "Pause before each follow-up question")

	return cmd
}

func run(cmd *cobra.Command, opts *options) error {
	if err := godotenv.Load(); err != nil {
		log.Printf("warning: failed to load .env file: %v", err)
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	baseURL := cfg.Predictor.BaseURL
	if opts.predictorURL != "" {
		baseURL = opts.predictorURL
	}
	timeout := cfg.Predictor.Timeout
	if opts.timeout > 0 {
		timeout = opts.timeout
	}

	client := prediction.NewClient(prediction.Config{BaseURL: baseURL, Timeout: timeout}, nil)
	svc := questionnaire.NewService(client, questionnaire.Config{PromptDelay: opts.delay})

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	in, out := cmd.InOrStdin(), cmd.OutOrStdout()
	return runSession(ctx, svc, newFormAsker(in, out), out, opts.handle)
}

func execute() error {
	return newRootCommand().Execute()
}
