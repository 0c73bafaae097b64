package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"summons-workers/internal/app"
	"summons-workers/internal/common/logger"
	"summons-workers/internal/models"
	"summons-workers/internal/summons"
)

var (
	runTextFile  string
	runQuestion  string
	runStayHours float64
	runWeather   bool
	runTransport bool
	runPoi       bool
)

type runner interface {
	Run(ctx context.Context, req models.AssistRequest) *summons.Result
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run one summons through extraction, enrichment and composition",
	Long: `Reads the summons text from --text-file ("-" for stdin) and prints the run
result as JSON. A failed run prints {"runId", "state", "error"} and exits non-zero.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		text, err := readText(runTextFile, cmd.InOrStdin())
		if err != nil {
			return err
		}
		req := buildRequest(cmd.Flags(), text)

		ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
		defer cancel()

		opts := app.Options{Logger: logger.NewZapAdapter(zapLog)}
		if cfg.Pipeline.AuditEnabled {
			pg, store, err := app.ConnectAudit(ctx, cfg.Database.Postgres)
			if err != nil {
				return fmt.Errorf("run audit: %w", err)
			}
			defer pg.Close()
			opts.Recorder = store
		}

		assist, err := app.NewAssist(ctx, cfg, opts)
		if err != nil {
			return err
		}
		return runAssist(ctx, cmd.OutOrStdout(), assist.Pipeline, req)
	},
}

func init() {
	bindRunFlags(runCmd.Flags())
	rootCmd.AddCommand(runCmd)
}

func bindRunFlags(fs *pflag.FlagSet) {
	fs.StringVarP(&runTextFile, "text-file", "f", "-", `File holding the summons text, "-" for stdin`)
	fs.StringVarP(&runQuestion, "question", "q", "", "Free-text question used to pick enrichments")
	fs.Float64Var(&runStayHours, "stay-hours", 0, "Hours to spend near the court (0.5-6); default from config")
	fs.BoolVar(&runWeather, "include-weather", false, "Force weather on or off")
	fs.BoolVar(&runTransport, "include-transport", false, "Force transport advice on or off")
	fs.BoolVar(&runPoi, "include-poi", false, "Force nearby places on or off")
}

func readText(path string, stdin io.Reader) (string, error) {
	var data []byte
	var err error
	if path == "" || path == "-" {
		data, err = io.ReadAll(stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return "", fmt.Errorf("reading summons text: %w", err)
	}
	return string(data), nil
}

// buildRequest maps flags onto a request. Flags the user did not set stay nil so
// the selector falls back to the question.
func buildRequest(flags *pflag.FlagSet, text string) models.AssistRequest {
	req := models.AssistRequest{
		RawText:      text,
		UserQuestion: strings.TrimSpace(runQuestion),
	}
	if flags.Changed("stay-hours") {
		v := runStayHours
		req.StayDurationHours = &v
	}
	req.IncludeWeather = changedBool(flags, "include-weather", runWeather)
	req.IncludeTransport = changedBool(flags, "include-transport", runTransport)
	req.IncludePoi = changedBool(flags, "include-poi", runPoi)
	return req
}

func changedBool(flags *pflag.FlagSet, name string, v bool) *bool {
	if !flags.Changed(name) {
		return nil
	}
	return &v
}

type failedRun struct {
	RunID string      `json:"runId"`
	State string      `json:"state"`
	Error interface{} `json:"error"`
}

func runAssist(ctx context.Context, out io.Writer, r runner, req models.AssistRequest) error {
	result := r.Run(ctx, req)

	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)

	if result.Ok() {
		return enc.Encode(result.Payload)
	}
	if err := enc.Encode(failedRun{RunID: result.RunID, State: string(result.State), Error: result.Err}); err != nil {
		return err
	}
	if result.Err != nil {
		return fmt.Errorf("run %s failed: %s", result.RunID, result.Err.Code)
	}
	return fmt.Errorf("run %s failed", result.RunID)
}
