// evalrun evaluates one manuscript file from the command line, without the
// HTTP or database layers. Template arguments are local spreadsheet paths;
// the result prints as JSON.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"

	"github.com/ladi-press/manuscript-eval/constants"
	"github.com/ladi-press/manuscript-eval/internal/common"
	"github.com/ladi-press/manuscript-eval/internal/eval"
	"github.com/ladi-press/manuscript-eval/internal/extract"
	"github.com/ladi-press/manuscript-eval/internal/llm/provider"
)

// fileTemplateSource treats template ids as local spreadsheet paths.
type fileTemplateSource struct{}

func (fileTemplateSource) TemplateBytes(_ context.Context, templateID, _ string) ([]byte, error) {
	return os.ReadFile(templateID)
}

func main() {
	var (
		file      = flag.String("file", "", "manuscript file to evaluate (pdf, docx, xls, xlsx)")
		methods   = flag.String("methods", "basic", "comma-separated evaluation methods (basic, template)")
		templates = flag.String("templates", "", "comma-separated template spreadsheet paths")
		out       = flag.String("out", "", "write the result JSON to this file instead of stdout")
	)
	flag.Parse()

	if err := godotenv.Load(); err != nil {
		slog.Debug("no .env file loaded", "error", err)
	}
	cfg := common.LoadConfig()
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
	slog.SetDefault(logger)

	if *file == "" {
		fmt.Fprintln(os.Stderr, "usage: evalrun -file MANUSCRIPT [-methods basic,template] [-templates rubric.xlsx,...]")
		os.Exit(2)
	}

	if err := run(cfg, logger, *file, *methods, *templates, *out); err != nil {
		fmt.Fprintf(os.Stderr, "evalrun: %v\n", err)
		os.Exit(1)
	}
}

func run(cfg *common.Config, logger *slog.Logger, file, rawMethods, rawTemplates, out string) error {
	ctx := context.Background()

	format, ok := constants.FormatForExt(filepath.Ext(file))
	if !ok {
		return fmt.Errorf("unsupported file type %s", filepath.Ext(file))
	}

	var methods []constants.Method
	for _, part := range strings.Split(rawMethods, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		method, ok := constants.CanonicalizeMethod(part)
		if !ok {
			return fmt.Errorf("invalid method %q", part)
		}
		methods = append(methods, method)
	}

	var templateIDs []string
	if rawTemplates != "" {
		for _, p := range strings.Split(rawTemplates, ",") {
			if p = strings.TrimSpace(p); p != "" {
				templateIDs = append(templateIDs, p)
			}
		}
	}

	src, err := os.Open(file)
	if err != nil {
		return err
	}
	defer func() { _ = src.Close() }()

	extractor, err := extract.ForFormat(format, logger)
	if err != nil {
		return err
	}
	extracted, err := extractor.Extract(ctx, src)
	if err != nil {
		return err
	}
	if err := extract.CheckSufficientText(format, extracted.Text); err != nil {
		return err
	}

	client, err := provider.New(ctx, cfg.LLM, logger)
	if err != nil {
		return err
	}
	evaluator := eval.NewEvaluator(client, cfg.LLM, logger)
	orchestrator := eval.NewOrchestrator(evaluator, fileTemplateSource{}, cfg.Eval, logger)

	result, err := orchestrator.Run(ctx, extracted.Text, eval.Job{
		Methods:     methods,
		TemplateIDs: templateIDs,
		UserScope:   "evalrun",
	})
	if err != nil {
		return err
	}

	payload, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return err
	}
	payload = append(payload, '\n')

	if out != "" {
		return os.WriteFile(out, payload, 0o644)
	}
	_, err = os.Stdout.Write(payload)
	return err
}
