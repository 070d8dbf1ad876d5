package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/joseph-ayodele/forms-intake/internal/common"
	"github.com/joseph-ayodele/forms-intake/internal/ingest"
	"github.com/joseph-ayodele/forms-intake/internal/llm"
	"github.com/joseph-ayodele/forms-intake/internal/llm/openai"
	"github.com/joseph-ayodele/forms-intake/internal/ocr"
)

func newProcessCmd() *cobra.Command {
	var skipHidden bool
	cmd := &cobra.Command{
		Use:   "process <file-or-dir>...",
		Short: "Run local files through the full intake workflow",
		Long: `process classifies, reads, parses, validates and stores each file exactly as an HTTP upload
would, and prints one JSON result per file. Directories are walked recursively.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := openEnv(cmd)
			if err != nil {
				return err
			}
			defer e.Close()
			svc, err := e.services(cmd.Context())
			if err != nil {
				return err
			}
			defer svc.Close()

			failed := 0
			for _, path := range args {
				info, err := os.Stat(path)
				if err != nil {
					return err
				}
				if !info.IsDir() {
					res := ingest.File(cmd.Context(), svc.Processor, path, e.cfg.Storage.MaxFileSize)
					if res.Err != "" {
						failed++
					}
					if err := printJSON(cmd.OutOrStdout(), res); err != nil {
						return err
					}
					continue
				}
				results, stats, err := ingest.Directory(cmd.Context(), svc.Processor, path, skipHidden, e.cfg.Storage.MaxFileSize, e.logger)
				for _, res := range results {
					if perr := printJSON(cmd.OutOrStdout(), res); perr != nil {
						return perr
					}
				}
				if err != nil {
					return err
				}
				failed += int(stats.Failed)
				e.logger.Info("directory processed",
					"root", path,
					"scanned", stats.Scanned,
					"matched", stats.Matched,
					"succeeded", stats.Succeeded,
					"failed", stats.Failed,
				)
			}
			if failed > 0 {
				return fmt.Errorf("%d file(s) failed", failed)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&skipHidden, "skip-hidden", true, "Skip dotfiles and dot-directories")
	return cmd
}

func newWatchCmd() *cobra.Command {
	var initial bool
	var debounce time.Duration
	cmd := &cobra.Command{
		Use:   "watch <dir>...",
		Short: "Process forms as they are dropped into a folder",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := openEnv(cmd)
			if err != nil {
				return err
			}
			defer e.Close()
			svc, err := e.services(cmd.Context())
			if err != nil {
				return err
			}
			defer svc.Close()

			events, errs, err := ingest.Watch(cmd.Context(), ingest.WatchConfig{
				Roots:       args,
				InitialScan: initial,
				Debounce:    debounce,
			}, e.logger)
			if err != nil {
				return err
			}
			e.logger.Info("watching", "roots", args)
			for {
				select {
				case path, ok := <-events:
					if !ok {
						return nil
					}
					res := ingest.File(cmd.Context(), svc.Processor, path, e.cfg.Storage.MaxFileSize)
					if err := printJSON(cmd.OutOrStdout(), res); err != nil {
						return err
					}
				case err, ok := <-errs:
					if ok && err != nil {
						e.logger.Warn("watch error", "error", err)
					}
				}
			}
		},
	}
	cmd.Flags().BoolVar(&initial, "initial-scan", false, "Also process files already present")
	cmd.Flags().DurationVar(&debounce, "debounce", 500*time.Millisecond, "Wait this long after the last write before processing")
	return cmd
}

// ocr is a diagnostic: it only runs text extraction and prints the result.
func newOCRCmd() *cobra.Command {
	var engine string
	cmd := &cobra.Command{
		Use:   "ocr <file>",
		Short: "Extract text from a file without storing anything",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			up, err := ingest.LoadFile(args[0], cfg.Storage.MaxFileSize)
			if err != nil {
				return err
			}
			if engine == "" {
				engine = cfg.OCR.Engine
			}
			var extractor llm.TextExtractor
			switch engine {
			case common.OCREngineTesseract:
				extractor = ocr.NewTesseract(ocr.Config{
					Tesseract:     cfg.OCR.Tesseract,
					TesseractLang: cfg.OCR.TesseractLang,
					TessdataDir:   cfg.OCR.TessdataDir,
				}, nil, logger)
			case common.OCREngineOpenAI:
				extractor = openai.NewClient(openai.Config{
					APIKey:  cfg.LLM.APIKey,
					BaseURL: cfg.LLM.BaseURL,
					Model:   cfg.LLM.Model,
					Timeout: cfg.LLM.Timeout,
				}, logger)
			default:
				return fmt.Errorf("unknown engine %q", engine)
			}
			res, err := extractor.ExtractText(cmd.Context(), llm.Document{
				Name:        up.Filename,
				ContentType: up.ContentType,
				Data:        up.Data,
			})
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), res)
		},
	}
	cmd.Flags().StringVar(&engine, "engine", "", "openai or tesseract (default OCR_ENGINE)")
	return cmd
}
