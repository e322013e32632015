// Command simulate deposits copies of the raw sample batches into the
// intake location as newly arrived messages, standing in for the
// upstream streaming feed.
package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BahreHailemariam/Real-Time-Supply-Chain-Analytics-Pipeline/internal/bootstrap"
	"github.com/BahreHailemariam/Real-Time-Supply-Chain-Analytics-Pipeline/internal/logger"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "simulate: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, configErr := bootstrap.LoadConfig()
	if configErr != nil {
		return fmt.Errorf("config: %w", configErr)
	}

	log, logErr := bootstrap.CreateLogger(cfg)
	if logErr != nil {
		return fmt.Errorf("logger: %w", logErr)
	}
	defer func() { _ = log.Sync() }()

	if mkdirErr := os.MkdirAll(cfg.Pipeline.IntakeDir, 0o755); mkdirErr != nil {
		return fmt.Errorf("create intake dir: %w", mkdirErr)
	}

	entries, readErr := os.ReadDir(cfg.Pipeline.RawDir)
	if readErr != nil {
		return fmt.Errorf("read raw dir %s: %w", cfg.Pipeline.RawDir, readErr)
	}

	now := time.Now().Unix()
	deposited := 0
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".csv") {
			continue
		}

		stem := strings.TrimSuffix(entry.Name(), ".csv")
		dest := fmt.Sprintf("%s_msg_%d.csv", stem, now)

		if copyErr := copyFile(
			filepath.Join(cfg.Pipeline.RawDir, entry.Name()),
			filepath.Join(cfg.Pipeline.IntakeDir, dest),
		); copyErr != nil {
			return copyErr
		}

		log.Info("Simulated message deposited",
			logger.String("source", entry.Name()),
			logger.String("batch", dest),
		)
		deposited++
	}

	log.Info("Simulation complete", logger.Int("batches", deposited))
	return nil
}

func copyFile(src, dst string) error {
	in, openErr := os.Open(src)
	if openErr != nil {
		return fmt.Errorf("open %s: %w", src, openErr)
	}
	defer in.Close()

	out, createErr := os.Create(dst)
	if createErr != nil {
		return fmt.Errorf("create %s: %w", dst, createErr)
	}
	defer out.Close()

	if _, copyErr := io.Copy(out, in); copyErr != nil {
		return fmt.Errorf("copy %s: %w", src, copyErr)
	}

	return out.Sync()
}
