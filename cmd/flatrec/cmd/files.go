/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/ssargent/flatrec/pkg/batch"
	"github.com/ssargent/flatrec/pkg/storage"
)

// openInput opens path for reading; "" and "-" read stdin
func openInput(cmd *cobra.Command, path string) (io.ReadCloser, string, error) {
	if path == "" || path == "-" {
		return io.NopCloser(cmd.InOrStdin()), "stdin", nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, "", fmt.Errorf("failed to open input: %w", err)
	}
	return f, path, nil
}

// openOutput opens path for writing; "" and "-" write stdout
func openOutput(cmd *cobra.Command, path string) (io.WriteCloser, error) {
	if path == "" || path == "-" {
		return nopWriteCloser{cmd.OutOrStdout()}, nil
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0640)
	if err != nil {
		return nil, fmt.Errorf("failed to create output: %w", err)
	}
	return f, nil
}

type nopWriteCloser struct {
	io.Writer
}

func (nopWriteCloser) Close() error { return nil }

// rejectSink opens the reject store when policy needs it. The returned
// close function is never nil.
func rejectSink(policy batch.Policy) (batch.RejectSink, func() error, error) {
	if policy != batch.PolicyReject {
		return nil, func() error { return nil }, nil
	}
	if err := os.MkdirAll(cfg.RejectDir, 0750); err != nil {
		return nil, nil, fmt.Errorf("failed to create reject dir: %w", err)
	}
	store, err := storage.NewRejectStore(cfg.RejectDir)
	if err != nil {
		return nil, nil, err
	}
	return store, store.Close, nil
}

// policyFlag returns the --on-error policy, defaulting to the configuration
func policyFlag(cmd *cobra.Command) (batch.Policy, error) {
	name, _ := cmd.Flags().GetString("on-error")
	if name == "" {
		name = cfg.OnError
	}
	return batch.ParsePolicy(name)
}

func addBatchFlags(cmd *cobra.Command) {
	cmd.Flags().StringP("output", "o", "-", "Output file, - for stdout")
	cmd.Flags().String("charset", "", "Charset of the flat file (overrides the configuration)")
	cmd.Flags().String("on-error", "", "What to do with failing lines: reject, abort or skip")
}

type direction int

const (
	toJSON direction = iota // flat lines in, JSON lines out
	toFlat                  // JSON lines in, flat lines out
)

// runJob wires input, output and rejects around job and runs it
func runJob(cmd *cobra.Command, job *batch.Job, input string, dir direction) error {
	charset, _ := cmd.Flags().GetString("charset")
	if charset == "" {
		charset = cfg.Charset
	}
	outputPath, _ := cmd.Flags().GetString("output")

	policy, err := policyFlag(cmd)
	if err != nil {
		return err
	}
	rejects, closeRejects, err := rejectSink(policy)
	if err != nil {
		return err
	}
	defer closeRejects()

	in, source, err := openInput(cmd, input)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := openOutput(cmd, outputPath)
	if err != nil {
		return err
	}
	defer out.Close()

	readCharset := ""
	if dir == toJSON {
		readCharset = charset
	}
	reader, err := batch.NewReader(in, readCharset)
	if err != nil {
		return err
	}

	var writer *batch.Writer
	switch dir {
	case toJSON:
		job.Sink = batch.JSONLines(out)
	case toFlat:
		lineEnding, _ := cmd.Flags().GetString("line-ending")
		if lineEnding == "" {
			lineEnding = cfg.LineEnding
		}
		if writer, err = batch.NewWriter(out, charset, lineEnding); err != nil {
			return err
		}
		job.Sink = batch.Lines(writer)
	}

	job.Source = source
	job.Policy = policy
	job.Rejects = rejects

	report, runErr := job.Run(cmd.Context(), reader)
	if writer != nil {
		if err := writer.Close(); err != nil && runErr == nil {
			runErr = err
		}
	}

	cmd.PrintErrf("%d read, %d mapped, %d rejected, %d skipped\n", report.Read, report.Mapped, report.Rejected, report.Skipped)
	return runErr
}
