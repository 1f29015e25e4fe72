package main

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/aleksaelezovic/qlgo/internal/vocab"
	"github.com/aleksaelezovic/qlgo/pkg/errs"
)

func newVocabCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "vocab",
		Short: "Inspect a batch-built, collation-ordered term dictionary",
	}
	cmd.AddCommand(newVocabBuildCmd(), newVocabLookupCmd())
	return cmd
}

func newVocabBuildCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "build <words-file>",
		Short: "Build a sorted term dictionary from a newline-delimited word list",
		Args:  cobra.ExactArgs(1),
		RunE:  runVocabBuild,
	}
}

func newVocabLookupCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "lookup <term>",
		Short: "Look up a term's id in the dictionary built by 'vocab build'",
		Args:  cobra.ExactArgs(1),
		RunE:  runVocabLookup,
	}
}

func dictPath(storageDir string) string {
	return filepath.Join(storageDir, "vocab.dict")
}

func runVocabBuild(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	words, err := readWords(args[0])
	if err != nil {
		return errs.Wrap(err, errs.CodeCLIFailure, "reading words file")
	}

	v := vocab.New(cfg.Vocab.IgnoreCase)
	if err := v.BuildFromWords(words); err != nil {
		return errs.Wrap(err, errs.CodeVocabCheckFailed, "building vocabulary")
	}

	if err := os.MkdirAll(cfg.Storage.Dir, 0o755); err != nil {
		return errs.Wrap(err, errs.CodeCLIFailure, "creating storage dir")
	}

	out := dictPath(cfg.Storage.Dir)
	f, err := os.Create(out)
	if err != nil {
		return errs.Wrap(err, errs.CodeCLIFailure, "creating dictionary file")
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	for id := vocab.ID(0); id < vocab.ID(v.Len()); id++ {
		word, ok := v.At(id)
		if !ok {
			continue
		}
		fmt.Fprintln(w, word)
	}
	if err := w.Flush(); err != nil {
		return errs.Wrap(err, errs.CodeCLIFailure, "writing dictionary file")
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Built dictionary with %d terms at %s\n", v.Len(), out)
	return nil
}

func runVocabLookup(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	words, err := readWords(dictPath(cfg.Storage.Dir))
	if err != nil {
		return errs.Wrap(err, errs.CodeCLIFailure, "reading dictionary file; run 'vocab build' first")
	}

	v := vocab.New(cfg.Vocab.IgnoreCase)
	if err := v.BuildFromWords(words); err != nil {
		return errs.Wrap(err, errs.CodeVocabCheckFailed, "rebuilding vocabulary")
	}

	id, ok := v.GetID(args[0])
	if !ok {
		fmt.Fprintf(cmd.OutOrStdout(), "%q: not found\n", args[0])
		return nil
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%q = %d\n", args[0], id)
	return nil
}

func readWords(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var words []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := scanner.Text()
		if line == "" {
			continue
		}
		words = append(words, line)
	}
	return words, scanner.Err()
}
