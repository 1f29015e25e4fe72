package main

import (
	"github.com/spf13/cobra"

	"github.com/aleksaelezovic/qlgo/internal/storage"
	"github.com/aleksaelezovic/qlgo/internal/store"
	"github.com/aleksaelezovic/qlgo/pkg/errs"
)

func newQueryCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "query <sparql>",
		Short: "Execute a SPARQL query against the stored database",
		Args:  cobra.ExactArgs(1),
		RunE:  runQuery,
	}
}

func runQuery(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	backend, err := storage.NewBadgerStorage(cfg.Storage.Dir)
	if err != nil {
		return errs.Wrap(err, errs.CodeStoreFailure, "opening storage")
	}
	defer backend.Close()

	tripleStore := store.NewTripleStore(backend)

	result, err := runSPARQL(tripleStore, args[0])
	if err != nil {
		return err
	}

	printResult(cmd.OutOrStdout(), result)
	return nil
}
