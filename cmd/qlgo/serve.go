package main

import (
	"fmt"
	"log"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/aleksaelezovic/qlgo/internal/server"
	"github.com/aleksaelezovic/qlgo/internal/storage"
	"github.com/aleksaelezovic/qlgo/internal/store"
	"github.com/aleksaelezovic/qlgo/pkg/errs"
)

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve [addr]",
		Short: "Start the HTTP SPARQL endpoint",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runServe,
	}
	cmd.Flags().String("addr", "", "override server.addr (host:port)")
	_ = viper.BindPFlag("server.addr", cmd.Flags().Lookup("addr"))
	return cmd
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	addr := cfg.Server.Addr
	if len(args) >= 1 {
		addr = args[0]
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Opening database at: %s\n", cfg.Storage.Dir)
	backend, err := storage.NewBadgerStorage(cfg.Storage.Dir)
	if err != nil {
		return errs.Wrap(err, errs.CodeStoreFailure, "opening storage")
	}
	defer backend.Close()

	tripleStore := store.NewTripleStore(backend)
	count, err := tripleStore.Count()
	if err != nil {
		return errs.Wrap(err, errs.CodeStoreFailure, "counting triples")
	}
	fmt.Fprintf(out, "Database loaded with %d triples\n", count)

	srv := server.NewServer(tripleStore, addr)
	fmt.Fprintf(out, "SPARQL endpoint starting on http://%s/sparql (health: /healthz)\n", addr)
	fmt.Fprintln(out, "Press Ctrl+C to stop")

	if err := srv.Start(); err != nil {
		log.Printf("server error: %v", err)
		return errs.Wrap(err, errs.CodeServerInternalFailure, "server stopped")
	}
	return nil
}
