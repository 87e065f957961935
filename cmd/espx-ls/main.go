// Command espx-ls is the LSP server entrypoint: a cobra root command
// with a serve subcommand running the server over stdio or a Unix
// socket.
package main

import (
	"context"
	"fmt"
	"log"
	"net"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/lexcodex/espxls/config"
	"github.com/lexcodex/espxls/lspserver"
	"github.com/lexcodex/espxls/provider"
	"github.com/lexcodex/espxls/store/sqlitekv"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "espx-ls",
		Short: "LSP server embedding AI agents into interact-code comments",
	}
	root.AddCommand(newServeCmd())
	return root
}

func newServeCmd() *cobra.Command {
	var socketAddr string
	var workspace string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the LSP server over stdio (default) or a Unix socket",
		RunE: func(cmd *cobra.Command, args []string) error {
			if workspace == "" {
				workspace = "."
			}
			abs, err := filepath.Abs(workspace)
			if err != nil {
				return err
			}
			return runServe(abs, socketAddr)
		},
	}
	cmd.Flags().StringVar(&socketAddr, "socket", "", "Unix socket path to listen on instead of stdio")
	cmd.Flags().StringVar(&workspace, "workspace", ".", "Workspace root containing espx-ls.toml")
	return cmd
}

func runServe(workspace, socketAddr string) error {
	logger := log.New(os.Stderr, "espx-ls ", log.LstdFlags)

	cfg, err := config.Load(filepath.Join(workspace, config.FileName))
	if err != nil {
		return err
	}

	stateDir := filepath.Join(workspace, ".espx-ls")
	if err := os.MkdirAll(stateDir, 0o755); err != nil {
		return err
	}

	db, err := sqlitekv.Open(filepath.Join(stateDir, "db.sqlite3"))
	if err != nil {
		return err
	}
	defer db.Close()

	adapter := provider.NewHTTPAdapter()

	s, err := lspserver.NewState(cfg, db, adapter, adapter, workspace, logger)
	if err != nil {
		return err
	}
	srv := lspserver.NewServer(s)

	ctx := context.Background()

	if err := s.LoadPersistedMemories(ctx); err != nil {
		logger.Printf("restoring persisted memories failed, continuing with empty caches: %v", err)
	}

	if socketAddr == "" {
		logger.Printf("serving over stdio")
		return srv.Run(ctx, stdioReadWriteCloser{os.Stdin, os.Stdout})
	}

	ln, err := net.Listen("unix", socketAddr)
	if err != nil {
		return err
	}
	defer ln.Close()
	logger.Printf("serving on unix socket %s", socketAddr)

	conn, err := ln.Accept()
	if err != nil {
		return err
	}
	defer conn.Close()
	return srv.Run(ctx, conn)
}

// stdioReadWriteCloser adapts os.Stdin/os.Stdout to the
// io.ReadWriteCloser the jsonrpc2 stream wrapper wants.
type stdioReadWriteCloser struct {
	in  *os.File
	out *os.File
}

func (s stdioReadWriteCloser) Read(p []byte) (int, error)  { return s.in.Read(p) }
func (s stdioReadWriteCloser) Write(p []byte) (int, error) { return s.out.Write(p) }
func (s stdioReadWriteCloser) Close() error {
	_ = s.in.Close()
	return s.out.Close()
}
