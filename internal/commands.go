package internal

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/starford/lumina/internal/encryption"
	"github.com/starford/lumina/internal/importer"
	"github.com/starford/lumina/internal/mcpserver"
	"github.com/starford/lumina/internal/storage"
)

// RunMCP serves the MCP tools over stdio until stdin closes. Logs go to
// stderr unless WithLogOutput says otherwise, since stdout carries the
// protocol.
func RunMCP(_ context.Context, opts ...Option) error {
	app, logger, err := newApplication(append([]Option{WithLogOutput(os.Stderr)}, opts...))
	if err != nil {
		return err
	}

	db, svc, err := openService(app.config)
	if err != nil {
		return err
	}
	defer db.Close()

	logger.Info("MCP server starting", slog.String("sqlite_path", app.config.SQLite.Path))
	return mcpserver.New(svc).ServeStdio()
}

// Export writes every note into dir as markdown and returns how many were
// written.
func Export(ctx context.Context, dir string, opts ...Option) (int, error) {
	app, logger, err := newApplication(opts)
	if err != nil {
		return 0, err
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return 0, fmt.Errorf("create export dir: %w", err)
	}
	dest, err := storage.NewFS(dir)
	if err != nil {
		return 0, fmt.Errorf("init storage: %w", err)
	}

	db, svc, err := openService(app.config)
	if err != nil {
		return 0, err
	}
	defer db.Close()

	n, err := importer.Export(ctx, svc, dest)
	if err != nil {
		return n, fmt.Errorf("export: %w", err)
	}
	logger.Info("Export finished", slog.String("dir", dir), slog.Int("notes", n))
	return n, nil
}

// HashPassword returns the crypto.password_hash value for password.
func HashPassword(cfg *Config, password string) (string, error) {
	if password == "" {
		return "", fmt.Errorf("password is empty")
	}
	return encryption.New(cfg.Crypto.Iterations).HashPassword(password)
}
