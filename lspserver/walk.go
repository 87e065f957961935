package lspserver

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.lsp.dev/protocol"

	"github.com/lexcodex/espxls/bufferop"
	"github.com/lexcodex/espxls/lexer"
)

var walkProgressToken = *protocol.NewProgressToken("espxls/walk-project")

// walkWorkspace recursively enumerates s.WorkspaceRoot, excluding
// dotfiles and
// dot-directories, lexes each file it recognizes an extension for, and
// adds it to the document store, reporting progress proportional to
// files processed.
func walkWorkspace(ctx context.Context, s *State, ch *bufferop.Channel) error {
	files, err := collectWorkspaceFiles(s.WorkspaceRoot)
	if err != nil {
		return err
	}

	if err := ch.Send(ctx, bufferop.WorkDoneBegin(walkProgressToken, "espxls", "walking workspace")); err != nil {
		return err
	}

	for i, path := range files {
		uri := pathToFileURI(path)
		data, err := os.ReadFile(path)
		if err != nil {
			s.Logger.Printf("espxls: walk skipped %s: %v", path, err)
			continue
		}

		ext := extFromURI(uri)
		tokens, err := lexer.Lex(string(data), ext, s.Registry)
		if err != nil {
			continue
		}

		s.Lock()
		s.Documents.Set(uri, tokens)
		s.Unlock()

		pct := uint32(0)
		if len(files) > 0 {
			pct = uint32((i + 1) * 100 / len(files))
		}
		if err := ch.Send(ctx, bufferop.WorkDoneReport(walkProgressToken, fmt.Sprintf("indexed %s", path), pct)); err != nil {
			return err
		}
	}

	return ch.Send(ctx, bufferop.WorkDoneEnd(walkProgressToken, fmt.Sprintf("indexed %d files", len(files))))
}

// collectWorkspaceFiles walks root, skipping any entry whose base name
// starts with a dot.
func collectWorkspaceFiles(root string) ([]string, error) {
	if root == "" {
		return nil, nil
	}
	var out []string
	err := filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		base := filepath.Base(path)
		if base != "." && strings.HasPrefix(base, ".") {
			if info.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if !info.IsDir() {
			out = append(out, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func pathToFileURI(path string) string {
	abs, err := filepath.Abs(path)
	if err != nil {
		abs = path
	}
	abs = filepath.ToSlash(abs)
	if !strings.HasPrefix(abs, "/") {
		abs = "/" + abs
	}
	return "file://" + abs
}
