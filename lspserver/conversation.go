package lspserver

import (
	"fmt"
	"os"
	"path/filepath"
)

// appendConversation appends one exchange to the workspace's
// human-readable transcript of the global agent, written after every
// completion of the global agent.
func appendConversation(path, prompt, response string) error {
	if path == "" {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()

	_, err = fmt.Fprintf(f, "## User\n\n%s\n\n## Assistant\n\n%s\n\n", prompt, response)
	return err
}
