package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Show the admin URL with access token",
	Long: `Show the admin API URL with the current access token.

Use this when you've scrolled past the startup message or need to point
editor tooling at a running server.

Example:
  pagecraft token`,
	RunE: runToken,
}

func init() {
	rootCmd.AddCommand(tokenCmd)
}

func runToken(cmd *cobra.Command, args []string) error {
	data, err := os.ReadFile(tokenFilePath())
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("no server running. Start with: pagecraft serve")
		}
		return fmt.Errorf("failed to read token file: %w", err)
	}

	token := strings.TrimSpace(string(data))
	if token == "" {
		return fmt.Errorf("token file is empty. Restart the server with: pagecraft serve")
	}

	fmt.Printf("Admin API: http://localhost:%d/api/stats?token=%s\n", settings.Port, token)
	return nil
}
