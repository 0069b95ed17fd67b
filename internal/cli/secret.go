package cli

import (
	"bufio"
	"fmt"
	"os"
	"slices"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/law-makers/bizcrawl/internal/secrets"
	"github.com/law-makers/bizcrawl/internal/ui"
)

var secretCmd = &cobra.Command{
	Use:   "secret",
	Short: "Manage credentials stored in the OS keyring",
	Long: `Stores credentials in your OS keyring so they need not live in .env files.

Known names: anthropic-api-key, database-url, redis-password.
Environment variables (e.g. ANTHROPIC_API_KEY) still take precedence.`,
	Example: `  # Store the model API key (prompted without echo)
  bizcrawl secret set anthropic-api-key

  # Remove the database URL
  bizcrawl secret delete database-url`,
	Annotations: map[string]string{annotationNoApp: ""},
}

var secretSetCmd = &cobra.Command{
	Use:         "set <name> [value]",
	Short:       "Store a secret",
	Args:        cobra.RangeArgs(1, 2),
	Annotations: map[string]string{annotationNoApp: ""},
	RunE:        runSecretSet,
}

var secretDeleteCmd = &cobra.Command{
	Use:         "delete <name>",
	Short:       "Remove a secret",
	Args:        cobra.ExactArgs(1),
	Annotations: map[string]string{annotationNoApp: ""},
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := checkSecretName(args[0]); err != nil {
			return err
		}
		if err := secrets.Delete(args[0]); err != nil {
			return err
		}
		fmt.Fprintf(os.Stderr, "%s %s\n", ui.Success("Deleted"), args[0])
		return nil
	},
}

func init() {
	secretCmd.AddCommand(secretSetCmd, secretDeleteCmd)
	rootCmd.AddCommand(secretCmd)
}

func runSecretSet(cmd *cobra.Command, args []string) error {
	name := args[0]
	if err := checkSecretName(name); err != nil {
		return err
	}

	value := ""
	if len(args) == 2 {
		value = args[1]
	} else {
		v, err := readSecret(name)
		if err != nil {
			return err
		}
		value = v
	}

	if err := secrets.Set(name, strings.TrimSpace(value)); err != nil {
		return err
	}
	fmt.Fprintf(os.Stderr, "%s %s\n", ui.Success("Saved"), name)
	return nil
}

// readSecret prompts without echo on a terminal, or reads one line from a pipe
func readSecret(name string) (string, error) {
	fd := int(os.Stdin.Fd())
	if term.IsTerminal(fd) {
		fmt.Fprintf(os.Stderr, "%s: ", name)
		b, err := term.ReadPassword(fd)
		fmt.Fprintln(os.Stderr)
		if err != nil {
			return "", fmt.Errorf("read secret: %w", err)
		}
		return string(b), nil
	}

	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil && line == "" {
		return "", fmt.Errorf("read secret from stdin: %w", err)
	}
	return line, nil
}

func checkSecretName(name string) error {
	if !slices.Contains(secrets.Names(), name) {
		return fmt.Errorf("unknown secret %q (known: %s)", name, strings.Join(secrets.Names(), ", "))
	}
	return nil
}
