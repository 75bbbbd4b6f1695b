// Command reviewctl is a local development CLI: sign and replay a webhook
// payload against a running receiver, preview how the context builder would
// select and budget a PR's changed files, and apply a suggested patch to a
// local checkout.
package main

import (
	"fmt"
	"log"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	root := newRootCommand()
	if err := root.Execute(); err != nil {
		log.Fatal(err)
	}
}

func newRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   "reviewctl",
		Short: "Local development tooling for the AI PR review pipeline",
	}
	root.SilenceUsage = true

	root.AddCommand(newSignCommand())
	root.AddCommand(newPreviewCommand())
	root.AddCommand(newApplyCommand())
	return root
}

func fatalf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}
