package main

import (
	"github.com/spf13/cobra"
)

var certsCmd = &cobra.Command{
	Use:   "certs",
	Short: "Manage gate certificates",
	Long: `Manage the certificates that gated services wait for.

The certs command is the issuing side of the certificate gate: it
maintains a self-signed CA in the certificate directory and issues
per-service bundle files (<name>.pem, leaf certificate plus private
key) that the gate observes.

Subcommands:
  issue - Issue certificate bundles from the directory CA
  info  - Display certificate details

Examples:
  # Issue bundles for two services
  caldera certs issue --dir /var/lib/basalt/certs --name web --name db

  # Inspect an issued bundle
  caldera certs info /var/lib/basalt/certs/web.pem`,
}

func init() {
	rootCmd.AddCommand(certsCmd)
}
