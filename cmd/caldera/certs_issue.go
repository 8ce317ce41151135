package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"caldera-hq/basalt/pkg/certs"
	"caldera-hq/basalt/pkg/cli"
)

var issueFlags struct {
	dir     string
	names   []string
	days    int
	keySize int
	org     string
}

var certsIssueCmd = &cobra.Command{
	Use:   "issue",
	Short: "Issue certificate bundles",
	Long: `Issue certificate bundles from the directory CA.

On first use a self-signed CA is generated in the certificate
directory (ca.pem and ca-key.pem). Each --name then gets a bundle file
<name>.pem containing the leaf certificate and its private key. The
bundle is written atomically, so a gate watching the directory never
observes a partial artifact. Issuing an existing name replaces its
bundle, keys rotated included.

Names that parse as IP addresses become IP SANs, everything else a
DNS SAN.

Examples:
  # Issue bundles for two services
  caldera certs issue --dir /var/lib/basalt/certs --name web --name db

  # Short-lived certificates with a larger key
  caldera certs issue --name web --days 30 --key-size 4096`,
	RunE: issueCertificates,
}

func init() {
	certsCmd.AddCommand(certsIssueCmd)

	certsIssueCmd.Flags().StringVar(&issueFlags.dir, "dir", "", "certificate directory (overrides config)")
	certsIssueCmd.Flags().StringArrayVar(&issueFlags.names, "name", nil, "certificate name to issue (repeatable)")
	certsIssueCmd.Flags().IntVar(&issueFlags.days, "days", 0, "validity in days")
	certsIssueCmd.Flags().IntVar(&issueFlags.keySize, "key-size", 0, "RSA key size (2048, 3072, 4096)")
	certsIssueCmd.Flags().StringVar(&issueFlags.org, "org", "", "certificate organization")
}

func issueCertificates(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return cli.NewConfigError("", fmt.Sprintf("failed to load config: %v", err))
	}

	if len(issueFlags.names) == 0 {
		return fmt.Errorf("at least one --name is required")
	}

	dir := cfg.Gate.Dir
	if issueFlags.dir != "" {
		dir = issueFlags.dir
	}

	ca, err := certs.LoadOrCreateCA(dir, certs.IssueConfig{
		Days:         issueFlags.days,
		KeySize:      issueFlags.keySize,
		Organization: issueFlags.org,
	})
	if err != nil {
		return cli.NewCommandError("certs", err)
	}

	fmt.Printf("CA certificate: %s\n", ca.CertFile())

	for _, name := range issueFlags.names {
		path, err := ca.Issue(name)
		if err != nil {
			return cli.NewCommandError("certs", err)
		}
		fmt.Printf("✓ Issued %s: %s\n", name, path)
	}

	return nil
}
