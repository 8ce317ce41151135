package main

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"caldera-hq/basalt/pkg/certs"
	"caldera-hq/basalt/pkg/cli"
)

var infoFlags struct {
	format string
}

var certsInfoCmd = &cobra.Command{
	Use:   "info [cert-file]",
	Short: "Display certificate details",
	Long: `Display detailed information about a certificate file.

Bundle files as written by 'caldera certs issue' work directly; only
the certificate block is read. The report covers subject and issuer,
validity with expiration status, subject alternative names, and key
usage.

Output formats:
  - text (default): Human-readable formatted output
  - json: JSON-formatted output for scripting

Examples:
  # Display certificate info in text format
  caldera certs info /var/lib/basalt/certs/web.pem

  # Display in JSON format
  caldera certs info --format json /var/lib/basalt/certs/web.pem`,
	Args: cobra.ExactArgs(1),
	RunE: displayCertInfo,
}

func init() {
	certsCmd.AddCommand(certsInfoCmd)

	certsInfoCmd.Flags().StringVar(&infoFlags.format, "format", "text", "output format: text, json")
}

func displayCertInfo(cmd *cobra.Command, args []string) error {
	cert, err := certs.ReadCertificate(args[0])
	if err != nil {
		return cli.NewCommandError("certs", err)
	}

	info := certs.Extract(cert)

	if infoFlags.format == "json" {
		days, warning := certs.CheckExpiration(cert)
		encoder := json.NewEncoder(os.Stdout)
		encoder.SetIndent("", "  ")
		return encoder.Encode(map[string]any{
			"info":              info,
			"days_until_expiry": days,
			"expiry_warning":    warning,
		})
	}

	fmt.Printf("Certificate: %s\n\n", args[0])
	fmt.Printf("Subject: %s\n", info.Subject)
	fmt.Printf("Issuer: %s\n", info.Issuer)
	fmt.Printf("Serial Number: %s\n", info.SerialNumber)

	fmt.Println("\nValidity:")
	fmt.Printf("  Not Before: %s\n", info.NotBefore.Format(time.RFC3339))
	fmt.Printf("  Not After: %s\n", info.NotAfter.Format(time.RFC3339))

	days, warning := certs.CheckExpiration(cert)
	if err := certs.Validate(cert); err != nil {
		fmt.Printf("  Status: ✗ %v\n", err)
	} else {
		fmt.Printf("  Status: ✓ Valid (%d days remaining)\n", days)
	}
	if warning != "" {
		fmt.Printf("  Warning: ⚠  %s\n", warning)
	}

	if len(info.DNSNames) > 0 || len(info.IPAddresses) > 0 {
		fmt.Println("\nSubject Alternative Names:")
		for _, name := range info.DNSNames {
			fmt.Printf("  - DNS: %s\n", name)
		}
		for _, ip := range info.IPAddresses {
			fmt.Printf("  - IP: %s\n", ip)
		}
	}

	if len(info.KeyUsage) > 0 {
		fmt.Println("\nKey Usage:")
		for _, usage := range info.KeyUsage {
			fmt.Printf("  - %s\n", usage)
		}
	}

	if len(info.ExtKeyUsage) > 0 {
		fmt.Println("\nExtended Key Usage:")
		for _, usage := range info.ExtKeyUsage {
			fmt.Printf("  - %s\n", usage)
		}
	}

	fmt.Println("\nAlgorithms:")
	fmt.Printf("  Signature Algorithm: %s\n", info.SignatureAlgorithm)
	fmt.Printf("  Public Key Algorithm: %s\n", info.PublicKeyAlgorithm)

	fmt.Println("\nAdditional Information:")
	fmt.Printf("  Version: %d\n", info.Version)
	fmt.Printf("  Is CA: %v\n", info.IsCA)

	return nil
}
