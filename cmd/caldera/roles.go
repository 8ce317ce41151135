package main

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"

	"github.com/spf13/cobra"

	"caldera-hq/basalt/pkg/catalog"
	"caldera-hq/basalt/pkg/cli"
)

var rolesFlags struct {
	format string
}

var rolesCmd = &cobra.Command{
	Use:   "roles",
	Short: "Inspect the role catalog",
	Long: `Inspect the role catalog.

The roles command shows which roles the platform knows, which modules
each role imports, and which roles the local configuration activates.

Subcommands:
  list - List all catalog roles with active markers
  show - Display one role in detail

Examples:
  # List the catalog
  caldera roles list

  # Show a single role
  caldera roles show webgateway`,
}

var rolesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List catalog roles",
	Long: `List all roles in the catalog.

Roles activated by the local configuration are marked with an
asterisk. Unknown names in the active-role list are shown separately;
they fail the next configuration build.`,
	RunE: listRoles,
}

var rolesShowCmd = &cobra.Command{
	Use:   "show [role]",
	Short: "Display one role in detail",
	Long: `Display a single catalog role: its description, the module paths it
imports, the snapshot it pins (if any), and its own option
definitions.`,
	Args: cobra.ExactArgs(1),
	RunE: showRole,
}

func init() {
	rootCmd.AddCommand(rolesCmd)
	rolesCmd.AddCommand(rolesListCmd, rolesShowCmd)

	rolesListCmd.Flags().StringVar(&rolesFlags.format, "format", "text", "output format: text, json")
	rolesShowCmd.Flags().StringVar(&rolesFlags.format, "format", "text", "output format: text, json")
}

func loadCatalogWithConfig() (*catalog.Catalog, catalog.EnableSet, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, catalog.EnableSet{}, cli.NewConfigError("", fmt.Sprintf("failed to load config: %v", err))
	}

	cat, err := catalog.Load(cfg.Build.CatalogPath)
	if err != nil {
		return nil, catalog.EnableSet{}, cli.NewCommandError("roles", fmt.Errorf("failed to load role catalog: %w", err))
	}

	set := catalog.NewRegistry(cat).Resolve(cfg.Build.Roles)
	return cat, set, nil
}

func listRoles(cmd *cobra.Command, args []string) error {
	cat, set, err := loadCatalogWithConfig()
	if err != nil {
		return err
	}

	if rolesFlags.format == "json" {
		type roleEntry struct {
			Name        string `json:"name"`
			Description string `json:"description,omitempty"`
			Modules     int    `json:"modules"`
			Snapshot    string `json:"snapshot,omitempty"`
			Active      bool   `json:"active"`
		}

		entries := make([]roleEntry, 0, cat.Len())
		for _, name := range cat.Names() {
			role, _ := cat.Role(name)
			entries = append(entries, roleEntry{
				Name:        role.Name,
				Description: role.Description,
				Modules:     len(role.Modules),
				Snapshot:    role.Snapshot,
				Active:      set.Enabled(role.Name),
			})
		}

		encoder := json.NewEncoder(os.Stdout)
		encoder.SetIndent("", "  ")
		return encoder.Encode(map[string]any{
			"catalog_version": cat.Version(),
			"roles":           entries,
		})
	}

	active := 0
	for _, name := range cat.Names() {
		if set.Enabled(name) {
			active++
		}
	}

	fmt.Printf("Role catalog %s (%d roles, %d active)\n\n", cat.Version(), cat.Len(), active)

	width := 0
	for _, name := range cat.Names() {
		if len(name) > width {
			width = len(name)
		}
	}

	for _, name := range cat.Names() {
		role, _ := cat.Role(name)
		marker := " "
		if set.Enabled(name) {
			marker = "*"
		}
		fmt.Printf("  %s %-*s  %s\n", marker, width, role.Name, role.Description)
	}

	// Active names the catalog does not know. These fail the next
	// build with an unknown-role error.
	var unknown []string
	for _, name := range set.Active() {
		if !cat.Has(name) {
			unknown = append(unknown, name)
		}
	}
	if len(unknown) > 0 {
		sort.Strings(unknown)
		fmt.Println()
		for _, name := range unknown {
			fmt.Printf("  ✗ %s is active but not in the catalog\n", name)
		}
	}

	return nil
}

func showRole(cmd *cobra.Command, args []string) error {
	cat, set, err := loadCatalogWithConfig()
	if err != nil {
		return err
	}

	role, ok := cat.Role(args[0])
	if !ok {
		return cli.NewCommandError("roles", fmt.Errorf("role %q is not in the catalog", args[0]))
	}

	if rolesFlags.format == "json" {
		encoder := json.NewEncoder(os.Stdout)
		encoder.SetIndent("", "  ")
		return encoder.Encode(map[string]any{
			"name":        role.Name,
			"description": role.Description,
			"modules":     role.Modules,
			"snapshot":    role.Snapshot,
			"options":     role.Options,
			"active":      set.Enabled(role.Name),
		})
	}

	fmt.Printf("Role: %s\n", role.Name)
	if role.Description != "" {
		fmt.Printf("Description: %s\n", role.Description)
	}
	if set.Enabled(role.Name) {
		fmt.Println("Active: yes")
	} else {
		fmt.Println("Active: no")
	}

	if role.Snapshot != "" {
		fmt.Printf("Snapshot: %s\n", role.Snapshot)
	}

	if len(role.Modules) > 0 {
		fmt.Println("\nModule imports:")
		for _, path := range role.Modules {
			fmt.Printf("  - %s\n", path)
		}
	}

	if len(role.Options) > 0 {
		paths := make([]string, 0, len(role.Options))
		for path := range role.Options {
			paths = append(paths, path)
		}
		sort.Strings(paths)

		fmt.Println("\nRole options:")
		for _, path := range paths {
			fmt.Printf("  %s: %v\n", path, role.Options[path])
		}
	}

	return nil
}
