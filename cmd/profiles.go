package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/sells-group/buyergroup-cli/internal/registry"
)

var profilesValidate string

var profilesCmd = &cobra.Command{
	Use:   "profiles",
	Short: "List or validate seller profiles",
	Long:  "Lists the available seller profiles (built-ins plus YAML files in the profiles directory). With --validate, checks one profile and reports every problem.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		reg := registry.New(cfg.Profiles.Dir)

		if profilesValidate != "" {
			if _, err := reg.Load(profilesValidate); err != nil {
				return err
			}
			fmt.Printf("profile %q is valid\n", profilesValidate)
			return nil
		}

		names, err := reg.List()
		if err != nil {
			return err
		}
		formatProfiles(os.Stdout, reg, names)
		return nil
	},
}

// -- profiles show --

var profilesShowCmd = &cobra.Command{
	Use:   "show <name>",
	Short: "Print one seller profile as JSON",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		reg := registry.New(cfg.Profiles.Dir)

		prof, err := reg.Load(args[0])
		if err != nil {
			return err
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(prof)
	},
}

// formatProfiles writes a tabular profile list to w. Profiles that fail to
// load still appear, marked invalid, so a broken YAML file is visible.
func formatProfiles(out io.Writer, reg *registry.Registry, names []string) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "NAME\tDEAL SIZE\tMAX GROUP\tDEPARTMENTS")

	for _, name := range names {
		prof, err := reg.Load(name)
		if err != nil {
			_, _ = fmt.Fprintf(w, "%s\t(invalid)\t\t\n", name)
			continue
		}
		_, _ = fmt.Fprintf(w, "%s\t%s\t%d\t%s\n",
			prof.Name,
			prof.DealSizeClass,
			prof.MaxBuyerGroupSize,
			strings.Join(prof.TargetDepartments, ", "),
		)
	}
	_ = w.Flush()
}

func init() {
	profilesCmd.Flags().StringVar(&profilesValidate, "validate", "", "validate the named profile instead of listing")
	profilesCmd.AddCommand(profilesShowCmd)
	rootCmd.AddCommand(profilesCmd)
}
