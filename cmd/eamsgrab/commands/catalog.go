package commands

import (
	"fmt"
	"os"

	"eamsgrab/internal/components/osutil"
	"eamsgrab/internal/eams"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(catalogCmd)
}

func renderCatalog(catalog eams.Catalog) string {
	t := table.NewWriter()
	t.SetTitle(fmt.Sprintf("profile %s (%s)", catalog.ProfileId, catalog.Param))
	t.AppendHeader(table.Row{"#", "Course ID", "Name"})
	for _, entry := range catalog.Entries {
		t.AppendRow(table.Row{entry.Index, entry.CourseId, entry.Name})
	}
	if extra := len(catalog.Ids) - len(catalog.Entries); extra > 0 {
		t.AppendFooter(table.Row{"", fmt.Sprintf("+%d ids without a name", extra), ""})
	}
	t.SetStyle(table.StyleLight)
	return t.Render()
}

var catalogCmd = &cobra.Command{
	Use:   "catalog [--profile <id>] [--cookie <cookie>]",
	Short: "Prints the courses of an election profile.",
	Run: func(cmd *cobra.Command, args []string) {
		ctx := cmd.Context()
		cfg := loadConfig()
		tel := newTelemetry()

		client := connect(ctx, cfg, tel)
		catalog, err := client.Resolve(ctx, cfg.ProfileId)
		if err != nil {
			osutil.Fatal("failed to resolve catalog", err)
		}
		fmt.Fprintln(os.Stdout, renderCatalog(catalog))
	},
}
