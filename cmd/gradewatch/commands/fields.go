package commands

import (
	"gradewatch/lib/transcript"
	"io"
	"os"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(fieldsCmd)
}

var fieldsCmd = &cobra.Command{
	Use:   "fields",
	Short: "Lists the transcript fields usable in title_fields.",
	Run: func(cmd *cobra.Command, args []string) {
		renderFields(os.Stdout)
	},
}

func renderFields(out io.Writer) {
	t := table.NewWriter()
	t.SetOutputMirror(out)
	t.AppendHeader(table.Row{"Name", "Label", "Column"})
	for _, f := range transcript.Fields() {
		t.AppendRow(table.Row{f.Name(), f.Label(), f.Column()})
	}
	t.SetStyle(table.StyleRounded)
	t.Render()
}
