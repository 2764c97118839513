package commands

import (
	"fmt"
	"gradewatch/lib/serviceutil"
	"gradewatch/lib/snapshotstore"
	"gradewatch/lib/transcript"
	"io"
	"os"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(showCmd)
}

var showCmd = &cobra.Command{
	Use:   "show",
	Short: "Prints the stored transcript snapshot.",
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := LoadConfig(configPath, dotenvPath)
		if err != nil {
			serviceutil.Fatal("failed to load config", err)
		}
		snap, err := snapshotstore.New(cfg.SnapshotPath).Load(cmd.Context())
		if err != nil {
			serviceutil.Fatal("failed to load snapshot", err)
		}
		renderSnapshot(os.Stdout, snap)
	},
}

func renderSnapshot(out io.Writer, snap transcript.Snapshot) {
	t := table.NewWriter()
	t.SetOutputMirror(out)

	header := table.Row{}
	for _, f := range transcript.Fields() {
		header = append(header, f.Label())
	}
	t.AppendHeader(header)

	for _, r := range snap.Records {
		row := make(table.Row, 0, transcript.FieldCount)
		for _, f := range transcript.Fields() {
			row = append(row, r.Get(f))
		}
		t.AppendRow(row)
	}

	t.SetCaption(fmt.Sprintf("%d of %d records", len(snap.Records), snap.RecordsTotal))
	t.SetStyle(table.StyleRounded)
	t.Render()
}
