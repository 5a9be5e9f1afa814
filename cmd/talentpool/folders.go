package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/jonathan/talent-pool/internal/ingestion"
	"github.com/jonathan/talent-pool/internal/talentpool"
)

var foldersFeed string

var foldersCmd = &cobra.Command{
	Use:   "folders",
	Short: "Print the folders of a candidate feed with their member counts",
	RunE:  runFolders,
}

func init() {
	foldersCmd.Flags().StringVarP(&foldersFeed, "feed", "f", "", "Path to the candidate feed JSON (required)")
	if err := foldersCmd.MarkFlagRequired("feed"); err != nil {
		panic(fmt.Sprintf("failed to mark feed flag as required: %v", err))
	}
	rootCmd.AddCommand(foldersCmd)
}

func runFolders(cmd *cobra.Command, _ []string) error {
	feed, err := ingestion.LoadFeed(foldersFeed)
	if err != nil {
		return err
	}

	engine := talentpool.New(nil, talentpool.Options{})
	if _, err := engine.LoadFeed(feed); err != nil {
		return err
	}

	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "FOLDER\tCANDIDATES\tDEFAULT")
	for _, f := range engine.Folders.List() {
		def := ""
		if f.IsDefault {
			def = "yes"
		}
		fmt.Fprintf(tw, "%s\t%d\t%s\n", f.Name, f.Count, def)
	}
	return tw.Flush()
}
