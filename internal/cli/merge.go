package cli

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"github.com/voyagen/sectionvault/internal/merge"
	"github.com/voyagen/sectionvault/internal/models"
)

func newMergeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "merge",
		Short: "Merge tree files offline",
		Long: `Run the load or save merge on tree files without a database.

Tree files hold a JSON or YAML array of groups. The result is written to
stdout as JSON.`,
	}
	cmd.AddCommand(newMergeLoadCmd())
	cmd.AddCommand(newMergeSaveCmd())
	return cmd
}

type mergeOutput struct {
	Groups []models.Group `json:"groups"`
	Report merge.Report   `json:"report"`
}

func newMergeLoadCmd() *cobra.Command {
	var (
		defaultsPath string
		savedPath    string
		withReport   bool
	)
	cmd := &cobra.Command{
		Use:   "load",
		Short: "Overlay a saved tree on a default tree",
		Long: `Overlay a saved tree on a default tree, as done when an editor opens.

Examples:
  sectionvault merge load --defaults home.yaml --saved saved.json
  sectionvault merge load --defaults home.yaml --saved saved.json --report`,
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			base, err := readTreeFile(cmd.ErrOrStderr(), defaultsPath)
			if err != nil {
				return err
			}
			saved, err := readTreeFile(cmd.ErrOrStderr(), savedPath)
			if err != nil {
				return err
			}
			groups, rep := merge.MergeForLoad(base, saved)
			return writeMergeOutput(cmd.OutOrStdout(), groups, rep, withReport)
		},
	}
	cmd.Flags().StringVar(&defaultsPath, "defaults", "", "default tree file (required)")
	cmd.Flags().StringVar(&savedPath, "saved", "", "saved tree file; empty means nothing saved")
	cmd.Flags().BoolVar(&withReport, "report", false, "wrap the output with the merge report")
	_ = cmd.MarkFlagRequired("defaults")
	return cmd
}

func newMergeSaveCmd() *cobra.Command {
	var (
		workingPath string
		savedPath   string
		withReport  bool
	)
	cmd := &cobra.Command{
		Use:   "save",
		Short: "Merge a working tree into a saved tree",
		Long: `Merge a working tree into the currently saved tree, as done on save.
Tombstoned groups and sections are removed from the result.

Examples:
  sectionvault merge save --working edited.json --saved saved.json`,
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			working, err := readTreeFile(cmd.ErrOrStderr(), workingPath)
			if err != nil {
				return err
			}
			if cols := merge.FindCollisions(working); len(cols) > 0 {
				msgs := make([]string, len(cols))
				for i, c := range cols {
					msgs[i] = c.String()
				}
				return fmt.Errorf("working tree has ambiguous identities: %s", strings.Join(msgs, "; "))
			}
			saved, err := readTreeFile(cmd.ErrOrStderr(), savedPath)
			if err != nil {
				return err
			}
			groups, rep := merge.MergeForSave(working, saved)
			return writeMergeOutput(cmd.OutOrStdout(), groups, rep, withReport)
		},
	}
	cmd.Flags().StringVar(&workingPath, "working", "", "working tree file (required)")
	cmd.Flags().StringVar(&savedPath, "saved", "", "saved tree file; empty means nothing saved")
	cmd.Flags().BoolVar(&withReport, "report", false, "wrap the output with the merge report")
	_ = cmd.MarkFlagRequired("working")
	return cmd
}

// readTreeFile decodes a group array from a JSON or YAML file. An empty path
// is an empty tree. Shape issues are reported on warn and do not fail.
func readTreeFile(warn io.Writer, path string) ([]models.Group, error) {
	if path == "" {
		return []models.Group{}, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		data, err = models.YAMLToJSON(data)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
	}
	groups, issues := models.ParseTree(data)
	for _, is := range issues {
		fmt.Fprintf(warn, "%s: %s\n", path, is)
	}
	return groups, nil
}

func writeMergeOutput(w io.Writer, groups []models.Group, rep merge.Report, withReport bool) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if withReport {
		return enc.Encode(mergeOutput{Groups: groups, Report: rep})
	}
	return enc.Encode(groups)
}
