package main

import (
	"fmt"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/sujalbistaa/yatube/internal/forms"
	"github.com/sujalbistaa/yatube/internal/models"
)

var groupForm forms.GroupForm

var groupCmd = &cobra.Command{
	Use:   "group",
	Short: "Manage groups",
	Long: `Groups can only be created by administrators.

Subcommands:
  create  - Add a group
  list    - List all groups`,
}

var groupCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Add a group",
	Long: `Add a group that posts can be filed under.

Examples:
  yatubectl group create --title "Cats" --slug cats
  yatubectl group create --title "Dogs" --slug dogs --description "Good boys"`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if errs := groupForm.Validate(); errs.Any() {
			return formError(errs)
		}
		repo, _, err := openRepo()
		if err != nil {
			return err
		}
		g := &models.Group{Title: groupForm.Title, Slug: groupForm.Slug, Description: groupForm.Description}
		if err := repo.CreateGroup(cmd.Context(), g); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Created group %q (id %d)\n", g.Slug, g.ID)
		return nil
	},
}

var groupListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all groups",
	RunE: func(cmd *cobra.Command, args []string) error {
		repo, _, err := openRepo()
		if err != nil {
			return err
		}
		groups, err := repo.ListGroups(cmd.Context())
		if err != nil {
			return err
		}

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tSLUG\tTITLE")
		for _, g := range groups {
			fmt.Fprintf(w, "%d\t%s\t%s\n", g.ID, g.Slug, g.Title)
		}
		return w.Flush()
	},
}

func init() {
	rootCmd.AddCommand(groupCmd)
	groupCmd.AddCommand(groupCreateCmd, groupListCmd)

	groupCreateCmd.Flags().StringVar(&groupForm.Title, "title", "", "Group title")
	groupCreateCmd.Flags().StringVar(&groupForm.Slug, "slug", "", "URL slug (letters, digits, - and _)")
	groupCreateCmd.Flags().StringVar(&groupForm.Description, "description", "", "Group description")
	groupCreateCmd.MarkFlagRequired("title")
	groupCreateCmd.MarkFlagRequired("slug")
}

// formError flattens validation errors into a single error, fields sorted.
func formError(errs forms.Errors) error {
	fields := make([]string, 0, len(errs))
	for f := range errs {
		fields = append(fields, f)
	}
	sort.Strings(fields)

	parts := make([]string, 0, len(fields))
	for _, f := range fields {
		parts = append(parts, f+": "+strings.Join(errs[f], " "))
	}
	return fmt.Errorf("invalid input: %s", strings.Join(parts, "; "))
}
