package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/tyemirov/projectactl/internal/projecta"
)

func pageFlags(command *cobra.Command, limit *int, offset *int) {
	command.Flags().IntVar(limit, "limit", projecta.DefaultPageLimit, "Page size")
	command.Flags().IntVar(offset, "offset", 0, "Page offset")
}

func newProjectCommand() *cobra.Command {
	projectCmd := &cobra.Command{
		Use:   "project",
		Short: "Manage projects",
	}
	projectCmd.AddCommand(newProjectListCommand(), newProjectCreateCommand(), newProjectTotalsCommand())
	return projectCmd
}

func newProjectListCommand() *cobra.Command {
	var limit int
	var offset int

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List projects",
		RunE: func(command *cobra.Command, arguments []string) error {
			app, appErr := newAppContext(command.Context())
			if appErr != nil {
				return appErr
			}
			defer app.close()

			repository := projecta.NewProjectRepository(app.api)
			projects, total, listErr := repository.List(command.Context(), projecta.Page{Limit: limit, Offset: offset})
			if listErr != nil {
				return listErr
			}
			writer := tabwriter.NewWriter(command.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(writer, "ID\tNAME\tDESCRIPTION")
			for _, project := range projects {
				fmt.Fprintf(writer, "%s\t%s\t%s\n", project.ID, project.Name, project.Description)
			}
			if flushErr := writer.Flush(); flushErr != nil {
				return flushErr
			}
			fmt.Fprintf(command.OutOrStdout(), "total: %d\n", total)
			return nil
		},
	}

	pageFlags(listCmd, &limit, &offset)
	return listCmd
}

func newProjectCreateCommand() *cobra.Command {
	var name string
	var description string

	createCmd := &cobra.Command{
		Use:   "create",
		Short: "Create a project",
		RunE: func(command *cobra.Command, arguments []string) error {
			app, appErr := newAppContext(command.Context())
			if appErr != nil {
				return appErr
			}
			defer app.close()

			repository := projecta.NewProjectRepository(app.api)
			project, createErr := repository.Create(command.Context(), name, description)
			if createErr != nil {
				return createErr
			}
			fmt.Fprintf(command.OutOrStdout(), "created project %s\n", project.ID)
			return nil
		},
	}

	createCmd.Flags().StringVar(&name, "name", "", "Project name")
	createCmd.Flags().StringVar(&description, "description", "", "Project description")
	_ = createCmd.MarkFlagRequired("name")
	return createCmd
}

func newProjectTotalsCommand() *cobra.Command {
	var projectID string

	totalsCmd := &cobra.Command{
		Use:   "totals",
		Short: "Show project aggregate totals",
		RunE: func(command *cobra.Command, arguments []string) error {
			app, appErr := newAppContext(command.Context())
			if appErr != nil {
				return appErr
			}
			defer app.close()

			repository := projecta.NewProjectRepository(app.api)
			totals, totalsErr := repository.Totals(command.Context(), projectID)
			if totalsErr != nil {
				return totalsErr
			}
			for _, total := range totals {
				fmt.Fprintf(command.OutOrStdout(), "%s: %s %s\n", total.Title, projecta.FormatMinorUnits(total.Amount), total.Currency)
			}
			return nil
		},
	}

	totalsCmd.Flags().StringVar(&projectID, "project", "", "Project identifier")
	_ = totalsCmd.MarkFlagRequired("project")
	return totalsCmd
}
