package main

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"github.com/tyemirov/projectactl/internal/projecta"
)

const inputDateLayout = "2006-01-02"

func parseInputDate(value string) (time.Time, error) {
	if value == "" {
		return time.Now().UTC(), nil
	}
	parsed, parseErr := time.Parse(inputDateLayout, value)
	if parseErr != nil {
		return time.Time{}, fmt.Errorf("invalid date %q, expected %s: %w", value, inputDateLayout, parseErr)
	}
	return parsed, nil
}

func newCategoryCommand() *cobra.Command {
	var projectID string

	categoryCmd := &cobra.Command{
		Use:   "category",
		Short: "Manage cost categories",
	}
	categoryCmd.PersistentFlags().StringVar(&projectID, "project", "", "Project identifier")
	_ = categoryCmd.MarkPersistentFlagRequired("project")

	var limit int
	var offset int
	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List categories",
		RunE: func(command *cobra.Command, arguments []string) error {
			app, appErr := newAppContext(command.Context())
			if appErr != nil {
				return appErr
			}
			defer app.close()

			repository := projecta.NewCategoryRepository(app.api)
			categories, total, listErr := repository.List(command.Context(), projectID, projecta.Page{Limit: limit, Offset: offset})
			if listErr != nil {
				return listErr
			}
			writer := tabwriter.NewWriter(command.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(writer, "ID\tNAME\tDESCRIPTION")
			for _, category := range categories {
				fmt.Fprintf(writer, "%s\t%s\t%s\n", category.ID, category.Name, category.Description)
			}
			if flushErr := writer.Flush(); flushErr != nil {
				return flushErr
			}
			fmt.Fprintf(command.OutOrStdout(), "total: %d\n", total)
			return nil
		},
	}
	pageFlags(listCmd, &limit, &offset)

	var name string
	var description string
	addCmd := &cobra.Command{
		Use:   "add",
		Short: "Add a category",
		RunE: func(command *cobra.Command, arguments []string) error {
			app, appErr := newAppContext(command.Context())
			if appErr != nil {
				return appErr
			}
			defer app.close()

			repository := projecta.NewCategoryRepository(app.api)
			category, addErr := repository.Add(command.Context(), projectID, name, description)
			if addErr != nil {
				return addErr
			}
			fmt.Fprintf(command.OutOrStdout(), "created category %s\n", category.ID)
			return nil
		},
	}
	addCmd.Flags().StringVar(&name, "name", "", "Category name")
	addCmd.Flags().StringVar(&description, "description", "", "Category description")
	_ = addCmd.MarkFlagRequired("name")

	removeCmd := &cobra.Command{
		Use:   "remove <category-id>",
		Short: "Remove a category",
		Args:  cobra.ExactArgs(1),
		RunE: func(command *cobra.Command, arguments []string) error {
			app, appErr := newAppContext(command.Context())
			if appErr != nil {
				return appErr
			}
			defer app.close()

			repository := projecta.NewCategoryRepository(app.api)
			return repository.Remove(command.Context(), projectID, arguments[0])
		},
	}

	categoryCmd.AddCommand(listCmd, addCmd, removeCmd)
	return categoryCmd
}

func newCostTypeCommand() *cobra.Command {
	var projectID string

	typeCmd := &cobra.Command{
		Use:   "type",
		Short: "Manage cost types",
	}
	typeCmd.PersistentFlags().StringVar(&projectID, "project", "", "Project identifier")
	_ = typeCmd.MarkPersistentFlagRequired("project")

	var limit int
	var offset int
	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List cost types",
		RunE: func(command *cobra.Command, arguments []string) error {
			app, appErr := newAppContext(command.Context())
			if appErr != nil {
				return appErr
			}
			defer app.close()

			repository := projecta.NewCostTypeRepository(app.api)
			costTypes, total, listErr := repository.List(command.Context(), projectID, projecta.Page{Limit: limit, Offset: offset})
			if listErr != nil {
				return listErr
			}
			writer := tabwriter.NewWriter(command.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(writer, "ID\tNAME\tCATEGORY\tDESCRIPTION")
			for _, costType := range costTypes {
				fmt.Fprintf(writer, "%s\t%s\t%s\t%s\n", costType.ID, costType.Name, costType.Category, costType.Description)
			}
			if flushErr := writer.Flush(); flushErr != nil {
				return flushErr
			}
			fmt.Fprintf(command.OutOrStdout(), "total: %d\n", total)
			return nil
		},
	}
	pageFlags(listCmd, &limit, &offset)

	var categoryID string
	var name string
	var description string
	addCmd := &cobra.Command{
		Use:   "add",
		Short: "Add a cost type",
		RunE: func(command *cobra.Command, arguments []string) error {
			app, appErr := newAppContext(command.Context())
			if appErr != nil {
				return appErr
			}
			defer app.close()

			repository := projecta.NewCostTypeRepository(app.api)
			costType, addErr := repository.Add(command.Context(), projectID, categoryID, name, description)
			if addErr != nil {
				return addErr
			}
			fmt.Fprintf(command.OutOrStdout(), "created type %s\n", costType.ID)
			return nil
		},
	}
	addCmd.Flags().StringVar(&categoryID, "category", "", "Category identifier")
	addCmd.Flags().StringVar(&name, "name", "", "Type name")
	addCmd.Flags().StringVar(&description, "description", "", "Type description")
	_ = addCmd.MarkFlagRequired("category")
	_ = addCmd.MarkFlagRequired("name")

	removeCmd := &cobra.Command{
		Use:   "remove <type-id>",
		Short: "Remove a cost type",
		Args:  cobra.ExactArgs(1),
		RunE: func(command *cobra.Command, arguments []string) error {
			app, appErr := newAppContext(command.Context())
			if appErr != nil {
				return appErr
			}
			defer app.close()

			repository := projecta.NewCostTypeRepository(app.api)
			return repository.Remove(command.Context(), projectID, arguments[0])
		},
	}

	typeCmd.AddCommand(listCmd, addCmd, removeCmd)
	return typeCmd
}

func newExpenseCommand() *cobra.Command {
	var projectID string

	expenseCmd := &cobra.Command{
		Use:   "expense",
		Short: "Manage expenses",
	}
	expenseCmd.PersistentFlags().StringVar(&projectID, "project", "", "Project identifier")
	_ = expenseCmd.MarkPersistentFlagRequired("project")

	var limit int
	var offset int
	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List expenses",
		RunE: func(command *cobra.Command, arguments []string) error {
			app, appErr := newAppContext(command.Context())
			if appErr != nil {
				return appErr
			}
			defer app.close()

			repository := projecta.NewExpenseRepository(app.api)
			expenses, total, listErr := repository.List(command.Context(), projectID, projecta.Page{Limit: limit, Offset: offset})
			if listErr != nil {
				return listErr
			}
			writer := tabwriter.NewWriter(command.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(writer, "ID\tDATE\tAMOUNT\tCURRENCY\tTYPE\tCATEGORY\tDESCRIPTION")
			for _, expense := range expenses {
				fmt.Fprintf(writer, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
					expense.ID, expense.ExpenseDate, expense.Amount, expense.Currency, expense.Type, expense.Category, expense.Description)
			}
			if flushErr := writer.Flush(); flushErr != nil {
				return flushErr
			}
			fmt.Fprintf(command.OutOrStdout(), "total: %d\n", total)
			return nil
		},
	}
	pageFlags(listCmd, &limit, &offset)

	var categoryID string
	var typeID string
	var amount float64
	var currency string
	var date string
	var description string
	addCmd := &cobra.Command{
		Use:   "add",
		Short: "Add an expense",
		RunE: func(command *cobra.Command, arguments []string) error {
			expenseDate, dateErr := parseInputDate(date)
			if dateErr != nil {
				return dateErr
			}
			app, appErr := newAppContext(command.Context())
			if appErr != nil {
				return appErr
			}
			defer app.close()

			repository := projecta.NewExpenseRepository(app.api)
			expense, addErr := repository.Add(command.Context(), projectID, projecta.AddExpense{
				CategoryID:  categoryID,
				TypeID:      typeID,
				Amount:      amount,
				Currency:    currency,
				ExpenseDate: expenseDate,
				Description: description,
			})
			if addErr != nil {
				return addErr
			}
			fmt.Fprintf(command.OutOrStdout(), "created expense %s\n", expense.ID)
			return nil
		},
	}
	addCmd.Flags().StringVar(&categoryID, "category", "", "Category identifier")
	addCmd.Flags().StringVar(&typeID, "type", "", "Type identifier")
	addCmd.Flags().Float64Var(&amount, "amount", 0, "Amount in major units")
	addCmd.Flags().StringVar(&currency, "currency", "UAH", "Currency code")
	addCmd.Flags().StringVar(&date, "date", "", "Expense date (YYYY-MM-DD, default today)")
	addCmd.Flags().StringVar(&description, "description", "", "Expense description")
	_ = addCmd.MarkFlagRequired("category")
	_ = addCmd.MarkFlagRequired("type")
	_ = addCmd.MarkFlagRequired("amount")

	removeCmd := &cobra.Command{
		Use:   "remove <expense-id>",
		Short: "Remove an expense",
		Args:  cobra.ExactArgs(1),
		RunE: func(command *cobra.Command, arguments []string) error {
			app, appErr := newAppContext(command.Context())
			if appErr != nil {
				return appErr
			}
			defer app.close()

			repository := projecta.NewExpenseRepository(app.api)
			return repository.Remove(command.Context(), projectID, arguments[0])
		},
	}

	expenseCmd.AddCommand(listCmd, addCmd, removeCmd)
	return expenseCmd
}

func newPaymentCommand() *cobra.Command {
	var projectID string

	paymentCmd := &cobra.Command{
		Use:   "payment",
		Short: "Manage payments",
	}
	paymentCmd.PersistentFlags().StringVar(&projectID, "project", "", "Project identifier")
	_ = paymentCmd.MarkPersistentFlagRequired("project")

	var limit int
	var offset int
	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List payments",
		RunE: func(command *cobra.Command, arguments []string) error {
			app, appErr := newAppContext(command.Context())
			if appErr != nil {
				return appErr
			}
			defer app.close()

			repository := projecta.NewPaymentRepository(app.api)
			payments, total, listErr := repository.List(command.Context(), projectID, projecta.Page{Limit: limit, Offset: offset})
			if listErr != nil {
				return listErr
			}
			writer := tabwriter.NewWriter(command.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(writer, "ID\tDATE\tAMOUNT\tCURRENCY\tTYPE\tCATEGORY\tDESCRIPTION")
			for _, payment := range payments {
				fmt.Fprintf(writer, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
					payment.ID, payment.PaymentDate, payment.Amount, payment.Currency, payment.Type, payment.Category, payment.Description)
			}
			if flushErr := writer.Flush(); flushErr != nil {
				return flushErr
			}
			fmt.Fprintf(command.OutOrStdout(), "total: %d\n", total)
			return nil
		},
	}
	pageFlags(listCmd, &limit, &offset)

	var typeID string
	var amount float64
	var currency string
	var date string
	var description string
	var kind string
	addCmd := &cobra.Command{
		Use:   "add",
		Short: "Add a payment",
		RunE: func(command *cobra.Command, arguments []string) error {
			paymentDate, dateErr := parseInputDate(date)
			if dateErr != nil {
				return dateErr
			}
			app, appErr := newAppContext(command.Context())
			if appErr != nil {
				return appErr
			}
			defer app.close()

			repository := projecta.NewPaymentRepository(app.api)
			payment, addErr := repository.Add(command.Context(), projectID, projecta.AddPayment{
				TypeID:      typeID,
				Amount:      amount,
				Currency:    currency,
				PaymentDate: paymentDate,
				Description: description,
				Kind:        kind,
			})
			if addErr != nil {
				return addErr
			}
			fmt.Fprintf(command.OutOrStdout(), "created payment %s\n", payment.ID)
			return nil
		},
	}
	addCmd.Flags().StringVar(&typeID, "type", "", "Type identifier")
	addCmd.Flags().Float64Var(&amount, "amount", 0, "Amount in major units")
	addCmd.Flags().StringVar(&currency, "currency", "UAH", "Currency code")
	addCmd.Flags().StringVar(&date, "date", "", "Payment date (YYYY-MM-DD, default today)")
	addCmd.Flags().StringVar(&description, "description", "", "Payment description")
	addCmd.Flags().StringVar(&kind, "kind", "", "Expense kind the payment covers")
	_ = addCmd.MarkFlagRequired("type")
	_ = addCmd.MarkFlagRequired("amount")

	removeCmd := &cobra.Command{
		Use:   "remove <payment-id>",
		Short: "Remove a payment",
		Args:  cobra.ExactArgs(1),
		RunE: func(command *cobra.Command, arguments []string) error {
			app, appErr := newAppContext(command.Context())
			if appErr != nil {
				return appErr
			}
			defer app.close()

			repository := projecta.NewPaymentRepository(app.api)
			return repository.Remove(command.Context(), projectID, arguments[0])
		},
	}

	paymentCmd.AddCommand(listCmd, addCmd, removeCmd)
	return paymentCmd
}

func newAssetCommand() *cobra.Command {
	var projectID string

	assetCmd := &cobra.Command{
		Use:   "asset",
		Short: "Manage assets",
	}
	assetCmd.PersistentFlags().StringVar(&projectID, "project", "", "Project identifier")
	_ = assetCmd.MarkPersistentFlagRequired("project")

	var limit int
	var offset int
	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List assets",
		RunE: func(command *cobra.Command, arguments []string) error {
			app, appErr := newAppContext(command.Context())
			if appErr != nil {
				return appErr
			}
			defer app.close()

			repository := projecta.NewAssetRepository(app.api)
			assets, total, listErr := repository.List(command.Context(), projectID, projecta.Page{Limit: limit, Offset: offset})
			if listErr != nil {
				return listErr
			}
			writer := tabwriter.NewWriter(command.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(writer, "ID\tNAME\tACQUIRED\tPRICE\tCURRENCY\tTYPE\tCATEGORY")
			for _, asset := range assets {
				fmt.Fprintf(writer, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
					asset.ID, asset.Name, asset.AcquiredAt, asset.Price, asset.Currency, asset.Type, asset.Category)
			}
			if flushErr := writer.Flush(); flushErr != nil {
				return flushErr
			}
			fmt.Fprintf(command.OutOrStdout(), "total: %d\n", total)
			return nil
		},
	}
	pageFlags(listCmd, &limit, &offset)

	var typeID string
	var price float64
	var currency string
	var date string
	var name string
	var description string
	var withPayment bool

	buildInput := func() (projecta.AssetInput, error) {
		acquiredAt, dateErr := parseInputDate(date)
		if dateErr != nil {
			return projecta.AssetInput{}, dateErr
		}
		return projecta.AssetInput{
			TypeID:      typeID,
			Price:       price,
			Currency:    currency,
			AcquiredAt:  acquiredAt,
			Name:        name,
			Description: description,
			WithPayment: withPayment,
		}, nil
	}

	assetInputFlags := func(command *cobra.Command) {
		command.Flags().StringVar(&typeID, "type", "", "Type identifier")
		command.Flags().Float64Var(&price, "price", 0, "Price in major units")
		command.Flags().StringVar(&currency, "currency", "UAH", "Currency code")
		command.Flags().StringVar(&date, "date", "", "Acquisition date (YYYY-MM-DD, default today)")
		command.Flags().StringVar(&name, "name", "", "Asset name")
		command.Flags().StringVar(&description, "description", "", "Asset description")
		command.Flags().BoolVar(&withPayment, "with-payment", false, "Also record a matching payment")
	}

	addCmd := &cobra.Command{
		Use:   "add",
		Short: "Add an asset",
		RunE: func(command *cobra.Command, arguments []string) error {
			input, inputErr := buildInput()
			if inputErr != nil {
				return inputErr
			}
			app, appErr := newAppContext(command.Context())
			if appErr != nil {
				return appErr
			}
			defer app.close()

			repository := projecta.NewAssetRepository(app.api)
			asset, addErr := repository.Add(command.Context(), projectID, input)
			if addErr != nil {
				return addErr
			}
			fmt.Fprintf(command.OutOrStdout(), "created asset %s\n", asset.ID)
			return nil
		},
	}
	assetInputFlags(addCmd)
	_ = addCmd.MarkFlagRequired("type")
	_ = addCmd.MarkFlagRequired("price")
	_ = addCmd.MarkFlagRequired("name")

	updateCmd := &cobra.Command{
		Use:   "update <asset-id>",
		Short: "Update an asset",
		Args:  cobra.ExactArgs(1),
		RunE: func(command *cobra.Command, arguments []string) error {
			input, inputErr := buildInput()
			if inputErr != nil {
				return inputErr
			}
			app, appErr := newAppContext(command.Context())
			if appErr != nil {
				return appErr
			}
			defer app.close()

			repository := projecta.NewAssetRepository(app.api)
			asset, updateErr := repository.Update(command.Context(), projectID, arguments[0], input)
			if updateErr != nil {
				return updateErr
			}
			fmt.Fprintf(command.OutOrStdout(), "updated asset %s\n", asset.ID)
			return nil
		},
	}
	assetInputFlags(updateCmd)

	removeCmd := &cobra.Command{
		Use:   "remove <asset-id>",
		Short: "Remove an asset",
		Args:  cobra.ExactArgs(1),
		RunE: func(command *cobra.Command, arguments []string) error {
			app, appErr := newAppContext(command.Context())
			if appErr != nil {
				return appErr
			}
			defer app.close()

			repository := projecta.NewAssetRepository(app.api)
			return repository.Remove(command.Context(), projectID, arguments[0])
		},
	}

	assetCmd.AddCommand(listCmd, addCmd, updateCmd, removeCmd)
	return assetCmd
}
