package commands

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/patric-chuzhbe/userfront/internal/user"
)

func newListCommand(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List the users known to the remote API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := opts.newApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			users, err := a.Store().FetchUsers(cmd.Context())
			if err != nil {
				return err
			}

			return printJSON(cmd, users)
		},
	}
}

func newCreateCommand(opts *globalOptions) *cobra.Command {
	var payload user.Payload

	cmd := &cobra.Command{
		Use:   "create --name NAME --age AGE",
		Short: "Create a user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := opts.newApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			created, err := a.Store().CreateUser(cmd.Context(), payload)
			if err != nil {
				return err
			}

			return printJSON(cmd, created)
		},
	}

	cmd.Flags().StringVar(&payload.Name, "name", "", "User name")
	cmd.Flags().IntVar(&payload.Age, "age", 0, "User age")
	_ = cmd.MarkFlagRequired("name")
	_ = cmd.MarkFlagRequired("age")

	return cmd
}

func newUpdateCommand(opts *globalOptions) *cobra.Command {
	var (
		name string
		age  int
	)

	cmd := &cobra.Command{
		Use:   "update ID [--name NAME] [--age AGE]",
		Short: "Update the given fields of a user",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}

			var patch user.Patch
			if cmd.Flags().Changed("name") {
				patch.Name = user.StringPtr(name)
			}
			if cmd.Flags().Changed("age") {
				patch.Age = user.IntPtr(age)
			}
			if patch.IsEmpty() {
				return fmt.Errorf("nothing to update: pass --name and/or --age")
			}

			a, err := opts.newApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			updated, err := a.Store().UpdateUser(cmd.Context(), id, patch)
			if err != nil {
				return err
			}

			return printJSON(cmd, updated)
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "New user name")
	cmd.Flags().IntVar(&age, "age", 0, "New user age")

	return cmd
}

func newDeleteCommand(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "delete ID",
		Short: "Delete a user",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}

			a, err := opts.newApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			if err := a.Store().DeleteUser(cmd.Context(), id); err != nil {
				return err
			}

			_, err = fmt.Fprintf(cmd.OutOrStdout(), "deleted user %d\n", id)
			return err
		},
	}
}

func parseID(raw string) (int, error) {
	id, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid user id %q: %w", raw, err)
	}
	return id, nil
}
