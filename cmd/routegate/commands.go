package main

import (
	"fmt"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

func newRouteCmd(opts *rootOptions) *cobra.Command {
	var values map[string]string
	cmd := &cobra.Command{
		Use:   "route <text>",
		Short: "Route one request",
		Example: `  routegate route "what is the price?"
  routegate route "book a site visit" --context action=sales`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			srv, err := newService(opts)
			if err != nil {
				return err
			}
			defer srv.Close()
			ctx := make(map[string]interface{}, len(values))
			for k, v := range values {
				ctx[k] = v
			}
			resp, err := srv.Route(cmd.Context(), strings.Join(args, " "), ctx)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), resp.AsMap())
		},
	}
	cmd.Flags().StringToStringVar(&values, "context", nil, "request context entries (key=value)")
	return cmd
}

func newApprovalsCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "approvals",
		Short: "Manage requests awaiting founder approval",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List pending requests",
		RunE: func(cmd *cobra.Command, args []string) error {
			srv, err := newService(opts)
			if err != nil {
				return err
			}
			defer srv.Close()
			pending, err := srv.Pending(cmd.Context())
			if err != nil {
				return err
			}
			sort.Slice(pending, func(i, j int) bool { return pending[i].CreatedAt.Before(pending[j].CreatedAt) })
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "TRACE ID\tINTENT\tPRIORITY\tCREATED\tTEXT")
			for _, p := range pending {
				fmt.Fprintf(w, "%s\t%s\t%d\t%s\t%s\n", p.TraceID, p.Intent, p.Priority, p.CreatedAt.Format("2006-01-02 15:04"), p.Text)
			}
			return w.Flush()
		},
	})

	var reason string
	approve := &cobra.Command{
		Use:   "approve <trace-id>",
		Short: "Approve and run a pending request",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			srv, err := newService(opts)
			if err != nil {
				return err
			}
			defer srv.Close()
			resp, err := srv.Approve(cmd.Context(), args[0], reason)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), resp.AsMap())
		},
	}
	reject := &cobra.Command{
		Use:   "reject <trace-id>",
		Short: "Reject a pending request",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			srv, err := newService(opts)
			if err != nil {
				return err
			}
			defer srv.Close()
			resp, err := srv.Reject(cmd.Context(), args[0], reason)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), resp.AsMap())
		},
	}
	for _, c := range []*cobra.Command{approve, reject} {
		c.Flags().StringVar(&reason, "reason", "", "decision reason")
		cmd.AddCommand(c)
	}
	return cmd
}

func newBudgetCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "budget",
		Short: "Show today's token and cost usage per provider",
		RunE: func(cmd *cobra.Command, args []string) error {
			srv, err := newService(opts)
			if err != nil {
				return err
			}
			defer srv.Close()
			return printJSON(cmd.OutOrStdout(), srv.Budget(cmd.Context()))
		},
	}
}

func newHealthCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Check every configured provider",
		RunE: func(cmd *cobra.Command, args []string) error {
			srv, err := newService(opts)
			if err != nil {
				return err
			}
			defer srv.Close()
			health := srv.Health(cmd.Context())
			names := make([]string, 0, len(health))
			for name := range health {
				names = append(names, name)
			}
			sort.Strings(names)
			var failed int
			for _, name := range names {
				status := "ok"
				if err := health[name]; err != nil {
					status = err.Error()
					failed++
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", name, status)
			}
			if failed > 0 {
				return fmt.Errorf("%d of %d providers unhealthy", failed, len(names))
			}
			return nil
		},
	}
}
