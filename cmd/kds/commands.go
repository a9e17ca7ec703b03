package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sort"
	"strings"
	"syscall"
	"text/tabwriter"
	"time"

	"qr-kitchen/internal/config"
	"qr-kitchen/internal/kdsclient"
	"qr-kitchen/internal/model"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

func newClient(cmd *cobra.Command, cfg kdsclient.Config) (*kdsclient.Client, zerolog.Logger) {
	server, _ := cmd.Flags().GetString("server")
	token, _ := cmd.Flags().GetString("token")
	level, _ := cmd.Flags().GetString("log-level")

	logger := config.NewLogger(config.LoggerConfig{Level: level, Format: "console"}, "kds")

	cfg.BaseURL = server
	cfg.Token = token
	return kdsclient.New(cfg, logger), logger
}

func loginCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in and print a bearer token",
		RunE: func(cmd *cobra.Command, args []string) error {
			email, _ := cmd.Flags().GetString("email")
			password, _ := cmd.Flags().GetString("password")
			if password == "" {
				password = os.Getenv("KDS_PASSWORD")
			}

			client, _ := newClient(cmd, kdsclient.Config{})
			resp, err := client.Login(cmd.Context(), email, password)
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.ErrOrStderr(), "logged in as %s (restaurant %d)\n", resp.Email, resp.RestaurantID)
			fmt.Fprintln(cmd.OutOrStdout(), resp.Token)
			return nil
		},
	}

	cmd.Flags().StringP("email", "e", "", "Restaurant email")
	cmd.Flags().StringP("password", "p", "", "Password (or KDS_PASSWORD)")
	_ = cmd.MarkFlagRequired("email")

	return cmd
}

func watchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Follow active orders, falling back to polling if the stream drops",
		RunE: func(cmd *cobra.Command, args []string) error {
			pollInterval, _ := cmd.Flags().GetDuration("poll-interval")
			retryAfter, _ := cmd.Flags().GetDuration("retry-stream-after")
			station, _ := cmd.Flags().GetString("station")

			client, logger := newClient(cmd, kdsclient.Config{
				PollInterval:     pollInterval,
				RetryStreamAfter: retryAfter,
			})

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			out := cmd.OutOrStdout()
			err := client.Run(ctx, func(u kdsclient.Update) {
				printBoard(out, u, station)
			})
			if err != nil {
				return err
			}
			logger.Info().Msg("watch stopped")
			return nil
		},
	}

	cmd.Flags().Duration("poll-interval", 5*time.Second, "Polling cadence when the stream is unavailable")
	cmd.Flags().Duration("retry-stream-after", 30*time.Second, "Retry the stream after polling this long (0 to never retry)")
	cmd.Flags().StringP("station", "s", "", "Only show items for this station")

	return cmd
}

func advanceCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "advance [order-id] [status]",
		Short: "Move an order to a new status",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			status, err := model.ParseOrderStatus(args[1])
			if err != nil {
				return fmt.Errorf("unknown status %q", args[1])
			}

			client, _ := newClient(cmd, kdsclient.Config{})
			ctx, cancel := context.WithTimeout(cmd.Context(), 10*time.Second)
			defer cancel()

			msg, err := client.UpdateStatus(ctx, args[0], status)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), msg)
			return nil
		},
	}
}

// printBoard renders one snapshot, oldest order first.
func printBoard(out io.Writer, u kdsclient.Update, station string) {
	orders := append([]model.Order(nil), u.Orders...)
	sort.SliceStable(orders, func(i, j int) bool {
		return orders[i].CreatedAt.Before(orders[j].CreatedAt)
	})

	fmt.Fprintf(out, "\n== %s via %s: %d active ==\n", u.At.Format(time.TimeOnly), u.Source, len(orders))

	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ORDER\tTABLE\tSTATUS\tAGE\tITEMS")
	for _, o := range orders {
		items := describeItems(o.Items, station)
		if station != "" && items == "" {
			continue
		}
		table := "-"
		if o.TableNumber != nil {
			table = *o.TableNumber
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n",
			shortID(o.ID), table, o.Status, time.Since(o.CreatedAt).Round(time.Second), items)
	}
	tw.Flush()
}

func describeItems(items []model.OrderItem, station string) string {
	var parts []string
	for _, it := range items {
		if station != "" && it.Station != station {
			continue
		}
		name := fmt.Sprintf("#%d", it.ProductID)
		if it.Name != nil {
			name = *it.Name
		}
		parts = append(parts, fmt.Sprintf("%dx %s", it.Quantity, name))
	}
	return strings.Join(parts, ", ")
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
