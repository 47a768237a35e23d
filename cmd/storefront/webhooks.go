package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/bakery/storefront/internal/platform/apiclient"
	"github.com/bakery/storefront/internal/platform/resource"
	"github.com/bakery/storefront/internal/platform/webhook"
)

const webhooksPath = "/api/webhooks"

func (a *app) webhooks() (*apiclient.Client, *resource.Controller[webhook.Endpoint], error) {
	client, err := a.api()
	if err != nil {
		return nil, nil, err
	}
	ctl := resource.New[webhook.Endpoint]("webhook", &resource.REST[webhook.Endpoint]{Client: client, Path: webhooksPath}, a.controllerOpts()...)
	return client, ctl, nil
}

func webhooksCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "webhooks",
		Short: "URLs notified about orders, products and stock",
	}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List the tenant's webhooks",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, ctl, err := a.webhooks()
			if err != nil {
				return err
			}
			snap, err := ctl.List(cmd.Context(), resource.Query{})
			if err != nil {
				return err
			}
			if len(snap.Items) == 0 {
				fmt.Fprintln(a.out, "no webhooks")
				return nil
			}
			tw := newTable(a.out, "ID", "URL", "EVENTS", "STATUS")
			for _, ep := range snap.Items {
				row(tw, ep.ID, ep.URL, strings.Join(ep.Events, ","), ep.Status)
			}
			return tw.Flush()
		},
	}

	var (
		events []string
		secret string
	)
	addCmd := &cobra.Command{
		Use:   "add <url>",
		Short: "Register a webhook and print its signing secret",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, _, err := a.webhooks()
			if err != nil {
				return err
			}
			body := map[string]interface{}{"url": args[0], "events": events, "secret": secret}
			var ep webhook.Endpoint
			if err := client.Post(cmd.Context(), webhooksPath, body, &ep); err != nil {
				a.fb.Failure(apiclient.Message(err, "could not register webhook"))
				return err
			}
			a.fb.Success("webhook created")
			fmt.Fprintln(a.out, "id:", ep.ID)
			fmt.Fprintln(a.out, "secret:", ep.Secret)
			return nil
		},
	}
	addCmd.Flags().StringSliceVarP(&events, "event", "e", []string{webhook.EventOrderPlaced}, "event type or pattern such as product.* (repeatable)")
	addCmd.Flags().StringVar(&secret, "secret", "", "signing secret (generated when omitted)")

	deleteCmd := &cobra.Command{
		Use:   "delete <id>",
		Short: "Remove a webhook",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, ctl, err := a.webhooks()
			if err != nil {
				return err
			}
			ctl.RequestDelete(args[0], "Delete webhook", "Stop notifying webhook "+args[0]+"?")
			return a.resolve(cmd.Context(), ctl.Gate())
		},
	}

	setStatus := func(use, short, action, done string) *cobra.Command {
		return &cobra.Command{
			Use:   use + " <id>",
			Short: short,
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				client, _, err := a.webhooks()
				if err != nil {
					return err
				}
				if err := client.Post(cmd.Context(), webhooksPath+"/"+args[0]+"/"+action, nil, nil); err != nil {
					a.fb.Failure(apiclient.Message(err, "could not update webhook"))
					return err
				}
				a.fb.Success(done)
				return nil
			},
		}
	}

	testCmd := &cobra.Command{
		Use:   "test <id>",
		Short: "Send a ping and report the endpoint's answer",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, _, err := a.webhooks()
			if err != nil {
				return err
			}
			var d webhook.Delivery
			if err := client.Post(cmd.Context(), webhooksPath+"/"+args[0]+"/test", nil, &d); err != nil {
				a.fb.Failure(apiclient.Message(err, "could not send the ping"))
				return err
			}
			if !d.Succeeded {
				a.fb.Failure("ping failed: " + d.Error)
				return fmt.Errorf("webhook %s: %s", args[0], d.Error)
			}
			a.fb.Success(fmt.Sprintf("ping delivered (%d)", d.StatusCode))
			return nil
		},
	}

	deliveriesCmd := &cobra.Command{
		Use:   "deliveries <id>",
		Short: "Show recent deliveries, newest first",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, _, err := a.webhooks()
			if err != nil {
				return err
			}
			var log []webhook.Delivery
			if err := client.Get(cmd.Context(), webhooksPath+"/"+args[0]+"/deliveries", nil, &log); err != nil {
				a.fb.Failure(apiclient.Message(err, "could not load deliveries"))
				return err
			}
			tw := newTable(a.out, "WHEN", "EVENT", "ATTEMPTS", "STATUS", "ERROR")
			for _, d := range log {
				status := "ok"
				if !d.Succeeded {
					status = "failed"
				}
				row(tw, d.CreatedAt.Format("2006-01-02 15:04:05"), d.EventType, d.Attempts, status, d.Error)
			}
			return tw.Flush()
		},
	}

	cmd.AddCommand(
		listCmd,
		addCmd,
		deleteCmd,
		setStatus("pause", "Stop deliveries without removing the webhook", "pause", "webhook paused"),
		setStatus("resume", "Resume deliveries", "resume", "webhook resumed"),
		testCmd,
		deliveriesCmd,
	)
	return cmd
}
