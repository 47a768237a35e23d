package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/bakery/storefront/internal/domain/media"
	"github.com/bakery/storefront/internal/platform/apiclient"
)

func uploadCmd(a *app) *cobra.Command {
	var hero bool
	cmd := &cobra.Command{
		Use:   "upload <file>",
		Short: "Upload an image and print its URL",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := a.api()
			if err != nil {
				return err
			}
			u, err := media.NewUploader(client).UploadFile(cmd.Context(), args[0], hero)
			if err != nil {
				a.fb.Failure(apiclient.Message(err, "could not upload image"))
				return err
			}
			a.fb.Success("image uploaded")
			fmt.Fprintln(a.out, u)
			return nil
		},
	}
	cmd.Flags().BoolVar(&hero, "hero", false, "upload as a storefront banner image")
	return cmd
}
