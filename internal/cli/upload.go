package cli

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/WorldBank-Transport/DRIVER-Android-sub000/internal/upload"
	"github.com/WorldBank-Transport/DRIVER-Android-sub000/pkg/types"
)

// printListener reports batch progress on the command's output.
type printListener struct {
	out io.Writer
}

func (l printListener) RecordUploaded(id int64) {
	fmt.Fprintf(l.out, "uploaded record %d\n", id)
}

func (l printListener) BatchFinished(failures int) {
	if failures > 0 {
		fmt.Fprintf(l.out, "upload finished, %d record(s) failed and were kept\n", failures)
		return
	}
	fmt.Fprintln(l.out, "upload finished")
}

func (l printListener) InvalidCredentials() {
	fmt.Fprintln(l.out, "the server rejected the API token")
}

func (l printListener) Cancelled() {
	fmt.Fprintln(l.out, "upload cancelled")
}

func (a *app) newUploadCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "upload",
		Short: "Send stored records to the server",
		Long: `Upload posts every stored record that has a location fix, one at a
time, and deletes each record the server accepts. Records the server refuses
stay stored and are retried by the next upload. Records without a location
are held back until they are edited with --lat and --lon.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := a.transport()
			if err != nil {
				return err
			}
			store, err := a.attachStore()
			if err != nil {
				return err
			}
			defer store.Detach()

			out := cmd.OutOrStdout()
			coord := upload.NewCoordinator(store, client, a.logger)
			sum, err := runTask(cmd, func(ctx context.Context) (upload.Summary, error) {
				return coord.Upload(ctx, printListener{out: out})
			})
			if sum.Withheld > 0 {
				fmt.Fprintf(out, "%d record(s) held back without a location\n", sum.Withheld)
			}
			switch {
			case errors.Is(err, types.ErrInvalidCredentials):
				return fmt.Errorf("upload: %w; update api_token in the config file or DRIVER_API_TOKEN", err)
			case errors.Is(err, context.Canceled):
				return err
			case err != nil:
				return sysError{fmt.Errorf("upload: %w", err)}
			}
			if sum.Failed > 0 {
				return sysError{fmt.Errorf("%d of %d record(s) failed to upload", sum.Failed, sum.Failed+sum.Uploaded)}
			}
			return nil
		},
	}
}
