package cli

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"origamicore/internal/export"
)

func (a *app) exportCommand() *cobra.Command {
	var (
		withURL bool
		expiry  time.Duration
	)
	cmd := &cobra.Command{
		Use:   "export ID",
		Short: "Archive the current revision of a design to the blob store",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, err := a.resolve(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			archiver, err := a.archiver(cmd.Context())
			if err != nil {
				return err
			}
			rev, err := archiver.Archive(cmd.Context(), doc)
			if err != nil {
				return err
			}
			fmt.Fprintln(a.stdout, rev.Key)
			if withURL {
				u, err := archiver.URL(cmd.Context(), doc.ID, rev.Revision, expiry)
				if err != nil {
					return err
				}
				fmt.Fprintln(a.stdout, u)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&withURL, "url", false, "also print a download URL")
	cmd.Flags().DurationVar(&expiry, "expiry", 15*time.Minute, "lifetime of the download URL")
	return cmd
}

func (a *app) revisionsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "revisions [ID]",
		Short: "List archived revisions, of one design or of all",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			archiver, err := a.archiver(cmd.Context())
			if err != nil {
				return err
			}
			var revs []export.Revision
			if len(args) == 1 {
				doc, rerr := a.resolve(cmd.Context(), args[0])
				if rerr != nil {
					return rerr
				}
				revs, err = archiver.Revisions(cmd.Context(), doc.ID)
			} else {
				revs, err = archiver.All(cmd.Context())
			}
			if err != nil {
				return err
			}
			w := tabwriter.NewWriter(a.stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "DOCUMENT\tREVISION\tNAME\tBYTES\tARCHIVED")
			for _, r := range revs {
				fmt.Fprintf(w, "%s\t%d\t%s\t%d\t%s\n", r.DocumentID, r.Revision, r.Name, r.Size, r.ArchivedAt.Format(time.RFC3339))
			}
			return w.Flush()
		},
	}
}

func (a *app) restoreCommand() *cobra.Command {
	var revision int
	cmd := &cobra.Command{
		Use:   "restore ID",
		Short: "Write an archived revision back to the document store",
		Long: `Write an archived revision back to the document store. The document keeps
its id; when it still exists the restored design becomes its next revision.
ID must be a full document id since the document may no longer be stored.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			archiver, err := a.archiver(cmd.Context())
			if err != nil {
				return err
			}
			doc, err := archiver.Restore(cmd.Context(), a.svc, id, revision)
			if err != nil {
				return err
			}
			fmt.Fprintf(a.stdout, "%s revision %d\n", doc.ID, doc.Revision)
			return nil
		},
	}
	cmd.Flags().IntVar(&revision, "revision", 0, "archived revision to restore (default latest)")
	return cmd
}
