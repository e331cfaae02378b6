package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"origamicore/internal/core"
	"origamicore/pkg/domain"
)

func (a *app) newCommand() *cobra.Command {
	var (
		gridKind string
		helices  int
		length   int
	)
	cmd := &cobra.Command{
		Use:   "new NAME",
		Short: "Create a design with one grid and a row of helices",
		Long: `Create a design holding one grid with a row of helices. With a positive
--length every helix carries a forward and a backward strand of that length.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			design, err := gridDesign(cmd.Context(), gridKind, helices, length)
			if err != nil {
				return err
			}
			doc, _, err := a.svc.CreateDocument(cmd.Context(), args[0], design)
			if err != nil {
				return err
			}
			fmt.Fprintln(a.stdout, doc.ID)
			return nil
		},
	}
	cmd.Flags().StringVar(&gridKind, "grid", "square", "grid type: square or honeycomb")
	cmd.Flags().IntVar(&helices, "helices", 2, "number of helices")
	cmd.Flags().IntVar(&length, "length", 0, "length of the strands on each helix")
	return cmd
}

// gridDesign builds the starting design through a controller so it follows
// the same rules as later edits.
func gridDesign(ctx context.Context, kind string, helices, length int) (*domain.Design, error) {
	var descr domain.GridTypeDescr
	switch strings.ToLower(kind) {
	case "square":
		descr = domain.Square{}.Descriptor()
	case "honeycomb":
		descr = domain.Honeycomb{}.Descriptor()
	default:
		return nil, fmt.Errorf("unknown grid type %q", kind)
	}
	if helices < 0 || length < 0 {
		return nil, fmt.Errorf("helices and length must not be negative")
	}
	ctrl := core.NewController(domain.NewDesign(), core.WithControllerRules(core.NewDefaultRulesEngine()))
	if err := ctrl.Apply(ctx, core.AddGrid{Descriptor: domain.GridDescriptor{Orientation: domain.IdentityRotor(), Type: descr}}); err != nil {
		return nil, err
	}
	grid, _ := ctrl.Design().Grids.MaxKey()
	for i := range helices {
		op := core.AddGridHelix{
			Position: domain.GridPosition{Grid: domain.FreeGrid(grid), X: 0, Y: i},
			Length:   length,
		}
		if err := ctrl.Apply(ctx, op); err != nil {
			return nil, fmt.Errorf("helix %d: %w", i, err)
		}
	}
	return ctrl.Design(), nil
}

func (a *app) listCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List stored designs",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			docs, err := a.svc.ListDocuments(cmd.Context())
			if err != nil {
				return err
			}
			w := tabwriter.NewWriter(a.stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tNAME\tREVISION\tSTRANDS\tUPDATED")
			for _, doc := range docs {
				fmt.Fprintf(w, "%s\t%s\t%d\t%d\t%s\n", doc.ID, doc.Name, doc.Revision, doc.Design.Strands.Len(), doc.UpdatedAt.Format("2006-01-02 15:04:05"))
			}
			return w.Flush()
		},
	}
}

func (a *app) showCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "show ID",
		Short: "Summarise a design: helices, strands and crossovers",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, err := a.resolve(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return writeSummary(a.stdout, doc)
		},
	}
}

func writeSummary(out io.Writer, doc domain.Document) error {
	r := domain.NewReader(doc.Design)
	fmt.Fprintf(out, "%s %q revision %d\n", doc.ID, doc.Name, doc.Revision)
	fmt.Fprintf(out, "grids %d, helices %d, strands %d, crossovers %d\n",
		doc.Design.Grids.Len(), r.Helices().Len(), doc.Design.Strands.Len(), len(r.XoversListWithID()))
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "STRAND\tLENGTH\tDOMAINS\tCYCLIC\tNAME")
	for _, id := range r.AllStrandIDs() {
		s, _ := doc.Design.Strand(id)
		name := r.StrandName(id)
		if r.IsScaffold(id) {
			name += " (scaffold)"
		}
		fmt.Fprintf(w, "%d\t%d\t%s\t%t\t%s\n", id, s.Length(), s.LengthDecomposition(), s.Cyclic, strings.TrimSpace(name))
	}
	return w.Flush()
}

func (a *app) applyCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "apply ID SCRIPT",
		Short: "Apply a JSON operation script to a design",
		Long: `Apply a JSON array of operations, for example
  [{"op": "cut", "args": {"strand": 0, "nucl": {"helix": 0, "position": 7, "forward": true}}}]
The script runs as one batch: it is committed as a single revision or not at
all. SCRIPT is a file path or - for standard input.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, err := a.resolve(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			data, err := readInput(cmd.InOrStdin(), args[1])
			if err != nil {
				return err
			}
			ops, err := core.DecodeScript(data)
			if err != nil {
				return err
			}
			updated, _, err := a.svc.ApplyOperations(cmd.Context(), doc.ID, ops)
			if err != nil {
				return err
			}
			fmt.Fprintf(a.stdout, "%s revision %d (%d operations)\n", updated.ID, updated.Revision, len(ops))
			return nil
		},
	}
}

func (a *app) importCommand() *cobra.Command {
	var name string
	cmd := &cobra.Command{
		Use:   "import FILE",
		Short: "Store a design JSON document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := readInput(cmd.InOrStdin(), args[0])
			if err != nil {
				return err
			}
			doc, _, err := a.svc.ImportDesign(cmd.Context(), name, data)
			if err != nil {
				return err
			}
			fmt.Fprintln(a.stdout, doc.ID)
			return nil
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "document name (default: the name in the file)")
	return cmd
}

func (a *app) renameCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "rename ID NAME",
		Short: "Rename a design",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, err := a.resolve(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			_, _, err = a.svc.RenameDocument(cmd.Context(), doc.ID, args[1])
			return err
		},
	}
}

func (a *app) deleteCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "delete ID",
		Aliases: []string{"rm"},
		Short:   "Delete a design; archived revisions are kept",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, err := a.resolve(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			_, err = a.svc.DeleteDocument(cmd.Context(), doc.ID)
			return err
		},
	}
}

// resolve finds a document by id or by a unique id prefix.
func (a *app) resolve(ctx context.Context, arg string) (domain.Document, error) {
	if id, err := uuid.Parse(arg); err == nil {
		return a.svc.GetDocument(ctx, id)
	}
	docs, err := a.svc.ListDocuments(ctx)
	if err != nil {
		return domain.Document{}, err
	}
	var match []domain.Document
	for _, doc := range docs {
		if strings.HasPrefix(doc.ID.String(), arg) {
			match = append(match, doc)
		}
	}
	switch len(match) {
	case 1:
		return match[0], nil
	case 0:
		return domain.Document{}, core.ErrNotFound{Entity: domain.EntityDocument, ID: arg}
	default:
		return domain.Document{}, fmt.Errorf("id prefix %q matches %d documents", arg, len(match))
	}
}

func readInput(stdin io.Reader, path string) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(stdin)
	}
	return os.ReadFile(path)
}

func parseID(arg string) (uuid.UUID, error) {
	id, err := uuid.Parse(arg)
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid document id %q: %w", arg, err)
	}
	return id, nil
}
