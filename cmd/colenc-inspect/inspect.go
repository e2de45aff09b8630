package main

import (
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/arloliu/colenc/container"
	"github.com/arloliu/colenc/encoding"
	"github.com/cockroachdb/errors"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
)

func newRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:           "colenc-inspect",
		Short:         "column container introspection tools",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	columns := &cobra.Command{
		Use:   "columns <file>",
		Short: "print the columns of a container",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := openFile(args[0])
			if err != nil {
				return err
			}
			printColumns(cmd.OutOrStdout(), r)

			return nil
		},
	}

	var showChildren bool
	pages := &cobra.Command{
		Use:   "pages <file> <column>",
		Short: "print the pages and encoding trees of a column",
		Long: `
Print one row per page with its row and item counts, buffer count and encoding
tree. With --children the child columns holding list items and struct fields
are printed too.
`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := openFile(args[0])
			if err != nil {
				return err
			}

			return printPages(cmd.OutOrStdout(), r, args[1], showChildren)
		},
	}
	pages.Flags().BoolVar(&showChildren, "children", false, "include child columns")

	stats := &cobra.Command{
		Use:   "stats <file>",
		Short: "print buffer compression statistics",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := openFile(args[0])
			if err != nil {
				return err
			}
			printStats(cmd.OutOrStdout(), r)

			return nil
		},
	}

	root.AddCommand(columns, pages, stats)

	return root
}

func openFile(path string) (*container.Reader, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "read %s", path)
	}

	r, err := container.Open(data)
	if err != nil {
		return nil, errors.Wrapf(err, "open %s", path)
	}

	return r, nil
}

func printColumns(w io.Writer, r *container.Reader) {
	tbl := tablewriter.NewWriter(w)
	tbl.SetHeader([]string{"Column", "Type", "Root", "Pages", "Column Buffers"})
	for _, col := range r.Columns() {
		tbl.Append([]string{
			col.Name,
			col.DataType.String(),
			strconv.FormatBool(col.Root),
			strconv.Itoa(col.NumPages),
			strconv.Itoa(col.NumBuffers),
		})
	}
	tbl.Render()
}

func printPages(w io.Writer, r *container.Reader, name string, children bool) error {
	names := []string{name}
	if children {
		names = append(names, childColumns(r, name)...)
	}

	tbl := tablewriter.NewWriter(w)
	tbl.SetHeader([]string{"Column", "Page", "Rows", "Items", "Buffers", "Encoding"})
	tbl.SetAutoWrapText(false)
	for _, n := range names {
		pages, err := r.Pages(n)
		if err != nil {
			return err
		}
		for i, p := range pages {
			tbl.Append([]string{
				n,
				strconv.Itoa(i),
				strconv.FormatUint(p.NumRows, 10),
				strconv.FormatUint(p.NumItems, 10),
				strconv.Itoa(p.NumBuffers),
				encoding.Describe(p.Tree),
			})
		}
	}
	tbl.Render()

	return nil
}

// childColumns returns the child columns of name, depth first.
func childColumns(r *container.Reader, name string) []string {
	var out []string
	for i := 0; ; i++ {
		child := container.ChildName(name, i)
		if _, err := r.Column(child); err != nil {
			return out
		}
		out = append(out, child)
		out = append(out, childColumns(r, child)...)
	}
}

func printStats(w io.Writer, r *container.Reader) {
	stats := r.Stats()
	fmt.Fprintf(w, "compression:   %s\n", stats.Algorithm)
	fmt.Fprintf(w, "raw bytes:     %d\n", stats.OriginalSize)
	fmt.Fprintf(w, "stored bytes:  %d\n", stats.CompressedSize)
	fmt.Fprintf(w, "ratio:         %.3f\n", stats.CompressionRatio())
	fmt.Fprintf(w, "space savings: %.1f%%\n", stats.SpaceSavings())
}
