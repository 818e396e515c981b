package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/spf13/cobra"

	"github.com/r5vforge/r5vforge/catalog"
	"github.com/r5vforge/r5vforge/graph"
)

func newNodesCmd(a *app) *cobra.Command {
	var category string
	var plain bool
	var width int

	cmd := &cobra.Command{
		Use:   "nodes",
		Short: "List the node catalog",
		Long:  `List every node type by category, with its ports, contexts and purity.`,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cat, err := a.catalog()
			if err != nil {
				return err
			}
			md, err := nodesMarkdown(cat, category)
			if err != nil {
				return &ExitError{Code: ExitPrecondition, Err: err}
			}
			if plain {
				fmt.Fprint(cmd.OutOrStdout(), md)
				return nil
			}

			opts := []glamour.TermRendererOption{glamour.WithAutoStyle()}
			if width > 0 {
				opts = append(opts, glamour.WithWordWrap(width))
			}
			r, err := glamour.NewTermRenderer(opts...)
			if err != nil {
				return err
			}
			out, err := r.Render(md)
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), out)
			return nil
		},
	}
	cmd.Flags().StringVarP(&category, "category", "c", "", "only list this category")
	cmd.Flags().BoolVar(&plain, "plain", false, "print markdown without rendering")
	cmd.Flags().IntVar(&width, "width", 100, "word wrap width, 0 disables wrapping")
	return cmd
}

// nodesMarkdown documents the catalog, sorted by category and then type.
func nodesMarkdown(cat *catalog.Catalog, only string) (string, error) {
	groups := cat.ByCategory()
	if only != "" {
		if _, ok := groups[only]; !ok {
			return "", fmt.Errorf("unknown category %q, have %s", only, strings.Join(cat.Categories(), ", "))
		}
	}

	var sb strings.Builder
	sb.WriteString("# Node catalog\n")
	for _, name := range cat.Categories() {
		if only != "" && name != only {
			continue
		}
		fmt.Fprintf(&sb, "\n## %s\n\n", name)
		sb.WriteString("| Type | Label | Context | Purity | Inputs | Outputs |\n")
		sb.WriteString("|---|---|---|---|---|---|\n")
		for _, t := range groups[name] {
			def, _ := cat.Lookup(t)
			when := "any"
			if req := def.Requires(); req != graph.ContextNone {
				when = req.When()
			}
			fmt.Fprintf(&sb, "| `%s` | %s | %s | %s | %s | %s |\n",
				t, cell(def.Label), cell(when), def.Purity, portList(def.Inputs), portList(def.Outputs))
		}
	}
	return sb.String(), nil
}

func portList(ports []catalog.PortTemplate) string {
	if len(ports) == 0 {
		return "-"
	}
	names := make([]string, len(ports))
	for i, p := range ports {
		if p.Kind == graph.KindExec {
			names[i] = p.ID + " (exec)"
		} else {
			names[i] = fmt.Sprintf("%s (%s)", p.ID, p.Type)
		}
	}
	return cell(strings.Join(names, ", "))
}

func cell(s string) string {
	if s == "" {
		return "-"
	}
	return strings.ReplaceAll(s, "|", `\|`)
}
