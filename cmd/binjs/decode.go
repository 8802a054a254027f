package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/astenc/binjs/internal/arena"
	"github.com/astenc/binjs/internal/binfile"
	"github.com/astenc/binjs/internal/treerepair"
	"github.com/astenc/binjs/pkg/observability"
)

func decodeCmd() *cobra.Command {
	var (
		inputPath  string
		outputPath string
		rawTree    bool
	)

	cmd := &cobra.Command{
		Use:   "decode",
		Short: "Read a binjs binary file and reconstruct its tree as JSON",
		RunE: func(_ *cobra.Command, _ []string) error {
			return runDecode(inputPath, outputPath, rawTree)
		},
	}

	cmd.Flags().StringVarP(&inputPath, "input", "i", "", "binary file (default stdin)")
	cmd.Flags().StringVarP(&outputPath, "output", "o", "", "output JSON file (default stdout)")
	cmd.Flags().BoolVar(&rawTree, "raw", false, "skip grammar expansion; dump the axiom with Nonterminal invocations intact")

	return cmd
}

func runDecode(inputPath, outputPath string, rawTree bool) error {
	cfg, logger, err := loadConfig(observability.ModeDecode)
	if err != nil {
		return err
	}

	in, err := openInput(inputPath)
	if err != nil {
		return err
	}
	defer in.Close()

	a := arena.New()

	result, err := binfile.Decode(in, binfile.DecodeInput{
		Arena:        a,
		NumCellBits:  cfg.Codec.NumCellBits,
		MemoCapacity: memoCapacityFromWindow(cfg.Memo.Window),
	})
	if err != nil {
		return fmt.Errorf("decoding: %w", err)
	}

	logger.Info("decoded file", "rules", len(result.Rules))

	tree, values := result.Tree, result.Values

	if !rawTree {
		grammar := &treerepair.Grammar{Axiom: result.Tree, Rules: result.Rules, Arena: a}
		tree, values = treerepair.ExpandValues(grammar, result.Values)

		logger.Info("expanded grammar back to original tree shape")
	}

	dump := dumpTree(tree, values)

	pretty, err := json.MarshalIndent(dump, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling decoded tree: %w", err)
	}

	out, closeOut, err := openOutput(outputPath)
	if err != nil {
		return err
	}
	defer closeOut()

	if _, err := out.Write(pretty); err != nil {
		return fmt.Errorf("writing output: %w", err)
	}

	if _, err := fmt.Fprintln(out); err != nil {
		return err
	}

	if outputPath != "" {
		fmt.Fprintf(os.Stderr, "wrote decoded tree to %s\n", outputPath)
	}

	return nil
}

// dumpNode is the JSON shape decode prints a ranked tree as. It is
// deliberately distinct from parsetree.Node: a decoded tree still
// carries the walker's childArray wrapper nodes rather than the original
// parser's flattened arrays (named "list#N" by length where they come
// from the AST stream, and by field, e.g. "Program.bodyList", where they
// come from a rule body), since inverting the AST Walker's schema is
// outside what decoding is specified to do.
type dumpNode struct {
	Symbol   string      `json:"symbol"`
	Value    any         `json:"value,omitempty"`
	Children []*dumpNode `json:"children,omitempty"`
}

func dumpTree(n *arena.Node, values map[*arena.Node]any) *dumpNode {
	out := &dumpNode{Symbol: n.Label.Name}

	if v, ok := values[n]; ok {
		out.Value = v
	}

	for _, c := range n.Children() {
		out.Children = append(out.Children, dumpTree(c, values))
	}

	return out
}
