package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/astenc/binjs/internal/arena"
	"github.com/astenc/binjs/internal/astwalk"
	"github.com/astenc/binjs/internal/parsetree"
	"github.com/astenc/binjs/internal/treerepair"
	"github.com/astenc/binjs/pkg/observability"
)

func inspectCmd() *cobra.Command {
	var (
		inputPath string
		showStats bool
	)

	cmd := &cobra.Command{
		Use:   "inspect",
		Short: "Build the grammar for a JSON parse tree and report its statistics",
		RunE: func(_ *cobra.Command, _ []string) error {
			return runInspect(inputPath, showStats)
		},
	}

	cmd.Flags().StringVarP(&inputPath, "input", "i", "", "JSON parse tree file (default stdin)")
	cmd.Flags().BoolVar(&showStats, "stats", false, "print a per-Nonterminal breakdown")

	return cmd
}

func runInspect(inputPath string, showStats bool) error {
	cfg, logger, err := loadConfig(observability.ModeInspect)
	if err != nil {
		return err
	}

	in, err := openInput(inputPath)
	if err != nil {
		return err
	}
	defer in.Close()

	raw, err := io.ReadAll(in)
	if err != nil {
		return fmt.Errorf("reading input: %w", err)
	}

	var root *parsetree.Node
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &root); err != nil {
			return fmt.Errorf("parsing JSON parse tree: %w", err)
		}
	}

	a := arena.New()

	walker := astwalk.NewWalker(a)

	axiom, err := walker.Walk(root)
	if err != nil {
		return fmt.Errorf("walking parse tree: %w", err)
	}

	originalSize := countArenaNodes(axiom)

	grammar := treerepair.NewGrammar(a, axiom)

	engine := treerepair.NewEngine(grammar, cfg.Grammar.MaxRank)
	if err := engine.Build(); err != nil {
		return fmt.Errorf("inferring grammar: %w", err)
	}

	logger.Info("inspected grammar", "rules", len(grammar.Rules))

	axiomSize := countArenaNodes(grammar.Axiom)

	totalRuleSize := 0
	for _, body := range grammar.Rules {
		totalRuleSize += countArenaNodes(body)
	}

	grammarSize := axiomSize + totalRuleSize
	ratio := 1.0

	if grammarSize > 0 {
		ratio = float64(originalSize) / float64(grammarSize)
	}

	fmt.Fprintf(os.Stdout, "rule count:          %d\n", len(grammar.Rules))
	fmt.Fprintf(os.Stdout, "axiom size:          %d\n", axiomSize)
	fmt.Fprintf(os.Stdout, "total rule-body size: %d\n", totalRuleSize)
	fmt.Fprintf(os.Stdout, "original tree size:  %d\n", originalSize)
	fmt.Fprintf(os.Stdout, "compression ratio:   %.2fx\n", ratio)

	if !showStats {
		return nil
	}

	stats, err := engine.Stats()
	if err != nil {
		return fmt.Errorf("computing stats: %w", err)
	}

	printStatsTable(stats)

	return nil
}

// countArenaNodes counts root's subtree size, the same "size" measure
// compute_stats() uses for a rule body.
func countArenaNodes(root *arena.Node) int {
	n := 0
	arena.Each(root, func(*arena.Node) { n++ })

	return n
}

func printStatsTable(stats []treerepair.RuleStats) {
	nonterminal := color.New(color.FgCyan).SprintFunc()

	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.AppendHeader(table.Row{"rule", "rank", "size", "ref_count", "savings"})

	for _, s := range stats {
		t.AppendRow(table.Row{nonterminal(s.Name), s.Rank, s.Size, s.RefCount, s.Savings})
	}

	t.Render()
}
