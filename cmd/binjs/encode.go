package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/astenc/binjs/internal/arena"
	"github.com/astenc/binjs/internal/astwalk"
	"github.com/astenc/binjs/internal/binfile"
	"github.com/astenc/binjs/internal/parsetree"
	"github.com/astenc/binjs/internal/treerepair"
	"github.com/astenc/binjs/pkg/observability"
)

func encodeCmd() *cobra.Command {
	var (
		inputPath  string
		outputPath string
		dumpAST    bool
	)

	cmd := &cobra.Command{
		Use:   "encode",
		Short: "Infer a grammar over a JSON parse tree and write the binary encoding",
		RunE: func(_ *cobra.Command, _ []string) error {
			return runEncode(inputPath, outputPath, dumpAST)
		},
	}

	cmd.Flags().StringVarP(&inputPath, "input", "i", "", "JSON parse tree file (default stdin)")
	cmd.Flags().StringVarP(&outputPath, "output", "o", "", "output binary file (default stdout)")
	cmd.Flags().BoolVar(&dumpAST, "dump-ast", false, "print the parsed input tree as JSON before encoding")

	return cmd
}

func runEncode(inputPath, outputPath string, dumpAST bool) error {
	cfg, logger, err := loadConfig(observability.ModeEncode)
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

	if dumpAST {
		pretty, err := json.MarshalIndent(root, "", "  ")
		if err != nil {
			return fmt.Errorf("dumping parse tree: %w", err)
		}

		fmt.Fprintln(os.Stderr, string(pretty))
	}

	logger.Info("parsed input tree", "bytes", len(raw))

	a := arena.New()

	walker := astwalk.NewWalker(a)

	axiom, err := walker.Walk(root)
	if err != nil {
		return fmt.Errorf("walking parse tree: %w", err)
	}

	logger.Info("walked ast into ranked tree")

	grammar := treerepair.NewGrammar(a, axiom)

	engine := treerepair.NewEngine(grammar, cfg.Grammar.MaxRank)
	if err := engine.Build(); err != nil {
		return fmt.Errorf("inferring grammar: %w", err)
	}

	logger.Info("built grammar", "rules", len(grammar.Rules), "size", grammar.Size())

	out, closeOut, err := openOutput(outputPath)
	if err != nil {
		return err
	}
	defer closeOut()

	counter := &countingWriter{w: out}

	encIn := binfile.EncodeInput{
		Grammar:      grammar,
		Registry:     walker.Registry(),
		Values:       walker.Values,
		Strings:      walker.Strings,
		NumCellBits:  cfg.Codec.NumCellBits,
		MemoCapacity: memoCapacityFromWindow(cfg.Memo.Window),
	}

	if err := binfile.Encode(counter, encIn); err != nil {
		return fmt.Errorf("encoding: %w", err)
	}

	if outputPath != "" {
		fmt.Fprintf(os.Stdout, "wrote %s to %s\n", humanize.Bytes(uint64(counter.n)), outputPath)
	} else {
		fmt.Fprintf(os.Stderr, "wrote %s\n", humanize.Bytes(uint64(counter.n)))
	}

	return nil
}

// memoCapacityFromWindow adapts config's "0 means unbounded" memo window
// convention to binfile's EncodeInput/DecodeInput convention, where 0
// means "use the package default" and unbounded is spelled as a negative
// capacity.
func memoCapacityFromWindow(window int) int {
	if window == 0 {
		return -1
	}

	return window
}

func openInput(path string) (io.ReadCloser, error) {
	if path == "" {
		return io.NopCloser(os.Stdin), nil
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening input %q: %w", path, err)
	}

	return f, nil
}

func openOutput(path string) (io.Writer, func(), error) {
	if path == "" {
		return os.Stdout, func() {}, nil
	}

	f, err := os.Create(path)
	if err != nil {
		return nil, nil, fmt.Errorf("creating output %q: %w", path, err)
	}

	return f, func() { f.Close() }, nil
}

// countingWriter tracks total bytes written so encode can report the
// humanized output size without re-stat'ing the file afterward.
type countingWriter struct {
	w io.Writer
	n int
}

func (c *countingWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.n += n

	return n, err
}
