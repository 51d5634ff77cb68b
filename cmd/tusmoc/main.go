// Command tusmoc is the compiler's CLI front door. Given a single
// entry `.tus` file it runs the full pipeline and writes the generated C
// plus a feature-tag manifest; given the repl subcommand it launches an
// interactive lex/parse exploration session instead of compiling anything.
package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	flag "github.com/spf13/pflag"

	tusmoc "github.com/tusmolang/tusmoc"
	"github.com/tusmolang/tusmoc/internal/config"
	"github.com/tusmolang/tusmoc/internal/input"
	"github.com/tusmolang/tusmoc/internal/lexer"
	"github.com/tusmolang/tusmoc/internal/parser"
	"github.com/tusmolang/tusmoc/internal/util"
	"github.com/tusmolang/tusmoc/internal/version"
)

func main() {
	if len(os.Args) > 1 && os.Args[1] == "repl" {
		if err := runRepl(os.Args[2:]); err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		return
	}

	if err := runCompile(os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func runCompile(args []string) error {
	fs := flag.NewFlagSet("tusmoc", flag.ExitOnError)

	showVersion := fs.BoolP("version", "v", false, "print the compiler version and exit")
	output := fs.StringP("output", "o", "", "C output file (defaults to the entry file's name with .c)")
	libRoots := fs.StringArrayP("lib-root", "L", nil, "additional module search root (repeatable)")
	stdRoot := fs.String("std-root", "", "standard library root directory")
	cfgPath := fs.StringP("config", "c", "tusmoc.toml", "path to a tusmoc.toml config file")
	featureFile := fs.String("features", "", "feature-tag manifest output path (defaults to config's feature_manifest_file)")

	if err := fs.Parse(args); err != nil {
		return err
	}

	if *showVersion {
		fmt.Println(version.Compiler)
		return nil
	}

	if fs.NArg() != 1 {
		return fmt.Errorf("usage: tusmoc [flags] <entry.tus>")
	}
	entry := fs.Arg(0)

	opts, err := config.Load(*cfgPath, config.Options{
		LibRoots:            *libRoots,
		StdRoot:             *stdRoot,
		FeatureManifestFile: *featureFile,
	})
	if err != nil {
		return err
	}

	result, err := tusmoc.Compile(entry, tusmoc.Roots{LibRoots: opts.LibRoots, StdRoot: opts.StdRoot})
	if err != nil {
		return fmt.Errorf("%s", prettyOf(err))
	}

	outPath := *output
	if outPath == "" {
		outPath = strings.TrimSuffix(entry, ".tus") + ".c"
	}
	if err := os.WriteFile(outPath, []byte(result.C), 0644); err != nil {
		return fmt.Errorf("writing %q: %w", outPath, err)
	}

	manifestPath := opts.FeatureManifestFile
	if manifestPath == "" {
		manifestPath = "features.txt"
	}
	manifest := strings.Join(result.Features, "\n")
	if manifest != "" {
		manifest += "\n"
	}
	if err := os.WriteFile(manifestPath, []byte(manifest), 0644); err != nil {
		return fmt.Errorf("writing %q: %w", manifestPath, err)
	}

	if len(result.Features) > 0 {
		fmt.Printf("%s needs runtime support for %s\n", outPath, util.MakeTextList(result.Features))
	}

	return nil
}

func prettyOf(err error) string {
	type prettyPrinter interface {
		Pretty(width int) string
	}
	if pp, ok := err.(prettyPrinter); ok {
		return pp.Pretty(100)
	}
	return err.Error()
}

// runRepl drives an interactive session that lexes and parses whatever the
// user types: after every line it re-lexes and re-parses the whole buffer
// so far, printing any lexer diagnostics and then either the parse error or
// the number of top-level nodes parsed. It never compiles anything — no analyzer, no codegen
// — it exists purely to explore how the front end tokenizes and parses
// source fragments.
func runRepl(args []string) error {
	fs := flag.NewFlagSet("tusmoc repl", flag.ExitOnError)
	direct := fs.Bool("direct", false, "read from stdin directly instead of using an interactive line editor")
	if err := fs.Parse(args); err != nil {
		return err
	}

	var reader input.LineReader
	if *direct || !isTerminal(os.Stdin) {
		reader = input.NewDirectReader(os.Stdin)
	} else {
		ir, err := input.NewInteractiveReader()
		if err != nil {
			return err
		}
		defer ir.Close()
		reader = ir
	}
	defer reader.Close()

	var buf util.UndoableStringBuilder
	fmt.Println("tusmoc repl — type a statement, :undo to remove the last line, :quit to exit")

	for {
		line, err := reader.ReadLine()
		if err != nil {
			if err == io.EOF {
				return nil
			}
			return err
		}

		switch line {
		case ":quit", ":q":
			return nil
		case ":undo":
			buf.Undo()
			continue
		case ":reset":
			buf.Reset()
			continue
		}

		buf.WriteString(line + "\n")

		src := buf.String()
		lx := lexer.New("<repl>", src)
		toks := lx.All()
		for _, d := range lx.Diagnostics {
			fmt.Println(d.String())
		}

		file, err := parser.Parse(toks)
		if err != nil {
			fmt.Println(err)
			continue
		}
		fmt.Printf("parsed %d top-level node(s)\n", len(file.Nodes))
	}
}

func isTerminal(f *os.File) bool {
	st, err := f.Stat()
	if err != nil {
		return false
	}
	return st.Mode()&os.ModeCharDevice != 0
}
