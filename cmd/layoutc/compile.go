package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/chazu/layoutc/compiler"
	"github.com/chazu/layoutc/compiler/hash"
	"github.com/chazu/layoutc/vm"
	"github.com/chazu/layoutc/wire"
)

var (
	tagName      string
	dynamicTag   string
	staticAttrs  []string
	dynamicAttrs []string
	printHash    bool
	outputPath   string
)

var compileCmd = &cobra.Command{
	Use:   "compile [template]",
	Short: "Compile one template and print its disassembly",
	Long: `Compile one serialized template (.json or .cbor) and print the
disassembled program.

Without --tag or --dynamic-tag the layout is compiled unwrapped: it must
provide its own root element if any attributes are given.`,
	Example: `  layoutc compile card.json --tag div --attr class=card
  layoutc compile card.cbor --dynamic-tag @tagName --hash
  layoutc compile card.json --tag section -o card.program`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		p, err := loadProject()
		if err != nil {
			return err
		}
		tpl, err := readTemplate(args[0])
		if err != nil {
			return err
		}
		layout, err := layoutFromFlags(tpl)
		if err != nil {
			return err
		}

		program, err := compiler.CompileLayout(layout, p.env, p.opts)
		if err != nil {
			return fmt.Errorf("%s: %w", args[0], err)
		}

		if outputPath != "" {
			data, err := vm.MarshalProgram(program)
			if err != nil {
				return err
			}
			if err := os.WriteFile(outputPath, data, 0o644); err != nil {
				return fmt.Errorf("write %s: %w", outputPath, err)
			}
			log.Infof("wrote %s (%d bytes)", outputPath, len(data))
		}

		if printHash {
			sum, err := hash.Fingerprint(program)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), hash.Hex(sum))
			return nil
		}
		fmt.Fprint(cmd.OutOrStdout(), program.Disassemble())
		return nil
	},
}

func init() {
	compileCmd.Flags().StringVarP(&tagName, "tag", "t", "", "Wrap the layout in an element with this literal tag")
	compileCmd.Flags().StringVar(&dynamicTag, "dynamic-tag", "", "Wrap the layout in an element whose tag is read from this path (e.g. @tagName)")
	compileCmd.Flags().StringArrayVar(&staticAttrs, "attr", nil, "Add a literal attribute name=value (repeatable)")
	compileCmd.Flags().StringArrayVar(&dynamicAttrs, "dynamic-attr", nil, "Add an attribute name=path read at render time (repeatable)")
	compileCmd.Flags().BoolVar(&printHash, "hash", false, "Print the program fingerprint instead of the disassembly")
	compileCmd.Flags().StringVarP(&outputPath, "output", "o", "", "Also write the compiled program as CBOR")
	compileCmd.MarkFlagsMutuallyExclusive("tag", "dynamic-tag")
	rootCmd.AddCommand(compileCmd)
}

func readTemplate(path string) (*wire.SerializedTemplate, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	tpl, err := wire.Decode(data, wire.FormatForPath(path))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return tpl, nil
}

func layoutFromFlags(tpl *wire.SerializedTemplate) (*compiler.Layout, error) {
	layout := &compiler.Layout{Template: tpl}
	switch {
	case dynamicTag != "":
		expr, err := parsePath(dynamicTag)
		if err != nil {
			return nil, fmt.Errorf("--dynamic-tag: %w", err)
		}
		layout.Wrapped = true
		layout.DynamicTag = &expr
	case tagName != "":
		layout.Wrapped = true
		layout.StaticTag = tagName
	}

	for _, a := range staticAttrs {
		name, value, ok := strings.Cut(a, "=")
		if !ok || name == "" {
			return nil, fmt.Errorf("--attr %q: want name=value", a)
		}
		layout.Attrs = append(layout.Attrs, wire.StaticAttr(name, value))
	}
	for _, a := range dynamicAttrs {
		name, path, ok := strings.Cut(a, "=")
		if !ok || name == "" {
			return nil, fmt.Errorf("--dynamic-attr %q: want name=path", a)
		}
		expr, err := parsePath(path)
		if err != nil {
			return nil, fmt.Errorf("--dynamic-attr %q: %w", a, err)
		}
		layout.Attrs = append(layout.Attrs, wire.DynamicAttr(name, expr))
	}
	return layout, nil
}

// parsePath turns "head.a.b" into a Get expression.
func parsePath(s string) (wire.Expression, error) {
	parts := strings.Split(s, ".")
	for _, p := range parts {
		if p == "" {
			return wire.Expression{}, fmt.Errorf("malformed path %q", s)
		}
	}
	return wire.Get(parts[0], parts[1:]...), nil
}
