package main

import (
	"fmt"
	"io/fs"
	"path/filepath"
	"sort"

	"github.com/spf13/cobra"

	"github.com/chazu/layoutc/compiler"
	"github.com/chazu/layoutc/compiler/hash"
)

var buildCmd = &cobra.Command{
	Use:   "build",
	Short: "Compile every template under the manifest's source dirs",
	Long: `Compile every .json and .cbor template under the [source] dirs of
layoutc.toml as an unwrapped layout and print one fingerprint per template.
Compilation continues past failures; the command fails if any template did.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		p, err := loadProject()
		if err != nil {
			return err
		}
		if p.manifest == nil {
			return fmt.Errorf("build requires a layoutc.toml")
		}

		paths, err := templatePaths(p.manifest.SourceDirPaths())
		if err != nil {
			return err
		}

		failed := 0
		for _, path := range paths {
			sum, err := fingerprintTemplate(path, p)
			if err != nil {
				failed++
				log.Errorf("%s: %s", path, err)
				continue
			}
			rel, err := filepath.Rel(p.manifest.Dir, path)
			if err != nil {
				rel = path
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s  %s\n", sum, rel)
		}

		if failed > 0 {
			return fmt.Errorf("%d of %d templates failed", failed, len(paths))
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(buildCmd)
}

func fingerprintTemplate(path string, p *project) (string, error) {
	tpl, err := readTemplate(path)
	if err != nil {
		return "", err
	}
	program, err := compiler.CompileLayout(&compiler.Layout{Template: tpl}, p.env, p.opts)
	if err != nil {
		return "", err
	}
	sum, err := hash.Fingerprint(program)
	if err != nil {
		return "", err
	}
	return hash.Hex(sum), nil
}

func templatePaths(dirs []string) ([]string, error) {
	var paths []string
	for _, dir := range dirs {
		err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() {
				return nil
			}
			switch filepath.Ext(path) {
			case ".json", ".cbor":
				paths = append(paths, path)
			}
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("walk %s: %w", dir, err)
		}
	}
	sort.Strings(paths)
	return paths, nil
}
