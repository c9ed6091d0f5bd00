// Command cppdbc-lint walks a module's Go source looking for newCode(...)
// call expressions and checks the string literal passed to each one
// against the tag grammar: 12 characters, upper-case letters or digits,
// at least 5 letters, no run of more than 4 identical characters. It
// also fails if two different newCode calls anywhere in the tree use the
// same literal — the same check dberr.newCode itself makes at runtime,
// caught here before the package is ever imported. _test.go files are
// skipped since dberr's own tests deliberately pass malformed tags to
// assert that newCode panics on them.
package main

import (
	"flag"
	"fmt"
	"go/ast"
	"go/parser"
	"go/token"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

type occurrence struct {
	tag  string
	file string
	line int
}

func main() {
	root := flag.String("root", ".", "module root to scan")
	flag.Parse()

	occurrences, errs := scan(*root)
	for _, e := range errs {
		fmt.Fprintln(os.Stderr, "cppdbc-lint:", e)
	}

	seen := make(map[string]occurrence)
	var dupErrs []string
	for _, occ := range occurrences {
		if first, ok := seen[occ.tag]; ok {
			dupErrs = append(dupErrs, fmt.Sprintf(
				"duplicate tag %q: %s:%d and %s:%d",
				occ.tag, first.file, first.line, occ.file, occ.line))
			continue
		}
		seen[occ.tag] = occ
	}

	if len(errs) > 0 || len(dupErrs) > 0 {
		for _, e := range dupErrs {
			fmt.Fprintln(os.Stderr, "cppdbc-lint:", e)
		}
		os.Exit(1)
	}

	fmt.Printf("cppdbc-lint: %d tag(s) checked, no violations\n", len(occurrences))
}

// scan walks root for *.go files (skipping _examples/ and test binaries'
// vendor trees) and extracts every string literal passed to a call named
// newCode, validating its shape as it goes.
func scan(root string) ([]occurrence, []string) {
	var occurrences []occurrence
	var errs []string

	fset := token.NewFileSet()
	err := filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			switch d.Name() {
			case "_examples", "vendor", ".git":
				return filepath.SkipDir
			}
			return nil
		}
		if !strings.HasSuffix(path, ".go") || strings.HasSuffix(path, "_test.go") {
			return nil
		}

		file, perr := parser.ParseFile(fset, path, nil, 0)
		if perr != nil {
			errs = append(errs, fmt.Sprintf("%s: %v", path, perr))
			return nil
		}

		ast.Inspect(file, func(n ast.Node) bool {
			call, ok := n.(*ast.CallExpr)
			if !ok {
				return true
			}
			ident, ok := call.Fun.(*ast.Ident)
			if !ok || ident.Name != "newCode" || len(call.Args) != 1 {
				return true
			}
			lit, ok := call.Args[0].(*ast.BasicLit)
			if !ok || lit.Kind != token.STRING {
				return true
			}
			value, uerr := strconv.Unquote(lit.Value)
			if uerr != nil {
				return true
			}

			pos := fset.Position(lit.Pos())
			if verr := validateTag(value); verr != nil {
				errs = append(errs, fmt.Sprintf("%s:%d: %v", pos.Filename, pos.Line, verr))
				return true
			}
			occurrences = append(occurrences, occurrence{tag: value, file: pos.Filename, line: pos.Line})
			return true
		})
		return nil
	})
	if err != nil {
		errs = append(errs, err.Error())
	}
	return occurrences, errs
}

// validateTag mirrors dberr.newCode's own format checks, so a malformed
// tag is caught by this tool before it would otherwise only surface as a
// package-init panic.
func validateTag(tag string) error {
	if len(tag) != 12 {
		return fmt.Errorf("tag %q: must be exactly 12 characters", tag)
	}

	letters := 0
	var run rune
	runLen := 0
	for _, r := range tag {
		switch {
		case r >= 'A' && r <= 'Z':
			letters++
		case r >= '0' && r <= '9':
			// digit, fine
		default:
			return fmt.Errorf("tag %q: contains non [A-Z0-9] character %q", tag, r)
		}
		if r == run {
			runLen++
		} else {
			run = r
			runLen = 1
		}
		if runLen > 4 {
			return fmt.Errorf("tag %q: run of more than 4 identical characters", tag)
		}
	}
	if letters < 5 {
		return fmt.Errorf("tag %q: fewer than 5 letters", tag)
	}
	return nil
}
