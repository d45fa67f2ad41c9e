package nobarehttp

import (
	"go/ast"
	"go/types"
	"path/filepath"
	"strings"

	"golang.org/x/tools/go/analysis"
)

// Analyzer reports calls to the package-level net/http helpers (http.Get,
// http.Post, http.Head, http.PostForm) and uses of http.DefaultClient outside
// the apiclient package. Remote API traffic has to go through the configured
// client so that timeouts, request ids and error mapping stay uniform.
var Analyzer = &analysis.Analyzer{
	Name: "nobarehttp",
	Doc:  "prohibits the default net/http client outside the apiclient package",
	Run:  run,
}

const allowedPackage = "apiclient"

var forbidden = map[string]bool{
	"Get":           true,
	"Post":          true,
	"Head":          true,
	"PostForm":      true,
	"DefaultClient": true,
}

func run(pass *analysis.Pass) (interface{}, error) {
	if isAllowedPackage(pass.Pkg.Path()) {
		return nil, nil
	}

	for _, file := range pass.Files {
		// Exclude go-build cache files
		filename := pass.Fset.File(file.Pos()).Name()
		if isGoBuildCacheFile(filename) {
			continue
		}

		ast.Inspect(file, func(n ast.Node) bool {
			sel, ok := n.(*ast.SelectorExpr)
			if !ok || !forbidden[sel.Sel.Name] {
				return true
			}

			pkgIdent, ok := sel.X.(*ast.Ident)
			if !ok {
				return true
			}
			if _, isPkg := pass.TypesInfo.Uses[pkgIdent].(*types.PkgName); !isPkg {
				return true
			}

			obj := pass.TypesInfo.Uses[sel.Sel]
			if obj == nil || obj.Pkg() == nil || obj.Pkg().Path() != "net/http" {
				return true
			}

			switch obj.(type) {
			case *types.Func, *types.Var:
				pass.Reportf(sel.Pos(), "avoid http.%s, use the apiclient package", sel.Sel.Name)
			}

			return true
		})
	}
	return nil, nil
}

func isAllowedPackage(path string) bool {
	return path == allowedPackage || strings.HasSuffix(path, "/"+allowedPackage)
}

func isGoBuildCacheFile(path string) bool {
	path = filepath.ToSlash(path)
	return strings.Contains(path, "/go-build/") || strings.Contains(path, `\go-build\`)
}
