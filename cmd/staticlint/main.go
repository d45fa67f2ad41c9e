// Command staticlint is the multichecker used on the userfront sources. It runs
// a fixed set of go/analysis passes, the ineffassign and nilerr analyzers, the
// project-specific nobarehttp analyzer, and the staticcheck, simple and
// stylecheck analyzers named in config.json.
//
// config.json is read from the directory of the binary:
//
//	{"Staticcheck": ["SA1000", "SA4006", "S1000", "ST1005"]}
package main

import (
	"encoding/json"
	"os"
	"path/filepath"

	"golang.org/x/tools/go/analysis"
	"golang.org/x/tools/go/analysis/multichecker"
	"golang.org/x/tools/go/analysis/passes/copylock"
	"golang.org/x/tools/go/analysis/passes/httpresponse"
	"golang.org/x/tools/go/analysis/passes/loopclosure"
	"golang.org/x/tools/go/analysis/passes/lostcancel"
	"golang.org/x/tools/go/analysis/passes/printf"
	"golang.org/x/tools/go/analysis/passes/structtag"
	"golang.org/x/tools/go/analysis/passes/unmarshal"
	"golang.org/x/tools/go/analysis/passes/unreachable"

	"github.com/gordonklaus/ineffassign/pkg/ineffassign"
	"github.com/gostaticanalysis/nilerr"
	"honnef.co/go/tools/analysis/lint"
	"honnef.co/go/tools/simple"
	"honnef.co/go/tools/staticcheck"
	"honnef.co/go/tools/stylecheck"

	"github.com/patric-chuzhbe/userfront/cmd/staticlint/nobarehttp"
)

// Config is the name of the JSON file listing the enabled staticcheck-family analyzers.
const Config = `config.json`

// ConfigData describes the structure of the configuration file.
type ConfigData struct {
	Staticcheck []string
}

func loadConfig() (ConfigData, error) {
	var cfg ConfigData

	appfile, err := os.Executable()
	if err != nil {
		return cfg, err
	}
	data, err := os.ReadFile(filepath.Join(filepath.Dir(appfile), Config))
	if err != nil {
		return cfg, err
	}
	err = json.Unmarshal(data, &cfg)
	return cfg, err
}

func selectAnalyzers(enabled []string, groups ...[]*lint.Analyzer) []*analysis.Analyzer {
	checks := make(map[string]bool, len(enabled))
	for _, name := range enabled {
		checks[name] = true
	}

	var selected []*analysis.Analyzer
	for _, group := range groups {
		for _, v := range group {
			if checks[v.Analyzer.Name] {
				selected = append(selected, v.Analyzer)
			}
		}
	}
	return selected
}

func main() {
	cfg, err := loadConfig()
	if err != nil {
		panic(err)
	}

	myChecks := []*analysis.Analyzer{
		copylock.Analyzer,     // Checks for copying of locks by value.
		httpresponse.Analyzer, // Checks for mistakes using HTTP responses.
		loopclosure.Analyzer,  // Detects references to loop variables inside closures.
		lostcancel.Analyzer,   // Finds contexts that are not canceled.
		printf.Analyzer,       // Verifies format strings.
		structtag.Analyzer,    // Checks for incorrect struct field tags.
		unmarshal.Analyzer,    // Detects non-pointer JSON unmarshal targets.
		unreachable.Analyzer,  // Detects unreachable code.

		ineffassign.Analyzer, // Detects ineffective assignments.
		nilerr.Analyzer,      // Flags returning nil after an error was checked.

		nobarehttp.Analyzer, // Forbids the default net/http client outside apiclient.
	}

	myChecks = append(myChecks, selectAnalyzers(
		cfg.Staticcheck,
		staticcheck.Analyzers,
		simple.Analyzers,
		stylecheck.Analyzers,
	)...)

	multichecker.Main(myChecks...)
}
