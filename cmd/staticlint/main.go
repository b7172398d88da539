// Command staticlint runs the analyzers the usrinfo project is checked with.
//
// Vet passes from golang.org/x/tools, the ineffassign and nilerr analyzers
// and the project noosexit analyzer always run. The staticcheck analyzers
// are opt-in: their names (e.g. "SA1000", "SA4006") are listed in a JSON file
// located next to the binary or pointed to by STATICLINT_CONFIG.
//
//	staticlint ./...
package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/gordonklaus/ineffassign/pkg/ineffassign"
	"github.com/gostaticanalysis/nilerr"
	"golang.org/x/tools/go/analysis"
	"golang.org/x/tools/go/analysis/multichecker"
	"golang.org/x/tools/go/analysis/passes/copylock"
	"golang.org/x/tools/go/analysis/passes/errorsas"
	"golang.org/x/tools/go/analysis/passes/httpresponse"
	"golang.org/x/tools/go/analysis/passes/loopclosure"
	"golang.org/x/tools/go/analysis/passes/lostcancel"
	"golang.org/x/tools/go/analysis/passes/nilness"
	"golang.org/x/tools/go/analysis/passes/printf"
	"golang.org/x/tools/go/analysis/passes/structtag"
	"golang.org/x/tools/go/analysis/passes/unmarshal"
	"golang.org/x/tools/go/analysis/passes/unreachable"
	"golang.org/x/tools/go/analysis/passes/unusedresult"
	"honnef.co/go/tools/staticcheck"

	"github.com/patric-chuzhbe/usrinfo/cmd/staticlint/noosexit"
)

// configName is looked up in the binary's directory when STATICLINT_CONFIG is unset.
const configName = `config.json`

// ConfigData is the layout of the configuration file.
type ConfigData struct {
	Staticcheck []string `json:"staticcheck"`
}

func configPath() (string, error) {
	if path := os.Getenv("STATICLINT_CONFIG"); path != "" {
		return path, nil
	}

	appfile, err := os.Executable()
	if err != nil {
		return "", err
	}

	return filepath.Join(filepath.Dir(appfile), configName), nil
}

func loadConfig() (ConfigData, error) {
	var cfg ConfigData

	path, err := configPath()
	if err != nil {
		return cfg, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("in cmd/staticlint/main.go/loadConfig(): error while `os.ReadFile()` calling: %w", err)
	}

	if err := json.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("in cmd/staticlint/main.go/loadConfig(): error while `json.Unmarshal()` calling: %w", err)
	}

	return cfg, nil
}

// analyzers returns the always-on set followed by the enabled staticcheck ones.
func analyzers(cfg ConfigData) []*analysis.Analyzer {
	checks := []*analysis.Analyzer{
		copylock.Analyzer,
		errorsas.Analyzer,
		httpresponse.Analyzer,
		loopclosure.Analyzer,
		lostcancel.Analyzer,
		nilness.Analyzer,
		printf.Analyzer,
		structtag.Analyzer,
		unmarshal.Analyzer,
		unreachable.Analyzer,
		unusedresult.Analyzer,

		ineffassign.Analyzer,
		nilerr.Analyzer,

		noosexit.Analyzer,
	}

	enabled := make(map[string]bool, len(cfg.Staticcheck))
	for _, name := range cfg.Staticcheck {
		enabled[name] = true
	}

	for _, v := range staticcheck.Analyzers {
		if enabled[v.Analyzer.Name] {
			checks = append(checks, v.Analyzer)
		}
	}

	return checks
}

func main() {
	cfg, err := loadConfig()
	if err != nil {
		panic(err)
	}

	multichecker.Main(analyzers(cfg)...)
}
