package main

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"go/ast"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"golang.org/x/tools/go/analysis"
	"golang.org/x/tools/go/analysis/passes/inspect"
	"golang.org/x/tools/go/analysis/singlechecker"
	"golang.org/x/tools/go/ast/inspector"

	"github.com/sirkon/vartrace/internal/config"
	"github.com/sirkon/vartrace/internal/ir"
	"github.com/sirkon/vartrace/internal/lowering"
	"github.com/sirkon/vartrace/internal/optimize"
	"github.com/sirkon/vartrace/internal/persist"
	"github.com/sirkon/vartrace/internal/variables"
)

const doc = `vartrace reports stores that are never read, self assignments and stores of values that always panic

Function bodies are lowered into a small IR and optimized with variable traces, every
change pointing to a likely mistake becomes a diagnostic.`

// Analyzer is the main entry point for the linter
var Analyzer = &analysis.Analyzer{
	Name:     "vartrace",
	Doc:      doc,
	Requires: []*analysis.Analyzer{inspect.Analyzer},
	Run:      run,
}

var (
	configPath string
	logLevel   = slog.LevelWarn
	summary    bool
	dumpDir    string
)

func init() {
	Analyzer.Flags.StringVar(&configPath, "config", "", "path to the YAML config")
	Analyzer.Flags.TextVar(&logLevel, "log-level", slog.LevelWarn, "level of optimizer logs written to stderr")
	Analyzer.Flags.BoolVar(&summary, "summary", false, "print every change applied to stderr")
	Analyzer.Flags.StringVar(&dumpDir, "dump", "", "directory to write optimized function trees to")
}

func main() {
	singlechecker.Main(Analyzer)
}

func run(pass *analysis.Pass) (any, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	pector := pass.ResultOf[inspect.Analyzer].(*inspector.Inspector)
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel})).
		With("package", pass.Pkg.Path())

	reg := variables.NewRegistry(pass.Pkg.Path())
	tr := lowering.New(reg, pass.Pkg, pass.TypesInfo, newCallClassifier(pass.TypesInfo, cfg))

	nodeFilter := []ast.Node{
		(*ast.FuncDecl)(nil),
	}

	var units []*ir.Unit
	pector.Preorder(nodeFilter, func(node ast.Node) {
		n := node.(*ast.FuncDecl) // No need to assert check since we only get func decls.

		us, err := tr.TranslateFunc(n)
		if err != nil {
			logger.Debug("function skipped", "func", n.Name.Name, "err", err)
			return
		}
		units = append(units, us...)
	})

	reporter := &optimize.Reporter{}
	opts := optimize.Options{
		Logger:     logger,
		Reporter:   reporter,
		Forwarding: cfg.Forwarding,
		MaxSweeps:  cfg.MaxSweeps,
		Workers:    cfg.Workers,
	}
	results, err := optimize.OptimizeUnits(context.Background(), reg, units, opts)
	if err != nil {
		for _, res := range results {
			if res.Err == nil {
				continue
			}

			var ierr *variables.InternalError
			if errors.As(res.Err, &ierr) {
				logger.Error("optimizer failure", "unit", res.Unit.Scope.Name, "err", res.Err)
				continue
			}
			logger.Warn("unit not optimized", "unit", res.Unit.Scope.Name, "err", res.Err)
		}
	}

	if summary {
		if err := reporter.PrintSummary(os.Stderr, pass.Fset); err != nil {
			return nil, fmt.Errorf("print summary: %w", err)
		}
	}

	if dumpDir != "" {
		if err := dumpUnits(pass.Pkg.Path(), results); err != nil {
			return nil, fmt.Errorf("dump trees: %w", err)
		}
	}

	reportChanges(pass, cfg, completedReports(results, reporter.Reports()))
	return nil, nil
}

// completedReports drops reports of units whose optimization failed, these have
// no output.
func completedReports(results []optimize.UnitResult, reports []optimize.Report) []optimize.Report {
	failed := map[string]struct{}{}
	for _, res := range results {
		if res.Err != nil {
			failed[res.Unit.Scope.Name] = struct{}{}
		}
	}
	if len(failed) == 0 {
		return reports
	}

	return slices.DeleteFunc(reports, func(rep optimize.Report) bool {
		_, ok := failed[rep.Unit]
		return ok
	})
}

// dumpUnits writes trees of successfully optimized units, one file per unit.
func dumpUnits(pkgPath string, results []optimize.UnitResult) error {
	if err := os.MkdirAll(dumpDir, 0o755); err != nil {
		return fmt.Errorf("create dump directory: %w", err)
	}

	for _, res := range results {
		if res.Err != nil {
			continue
		}

		data, err := persist.Export(res.Unit)
		if err != nil {
			return fmt.Errorf("export %s: %w", res.Unit.Scope.Name, err)
		}

		name := strings.NewReplacer("/", "_", "*", "").Replace(pkgPath + "." + res.Unit.Scope.Name)
		if err := os.WriteFile(filepath.Join(dumpDir, name+".yaml"), data, 0o644); err != nil {
			return fmt.Errorf("write %s tree: %w", res.Unit.Scope.Name, err)
		}
	}

	return nil
}

// reportChanges turns changes into diagnostics, one per position and rule.
func reportChanges(pass *analysis.Pass, cfg *config.Config, reports []optimize.Report) {
	slices.SortStableFunc(reports, func(a, b optimize.Report) int {
		return cmp.Or(cmp.Compare(a.Pos, b.Pos), cmp.Compare(a.RuleCode, b.RuleCode))
	})

	type key struct {
		pos  int
		rule int
	}
	seen := map[key]struct{}{}
	for _, rep := range reports {
		if !rep.Pos.IsValid() {
			continue
		}
		if cfg.Report != config.ReportAll && !rep.RuleCode.Finding() {
			continue
		}

		k := key{pos: int(rep.Pos), rule: int(rep.RuleCode)}
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}

		pass.Reportf(rep.Pos, "%s (%s)", rep.Message, rep.RuleCode)
	}
}
