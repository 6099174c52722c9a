// Command topdubins runs the branch-and-price TOP-Dubins solver of
// spec.md §6 over one instance file and writes a YAML result record.
//
// Flag parsing and process exit codes are grounded on spec.md §6's CLI
// table directly; this package is the "CLI argument parsing" external
// collaborator spec.md §1 places out of the engine's scope, so it is
// the thinnest possible layer over pkg/instance, pkg/coordinator and
// pkg/plumbing.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gitrdm/topdubins/pkg/coordinator"
	"github.com/gitrdm/topdubins/pkg/instance"
	"github.com/gitrdm/topdubins/pkg/plumbing"
	"gopkg.in/yaml.v3"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, "topdubins:", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	params, instanceName, instanceDir, err := parseFlags(args)
	if err != nil {
		return fmt.Errorf("%w: %v", plumbing.ErrCLIInvalid, err)
	}

	instancePath := filepath.Join(instanceDir, instanceName)
	inst, err := instance.Load(instancePath, instance.LoadOptions{
		Discretizations: params.Discretizations,
		TurnRadius:      params.TurnRadius,
		Geo:             instance.DefaultDubins{},
	})
	if err != nil {
		return err
	}

	if params.Algorithm == plumbing.AlgorithmBranchAndCut {
		return fmt.Errorf("%w: -a 1 (branch-and-cut baseline) is an external black-box solver not implemented by this binary", plumbing.ErrCLIInvalid)
	}

	start := time.Now()
	c := coordinator.New(inst, params)
	res, err := c.Run(context.Background())
	if err != nil {
		return err
	}
	elapsed := time.Since(start)

	record := buildRecord(params, instanceName, instancePath, inst, res, elapsed)
	return writeYAML(params.OutputPath, record)
}

func parseFlags(args []string) (plumbing.Params, string, string, error) {
	d := plumbing.DefaultParams()
	fs := flag.NewFlagSet("topdubins", flag.ContinueOnError)

	name := fs.String("n", "", "instance file name")
	dir := fs.String("p", "", "instance folder")
	out := fs.String("o", d.OutputPath, "output path (must end .yaml)")
	algo := fs.Int("a", int(d.Algorithm), "1=branch-and-cut baseline, 2=branch-and-price")
	cap_ := fs.Int("c", d.ColumnCap, "per-node cap on negative-reduced-cost columns")
	disc := fs.Int("d", d.Discretizations, "heading discretizations")
	interleaved := fs.Int("i", 0, "0=simple DSSR, 1=interleaved I-DSSR")
	radius := fs.Float64("r", d.TurnRadius, "vehicle turn radius")
	relaxedDom := fs.Int("rd", 1, "1=relaxed dominance, 0=strict")
	workers := fs.Int("s", d.Workers, "worker count")
	deadline := fs.Int("t", int(d.Deadline/time.Second), "deadline in seconds")
	numTargetsCap := fs.Int("u", 0, "use numTargetsVisited as additional dominance dimension")

	if err := fs.Parse(args); err != nil {
		return plumbing.Params{}, "", "", err
	}

	if *name == "" {
		return plumbing.Params{}, "", "", errors.New("-n instance file name is required")
	}
	if !strings.HasSuffix(*out, ".yaml") {
		return plumbing.Params{}, "", "", fmt.Errorf("-o %q must end in .yaml", *out)
	}
	if *algo != 1 && *algo != 2 {
		return plumbing.Params{}, "", "", fmt.Errorf("-a %d must be 1 or 2", *algo)
	}
	if *cap_ < 1 {
		return plumbing.Params{}, "", "", fmt.Errorf("-c %d must be >= 1", *cap_)
	}
	if *disc < 1 {
		return plumbing.Params{}, "", "", fmt.Errorf("-d %d must be >= 1", *disc)
	}
	if *interleaved != 0 && *interleaved != 1 {
		return plumbing.Params{}, "", "", fmt.Errorf("-i %d must be 0 or 1", *interleaved)
	}
	if *radius <= 0 {
		return plumbing.Params{}, "", "", fmt.Errorf("-r %g must be > 0", *radius)
	}
	if *relaxedDom != 0 && *relaxedDom != 1 {
		return plumbing.Params{}, "", "", fmt.Errorf("-rd %d must be 0 or 1", *relaxedDom)
	}
	if *workers < 1 {
		return plumbing.Params{}, "", "", fmt.Errorf("-s %d must be >= 1", *workers)
	}
	if *deadline <= 0 {
		return plumbing.Params{}, "", "", fmt.Errorf("-t %d must be > 0", *deadline)
	}
	if *numTargetsCap != 0 && *numTargetsCap != 1 {
		return plumbing.Params{}, "", "", fmt.Errorf("-u %d must be 0 or 1", *numTargetsCap)
	}

	p := plumbing.Params{
		InstanceName:     *name,
		InstanceDir:      *dir,
		OutputPath:       *out,
		Algorithm:        plumbing.Algorithm(*algo),
		ColumnCap:        *cap_,
		Discretizations:  *disc,
		Interleaved:      *interleaved == 1,
		TurnRadius:       *radius,
		RelaxedDominance: *relaxedDom == 1,
		Workers:          *workers,
		Deadline:         time.Duration(*deadline) * time.Second,
		NumTargetsCapDim: *numTargetsCap == 1,
		Epsilon:          d.Epsilon,
	}
	return p, *name, *dir, nil
}

func buildRecord(p plumbing.Params, name, path string, inst *instance.Instance, res coordinator.Result, elapsed time.Duration) plumbing.SolutionRecord {
	search := "simple"
	if p.Interleaved {
		search = "interleaved"
	}

	rootUB := plumbing.Bound(res.RootUpperBound)
	finalUB := plumbing.Bound(res.UpperBound)

	return plumbing.SolutionRecord{
		InstanceName:          name,
		InstancePath:          path,
		Algorithm:             algorithmName(p.Algorithm),
		TimeLimitSeconds:      p.Deadline.Seconds(),
		TurnRadius:            p.TurnRadius,
		NumDiscretizations:    p.Discretizations,
		NumReducedCostColumns: p.ColumnCap,
		NumSolverCoroutines:   p.Workers,
		Search:                search,
		Budget:                inst.Budget,

		RootLowerBound:    res.RootLowerBound,
		RootUpperBound:    rootUB,
		RootLPOptimal:     res.RootLPOptimal,
		RootGapPercentage: plumbing.GapPercentage(res.RootLowerBound, res.RootUpperBound),

		FinalLowerBound:    res.LowerBound,
		FinalUpperBound:    finalUB,
		FinalGapPercentage: plumbing.GapPercentage(res.LowerBound, res.UpperBound),

		OptimalityReached:   res.OptimalityReached,
		NumNodesSolved:      res.NodesCreated,
		MaximumParallel:     res.MaxParallel,
		SolutionTimeSeconds: elapsed.Seconds(),
	}
}

func algorithmName(a plumbing.Algorithm) string {
	if a == plumbing.AlgorithmBranchAndCut {
		return "branch-and-cut"
	}
	return "branch-and-price"
}

func writeYAML(path string, record plumbing.SolutionRecord) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("topdubins: create output dir %s: %w", dir, err)
		}
	}
	data, err := yaml.Marshal(record)
	if err != nil {
		return fmt.Errorf("topdubins: marshal result: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("topdubins: write %s: %w", path, err)
	}
	return nil
}
