// Command foilfit fits a Bezier curve to each requested side of an airfoil
// .dat file and reports the resulting deviation and edge curvature metrics.
// Optionally it renders PNG plots of the fit, an HTML convergence report,
// and records the run in a sqlite database for later comparison.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"time"

	"github.com/airshape-data/foilfit/internal/airfoil"
	"github.com/airshape-data/foilfit/internal/fit"
	"github.com/airshape-data/foilfit/internal/fitstore"
	"github.com/airshape-data/foilfit/internal/geom"
	"github.com/airshape-data/foilfit/internal/report"
	"github.com/airshape-data/foilfit/internal/version"
)

type cliConfig struct {
	DatFile       string
	Side          string
	NumPoints     int
	TargetCurvLE  float64
	LEWeighting   float64
	MaxCurvTE     float64
	PlotDir       string
	ReportDir     string
	DBPath        string
	Timeout       time.Duration
	ProgressEvery int
	Verbose       bool
	ShowVersion   bool
}

func parseFlags() cliConfig {
	var cfg cliConfig
	flag.StringVar(&cfg.DatFile, "dat", "", "airfoil .dat file (Selig format, required)")
	flag.StringVar(&cfg.Side, "side", "both", "side to fit: upper, lower or both")
	flag.IntVar(&cfg.NumPoints, "ncp", 5, "number of Bezier control points per side")
	flag.Float64Var(&cfg.TargetCurvLE, "le-curv", 0, "target leading-edge curvature (0 disables)")
	flag.Float64Var(&cfg.LEWeighting, "le-weight", 1.0, "weighting of the LE curvature target term")
	flag.Float64Var(&cfg.MaxCurvTE, "te-curv", 0, "max allowed trailing-edge curvature")
	flag.StringVar(&cfg.PlotDir, "plot-dir", "", "directory for fit and curvature PNG plots")
	flag.StringVar(&cfg.ReportDir, "report-dir", "", "directory for the HTML convergence report")
	flag.StringVar(&cfg.DBPath, "db", "", "sqlite database to record the run in")
	flag.DurationVar(&cfg.Timeout, "timeout", 0, "optional per-side fit timeout")
	flag.IntVar(&cfg.ProgressEvery, "progress-every", 10, "progress log cadence in objective evaluations")
	flag.BoolVar(&cfg.Verbose, "v", false, "log per-term cost breakdowns")
	flag.BoolVar(&cfg.ShowVersion, "version", false, "print version and exit")
	flag.Parse()
	return cfg
}

func main() {
	cfg := parseFlags()
	if cfg.ShowVersion {
		fmt.Println(version.String())
		return
	}
	if cfg.DatFile == "" {
		flag.Usage()
		os.Exit(2)
	}

	sides, err := sidesFor(cfg.Side)
	if err != nil {
		log.Fatalf("foilfit: %v", err)
	}

	foil, err := airfoil.Load(cfg.DatFile)
	if err != nil {
		log.Fatalf("foilfit: %v", err)
	}
	name := foil.Name
	if name == "" {
		name = strings.TrimSuffix(filepath.Base(cfg.DatFile), filepath.Ext(cfg.DatFile))
	}
	log.Printf("loaded %q: %d upper / %d lower samples", name, foil.Upper.Len(), foil.Lower.Len())

	var store *fitstore.Store
	if cfg.DBPath != "" {
		store, err = fitstore.Open(cfg.DBPath)
		if err != nil {
			log.Fatalf("foilfit: %v", err)
		}
		defer store.Close()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	fitCfg := fit.DefaultConfig()
	fitCfg.ProgressEvery = cfg.ProgressEvery
	fitCfg.Verbose = cfg.Verbose
	controller := fit.NewController(fitCfg)

	exitCode := 0
	for _, side := range sides {
		if err := fitSide(ctx, controller, cfg, store, name, side, foil.Side(side)); err != nil {
			log.Printf("fit %s side: %v", side, err)
			exitCode = 1
		}
	}
	os.Exit(exitCode)
}

func sidesFor(s string) ([]geom.Side, error) {
	switch s {
	case "upper":
		return []geom.Side{geom.SideUpper}, nil
	case "lower":
		return []geom.Side{geom.SideLower}, nil
	case "both":
		return []geom.Side{geom.SideUpper, geom.SideLower}, nil
	}
	return nil, fmt.Errorf("unknown side %q (want upper, lower or both)", s)
}

func fitSide(ctx context.Context, controller *fit.Controller, cfg cliConfig, store *fitstore.Store, name string, side geom.Side, target geom.TargetLine) error {
	if cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.Timeout)
		defer cancel()
	}

	req := fit.Request{
		NumControlPoints:      cfg.NumPoints,
		TargetCurvLE:          cfg.TargetCurvLE,
		TargetCurvLEWeighting: cfg.LEWeighting,
		MaxCurvTE:             cfg.MaxCurvTE,
		RecordHistory:         cfg.ReportDir != "",
		OnProgress: func(nEvals int, deviation, curvLE, curvTE float64) {
			log.Printf("%s: eval=%d deviation=%.4f curvLE=%.2f curvTE=%.3f", side, nEvals, deviation, curvLE, curvTE)
		},
	}

	start := time.Now()
	res, err := controller.RunFit(ctx, side, target, req)
	if err != nil {
		return err
	}

	status := "converged"
	if res.Cancelled {
		status = "cancelled"
	}
	log.Printf("%s side %s in %s: deviation=%.4f curvLE=%.2f curvTE=%.3f (%d evaluations, %d iterations)",
		side, status, time.Since(start).Round(time.Millisecond),
		res.Deviation, res.CurvLE, res.CurvTE, res.NEvaluations, res.NIterations)

	if cfg.PlotDir != "" {
		base := filepath.Join(cfg.PlotDir, fmt.Sprintf("%s_%s", sanitize(name), side))
		title := fmt.Sprintf("%s %s side", name, side)
		if err := report.SaveFitPlot(base+"_fit.png", title, target, res.Curve); err != nil {
			return err
		}
		if err := report.SaveCurvaturePlot(base+"_curvature.png", title+" curvature", res.Curve, side); err != nil {
			return err
		}
	}
	if cfg.ReportDir != "" {
		path := filepath.Join(cfg.ReportDir, fmt.Sprintf("%s_%s_convergence.html", sanitize(name), side))
		title := fmt.Sprintf("%s %s side convergence", name, side)
		if err := report.SaveConvergenceHTML(path, title, res.History); err != nil {
			return err
		}
	}
	if store != nil {
		params, err := json.Marshal(map[string]interface{}{
			"target_curv_le": cfg.TargetCurvLE,
			"le_weighting":   cfg.LEWeighting,
			"max_curv_te":    cfg.MaxCurvTE,
		})
		if err != nil {
			return fmt.Errorf("marshal run params: %w", err)
		}
		run := &fitstore.FitRun{
			Airfoil:          name,
			Side:             side.String(),
			NumControlPoints: cfg.NumPoints,
			ParamsJSON:       params,
			Deviation:        res.Deviation,
			CurvLE:           res.CurvLE,
			CurvTE:           res.CurvTE,
			NEvaluations:     res.NEvaluations,
			NIterations:      res.NIterations,
			Cancelled:        res.Cancelled,
		}
		if err := store.Insert(run); err != nil {
			return err
		}
		log.Printf("%s: recorded run %s", side, run.RunID)
	}
	return nil
}

func sanitize(name string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		}
		return '_'
	}, name)
}
