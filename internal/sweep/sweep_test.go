package sweep_test

import (
	"context"
	"errors"
	"fmt"
	"os"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
	"github.com/vk/dmsweep/internal/compute"
	"github.com/vk/dmsweep/internal/config"
	"github.com/vk/dmsweep/internal/inmemoryledger"
	"github.com/vk/dmsweep/internal/invoke"
	"github.com/vk/dmsweep/internal/ledger"
	"github.com/vk/dmsweep/internal/observability"
	"github.com/vk/dmsweep/internal/sweep"
	tu "github.com/vk/dmsweep/internal/testutil"
)

type fixture struct {
	halo    *tu.FakeHalo
	engine  *tu.RecordingEngine
	plotter *tu.RecordingPlotter
	metrics *observability.Metrics
	ledger  *inmemoryledger.Ledger
	sweep   *sweep.Engine
}

func newFixture(t *testing.T, ctx context.Context, opts config.Options, h *tu.FakeHalo) *fixture {
	t.Helper()
	cfg, err := config.New(ctx, opts, h)
	require.NoError(t, err)

	f := &fixture{
		halo:    h,
		engine:  &tu.RecordingEngine{Errs: map[string]error{}},
		plotter: &tu.RecordingPlotter{},
		metrics: observability.NewMetrics(),
		ledger:  inmemoryledger.New(),
	}
	f.sweep, err = sweep.New(sweep.Deps{
		Config:  cfg,
		Halo:    h,
		Compute: f.engine,
		Plotter: f.plotter,
		Ledger:  f.ledger,
		Metrics: f.metrics,
		RunID:   "test-run",
	})
	require.NoError(t, err)
	return f
}

func indepOptions(experiments ...string) config.Options {
	opts := config.DefaultOptions()
	opts.Experiments = experiments
	opts.OutputMainDir = "out"
	return opts
}

func TestRun_TwoExperimentsNoPlot(t *testing.T) {
	t.Parallel()
	ctx, _ := tu.NewContext(t)

	h := &tu.FakeHalo{Points: []config.ParameterPoint{{Mx: 9, Fn: 1, Delta: 0, MPhi: 1000}}}
	f := newFixture(t, ctx, indepOptions("SuperCDMS", "LUX2013zero"), h)

	rep, err := f.sweep.Run(ctx, sweep.RunOptions{ExportPlot: true})
	require.NoError(t, err)

	require.Equal(t, []string{"single:SuperCDMS", "single:LUX2013zero"}, f.engine.Order())
	require.Equal(t, 2, rep.Calls)
	require.Equal(t, 2, rep.Invocations)
	require.Empty(t, rep.Skips)
	require.Empty(t, f.plotter.Ops(), "plotting is off in halo-independent mode")
	require.Empty(t, rep.PlotFiles)

	for _, snap := range f.engine.Snapshots() {
		q, ok := snap.Quenching.Scalar()
		require.True(t, ok, "single-token experiments get a scalar quenching")
		require.Nil(t, q)
		require.Equal(t, []float64{9, 1000, 50}, snap.VminRange)
		require.Equal(t, 9.0, *snap.Mx)
	}

	entries, err := f.ledger.Entries(ctx, "test-run")
	require.NoError(t, err)
	require.Len(t, entries, 2)
	require.Equal(t, ledger.StatusOK, entries[1].Status)
	require.Equal(t, 2.0, testutil.ToFloat64(f.metrics.InvocationCounter.WithLabelValues("single", "ok")))
}

func TestRun_ThreePointsExportDistinctPlots(t *testing.T) {
	t.Parallel()
	ctx, _ := tu.NewContext(t)

	h := &tu.FakeHalo{Points: []config.ParameterPoint{
		{Mx: 7, Fn: 1, MPhi: 1000},
		{Mx: 9, Fn: 1, MPhi: 1000},
		{Mx: 11, Fn: 1, MPhi: 1000},
	}}
	opts := indepOptions("SuperCDMS", "LUX2013zero")
	opts.Flags.MakePlot = true
	opts.FilenameTails = []string{"_v1"}
	f := newFixture(t, ctx, opts, h)

	rep, err := f.sweep.Run(ctx, sweep.RunOptions{
		ExportPlot: true,
		XLim:       &config.Limits{Min: 0, Max: 1000},
	})
	require.NoError(t, err)

	require.Len(t, f.engine.Snapshots(), 6)
	saved := f.plotter.Saved()
	require.Len(t, saved, 3)
	require.Equal(t, saved, rep.PlotFiles)
	seen := map[string]bool{}
	for _, p := range saved {
		require.False(t, seen[p], "duplicate plot file %s", p)
		seen[p] = true
	}
	require.Equal(t, "out/HaloIndep_SI_mx_7GeV_fnfp_1_delta_0keV_mphi_1000MeV_v1.pdf", saved[0])

	require.Equal(t, []string{
		"legend", "limits", "save", "reset",
		"legend", "limits", "save", "reset",
		"legend", "limits", "save", "reset",
	}, f.plotter.Ops())
	require.Equal(t, 3.0, testutil.ToFloat64(f.metrics.IterationsTotal))
}

func TestRun_PlotWithoutExportKeepsState(t *testing.T) {
	t.Parallel()
	ctx, _ := tu.NewContext(t)

	h := &tu.FakeHalo{Points: []config.ParameterPoint{{Mx: 7}, {Mx: 8}}}
	opts := indepOptions("SuperCDMS")
	opts.EHIMethod = map[string]bool{"ConfidenceBandPlot": true}
	f := newFixture(t, ctx, opts, h)

	_, err := f.sweep.Run(ctx, sweep.RunOptions{})
	require.NoError(t, err)
	require.Equal(t, []string{"legend", "legend"}, f.plotter.Ops())
}

func TestRun_MultiExperimentPass(t *testing.T) {
	t.Parallel()
	ctx, _ := tu.NewContext(t)

	h := &tu.FakeHalo{Points: []config.ParameterPoint{{Mx: 9, Fn: 1, MPhi: 1000}, {Mx: 10, Fn: 1, MPhi: 1000}}}
	opts := indepOptions("SuperCDMS", "CDMSSi2012", "LUX2013zero")
	opts.ExperimentSelector = config.Indices(0, 1)
	opts.Flags.MultiExper = true
	opts.MultiExperSelector = config.Indices(1, 2)
	opts.EHIMethod = map[string]bool{"ConfidenceBand": true}
	f := newFixture(t, ctx, opts, h)

	rep, err := f.sweep.Run(ctx, sweep.RunOptions{})
	require.NoError(t, err)

	require.Equal(t, []string{
		"single:SuperCDMS", "single:CDMSSi2012", "multi:CDMSSi2012",
		"single:SuperCDMS", "single:CDMSSi2012", "multi:CDMSSi2012",
	}, f.engine.Order())
	require.Equal(t, 4, rep.Calls)
	require.Equal(t, 2, rep.MultiCalls)

	multi := f.engine.MultiSnapshots()[0]
	q, ok := multi.Quenching.Scalar()
	require.True(t, ok)
	require.Equal(t, 1.0, *q)
	require.Equal(t, []string{"CDMSSi2012", "LUX2013zero"}, multi.MultiExperInput)
	require.Equal(t, []float64{9, 900, 10}, multi.VminEHIBandRange)
	require.Equal(t, -9.0, *multi.LogetaGuess)
	require.Contains(t, h.Calls(), "VminRange(CDMSSi2012,9,1,true)")

	// Multi-experiment mode disables the per-experiment EHI dispatch, so the
	// single CDMSSi2012 call only carries the band range refreshed in the
	// quenching loop.
	single := f.engine.Snapshots()[1]
	require.Equal(t, "CDMSSi2012", single.ExperName)
	require.Equal(t, []float64{9, 900, 10}, single.VminEHIBandRange)
	require.Nil(t, single.LogetaGuess)
}

func TestRun_MultiExperimentEmptySubset(t *testing.T) {
	t.Parallel()
	ctx, _ := tu.NewContext(t)

	h := &tu.FakeHalo{Points: []config.ParameterPoint{{Mx: 9}}}
	opts := indepOptions("SuperCDMS")
	opts.Flags.MultiExper = true
	opts.MultiExperSelector = config.Indices()
	f := newFixture(t, ctx, opts, h)

	_, err := f.sweep.Run(ctx, sweep.RunOptions{})
	require.NoError(t, err)
	require.Equal(t, []string{"single:SuperCDMS"}, f.engine.Order())
}

func TestRun_EHIDispatch(t *testing.T) {
	t.Parallel()
	ctx, _ := tu.NewContext(t)

	h := &tu.FakeHalo{Points: []config.ParameterPoint{{Mx: 9, Fn: 1, MPhi: 1000}}}
	opts := indepOptions("CDMSSi2012", "SuperCDMS")
	opts.EHIMethod = map[string]bool{"OptimalLikelihood": true}
	f := newFixture(t, ctx, opts, h)

	_, err := f.sweep.Run(ctx, sweep.RunOptions{})
	require.NoError(t, err)

	snaps := f.engine.Snapshots()
	require.Len(t, snaps, 2)
	require.Equal(t, []float64{9, 900, 10}, snaps[0].VminEHIBandRange)
	require.Equal(t, []float64{0.2, 0.2, 20}, snaps[0].LogetaEHIBandPercentRange)
	require.Equal(t, []float64{1.5, 2.5, 1}, snaps[0].Steepness)
	require.Equal(t, -9.0, *snaps[0].LogetaGuess)
	require.True(t, snaps[0].EHIMethod.OptimalLikelihood)
	require.Contains(t, h.Calls(), "VminRange(CDMSSi2012,9,nil,true)")
}

func TestRun_SHMEtaLogSigmaP(t *testing.T) {
	t.Parallel()
	ctx, _ := tu.NewContext(t)

	h := &tu.FakeHalo{
		Points:     []config.ParameterPoint{{Mx: 9, Fn: 2, MPhi: 1000}, {Mx: 10, Fn: 2, MPhi: 1000}},
		LogSigmaP0: -30,
	}
	opts := indepOptions("SuperCDMS", "SHM_eta0", "LUX2013zero")
	opts.Flags.MakePlot = true
	f := newFixture(t, ctx, opts, h)

	_, err := f.sweep.Run(ctx, sweep.RunOptions{})
	require.NoError(t, err)

	snaps := f.engine.Snapshots()
	require.Len(t, snaps, 6)
	require.Nil(t, snaps[0].LogSigmaP, "unset before the SHM experiment")
	require.Equal(t, -39.0, *snaps[1].LogSigmaP)
	require.Equal(t, -39.0, *snaps[2].LogSigmaP, "persists for the rest of the point")
	require.Nil(t, snaps[3].LogSigmaP, "reset at the next point")
	require.Equal(t, -40.0, *snaps[4].LogSigmaP)
	require.Contains(t, h.Calls(), "LogSigmaP(9,0,2)")

	legends := f.plotter.Legends()
	require.Len(t, legends, 2)
	require.Equal(t, -39.0, *legends[0].LogSigmaP)
	require.Equal(t, 9.0, *legends[0].Mx)
}

func TestRun_QuenchingCandidates(t *testing.T) {
	t.Parallel()
	ctx, _ := tu.NewContext(t)

	h := &tu.FakeHalo{Points: []config.ParameterPoint{{Mx: 9, Fn: 1, MPhi: 1000}}}
	f := newFixture(t, ctx, indepOptions("DAMA2010Na", "DAMA2010Na DAMA2010I"), h)

	_, err := f.sweep.Run(ctx, sweep.RunOptions{})
	require.NoError(t, err)

	snaps := f.engine.Snapshots()
	require.Len(t, snaps, 4)

	q0, ok := snaps[0].Quenching.Scalar()
	require.True(t, ok)
	require.Equal(t, 0.4, *q0)
	q1, _ := snaps[1].Quenching.Scalar()
	require.Equal(t, 0.3, *q1)

	_, ok = snaps[2].Quenching.Scalar()
	require.False(t, ok, "two-token experiments keep the tuple")
	tuple := snaps[2].Quenching.Tuple()
	require.Equal(t, 0.4, *tuple[0])
	require.Equal(t, 0.09, *tuple[1])

	require.Equal(t, []string{
		"VminRange(DAMA2010Na,9,0.4,false)",
		"VminRange(DAMA2010Na,9,0.3,false)",
		"VminRange(DAMA2010Na,9,0.4,false)",
		"VminRange(DAMA2010Na,9,0.3,false)",
	}, h.Calls())
}

func TestRun_HaloDepMissingMassRange(t *testing.T) {
	t.Parallel()
	ctx, logs := tu.NewContext(t)

	h := &tu.FakeHalo{
		Points:     []config.ParameterPoint{{Fn: 1, Delta: 0, MPhi: 1000}},
		MassRanges: map[string][]float64{},
	}
	opts := indepOptions("XENON10")
	opts.HaloDep = true
	f := newFixture(t, ctx, opts, h)

	rep, err := f.sweep.Run(ctx, sweep.RunOptions{ExportPlot: true})
	require.NoError(t, err)

	require.Empty(t, f.engine.Order())
	require.Len(t, rep.Skips, 1)
	require.Equal(t, invoke.ReasonNoMassRange, rep.Skips[0].Reason)
	require.Equal(t, "XENON10", rep.Skips[0].ExperName)
	require.Contains(t, logs.String(), "No mass range for experiment")
	require.Equal(t, 1.0, testutil.ToFloat64(f.metrics.SkipCounter.WithLabelValues(invoke.ReasonNoMassRange)))

	// The legend is rendered even though plotting is off.
	require.Equal(t, []string{"legend"}, f.plotter.Ops())
	require.True(t, f.plotter.Legends()[0].HaloDep)
	require.Nil(t, f.plotter.Legends()[0].Mx)
}

func TestRun_HaloDep(t *testing.T) {
	t.Parallel()
	ctx, _ := tu.NewContext(t)

	h := &tu.FakeHalo{
		Points: []config.ParameterPoint{{Fn: 1, Delta: 50, MPhi: 1000}},
		MassRanges: map[string][]float64{
			"DAMA2010Na": {3, 100, 40},
			"SuperCDMS":  {5, 200, 20},
		},
	}
	opts := indepOptions("DAMA2010Na DAMA2010I", "XENON10", "SuperCDMS")
	opts.HaloDep = true
	opts.Flags.MakePlot = true
	opts.ScatteringTypes = config.ScatteringTypes("SI", "SDPS")
	f := newFixture(t, ctx, opts, h)
	f.engine.Errs["SuperCDMS"] = fmt.Errorf("load table: %w", compute.ErrMissingArtifact)

	rep, err := f.sweep.Run(ctx, sweep.RunOptions{ExportPlot: true})
	require.NoError(t, err)

	// Per scattering type: 2 DAMA candidates + 1 SuperCDMS attempt.
	require.Len(t, f.engine.Snapshots(), 6)
	require.Equal(t, 4, rep.Calls)
	require.Len(t, rep.Skips, 4)
	require.Equal(t, invoke.ReasonNoMassRange, rep.Skips[0].Reason)
	require.Equal(t, invoke.ReasonMissingArtifact, rep.Skips[1].Reason)

	first := f.engine.Snapshots()[0]
	require.Equal(t, []float64{3, 100, 40}, first.MxRange)
	require.Nil(t, first.Mx)
	require.Contains(t, h.Calls(), "MassRange(DAMA2010Na,50,1000,0.4)")
	require.Contains(t, h.Calls(), "MassRange(DAMA2010Na,50,1000,0.3)")

	require.Equal(t, []string{
		"out/HaloDep_SI_fnfp_1_delta_50keV_mphi_1000MeV.pdf",
		"out/HaloDep_SDPS_fnfp_1_delta_50keV_mphi_1000MeV.pdf",
	}, rep.PlotFiles)
}

func TestRun_FatalErrorAborts(t *testing.T) {
	t.Parallel()
	ctx, _ := tu.NewContext(t)

	h := &tu.FakeHalo{Points: []config.ParameterPoint{{Mx: 9}, {Mx: 10}}}
	f := newFixture(t, ctx, indepOptions("SuperCDMS", "LUX2013zero"), h)
	boom := errors.New("segfault in likelihood")
	f.engine.Errs["SuperCDMS"] = boom

	rep, err := f.sweep.Run(ctx, sweep.RunOptions{})
	require.ErrorIs(t, err, boom)
	require.NotNil(t, rep)
	require.Equal(t, 1, rep.Invocations)
	require.Equal(t, []string{"single:SuperCDMS"}, f.engine.Order())
}

func TestRun_MissingFileInHaloIndepIsSkipped(t *testing.T) {
	t.Parallel()
	ctx, _ := tu.NewContext(t)

	h := &tu.FakeHalo{Points: []config.ParameterPoint{{Mx: 9}}}
	f := newFixture(t, ctx, indepOptions("SuperCDMS", "LUX2013zero"), h)
	f.engine.Errs["SuperCDMS"] = &os.PathError{Op: "open", Path: "x.dat", Err: os.ErrNotExist}

	rep, err := f.sweep.Run(ctx, sweep.RunOptions{})
	require.NoError(t, err)
	require.Equal(t, 1, rep.Calls)
	require.Len(t, rep.Skips, 1)
}

func TestRun_ContextCancelled(t *testing.T) {
	t.Parallel()
	ctx, _ := tu.NewContext(t)
	ctx, cancel := context.WithCancel(ctx)
	cancel()

	h := &tu.FakeHalo{Points: []config.ParameterPoint{{Mx: 9}}}
	f := newFixture(t, ctx, indepOptions("SuperCDMS"), h)

	_, err := f.sweep.Run(ctx, sweep.RunOptions{})
	require.ErrorIs(t, err, context.Canceled)
	require.Empty(t, f.engine.Order())
}

func TestRun_Deterministic(t *testing.T) {
	t.Parallel()

	run := func() []config.Snapshot {
		ctx, _ := tu.NewContext(t)
		h := &tu.FakeHalo{
			Points:     []config.ParameterPoint{{Mx: 7, Fn: 1, MPhi: 1000}, {Mx: 9, Fn: -0.7, MPhi: 10}},
			LogSigmaP0: -40,
		}
		opts := indepOptions("CDMSSi2012", "SHM_eta0", "DAMA2010Na DAMA2010I")
		opts.ScatteringTypes = config.ScatteringTypes("SI", "SDAV")
		opts.FilenameTails = []string{"", "_b"}
		opts.EHIMethod = map[string]bool{"ResponseTables": true}
		f := newFixture(t, ctx, opts, h)
		_, err := f.sweep.Run(ctx, sweep.RunOptions{})
		require.NoError(t, err)
		return f.engine.Snapshots()
	}

	a, b := run(), run()
	require.Len(t, a, 2*2*2*(1+1+2))
	if diff := cmp.Diff(a, b, cmpopts.EquateEmpty()); diff != "" {
		t.Fatalf("snapshot sequences differ (-first +second):\n%s", diff)
	}
}

func TestNew_RequiresCollaborators(t *testing.T) {
	t.Parallel()
	_, err := sweep.New(sweep.Deps{})
	require.Error(t, err)

	ctx, _ := tu.NewContext(t)
	h := &tu.FakeHalo{}
	cfg, err := config.New(ctx, indepOptions(), h)
	require.NoError(t, err)

	_, err = sweep.New(sweep.Deps{Config: cfg, Halo: h})
	require.Error(t, err)

	e, err := sweep.New(sweep.Deps{Config: cfg, Halo: h, Compute: &tu.RecordingEngine{}})
	require.NoError(t, err)
	require.NotEmpty(t, e.RunID())
}

type unwritableLedger struct {
	ledger.Ledger
}

func (unwritableLedger) Record(context.Context, ledger.Entry) error { return errors.New("disk full") }

func TestRun_LedgerFailureOnSkipAborts(t *testing.T) {
	t.Parallel()
	ctx, _ := tu.NewContext(t)

	h := &tu.FakeHalo{Points: []config.ParameterPoint{{Mx: 9}}}
	cfg, err := config.New(ctx, indepOptions("SuperCDMS", "LUX2013zero"), h)
	require.NoError(t, err)
	eng := &tu.RecordingEngine{Errs: map[string]error{"SuperCDMS": compute.ErrMissingArtifact}}
	s, err := sweep.New(sweep.Deps{
		Config:  cfg,
		Halo:    h,
		Compute: eng,
		Ledger:  unwritableLedger{},
		RunID:   "test-run",
	})
	require.NoError(t, err)

	rep, err := s.Run(ctx, sweep.RunOptions{})
	require.ErrorContains(t, err, "disk full")
	require.Empty(t, rep.Skips)
	require.Equal(t, []string{"single:SuperCDMS"}, eng.Order())
}
