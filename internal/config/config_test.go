package config

import (
	"context"
	"errors"
	"math"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type staticPoints []ParameterPoint

func (p staticPoints) ParameterPointList(context.Context) ([]ParameterPoint, error) {
	return append([]ParameterPoint(nil), p...), nil
}

type failingPoints struct{}

func (failingPoints) ParameterPointList(context.Context) ([]ParameterPoint, error) {
	return nil, errors.New("no input table")
}

func TestMergeConfidenceLevels(t *testing.T) {
	t.Parallel()

	cl := []float64{0.9, 0.5}
	sigmas := []float64{1, 2, 1}
	got := MergeConfidenceLevels(cl, sigmas, nil)

	require.Len(t, got, len(cl)+len(sigmas))
	require.True(t, sort.Float64sAreSorted(got))
	assert.InDelta(t, 0.6827, got[1], 1e-4)
	assert.InDelta(t, 0.6827, got[2], 1e-4, "duplicate sigmas are kept")
	assert.InDelta(t, 0.9545, got[4], 1e-4)

	require.Empty(t, MergeConfidenceLevels(nil, nil, nil))
}

func TestMergeConfidenceLevels_CustomConversion(t *testing.T) {
	t.Parallel()
	got := MergeConfidenceLevels([]float64{0.3}, []float64{0.1, 0.2}, func(s float64) float64 { return s })
	require.Equal(t, []float64{0.1, 0.2, 0.3}, got)
}

func TestSigmaToConfidenceLevel(t *testing.T) {
	t.Parallel()
	require.Equal(t, 0.0, SigmaToConfidenceLevel(0))
	require.InDelta(t, math.Erf(3/math.Sqrt2), SigmaToConfidenceLevel(3), 1e-12)
}

func TestNewMethodFlags(t *testing.T) {
	t.Parallel()

	f, err := NewMethodFlags(nil)
	require.NoError(t, err)
	require.False(t, f.Any())

	f, err = NewMethodFlags(map[string]bool{"ConfidenceBandPlot": true, "response_tables": false})
	require.NoError(t, err)
	require.True(t, f.ConfidenceBandPlot)
	require.True(t, f.Any())

	_, err = NewMethodFlags(map[string]bool{"Typo": true})
	require.ErrorIs(t, err, ErrConfig)
	require.Contains(t, err.Error(), `"Typo"`)
}

func TestNewParameterPoint(t *testing.T) {
	t.Parallel()

	p, err := NewParameterPoint(false, []float64{9, 1, 0, 1000})
	require.NoError(t, err)
	require.Equal(t, ParameterPoint{Mx: 9, Fn: 1, Delta: 0, MPhi: 1000}, p)

	p, err = NewParameterPoint(true, []float64{-0.7, 50, 1000})
	require.NoError(t, err)
	require.Equal(t, ParameterPoint{Fn: -0.7, Delta: 50, MPhi: 1000}, p)

	_, err = NewParameterPoint(true, []float64{9, 1, 0, 1000})
	require.ErrorIs(t, err, ErrConfig)
	_, err = NewParameterPoint(false, []float64{1, 0, 1000})
	require.ErrorIs(t, err, ErrConfig)
}

func TestScatteringSelector_RoundTrip(t *testing.T) {
	t.Parallel()
	s := &Sweep{}

	s.SetScatteringTypes(OneScatteringType("SI"))
	require.Equal(t, []string{"SI"}, s.ScatteringTypes())

	s.SetScatteringTypes(ScatteringTypes("SDPS", "SI", "SDAV"))
	require.Equal(t, []string{"SDPS", "SI", "SDAV"}, s.ScatteringTypes())
}

func TestQuenching_Collapse(t *testing.T) {
	t.Parallel()

	scalar, ok := NewQuenching(Factor(0.4)).Collapse().Scalar()
	require.True(t, ok)
	require.Equal(t, 0.4, *scalar)

	unset, ok := NewQuenching(nil).Collapse().Scalar()
	require.True(t, ok)
	require.Nil(t, unset)

	_, ok = NewQuenching(Factor(0.4), Factor(0.09)).Collapse().Scalar()
	require.False(t, ok)

	require.Nil(t, NewQuenching().First())
	require.True(t, NewQuenching(Factor(1)).Equal(NewQuenching(Factor(1))))
	require.False(t, NewQuenching(Factor(1)).Equal(NewQuenching(nil)))
}

func TestNew(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	opts := DefaultOptions()
	opts.Experiments = []string{"SuperCDMS", "LUX2013zero", "CDMSSi2012"}
	opts.ExperimentSelector = Indices(2, 0)
	opts.InputSelector = Indices(-1)
	opts.CLList = []float64{0.99}
	opts.SigmaDevList = []float64{1}
	opts.Flags.MultiExper = true
	opts.MultiExperSelector = Indices(1, 2)

	points := staticPoints{{Mx: 9}, {Mx: 10}, {Mx: 11}}
	s, err := New(ctx, opts, points)
	require.NoError(t, err)

	require.Equal(t, opts.Experiments, s.Catalog())
	require.Equal(t, []string{"CDMSSi2012", "SuperCDMS"}, s.Experiments())
	require.Equal(t, []string{"LUX2013zero", "CDMSSi2012"}, s.MultiExperInput())
	require.Equal(t, []ParameterPoint{{Mx: 11}}, s.ParameterPoints())
	require.Equal(t, []string{"SI"}, s.ScatteringTypes())
	require.Equal(t, []string{""}, s.FilenameTails())
	require.Equal(t, 1.0, s.Fp())
	require.Len(t, s.ConfidenceLevels(), 2)
	require.True(t, sort.Float64sAreSorted(s.ConfidenceLevels()))

	// Reselecting never mutates the catalog.
	require.NoError(t, s.SetExperimentSelection(All()))
	require.Equal(t, opts.Experiments, s.Experiments())
	require.NoError(t, s.SetParameterPoints(ctx, All()))
	require.Len(t, s.ParameterPoints(), 3)
}

func TestNew_Errors(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	opts := DefaultOptions()
	opts.Experiments = []string{"A"}
	opts.ExperimentSelector = Indices(5)
	_, err := New(ctx, opts, staticPoints{})
	require.ErrorIs(t, err, ErrConfig)

	opts = DefaultOptions()
	opts.EHIMethod = map[string]bool{"Nope": true}
	_, err = New(ctx, opts, staticPoints{})
	require.ErrorIs(t, err, ErrConfig)

	_, err = New(ctx, DefaultOptions(), nil)
	require.ErrorIs(t, err, ErrConfig)

	_, err = New(ctx, DefaultOptions(), failingPoints{})
	require.ErrorContains(t, err, "no input table")
}

func TestSweep_Snapshot(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	opts := DefaultOptions()
	opts.Experiments = []string{"SuperCDMS"}
	opts.ExtraTail = "_x"
	s, err := New(ctx, opts, staticPoints{{Mx: 9, Fn: 1, MPhi: 1000}})
	require.NoError(t, err)

	it := Iteration{
		ScatteringType: "SI",
		FilenameTail:   "_t",
		Point:          s.ParameterPoints()[0],
	}.WithExperiment("SuperCDMS").
		WithQuenching(ScalarQuenching(0.4)).
		WithDerived(Derived{VminRange: []float64{1, 2, 3}})

	snap := s.Snapshot(it)
	require.Equal(t, "SuperCDMS", snap.ExperName)
	require.Equal(t, "_t", snap.FilenameTail)
	require.Equal(t, "_x", snap.ExtraTail)
	require.Equal(t, "../Output/", snap.OutputMainDir)
	require.NotNil(t, snap.Mx)
	require.Equal(t, 9.0, *snap.Mx)
	require.Equal(t, 1.0, snap.Fp)
	require.Equal(t, []float64{1, 2, 3}, snap.VminRange)
	require.Nil(t, snap.LogSigmaP)
	require.Nil(t, snap.MultiExperInput)

	// The snapshot owns its slices.
	snap.VminRange[0] = 42
	require.Equal(t, 1.0, it.Derived.VminRange[0])
}

func TestSweep_SnapshotHaloDep(t *testing.T) {
	t.Parallel()

	opts := DefaultOptions()
	opts.HaloDep = true
	opts.Experiments = []string{"DAMA2010Na"}
	s, err := New(context.Background(), opts, staticPoints{{Fn: 1, Delta: 0, MPhi: 1000}})
	require.NoError(t, err)

	snap := s.Snapshot(Iteration{
		ExperName: "DAMA2010Na",
		Derived:   Derived{MxRange: []float64{3, 100, 40}},
	})
	require.True(t, snap.HaloDep)
	require.Nil(t, snap.Mx)
	require.Equal(t, []float64{3, 100, 40}, snap.MxRange)
}
