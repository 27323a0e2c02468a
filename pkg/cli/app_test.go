package cli

import (
	"math"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	urfave "github.com/urfave/cli/v2"
)

func newTestApp(t *testing.T) (app *testAppRunner) {
	t.Helper()

	a, err := newApp()
	require.NoError(t, err)

	dbPath := filepath.Join(t.TempDir(), "totalcast.db")
	return &testAppRunner{t: t, app: a, dbPath: dbPath}
}

type testAppRunner struct {
	t      *testing.T
	app    *urfave.App
	dbPath string
}

func (r *testAppRunner) run(args ...string) error {
	full := append([]string{"totalcast", "--db", r.dbPath}, args...)
	return r.app.Run(full)
}

func TestAppCommands(t *testing.T) {
	app, err := newApp()
	require.NoError(t, err)

	want := []string{"import", "aggregate", "calibrate", "coefficients", "predict", "pace", "backtest", "data"}
	var got []string
	for _, cmd := range app.Commands {
		got = append(got, cmd.Name)
	}

	assert.Equal(t, want, got)
	assert.Equal(t, "totalcast", app.Name)
	assert.NotNil(t, app.Before)
	assert.NotNil(t, app.After)
}

func TestDataStateOnEmptyStore(t *testing.T) {
	r := newTestApp(t)
	require.NoError(t, r.run("data", "state"))
}

func TestCalibrateWithoutDataFails(t *testing.T) {
	r := newTestApp(t)

	err := r.run("calibrate", "--season", "2026")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "insufficient training data")
}

func TestPredictWithoutAggregatesFails(t *testing.T) {
	r := newTestApp(t)

	err := r.run("predict", "--home", "BOS", "--away", "DEN", "--default-coefficients")
	require.Error(t, err)
}

func TestCoefficientsActiveWithoutCalibrationFails(t *testing.T) {
	r := newTestApp(t)

	err := r.run("coefficients", "active", "--season", "2026")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no active coefficient set")
}

func TestBucketLabel(t *testing.T) {
	tests := []struct {
		predicted float64
		want      string
	}{
		{185.0, "<190"},
		{190.0, "190-200"},
		{199.9, "190-200"},
		{215.5, "210-220"},
		{249.9, "240-250"},
		{250.0, "250+"},
		{280.0, "250+"},
	}

	for _, tc := range tests {
		assert.Equal(t, tc.want, bucketLabel(tc.predicted), "predicted %.1f", tc.predicted)
	}
}

func TestBucketizeOrdersBands(t *testing.T) {
	// fed out of band order on purpose
	games := []*backtestGame{
		{Predicted: 255.0, Actual: 250.0},
		{Predicted: 212.0, Actual: 215.0},
		{Predicted: 185.0, Actual: 190.0},
		{Predicted: 244.0, Actual: 240.0},
		{Predicted: 218.0, Actual: 214.0},
	}

	buckets := bucketize(games)
	require.Len(t, buckets, 4)

	labels := make([]string, len(buckets))
	for i, b := range buckets {
		labels[i] = b.Label
	}
	assert.Equal(t, []string{"<190", "210-220", "240-250", "250+"}, labels)

	assert.Equal(t, 2, buckets[1].Games)
	assert.InDelta(t, 215.0, buckets[1].MeanPredicted, 0.001)
	assert.InDelta(t, 214.5, buckets[1].MeanActual, 0.001)
}

func TestWorstGames(t *testing.T) {
	games := []*backtestGame{
		{Home: "A", Error: 2.0},
		{Home: "B", Error: -12.5},
		{Home: "C", Error: 7.0},
		{Home: "D", Error: -1.0},
	}

	worst := worstGames(games, 2)
	require.Len(t, worst, 2)
	assert.Equal(t, "B", worst[0].Home)
	assert.Equal(t, "C", worst[1].Home)

	// input order untouched
	assert.Equal(t, "A", games[0].Home)

	for i := 1; i < len(worst); i++ {
		assert.GreaterOrEqual(t, math.Abs(worst[i-1].Error), math.Abs(worst[i].Error))
	}
}
