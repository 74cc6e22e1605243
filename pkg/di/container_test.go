package di

import (
	"context"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/ssargent/boconv/pkg/api"
	"github.com/ssargent/boconv/pkg/config"
	"github.com/ssargent/boconv/pkg/metrics"
	"github.com/ssargent/boconv/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func testConfig(t *testing.T, engine string) *config.Config {
	t.Helper()
	cfg := config.DefaultConfig()
	cfg.DataDir = t.TempDir()
	cfg.Storage.Engine = engine
	cfg.Security.APIKey = "secret"
	return cfg
}

func TestContainer_Engines(t *testing.T) {
	for _, engine := range []string{config.EnginePebble, config.EngineLog} {
		t.Run(engine, func(t *testing.T) {
			c := NewContainer(testConfig(t, engine), nil)
			defer c.Close()

			objects, err := c.Objects()
			require.NoError(t, err)

			again, err := c.Objects()
			require.NoError(t, err)
			assert.Same(t, objects, again)

			id, err := objects.Put(models.SampleFood())
			require.NoError(t, err)

			var food models.Food
			require.NoError(t, objects.Get(id, &food))
			assert.Equal(t, "Alu vorta", *food.Name)

			if engine == config.EngineLog {
				require.NotNil(t, c.Stats())
				assert.Equal(t, 1, c.Stats().Stats().Objects)
			} else {
				assert.Nil(t, c.Stats())
			}
		})
	}
}

func TestContainer_UnknownEngine(t *testing.T) {
	c := NewContainer(testConfig(t, "tape"), nil)
	_, err := c.Objects()
	assert.ErrorContains(t, err, "tape")
}

func TestContainer_BadTimestampMode(t *testing.T) {
	cfg := testConfig(t, config.EngineLog)
	cfg.Codec.TimestampMode = "sideways"
	c := NewContainer(cfg, nil)

	_, err := c.Records()
	assert.Error(t, err)
}

func TestContainer_RecordsShareMetrics(t *testing.T) {
	c := NewContainer(testConfig(t, config.EngineLog), zap.NewNop())

	records, err := c.Records()
	require.NoError(t, err)
	_, err = records.Encode(models.SampleFood())
	require.NoError(t, err)

	families, err := c.Registry().Gather()
	require.NoError(t, err)
	var names []string
	for _, f := range families {
		names = append(names, f.GetName())
	}
	assert.Contains(t, names, "boconv_codec_operations_total")
}

func TestContainer_ServerConfig(t *testing.T) {
	c := NewContainer(testConfig(t, config.EngineLog), nil)
	sc := c.ServerConfig()
	assert.Equal(t, "secret", sc.APIKey)
	assert.Equal(t, int64(1<<20), sc.MaxRecordSize)
	assert.Equal(t, 8080, sc.Port)
}

type fakeStarter struct {
	started bool
	config  api.ServerConfig
}

func (f *fakeStarter) StartServer(_ context.Context, _ api.Objects, _ api.StatsProvider, cfg api.ServerConfig) error {
	f.started = true
	f.config = cfg
	return nil
}

type fakeFactory struct{ starter *fakeStarter }

func (f *fakeFactory) CreateServerStarter(*metrics.Metrics, prometheus.Gatherer, *zap.Logger) api.ServerStarter {
	return f.starter
}

func TestContainer_SetServerFactory(t *testing.T) {
	c := NewContainer(testConfig(t, config.EngineLog), nil)
	starter := &fakeStarter{}
	c.SetServerFactory(&fakeFactory{starter: starter})

	objects, err := c.Objects()
	require.NoError(t, err)
	defer c.Close()

	err = c.GetServerFactory().
		CreateServerStarter(c.Metrics(), c.Registry(), c.Logger()).
		StartServer(context.Background(), objects, c.Stats(), c.ServerConfig())
	require.NoError(t, err)
	assert.True(t, starter.started)
	assert.Equal(t, "secret", starter.config.APIKey)
}
