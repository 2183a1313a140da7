package config_test

import (
	"context"
	"errors"
	"runtime"
	"testing"
	"time"

	"github.com/okian/attreval/internal/config"
	"github.com/smartystreets/goconvey/convey"
)

func TestConfig_New(t *testing.T) {
	convey.Convey("Given a new config with default options", t, func() {
		cfg := config.New(context.Background())

		convey.Convey("Then it should have sensible defaults", func() {
			convey.So(cfg.Addr, convey.ShouldEqual, ":9080")
			convey.So(cfg.TestFile, convey.ShouldEqual, "dataset/test.csv")
			convey.So(cfg.OutputFile, convey.ShouldEqual, "dataset/test_out.csv")
			convey.So(cfg.FailFile, convey.ShouldEqual, "dataset/test_fail.csv")
			convey.So(cfg.WorkerCount, convey.ShouldEqual, runtime.NumCPU())
			convey.So(cfg.PredictorHitRate, convey.ShouldEqual, 0.5)
			convey.So(cfg.ScorePrecision, convey.ShouldEqual, 4)
			convey.So(cfg.FetchRetryDelay(), convey.ShouldEqual, 3*time.Second)
			convey.So(cfg.FetchTimeout(), convey.ShouldEqual, 30*time.Second)
			convey.So(cfg.Validate(), convey.ShouldBeNil)
		})
	})
}

func TestConfig_Validate(t *testing.T) {
	convey.Convey("Given invalid settings", t, func() {
		cases := map[string]func(*config.Config){
			"empty addr":        func(c *config.Config) { c.Addr = "" },
			"empty column":      func(c *config.Config) { c.PredictionColumn = "" },
			"same columns":      func(c *config.Config) { c.PredictionColumn = c.GroundTruthColumn },
			"no workers":        func(c *config.Config) { c.WorkerCount = 0 },
			"no queue":          func(c *config.Config) { c.QueueSize = 0 },
			"no fetch attempts": func(c *config.Config) { c.FetchAttempts = 0 },
			"negative delay":    func(c *config.Config) { c.FetchRetryDelayMS = -1 },
			"hit rate":          func(c *config.Config) { c.PredictorHitRate = 1.5 },
			"value range":       func(c *config.Config) { c.PredictorMinValue = c.PredictorMaxValue },
			"precision":         func(c *config.Config) { c.ScorePrecision = -1 },
		}
		for name, mutate := range cases {
			convey.Convey("Then "+name+" is rejected", func() {
				cfg := config.New(context.Background())
				mutate(cfg)
				convey.So(errors.Is(cfg.Validate(), config.ErrInvalidConfig), convey.ShouldBeTrue)
			})
		}
	})
}
