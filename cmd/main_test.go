package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/ethereum/go-ethereum/common"

	"github.com/okian/scorestream/internal/config"
	"github.com/okian/scorestream/internal/domain/model"
	"github.com/okian/scorestream/pkg/logger"
	"github.com/smartystreets/goconvey/convey"
)

type stubDeps struct{}

func (stubDeps) SchemaID() common.Hash { return common.Hash{1} }

func (stubDeps) Publish(context.Context, model.Record) (string, error) { return "0x01", nil }

func (stubDeps) Leaderboard(context.Context) (model.Board, error) {
	return model.Board{Leaderboard: []model.Entry{}}, nil
}

func TestMainFunction(t *testing.T) {
	convey.Convey("Given the main application", t, func() {
		convey.Convey("When loading configuration from the environment", func() {
			t.Setenv(config.EnvEnvFile, os.DevNull)
			t.Setenv("SCORESTREAM_ADDR", ":8080")
			t.Setenv("SCORESTREAM_PUBLISH_RATE", "2.5")

			cfg, err := config.Load(context.Background())

			convey.Convey("Then the overrides are applied", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":8080")
				convey.So(cfg.PublishRate, convey.ShouldEqual, 2.5)
			})
		})

		convey.Convey("When initializing logging", func() {
			cfg := config.New()
			cfg.LogLevel = "loud"
			convey.So(initLogging(cfg), convey.ShouldBeNil)

			cfg.LogFormat = "xml"
			convey.So(initLogging(cfg), convey.ShouldNotBeNil)
			convey.So(logger.Init(), convey.ShouldBeNil)
		})

		convey.Convey("When building the HTTP handler", func() {
			convey.So(logger.Init(), convey.ShouldBeNil)
			cfg := config.New()
			mux := newMux(context.Background(), stubDeps{}, cfg)
			srv := newHTTPServer(cfg.Addr, mux)

			convey.Convey("Then the server carries timeouts", func() {
				convey.So(srv.Addr, convey.ShouldEqual, ":3000")
				convey.So(srv.ReadHeaderTimeout, convey.ShouldEqual, readHeaderTimeout)
				convey.So(srv.WriteTimeout, convey.ShouldEqual, writeTimeout)
			})

			for _, path := range []string{"/healthz", "/api/schema", "/api/data", "/api-docs", "/openapi.yaml"} {
				req := httptest.NewRequest(http.MethodGet, path, http.NoBody)
				w := httptest.NewRecorder()
				mux.ServeHTTP(w, req)
				convey.So(w.Code, convey.ShouldEqual, http.StatusOK)
			}

			req := httptest.NewRequest(http.MethodPost, "/api/publish",
				strings.NewReader(`{"player":"0x7E5F4552091A69125d5DfCb7b8C2659029395Bdf","score":1,"playTime":2}`))
			w := httptest.NewRecorder()
			mux.ServeHTTP(w, req)
			convey.So(w.Code, convey.ShouldEqual, http.StatusOK)
			convey.So(w.Body.String(), convey.ShouldContainSubstring, `"txHash":"0x01"`)
		})
	})
}
