package api_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/okian/attreval/internal/adapters/http/api"
	service "github.com/okian/attreval/internal/app"
	"github.com/okian/attreval/internal/domain/model"
	"github.com/okian/attreval/pkg/logger"
)

func init() {
	_ = logger.Init()
}

// recordingDeps captures the records handed to the scorer.
type recordingDeps struct {
	got []model.ValueRecord
}

func (m *recordingDeps) ScoreRecords(_ context.Context, records []model.ValueRecord) service.Summary {
	m.got = records
	return service.Summary{Records: len(records)}
}

type mockStatsProvider struct {
	stats map[string]interface{}
}

func (m *mockStatsProvider) GetStats() map[string]interface{} {
	return m.stats
}

func serve(mux *http.ServeMux, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)
	return w
}

func newMux(deps api.Dependencies, opts ...api.Option) *http.ServeMux {
	mux := http.NewServeMux()
	api.NewServer(deps, &mockStatsProvider{stats: map[string]interface{}{"started": true}}, opts...).
		Register(context.Background(), mux)
	return mux
}

func TestServer_Register(t *testing.T) {
	Convey("Given a registered API server", t, func() {
		mux := newMux(&recordingDeps{})

		Convey("Then health serves prometheus metrics", func() {
			w := serve(mux, http.MethodGet, "/healthz", "")
			So(w.Code, ShouldEqual, http.StatusOK)
			So(w.Body.String(), ShouldContainSubstring, "attreval_eval_")
		})

		Convey("Then health answers JSON when asked", func() {
			req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
			req.Header.Set("Accept", "application/json")
			w := httptest.NewRecorder()
			mux.ServeHTTP(w, req)
			So(w.Code, ShouldEqual, http.StatusOK)
			So(w.Body.String(), ShouldContainSubstring, `"status":"ok"`)
		})

		Convey("Then stats returns the provider map", func() {
			w := serve(mux, http.MethodGet, "/stats", "")
			So(w.Code, ShouldEqual, http.StatusOK)
			So(w.Body.String(), ShouldContainSubstring, `"started":true`)
		})

		Convey("Then wrong methods are rejected", func() {
			So(serve(mux, http.MethodPost, "/stats", "").Code, ShouldEqual, http.StatusMethodNotAllowed)
			w := serve(mux, http.MethodGet, "/v1/score", "")
			So(w.Code, ShouldEqual, http.StatusMethodNotAllowed)
			So(w.Header().Get("Allow"), ShouldEqual, http.MethodPost)
		})

		Convey("Then unknown paths are not found", func() {
			So(serve(mux, http.MethodGet, "/unknown", "").Code, ShouldEqual, http.StatusNotFound)
		})
	})
}

func TestScoreHandler(t *testing.T) {
	Convey("Given a score endpoint", t, func() {
		deps := &recordingDeps{}
		mux := newMux(deps, api.WithMaxRecords(3))

		Convey("When posting records with null and missing values", func() {
			body := `{"records":[{"ground_truth":"10 kg","prediction":"10kg"},{"ground_truth":null,"prediction":"1 g"},{"prediction":""}]}`
			w := serve(mux, http.MethodPost, "/v1/score", body)

			Convey("Then absent cells are passed as absent", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				So(len(deps.got), ShouldEqual, 3)
				So(deps.got[0].Prediction, ShouldResemble, model.Present("10kg"))
				So(deps.got[1].GroundTruth.Valid, ShouldBeFalse)
				So(deps.got[2].GroundTruth.Valid, ShouldBeFalse)
				So(deps.got[2].Prediction, ShouldResemble, model.Present(""))
			})
		})

		Convey("When posting malformed JSON", func() {
			w := serve(mux, http.MethodPost, "/v1/score", `{"records":[`)

			Convey("Then it is a bad request", func() {
				So(w.Code, ShouldEqual, http.StatusBadRequest)
				So(w.Body.String(), ShouldContainSubstring, "bad_request")
			})
		})

		Convey("When posting without records", func() {
			So(serve(mux, http.MethodPost, "/v1/score", `{}`).Code, ShouldEqual, http.StatusBadRequest)
			So(serve(mux, http.MethodPost, "/v1/score", `{"rows":[]}`).Code, ShouldEqual, http.StatusBadRequest)
		})

		Convey("When posting more records than allowed", func() {
			body := `{"records":[{},{},{},{}]}`
			w := serve(mux, http.MethodPost, "/v1/score", body)

			Convey("Then the request is too large", func() {
				So(w.Code, ShouldEqual, http.StatusRequestEntityTooLarge)
			})
		})

		Convey("When the body exceeds the byte limit", func() {
			limited := newMux(deps, api.WithMaxBodyBytes(16))
			body := `{"records":[{"ground_truth":"10 kg","prediction":"10 kg"}]}`
			w := serve(limited, http.MethodPost, "/v1/score", body)

			Convey("Then the request is too large", func() {
				So(w.Code, ShouldEqual, http.StatusRequestEntityTooLarge)
				So(w.Body.String(), ShouldContainSubstring, "body_too_large")
			})
		})
	})

	Convey("Given a score endpoint backed by the service", t, func() {
		mux := newMux(service.New())

		Convey("When posting the worked example", func() {
			body := `{"records":[
				{"ground_truth":"10 kg","prediction":"10 kg"},
				{"ground_truth":"5 cm","prediction":"6 cm"},
				{"ground_truth":"3 g","prediction":null},
				{"ground_truth":"2 lb","prediction":"2lb"}]}`
			w := serve(mux, http.MethodPost, "/v1/score", body)

			Convey("Then the summary carries both variants", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				var sum api.Summary
				So(json.Unmarshal(w.Body.Bytes(), &sum), ShouldBeNil)
				So(sum.Records, ShouldEqual, 4)
				So(sum.Counts.TruePositive, ShouldEqual, 2)
				So(sum.BinaryF1, ShouldAlmostEqual, 2.0/3.0, 1e-9)
				So(sum.WeightedF1, ShouldAlmostEqual, 0.5, 1e-9)
			})
		})
	})
}

func TestNormalizeHandler(t *testing.T) {
	Convey("Given a normalize endpoint", t, func() {
		mux := newMux(&recordingDeps{})

		Convey("When posting raw values", func() {
			w := serve(mux, http.MethodPost, "/v1/normalize", `{"values":["12.5KG","  ",null,"10 fluid ounce","abc"]}`)

			Convey("Then canonical values are returned in order", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				var out struct {
					Values []string `json:"values"`
				}
				So(json.Unmarshal(w.Body.Bytes(), &out), ShouldBeNil)
				So(out.Values, ShouldResemble, []string{"12.5 kg", "", "", "10 fluid", "abc"})
			})
		})

		Convey("When posting without values", func() {
			So(serve(mux, http.MethodPost, "/v1/normalize", `{}`).Code, ShouldEqual, http.StatusBadRequest)
		})

		Convey("When the body exceeds the byte limit", func() {
			limited := newMux(&recordingDeps{}, api.WithMaxBodyBytes(8))
			w := serve(limited, http.MethodPost, "/v1/normalize", `{"values":["12.5KG","5 cm"]}`)

			Convey("Then the request is too large", func() {
				So(w.Code, ShouldEqual, http.StatusRequestEntityTooLarge)
			})
		})
	})
}

func TestErrors(t *testing.T) {
	Convey("Given wrapped API errors", t, func() {
		cause := errors.New("boom")
		err := api.WrapKind("api.op", api.ErrBadRequest, cause)

		Convey("Then both kind and cause are reachable", func() {
			So(errors.Is(err, api.ErrBadRequest), ShouldBeTrue)
			So(errors.Is(err, cause), ShouldBeTrue)
			So(err.Error(), ShouldEqual, "api.op: bad request: boom")
		})

		Convey("Then Wrap and NewKind format their parts", func() {
			So(api.Wrap("api.op", nil), ShouldBeNil)
			So(api.Wrap("api.op", cause).Error(), ShouldEqual, "api.op: boom")
			So(api.NewKind("api.op", api.ErrTooManyRecords).Error(), ShouldEqual, "api.op: too many records")
		})
	})
}
