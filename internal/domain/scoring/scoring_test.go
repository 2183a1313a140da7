package scoring_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/okian/attreval/internal/domain/scoring"
	. "github.com/smartystreets/goconvey/convey"
)

const epsilon = 1e-9

func workedExample() []scoring.Pair {
	return []scoring.Pair{
		{GroundTruth: "5 kg", Prediction: "5 kg"},
		{GroundTruth: "3 m", Prediction: ""},
		{GroundTruth: "", Prediction: "2 kg"},
		{GroundTruth: "1 g", Prediction: "1 g"},
	}
}

func TestClassify(t *testing.T) {
	Convey("Given the five outcome rules", t, func() {
		Convey("When prediction equals a non-empty ground truth", func() {
			So(scoring.Classify("5 kg", "5 kg"), ShouldEqual, scoring.TruePositive)
		})

		Convey("When prediction differs from a non-empty ground truth", func() {
			So(scoring.Classify("5 kg", "6 kg"), ShouldEqual, scoring.FalsePositive)
		})

		Convey("When prediction is non-empty and ground truth is empty", func() {
			So(scoring.Classify("", "2 kg"), ShouldEqual, scoring.FalsePositive)
		})

		Convey("When prediction is empty and ground truth is not", func() {
			So(scoring.Classify("3 m", ""), ShouldEqual, scoring.FalseNegative)
		})

		Convey("When both are empty", func() {
			So(scoring.Classify("", ""), ShouldEqual, scoring.TrueNegative)
		})

		Convey("When printing outcomes", func() {
			So(scoring.TruePositive.String(), ShouldEqual, "true_positive")
			So(scoring.FalsePositive.String(), ShouldEqual, "false_positive")
			So(scoring.FalseNegative.String(), ShouldEqual, "false_negative")
			So(scoring.TrueNegative.String(), ShouldEqual, "true_negative")
			So(scoring.Outcome(42).String(), ShouldEqual, "unknown")
		})
	})
}

func TestBinaryF1(t *testing.T) {
	Convey("Given the worked example", t, func() {
		records := workedExample()

		Convey("When counting outcomes", func() {
			c := scoring.Count(records)

			Convey("Then the counters should match the rules", func() {
				So(c, ShouldResemble, scoring.OutcomeCounts{
					TruePositive:  2,
					FalsePositive: 1,
					FalseNegative: 1,
					TrueNegative:  0,
				})
				So(c.Total(), ShouldEqual, len(records))
			})
		})

		Convey("When building the report", func() {
			r := scoring.BinaryReport(records)

			Convey("Then precision, recall and F1 should all be 2/3", func() {
				So(r.Precision, ShouldAlmostEqual, 2.0/3.0, epsilon)
				So(r.Recall, ShouldAlmostEqual, 2.0/3.0, epsilon)
				So(r.F1, ShouldAlmostEqual, 2.0/3.0, epsilon)
				So(scoring.BinaryF1(records), ShouldAlmostEqual, r.F1, epsilon)
			})
		})
	})

	Convey("Given degenerate inputs", t, func() {
		Convey("When there are no records", func() {
			r := scoring.BinaryReport(nil)

			Convey("Then everything should be zero", func() {
				So(r.Counts.Total(), ShouldEqual, 0)
				So(r.Precision, ShouldEqual, 0)
				So(r.Recall, ShouldEqual, 0)
				So(r.F1, ShouldEqual, 0)
			})
		})

		Convey("When ground truth and predictions are all empty", func() {
			records := []scoring.Pair{{}, {}, {}}
			r := scoring.BinaryReport(records)

			Convey("Then only true negatives are counted and F1 is 0", func() {
				So(r.Counts.TrueNegative, ShouldEqual, 3)
				So(r.Counts.TruePositive+r.Counts.FalsePositive+r.Counts.FalseNegative, ShouldEqual, 0)
				So(r.F1, ShouldEqual, 0)
			})
		})

		Convey("When every prediction is wrong", func() {
			records := []scoring.Pair{
				{GroundTruth: "1 g", Prediction: "2 g"},
				{GroundTruth: "3 m", Prediction: "4 m"},
			}

			Convey("Then F1 should be 0", func() {
				So(scoring.BinaryF1(records), ShouldEqual, 0)
			})
		})

		Convey("When every prediction is right", func() {
			records := []scoring.Pair{
				{GroundTruth: "1 g", Prediction: "1 g"},
				{GroundTruth: "", Prediction: ""},
			}

			Convey("Then F1 should be 1", func() {
				So(scoring.BinaryF1(records), ShouldEqual, 1)
			})
		})
	})
}

func TestOutcomeCountsInvariant(t *testing.T) {
	values := []string{"", "1 g", "2 g", "3 m"}
	var records []scoring.Pair
	for _, gt := range values {
		for _, pred := range values {
			records = append(records, scoring.Pair{GroundTruth: gt, Prediction: pred})
		}
	}

	var c scoring.OutcomeCounts
	for i, r := range records {
		c.Add(scoring.Classify(r.GroundTruth, r.Prediction))
		if c.Total() != i+1 {
			t.Fatalf("after %d records total is %d", i+1, c.Total())
		}
	}
	// 16 combinations: 3 equal non-empty, 6 unequal non-empty, 3 pred-only, 3 truth-only, 1 both empty.
	want := scoring.OutcomeCounts{TruePositive: 3, FalsePositive: 9, FalseNegative: 3, TrueNegative: 1}
	if c != want {
		t.Errorf("counts = %+v, want %+v", c, want)
	}
}

func TestCountParallel(t *testing.T) {
	Convey("Given a large record set", t, func() {
		records := make([]scoring.Pair, 0, 1000)
		for i := 0; i < 1000; i++ {
			gt := fmt.Sprintf("%d g", i%7)
			pred := fmt.Sprintf("%d g", i%5)
			if i%11 == 0 {
				gt = ""
			}
			if i%13 == 0 {
				pred = ""
			}
			records = append(records, scoring.Pair{GroundTruth: gt, Prediction: pred})
		}

		Convey("When counting across partitions", func() {
			serial := scoring.Count(records)

			Convey("Then merged partitions should equal the serial count", func() {
				for _, n := range []int{0, 1, 3, 8, 999, 1000, 5000} {
					So(scoring.CountParallel(records, n), ShouldResemble, serial)
				}
			})
		})
	})

	Convey("Given two partial counts", t, func() {
		a := scoring.OutcomeCounts{TruePositive: 1, FalseNegative: 2}
		b := scoring.OutcomeCounts{FalsePositive: 3, TrueNegative: 4}

		Convey("When merging", func() {
			a.Merge(b)

			Convey("Then every counter should be summed", func() {
				So(a, ShouldResemble, scoring.OutcomeCounts{
					TruePositive: 1, FalsePositive: 3, FalseNegative: 2, TrueNegative: 4,
				})
				So(a.Total(), ShouldEqual, 10)
			})
		})
	})
}

func TestWeightedF1(t *testing.T) {
	Convey("Given a three-class example dominated by one label", t, func() {
		truth := []string{"a", "a", "a", "a", "b", "c"}
		pred := []string{"a", "a", "a", "b", "b", "a"}

		Convey("When computing the weighted report", func() {
			r, err := scoring.WeightedReport(truth, pred)

			Convey("Then supports should weight per-class F1", func() {
				So(err, ShouldBeNil)
				So(r.Support, ShouldEqual, 6)
				So(r.Classes, ShouldHaveLength, 3)

				So(r.Classes[0].Label, ShouldEqual, "a")
				So(r.Classes[0].Support, ShouldEqual, 4)
				So(r.Classes[0].F1, ShouldAlmostEqual, 0.75, epsilon)

				So(r.Classes[1].Label, ShouldEqual, "b")
				So(r.Classes[1].Precision, ShouldAlmostEqual, 0.5, epsilon)
				So(r.Classes[1].Recall, ShouldAlmostEqual, 1.0, epsilon)
				So(r.Classes[1].F1, ShouldAlmostEqual, 2.0/3.0, epsilon)

				So(r.Classes[2].Label, ShouldEqual, "c")
				So(r.Classes[2].F1, ShouldEqual, 0)

				// (4*0.75 + 1*2/3 + 1*0) / 6
				So(r.F1, ShouldAlmostEqual, 11.0/18.0, epsilon)
			})
		})
	})

	Convey("Given the worked example of the binary scorer", t, func() {
		truth, pred := scoring.Split(workedExample())

		Convey("When scoring it with the weighted scorer", func() {
			f1, err := scoring.WeightedF1(truth, pred)

			Convey("Then the result should differ from the binary F1", func() {
				So(err, ShouldBeNil)
				So(f1, ShouldAlmostEqual, 0.5, epsilon)
				So(f1, ShouldNotAlmostEqual, scoring.BinaryF1(workedExample()), epsilon)
			})
		})

		Convey("When a label only appears in predictions", func() {
			r, _ := scoring.WeightedReport(truth, pred)

			Convey("Then it is listed with zero support", func() {
				found := false
				for _, c := range r.Classes {
					if c.Label == "2 kg" {
						found = true
						So(c.Support, ShouldEqual, 0)
						So(c.Precision, ShouldEqual, 0)
					}
				}
				So(found, ShouldBeTrue)
			})
		})
	})

	Convey("Given all-empty values", t, func() {
		records := []scoring.Pair{{}, {}}

		Convey("When scoring with both variants", func() {
			Convey("Then the empty label is a perfect class for the weighted scorer only", func() {
				So(scoring.WeightedF1Pairs(records), ShouldEqual, 1)
				So(scoring.BinaryF1(records), ShouldEqual, 0)
			})
		})
	})

	Convey("Given no values", t, func() {
		Convey("When scoring", func() {
			f1, err := scoring.WeightedF1(nil, nil)

			Convey("Then it should return 0 without error", func() {
				So(err, ShouldBeNil)
				So(f1, ShouldEqual, 0)
			})
		})
	})

	Convey("Given columns of different lengths", t, func() {
		Convey("When scoring", func() {
			_, err := scoring.WeightedF1([]string{"a"}, nil)

			Convey("Then it should report a length mismatch", func() {
				So(errors.Is(err, scoring.ErrLengthMismatch), ShouldBeTrue)
			})
		})
	})
}
