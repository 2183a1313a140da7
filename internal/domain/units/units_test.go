package units_test

import (
	"testing"

	"github.com/okian/attreval/internal/domain/units"
	. "github.com/smartystreets/goconvey/convey"
)

func TestVocabulary(t *testing.T) {
	Convey("Given the default vocabulary", t, func() {
		v := units.Default()

		Convey("When listing attributes", func() {
			So(v.Entities(), ShouldResemble, []string{
				"depth", "height", "item_volume", "item_weight",
				"maximum_weight_recommendation", "voltage", "wattage", "width",
			})
			So(v.Len(), ShouldEqual, 8)
		})

		Convey("When looking up units of an attribute", func() {
			So(v.Units("wattage"), ShouldResemble, []string{"kilowatt", "watt"})
			So(v.Units("colour"), ShouldBeNil)
		})

		Convey("When mutating a returned slice", func() {
			got := v.Units("voltage")
			got[0] = "bogus"

			Convey("Then the vocabulary should be unchanged", func() {
				So(v.Units("voltage")[0], ShouldEqual, "kilovolt")
			})
		})

		Convey("When checking allowed units", func() {
			So(v.Allowed("cubic foot"), ShouldBeTrue)
			So(v.Allowed("parsec"), ShouldBeFalse)
			So(v.AllowedUnits(), ShouldContain, "gram")
		})

		Convey("When canonicalizing common mistakes", func() {
			So(v.Canonical("centimeter"), ShouldEqual, "centimetre")
			So(v.Canonical("liter"), ShouldEqual, "litre")
			So(v.Canonical("cubic feet"), ShouldEqual, "cubic foot")
			So(v.Canonical("gram"), ShouldEqual, "gram")
			So(v.Canonical("furlong"), ShouldEqual, "furlong")
		})
	})

	Convey("Given a custom vocabulary with messy entries", t, func() {
		v := units.New(map[string][]string{
			"length": {" Metre", "inch", "metre", ""},
			"  ":     {"ignored"},
		})

		Convey("Then units should be cleaned, deduplicated and sorted", func() {
			So(v.Units("length"), ShouldResemble, []string{"inch", "metre"})
			So(v.Entities(), ShouldResemble, []string{"length"})
			So(v.Allowed("ignored"), ShouldBeFalse)
		})
	})
}
