package model_test

import (
	"testing"

	model "github.com/okian/attreval/internal/domain/model"
	"github.com/smartystreets/goconvey/convey"
)

func TestText(t *testing.T) {
	convey.Convey("Given optional text values", t, func() {
		convey.Convey("When the value is present", func() {
			text := model.Present("5 kg")

			convey.Convey("Then it should expose the value", func() {
				convey.So(text.Valid, convey.ShouldBeTrue)
				convey.So(text.String(), convey.ShouldEqual, "5 kg")
			})
		})

		convey.Convey("When the value is absent", func() {
			text := model.Absent()

			convey.Convey("Then it should read as empty", func() {
				convey.So(text.Valid, convey.ShouldBeFalse)
				convey.So(text.String(), convey.ShouldEqual, "")
			})
		})

		convey.Convey("When an absent value carries stale content", func() {
			text := model.Text{Value: "junk", Valid: false}

			convey.Convey("Then the content should be ignored", func() {
				convey.So(text.String(), convey.ShouldEqual, "")
			})
		})

		convey.Convey("When converting from pointers", func() {
			s := "3 m"

			convey.Convey("Then nil should be absent and non-nil present", func() {
				convey.So(model.TextFromPtr(nil), convey.ShouldResemble, model.Absent())
				convey.So(model.TextFromPtr(&s), convey.ShouldResemble, model.Present("3 m"))
			})
		})
	})
}
