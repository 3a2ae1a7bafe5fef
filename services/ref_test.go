package services

import (
	"testing"

	"dramaweb/models"

	. "github.com/smartystreets/goconvey/convey"
)

func TestRef(t *testing.T) {
	Convey("EncodeRef / DecodeRef", t, func() {
		Convey("keeps only display fields", func() {
			item := mustItem(t, `{"bookId":"5","bookName":"Lima","cover":"c.jpg","tags":["x"],"chapterCount":12}`)
			got, ok := DecodeRef(EncodeRef(item))
			So(ok, ShouldBeTrue)
			So(got, ShouldContainKey, "bookId")
			So(got, ShouldNotContainKey, "tags")
			So(ToCard(got), ShouldResemble, ToCard(item))
		})
		Convey("empty input", func() {
			So(EncodeRef(nil), ShouldEqual, "")
			So(EncodeRef(models.Item{"tags": 1}), ShouldEqual, "")
		})
		Convey("garbage is rejected", func() {
			_, ok := DecodeRef("%%%")
			So(ok, ShouldBeFalse)
			_, ok = DecodeRef("")
			So(ok, ShouldBeFalse)
			_, ok = DecodeRef(EncodeTarget("[1,2]"))
			So(ok, ShouldBeFalse)
		})
	})
}
