package experience_test

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"testing"

	"github.com/okian/salaryd/internal/domain/experience"
	. "github.com/smartystreets/goconvey/convey"
)

func TestDecode(t *testing.T) {
	Convey("Given years.months floats", t, func() {
		Convey("When the fraction is a month digit", func() {
			Convey("Then 2.6 is two and a half years", func() {
				v, err := experience.Decode(2.6)
				So(err, ShouldBeNil)
				So(v, ShouldEqual, 2.5)
			})
			Convey("And 1.3 is one and a quarter years", func() {
				v, err := experience.Decode(1.3)
				So(err, ShouldBeNil)
				So(v, ShouldEqual, 1.25)
			})
		})

		Convey("When the value is whole", func() {
			for _, raw := range []float64{0, 3, 5} {
				v, err := experience.Decode(raw)
				So(err, ShouldBeNil)
				So(v, ShouldEqual, raw)
			}
		})

		Convey("When the fraction has two digits", func() {
			v, err := experience.Decode(2.11)
			So(err, ShouldBeNil)
			So(v, ShouldAlmostEqual, 2+11.0/12, 1e-4)

			v, err = experience.Decode(0.11)
			So(err, ShouldBeNil)
			So(v, ShouldEqual, 0.9167)
		})

		Convey("When the encoded month is 12 or more", func() {
			for _, raw := range []float64{2.12, 1.15, 3.99} {
				_, err := experience.Decode(raw)
				So(errors.Is(err, experience.ErrInvalidFormat), ShouldBeTrue)
			}
		})

		Convey("When the value is negative or not a number", func() {
			for _, raw := range []float64{-1, -0.5, math.NaN(), math.Inf(1)} {
				_, err := experience.Decode(raw)
				So(errors.Is(err, experience.ErrInvalidFormat), ShouldBeTrue)
			}
		})

		Convey("When a float like 2.10 loses its trailing zero", func() {
			v, err := experience.Decode(2.10)
			So(err, ShouldBeNil)
			So(v, ShouldAlmostEqual, 2+1.0/12, 1e-4)
		})
	})
}

func TestDecodeLiteral(t *testing.T) {
	Convey("Given textual literals", t, func() {
		Convey("Then two-digit months are read verbatim", func() {
			v, err := experience.DecodeLiteral("2.10")
			So(err, ShouldBeNil)
			So(v, ShouldAlmostEqual, 2+10.0/12, 1e-4)
		})

		Convey("Then zero-padded months are accepted", func() {
			v, err := experience.DecodeLiteral("2.06")
			So(err, ShouldBeNil)
			So(v, ShouldEqual, 2.5)
		})

		Convey("Then surrounding whitespace is ignored", func() {
			v, err := experience.DecodeLiteral(" 4 ")
			So(err, ShouldBeNil)
			So(v, ShouldEqual, 4)
		})

		Convey("Then exponent literals are rendered in plain decimal first", func() {
			v, err := experience.DecodeLiteral("2.6e0")
			So(err, ShouldBeNil)
			So(v, ShouldEqual, 2.5)
		})

		Convey("Then malformed literals are rejected", func() {
			for _, text := range []string{"", "-1", "abc", ".5", "1.2.3", "+2", "2.x"} {
				_, err := experience.DecodeLiteral(text)
				So(errors.Is(err, experience.ErrInvalidFormat), ShouldBeTrue)
			}
		})

		Convey("Then month parts longer than two digits are rejected", func() {
			for _, text := range []string{"2.001", "0.00001", "1.100"} {
				_, err := experience.DecodeLiteral(text)
				So(errors.Is(err, experience.ErrInvalidFormat), ShouldBeTrue)
			}
		})
	})
}

func TestDecodeProperty(t *testing.T) {
	for years := 0; years <= 50; years++ {
		for months := 0; months < 12; months++ {
			literal := fmt.Sprintf("%d.%d", years, months)
			want := float64(years) + float64(months)/12

			got, err := experience.DecodeLiteral(literal)
			if err != nil {
				t.Fatalf("DecodeLiteral(%q): %v", literal, err)
			}
			if math.Abs(got-want) > 1e-4 {
				t.Errorf("DecodeLiteral(%q) = %v, want %v", literal, got, want)
			}

			raw, err := strconv.ParseFloat(literal, 64)
			if err != nil {
				t.Fatal(err)
			}
			if months == 10 {
				// 10 months cannot be written as a float: y.10 == y.1.
				continue
			}
			got, err = experience.Decode(raw)
			if err != nil {
				t.Fatalf("Decode(%v): %v", raw, err)
			}
			if math.Abs(got-want) > 1e-4 {
				t.Errorf("Decode(%v) = %v, want %v", raw, got, want)
			}
		}
	}
}

func TestParse(t *testing.T) {
	span, err := experience.Parse("7.11")
	if err != nil {
		t.Fatal(err)
	}
	if span.Years != 7 || span.Months != 11 {
		t.Errorf("expected 7y11m, got %+v", span)
	}
}
