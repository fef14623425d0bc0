package history_test

import (
	"context"
	"errors"
	"testing"

	"github.com/okian/salaryd/internal/adapters/repository"
	"github.com/okian/salaryd/internal/domain/history"
	"github.com/okian/salaryd/internal/domain/prediction"
	. "github.com/smartystreets/goconvey/convey"
)

func result(years ...float64) prediction.Result {
	pred := make([]float64, len(years))
	for i := range years {
		pred[i] = 1000
	}
	return prediction.Result{
		InputYears:      years,
		ConvertedYears:  years,
		PredictedSalary: pred,
	}
}

func TestAdapter(t *testing.T) {
	Convey("Given an adapter over an in-memory store", t, func() {
		ctx := context.Background()
		store := repository.NewMemoryStore()
		a := history.NewAdapter(store)

		Convey("Record copies the result and counts rows", func() {
			res := result(1, 2, 3)
			res.City = []string{"jakarta", "bali", "medan"}
			r, err := a.Record(ctx, res, "v7")
			So(err, ShouldBeNil)
			So(r.ID, ShouldBeGreaterThan, 0)
			So(r.DataCount, ShouldEqual, 3)
			So(r.ModelVersion, ShouldEqual, "v7")
			So(r.CreatedAt.IsZero(), ShouldBeFalse)

			res.City[0] = "changed"
			got, ok, err := a.Get(ctx, r.ID)
			So(err, ShouldBeNil)
			So(ok, ShouldBeTrue)
			So(got.City[0], ShouldEqual, "jakarta")
		})

		Convey("Get reports absence without an error", func() {
			_, ok, err := a.Get(ctx, 12345)
			So(err, ShouldBeNil)
			So(ok, ShouldBeFalse)
		})

		Convey("List on an empty store has one empty page", func() {
			l, err := a.List(ctx, history.ListParams{Page: 1, Size: 10})
			So(err, ShouldBeNil)
			So(l.TotalData, ShouldEqual, 0)
			So(l.TotalPages, ShouldEqual, 1)
			So(l.Items, ShouldNotBeNil)
			So(l.Items, ShouldBeEmpty)
		})

		Convey("Paging through every page visits every record once", func() {
			for i := 0; i < 23; i++ {
				_, err := a.Record(ctx, result(float64(i)), "v1")
				So(err, ShouldBeNil)
			}
			first, err := a.List(ctx, history.ListParams{Page: 1, Size: 5})
			So(err, ShouldBeNil)
			So(first.TotalData, ShouldEqual, 23)
			So(first.TotalPages, ShouldEqual, 5)

			sum := 0
			ids := map[int64]bool{}
			for page := 1; page <= first.TotalPages; page++ {
				l, err := a.List(ctx, history.ListParams{Page: page, Size: 5})
				So(err, ShouldBeNil)
				So(l.CurrentPage, ShouldEqual, page)
				So(l.PageSize, ShouldEqual, 5)
				sum += len(l.Items)
				for _, r := range l.Items {
					ids[r.ID] = true
				}
			}
			So(sum, ShouldEqual, 23)
			So(len(ids), ShouldEqual, 23)
		})

		Convey("List validates bounds", func() {
			_, err := a.List(ctx, history.ListParams{Page: 0, Size: 10})
			So(errors.Is(err, history.ErrInvalidPage), ShouldBeTrue)
			_, err = a.List(ctx, history.ListParams{Page: 1, Size: 0})
			So(errors.Is(err, history.ErrInvalidPage), ShouldBeTrue)
		})

		Convey("FeedbackRecords walks every page of labelled records", func() {
			for i := 0; i < 230; i++ {
				r, err := a.Record(ctx, result(float64(i%40)), "v1")
				So(err, ShouldBeNil)
				if i%10 != 0 {
					_, err = store.UpdateActualSalary(ctx, r.ID, []float64{2000})
					So(err, ShouldBeNil)
				}
			}
			recs, err := a.FeedbackRecords(ctx)
			So(err, ShouldBeNil)
			So(len(recs), ShouldEqual, 207)
			for _, r := range recs {
				So(r.HasFeedback(), ShouldBeTrue)
			}
		})
	})
}

// labelAfterFirstPage attaches feedback to one record once the first page has
// been served, shifting later pages of a newest-first walk.
type labelAfterFirstPage struct {
	history.Store
	id      int64
	queries int
}

func (s *labelAfterFirstPage) Query(ctx context.Context, q history.Query) (history.Page, error) {
	p, err := s.Store.Query(ctx, q)
	s.queries++
	if s.queries == 1 && err == nil {
		_, err = s.Store.UpdateActualSalary(ctx, s.id, []float64{3000})
	}
	return p, err
}

func TestFeedbackRecordsLabelledMidWalk(t *testing.T) {
	Convey("Given 201 records with all but the newest labelled", t, func() {
		ctx := context.Background()
		base := repository.NewMemoryStore()
		var newest int64
		for i := 0; i < 201; i++ {
			r, err := base.Create(ctx, history.Record{
				InputYears:      []float64{1},
				ConvertedYears:  []float64{1},
				PredictedSalary: []float64{1000},
				DataCount:       1,
			})
			So(err, ShouldBeNil)
			newest = r.ID
			if i < 200 {
				_, err = base.UpdateActualSalary(ctx, r.ID, []float64{2000})
				So(err, ShouldBeNil)
			}
		}
		store := &labelAfterFirstPage{Store: base, id: newest}

		Convey("When the newest record is labelled after the first page", func() {
			recs, err := history.NewAdapter(store).FeedbackRecords(ctx)

			Convey("Then every labelled record is returned exactly once", func() {
				So(err, ShouldBeNil)
				So(store.queries, ShouldBeGreaterThan, 1)
				ids := make(map[int64]int, len(recs))
				for _, r := range recs {
					ids[r.ID]++
				}
				for id, n := range ids {
					So(n, ShouldEqual, 1)
					So(id, ShouldBeGreaterThan, 0)
				}
				So(len(recs), ShouldEqual, len(ids))
				So(len(recs), ShouldEqual, 200)
			})
		})
	})
}

func TestValidatePage(t *testing.T) {
	tests := []struct {
		page, size int
		ok         bool
	}{
		{1, 1, true},
		{3, 100, true},
		{0, 10, false},
		{-1, 10, false},
		{1, 101, false},
		{1, 0, false},
	}
	for _, tt := range tests {
		err := history.ValidatePage(tt.page, tt.size)
		if (err == nil) != tt.ok {
			t.Errorf("ValidatePage(%d, %d) = %v, want ok=%v", tt.page, tt.size, err, tt.ok)
		}
	}
}
