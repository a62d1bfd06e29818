package types_test

import (
	"encoding/json"
	"testing"

	"github.com/okian/pooldraft/internal/domain/model"
	"github.com/okian/pooldraft/internal/domain/types"
	. "github.com/smartystreets/goconvey/convey"
)

func TestRosterEntry(t *testing.T) {
	Convey("Given a roster entry", t, func() {
		entry := types.RosterEntry{
			Candidate: model.Candidate{ID: "c1", Name: "Virat Kohli", Role: model.RoleBatsman, SkillScore: 95, BasePrice: 2},
			Curated:   true,
			GroupID:   "pool-1",
		}

		Convey("When encoding it", func() {
			raw, err := json.Marshal(entry)
			So(err, ShouldBeNil)

			var fields map[string]any
			So(json.Unmarshal(raw, &fields), ShouldBeNil)

			Convey("Then candidate fields are flattened beside the session flags", func() {
				So(fields["id"], ShouldEqual, "c1")
				So(fields["role"], ShouldEqual, "Batsman")
				So(fields["curated"], ShouldEqual, true)
				So(fields["staged"], ShouldEqual, false)
				So(fields["group_id"], ShouldEqual, "pool-1")
			})
		})

		Convey("When it is not curated", func() {
			entry.Curated = false
			entry.GroupID = ""
			raw, _ := json.Marshal(entry)

			Convey("Then the group id is omitted", func() {
				So(string(raw), ShouldNotContainSubstring, "group_id")
			})
		})
	})
}
