package matching

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"carriercheck/internal/domain"
	"carriercheck/pkg/testutil"
)

var checkedAt = time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)

func dallasIntake() domain.Intake {
	return domain.IntakeFields{
		MCNumber:       "MC-12345",
		Origin:         "Dallas, TX",
		Destination:    "Atlanta, GA",
		PickupDatetime: "2024-05-01T08:00:00Z",
		EquipmentType:  "Dry Van",
	}.Normalize()
}

func load(id, origin, dest, pickup, equipment string) domain.Load {
	return domain.Load{LoadID: id, Origin: origin, Destination: dest, PickupDate: pickup, EquipmentType: equipment}
}

func TestExactMatch(t *testing.T) {
	engine := NewEngine(WithClock(testutil.FixedClock(checkedAt)))

	t.Run("full exact match carries all four reasons", func(t *testing.T) {
		loads := []domain.Load{load("L1", "Dallas, TX", "Atlanta, GA", "2024-05-01", "Dry Van")}

		res := engine.Match(dallasIntake(), loads, 3)

		require.Len(t, res.Matches, 1)
		assert.Equal(t, "L1", res.Matches[0].LoadID)
		assert.Equal(t, 4, res.Matches[0].MatchScore)
		assert.Equal(t, []string{"Origin exact", "Destination exact", "Pickup date exact", "Equipment exact"}, res.Matches[0].MatchReasons)
		assert.Equal(t, DefaultSourceTag, res.Source)
		assert.Equal(t, domain.StatusReady, res.Status)
		assert.Equal(t, checkedAt, res.CheckedAt)
		assert.Equal(t, 1, res.TotalAvailable)
	})

	t.Run("equipment mismatch yields no matches", func(t *testing.T) {
		loads := []domain.Load{load("L1", "Dallas, TX", "Atlanta, GA", "2024-05-01", "Reefer")}

		res := engine.Match(dallasIntake(), loads, 3)

		assert.Empty(t, res.Matches)
		assert.NotNil(t, res.Matches)
		assert.Equal(t, 1, res.TotalAvailable)
	})

	t.Run("case and whitespace are folded", func(t *testing.T) {
		loads := []domain.Load{load("L1", "  dallas, tx ", "ATLANTA, GA", "2024-05-01T23:59:00", "dry van")}
		assert.Len(t, engine.Match(dallasIntake(), loads, 3).Matches, 1)
	})

	t.Run("unparseable intake date never matches", func(t *testing.T) {
		in := dallasIntake()
		in.PickupDatetime = "next tuesday"
		loads := []domain.Load{load("L1", "Dallas, TX", "Atlanta, GA", "2024-05-01", "Dry Van")}
		assert.Empty(t, engine.Match(in, loads, 3).Matches)
	})

	t.Run("different day does not match", func(t *testing.T) {
		loads := []domain.Load{load("L1", "Dallas, TX", "Atlanta, GA", "2024-05-02", "Dry Van")}
		assert.Empty(t, engine.Match(dallasIntake(), loads, 3).Matches)
	})

	t.Run("empty intake origin never matches empty load origin", func(t *testing.T) {
		in := dallasIntake()
		in.Origin = ""
		loads := []domain.Load{load("L1", "", "Atlanta, GA", "2024-05-01", "Dry Van")}
		assert.Empty(t, engine.Match(in, loads, 3).Matches)
	})
}

func TestLimitAndOrdering(t *testing.T) {
	engine := NewEngine(WithClock(testutil.FixedClock(checkedAt)))
	var loads []domain.Load
	for _, id := range []string{"a", "b", "c", "d", "e"} {
		loads = append(loads, load(id, "Dallas, TX", "Atlanta, GA", "2024-05-01", "Dry Van"))
	}
	loads = append(loads, load("x", "Austin, TX", "Atlanta, GA", "2024-05-01", "Dry Van"))

	t.Run("non-positive limit defaults to three", func(t *testing.T) {
		res := engine.Match(dallasIntake(), loads, 0)
		require.Len(t, res.Matches, DefaultLimit)
		assert.Equal(t, 6, res.TotalAvailable)
	})

	t.Run("ties keep source order", func(t *testing.T) {
		res := engine.Match(dallasIntake(), loads, 10)
		require.Len(t, res.Matches, 5)
		var ids []string
		for _, m := range res.Matches {
			ids = append(ids, m.LoadID)
		}
		assert.Equal(t, []string{"a", "b", "c", "d", "e"}, ids)
	})

	t.Run("empty source", func(t *testing.T) {
		res := engine.Match(dallasIntake(), nil, 3)
		assert.Empty(t, res.Matches)
		assert.Equal(t, 0, res.TotalAvailable)
	})
}

func TestOverlapPolicy(t *testing.T) {
	engine := NewEngine(
		WithPolicy(PolicyByName("overlap")),
		WithSourceTag("loadboard"),
		WithClock(testutil.FixedClock(checkedAt)),
	)

	loads := []domain.Load{
		load("lane-only", "Dallas Metro, TX", "Atlanta, GA", "2024-05-01", "Reefer"),
		load("full", "Dallas, TX", "Atlanta, GA", "2024-05-01", "Dry Van 53ft"),
		load("wrong-day", "Dallas, TX", "Atlanta, GA", "2024-05-03", "Dry Van"),
		load("nothing", "Reno, NV", "Boise, ID", "2024-05-01", "Flatbed"),
	}

	res := engine.Match(dallasIntake(), loads, 3)

	require.Len(t, res.Matches, 2)
	assert.Equal(t, "full", res.Matches[0].LoadID)
	assert.Equal(t, 8, res.Matches[0].MatchScore)
	assert.Equal(t, []string{"Origin match", "Destination match", "Equipment match", "Pickup date match"}, res.Matches[0].MatchReasons)
	assert.Equal(t, "lane-only", res.Matches[1].LoadID)
	assert.Equal(t, 6, res.Matches[1].MatchScore)
	assert.Equal(t, "loadboard", res.Source)
	assert.Equal(t, 4, res.TotalAvailable)

	t.Run("date not required when intake date is unparseable", func(t *testing.T) {
		in := dallasIntake()
		in.PickupDatetime = "asap"
		res := engine.Match(in, loads[2:3], 3)
		require.Len(t, res.Matches, 1)
		assert.NotContains(t, res.Matches[0].MatchReasons, "Pickup date match")
	})
}

func TestPolicyByName(t *testing.T) {
	assert.IsType(t, ExactPolicy{}, PolicyByName(""))
	assert.IsType(t, ExactPolicy{}, PolicyByName("exact"))
	assert.IsType(t, OverlapPolicy{}, PolicyByName(" Overlap "))
}
