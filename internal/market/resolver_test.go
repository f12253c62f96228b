package market

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alanyoungcy/cfbspreads/internal/domain"
)

var ohioPenn = Teams{HomeID: "h1", AwayID: "a1", HomeName: "Penn State", AwayName: "Ohio State"}

var (
	liveGame     = domain.Period{Description: "Live Game", Abbreviation: "LG", Live: true}
	prematchGame = domain.Period{Description: "Game", Abbreviation: "G", Main: true}
	firstHalf    = domain.Period{Description: "First Half", Abbreviation: "1H", Number: 1}
)

func spreadMarket(period domain.Period, status string, home, away string) domain.Market {
	return domain.Market{
		Key:            "2W-HCAP",
		Description:    "Point Spread",
		DescriptionKey: "Main Dynamic Asian Handicap",
		Status:         status,
		Period:         period,
		Outcomes: []domain.Outcome{
			{Description: "Penn State", ParticipantID: "h1", Price: domain.OutcomePrice{American: "-110", Handicap: home}},
			{Description: "Ohio State", ParticipantID: "a1", Price: domain.OutcomePrice{American: "-110", Handicap: away}},
		},
	}
}

func tree(markets ...domain.Market) domain.EventDetail {
	return domain.EventDetail{
		EventID:       "e1",
		DisplayGroups: []domain.DisplayGroup{{ID: "g1", Description: "Game Lines", Default: true, Markets: markets}},
	}
}

func TestResolveNeverSelectsSegmentMarkets(t *testing.T) {
	segments := []domain.Period{
		firstHalf,
		{Description: "2nd Half", Main: true},
		{Description: "1st Quarter", Abbreviation: "Q1"},
		{Description: "Game", Main: true, Number: 2},
		{Description: "Live Game", Abbreviation: "LG", Number: 3},
		{Description: "Live 1st Half Game"},
	}
	for _, p := range segments {
		t.Run(p.Description, func(t *testing.T) {
			set := Resolve(tree(spreadMarket(p, "O", "-7.5", "+7.5")), ohioPenn)
			assert.Nil(t, set.Spread)
		})
	}
}

func TestResolveRejectsDerivativeDescriptions(t *testing.T) {
	for _, desc := range []string{"Alternate Point Spread", "Team Total - Penn State", "Winning Margin", "Race to 20 Points", "Correct Score"} {
		m := spreadMarket(liveGame, "O", "-3.5", "+3.5")
		m.Description = desc
		assert.Empty(t, Candidates(tree(m)), desc)
	}
}

func TestResolvePrefersLiveOverPrematch(t *testing.T) {
	prematch := spreadMarket(prematchGame, "O", "-3", "+3")
	live := spreadMarket(liveGame, "O", "-3.5", "+3.5")

	set := Resolve(tree(prematch, live), ohioPenn)

	require.NotNil(t, set.Spread)
	require.NotNil(t, set.Spread.Home)
	assert.Equal(t, -3.5, *set.Spread.Home)
	assert.Equal(t, 3.5, *set.Spread.Away)
	assert.Equal(t, domain.ProvenanceLive, set.Spread.Source)
}

func TestResolvePrefersOpenOverSuspended(t *testing.T) {
	suspended := spreadMarket(liveGame, "S", "-4.5", "+4.5")
	open := spreadMarket(liveGame, "O", "-3.5", "+3.5")

	set := Resolve(tree(suspended, open), ohioPenn)

	require.NotNil(t, set.Spread)
	assert.Equal(t, -3.5, *set.Spread.Home)
	assert.Equal(t, "O", set.Spread.Status)
}

func TestResolvePrefersSymmetricSpread(t *testing.T) {
	asym := spreadMarket(prematchGame, "O", "-3.5", "+4")
	sym := spreadMarket(prematchGame, "O", "-3.5", "+3.5")

	best, ok := Select(Candidates(tree(asym, sym)), spreadKeys...)

	require.True(t, ok)
	assert.True(t, best.Symmetric)
	assert.Equal(t, "+3.5", best.Market.Outcomes[1].Price.Handicap)
}

func TestResolveSpreadLastOutcomePerSideWins(t *testing.T) {
	m := spreadMarket(liveGame, "O", "-3", "+3.5")
	m.Outcomes = append(m.Outcomes, domain.Outcome{
		Description: "Penn State", ParticipantID: "h1",
		Price: domain.OutcomePrice{American: "-115", Handicap: "-3.5"},
	})

	set := Resolve(tree(m), ohioPenn)

	require.NotNil(t, set.Spread)
	require.NotNil(t, set.Spread.Home)
	assert.Equal(t, -3.5, *set.Spread.Home)
	assert.Equal(t, "-115", set.Spread.HomePrice)
	assert.Equal(t, 3.5, *set.Spread.Away)
}

func TestResolveMainLineAndDefaultGroupBreakTies(t *testing.T) {
	alt := spreadMarket(prematchGame, "O", "-6.5", "+6.5")
	alt.DescriptionKey = "Point Spread"
	main := spreadMarket(prematchGame, "O", "-3.5", "+3.5")

	detail := domain.EventDetail{DisplayGroups: []domain.DisplayGroup{
		{ID: "other", Markets: []domain.Market{main}},
		{ID: "lines", Default: true, Markets: []domain.Market{alt}},
	}}

	set := Resolve(detail, ohioPenn)
	require.NotNil(t, set.Spread)
	assert.Equal(t, -3.5, *set.Spread.Home, "main dynamic line outranks default group")

	main.DescriptionKey = "Point Spread"
	detail.DisplayGroups[0].Markets = []domain.Market{main}
	set = Resolve(detail, ohioPenn)
	assert.Equal(t, -6.5, *set.Spread.Home, "default group decides when neither is main")
}

func TestResolveMoneylineFallsBackToThreeWay(t *testing.T) {
	threeWay := domain.Market{
		Key: "3W-12", Description: "Moneyline", Status: "O", Period: liveGame,
		Outcomes: []domain.Outcome{
			{Description: "Penn State", Type: "H", Price: domain.OutcomePrice{American: "−150"}},
			{Description: "Draw", Type: "D", Price: domain.OutcomePrice{American: "+2500"}},
			{Description: "Ohio State", Type: "A", Price: domain.OutcomePrice{American: "+130"}},
		},
	}

	set := Resolve(tree(threeWay), ohioPenn)

	require.NotNil(t, set.Moneyline)
	assert.Equal(t, "-150", set.Moneyline.Home)
	assert.Equal(t, "+130", set.Moneyline.Away)
	assert.Nil(t, set.Spread)
	assert.Nil(t, set.Total)
}

func TestResolveTwoWayMoneylineWinsOverThreeWay(t *testing.T) {
	twoWay := domain.Market{
		Key: "2W-12", Description: "Moneyline", Status: "S", Period: prematchGame,
		Outcomes: []domain.Outcome{
			{Description: "Penn State", Price: domain.OutcomePrice{American: "-170"}},
			{Description: "Ohio State", Price: domain.OutcomePrice{American: "+145"}},
		},
	}
	threeWay := twoWay
	threeWay.Key = "3W-12"
	threeWay.Status = "O"
	threeWay.Period = liveGame

	set := Resolve(tree(threeWay, twoWay), ohioPenn)

	require.NotNil(t, set.Moneyline)
	assert.Equal(t, "-170", set.Moneyline.Home)
	assert.Equal(t, domain.ProvenancePrematch, set.Moneyline.Source)
	assert.Equal(t, "S", set.Moneyline.Status, "suspended markets still resolve")
}

func TestResolveTotal(t *testing.T) {
	total := domain.Market{
		Key: "2W-OU", Description: "Total", Status: "O", Period: liveGame,
		Outcomes: []domain.Outcome{
			{Description: "Over", Price: domain.OutcomePrice{American: "-105", Handicap: "47.5"}},
			{Description: "Under", Price: domain.OutcomePrice{American: "-115", Handicap: "47.5"}},
		},
	}

	set := Resolve(tree(total), ohioPenn)

	require.NotNil(t, set.Total)
	require.NotNil(t, set.Total.Line)
	assert.Equal(t, 47.5, *set.Total.Line)
	assert.Equal(t, "-105", set.Total.Over)
	assert.Equal(t, "-115", set.Total.Under)
}

func TestResolveEmptyTree(t *testing.T) {
	set := Resolve(domain.EventDetail{}, ohioPenn)
	assert.True(t, set.Empty())
}

func TestSideOfPriority(t *testing.T) {
	tests := []struct {
		name    string
		outcome domain.Outcome
		want    side
	}{
		{"participant id beats text", domain.Outcome{ParticipantID: "a1", Description: "Penn State"}, sideAway},
		{"price participant id", domain.Outcome{Price: domain.OutcomePrice{ParticipantID: "h1"}}, sideHome},
		{"home name substring", domain.Outcome{Description: "Penn State Nittany Lions"}, sideHome},
		{"away name substring", domain.Outcome{Description: "Ohio State Buckeyes", Type: "H"}, sideAway},
		{"type code home", domain.Outcome{Type: "team 1"}, sideHome},
		{"type code away", domain.Outcome{Type: "A"}, sideAway},
		{"unknown", domain.Outcome{Description: "Field"}, sideUnknown},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, sideOf(tt.outcome, ohioPenn))
		})
	}
}

func TestRankOrdering(t *testing.T) {
	live := RankOf(Candidate{Kind: domain.MarketSpread, Live: true, Status: "S"})
	prematch := RankOf(Candidate{Kind: domain.MarketSpread, Prematch: true, Status: "O", MainLine: true, DefaultGroup: true, Symmetric: true})
	assert.True(t, live.Less(prematch), "period outranks every later position")
	assert.False(t, prematch.Less(live))
	assert.False(t, live.Less(live))
}
