package bovada

import (
	"encoding/json"
	"strconv"
	"strings"

	"github.com/alanyoungcy/cfbspreads/internal/domain"
)

// apiScoreNode covers both scoreboard shapes: the BGS list form with
// latestScore/clock/gameStatus and the older flat dict form.
type apiScoreNode struct {
	LatestScore *struct {
		Home    flexString `json:"home"`
		Visitor flexString `json:"visitor"`
	} `json:"latestScore"`
	Clock      json.RawMessage `json:"clock"`
	EventClock json.RawMessage `json:"eventClock"`
	GameStatus string          `json:"gameStatus"`
	Status     string          `json:"status"`
	Period     flexString      `json:"period"`
	Home       json.RawMessage `json:"home"`
	HomeTeam   json.RawMessage `json:"homeTeam"`
	Away       json.RawMessage `json:"away"`
	AwayTeam   json.RawMessage `json:"awayTeam"`
}

type apiScoreSide struct {
	Score  flexString `json:"score"`
	Points flexString `json:"points"`
}

type apiClock struct {
	GameTime     flexString `json:"gameTime"`
	DisplayValue flexString `json:"displayValue"`
	ShortLabel   flexString `json:"shortLabel"`
	Period       flexString `json:"period"`
	PeriodNumber flexString `json:"periodNumber"`
}

func parseScore(body []byte) (domain.Score, error) {
	var node apiScoreNode

	var list []apiScoreNode
	if err := json.Unmarshal(body, &list); err == nil {
		if len(list) == 0 {
			return domain.Score{}, nil
		}
		node = list[0]
	} else if err := json.Unmarshal(body, &node); err != nil {
		return domain.Score{}, err
	}

	var score domain.Score
	if node.LatestScore != nil {
		score.Home = atoiPtr(string(node.LatestScore.Home))
		score.Away = atoiPtr(string(node.LatestScore.Visitor))
		score.Status = firstNonEmpty(node.GameStatus, node.Status)
	} else {
		score.Home = sideScore(node.Home, node.HomeTeam)
		score.Away = sideScore(node.Away, node.AwayTeam)
		score.Status = firstNonEmpty(node.Status, node.GameStatus)
	}

	raw := node.Clock
	if len(raw) == 0 {
		raw = node.EventClock
	}
	var clk apiClock
	if len(raw) > 0 && json.Unmarshal(raw, &clk) == nil {
		score.Clock = firstNonEmpty(string(clk.GameTime), string(clk.DisplayValue), string(clk.ShortLabel))
		score.Period = firstNonEmpty(string(clk.Period), string(clk.PeriodNumber))
	}
	if score.Period == "" {
		score.Period = string(node.Period)
	}
	return score, nil
}

// sideScore reads the first decodable side object; other shapes (a bare
// team name, for instance) are ignored.
func sideScore(raws ...json.RawMessage) *int {
	for _, raw := range raws {
		var s apiScoreSide
		if len(raw) == 0 || json.Unmarshal(raw, &s) != nil {
			continue
		}
		if v := atoiPtr(firstNonEmpty(string(s.Score), string(s.Points))); v != nil {
			return v
		}
	}
	return nil
}

func atoiPtr(s string) *int {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return nil
	}
	return &n
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
