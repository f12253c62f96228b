package bovada

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/alanyoungcy/cfbspreads/internal/domain"
)

// flexString unmarshals from a JSON string or number. Bovada sends ids and
// handicaps either way depending on the feed.
type flexString string

func (f *flexString) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*f = ""
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*f = flexString(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*f = flexString(n.String())
	return nil
}

// flexInt unmarshals from a JSON number or numeric string; anything else
// decodes as zero.
type flexInt int

func (f *flexInt) UnmarshalJSON(data []byte) error {
	var s flexString
	if err := s.UnmarshalJSON(data); err != nil {
		*f = 0
		return nil
	}
	n, err := strconv.Atoi(strings.TrimSpace(string(s)))
	if err != nil {
		*f = 0
		return nil
	}
	*f = flexInt(n)
	return nil
}

// --------------------------------------------------------------------------
// Coupon DTOs
// --------------------------------------------------------------------------

// APIPathGroup is one element of the coupon response array.
type APIPathGroup struct {
	Path   []APIPath  `json:"path"`
	Events []APIEvent `json:"events"`
}

// APIPath is a sport/league breadcrumb.
type APIPath struct {
	ID          flexString `json:"id"`
	Description string     `json:"description"`
	Link        string     `json:"link"`
}

// APIEvent is an event node from the coupon or detail endpoints.
type APIEvent struct {
	ID            flexString        `json:"id"`
	Description   string            `json:"description"`
	Link          string            `json:"link"`
	Status        string            `json:"status"`
	StartTime     int64             `json:"startTime"`
	LastModified  int64             `json:"lastModified"`
	Live          bool              `json:"live"`
	Competitors   []APICompetitor   `json:"competitors"`
	DisplayGroups []APIDisplayGroup `json:"displayGroups"`
}

// APICompetitor is one side of an event.
type APICompetitor struct {
	ID           flexString `json:"id"`
	CompetitorID flexString `json:"competitorId"`
	Name         string     `json:"name"`
	Home         bool       `json:"home"`
}

func (c APICompetitor) id() string {
	if c.ID != "" {
		return string(c.ID)
	}
	return string(c.CompetitorID)
}

// APIDisplayGroup groups markets in the detail tree.
type APIDisplayGroup struct {
	ID          flexString  `json:"id"`
	Description string      `json:"description"`
	DefaultType bool        `json:"defaultType"`
	Markets     []APIMarket `json:"markets"`
}

// APIMarket is a market node.
type APIMarket struct {
	ID             flexString   `json:"id"`
	Key            string       `json:"key"`
	Description    string       `json:"description"`
	DescriptionKey string       `json:"descriptionKey"`
	Status         string       `json:"status"`
	Period         APIPeriod    `json:"period"`
	Outcomes       []APIOutcome `json:"outcomes"`
}

// APIPeriod describes the segment a market covers.
type APIPeriod struct {
	Description  string  `json:"description"`
	Abbreviation string  `json:"abbreviation"`
	Number       flexInt `json:"number"`
	PeriodNumber flexInt `json:"periodNumber"`
	Main         bool    `json:"main"`
	Live         bool    `json:"live"`
}

// APIOutcome is one side of a market.
type APIOutcome struct {
	ID            flexString `json:"id"`
	Description   string     `json:"description"`
	Type          string     `json:"type"`
	ParticipantID flexString `json:"participantId"`
	CompetitorID  flexString `json:"competitorId"`
	Price         APIPrice   `json:"price"`
}

// APIPrice carries American odds and the handicap line.
type APIPrice struct {
	American      flexString `json:"american"`
	Handicap      flexString `json:"handicap"`
	ParticipantID flexString `json:"participantId"`
}

// ToDomainEvent converts an APIEvent to a domain.ExternalEvent.
func (e *APIEvent) ToDomainEvent(sport string) domain.ExternalEvent {
	ev := domain.ExternalEvent{
		ID:           string(e.ID),
		Link:         e.Link,
		Description:  e.Description,
		Sport:        sport,
		Live:         e.Live,
		Status:       e.Status,
		StartTime:    fromMillis(e.StartTime),
		LastModified: fromMillis(e.LastModified),
	}

	var home, away *APICompetitor
	for i := range e.Competitors {
		c := &e.Competitors[i]
		if c.Home && home == nil {
			home = c
		} else if !c.Home && away == nil {
			away = c
		}
	}
	if home != nil {
		ev.HomeName = strings.TrimSpace(home.Name)
		ev.HomeID = home.id()
	}
	if away != nil {
		ev.AwayName = strings.TrimSpace(away.Name)
		ev.AwayID = away.id()
	}
	return ev
}

// ToDomainDetail converts the event's market tree.
func (e *APIEvent) ToDomainDetail() domain.EventDetail {
	detail := domain.EventDetail{
		EventID:       string(e.ID),
		DisplayGroups: make([]domain.DisplayGroup, 0, len(e.DisplayGroups)),
	}
	for _, dg := range e.DisplayGroups {
		group := domain.DisplayGroup{
			ID:          string(dg.ID),
			Description: dg.Description,
			Default:     dg.DefaultType,
			Markets:     make([]domain.Market, 0, len(dg.Markets)),
		}
		for _, m := range dg.Markets {
			group.Markets = append(group.Markets, m.toDomain())
		}
		detail.DisplayGroups = append(detail.DisplayGroups, group)
	}
	return detail
}

func (m APIMarket) toDomain() domain.Market {
	number := int(m.Period.Number)
	if number == 0 {
		number = int(m.Period.PeriodNumber)
	}
	out := domain.Market{
		ID:             string(m.ID),
		Key:            m.Key,
		Description:    m.Description,
		DescriptionKey: m.DescriptionKey,
		Status:         m.Status,
		Period: domain.Period{
			Description:  m.Period.Description,
			Abbreviation: m.Period.Abbreviation,
			Number:       number,
			Main:         m.Period.Main,
			Live:         m.Period.Live,
		},
		Outcomes: make([]domain.Outcome, 0, len(m.Outcomes)),
	}
	for _, o := range m.Outcomes {
		out.Outcomes = append(out.Outcomes, domain.Outcome{
			ID:            string(o.ID),
			Description:   o.Description,
			Type:          o.Type,
			ParticipantID: string(o.ParticipantID),
			CompetitorID:  string(o.CompetitorID),
			Price: domain.OutcomePrice{
				American:      string(o.Price.American),
				Handicap:      string(o.Price.Handicap),
				ParticipantID: string(o.Price.ParticipantID),
			},
		})
	}
	return out
}

func parseEvents(body []byte) ([]domain.ExternalEvent, error) {
	var groups []APIPathGroup
	if err := json.Unmarshal(body, &groups); err != nil {
		return nil, err
	}

	var events []domain.ExternalEvent
	for _, g := range groups {
		sport := ""
		if len(g.Path) > 0 {
			sport = g.Path[0].Description
		}
		for i := range g.Events {
			events = append(events, g.Events[i].ToDomainEvent(sport))
		}
	}
	return events, nil
}

func parseEventDetail(body []byte) (domain.EventDetail, error) {
	var groups []APIPathGroup
	if err := json.Unmarshal(body, &groups); err != nil {
		return domain.EventDetail{}, err
	}
	if len(groups) == 0 || len(groups[0].Events) == 0 {
		return domain.EventDetail{}, fmt.Errorf("empty event payload: %w", domain.ErrNotFound)
	}
	return groups[0].Events[0].ToDomainDetail(), nil
}

func fromMillis(ms int64) time.Time {
	if ms <= 0 {
		return time.Time{}
	}
	return time.UnixMilli(ms).UTC()
}
