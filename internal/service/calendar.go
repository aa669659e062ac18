package service

import (
	"time"

	ical "github.com/emersion/go-ical"
	"github.com/immxrtalbeast/huddle/internal/domain"
)

const calendarProductID = "-//huddle//calendar//EN"

func newCalendar(name string, events []*domain.Event, stamp time.Time) *ical.Calendar {
	cal := ical.NewCalendar()
	cal.Props.SetText(ical.PropVersion, "2.0")
	cal.Props.SetText(ical.PropProductID, calendarProductID)
	if name != "" {
		// Written without a VALUE parameter, which is how clients expect it.
		calName := ical.NewProp("X-WR-CALNAME")
		calName.Value = name
		cal.Props.Set(calName)
	}

	for _, e := range events {
		cal.Children = append(cal.Children, eventComponent(e, stamp))
	}
	return cal
}

// eventComponent renders an all-day VEVENT. DTEND is exclusive in
// iCalendar, stored end dates are inclusive.
func eventComponent(e *domain.Event, stamp time.Time) *ical.Component {
	start, _ := time.Parse(domain.DateLayout, e.StartDate)
	end, _ := time.Parse(domain.DateLayout, e.EndDate)

	ve := ical.NewComponent(ical.CompEvent)
	ve.Props.SetText(ical.PropUID, e.ID.String()+"@huddle")
	ve.Props.SetDateTime(ical.PropDateTimeStamp, stamp.UTC())
	ve.Props.SetDate(ical.PropDateTimeStart, start)
	ve.Props.SetDate(ical.PropDateTimeEnd, end.AddDate(0, 0, 1))
	ve.Props.SetText(ical.PropSummary, e.Title)

	if e.Note != "" {
		ve.Props.SetText(ical.PropDescription, e.Note)
	}

	switch e.Status {
	case domain.AvailabilityAvailable:
		ve.Props.SetText(ical.PropTransparency, "TRANSPARENT")
	default:
		ve.Props.SetText(ical.PropTransparency, "OPAQUE")
	}
	if e.Status == domain.AvailabilityTentative {
		ve.Props.SetText(ical.PropStatus, "TENTATIVE")
	} else {
		ve.Props.SetText(ical.PropStatus, "CONFIRMED")
	}

	switch e.Visibility {
	case domain.VisibilityPrivate:
		ve.Props.SetText(ical.PropClass, "PRIVATE")
	case domain.VisibilityStatusOnly:
		ve.Props.SetText(ical.PropClass, "CONFIDENTIAL")
	default:
		ve.Props.SetText(ical.PropClass, "PUBLIC")
	}
	return ve
}
