package services

import (
	"errors"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"

	"esports-platform/internal/status"
	"esports-platform/models"
)

const (
	minTeams = 2
	maxTeams = 128
)

// eventRules is the field set checked on create and on every merged update.
type eventRules struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Game        string `json:"game"`
	BracketType string `json:"bracket_type"`
	CheckoutURL string `json:"organizer_checkout_url"`
	Status      string `json:"status"`
}

// validateEvent checks e against the creation rules. The start time is only
// required to be in the future when checkStart is set.
func validateEvent(e models.Event, now time.Time, checkStart bool) error {
	v := status.NewValidationError()

	r := eventRules{
		Title:       e.Title,
		Description: e.Description,
		Game:        e.Game,
		BracketType: string(e.BracketType),
		CheckoutURL: e.CheckoutURL,
		Status:      string(e.Status),
	}
	err := validation.ValidateStruct(&r,
		validation.Field(&r.Title, validation.Required.Error("title is required"),
			validation.RuneLength(5, 255).Error("title must be between 5 and 255 characters")),
		validation.Field(&r.Description,
			validation.RuneLength(0, 1000).Error("description cannot exceed 1000 characters")),
		validation.Field(&r.Game, validation.Required.Error("game is required"),
			validation.RuneLength(1, 100).Error("game must be between 1 and 100 characters")),
		validation.Field(&r.BracketType, validation.Required,
			validation.In(
				string(models.SingleElimination), string(models.DoubleElimination),
				string(models.RoundRobin), string(models.Swiss),
			).Error("bracket type must be single_elimination, double_elimination, round_robin or swiss")),
		validation.Field(&r.CheckoutURL, is.RequestURL.Error("checkout URL must be a valid URI")),
		validation.Field(&r.Status, validation.Required,
			validation.By(func(value any) error {
				if !models.EventStatus(value.(string)).Valid() {
					return errors.New("status must be draft, published, live, completed or cancelled")
				}
				return nil
			})),
	)
	var fieldErrs validation.Errors
	if errors.As(err, &fieldErrs) {
		for field, fe := range fieldErrs {
			v.Add(field, fe.Error())
		}
	} else if err != nil {
		return err
	}

	if e.StartTime.IsZero() {
		v.Add("start_time", "start time is required")
	} else if checkStart && !e.StartTime.After(now) {
		v.Add("start_time", "start time must be in the future")
	}
	if e.EndTime.IsZero() {
		v.Add("end_time", "end time is required")
	} else if !e.EndTime.After(e.StartTime) {
		v.Add("end_time", "end time must be after start time")
	}

	if e.MaxTeams != nil {
		switch {
		case *e.MaxTeams < minTeams || *e.MaxTeams > maxTeams:
			v.Add("max_teams", "max teams must be between 2 and 128")
		case *e.MaxTeams < e.CurrentTeams:
			v.Add("max_teams", "max teams cannot be lower than the current number of registrations")
		}
	}

	return v.OrNil()
}

func normalizeInput(in models.EventInput) models.EventInput {
	in.Title = strings.TrimSpace(in.Title)
	in.Game = strings.TrimSpace(in.Game)
	in.Description = strings.TrimSpace(in.Description)
	in.CheckoutURL = strings.TrimSpace(in.CheckoutURL)
	if in.BracketType == "" {
		in.BracketType = models.SingleElimination
	}
	return in
}
