package model

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCandidateWrongType(t *testing.T) {
	tests := []struct {
		name  string
		body  string
		field string
	}{
		{"bool as string", `{"allDay":"yes"}`, "allDay"},
		{"title as number", `{"title":42}`, "title"},
		{"unparseable date", `{"startDate":"01/02/2024"}`, "startDate"},
		{"admins as string", `{"admins":"u1"}`, "admins"},
		{"time without date", `{"startTime":"09:00"}`, "startTime"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseCandidate([]byte(tt.body))
			requireValidationError(t, err, tt.field, ErrInvalidFieldType)
		})
	}
}

func TestParseCandidateNullAndUnknownFields(t *testing.T) {
	c, err := ParseCandidate([]byte(`{"title":"Standup","location":null,"color":"red"}`))
	require.NoError(t, err)

	require.NotNil(t, c.Title)
	assert.Equal(t, "Standup", *c.Title)
	assert.Nil(t, c.Location)
}

func TestParseCandidateRejectsNonObject(t *testing.T) {
	_, err := ParseCandidate([]byte(`[1,2]`))
	require.Error(t, err)

	var vErr *ValidationError
	assert.False(t, errors.As(err, &vErr))
}

func TestParseCandidateAcceptsTimestampDates(t *testing.T) {
	c, err := ParseCandidate([]byte(`{"startDate":"2024-03-05T10:00:00Z"}`))
	require.NoError(t, err)
	require.NotNil(t, c.StartDate)
	assert.Equal(t, "2024-03-05", c.StartDate.String())
}

func TestMergeOverlaysOnlyPresentFields(t *testing.T) {
	event, err := ValidateEvent(candidateWith(t, map[string]any{"location": "Room 1", "admins": []string{"u2"}}))
	require.NoError(t, err)

	newTitle := "Retro"
	blocked := StatusBlocked
	merged := event.Candidate().Merge(&EventCandidate{Title: &newTitle, Status: &blocked})

	updated, err := ValidateEvent(merged)
	require.NoError(t, err)

	assert.Equal(t, "Retro", updated.Title)
	assert.Equal(t, StatusBlocked, updated.Status)
	assert.Equal(t, "daily sync", updated.Description)
	require.NotNil(t, updated.Location)
	assert.Equal(t, "Room 1", *updated.Location)
	assert.Equal(t, []string{"u2"}, updated.Admins)

	assert.Equal(t, "Standup", event.Title, "source event must not change")
}

func TestMergeRevalidatesConditionalRules(t *testing.T) {
	event, err := ValidateEvent(candidateWith(t, nil))
	require.NoError(t, err)

	timed := false
	_, err = ValidateEvent(event.Candidate().Merge(&EventCandidate{AllDay: &timed}))
	requireValidationError(t, err, "startTime", ErrConditionalRequirementUnmet)

	start := time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)
	end := start.Add(30 * time.Minute)
	updated, err := ValidateEvent(event.Candidate().Merge(&EventCandidate{AllDay: &timed, StartTime: &start, EndTime: &end}))
	require.NoError(t, err)
	assert.False(t, updated.AllDay)
}

func TestCandidateRoundTripKeepsEvent(t *testing.T) {
	event, err := ValidateEvent(candidateWith(t, map[string]any{
		"recurring":  true,
		"recurrance": "MONTHLY",
		"latitude":   52.52,
		"endDate":    "2024-01-02",
	}))
	require.NoError(t, err)

	again, err := ValidateEvent(event.Candidate())
	require.NoError(t, err)
	assert.Equal(t, event, again)
}
