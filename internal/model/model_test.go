// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// =============================================================================
// MESSAGE TESTS
// =============================================================================

func TestSortMessages_StableAscending(t *testing.T) {
	base := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	msgs := []Message{
		{ID: "c", CreatedAt: base.Add(2 * time.Second)},
		{ID: "a", CreatedAt: base},
		{ID: "b1", CreatedAt: base.Add(time.Second)},
		{ID: "b2", CreatedAt: base.Add(time.Second)},
	}

	sorted := SortMessages(msgs)

	ids := make([]string, len(sorted))
	for i, m := range sorted {
		ids[i] = m.ID
	}
	assert.Equal(t, []string{"a", "b1", "b2", "c"}, ids)
	assert.Equal(t, "c", msgs[0].ID, "input slice must not be reordered")
}

func TestNewOptimisticMessage(t *testing.T) {
	now := time.Now()
	m := NewOptimisticMessage("s1", "Hello", now)

	assert.True(t, IsTemporary(m.ID))
	assert.True(t, m.Optimistic)
	assert.Equal(t, RoleUser, m.Role)
	assert.Equal(t, "s1", m.SessionID)
	assert.Equal(t, now, m.CreatedAt)

	other := NewOptimisticMessage("s1", "Hello", now)
	assert.NotEqual(t, m.ID, other.ID, "temp ids must be unique")
}

func TestParseRating(t *testing.T) {
	r, err := ParseRating(" UP ")
	require.NoError(t, err)
	assert.Equal(t, RatingUp, r)

	r, err = ParseRating("down")
	require.NoError(t, err)
	assert.Equal(t, RatingDown, r)

	_, err = ParseRating("sideways")
	assert.True(t, IsValidation(err))
}

func TestMessagePreview(t *testing.T) {
	m := Message{Content: "hello\n  world, this is long"}
	assert.Equal(t, "hello world, this is long", m.Preview(100))
	assert.Equal(t, "hello w...", m.Preview(10))
}

// =============================================================================
// FILTER TESTS
// =============================================================================

func TestProject(t *testing.T) {
	msgs := []Message{
		{ID: "1", Pinned: true},
		{ID: "2", Rating: RatingUp},
		{ID: "3"},
		{ID: "4", Pinned: true, Rating: RatingDown},
	}

	assert.Len(t, Project(msgs, FilterAll), 4)
	assert.Len(t, Project(msgs, FilterSearch), 4)

	pinned := Project(msgs, FilterPinned)
	require.Len(t, pinned, 2)
	assert.Equal(t, "1", pinned[0].ID)
	assert.Equal(t, "4", pinned[1].ID)

	rated := Project(msgs, FilterRated)
	require.Len(t, rated, 2)
	assert.Equal(t, "2", rated[0].ID)
	assert.Equal(t, "4", rated[1].ID)
}

func TestParseFilter(t *testing.T) {
	f, err := ParseFilter("Pinned")
	require.NoError(t, err)
	assert.Equal(t, FilterPinned, f)

	f, err = ParseFilter("")
	require.NoError(t, err)
	assert.Equal(t, FilterAll, f)

	_, err = ParseFilter("search")
	assert.True(t, IsValidation(err))
}

func TestFilterNext(t *testing.T) {
	assert.Equal(t, FilterPinned, FilterAll.Next())
	assert.Equal(t, FilterRated, FilterPinned.Next())
	assert.Equal(t, FilterAll, FilterRated.Next())
	assert.Equal(t, FilterAll, FilterSearch.Next())
}

// =============================================================================
// SESSION TESTS
// =============================================================================

func TestSortSessions_NewestFirst(t *testing.T) {
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	sessions := []Session{
		{ID: "old", CreatedAt: base},
		{ID: "new", CreatedAt: base.Add(time.Hour)},
		{ID: "mid-b", CreatedAt: base.Add(time.Minute), UpdatedAt: base.Add(time.Minute)},
		{ID: "mid-a", CreatedAt: base.Add(time.Minute), UpdatedAt: base.Add(2 * time.Minute)},
	}

	sorted := SortSessions(sessions)

	ids := []string{sorted[0].ID, sorted[1].ID, sorted[2].ID, sorted[3].ID}
	assert.Equal(t, []string{"new", "mid-a", "mid-b", "old"}, ids)
}

func TestSessionDisplayTitle(t *testing.T) {
	assert.Equal(t, UntitledSession, Session{}.DisplayTitle())
	assert.Equal(t, UntitledSession, Session{Title: "  "}.DisplayTitle())
	assert.Equal(t, "Plans", Session{Title: "Plans"}.DisplayTitle())
}

// =============================================================================
// ERROR TESTS
// =============================================================================

func TestErrorWrapping(t *testing.T) {
	cause := errors.New("boom")

	var loadErr error = &LoadError{SessionID: "s1", Err: cause}
	assert.ErrorIs(t, loadErr, cause)
	assert.Contains(t, loadErr.Error(), "s1")

	var fetchErr error = &FetchError{Err: cause}
	assert.ErrorIs(t, fetchErr, cause)

	var formatErr error = &FormatError{Reason: "no messages", Err: cause}
	assert.ErrorIs(t, formatErr, cause)
	assert.Contains(t, formatErr.Error(), "no messages")

	v := &ValidationError{Field: "title", Reason: "must not be empty"}
	assert.Equal(t, "invalid title: must not be empty", v.Error())
}

func TestValidateStruct(t *testing.T) {
	type creds struct {
		Email    string `json:"email" validate:"required,email"`
		Password string `json:"password" validate:"required"`
	}

	require.NoError(t, ValidateStruct(creds{Email: "a@example.com", Password: "pw"}))

	err := ValidateStruct(creds{Email: "nope"})
	require.Error(t, err)
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "email", verr.Field)
	assert.Contains(t, verr.Reason, "'email' tag")
	assert.Contains(t, verr.Reason, "'required' tag")
}
