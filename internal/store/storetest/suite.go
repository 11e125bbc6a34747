// Package storetest holds behaviour every SessionStore backend must share.
package storetest

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shrimpsizemoose/cgpacalc/internal/models"
	"github.com/shrimpsizemoose/cgpacalc/internal/store"
)

func sampleSession() *models.Session {
	s := models.NewSession("200", models.SecondSemester)
	s.AddCourse(models.Course{Code: "CSC201", Title: "Data Structures", CreditUnit: 3, Grade: models.GradeA})
	s.AddCourse(models.Course{Code: "MTH201", CreditUnit: 2, Grade: models.GradeC})
	s.AddCourse(models.Course{Code: "GST201", CreditUnit: 1, Grade: models.GradeInvalid, Score: models.ScoreOf(104)})
	return s
}

func RunUsers(t *testing.T, s store.SessionStore) {
	t.Run("missing user", func(t *testing.T) {
		got, err := s.GetUser("nobody")
		require.NoError(t, err)
		assert.Nil(t, got)
	})

	t.Run("create and get", func(t *testing.T) {
		err := s.CreateUser(&models.User{Username: "ada", Password: "hash-1"})
		require.NoError(t, err)

		got, err := s.GetUser("ada")
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, "ada", got.Username)
		assert.Equal(t, "hash-1", got.Password)
	})

	t.Run("duplicate username", func(t *testing.T) {
		err := s.CreateUser(&models.User{Username: "ada", Password: "hash-2"})
		assert.ErrorIs(t, err, store.ErrUserExists)

		got, err := s.GetUser("ada")
		require.NoError(t, err)
		assert.Equal(t, "hash-1", got.Password)
	})

	t.Run("update password", func(t *testing.T) {
		require.NoError(t, s.UpdatePassword("ada", "hash-3"))

		got, err := s.GetUser("ada")
		require.NoError(t, err)
		assert.Equal(t, "hash-3", got.Password)
	})
}

func RunSessions(t *testing.T, s store.SessionStore) {
	t.Run("missing session is no data", func(t *testing.T) {
		got, err := s.LoadSession("ghost")
		require.NoError(t, err)
		assert.Nil(t, got)
	})

	t.Run("round trip is lossless", func(t *testing.T) {
		want := sampleSession()
		require.NoError(t, s.SaveSession("ada", want))

		got, err := s.LoadSession("ada")
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, want, got)
	})

	t.Run("save overwrites", func(t *testing.T) {
		next := models.NewSession("300", models.FullSession)
		next.AddCourse(models.Course{Code: "EEE301", CreditUnit: 4, Grade: models.GradeB})
		require.NoError(t, s.SaveSession("ada", next))

		got, err := s.LoadSession("ada")
		require.NoError(t, err)
		assert.Equal(t, next, got)
	})

	t.Run("empty session", func(t *testing.T) {
		require.NoError(t, s.SaveSession("bob", models.NewSession("", "")))

		got, err := s.LoadSession("bob")
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Empty(t, got.Courses)
		assert.NotNil(t, got.Courses)
	})

	t.Run("anonymous owner", func(t *testing.T) {
		require.NoError(t, s.SaveSession("", sampleSession()))

		got, err := s.LoadSession(store.AnonymousOwner)
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Len(t, got.Courses, 3)
	})

	t.Run("list sessions", func(t *testing.T) {
		saved, err := s.ListSessions()
		require.NoError(t, err)

		owners := make([]string, 0, len(saved))
		for _, ss := range saved {
			owners = append(owners, ss.Owner)
		}
		assert.ElementsMatch(t, []string{"ada", "bob", store.AnonymousOwner}, owners)
	})
}
