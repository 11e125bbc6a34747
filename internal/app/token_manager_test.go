package app

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shrimpsizemoose/cgpacalc/internal/models"
)

func runTokenStoreSuite(t *testing.T, ts TokenStore) {
	ctx := context.Background()

	session := models.NewSession("100", models.FirstSemester)
	session.AddCourse(models.Course{Code: "CSC101", CreditUnit: 3, Grade: models.GradeA})

	us, err := ts.Issue(ctx, "ada", session)
	require.NoError(t, err)
	assert.Contains(t, us.Token, tokenPrefix)
	assert.Equal(t, "ada", us.Username)

	t.Run("fetch returns the workspace", func(t *testing.T) {
		got, err := ts.Fetch(ctx, us.Token)
		require.NoError(t, err)
		assert.Equal(t, "ada", got.Username)
		assert.Equal(t, session, got.Session)
		assert.Equal(t, 2, got.RequestCount)
	})

	t.Run("update persists workspace edits", func(t *testing.T) {
		got, err := ts.Fetch(ctx, us.Token)
		require.NoError(t, err)
		got.Session.AddCourse(models.Course{Code: "CSC102", CreditUnit: 2, Grade: models.GradeB})
		require.NoError(t, ts.Update(ctx, got))

		again, err := ts.Fetch(ctx, us.Token)
		require.NoError(t, err)
		assert.Len(t, again.Session.Courses, 2)
	})

	t.Run("unknown token", func(t *testing.T) {
		_, err := ts.Fetch(ctx, "sk-cgpa-unknown")
		assert.ErrorIs(t, err, ErrUnauthorized)

		err = ts.Update(ctx, &UserSession{TokenInfo: models.TokenInfo{Token: "sk-cgpa-unknown"}, Session: session})
		assert.ErrorIs(t, err, ErrUnauthorized)
	})

	t.Run("revoke ends the session", func(t *testing.T) {
		require.NoError(t, ts.Revoke(ctx, us.Token))
		_, err := ts.Fetch(ctx, us.Token)
		assert.ErrorIs(t, err, ErrUnauthorized)
	})
}

func TestMemoryTokenStore(t *testing.T) {
	runTokenStoreSuite(t, NewMemoryTokenStore(time.Hour))
}

func TestMemoryTokenStore_Expiry(t *testing.T) {
	ts := NewMemoryTokenStore(time.Hour)
	now := time.Date(2024, 1, 15, 12, 0, 0, 0, time.UTC)
	ts.now = func() time.Time { return now }

	us, err := ts.Issue(context.Background(), "ada", models.NewSession("", ""))
	require.NoError(t, err)

	now = now.Add(59 * time.Minute)
	_, err = ts.Fetch(context.Background(), us.Token)
	require.NoError(t, err)

	now = now.Add(61 * time.Minute)
	_, err = ts.Fetch(context.Background(), us.Token)
	assert.ErrorIs(t, err, ErrUnauthorized)
}

func TestRedisTokenStore(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	ts := NewRedisTokenStore(client, time.Hour)
	defer ts.Close()

	runTokenStoreSuite(t, ts)
}

func TestRedisTokenStore_TTL(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	ts := NewRedisTokenStore(client, time.Hour)
	defer ts.Close()

	us, err := ts.Issue(context.Background(), "ada", models.NewSession("", ""))
	require.NoError(t, err)
	assert.Equal(t, time.Hour, mr.TTL("auth:"+us.Token))

	mr.FastForward(2 * time.Hour)
	_, err = ts.Fetch(context.Background(), us.Token)
	assert.ErrorIs(t, err, ErrUnauthorized)
}
