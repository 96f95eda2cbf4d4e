package postgres

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/iamasit07/blokus-client/internal/domain"
	"github.com/iamasit07/blokus-client/pkg/uid"
)

func openTestDB(t *testing.T) *ResultRepo {
	t.Helper()
	url := os.Getenv("TEST_DATABASE_URL")
	if url == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	db, err := Open(ctx, url, 2, 2, 1, zap.NewNop())
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return NewResultRepo(db, zap.NewNop())
}

func TestResultRepoRoundTrip(t *testing.T) {
	repo := openTestDB(t)
	ctx := context.Background()

	one := domain.Player{Team: domain.TeamOne, DisplayName: "alpha"}
	two := domain.Player{Team: domain.TeamTwo, DisplayName: "beta"}
	start := time.Now().UTC().Truncate(time.Second)
	rec := domain.GameRecord{
		RunID:      uid.GenerateRunID(),
		GameID:     "g-1",
		Team:       domain.TeamOne,
		Players:    []domain.Player{one, two},
		Scores:     []domain.Score{{Player: one, Points: 80, Cause: domain.CauseRegular}, {Player: two, Points: 60, Cause: domain.CauseRegular}},
		Winner:     &one,
		Turns:      40,
		MovesSent:  20,
		StartedAt:  start,
		FinishedAt: start.Add(time.Minute),
	}
	if err := repo.RecordResult(ctx, rec); err != nil {
		t.Fatalf("record: %v", err)
	}
	rec.Turns = 41
	if err := repo.RecordResult(ctx, rec); err != nil {
		t.Fatalf("record again: %v", err)
	}

	got, err := repo.GetResult(ctx, rec.RunID, rec.GameID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Turns != 41 || !got.Won() || len(got.Scores) != 2 || got.Scores[0].Points != 80 {
		t.Fatalf("unexpected record %+v", got)
	}

	recent, err := repo.RecentResults(ctx, 5)
	if err != nil || len(recent) == 0 {
		t.Fatalf("recent: %v %d", err, len(recent))
	}

	if _, err := repo.GetResult(ctx, rec.RunID, "missing"); !errors.Is(err, ErrResultNotFound) {
		t.Fatalf("missing game: %v", err)
	}
}
