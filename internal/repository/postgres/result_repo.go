package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/iamasit07/blokus-client/internal/domain"
)

// ErrResultNotFound is returned by GetResult for unknown games.
var ErrResultNotFound = errors.New("game result not found")

type ResultRepo struct {
	DB     *sql.DB
	logger *zap.Logger
}

func NewResultRepo(db *sql.DB, logger *zap.Logger) *ResultRepo {
	return &ResultRepo{DB: db, logger: logger}
}

// RecordResult stores a finished game. Recording the same run and game
// twice overwrites the first row.
func (r *ResultRepo) RecordResult(ctx context.Context, rec domain.GameRecord) error {
	players, err := json.Marshal(rec.Players)
	if err != nil {
		return fmt.Errorf("failed to marshal players: %w", err)
	}
	scores, err := json.Marshal(rec.Scores)
	if err != nil {
		return fmt.Errorf("failed to marshal scores: %w", err)
	}

	var winnerTeam, winnerName sql.NullString
	if rec.Winner != nil {
		winnerTeam = sql.NullString{String: rec.Winner.Team.String(), Valid: true}
		winnerName = sql.NullString{String: rec.Winner.DisplayName, Valid: true}
	}

	query := `
	INSERT INTO game_results (run_id, game_id, reservation, team, players, scores, winner_team, winner_name, won, turns, moves_sent, started_at, finished_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	ON CONFLICT (run_id, game_id) DO UPDATE SET
		players = EXCLUDED.players,
		scores = EXCLUDED.scores,
		winner_team = EXCLUDED.winner_team,
		winner_name = EXCLUDED.winner_name,
		won = EXCLUDED.won,
		turns = EXCLUDED.turns,
		moves_sent = EXCLUDED.moves_sent,
		finished_at = EXCLUDED.finished_at;
	`
	_, err = r.DB.ExecContext(ctx, query,
		rec.RunID, rec.GameID, rec.Reservation, rec.Team.String(), string(players), string(scores),
		winnerTeam, winnerName, rec.Won(), rec.Turns, rec.MovesSent, rec.StartedAt, rec.FinishedAt)
	if err != nil {
		return fmt.Errorf("failed to upsert game result: %w", err)
	}

	r.logger.Info("game result stored", zap.String("game_id", rec.GameID), zap.Bool("won", rec.Won()))
	return nil
}

const selectResult = `
	SELECT run_id, game_id, reservation, team, players, scores, winner_team, winner_name, turns, moves_sent, started_at, finished_at
	FROM game_results
`

func (r *ResultRepo) GetResult(ctx context.Context, runID, gameID string) (domain.GameRecord, error) {
	row := r.DB.QueryRowContext(ctx, selectResult+` WHERE run_id = $1 AND game_id = $2`, runID, gameID)
	rec, err := scanResult(row)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.GameRecord{}, ErrResultNotFound
	}
	return rec, err
}

// RecentResults lists the latest finished games, newest first.
func (r *ResultRepo) RecentResults(ctx context.Context, limit int) ([]domain.GameRecord, error) {
	rows, err := r.DB.QueryContext(ctx, selectResult+` ORDER BY finished_at DESC LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query game results: %w", err)
	}
	defer rows.Close()

	var out []domain.GameRecord
	for rows.Next() {
		rec, err := scanResult(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanResult(s scanner) (domain.GameRecord, error) {
	var (
		rec                    domain.GameRecord
		team                   string
		players, scores        []byte
		winnerTeam, winnerName sql.NullString
	)
	err := s.Scan(&rec.RunID, &rec.GameID, &rec.Reservation, &team, &players, &scores,
		&winnerTeam, &winnerName, &rec.Turns, &rec.MovesSent, &rec.StartedAt, &rec.FinishedAt)
	if err != nil {
		return domain.GameRecord{}, err
	}

	if rec.Team, err = domain.ParseTeam(team); err != nil {
		return domain.GameRecord{}, err
	}
	if err := json.Unmarshal(players, &rec.Players); err != nil {
		return domain.GameRecord{}, fmt.Errorf("failed to decode players: %w", err)
	}
	if err := json.Unmarshal(scores, &rec.Scores); err != nil {
		return domain.GameRecord{}, fmt.Errorf("failed to decode scores: %w", err)
	}
	if winnerTeam.Valid {
		t, err := domain.ParseTeam(winnerTeam.String)
		if err != nil {
			return domain.GameRecord{}, err
		}
		rec.Winner = &domain.Player{Team: t, DisplayName: winnerName.String}
	}
	return rec, nil
}
