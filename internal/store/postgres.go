package store

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/stakecraft/econ-engine/internal/model"
)

// PostgresStore implements Store using PostgreSQL as the source of truth.
// Probabilities and price snapshots are stored as NUMERIC for exact decimal
// precision; coin amounts are BIGINT.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a new PostgreSQL-backed store.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// --- Markets ---

func (s *PostgresStore) CreateMarket(ctx context.Context, m *model.Market) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx,
		`INSERT INTO markets (id, question, kind, pool_yes, pool_no, status, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		m.ID, m.Question, m.Kind, m.PoolYes, m.PoolNo, m.Status, m.CreatedAt,
	)
	if err != nil {
		return err
	}

	for _, o := range m.Outcomes {
		_, err = tx.Exec(ctx,
			`INSERT INTO outcomes (id, market_id, name, color, probability, winner)
			 VALUES ($1, $2, $3, $4, $5::NUMERIC, $6)`,
			o.ID, o.MarketID, o.Name, o.Color, o.Probability.String(), o.Winner,
		)
		if err != nil {
			return err
		}
	}

	return tx.Commit(ctx)
}

func (s *PostgresStore) GetMarket(ctx context.Context, id string) (*model.Market, error) {
	var m model.Market
	err := s.pool.QueryRow(ctx,
		`SELECT id, question, kind, pool_yes, pool_no, status, created_at
		 FROM markets WHERE id = $1`, id).
		Scan(&m.ID, &m.Question, &m.Kind, &m.PoolYes, &m.PoolNo, &m.Status, &m.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("get market %s: %w", id, err)
	}

	rows, err := s.pool.Query(ctx,
		`SELECT id, market_id, name, color, probability::TEXT, winner
		 FROM outcomes WHERE market_id = $1 ORDER BY name`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		o, err := scanOutcome(rows)
		if err != nil {
			return nil, err
		}
		m.Outcomes = append(m.Outcomes, *o)
	}
	return &m, rows.Err()
}

func (s *PostgresStore) ListMarkets(ctx context.Context) ([]model.Market, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, question, kind, pool_yes, pool_no, status, created_at
		 FROM markets ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var markets []model.Market
	for rows.Next() {
		var m model.Market
		if err := rows.Scan(&m.ID, &m.Question, &m.Kind,
			&m.PoolYes, &m.PoolNo, &m.Status, &m.CreatedAt); err != nil {
			return nil, err
		}
		markets = append(markets, m)
	}
	return markets, rows.Err()
}

func (s *PostgresStore) GetOutcome(ctx context.Context, id string) (*model.Outcome, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT id, market_id, name, color, probability::TEXT, winner
		 FROM outcomes WHERE id = $1`, id)
	o, err := scanOutcome(row)
	if err != nil {
		return nil, fmt.Errorf("get outcome %s: %w", id, err)
	}
	return o, nil
}

func (s *PostgresStore) CloseMarket(ctx context.Context, marketID string) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE markets SET status = $2 WHERE id = $1 AND status = $3`,
		marketID, model.StatusClosed, model.StatusOpen,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("market %s not found or not open", marketID)
	}
	return nil
}

func (s *PostgresStore) ResolveMarket(ctx context.Context, marketID, winningOutcomeID string) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	tag, err := tx.Exec(ctx,
		`UPDATE markets SET status = $2 WHERE id = $1 AND status <> $2`,
		marketID, model.StatusResolved,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("market %s not found or already resolved", marketID)
	}

	tag, err = tx.Exec(ctx,
		`UPDATE outcomes SET winner = TRUE WHERE id = $1 AND market_id = $2`,
		winningOutcomeID, marketID,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("outcome %s not found in market %s", winningOutcomeID, marketID)
	}

	return tx.Commit(ctx)
}

// --- Stakes ---

func (s *PostgresStore) InsertBet(ctx context.Context, b *model.Bet) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO bets (id, user_id, market_id, outcome_id, side, amount,
		                   odds_at_bet, potential_payout, status, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7::NUMERIC, $8, $9, $10)`,
		b.ID, b.UserID, b.MarketID, b.OutcomeID, b.Side, b.Amount,
		b.OddsAtBet.String(), b.PotentialPayout, b.Status, b.CreatedAt,
	)
	return err
}

func (s *PostgresStore) GetBetsByUser(ctx context.Context, userID string) ([]model.Bet, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, user_id, market_id, outcome_id, side, amount,
		        odds_at_bet::TEXT, potential_payout, status, created_at
		 FROM bets WHERE user_id = $1 ORDER BY created_at`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanBets(rows)
}

func (s *PostgresStore) GetBetsByMarket(ctx context.Context, marketID string) ([]model.Bet, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, user_id, market_id, outcome_id, side, amount,
		        odds_at_bet::TEXT, potential_payout, status, created_at
		 FROM bets WHERE market_id = $1 ORDER BY created_at`, marketID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanBets(rows)
}

func (s *PostgresStore) GetOpenStakes(ctx context.Context, userID string) (map[string]int64, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT market_id, COALESCE(SUM(amount), 0)
		 FROM bets WHERE user_id = $1 AND status = $2
		 GROUP BY market_id`, userID, model.BetPending)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	stakes := make(map[string]int64)
	for rows.Next() {
		var marketID string
		var total int64
		if err := rows.Scan(&marketID, &total); err != nil {
			return nil, err
		}
		stakes[marketID] = total
	}
	return stakes, rows.Err()
}

func (s *PostgresStore) SettleBet(ctx context.Context, betID, status string) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE bets SET status = $2 WHERE id = $1`, betID, status)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("bet %s not found", betID)
	}
	return nil
}

// --- Seasons and leaderboards ---

func (s *PostgresStore) CreateSeason(ctx context.Context, season *model.Season) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO seasons (id, name, starts_at, ends_at)
		 VALUES ($1, $2, $3, $4)`,
		season.ID, season.Name, season.StartsAt, season.EndsAt,
	)
	return err
}

func (s *PostgresStore) GetSeason(ctx context.Context, id string) (*model.Season, error) {
	var season model.Season
	err := s.pool.QueryRow(ctx,
		`SELECT id, name, starts_at, ends_at FROM seasons WHERE id = $1`, id).
		Scan(&season.ID, &season.Name, &season.StartsAt, &season.EndsAt)
	if err != nil {
		return nil, fmt.Errorf("get season %s: %w", id, err)
	}
	return &season, nil
}

func (s *PostgresStore) ListEndedSeasons(ctx context.Context, before time.Time) ([]model.Season, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, name, starts_at, ends_at
		 FROM seasons WHERE ends_at < $1 ORDER BY ends_at`, before)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var seasons []model.Season
	for rows.Next() {
		var season model.Season
		if err := rows.Scan(&season.ID, &season.Name,
			&season.StartsAt, &season.EndsAt); err != nil {
			return nil, err
		}
		seasons = append(seasons, season)
	}
	return seasons, rows.Err()
}

func (s *PostgresStore) GetSeasonLeaderboard(ctx context.Context, seasonID string) ([]model.SeasonLeaderboardEntry, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT season_id, user_id, points, wins, losses, total_bet_amount
		 FROM season_leaderboard WHERE season_id = $1
		 ORDER BY points DESC, user_id`, seasonID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []model.SeasonLeaderboardEntry
	for rows.Next() {
		var e model.SeasonLeaderboardEntry
		if err := rows.Scan(&e.SeasonID, &e.UserID, &e.Points,
			&e.Wins, &e.Losses, &e.TotalBetAmount); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func (s *PostgresStore) ApplyLeaderboardDelta(ctx context.Context, seasonID, userID string, pointsDelta int64, won bool, betAmount int64) error {
	winInc, lossInc := 0, 1
	if won {
		winInc, lossInc = 1, 0
	}
	_, err := s.pool.Exec(ctx,
		`INSERT INTO season_leaderboard (season_id, user_id, points, wins, losses, total_bet_amount)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 ON CONFLICT (season_id, user_id) DO UPDATE SET
		   points = season_leaderboard.points + EXCLUDED.points,
		   wins = season_leaderboard.wins + EXCLUDED.wins,
		   losses = season_leaderboard.losses + EXCLUDED.losses,
		   total_bet_amount = season_leaderboard.total_bet_amount + EXCLUDED.total_bet_amount`,
		seasonID, userID, pointsDelta, winInc, lossInc, betAmount,
	)
	return err
}

// --- Season cards ---

func (s *PostgresStore) GetSeasonCard(ctx context.Context, seasonID, userID string) (*model.UserSeasonCard, error) {
	var card model.UserSeasonCard
	err := s.pool.QueryRow(ctx,
		`SELECT user_id, season_id, tier, highest_tier_achieved, updated_at
		 FROM user_season_cards WHERE season_id = $1 AND user_id = $2`,
		seasonID, userID).
		Scan(&card.UserID, &card.SeasonID, &card.Tier, &card.HighestTier, &card.UpdatedAt)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get season card %s/%s: %w", seasonID, userID, err)
	}
	return &card, nil
}

func (s *PostgresStore) UpsertSeasonCard(ctx context.Context, card *model.UserSeasonCard) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO user_season_cards (user_id, season_id, tier, highest_tier_achieved, updated_at)
		 VALUES ($1, $2, $3, $4, $5)
		 ON CONFLICT (user_id, season_id) DO UPDATE SET
		   tier = EXCLUDED.tier,
		   highest_tier_achieved = EXCLUDED.highest_tier_achieved,
		   updated_at = EXCLUDED.updated_at`,
		card.UserID, card.SeasonID, card.Tier, card.HighestTier, card.UpdatedAt,
	)
	return err
}

func (s *PostgresStore) CreateSeasonCardIfAbsent(ctx context.Context, card *model.UserSeasonCard) (bool, error) {
	tag, err := s.pool.Exec(ctx,
		`INSERT INTO user_season_cards (user_id, season_id, tier, highest_tier_achieved, updated_at)
		 VALUES ($1, $2, $3, $4, $5)
		 ON CONFLICT (user_id, season_id) DO NOTHING`,
		card.UserID, card.SeasonID, card.Tier, card.HighestTier, card.UpdatedAt,
	)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

// --- Daily reward ---

func (s *PostgresStore) GetDailyRewardState(ctx context.Context, userID string) (*model.DailyRewardState, error) {
	var st model.DailyRewardState
	err := s.pool.QueryRow(ctx,
		`SELECT user_id, last_claim_at, current_streak_day
		 FROM daily_reward_states WHERE user_id = $1`, userID).
		Scan(&st.UserID, &st.LastClaimAt, &st.StreakDay)
	if err == pgx.ErrNoRows {
		return &model.DailyRewardState{UserID: userID}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get daily reward state %s: %w", userID, err)
	}
	return &st, nil
}

// ClaimDailyReward uses a conditional upsert keyed on the previously
// observed last_claim_at so two racing claims cannot both be accepted.
func (s *PostgresStore) ClaimDailyReward(ctx context.Context, userID string, prevLastClaim, newLastClaim time.Time, newDay int) (bool, error) {
	if prevLastClaim.IsZero() {
		tag, err := s.pool.Exec(ctx,
			`INSERT INTO daily_reward_states (user_id, last_claim_at, current_streak_day)
			 VALUES ($1, $2, $3)
			 ON CONFLICT (user_id) DO NOTHING`,
			userID, newLastClaim, newDay,
		)
		if err != nil {
			return false, err
		}
		return tag.RowsAffected() > 0, nil
	}

	tag, err := s.pool.Exec(ctx,
		`UPDATE daily_reward_states
		 SET last_claim_at = $3, current_streak_day = $4
		 WHERE user_id = $1 AND last_claim_at = $2`,
		userID, prevLastClaim, newLastClaim, newDay,
	)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

// --- Scan helpers ---

type pgxRow interface {
	Scan(dest ...interface{}) error
}

func scanOutcome(row pgxRow) (*model.Outcome, error) {
	var o model.Outcome
	var probS string
	if err := row.Scan(&o.ID, &o.MarketID, &o.Name, &o.Color, &probS, &o.Winner); err != nil {
		return nil, err
	}
	o.Probability, _ = decimal.NewFromString(probS)
	return &o, nil
}

func scanBets(rows pgx.Rows) ([]model.Bet, error) {
	var bets []model.Bet
	for rows.Next() {
		var b model.Bet
		var oddsS string
		if err := rows.Scan(&b.ID, &b.UserID, &b.MarketID, &b.OutcomeID, &b.Side,
			&b.Amount, &oddsS, &b.PotentialPayout, &b.Status, &b.CreatedAt); err != nil {
			return nil, err
		}
		b.OddsAtBet, _ = decimal.NewFromString(oddsS)
		bets = append(bets, b)
	}
	return bets, rows.Err()
}
