package writer

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/lib/pq"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/XavierBriggs/Argus/internal/delta"
	"github.com/XavierBriggs/Argus/pkg/models"
)

const (
	streamKeyFormat = "quotes.validated.%s" // quotes.validated.basketball_nba
	streamMaxLen    = 10000
)

// Writer persists changed quotes to Postgres and publishes them to Redis
// Streams for the analysis stage. Either sink may be nil.
type Writer struct {
	db     *sql.DB
	redis  *redis.Client
	logger *zap.Logger
}

// StreamMessage represents a message published to Redis Stream
type StreamMessage struct {
	SetID       string          `json:"set_id"`
	RequestKey  string          `json:"request_key"`
	Sport       string          `json:"sport"`
	Source      models.SourceID `json:"source"`
	Fallback    bool            `json:"fallback"`
	Bookmaker   string          `json:"bookmaker"`
	Market      string          `json:"market"`
	Selection   string          `json:"selection"`
	Price       float64         `json:"price"`
	Point       *float64        `json:"point,omitempty"`
	OldPrice    *float64        `json:"old_price,omitempty"`
	ChangeType  string          `json:"change_type"`
	EventStatus string          `json:"event_status"` // "upcoming" or "live"
	RetrievedAt time.Time       `json:"retrieved_at"`
}

// NewWriter creates a new writer
func NewWriter(db *sql.DB, redisClient *redis.Client, logger *zap.Logger) *Writer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Writer{
		db:     db,
		redis:  redisClient,
		logger: logger,
	}
}

// Write stores the changed quotes of one retrieval. The event row is
// upserted when known. Stream publishing happens only after the database
// commit; a publish failure is logged, not returned.
func (w *Writer) Write(ctx context.Context, set models.QuoteSet, event *models.Event, deltas []delta.Delta) error {
	if len(deltas) == 0 && event == nil {
		return nil
	}

	if w.db != nil {
		if err := w.persist(ctx, set, event, deltas); err != nil {
			return err
		}
	}

	if w.redis != nil && len(deltas) > 0 {
		status := "upcoming"
		if event != nil && event.EventStatus != "" {
			status = event.EventStatus
		}
		if err := w.publishToStream(ctx, set, status, deltas); err != nil {
			// DB is source of truth
			w.logger.Warn("publish to stream failed", zap.String("event", set.RequestKey), zap.Error(err))
		}
	}

	return nil
}

func (w *Writer) persist(ctx context.Context, set models.QuoteSet, event *models.Event, deltas []delta.Delta) error {
	tx, err := w.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	if event != nil {
		if err := w.upsertEvent(ctx, tx, set.RequestKey, event); err != nil {
			return fmt.Errorf("upsert event: %w", err)
		}
	}

	if len(deltas) > 0 {
		// Step 1: Update previous rows (set is_latest = false)
		if err := w.updatePreviousQuotes(ctx, tx, set.RequestKey, deltas); err != nil {
			return fmt.Errorf("update previous quotes: %w", err)
		}

		// Step 2: Insert new rows (with is_latest = true)
		if err := w.insertNewQuotes(ctx, tx, set, deltas); err != nil {
			return fmt.Errorf("insert new quotes: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// updatePreviousQuotes sets is_latest = false for the rows being replaced
func (w *Writer) updatePreviousQuotes(ctx context.Context, tx *sql.Tx, requestKey string, deltas []delta.Delta) error {
	query := `
		UPDATE quote_snapshots
		SET is_latest = false
		WHERE is_latest = true
		  AND request_key = $1
		  AND (market, bookmaker, selection) IN (
			SELECT UNNEST($2::text[]), UNNEST($3::text[]), UNNEST($4::text[])
		  )
	`

	markets := make([]string, len(deltas))
	bookmakers := make([]string, len(deltas))
	selections := make([]string, len(deltas))

	for i, d := range deltas {
		markets[i] = string(d.Quote.Market)
		bookmakers[i] = d.Quote.Bookmaker
		selections[i] = d.Quote.Selection
	}

	_, err := tx.ExecContext(ctx, query, requestKey, pq.Array(markets), pq.Array(bookmakers), pq.Array(selections))
	return err
}

// insertNewQuotes inserts changed quotes with is_latest = true
func (w *Writer) insertNewQuotes(ctx context.Context, tx *sql.Tx, set models.QuoteSet, deltas []delta.Delta) error {
	query := `
		INSERT INTO quote_snapshots (
			set_id, request_key, sport, source, fallback,
			market, bookmaker, selection, price, point, retrieved_at, is_latest
		)
		SELECT $1, $2, $3, $4, $5, m, b, s, p, pt, r, true
		FROM UNNEST(
			$6::text[], $7::text[], $8::text[], $9::decimal[], $10::decimal[], $11::timestamptz[]
		) AS t(m, b, s, p, pt, r)
	`

	markets := make([]string, len(deltas))
	bookmakers := make([]string, len(deltas))
	selections := make([]string, len(deltas))
	prices := make([]float64, len(deltas))
	points := make([]*float64, len(deltas))
	retrievedAts := make([]time.Time, len(deltas))

	for i, d := range deltas {
		markets[i] = string(d.Quote.Market)
		bookmakers[i] = d.Quote.Bookmaker
		selections[i] = d.Quote.Selection
		prices[i] = d.Quote.Price
		points[i] = d.Quote.Point
		retrievedAts[i] = d.Quote.RetrievedAt
	}

	_, err := tx.ExecContext(ctx, query,
		set.ID, set.RequestKey, set.Sport, string(set.Source), set.Fallback,
		pq.Array(markets), pq.Array(bookmakers), pq.Array(selections),
		pq.Array(prices), pq.Array(points), pq.Array(retrievedAts),
	)
	return err
}

// upsertEvent inserts or updates the discovered event behind a request key
func (w *Writer) upsertEvent(ctx context.Context, tx *sql.Tx, requestKey string, evt *models.Event) error {
	query := `
		INSERT INTO quote_events (
			request_key, event_id, sport_key, home_team, away_team, commence_time, event_status
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (request_key)
		DO UPDATE SET
			event_id = EXCLUDED.event_id,
			commence_time = EXCLUDED.commence_time,
			event_status = EXCLUDED.event_status
	`

	_, err := tx.ExecContext(ctx, query,
		requestKey, evt.EventID, evt.SportKey, evt.HomeTeam, evt.AwayTeam, evt.CommenceTime, evt.EventStatus,
	)
	return err
}

// publishToStream publishes quote deltas to the sport's Redis Stream
func (w *Writer) publishToStream(ctx context.Context, set models.QuoteSet, eventStatus string, deltas []delta.Delta) error {
	streamKey := StreamKey(set.Sport)
	pipe := w.redis.Pipeline()

	for _, d := range deltas {
		msg := StreamMessage{
			SetID:       set.ID,
			RequestKey:  set.RequestKey,
			Sport:       set.Sport,
			Source:      d.Quote.Source,
			Fallback:    set.Fallback,
			Bookmaker:   d.Quote.Bookmaker,
			Market:      string(d.Quote.Market),
			Selection:   d.Quote.Selection,
			Price:       d.Quote.Price,
			Point:       d.Quote.Point,
			OldPrice:    d.OldPrice,
			ChangeType:  string(d.ChangeType),
			EventStatus: eventStatus,
			RetrievedAt: d.Quote.RetrievedAt,
		}

		msgJSON, err := json.Marshal(msg)
		if err != nil {
			return fmt.Errorf("marshal stream message: %w", err)
		}

		pipe.XAdd(ctx, &redis.XAddArgs{
			Stream: streamKey,
			MaxLen: streamMaxLen,
			Approx: true,
			Values: map[string]interface{}{
				"data": msgJSON,
			},
		})
	}

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redis pipeline exec for stream: %w", err)
	}
	return nil
}

// StreamKey returns the stream a sport's quotes are published to
func StreamKey(sport string) string {
	return fmt.Sprintf(streamKeyFormat, strings.ToLower(sport))
}
