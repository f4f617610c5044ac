package cleaner

import (
	"context"
	"log"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Clean drops boost flags whose expiry has passed and prunes superseded
// location history. Only the newest location row per user is
// authoritative, so older rows can go once they are stale.
func Clean(pool *pgxpool.Pool) {
	query := `UPDATE listing SET boosted = FALSE, boost_expires_at = NULL
		WHERE boosted = TRUE AND boost_expires_at IS NOT NULL AND boost_expires_at < NOW()`
	_, err := pool.Exec(context.Background(), query)
	if err != nil {
		log.Printf("ERROR|cleaner.Clean:%s", err.Error())
	}

	query = `DELETE FROM user_location ul
		WHERE ul.created_at < NOW() - INTERVAL '30 DAYS'
		AND EXISTS (
			SELECT 1 FROM user_location newer
			WHERE newer.user_id = ul.user_id AND newer.created_at > ul.created_at
		)`
	_, err = pool.Exec(context.Background(), query)
	if err != nil {
		log.Printf("ERROR|cleaner.Clean:%s", err.Error())
	}
}
