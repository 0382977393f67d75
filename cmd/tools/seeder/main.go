// Seeder loads a starter inventory for a fresh installation. Safe to rerun:
// existing rows are matched by name and left alone.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	"github.com/noah-isme/retail-pos/internal/lock"
	"github.com/noah-isme/retail-pos/internal/obs"
)

type seedProduct struct {
	name          string
	localizedName string
	unit          string
}

var products = []seedProduct{
	{"Sugar", "चीनी", "kg"},
	{"Rice", "चावल", "kg"},
	{"Wheat Flour", "गेहूं का आटा", "kg"},
	{"Gram Flour", "बेसन", "kg"},
	{"Semolina", "सूजी", "kg"},
	{"Toor Dal", "तूर दाल", "kg"},
	{"Moong Dal", "मूंग दाल", "kg"},
	{"Chana Dal", "चना दाल", "kg"},
	{"Urad Dal", "उड़द दाल", "kg"},
	{"Masoor Dal", "मसूर दाल", "kg"},
	{"Mustard Oil", "सरसों का तेल", "litre"},
	{"Sunflower Oil", "सूरजमुखी तेल", "litre"},
	{"Ghee", "घी", "kg"},
	{"Salt", "नमक", "packet"},
	{"Turmeric Powder", "हल्दी पाउडर", "packet"},
	{"Red Chilli Powder", "लाल मिर्च पाउडर", "packet"},
	{"Coriander Powder", "धनिया पाउडर", "packet"},
	{"Cumin Seeds", "जीरा", "packet"},
	{"Black Pepper", "काली मिर्च", "packet"},
	{"Cardamom", "इलायची", "packet"},
	{"Cloves", "लौंग", "packet"},
	{"Cashew", "काजू", "kg"},
	{"Almond", "बादाम", "kg"},
	{"Raisin", "किशमिश", "kg"},
	{"Tea", "चाय", "packet"},
	{"Jaggery", "गुड़", "kg"},
	{"Poha", "पोहा", "kg"},
	{"Sabudana", "साबूदाना", "kg"},
	{"Peanut", "मूंगफली", "kg"},
	{"Papad", "पापड़", "packet"},
	{"Pickle", "अचार", "jar"},
	{"Vermicelli", "सेवई", "packet"},
	{"Rajma", "राजमा", "kg"},
	{"Kabuli Chana", "काबुली चना", "kg"},
	{"Black Chana", "काला चना", "kg"},
	{"Basmati Rice", "बासमती चावल", "kg"},
	{"Maida", "मैदा", "kg"},
	{"Garam Masala", "गरम मसाला", "packet"},
	{"Fennel Seeds", "सौंफ", "packet"},
	{"Fenugreek Seeds", "मेथी दाना", "packet"},
	{"Carom Seeds", "अजवाइन", "packet"},
	{"Bay Leaf", "तेज पत्ता", "packet"},
	{"Cinnamon", "दालचीनी", "packet"},
	{"Asafoetida", "हींग", "packet"},
	{"Dry Coconut", "सूखा नारियल", "piece"},
	{"Pistachio", "पिस्ता", "kg"},
	{"Walnut", "अखरोट", "kg"},
	{"Dates", "खजूर", "kg"},
	{"Coffee", "कॉफी", "packet"},
	{"Honey", "शहद", "jar"},
	{"Besan Laddu", "बेसन लड्डू", "kg"},
	{"Rock Salt", "सेंधा नमक", "packet"},
}

func main() {
	_ = godotenv.Load()

	logger := obs.NewLogger("console", "info").With().Str("component", "seeder").Logger()

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		logger.Fatal().Msg("DATABASE_URL is not set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	pool, err := pgxpool.New(ctx, dbURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("connect database")
	}
	defer pool.Close()

	if err := pool.Ping(ctx); err != nil {
		logger.Fatal().Err(err).Msg("ping database")
	}

	redisURL := os.Getenv("REDIS_URL")
	if redisURL == "" {
		logger.Fatal().Msg("REDIS_URL is not set")
	}
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("parse redis url")
	}
	rdb := redis.NewClient(opts)
	defer func() { _ = rdb.Close() }()

	// Concurrent seeder runs wait on each other instead of racing the
	// existence checks.
	locker := lock.Locker{R: rdb}
	err = locker.WithLock(ctx, "pos:seed:lock", time.Minute, func(ctx context.Context) error {
		inserted := 0
		for _, p := range products {
			tag, err := pool.Exec(ctx, `
				INSERT INTO inventory (name, localized_name, unit)
				SELECT $1, $2, $3
				WHERE NOT EXISTS (SELECT 1 FROM inventory WHERE name = $1)`,
				p.name, p.localizedName, p.unit,
			)
			if err != nil {
				return fmt.Errorf("seed %s: %w", p.name, err)
			}
			inserted += int(tag.RowsAffected())
		}
		logger.Info().Msg(fmt.Sprintf("seeding complete: %d of %d products inserted", inserted, len(products)))
		return nil
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("seed inventory")
	}
}
