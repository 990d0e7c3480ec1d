// Package redis provides a Redis-backed store.ProjectStore.
//
// Each project is stored as a JSON string under <prefix>project:<id>, and a
// sorted set <prefix>projects scores project ids by their update time in
// milliseconds. An optional TTL expires project documents; List drops index
// entries whose documents have expired.
//
//	s := redis.NewRedisProjectStore(redis.RedisOptions{
//		Addr:   "localhost:6379",
//		Prefix: "decks:",
//		TTL:    24 * time.Hour,
//	})
//	defer s.Close()
package redis
