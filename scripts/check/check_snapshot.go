//go:build ignore
// +build ignore

package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/go-redis/redis/v8"
)

// 查看床旁屏快照缓存：
//
//	go run check_snapshot.go            列出所有活跃快照
//	go run check_snapshot.go <resident> 打印该住户的实时数据和快照
func main() {
	client := redis.NewClient(&redis.Options{
		Addr:     getEnv("REDIS_ADDR", "localhost:6379"),
		Password: getEnv("REDIS_PASSWORD", ""),
		DB:       0,
	})
	defer client.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		log.Fatalf("Failed to connect to redis: %v", err)
	}

	if len(os.Args) > 1 {
		dumpResident(ctx, client, os.Args[1])
		return
	}

	// 扫描所有快照 key
	var (
		cursor uint64
		count  int
	)
	fmt.Printf("%-30s %-12s %-10s\n", "resident_id", "ttl", "bytes")
	for {
		keys, next, err := client.Scan(ctx, cursor, "bedside:resident:*:snapshot", 100).Result()
		if err != nil {
			log.Fatalf("Failed to scan keys: %v", err)
		}
		for _, key := range keys {
			parts := strings.Split(key, ":")
			if len(parts) != 4 {
				continue
			}
			ttl, _ := client.TTL(ctx, key).Result()
			size, _ := client.StrLen(ctx, key).Result()
			fmt.Printf("%-30s %-12s %-10d\n", parts[2], ttl, size)
			count++
		}
		cursor = next
		if cursor == 0 {
			break
		}
	}
	fmt.Printf("\n共找到 %d 个活跃快照\n", count)
}

func dumpResident(ctx context.Context, client *redis.Client, residentID string) {
	for _, suffix := range []string{"realtime", "snapshot"} {
		key := fmt.Sprintf("bedside:resident:%s:%s", residentID, suffix)
		val, err := client.Get(ctx, key).Result()
		if err == redis.Nil {
			fmt.Printf("--- %s: (missing)\n\n", key)
			continue
		}
		if err != nil {
			log.Fatalf("Failed to get %s: %v", key, err)
		}
		ttl, _ := client.TTL(ctx, key).Result()

		var pretty bytes.Buffer
		if err := json.Indent(&pretty, []byte(val), "", "  "); err != nil {
			pretty.WriteString(val)
		}
		fmt.Printf("--- %s (ttl=%s)\n%s\n\n", key, ttl, pretty.String())
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
