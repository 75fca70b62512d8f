package redisx

import (
	"fmt"
	"time"
)

const (
	// Average price per category subtree: pricing:avg:{category_id} -> JSON result
	KeyPricingAverage = "pricing:avg:%d"

	// Dedup event processing: dedup:{service}:{event_id}
	KeyDedup = "dedup:%s:%s"
)

var (
	TTLPricing = time.Minute
	TTLDedup   = 48 * time.Hour
)

func PricingKey(categoryID int64) string { return fmt.Sprintf(KeyPricingAverage, categoryID) }

func DedupKey(service, eventID string) string { return fmt.Sprintf(KeyDedup, service, eventID) }
