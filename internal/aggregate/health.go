package aggregate

// Bucket classifies an average health score for display.
type Bucket int

// Buckets, worst to best. NoData is the zero value so an empty day never
// reads as Poor.
const (
	NoData Bucket = iota
	Poor
	Fair
	Good
	Best
)

func (b Bucket) String() string {
	switch b {
	case Best:
		return "best"
	case Good:
		return "good"
	case Fair:
		return "fair"
	case Poor:
		return "poor"
	default:
		return "none"
	}
}

// MarshalText encodes the bucket by name.
func (b Bucket) MarshalText() ([]byte, error) {
	return []byte(b.String()), nil
}

// UnmarshalText decodes a bucket name. Unknown names read as NoData.
func (b *Bucket) UnmarshalText(text []byte) error {
	switch string(text) {
	case "best":
		*b = Best
	case "good":
		*b = Good
	case "fair":
		*b = Fair
	case "poor":
		*b = Poor
	default:
		*b = NoData
	}
	return nil
}

// HealthBucket classifies an average score: >=8 best, >=6 good, >=4 fair,
// >0 poor, anything else no data.
func HealthBucket(score float64) Bucket {
	switch {
	case score >= 8:
		return Best
	case score >= 6:
		return Good
	case score >= 4:
		return Fair
	case score > 0:
		return Poor
	default:
		return NoData
	}
}

var healthMessages = map[Bucket]string{
	Best:   "Excellent!",
	Good:   "Good!",
	Fair:   "Could be better.",
	Poor:   "Needs improvement.",
	NoData: "No entries yet.",
}

// HealthMessage is the dashboard caption for an average score.
func HealthMessage(score float64) string {
	return healthMessages[HealthBucket(score)]
}

// EntryBucket classifies a single entry's rating for per-item badges.
// It has no Best tier: >=7 good, >=4 fair, otherwise poor.
func EntryBucket(rating int) Bucket {
	switch {
	case rating >= 7:
		return Good
	case rating >= 4:
		return Fair
	default:
		return Poor
	}
}
