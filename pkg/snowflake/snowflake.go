package snowflake

type Snowflake interface {
	Generate() int64
	// GenerateString returns a new id in base58, short enough for headers.
	GenerateString() string
}
