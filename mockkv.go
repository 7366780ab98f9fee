// Package mockkv is an in-memory stand-in for a time-expiring key-value
// namespace, meant to replace the real service in tests.
//
//	ns := mockkv.New()
//	_ = ns.Put("foo", "bar", mockkv.PutOptions{ExpirationTTL: mockkv.Seconds(60)})
//	v := ns.Get("foo") // "bar"
//
// Entries expire lazily: a read that finds an expired entry evicts it, and
// List and Dump sweep every expired entry first.
package mockkv

import (
	"mock-kv/internal/config"
	"mock-kv/internal/kv"
	"mock-kv/internal/logs"
	"mock-kv/internal/metrics"
	"mock-kv/internal/store"
)

type (
	Namespace         = kv.Namespace
	Option            = kv.Option
	SeedEntry         = kv.SeedEntry
	PutOptions        = kv.PutOptions
	GetOptions        = kv.GetOptions
	ListOptions       = kv.ListOptions
	ListResult        = kv.ListResult
	ListKey           = kv.ListKey
	ValueWithMetadata = kv.ValueWithMetadata
	ValueType         = kv.ValueType
	SizeError         = kv.SizeError

	// Entry is a stored record, as returned by Dump and accepted by WithSeed.
	Entry = store.Entry

	Logger   = logs.Logger
	LogEntry = logs.Entry
	Level    = logs.Level

	Registry  = metrics.Registry
	MetricKey = metrics.MetricKey
)

const (
	TypeText = kv.TypeText
	TypeJSON = kv.TypeJSON

	MaxKeyBytes   = kv.MaxKeyBytes
	MaxValueBytes = kv.MaxValueBytes
)

// Log levels, lowest first.
const (
	DEBUG = logs.DEBUG
	INFO  = logs.INFO
	WARN  = logs.WARN
	ERROR = logs.ERROR
)

// Metric keys recorded by a namespace.
const (
	KVKeysTotal               = metrics.KVKeysTotal
	KVExpiredTotal            = metrics.KVExpiredTotal
	KVPutsTotal               = metrics.KVPutsTotal
	KVGetsTotal               = metrics.KVGetsTotal
	KVMissesTotal             = metrics.KVMissesTotal
	KVDeletesTotal            = metrics.KVDeletesTotal
	KVListsTotal              = metrics.KVListsTotal
	KVSizeRejectionsTotal     = metrics.KVSizeRejectionsTotal
	KVJSONDecodeFailuresTotal = metrics.KVJSONDecodeFailuresTotal
	KVForcedExpirationsTotal  = metrics.KVForcedExpirationsTotal
)

var (
	ErrSizeLimit = kv.ErrSizeLimit

	WithClock          = kv.WithClock
	WithLogger         = kv.WithLogger
	WithMetrics        = kv.WithMetrics
	WithSeed           = kv.WithSeed
	WithLegacyJSONKeys = kv.WithLegacyJSONKeys
	Seconds            = kv.Seconds
	MaxKeys            = kv.MaxKeys

	NewLogger    = logs.NewLogger
	ParseLevel   = logs.ParseLevel
	LevelFromEnv = logs.LevelFromEnv
	NewRegistry  = metrics.NewRegistry
)

// String and Millis build the pointer fields of an Entry.
func String(s string) *string { return &s }

func Millis(ms int64) *int64 { return &ms }

// New returns an empty namespace, or a seeded one when WithSeed is given.
func New(opts ...Option) *Namespace {
	return kv.NewNamespace(opts...)
}

// Load builds a namespace from a YAML fixture. Options given here are
// applied after the fixture's own, so they can override its logger or add
// more seed records.
func Load(path string, opts ...Option) (*Namespace, error) {
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	return kv.NewNamespace(append(cfg.Options(), opts...)...), nil
}
