package kv

import (
	"encoding/json"
	"strings"
	"time"

	"mock-kv/internal/logs"
	"mock-kv/internal/metrics"
	"mock-kv/internal/store"
	"mock-kv/internal/ttl"
)

// defaultLogSize is the ring-buffer capacity of the logger a Namespace
// builds when none is injected.
const defaultLogSize = 1000

// Namespace is an in-memory stand-in for a time-expiring key-value namespace.
//
// Design principles:
//   - Every operation is a method on an explicit Namespace; there is no
//     package-level state.
//   - Expiration is lazy. Reads evict what they find expired, List and Dump
//     sweep the whole store first. Nothing runs in the background.
//   - Only Put can fail, and only with a *SizeError. Missing keys, expired
//     keys and undecodable JSON all read as nil.
//   - Logs and metrics are diagnostics and never change a return value.
//
// A Namespace is safe for concurrent use.
type Namespace struct {
	store   *store.Store
	now     func() time.Time
	logger  *logs.Logger
	metrics *metrics.Registry

	legacyJSONKeys bool
}

// SeedEntry is a raw record placed in a Namespace at construction time.
type SeedEntry struct {
	Key   string
	Entry store.Entry
}

type settings struct {
	now            func() time.Time
	logger         *logs.Logger
	metrics        *metrics.Registry
	seed           []SeedEntry
	legacyJSONKeys bool
}

// Option configures a Namespace.
type Option func(*settings)

// WithClock replaces time.Now as the source of the current instant.
func WithClock(now func() time.Time) Option {
	return func(s *settings) {
		if now != nil {
			s.now = now
		}
	}
}

// WithLogger sets the logger operations write diagnostics to.
func WithLogger(l *logs.Logger) Option {
	return func(s *settings) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithMetrics sets the registry operations record counters in.
// Without it metrics are discarded.
func WithMetrics(r *metrics.Registry) Option {
	return func(s *settings) {
		s.metrics = r
	}
}

// WithSeed pre-populates the namespace. Seed records are stored as given:
// they skip size validation and keep their expiry, so a seed may already
// be expired or carry a nil value. Metadata is still copied.
// Repeated options append; a later record for the same key replaces an
// earlier one.
func WithSeed(entries ...SeedEntry) Option {
	return func(s *settings) {
		s.seed = append(s.seed, entries...)
	}
}

// WithLegacyJSONKeys makes Get decode keys named "json" or ending in "-json"
// as JSON when the caller does not ask for a type.
func WithLegacyJSONKeys() Option {
	return func(s *settings) {
		s.legacyJSONKeys = true
	}
}

// NewNamespace builds an empty (or seeded) Namespace.
func NewNamespace(opts ...Option) *Namespace {
	s := settings{now: time.Now}
	for _, opt := range opts {
		opt(&s)
	}
	if s.logger == nil {
		s.logger = logs.NewLogger(defaultLogSize, logs.LevelFromEnv())
	}

	n := &Namespace{
		store:          store.NewStore(s.metrics),
		now:            s.now,
		logger:         s.logger,
		metrics:        s.metrics,
		legacyJSONKeys: s.legacyJSONKeys,
	}

	for _, rec := range s.seed {
		entry := rec.Entry.Clone()
		entry.Metadata = normalizeMetadata(entry.Metadata)
		n.store.Set(rec.Key, entry)
	}
	if len(s.seed) > 0 {
		n.logger.Debugf("namespace seeded with %d record(s)", len(s.seed))
	}

	return n
}

// Logger returns the logger the namespace writes to.
func (n *Namespace) Logger() *logs.Logger {
	return n.logger
}

// Metrics returns the registry the namespace records in, possibly nil.
func (n *Namespace) Metrics() *metrics.Registry {
	return n.metrics
}

// Put stores value at key, replacing any previous entry along with its
// expiry and metadata.
//
// Rules:
//   - key must be at most MaxKeyBytes and value at most MaxValueBytes,
//     otherwise a *SizeError is returned and nothing changes.
//   - Expiration (unix seconds) wins over ExpirationTTL (seconds from now).
//   - A TTL of zero or less stores an entry that is already expired.
//   - Metadata is stored as its JSON round-trip; nil stays nil.
func (n *Namespace) Put(key, value string, opts ...PutOptions) error {
	if err := validateSize(key, value); err != nil {
		n.metrics.Inc(metrics.KVSizeRejectionsTotal)
		n.logger.Warnf("put(%q) → rejected: %v", key, err)
		return err
	}

	o := firstPut(opts)
	now := n.nowMillis()

	entry := store.Entry{
		Value:     &value,
		ExpiresAt: ttl.Resolve(now, ttl.Options{Expiration: o.Expiration, ExpirationTTL: o.ExpirationTTL}),
		Metadata:  normalizeMetadata(o.Metadata),
	}
	n.store.Set(key, entry)
	n.metrics.Inc(metrics.KVPutsTotal)

	if n.logger.Enabled(logs.DEBUG) {
		n.logger.Debugf("put(%q, %d bytes, ttl: %s, exp: %s, meta: %s)",
			key, len(value), optional(o.ExpirationTTL), optional(o.Expiration), describeMetadata(entry.Metadata))
	}
	return nil
}

// Get returns the value at key, or nil if the key is missing or expired.
//
// With TypeJSON the stored string is decoded and the decoded value returned
// (nil, bool, float64, string, []any or map[string]any). A string that is
// not valid JSON reads as nil. Any other type returns the string unchanged.
func (n *Namespace) Get(key string, opts ...GetOptions) any {
	n.metrics.Inc(metrics.KVGetsTotal)

	entry, ok := n.store.Lookup(key, n.nowMillis())
	if !ok {
		n.metrics.Inc(metrics.KVMissesTotal)
		n.logger.Debugf("get(%q) → expired or missing", key)
		return nil
	}

	typ := firstGet(opts).Type
	if typ == "" && n.legacyJSONKeys && isJSONKey(key) {
		typ = TypeJSON
	}
	return n.decode("get", key, entry.Value, typ)
}

// GetWithMetadata is Get plus the stored metadata. It returns nil as a
// whole when the key is missing or expired.
func (n *Namespace) GetWithMetadata(key string, opts ...GetOptions) *ValueWithMetadata {
	n.metrics.Inc(metrics.KVGetsTotal)

	entry, ok := n.store.Lookup(key, n.nowMillis())
	if !ok {
		n.metrics.Inc(metrics.KVMissesTotal)
		n.logger.Debugf("getWithMetadata(%q) → expired or missing", key)
		return nil
	}

	return &ValueWithMetadata{
		Value:    n.decode("getWithMetadata", key, entry.Value, firstGet(opts).Type),
		Metadata: entry.Metadata,
	}
}

// Delete removes key. Deleting a missing key is a no-op.
func (n *Namespace) Delete(key string) {
	removed := n.store.Delete(key)
	n.metrics.Inc(metrics.KVDeletesTotal)
	n.logger.Debugf("delete(%q) → removed: %t", key, removed)
}

// List evicts every expired entry, then returns the remaining keys in
// insertion order, filtered by Prefix and capped at Limit. The sweep runs
// even when Limit is zero.
func (n *Namespace) List(opts ...ListOptions) ListResult {
	o := firstList(opts)
	n.metrics.Inc(metrics.KVListsTotal)

	keys := make([]ListKey, 0)
	for _, name := range n.store.Keys(n.nowMillis()) {
		if o.Limit != nil && len(keys) >= *o.Limit {
			break
		}
		if strings.HasPrefix(name, o.Prefix) {
			keys = append(keys, ListKey{Name: name})
		}
	}

	n.logger.Debugf("list(prefix: %q, limit: %s) → returning %d key(s)", o.Prefix, optional(o.Limit), len(keys))
	return ListResult{Keys: keys, ListComplete: true}
}

// Dump evicts every expired entry, then returns a deep copy of the rest.
// Changing the result never affects the namespace.
func (n *Namespace) Dump() map[string]store.Entry {
	n.logger.Debug("dump called")
	out := n.store.Snapshot(n.nowMillis())
	n.logger.Infof("dump success: %d key(s)", len(out))
	return out
}

// ForceExpire moves the expiry of key into the past so the next access
// evicts it. It does nothing if key is missing.
func (n *Namespace) ForceExpire(key string) {
	at := ttl.ForcedExpiry(n.nowMillis())
	found := n.store.Update(key, func(e *store.Entry) {
		e.ExpiresAt = &at
	})
	if !found {
		n.logger.Debugf("forceExpire(%q) called on missing key", key)
		return
	}

	n.metrics.Inc(metrics.KVForcedExpirationsTotal)
	n.logger.Infof("forceExpire(%q) success", key)
}

// decode applies the read-time coercion for typ to a stored value.
func (n *Namespace) decode(op, key string, raw *string, typ ValueType) any {
	if raw == nil {
		n.logger.Debugf("%s(%q) → no value", op, key)
		return nil
	}

	if typ != TypeJSON {
		n.logger.Debugf("%s(%q) → %d bytes", op, key, len(*raw))
		return *raw
	}

	var parsed any
	if err := json.Unmarshal([]byte(*raw), &parsed); err != nil {
		n.metrics.Inc(metrics.KVJSONDecodeFailuresTotal)
		n.logger.Warnf("%s(%q) → invalid JSON: %v", op, key, err)
		return nil
	}
	n.logger.Debugf("%s(%q) → parsed JSON", op, key)
	return parsed
}

func (n *Namespace) nowMillis() int64 {
	return n.now().UnixMilli()
}

func isJSONKey(key string) bool {
	return key == "json" || strings.HasSuffix(key, "-json")
}
