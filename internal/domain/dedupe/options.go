package dedupe

// Option applies a configuration option to the ledger.
type Option func(*ringLedger)

// WithCapacity sets how many IDs are remembered. Zero or less keeps every ID.
func WithCapacity(n int) Option {
	return func(l *ringLedger) {
		l.capacity = n
	}
}
