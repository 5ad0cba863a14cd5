package command

// Option is a single named value.
type Option struct {
	Key   string
	Value Value
}

// Opt is shorthand for building an Option.
func Opt(key string, value Value) Option {
	return Option{Key: key, Value: value}
}

// Options is an insertion-ordered set of options. Setting an existing key
// replaces its value in place; new keys are appended.
type Options struct {
	keys   []string
	values map[string]Value
}

// NewOptions builds an option set from pairs, in order.
func NewOptions(pairs ...Option) *Options {
	o := &Options{values: make(map[string]Value, len(pairs))}
	for _, p := range pairs {
		o.Set(p.Key, p.Value)
	}
	return o
}

// Set assigns value to key.
func (o *Options) Set(key string, value Value) {
	if o.values == nil {
		o.values = make(map[string]Value)
	}
	if _, ok := o.values[key]; !ok {
		o.keys = append(o.keys, key)
	}
	o.values[key] = value
}

// Get returns the value stored under key.
func (o *Options) Get(key string) (Value, bool) {
	if o == nil {
		return Value{}, false
	}
	v, ok := o.values[key]
	return v, ok
}

// Len returns the number of options.
func (o *Options) Len() int {
	if o == nil {
		return 0
	}
	return len(o.keys)
}

// Entries returns the options in insertion order.
func (o *Options) Entries() []Option {
	if o == nil {
		return nil
	}
	out := make([]Option, 0, len(o.keys))
	for _, k := range o.keys {
		out = append(out, Option{Key: k, Value: o.values[k]})
	}
	return out
}

// Clone returns an independent copy of o.
func (o *Options) Clone() *Options {
	return NewOptions(o.Entries()...)
}

// Merge returns a new option set holding o overlaid with overrides. Keys of o
// keep their position, override values win, and keys only present in
// overrides are appended in their own order. Neither input is modified.
func (o *Options) Merge(overrides *Options) *Options {
	merged := o.Clone()
	for _, e := range overrides.Entries() {
		merged.Set(e.Key, e.Value)
	}
	return merged
}
