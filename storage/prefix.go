package storage

// NormalizePrefixes coerces the lifecycle prefix argument into a list of
// key prefixes. Accepted shapes are a single string, a []string, and a
// []any whose members are all strings (the shape a decoded JSON payload
// arrives in). Anything else is a configuration error, and an empty string
// is rejected anywhere it appears.
func NormalizePrefixes(v any) ([]string, error) {
	switch p := v.(type) {
	case string:
		if p == "" {
			return nil, ErrEmptyPrefix
		}
		return []string{p}, nil
	case []string:
		if len(p) == 0 {
			return nil, ConfigurationError(p)
		}
		for _, s := range p {
			if s == "" {
				return nil, ErrEmptyPrefix
			}
		}
		return p, nil
	case []any:
		if len(p) == 0 {
			return nil, ConfigurationError(p)
		}
		out := make([]string, 0, len(p))
		for _, el := range p {
			s, ok := el.(string)
			if !ok {
				return nil, ConfigurationError(el)
			}
			if s == "" {
				return nil, ErrEmptyPrefix
			}
			out = append(out, s)
		}
		return out, nil
	default:
		return nil, ConfigurationError(v)
	}
}
