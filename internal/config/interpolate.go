package config

import "strings"

const maxInterpolationDepth = 10

// interpolate expands ${name} references against the options of sectionName
// and then the injected values. "$$" yields a literal "$".
func (s *Store) interpolate(sectionName, value string, depth int) (string, error) {
	if !strings.Contains(value, "$") {
		return value, nil
	}
	if depth >= maxInterpolationDepth {
		return "", configError("interpolation depth exceeded in section '%s' while expanding %q", sectionName, value)
	}

	var b strings.Builder
	rest := value
	for {
		i := strings.IndexByte(rest, '$')
		if i < 0 {
			b.WriteString(rest)
			break
		}
		b.WriteString(rest[:i])
		rest = rest[i+1:]

		switch {
		case strings.HasPrefix(rest, "$"):
			b.WriteByte('$')
			rest = rest[1:]
		case strings.HasPrefix(rest, "{"):
			end := strings.IndexByte(rest, '}')
			if end < 0 {
				return "", configError("unterminated reference in section '%s': %q", sectionName, value)
			}
			name := rest[1:end]
			rest = rest[end+1:]

			resolved, err := s.resolveReference(sectionName, name, depth)
			if err != nil {
				return "", err
			}
			b.WriteString(resolved)
		default:
			return "", configError("'$' must be followed by '$' or '{' in section '%s': %q", sectionName, value)
		}
	}
	return b.String(), nil
}

func (s *Store) resolveReference(sectionName, name string, depth int) (string, error) {
	if sec, ok := s.sections[sectionName]; ok {
		if raw, ok := sec.get(name); ok {
			return s.interpolate(sectionName, raw, depth+1)
		}
	}
	if v, ok := s.injected[name]; ok {
		return v, nil
	}
	return "", configError("bad reference '${%s}' in section '%s'", name, sectionName)
}
