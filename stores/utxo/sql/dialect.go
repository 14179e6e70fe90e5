package sql

import "strings"

// stmt rewrites {1}, {2}, ... placeholder tokens in tpl into the reusable,
// numbered bound-variable syntax of the store's dialect: $1, $2, ... for
// postgres, ?1, ?2, ... for sqlite (sqlite's numbered parameters, unlike its
// plain "?", may be referenced more than once in a statement).
func (s *Store) stmt(tpl string) string {
	sym := "?"
	if s.engine == "postgres" {
		sym = "$"
	}

	out := tpl
	for n := 1; n <= 9; n++ {
		token := "{" + string(rune('0'+n)) + "}"
		if !strings.Contains(out, token) {
			continue
		}
		out = strings.ReplaceAll(out, token, sym+string(rune('0'+n)))
	}

	return out
}

func joinComma(parts []string) string {
	return strings.Join(parts, ", ")
}
