package route

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/arkd0ng/weave/weaveerr"
)

// Parse parses a full route phrase, already split into shell-style tokens
// (os.Args[1:] or equivalent), into an ordered slice of Routes. Clauses are
// separated by the literal token "and"; a clause whose source is the
// literal token "nothing" is parsed but dropped from the returned table.
//
// Parse aborts on the first malformed clause; the returned error is always
// a *weaveerr.Error of KindArgv, and for a malformed clause it carries the
// 1-based clause number.
func Parse(tokens []string) ([]Route, error) {
	clauses := splitClauses(tokens)
	if len(clauses) == 0 {
		return nil, weaveerr.New(weaveerr.KindArgv, "empty route phrase")
	}

	routes := make([]Route, 0, len(clauses))
	for i, clause := range clauses {
		clauseNo := i + 1
		route, keep, err := parseClause(clause)
		if err != nil {
			return nil, weaveerr.Wrap(weaveerr.KindArgv, "malformed route clause", err).
				With("clause", clauseNo)
		}
		if !keep {
			continue
		}
		route.DeclIndex = len(routes)
		routes = append(routes, route)
	}
	return routes, nil
}

// splitClauses splits tokens on top-level "and" separators.
func splitClauses(tokens []string) [][]string {
	var clauses [][]string
	var cur []string
	for _, t := range tokens {
		if t == "and" {
			if len(cur) > 0 {
				clauses = append(clauses, cur)
				cur = nil
			}
			continue
		}
		cur = append(cur, t)
	}
	if len(cur) > 0 {
		clauses = append(clauses, cur)
	}
	return clauses
}

// parseClause parses one "SRC to DST" clause (or the bare "nothing"
// clause). keep is false when the clause should be dropped from the table.
func parseClause(tokens []string) (route Route, keep bool, err error) {
	if len(tokens) == 1 && tokens[0] == "nothing" {
		return Route{}, false, nil
	}
	if len(tokens) != 3 {
		return Route{}, false, fmt.Errorf("expected \"SRC to DST\", got %d tokens", len(tokens))
	}
	if tokens[1] != "to" {
		return Route{}, false, fmt.Errorf("unknown keyword %q, expected \"to\"", tokens[1])
	}

	srcTok, dstTok := tokens[0], tokens[2]
	if srcTok == "nothing" {
		return Route{}, false, nil
	}

	src, err := parseSrc(srcTok)
	if err != nil {
		return Route{}, false, fmt.Errorf("source %q: %w", srcTok, err)
	}

	if dstTok == "nothing" {
		return Route{Src: src, Dst: Nothing()}, true, nil
	}

	dst, err := parseDst(dstTok, src.Protocol)
	if err != nil {
		return Route{}, false, fmt.Errorf("destination %q: %w", dstTok, err)
	}

	if err := checkVarClosure(src, dst); err != nil {
		return Route{}, false, err
	}

	return Route{Src: src, Dst: dst}, true, nil
}

// parseSrc parses the SRC half of a clause: an optional "=" exact marker,
// an optional "tcp://" or "http://" scheme, an authority, and optional
// path segments.
func parseSrc(token string) (SrcPattern, error) {
	matchKind := Prefix
	if strings.HasPrefix(token, "=") {
		matchKind = Exact
		token = token[1:]
	}

	protocol := HTTP
	if rest, ok := strings.CutPrefix(token, "tcp://"); ok {
		protocol = TCP
		token = rest
	} else if rest, ok := strings.CutPrefix(token, "http://"); ok {
		token = rest
	} else if scheme := leadingScheme(token); scheme != "" {
		return SrcPattern{}, fmt.Errorf("unknown source scheme %q", scheme)
	}

	authorityPart, pathPart := splitAuthorityPath(token)
	host, port, err := splitAuthority(authorityPart, 0)
	if err != nil {
		return SrcPattern{}, err
	}

	segments, err := parsePathTemplate(pathPart)
	if err != nil {
		return SrcPattern{}, err
	}
	if protocol == TCP && len(segments) > 0 {
		return SrcPattern{}, fmt.Errorf("tcp source may not carry a path component")
	}

	pattern := SrcPattern{
		Listener:  Listener{Host: host, Port: port},
		Protocol:  protocol,
		MatchKind: matchKind,
		Segments:  segments,
	}

	if dup := firstDuplicate(pattern.VarNames()); dup != "" {
		return SrcPattern{}, fmt.Errorf("variable %q declared more than once", dup)
	}

	return pattern, nil
}

// parseDst parses the DST half of a clause. srcProtocol disambiguates
// scheme-less destinations (bare authorities) between tcp and http
// upstreams, and rejects protocol mismatches.
func parseDst(token string, srcProtocol Protocol) (DstTemplate, error) {
	if rest, ok := strings.CutPrefix(token, "statuscode://"); ok {
		code, err := strconv.Atoi(rest)
		if err != nil {
			return nil, fmt.Errorf("invalid status code %q", rest)
		}
		if code < 100 || code > 599 {
			return nil, fmt.Errorf("status code %d out of range [100, 599]", code)
		}
		return StatusCodeDst{Code: code}, nil
	}

	if rest, ok := strings.CutPrefix(token, "tcp://"); ok {
		if srcProtocol != TCP {
			return nil, fmt.Errorf("tcp:// destination requires a tcp:// source")
		}
		host, port, err := splitAuthority(rest, 0)
		if err != nil {
			return nil, err
		}
		return TCPUpstream{Host: host, Port: port}, nil
	}

	if scheme, rest, ok := cutHTTPScheme(token); ok {
		if srcProtocol == TCP {
			return nil, fmt.Errorf("%s:// destination requires a non-tcp source", scheme)
		}
		authorityPart, pathPart := splitAuthorityPath(rest)
		host, port, err := splitAuthority(authorityPart, defaultPortFor(scheme))
		if err != nil {
			return nil, err
		}
		segments, err := parsePathTemplate(pathPart)
		if err != nil {
			return nil, err
		}
		return HTTPUpstream{Scheme: scheme, Host: host, Port: port, PathTemplate: segments, PreserveQuery: true}, nil
	}

	if looksLikeAuthority(token) {
		if srcProtocol == TCP {
			host, port, err := splitAuthority(token, 0)
			if err != nil {
				return nil, err
			}
			return TCPUpstream{Host: host, Port: port}, nil
		}
		authorityPart, pathPart := splitAuthorityPath(token)
		host, port, err := splitAuthority(authorityPart, 80)
		if err != nil {
			return nil, err
		}
		segments, err := parsePathTemplate(pathPart)
		if err != nil {
			return nil, err
		}
		return HTTPUpstream{Scheme: "http", Host: host, Port: port, PathTemplate: segments, PreserveQuery: true}, nil
	}

	if scheme := leadingScheme(token); scheme != "" {
		return nil, fmt.Errorf("unknown destination scheme %q", scheme)
	}

	if srcProtocol == TCP {
		return nil, fmt.Errorf("tcp source requires a tcp destination, got filesystem path %q", token)
	}
	return File{RootPathTemplate: parseDstPathTemplate(token)}, nil
}

// leadingScheme returns the "name" of a leading "name://" marker, or ""
// when the token does not open with one. Used to reject unrecognized
// schemes instead of silently treating them as filesystem paths.
func leadingScheme(token string) string {
	idx := strings.Index(token, "://")
	if idx <= 0 {
		return ""
	}
	for _, r := range token[:idx] {
		if (r < 'a' || r > 'z') && (r < 'A' || r > 'Z') && (r < '0' || r > '9') && r != '+' && r != '.' && r != '-' {
			return ""
		}
	}
	return token[:idx]
}

func cutHTTPScheme(token string) (scheme, rest string, ok bool) {
	if r, ok := strings.CutPrefix(token, "https://"); ok {
		return "https", r, true
	}
	if r, ok := strings.CutPrefix(token, "http://"); ok {
		return "http", r, true
	}
	return "", "", false
}

func defaultPortFor(scheme string) int {
	if scheme == "https" {
		return 443
	}
	return 80
}

// checkVarClosure rejects destinations that reference a variable the
// source pattern never declares.
func checkVarClosure(src SrcPattern, dst DstTemplate) error {
	declared := make(map[string]bool)
	for _, n := range src.VarNames() {
		declared[n] = true
	}

	var used []string
	switch d := dst.(type) {
	case HTTPUpstream:
		used = segmentVarNames(d.PathTemplate)
	case File:
		used = dstSegmentVarNames(d.RootPathTemplate)
	}

	for _, n := range used {
		if !declared[n] {
			return fmt.Errorf("destination references undeclared variable %q", n)
		}
	}
	return nil
}

func firstDuplicate(names []string) string {
	seen := make(map[string]bool, len(names))
	for _, n := range names {
		if seen[n] {
			return n
		}
		seen[n] = true
	}
	return ""
}
