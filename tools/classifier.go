package tools

import "regexp"

// Safety classification is static and name-based: a tool is unsafe when its
// name signals mutating or destructive intent, safe when it signals a
// read-only inspection and matches no unsafe pattern. An unsafe match always
// wins. Names matching neither set are treated as unsafe, the conservative
// default for tools of unknown intent.

var unsafeNamePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)(?:^|[_\-.])(create|write|append|edit|modify|update|set)(?:$|[_\-.])`),
	regexp.MustCompile(`(?i)(?:^|[_\-.])(delete|remove|drop|truncate|purge|clear|reset)(?:$|[_\-.])`),
	regexp.MustCompile(`(?i)(?:^|[_\-.])(commit|push|merge|rebase|tag|release|publish|deploy)(?:$|[_\-.])`),
	regexp.MustCompile(`(?i)(?:^|[_\-.])(exec|execute|run|spawn|shell|bash|command|kill|install)(?:$|[_\-.])`),
	regexp.MustCompile(`(?i)(?:^|[_\-.])(move|rename|mkdir|chmod|chown|upload|send|post)(?:$|[_\-.])`),
}

var safeNamePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)(?:^|[_\-.])(read|get|list|fetch|load|cat|head|tail|view|show)(?:$|[_\-.])`),
	regexp.MustCompile(`(?i)(?:^|[_\-.])(search|find|grep|query|lookup|locate|match)(?:$|[_\-.])`),
	regexp.MustCompile(`(?i)(?:^|[_\-.])(inspect|describe|stat|status|info|diff|log|history)(?:$|[_\-.])`),
	regexp.MustCompile(`(?i)(?:^|[_\-.])(validate|check|verify|lint|test|analyze|count|think|thinking)(?:$|[_\-.])`),
	regexp.MustCompile(`(?i)thinking`),
}

// IsSafe classifies a tool name. Unsafe precedence: a name matching both an
// unsafe and a safe pattern is unsafe.
func IsSafe(name string) bool {
	for _, re := range unsafeNamePatterns {
		if re.MatchString(name) {
			return false
		}
	}
	for _, re := range safeNamePatterns {
		if re.MatchString(name) {
			return true
		}
	}
	return false
}
