package provider

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// Character classes used in gateway field conditions
const (
	ClassAlpha   = 'a'
	ClassNumeric = 'n'
	ClassSpecial = 's'
)

// maxConditionLength is the largest repetition RE2 accepts
const maxConditionLength = 1000

var classBodies = map[byte]string{
	ClassAlpha:   `a-z\p{L} \t`,
	ClassNumeric: `\d`,
	ClassSpecial: `+\-_:;/\\<>().,=?@&`,
}

// Pattern is a compiled field condition such as "an[..50]" or "n[8]"
type Pattern struct {
	condition string
	classes   string
	min       int
	max       int
	source    string
	re        *regexp.Regexp
}

// Condition returns the condition the pattern was compiled from
func (p *Pattern) Condition() string { return p.condition }

// Classes returns the class letters in declaration order, duplicates removed
func (p *Pattern) Classes() string { return p.classes }

// Min returns the minimum accepted length in characters
func (p *Pattern) Min() int { return p.min }

// Max returns the maximum accepted length in characters
func (p *Pattern) Max() int { return p.max }

// Regexp returns the anchored pattern source. Matching is case-insensitive.
func (p *Pattern) Regexp() string { return p.source }

// MatchString reports whether value satisfies the condition as a whole
func (p *Pattern) MatchString(value string) bool {
	return p.re.MatchString(value)
}

func (p *Pattern) String() string { return p.condition }

var patternCache = NewLRUCache[*Pattern](256, 0)

// CompileCondition parses a field condition and returns its pattern.
//
//	condition := classes "[" length "]"
//	classes   := ( "a" | "n" | "s" )+
//	length    := digits | ".." digits
//
// "[8]" means exactly 8 characters, "[..50]" means 1 to 50.
func CompileCondition(condition string) (*Pattern, error) {
	if p, ok := patternCache.Get(condition); ok {
		return p, nil
	}

	parsed, err := parseCondition(condition)
	if err != nil {
		return nil, err
	}

	patternCache.Set(condition, parsed)
	return parsed, nil
}

// MustCompileCondition is like CompileCondition but panics on a malformed condition
func MustCompileCondition(condition string) *Pattern {
	p, err := CompileCondition(condition)
	if err != nil {
		panic(err)
	}
	return p
}

// PatternCacheStats returns hit and miss counters of the compiled pattern cache
func PatternCacheStats() CacheStats {
	return patternCache.Stats()
}

type conditionParser struct {
	input string
	pos   int
}

func parseCondition(condition string) (*Pattern, error) {
	p := &conditionParser{input: condition}

	classes, err := p.classes()
	if err != nil {
		return nil, err
	}
	if err := p.expect('['); err != nil {
		return nil, err
	}

	bounded := strings.HasPrefix(p.input[p.pos:], "..")
	if bounded {
		p.pos += 2
	}

	n, err := p.number()
	if err != nil {
		return nil, err
	}
	if err := p.expect(']'); err != nil {
		return nil, err
	}
	if p.pos != len(p.input) {
		return nil, p.errorf("unexpected trailing input %q", p.input[p.pos:])
	}

	minLen, quantifier := n, fmt.Sprintf("{%d}", n)
	if bounded {
		minLen, quantifier = 1, fmt.Sprintf("{1,%d}", n)
	}

	var body strings.Builder
	for i := 0; i < len(classes); i++ {
		body.WriteString(classBodies[classes[i]])
	}

	source := "^([" + body.String() + "]" + quantifier + ")$"
	re, err := regexp.Compile("(?i)" + source)
	if err != nil {
		return nil, fmt.Errorf("%w: %q: %v", ErrInvalidCondition, condition, err)
	}

	return &Pattern{
		condition: condition,
		classes:   classes,
		min:       minLen,
		max:       n,
		source:    source,
		re:        re,
	}, nil
}

func (p *conditionParser) classes() (string, error) {
	var seen [256]bool
	var classes []byte

	for p.pos < len(p.input) {
		c := p.input[p.pos]
		if c == '[' {
			break
		}
		if _, ok := classBodies[c]; !ok {
			return "", p.errorf("unknown character class %q", c)
		}
		if !seen[c] {
			seen[c] = true
			classes = append(classes, c)
		}
		p.pos++
	}

	if len(classes) == 0 {
		return "", p.errorf("missing character class")
	}
	return string(classes), nil
}

func (p *conditionParser) number() (int, error) {
	start := p.pos
	for p.pos < len(p.input) && p.input[p.pos] >= '0' && p.input[p.pos] <= '9' {
		p.pos++
	}
	if start == p.pos {
		return 0, p.errorf("missing length")
	}

	n, err := strconv.Atoi(p.input[start:p.pos])
	if err != nil || n < 1 || n > maxConditionLength {
		return 0, p.errorf("length %q out of range", p.input[start:p.pos])
	}
	return n, nil
}

func (p *conditionParser) expect(c byte) error {
	if p.pos >= len(p.input) || p.input[p.pos] != c {
		return p.errorf("expected %q", c)
	}
	p.pos++
	return nil
}

func (p *conditionParser) errorf(format string, args ...any) error {
	return fmt.Errorf("%w: %q at offset %d: %s", ErrInvalidCondition, p.input, p.pos, fmt.Sprintf(format, args...))
}
