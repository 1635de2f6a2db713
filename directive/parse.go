package directive

import (
	"fmt"
	"regexp"
	"strings"
)

var (
	keywordRe = regexp.MustCompile(`^\s*#\s*([A-Za-z_]+)`)
	includeRe = regexp.MustCompile(`^(?:"([^"]*)"|<([^>]*)>)\s*$`)
	defineRe  = regexp.MustCompile(`^([A-Za-z_][A-Za-z0-9_]*)(\(([^)]*)\))?\s*(.*)$`)
	paramRe   = regexp.MustCompile(`^(?:[A-Za-z_][A-Za-z0-9_]*|\.\.\.)$`)
)

// Parse classifies a logical line's code text. It returns (nil, nil) for
// plain code and for unrecognized directive keywords. A recognized keyword
// with a malformed argument is a parse error; the expander treats those as
// fatal (the output would otherwise be silently wrong).
func Parse(code string) (Directive, error) {
	m := keywordRe.FindStringSubmatch(code)
	if m == nil {
		return nil, nil
	}
	arg := strings.TrimSpace(code[len(m[0]):])

	// Directive keywords are case-sensitive: `#IF` is not a directive.
	switch m[1] {
	case "include":
		return parseInclude(arg)
	case "define":
		return parseDefine(arg)
	case "undef":
		name, err := firstToken("undef", arg)
		if err != nil {
			return nil, err
		}
		return Undef{Name: name}, nil
	case "pragma":
		return Pragma{Command: arg}, nil
	case "if":
		return If{Expr: arg}, nil
	case "ifdef":
		name, err := firstToken("ifdef", arg)
		if err != nil {
			return nil, err
		}
		return Ifdef{Name: name}, nil
	case "ifndef":
		name, err := firstToken("ifndef", arg)
		if err != nil {
			return nil, err
		}
		return Ifndef{Name: name}, nil
	case "elif":
		return Elif{Expr: arg}, nil
	case "else":
		return Else{}, nil
	case "endif":
		return Endif{}, nil
	}

	// Unknown keyword (#error, #line, ...): plain code, passed through.
	return nil, nil
}

func parseInclude(arg string) (Directive, error) {
	m := includeRe.FindStringSubmatch(arg)
	if m == nil {
		return nil, fmt.Errorf("malformed #include: expected \"file\" or <file>, got %q", arg)
	}
	if m[1] != "" || strings.HasPrefix(arg, `"`) {
		return Include{Target: m[1], Quoted: true}, nil
	}
	return Include{Target: m[2]}, nil
}

func parseDefine(arg string) (Directive, error) {
	m := defineRe.FindStringSubmatch(arg)
	if m == nil {
		return nil, fmt.Errorf("malformed #define: expected an identifier, got %q", arg)
	}
	d := Define{Name: m[1], Body: strings.TrimSpace(m[4])}
	if m[2] != "" {
		// Function-like macro: the parameter list must immediately follow
		// the name, C style. Parameters are tracked, never substituted.
		d.Params = []string{}
		params := strings.TrimSpace(m[3])
		if params != "" {
			for _, p := range strings.Split(params, ",") {
				p = strings.TrimSpace(p)
				if !paramRe.MatchString(p) {
					return nil, fmt.Errorf("malformed #define %s: bad parameter %q", d.Name, p)
				}
				d.Params = append(d.Params, p)
			}
		}
	} else if strings.HasPrefix(m[4], "(") && strings.HasPrefix(arg[len(m[1]):], "(") {
		// Unclosed parameter list, e.g. `#define F(a`.
		return nil, fmt.Errorf("malformed #define %s: unterminated parameter list", d.Name)
	}
	return d, nil
}

func firstToken(keyword, arg string) (string, error) {
	fields := strings.Fields(arg)
	if len(fields) == 0 {
		return "", fmt.Errorf("malformed #%s: missing identifier", keyword)
	}
	return fields[0], nil
}
