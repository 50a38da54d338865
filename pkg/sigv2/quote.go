package sigv2

// Percent-encoding in the V2 scheme differs from net/url in two ways that
// matter for signatures: slashes inside object keys stay literal path
// separators, and the encoding of path and query components must agree with
// what the server uses when it recomputes the canonical resource. Encoding
// with the wrong rule produces a signature mismatch, not an encoding error.

const upperhex = "0123456789ABCDEF"

// Quote percent-encodes a URL path component.
//
// Every byte is escaped except RFC 3986 unreserved characters and "/".
// Non-ASCII text is encoded as UTF-8, each byte escaped individually:
//
//	Quote("/bucket/a key")  == "/bucket/a%20key"
//	Quote("/bucket/åder")   == "/bucket/%C3%A5der"
func Quote(s string) string {
	return escape(s, false)
}

// QueryQuote percent-encodes a query component with form semantics: spaces
// become "+" and slashes are escaped along with everything else reserved.
func QueryQuote(s string) string {
	return escape(s, true)
}

func escape(s string, query bool) string {
	hex := 0
	plus := false
	for i := 0; i < len(s); i++ {
		if c := s[i]; shouldEscape(c, query) {
			if query && c == ' ' {
				plus = true
			} else {
				hex++
			}
		}
	}
	if hex == 0 && !plus {
		return s
	}

	out := make([]byte, 0, len(s)+2*hex)
	for i := 0; i < len(s); i++ {
		switch c := s[i]; {
		case query && c == ' ':
			out = append(out, '+')
		case shouldEscape(c, query):
			out = append(out, '%', upperhex[c>>4], upperhex[c&0xf])
		default:
			out = append(out, c)
		}
	}
	return string(out)
}

func shouldEscape(c byte, query bool) bool {
	switch {
	case 'a' <= c && c <= 'z', 'A' <= c && c <= 'Z', '0' <= c && c <= '9':
		return false
	case c == '-' || c == '_' || c == '.' || c == '~':
		return false
	case c == '/':
		return query
	}
	return true
}
