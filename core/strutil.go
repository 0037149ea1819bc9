package core

// Number formatting without fmt, which is too large for the firmware image.

func utoa(n uint32) string {
	var buf [10]byte
	i := len(buf)
	for {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
		if n == 0 {
			return string(buf[i:])
		}
	}
}

func itoa(n int) string {
	if n < 0 {
		return "-" + utoa(uint32(-n))
	}
	return utoa(uint32(n))
}

// hex32 formats n as 0x followed by eight hex digits.
func hex32(n uint32) string {
	const digits = "0123456789abcdef"
	buf := [10]byte{'0', 'x'}
	for i := 9; i >= 2; i-- {
		buf[i] = digits[n&0xF]
		n >>= 4
	}
	return string(buf[:])
}

// valueToString renders a dictionary constant.
func valueToString(v any) string {
	switch val := v.(type) {
	case string:
		return val
	case int:
		return itoa(val)
	case uint8:
		return utoa(uint32(val))
	case uint32:
		return utoa(val)
	}
	return ""
}

// jsonQuote writes s as a JSON string. Dictionary strings are plain ASCII,
// so only quotes and backslashes need escaping.
func jsonQuote(dst []byte, s string) []byte {
	dst = append(dst, '"')
	for i := 0; i < len(s); i++ {
		if c := s[i]; c == '"' || c == '\\' {
			dst = append(dst, '\\', c)
		} else {
			dst = append(dst, c)
		}
	}
	return append(dst, '"')
}
