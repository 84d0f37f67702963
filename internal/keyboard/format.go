package keyboard

import "strconv"

// FormatCount renders a counter suffix. Below 1000 the number is shown as is;
// from 1000 on it is shown in thousands with one decimal only when the remainder
// within the thousand reaches 100: 20000 -> "20k", 20100 -> "20.1k".
func FormatCount(n int) string {
	if n < 1000 {
		return strconv.Itoa(n)
	}
	k, rem := n/1000, n%1000
	if rem >= 100 {
		return strconv.Itoa(k) + "." + strconv.Itoa(rem/100) + "k"
	}
	return strconv.Itoa(k) + "k"
}
