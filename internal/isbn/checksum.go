package isbn

import "strconv"

// validISBN10Checksum は重み10..1の加重和が11で割り切れるかを検証する。
// Xは10として扱う。
func validISBN10Checksum(s string) bool {
	if len(s) != 10 {
		return false
	}
	sum := 0
	for i := 0; i < 10; i++ {
		v, ok := isbn10Value(s[i], i == 9)
		if !ok {
			return false
		}
		sum += v * (10 - i)
	}
	return sum%11 == 0
}

// validISBN13Checksum は重み1,3の交互加重和が10で割り切れるかを検証する。
func validISBN13Checksum(s string) bool {
	if len(s) != 13 {
		return false
	}
	sum := 0
	for i := 0; i < 13; i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
		d := int(s[i] - '0')
		if i%2 == 1 {
			d *= 3
		}
		sum += d
	}
	return sum%10 == 0
}

// isbn10CheckDigit は先頭9桁からISBN-10のチェックディジットを算出する。
func isbn10CheckDigit(first9 string) string {
	sum := 0
	for i := 0; i < 9; i++ {
		sum += int(first9[i]-'0') * (10 - i)
	}
	check := (11 - sum%11) % 11
	if check == 10 {
		return "X"
	}
	return strconv.Itoa(check)
}

// isbn13CheckDigit は先頭12桁からISBN-13のチェックディジットを算出する。
func isbn13CheckDigit(first12 string) string {
	sum := 0
	for i := 0; i < 12; i++ {
		d := int(first12[i] - '0')
		if i%2 == 1 {
			d *= 3
		}
		sum += d
	}
	return strconv.Itoa((10 - sum%10) % 10)
}

func isbn10Value(c byte, last bool) (int, bool) {
	switch {
	case c >= '0' && c <= '9':
		return int(c - '0'), true
	case c == 'X' && last:
		return 10, true
	default:
		return 0, false
	}
}

// toISBN13 はISBN-10の先頭9桁に978を付与し、チェックディジットを再計算する。
func toISBN13(isbn10 string) string {
	first12 := "978" + isbn10[:9]
	return first12 + isbn13CheckDigit(first12)
}

// toISBN10 は978で始まるISBN-13からプレフィックスを除いた9桁でISBN-10を再構成する。
func toISBN10(isbn13 string) string {
	first9 := isbn13[3:12]
	return first9 + isbn10CheckDigit(first9)
}
