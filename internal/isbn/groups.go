package isbn

import "strconv"

// GroupInfo はグループ記号に対応する地域と言語。
type GroupInfo struct {
	Region   string
	Language string
}

// groups は既知のグループ記号表。
var groups = map[string]GroupInfo{
	"0":   {Region: "English-speaking", Language: "English"},
	"1":   {Region: "English-speaking", Language: "English"},
	"2":   {Region: "French-speaking", Language: "French"},
	"3":   {Region: "German-speaking", Language: "German"},
	"4":   {Region: "Japan", Language: "Japanese"},
	"5":   {Region: "Russian Federation", Language: "Russian"},
	"7":   {Region: "China", Language: "Chinese"},
	"88":  {Region: "Italy", Language: "Italian"},
	"89":  {Region: "Korea", Language: "Korean"},
	"957": {Region: "Taiwan", Language: "Chinese"},
	"978": {Region: "International", Language: "Multiple"},
	"979": {Region: "International", Language: "Multiple"},
}

// maxGroupLength はグループ記号の最大桁数。
const maxGroupLength = 5

func lookupGroup(code string) (GroupInfo, bool) {
	if code == "" {
		return GroupInfo{}, false
	}
	g, ok := groups[code]
	return g, ok
}

// findGroup は1桁から5桁まで順に候補を試し、最初に表に一致したグループ記号を返す。
func findGroup(body string) string {
	for l := 1; l <= maxGroupLength && l <= len(body); l++ {
		if _, ok := groups[body[:l]]; ok {
			return body[:l]
		}
	}
	return ""
}

// japanPublisherRanges は日本（グループ記号4）の出版者記号の範囲表。
// 先頭からlength桁の値がmax以下であればその桁数を出版者記号とみなす。
var japanPublisherRanges = []struct {
	length int
	max    int
}{
	{2, 19},
	{3, 699},
	{4, 8499},
	{5, 89999},
	{6, 949999},
	{7, 9999999},
}

// splitPublisher はグループ記号以降の桁を出版者記号と書名記号に分割する。
// 推定できない場合は空文字列を返す。
func splitPublisher(group, rest string) (publisher, item string) {
	n := publisherLength(group, rest)
	if n <= 0 || n >= len(rest) {
		return "", ""
	}
	return rest[:n], rest[n:]
}

func publisherLength(group, rest string) int {
	if group == "4" {
		for _, r := range japanPublisherRanges {
			if len(rest) <= r.length {
				break
			}
			v, err := strconv.Atoi(rest[:r.length])
			if err != nil {
				return 0
			}
			if v <= r.max {
				return r.length
			}
		}
		return 0
	}

	// 残りの桁が長いほど出版者記号は短い
	switch l := len(rest); {
	case l >= 7:
		return 2
	case l >= 5:
		return 3
	case l >= 3:
		return 1
	default:
		return 0
	}
}
